package app

import (
	"io/ioutil"
	"os"
	"testing"
)

func TestDatabaseVersion(t *testing.T) {
	dbPath, err := ioutil.TempDir("", "TestDatabaseVersion")
	if err != nil {
		t.Fatalf("TestDatabaseVersion: TempDir: %s", err)
	}
	defer os.RemoveAll(dbPath)

	exists, err := checkDatabaseVersion(dbPath)
	if err != nil {
		t.Fatalf("TestDatabaseVersion: checkDatabaseVersion of a new database: %s", err)
	}
	if exists {
		t.Fatalf("TestDatabaseVersion: a new database must not have a version file")
	}

	err = createDatabaseVersionFile(dbPath)
	if err != nil {
		t.Fatalf("TestDatabaseVersion: createDatabaseVersionFile: %s", err)
	}
	exists, err = checkDatabaseVersion(dbPath)
	if err != nil {
		t.Fatalf("TestDatabaseVersion: checkDatabaseVersion: %s", err)
	}
	if !exists {
		t.Fatalf("TestDatabaseVersion: expected the version file to exist")
	}

	err = ioutil.WriteFile(versionFilePath(dbPath), []byte("2"), 0600)
	if err != nil {
		t.Fatalf("TestDatabaseVersion: WriteFile: %s", err)
	}
	_, err = checkDatabaseVersion(dbPath)
	if err == nil {
		t.Fatalf("TestDatabaseVersion: expected an error for an unknown version")
	}

	err = ioutil.WriteFile(versionFilePath(dbPath), []byte("not a number"), 0600)
	if err != nil {
		t.Fatalf("TestDatabaseVersion: WriteFile: %s", err)
	}
	_, err = checkDatabaseVersion(dbPath)
	if err == nil {
		t.Fatalf("TestDatabaseVersion: expected an error for a malformed version file")
	}
}
