package database_test

import (
	"bytes"
	"testing"

	"github.com/dposnet/dposd/domain/consensus/database"
	"github.com/dposnet/dposd/domain/consensus/utils/testutils"
)

func TestDBManagerTransaction(t *testing.T) {
	db, teardown := testutils.NewTestDatabase(t)
	defer teardown()

	bucket := database.MakeBucket([]byte("test"))
	committedKey := bucket.Key([]byte("committed"))
	rolledBackKey := bucket.Key([]byte("rolled-back"))

	dbTx, err := db.Begin()
	if err != nil {
		t.Fatalf("TestDBManagerTransaction: Begin: %+v", err)
	}
	err = dbTx.Put(committedKey, []byte("value"))
	if err != nil {
		t.Fatalf("TestDBManagerTransaction: Put: %+v", err)
	}
	err = dbTx.Commit()
	if err != nil {
		t.Fatalf("TestDBManagerTransaction: Commit: %+v", err)
	}

	dbTx, err = db.Begin()
	if err != nil {
		t.Fatalf("TestDBManagerTransaction: Begin: %+v", err)
	}
	err = dbTx.Put(rolledBackKey, []byte("value"))
	if err != nil {
		t.Fatalf("TestDBManagerTransaction: Put: %+v", err)
	}
	err = dbTx.RollbackUnlessClosed()
	if err != nil {
		t.Fatalf("TestDBManagerTransaction: RollbackUnlessClosed: %+v", err)
	}

	value, err := db.Get(committedKey)
	if err != nil {
		t.Fatalf("TestDBManagerTransaction: Get: %+v", err)
	}
	if !bytes.Equal(value, []byte("value")) {
		t.Fatalf("TestDBManagerTransaction: unexpected committed value %q", value)
	}
	_, err = db.Get(rolledBackKey)
	if !database.IsNotFoundError(err) {
		t.Fatalf("TestDBManagerTransaction: expected a rolled back key to be not found, got %v", err)
	}

	cursor, err := db.Cursor(bucket)
	if err != nil {
		t.Fatalf("TestDBManagerTransaction: Cursor: %+v", err)
	}
	defer cursor.Close()
	count := 0
	for ok := cursor.First(); ok; ok = cursor.Next() {
		key, err := cursor.Key()
		if err != nil {
			t.Fatalf("TestDBManagerTransaction: Key: %+v", err)
		}
		if !bytes.Equal(key.Suffix(), []byte("committed")) {
			t.Fatalf("TestDBManagerTransaction: unexpected key suffix %q", key.Suffix())
		}
		count++
	}
	if count != 1 {
		t.Fatalf("TestDBManagerTransaction: expected one entry in the bucket, got %d", count)
	}
}
