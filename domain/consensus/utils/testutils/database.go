package testutils

import (
	"testing"

	"github.com/dposnet/dposd/domain/consensus/database"
	"github.com/dposnet/dposd/domain/consensus/model"
	"github.com/dposnet/dposd/infrastructure/db/database/ldb"
)

// NewTestDatabase returns an in-memory database and a function that
// closes it
func NewTestDatabase(t *testing.T) (model.DBManager, func()) {
	db, err := ldb.NewInMemoryLevelDB()
	if err != nil {
		t.Fatalf("NewTestDatabase: NewInMemoryLevelDB unexpectedly failed: %s", err)
	}
	teardown := func() {
		err := db.Close()
		if err != nil {
			t.Fatalf("NewTestDatabase: Close unexpectedly failed: %s", err)
		}
	}
	return database.New(db), teardown
}
