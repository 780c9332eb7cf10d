package rebuildstore

import (
	"testing"

	"github.com/dposnet/dposd/domain/consensus/utils/testutils"
)

func TestRebuildStore(t *testing.T) {
	db, teardown := testutils.NewTestDatabase(t)
	defer teardown()

	store := New()
	_, found, err := store.ReplayedHeight(db)
	if err != nil {
		t.Fatalf("TestRebuildStore: ReplayedHeight: %+v", err)
	}
	if found {
		t.Fatalf("TestRebuildStore: expected no pending rebuild in an empty database")
	}

	for _, height := range []uint64{0, 7, 1 << 40} {
		err := store.Stage(db, height)
		if err != nil {
			t.Fatalf("TestRebuildStore: Stage of height %d: %+v", height, err)
		}
		stored, found, err := store.ReplayedHeight(db)
		if err != nil {
			t.Fatalf("TestRebuildStore: ReplayedHeight: %+v", err)
		}
		if !found || stored != height {
			t.Fatalf("TestRebuildStore: expected replayed height %d, got %d (found %t)", height, stored, found)
		}
	}

	err = store.Delete(db)
	if err != nil {
		t.Fatalf("TestRebuildStore: Delete: %+v", err)
	}
	_, found, err = store.ReplayedHeight(db)
	if err != nil || found {
		t.Fatalf("TestRebuildStore: expected no pending rebuild after Delete, got found %t, err %v", found, err)
	}
}
