package roundstore

import (
	"math/big"
	"reflect"
	"testing"

	"github.com/davecgh/go-spew/spew"
	"github.com/dposnet/dposd/domain/consensus/database"
	"github.com/dposnet/dposd/domain/consensus/model"
	"github.com/dposnet/dposd/domain/consensus/utils/testutils"
)

func TestRoundStore(t *testing.T) {
	db, teardown := testutils.NewTestDatabase(t)
	defer teardown()

	store := New()
	records := []*model.RoundRecord{
		{Round: 1, Forgers: []string{"aa", "bb"}, Fees: big.NewInt(20), Rewards: big.NewInt(0)},
		{Round: 2, Forgers: []string{"cc"}, Fees: big.NewInt(0), Rewards: new(big.Int).Lsh(big.NewInt(1), 80)},
	}
	for _, record := range records {
		err := store.Save(db, record)
		if err != nil {
			t.Fatalf("TestRoundStore: Save of round %d: %+v", record.Round, err)
		}
	}

	for _, record := range records {
		stored, err := store.Round(db, record.Round)
		if err != nil {
			t.Fatalf("TestRoundStore: Round %d: %+v", record.Round, err)
		}
		if stored.Round != record.Round || !reflect.DeepEqual(stored.Forgers, record.Forgers) ||
			stored.Fees.Cmp(record.Fees) != 0 || stored.Rewards.Cmp(record.Rewards) != 0 {
			t.Fatalf("TestRoundStore: round changed on the way through the store. Want: %s, got: %s",
				spew.Sdump(record), spew.Sdump(stored))
		}
	}

	err := store.Delete(db, 1)
	if err != nil {
		t.Fatalf("TestRoundStore: Delete: %+v", err)
	}
	_, err = store.Round(db, 1)
	if !database.IsNotFoundError(err) {
		t.Fatalf("TestRoundStore: expected a deleted round to be not found, got %v", err)
	}

	err = store.Clear(db)
	if err != nil {
		t.Fatalf("TestRoundStore: Clear: %+v", err)
	}
	_, err = store.Round(db, 2)
	if !database.IsNotFoundError(err) {
		t.Fatalf("TestRoundStore: expected no rounds after Clear, got %v", err)
	}
}
