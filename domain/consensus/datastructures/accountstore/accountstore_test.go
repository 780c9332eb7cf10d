package accountstore

import (
	"math/big"
	"testing"

	"github.com/davecgh/go-spew/spew"
	"github.com/dposnet/dposd/domain/consensus/database"
	"github.com/dposnet/dposd/domain/consensus/model/externalapi"
	"github.com/dposnet/dposd/domain/consensus/utils/testutils"
)

func newDelegate(address string, username string, balance int64) *externalapi.Account {
	account := externalapi.NewAccount(address)
	account.Balance = big.NewInt(balance)
	account.IsDelegate = true
	account.Username = username
	account.Votes = []string{"aa", "bb"}
	return account
}

func TestAccountStore(t *testing.T) {
	db, teardown := testutils.NewTestDatabase(t)
	defer teardown()

	store := New()
	alice := newDelegate("1L", "alice", 100)
	bob := newDelegate("2L", "bob", 50)
	for _, account := range []*externalapi.Account{bob, alice} {
		err := store.Save(db, account)
		if err != nil {
			t.Fatalf("TestAccountStore: Save of %s: %+v", account.Address, err)
		}
	}

	stored, err := store.Account(db, alice.Address)
	if err != nil {
		t.Fatalf("TestAccountStore: Account: %+v", err)
	}
	if !stored.Equal(alice) {
		t.Fatalf("TestAccountStore: account changed on the way through the store. Want: %s, got: %s",
			spew.Sdump(alice), spew.Sdump(stored))
	}

	accounts, err := store.Accounts(db)
	if err != nil {
		t.Fatalf("TestAccountStore: Accounts: %+v", err)
	}
	if len(accounts) != 2 || accounts[0].Address != "1L" || accounts[1].Address != "2L" {
		t.Fatalf("TestAccountStore: expected accounts in address order, got %s", spew.Sdump(accounts))
	}

	address, err := store.AddressByUsername(db, "bob")
	if err != nil {
		t.Fatalf("TestAccountStore: AddressByUsername: %+v", err)
	}
	if address != bob.Address {
		t.Fatalf("TestAccountStore: expected bob at %s, got %s", bob.Address, address)
	}

	// Renaming drops the old username from the index
	bob.Username = "robert"
	err = store.Save(db, bob)
	if err != nil {
		t.Fatalf("TestAccountStore: Save: %+v", err)
	}
	_, err = store.AddressByUsername(db, "bob")
	if !database.IsNotFoundError(err) {
		t.Fatalf("TestAccountStore: expected the old username to be gone, got %v", err)
	}

	err = store.Delete(db, alice.Address)
	if err != nil {
		t.Fatalf("TestAccountStore: Delete: %+v", err)
	}
	_, err = store.Account(db, alice.Address)
	if !database.IsNotFoundError(err) {
		t.Fatalf("TestAccountStore: expected a deleted account to be not found, got %v", err)
	}
	_, err = store.AddressByUsername(db, "alice")
	if !database.IsNotFoundError(err) {
		t.Fatalf("TestAccountStore: expected the username of a deleted account to be gone, got %v", err)
	}

	err = store.Clear(db)
	if err != nil {
		t.Fatalf("TestAccountStore: Clear: %+v", err)
	}
	accounts, err = store.Accounts(db)
	if err != nil {
		t.Fatalf("TestAccountStore: Accounts: %+v", err)
	}
	if len(accounts) != 0 {
		t.Fatalf("TestAccountStore: expected no accounts after Clear, got %d", len(accounts))
	}
}

func TestStagingState(t *testing.T) {
	db, teardown := testutils.NewTestDatabase(t)
	defer teardown()

	store := New()
	alice := newDelegate("1L", "alice", 100)
	err := store.Save(db, alice)
	if err != nil {
		t.Fatalf("TestStagingState: Save: %+v", err)
	}

	state := NewStagingState(store, db)
	missing, found, err := state.Account("3L")
	if err != nil {
		t.Fatalf("TestStagingState: Account: %+v", err)
	}
	if found || missing.Balance.Sign() != 0 {
		t.Fatalf("TestStagingState: expected an empty account for an unknown address")
	}

	carol := externalapi.NewAccount("3L")
	carol.Balance = big.NewInt(7)
	carol.IsDelegate = true
	carol.Username = "carol"
	state.SetAccount(carol)

	// Modifying the staged copy must not leak into the state
	carol.Balance.SetInt64(1000)
	staged, found, err := state.Account("3L")
	if err != nil {
		t.Fatalf("TestStagingState: Account: %+v", err)
	}
	if !found || staged.Balance.Int64() != 7 {
		t.Fatalf("TestStagingState: unexpected staged account %s", spew.Sdump(staged))
	}

	address, found, err := state.AddressByUsername("carol")
	if err != nil {
		t.Fatalf("TestStagingState: AddressByUsername: %+v", err)
	}
	if !found || address != "3L" {
		t.Fatalf("TestStagingState: expected the staged username to resolve")
	}

	// Nothing is written before Commit
	_, err = store.Account(db, "3L")
	if !database.IsNotFoundError(err) {
		t.Fatalf("TestStagingState: staged account written before Commit")
	}

	emptied := externalapi.NewAccount(alice.Address)
	state.SetAccount(emptied)
	err = state.Commit(db)
	if err != nil {
		t.Fatalf("TestStagingState: Commit: %+v", err)
	}

	_, err = store.Account(db, "3L")
	if err != nil {
		t.Fatalf("TestStagingState: expected the staged account to be committed, got %+v", err)
	}
	_, err = store.Account(db, alice.Address)
	if !database.IsNotFoundError(err) {
		t.Fatalf("TestStagingState: expected an account committed empty to be deleted, got %v", err)
	}
}
