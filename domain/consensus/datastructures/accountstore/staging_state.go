package accountstore

import (
	"sort"

	"github.com/dposnet/dposd/domain/consensus/database"
	"github.com/dposnet/dposd/domain/consensus/model"
	"github.com/dposnet/dposd/domain/consensus/model/externalapi"
)

// StagingState is a model.AccountState that reads through to the store and
// buffers every change in memory until Commit
type StagingState struct {
	store     model.AccountStore
	dbContext model.DBReader
	staged    map[string]*externalapi.Account
}

// NewStagingState returns a StagingState reading from dbContext
func NewStagingState(store model.AccountStore, dbContext model.DBReader) *StagingState {
	return &StagingState{
		store:     store,
		dbContext: dbContext,
		staged:    make(map[string]*externalapi.Account),
	}
}

// Account returns a copy of the account with the given address. A missing
// account is returned empty with found=false.
func (s *StagingState) Account(address string) (*externalapi.Account, bool, error) {
	if account, ok := s.staged[address]; ok {
		return account.Clone(), true, nil
	}
	account, err := s.store.Account(s.dbContext, address)
	if database.IsNotFoundError(err) {
		return externalapi.NewAccount(address), false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return account, true, nil
}

// AddressByUsername returns the address of the delegate with the given
// username, taking staged registrations into account
func (s *StagingState) AddressByUsername(username string) (string, bool, error) {
	for address, account := range s.staged {
		if account.Username == username {
			return address, true, nil
		}
	}
	address, err := s.store.AddressByUsername(s.dbContext, username)
	if database.IsNotFoundError(err) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	if staged, ok := s.staged[address]; ok && staged.Username != username {
		return "", false, nil
	}
	return address, true, nil
}

// SetAccount stages account
func (s *StagingState) SetAccount(account *externalapi.Account) {
	s.staged[account.Address] = account.Clone()
}

// Commit writes every staged account in address order. Accounts left
// empty are deleted instead.
func (s *StagingState) Commit(dbContext model.DBWriter) error {
	addresses := make([]string, 0, len(s.staged))
	for address := range s.staged {
		addresses = append(addresses, address)
	}
	sort.Strings(addresses)

	for _, address := range addresses {
		account := s.staged[address]
		var err error
		if account.IsEmpty() {
			err = s.store.Delete(dbContext, address)
		} else {
			err = s.store.Save(dbContext, account)
		}
		if err != nil {
			return err
		}
	}
	s.staged = make(map[string]*externalapi.Account)
	return nil
}
