package model

import "github.com/dposnet/dposd/domain/consensus/model/externalapi"

// AccountStore represents a store of accounts
type AccountStore interface {
	Save(dbContext DBWriter, account *externalapi.Account) error
	Delete(dbContext DBWriter, address string) error
	Account(dbContext DBReader, address string) (*externalapi.Account, error)
	AddressByUsername(dbContext DBReader, username string) (string, error)
	Accounts(dbContext DBReader) ([]*externalapi.Account, error)
	Clear(dbContext DBWriter) error
}

// AccountState is a view over account state that buffers changes until
// they are committed or dropped
type AccountState interface {
	// Account returns the account with the given address, or an empty
	// account and found=false if it does not exist yet.
	Account(address string) (account *externalapi.Account, found bool, err error)
	AddressByUsername(username string) (address string, found bool, err error)
	SetAccount(account *externalapi.Account)
}
