package accountstore

import (
	"github.com/dposnet/dposd/domain/consensus/database"
	"github.com/dposnet/dposd/domain/consensus/database/serialization"
	"github.com/dposnet/dposd/domain/consensus/model"
	"github.com/dposnet/dposd/domain/consensus/model/externalapi"
	"github.com/pkg/errors"
)

var (
	accountsBucket  = database.MakeBucket([]byte("accounts"))
	usernamesBucket = database.MakeBucket([]byte("delegate-usernames"))
)

// accountStore represents a store of accounts
type accountStore struct {
}

// New instantiates a new AccountStore
func New() model.AccountStore {
	return &accountStore{}
}

// Save persists account and keeps the delegate username index in sync
func (as *accountStore) Save(dbContext model.DBWriter, account *externalapi.Account) error {
	previous, err := as.Account(dbContext, account.Address)
	if err != nil && !database.IsNotFoundError(err) {
		return err
	}
	if err == nil && previous.Username != "" && previous.Username != account.Username {
		err = as.deleteUsername(dbContext, previous.Username, account.Address)
		if err != nil {
			return err
		}
	}
	if account.Username != "" {
		err = dbContext.Put(usernamesBucket.Key([]byte(account.Username)), []byte(account.Address))
		if err != nil {
			return err
		}
	}

	accountBytes, err := serialization.Marshal(serialization.AccountToDbAccount(account))
	if err != nil {
		return errors.WithStack(err)
	}
	return dbContext.Put(accountsBucket.Key([]byte(account.Address)), accountBytes)
}

// Delete removes the account with the given address
func (as *accountStore) Delete(dbContext model.DBWriter, address string) error {
	previous, err := as.Account(dbContext, address)
	if database.IsNotFoundError(err) {
		return nil
	}
	if err != nil {
		return err
	}
	if previous.Username != "" {
		err = as.deleteUsername(dbContext, previous.Username, address)
		if err != nil {
			return err
		}
	}
	return dbContext.Delete(accountsBucket.Key([]byte(address)))
}

// deleteUsername removes the username index entry unless another account
// took the username over
func (as *accountStore) deleteUsername(dbContext model.DBWriter, username string, address string) error {
	key := usernamesBucket.Key([]byte(username))
	indexedAddress, err := dbContext.Get(key)
	if database.IsNotFoundError(err) {
		return nil
	}
	if err != nil {
		return err
	}
	if string(indexedAddress) != address {
		return nil
	}
	return dbContext.Delete(key)
}

// Account gets the account with the given address
func (as *accountStore) Account(dbContext model.DBReader, address string) (*externalapi.Account, error) {
	accountBytes, err := dbContext.Get(accountsBucket.Key([]byte(address)))
	if err != nil {
		return nil, err
	}
	return as.deserializeAccount(accountBytes)
}

// AddressByUsername gets the address of the delegate with the given username
func (as *accountStore) AddressByUsername(dbContext model.DBReader, username string) (string, error) {
	address, err := dbContext.Get(usernamesBucket.Key([]byte(username)))
	if err != nil {
		return "", err
	}
	return string(address), nil
}

// Accounts gets all accounts ordered by address bytes
func (as *accountStore) Accounts(dbContext model.DBReader) ([]*externalapi.Account, error) {
	cursor, err := dbContext.Cursor(accountsBucket)
	if err != nil {
		return nil, err
	}
	defer cursor.Close()

	var accounts []*externalapi.Account
	for ok := cursor.First(); ok; ok = cursor.Next() {
		accountBytes, err := cursor.Value()
		if err != nil {
			return nil, err
		}
		account, err := as.deserializeAccount(accountBytes)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, account)
	}
	return accounts, nil
}

// Clear removes every account and username index entry
func (as *accountStore) Clear(dbContext model.DBWriter) error {
	for _, bucket := range []model.DBBucket{accountsBucket, usernamesBucket} {
		err := clearBucket(dbContext, bucket)
		if err != nil {
			return err
		}
	}
	return nil
}

func clearBucket(dbContext model.DBWriter, bucket model.DBBucket) error {
	cursor, err := dbContext.Cursor(bucket)
	if err != nil {
		return err
	}
	var keys []model.DBKey
	for ok := cursor.First(); ok; ok = cursor.Next() {
		key, err := cursor.Key()
		if err != nil {
			cursor.Close()
			return err
		}
		keys = append(keys, key)
	}
	err = cursor.Close()
	if err != nil {
		return err
	}

	for _, key := range keys {
		err = dbContext.Delete(key)
		if err != nil {
			return err
		}
	}
	return nil
}

func (as *accountStore) deserializeAccount(accountBytes []byte) (*externalapi.Account, error) {
	dbAccount := &serialization.DbAccount{}
	err := serialization.Unmarshal(accountBytes, dbAccount)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return serialization.DbAccountToAccount(dbAccount)
}
