package externalapi

import (
	"math/big"
)

// Account is the ledger state of a single address
type Account struct {
	Address        string
	Balance        *big.Int
	IsDelegate     bool
	Username       string
	ProducedBlocks uint64
	Rewards        *big.Int
	Fees           *big.Int

	// Votes holds the hex encoded public keys of the delegates this
	// account votes for.
	Votes []string

	// MultisigKeysGroup holds hex encoded public keys
	MultisigKeysGroup []string
	MultisigMin       uint8
	MultisigLifetime  uint8
}

// NewAccount returns an empty account for the given address
func NewAccount(address string) *Account {
	return &Account{
		Address: address,
		Balance: big.NewInt(0),
		Rewards: big.NewInt(0),
		Fees:    big.NewInt(0),
	}
}

// Clone returns a clone of Account
func (account *Account) Clone() *Account {
	return &Account{
		Address:           account.Address,
		Balance:           cloneBigInt(account.Balance),
		IsDelegate:        account.IsDelegate,
		Username:          account.Username,
		ProducedBlocks:    account.ProducedBlocks,
		Rewards:           cloneBigInt(account.Rewards),
		Fees:              cloneBigInt(account.Fees),
		Votes:             cloneStrings(account.Votes),
		MultisigKeysGroup: cloneStrings(account.MultisigKeysGroup),
		MultisigMin:       account.MultisigMin,
		MultisigLifetime:  account.MultisigLifetime,
	}
}

// Equal returns whether account equals to other
func (account *Account) Equal(other *Account) bool {
	if account == nil || other == nil {
		return account == other
	}
	return account.Address == other.Address &&
		bigIntEqual(account.Balance, other.Balance) &&
		account.IsDelegate == other.IsDelegate &&
		account.Username == other.Username &&
		account.ProducedBlocks == other.ProducedBlocks &&
		bigIntEqual(account.Rewards, other.Rewards) &&
		bigIntEqual(account.Fees, other.Fees) &&
		stringsEqual(account.Votes, other.Votes) &&
		stringsEqual(account.MultisigKeysGroup, other.MultisigKeysGroup) &&
		account.MultisigMin == other.MultisigMin &&
		account.MultisigLifetime == other.MultisigLifetime
}

// IsMultisignature returns whether a multisignature group is registered
// for this account
func (account *Account) IsMultisignature() bool {
	return len(account.MultisigKeysGroup) > 0
}

// IsEmpty returns whether the account holds no state at all. Empty
// accounts are not persisted.
func (account *Account) IsEmpty() bool {
	return account.Balance.Sign() == 0 &&
		!account.IsDelegate &&
		account.Username == "" &&
		account.ProducedBlocks == 0 &&
		account.Rewards.Sign() == 0 &&
		account.Fees.Sign() == 0 &&
		len(account.Votes) == 0 &&
		len(account.MultisigKeysGroup) == 0 &&
		account.MultisigMin == 0 &&
		account.MultisigLifetime == 0
}
