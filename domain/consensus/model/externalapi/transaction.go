package externalapi

import (
	"bytes"
	"math/big"
)

// TransactionType is the type of a transaction. It selects the asset
// payload and the ledger effects of the transaction.
type TransactionType uint8

// Supported transaction types
const (
	TransactionTypeTransfer       TransactionType = 0
	TransactionTypeDelegate       TransactionType = 2
	TransactionTypeVote           TransactionType = 3
	TransactionTypeMultisignature TransactionType = 4
)

func (t TransactionType) String() string {
	switch t {
	case TransactionTypeTransfer:
		return "transfer"
	case TransactionTypeDelegate:
		return "delegate"
	case TransactionTypeVote:
		return "vote"
	case TransactionTypeMultisignature:
		return "multisignature"
	}
	return "unknown"
}

// Transaction represents a dposd transaction
type Transaction struct {
	ID              string
	Type            TransactionType
	Timestamp       uint32
	SenderPublicKey []byte
	SenderID        string
	RecipientID     string
	Amount          *big.Int
	Fee             *big.Int
	Signature       []byte
	Signatures      [][]byte
	Asset           TransactionAsset
}

// If this doesn't compile, it means the type definition has been changed, so it's
// an indication to update Equal and Clone accordingly.
var _ = Transaction{"", 0, 0, []byte{}, "", "", &big.Int{}, &big.Int{}, []byte{}, [][]byte{},
	TransactionAsset{}}

// TransactionAsset holds the type-specific payload of a transaction.
// At most one of its fields is set.
type TransactionAsset struct {
	Delegate       *DelegateAsset
	Votes          []string
	Multisignature *MultisignatureAsset
}

// DelegateAsset is the payload of a delegate registration
type DelegateAsset struct {
	Username string
}

// MultisignatureAsset is the payload of a multisignature registration.
// KeysGroup entries are "+" followed by a hex encoded public key.
type MultisignatureAsset struct {
	Min       uint8
	Lifetime  uint8
	KeysGroup []string
}

// Clone returns a clone of Transaction
func (tx *Transaction) Clone() *Transaction {
	var signaturesClone [][]byte
	if tx.Signatures != nil {
		signaturesClone = make([][]byte, len(tx.Signatures))
		for i, signature := range tx.Signatures {
			signaturesClone[i] = cloneBytes(signature)
		}
	}

	return &Transaction{
		ID:              tx.ID,
		Type:            tx.Type,
		Timestamp:       tx.Timestamp,
		SenderPublicKey: cloneBytes(tx.SenderPublicKey),
		SenderID:        tx.SenderID,
		RecipientID:     tx.RecipientID,
		Amount:          cloneBigInt(tx.Amount),
		Fee:             cloneBigInt(tx.Fee),
		Signature:       cloneBytes(tx.Signature),
		Signatures:      signaturesClone,
		Asset:           tx.Asset.Clone(),
	}
}

// Equal returns whether tx equals to other
func (tx *Transaction) Equal(other *Transaction) bool {
	if tx == nil || other == nil {
		return tx == other
	}

	if tx.ID != other.ID ||
		tx.Type != other.Type ||
		tx.Timestamp != other.Timestamp ||
		tx.SenderID != other.SenderID ||
		tx.RecipientID != other.RecipientID {
		return false
	}

	if !bytes.Equal(tx.SenderPublicKey, other.SenderPublicKey) ||
		!bytes.Equal(tx.Signature, other.Signature) {
		return false
	}

	if !bigIntEqual(tx.Amount, other.Amount) || !bigIntEqual(tx.Fee, other.Fee) {
		return false
	}

	if len(tx.Signatures) != len(other.Signatures) {
		return false
	}
	for i, signature := range tx.Signatures {
		if !bytes.Equal(signature, other.Signatures[i]) {
			return false
		}
	}

	return tx.Asset.Equal(&other.Asset)
}

// Clone returns a clone of TransactionAsset
func (asset TransactionAsset) Clone() TransactionAsset {
	clone := TransactionAsset{}
	if asset.Delegate != nil {
		clone.Delegate = &DelegateAsset{Username: asset.Delegate.Username}
	}
	if asset.Votes != nil {
		clone.Votes = cloneStrings(asset.Votes)
	}
	if asset.Multisignature != nil {
		clone.Multisignature = &MultisignatureAsset{
			Min:       asset.Multisignature.Min,
			Lifetime:  asset.Multisignature.Lifetime,
			KeysGroup: cloneStrings(asset.Multisignature.KeysGroup),
		}
	}
	return clone
}

// Equal returns whether asset equals to other
func (asset *TransactionAsset) Equal(other *TransactionAsset) bool {
	if (asset.Delegate == nil) != (other.Delegate == nil) {
		return false
	}
	if asset.Delegate != nil && asset.Delegate.Username != other.Delegate.Username {
		return false
	}
	if !stringsEqual(asset.Votes, other.Votes) {
		return false
	}
	if (asset.Multisignature == nil) != (other.Multisignature == nil) {
		return false
	}
	if asset.Multisignature != nil {
		if asset.Multisignature.Min != other.Multisignature.Min ||
			asset.Multisignature.Lifetime != other.Multisignature.Lifetime ||
			!stringsEqual(asset.Multisignature.KeysGroup, other.Multisignature.KeysGroup) {
			return false
		}
	}
	return true
}

func cloneStrings(strings []string) []string {
	if strings == nil {
		return nil
	}
	clone := make([]string, len(strings))
	copy(clone, strings)
	return clone
}

func stringsEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
