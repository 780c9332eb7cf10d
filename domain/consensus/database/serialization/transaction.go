package serialization

import (
	"github.com/dposnet/dposd/domain/consensus/model/externalapi"
	"google.golang.org/protobuf/encoding/protowire"
)

// DbTransaction is the persisted form of a transaction
type DbTransaction struct {
	ID              string
	Type            uint8
	Timestamp       uint32
	SenderPublicKey []byte
	SenderID        string
	RecipientID     string
	Amount          string
	Fee             string
	Signature       []byte
	Signatures      [][]byte
	Asset           DbAsset
}

// DbAsset is the persisted form of a transaction asset
type DbAsset struct {
	Username       string
	HasDelegate    bool
	Votes          []string
	Multisignature *DbMultisignature
}

// DbMultisignature is the persisted form of a multisignature asset
type DbMultisignature struct {
	Min       uint8
	Lifetime  uint8
	KeysGroup []string
}

// TransactionToDbTransaction converts Transaction to DbTransaction
func TransactionToDbTransaction(tx *externalapi.Transaction) *DbTransaction {
	dbTransaction := &DbTransaction{
		ID:              tx.ID,
		Type:            uint8(tx.Type),
		Timestamp:       tx.Timestamp,
		SenderPublicKey: tx.SenderPublicKey,
		SenderID:        tx.SenderID,
		RecipientID:     tx.RecipientID,
		Amount:          bigIntToDecimalString(tx.Amount),
		Fee:             bigIntToDecimalString(tx.Fee),
		Signature:       tx.Signature,
		Signatures:      tx.Signatures,
		Asset:           DbAsset{Votes: tx.Asset.Votes},
	}
	if tx.Asset.Delegate != nil {
		dbTransaction.Asset.HasDelegate = true
		dbTransaction.Asset.Username = tx.Asset.Delegate.Username
	}
	if tx.Asset.Multisignature != nil {
		dbTransaction.Asset.Multisignature = &DbMultisignature{
			Min:       tx.Asset.Multisignature.Min,
			Lifetime:  tx.Asset.Multisignature.Lifetime,
			KeysGroup: tx.Asset.Multisignature.KeysGroup,
		}
	}
	return dbTransaction
}

// DbTransactionToTransaction converts DbTransaction to Transaction
func DbTransactionToTransaction(dbTransaction *DbTransaction) (*externalapi.Transaction, error) {
	amount, err := decimalStringToBigInt(dbTransaction.Amount)
	if err != nil {
		return nil, err
	}
	fee, err := decimalStringToBigInt(dbTransaction.Fee)
	if err != nil {
		return nil, err
	}

	tx := &externalapi.Transaction{
		ID:              dbTransaction.ID,
		Type:            externalapi.TransactionType(dbTransaction.Type),
		Timestamp:       dbTransaction.Timestamp,
		SenderPublicKey: dbTransaction.SenderPublicKey,
		SenderID:        dbTransaction.SenderID,
		RecipientID:     dbTransaction.RecipientID,
		Amount:          amount,
		Fee:             fee,
		Signature:       dbTransaction.Signature,
		Signatures:      dbTransaction.Signatures,
		Asset:           externalapi.TransactionAsset{Votes: dbTransaction.Asset.Votes},
	}
	if dbTransaction.Asset.HasDelegate {
		tx.Asset.Delegate = &externalapi.DelegateAsset{Username: dbTransaction.Asset.Username}
	}
	if dbTransaction.Asset.Multisignature != nil {
		tx.Asset.Multisignature = &externalapi.MultisignatureAsset{
			Min:       dbTransaction.Asset.Multisignature.Min,
			Lifetime:  dbTransaction.Asset.Multisignature.Lifetime,
			KeysGroup: dbTransaction.Asset.Multisignature.KeysGroup,
		}
	}
	return tx, nil
}

func (m *DbTransaction) appendFields(b []byte) []byte {
	b = appendString(b, 1, m.ID)
	b = appendVarint(b, 2, uint64(m.Type))
	b = appendVarint(b, 3, uint64(m.Timestamp))
	b = appendBytes(b, 4, m.SenderPublicKey)
	b = appendString(b, 5, m.SenderID)
	b = appendString(b, 6, m.RecipientID)
	b = appendString(b, 7, m.Amount)
	b = appendString(b, 8, m.Fee)
	b = appendBytes(b, 9, m.Signature)
	b = appendRepeatedBytes(b, 10, m.Signatures)
	return appendMessage(b, 11, &m.Asset)
}

func (m *DbTransaction) consumeField(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
	switch num {
	case 1:
		return consumeString(typ, b, &m.ID)
	case 2:
		return consumeUint8(typ, b, &m.Type)
	case 3:
		return consumeUint32(typ, b, &m.Timestamp)
	case 4:
		return consumeBytes(typ, b, &m.SenderPublicKey)
	case 5:
		return consumeString(typ, b, &m.SenderID)
	case 6:
		return consumeString(typ, b, &m.RecipientID)
	case 7:
		return consumeString(typ, b, &m.Amount)
	case 8:
		return consumeString(typ, b, &m.Fee)
	case 9:
		return consumeBytes(typ, b, &m.Signature)
	case 10:
		return consumeRepeatedBytes(typ, b, &m.Signatures)
	case 11:
		return consumeMessage(typ, b, &m.Asset)
	}
	return skipField(num, typ, b)
}

func (m *DbAsset) appendFields(b []byte) []byte {
	b = appendString(b, 1, m.Username)
	b = appendBool(b, 2, m.HasDelegate)
	b = appendRepeatedString(b, 3, m.Votes)
	if m.Multisignature != nil {
		b = appendMessage(b, 4, m.Multisignature)
	}
	return b
}

func (m *DbAsset) consumeField(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
	switch num {
	case 1:
		return consumeString(typ, b, &m.Username)
	case 2:
		return consumeBool(typ, b, &m.HasDelegate)
	case 3:
		return consumeRepeatedString(typ, b, &m.Votes)
	case 4:
		m.Multisignature = &DbMultisignature{}
		return consumeMessage(typ, b, m.Multisignature)
	}
	return skipField(num, typ, b)
}

func (m *DbMultisignature) appendFields(b []byte) []byte {
	b = appendVarint(b, 1, uint64(m.Min))
	b = appendVarint(b, 2, uint64(m.Lifetime))
	return appendRepeatedString(b, 3, m.KeysGroup)
}

func (m *DbMultisignature) consumeField(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
	switch num {
	case 1:
		return consumeUint8(typ, b, &m.Min)
	case 2:
		return consumeUint8(typ, b, &m.Lifetime)
	case 3:
		return consumeRepeatedString(typ, b, &m.KeysGroup)
	}
	return skipField(num, typ, b)
}
