package testutils

import (
	"math/big"

	"github.com/dposnet/dposd/domain/chainconfig"
	"github.com/dposnet/dposd/domain/consensus/model/externalapi"
	"github.com/dposnet/dposd/domain/consensus/utils/signing"
	"github.com/pkg/errors"
)

// NewTransfer returns a signed transfer of amount from sender to
// recipientID paying the network fee
func NewTransfer(params *chainconfig.Params, sender *signing.KeyPair, recipientID string, amount int64,
	timestamp uint32) *externalapi.Transaction {

	tx := &externalapi.Transaction{
		Type:        externalapi.TransactionTypeTransfer,
		Timestamp:   timestamp,
		RecipientID: recipientID,
		Amount:      big.NewInt(amount),
	}
	return signWithNetworkFee(params, tx, sender)
}

// NewDelegateRegistration returns a signed registration of sender as a
// delegate named username
func NewDelegateRegistration(params *chainconfig.Params, sender *signing.KeyPair, username string,
	timestamp uint32) *externalapi.Transaction {

	tx := &externalapi.Transaction{
		Type:      externalapi.TransactionTypeDelegate,
		Timestamp: timestamp,
		Amount:    big.NewInt(0),
		Asset: externalapi.TransactionAsset{
			Delegate: &externalapi.DelegateAsset{Username: username},
		},
	}
	return signWithNetworkFee(params, tx, sender)
}

// NewVote returns a signed vote of sender. Votes are "+" or "-" followed by
// a hex encoded delegate public key.
func NewVote(params *chainconfig.Params, sender *signing.KeyPair, votes []string,
	timestamp uint32) *externalapi.Transaction {

	tx := &externalapi.Transaction{
		Type:      externalapi.TransactionTypeVote,
		Timestamp: timestamp,
		Amount:    big.NewInt(0),
		Asset:     externalapi.TransactionAsset{Votes: votes},
	}
	return signWithNetworkFee(params, tx, sender)
}

// NewMultisignatureRegistration returns a signed registration of members as
// the keys group of sender. It carries no co-signatures.
func NewMultisignatureRegistration(params *chainconfig.Params, sender *signing.KeyPair, min uint8, lifetime uint8,
	members []*signing.KeyPair, timestamp uint32) *externalapi.Transaction {

	keysGroup := make([]string, len(members))
	for i, member := range members {
		keysGroup[i] = "+" + member.PublicKeyHex()
	}
	tx := &externalapi.Transaction{
		Type:      externalapi.TransactionTypeMultisignature,
		Timestamp: timestamp,
		Amount:    big.NewInt(0),
		Asset: externalapi.TransactionAsset{
			Multisignature: &externalapi.MultisignatureAsset{
				Min:       min,
				Lifetime:  lifetime,
				KeysGroup: keysGroup,
			},
		},
	}
	return signWithNetworkFee(params, tx, sender)
}

// CoSign appends the co-signatures of signers to tx
func CoSign(tx *externalapi.Transaction, signers ...*signing.KeyPair) {
	for _, signer := range signers {
		signature, err := signing.MultisignTransaction(tx, signer)
		if err != nil {
			panic(errors.Wrapf(err, "Couldn't co-sign transaction %s. This should never happen", tx.ID))
		}
		tx.Signatures = append(tx.Signatures, signature)
	}
}

func signWithNetworkFee(params *chainconfig.Params, tx *externalapi.Transaction,
	sender *signing.KeyPair) *externalapi.Transaction {

	tx.Fee = params.TransactionFee(tx)
	err := signing.SignTransaction(tx, sender)
	if err != nil {
		panic(errors.Wrapf(err, "Couldn't sign transaction. This should never happen"))
	}
	return tx
}
