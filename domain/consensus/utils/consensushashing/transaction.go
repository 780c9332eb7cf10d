package consensushashing

import (
	"math/big"

	"github.com/dposnet/dposd/domain/consensus/model/externalapi"
	"github.com/dposnet/dposd/domain/consensus/ruleerrors"
	"github.com/pkg/errors"
)

// TransactionBytes returns the canonical encoding of tx. Signing bytes are
// obtained by skipping the signature and the co-signatures.
func TransactionBytes(tx *externalapi.Transaction, skipSignature bool, skipSignatures bool) ([]byte, error) {
	w := &byteWriter{}
	w.writeUint8(uint8(tx.Type))
	w.writeUint32(tx.Timestamp)
	w.writeBytes(tx.SenderPublicKey)
	w.writeNumericID("recipient", tx.RecipientID)
	w.writeAmount("amount", tx.Amount)
	w.writeAmount("fee", tx.Fee)
	writeAsset(w, &tx.Asset)
	if !skipSignature {
		w.writeBytes(tx.Signature)
	}
	if !skipSignatures {
		for _, signature := range tx.Signatures {
			w.writeBytes(signature)
		}
	}

	txBytes, err := w.bytes()
	if err != nil {
		return nil, errors.Wrapf(ruleerrors.ErrInvalidTransaction, "cannot encode transaction: %s", err)
	}
	return txBytes, nil
}

func writeAsset(w *byteWriter, asset *externalapi.TransactionAsset) {
	if asset.Delegate != nil {
		w.writeString(asset.Delegate.Username)
	}
	for _, vote := range asset.Votes {
		w.writeString(vote)
	}
	if asset.Multisignature != nil {
		w.writeUint8(asset.Multisignature.Min)
		w.writeUint8(asset.Multisignature.Lifetime)
		for _, key := range asset.Multisignature.KeysGroup {
			w.writeString(key)
		}
	}
}

// TransactionSigningHash returns the digest signed by the sender and by
// multisignature co-signers
func TransactionSigningHash(tx *externalapi.Transaction) ([]byte, error) {
	txBytes, err := TransactionBytes(tx, true, true)
	if err != nil {
		return nil, err
	}
	return HashBytes(txBytes), nil
}

// TransactionID computes the id of tx from its encoding. Co-signatures are
// not covered so that collecting them keeps the id stable.
func TransactionID(tx *externalapi.Transaction) (string, error) {
	txBytes, err := TransactionBytes(tx, false, true)
	if err != nil {
		return "", err
	}
	return numericIDString(HashBytes(txBytes)), nil
}

// PayloadHash returns the hash of the concatenated transaction encodings
// and the length of that payload
func PayloadHash(transactions []*externalapi.Transaction) (hash []byte, length uint32, err error) {
	var payload []byte
	for _, tx := range transactions {
		txBytes, err := TransactionBytes(tx, false, false)
		if err != nil {
			return nil, 0, err
		}
		payload = append(payload, txBytes...)
	}
	return HashBytes(payload), uint32(len(payload)), nil
}

// TransactionTotals sums the amounts and fees of transactions
func TransactionTotals(transactions []*externalapi.Transaction) (totalAmount *big.Int, totalFee *big.Int) {
	totalAmount = big.NewInt(0)
	totalFee = big.NewInt(0)
	for _, tx := range transactions {
		if tx.Amount != nil {
			totalAmount.Add(totalAmount, tx.Amount)
		}
		if tx.Fee != nil {
			totalFee.Add(totalFee, tx.Fee)
		}
	}
	return totalAmount, totalFee
}
