package transactionprocessor

import (
	"encoding/hex"

	"github.com/dposnet/dposd/domain/consensus/model"
	"github.com/dposnet/dposd/domain/consensus/model/externalapi"
	"github.com/dposnet/dposd/domain/consensus/ruleerrors"
	"github.com/dposnet/dposd/domain/consensus/utils/signing"
	"github.com/pkg/errors"
)

// requiredCoSigners returns the keys group that must co-sign tx and how
// many of its members must do so. A registration must be approved by the
// whole group it registers. Transactions from a registered account need
// the account minimum.
func requiredCoSigners(sender *externalapi.Account, tx *externalapi.Transaction) (keysGroup []string, min int) {
	if sender.IsMultisignature() {
		return sender.MultisigKeysGroup, int(sender.MultisigMin)
	}
	if tx.Type == externalapi.TransactionTypeMultisignature && tx.Asset.Multisignature != nil {
		keysGroup := keysGroupPublicKeys(tx.Asset.Multisignature.KeysGroup)
		return keysGroup, len(keysGroup)
	}
	return nil, 0
}

// coSignatureCount returns how many distinct members of keysGroup produced
// one of tx's co-signatures
func coSignatureCount(tx *externalapi.Transaction, keysGroup []string) int {
	signed := make(map[string]struct{})
	for _, signature := range tx.Signatures {
		for _, publicKeyHex := range keysGroup {
			if _, ok := signed[publicKeyHex]; ok {
				continue
			}
			publicKey, err := hex.DecodeString(publicKeyHex)
			if err != nil {
				continue
			}
			valid, err := signing.VerifyTransactionSignature(tx, publicKey, signature)
			if err == nil && valid {
				signed[publicKeyHex] = struct{}{}
				break
			}
		}
	}
	return len(signed)
}

func checkCoSignatures(sender *externalapi.Account, tx *externalapi.Transaction) error {
	keysGroup, min := requiredCoSigners(sender, tx)
	if min == 0 {
		return nil
	}
	count := coSignatureCount(tx, keysGroup)
	if count < min {
		return errors.Wrapf(ruleerrors.ErrMissingSignatures, "transaction %s has %d of %d required co-signatures",
			tx.ID, count, min)
	}
	return nil
}

func (tp *transactionProcessor) VerifyCoSignature(state model.AccountState, tx *externalapi.Transaction,
	publicKey []byte, signature []byte) error {

	sender, _, err := state.Account(tx.SenderID)
	if err != nil {
		return err
	}
	keysGroup, min := requiredCoSigners(sender, tx)
	if min == 0 {
		return errors.Wrapf(ruleerrors.ErrInvalidMultisignature,
			"transaction %s does not require co-signatures", tx.ID)
	}

	publicKeyHex := hex.EncodeToString(publicKey)
	isMember := false
	for _, member := range keysGroup {
		if member == publicKeyHex {
			isMember = true
			break
		}
	}
	if !isMember {
		return errors.Wrapf(ruleerrors.ErrInvalidMultisignature,
			"%s is not a member of the keys group of transaction %s", publicKeyHex, tx.ID)
	}

	valid, err := signing.VerifyTransactionSignature(tx, publicKey, signature)
	if err != nil {
		return err
	}
	if !valid {
		return errors.Wrapf(ruleerrors.ErrInvalidMultisignature,
			"co-signature of %s over transaction %s does not verify", publicKeyHex, tx.ID)
	}

	for _, existing := range tx.Signatures {
		existingValid, err := signing.VerifyTransactionSignature(tx, publicKey, existing)
		if err != nil {
			return err
		}
		if existingValid {
			return errors.Wrapf(ruleerrors.ErrInvalidMultisignature,
				"%s already co-signed transaction %s", publicKeyHex, tx.ID)
		}
	}
	return nil
}

// keysGroupPublicKeys strips the addition prefix off keys group entries
func keysGroupPublicKeys(keysGroup []string) []string {
	publicKeys := make([]string, len(keysGroup))
	for i, key := range keysGroup {
		if len(key) > 0 && key[:1] == keysGroupAdditionPrefix {
			key = key[1:]
		}
		publicKeys[i] = key
	}
	return publicKeys
}
