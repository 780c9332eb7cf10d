package transactionprocessor

import (
	"encoding/hex"
	"strings"

	"github.com/dposnet/dposd/domain/consensus/model/externalapi"
	"github.com/dposnet/dposd/domain/consensus/ruleerrors"
	"github.com/dposnet/dposd/domain/consensus/utils/consensushashing"
	"github.com/dposnet/dposd/domain/consensus/utils/signing"
	"github.com/pkg/errors"
	"golang.org/x/crypto/ed25519"
)

const (
	maxUsernameLength         = 20
	usernameCharacters        = "abcdefghijklmnopqrstuvwxyz0123456789!@$&_."
	maxMultisignatureKeys     = 15
	maxMultisignatureLifetime = 72
	publicKeyHexLength        = 2 * ed25519.PublicKeySize
	keysGroupAdditionPrefix   = "+"
	voteAdditionPrefix        = "+"
	voteRemovalPrefix         = "-"
)

func (tp *transactionProcessor) validateTransactionInIsolation(tx *externalapi.Transaction) error {
	err := tp.checkTransactionAmounts(tx)
	if err != nil {
		return err
	}
	err = checkTransactionSender(tx)
	if err != nil {
		return err
	}
	err = checkTransactionID(tx)
	if err != nil {
		return err
	}

	switch tx.Type {
	case externalapi.TransactionTypeTransfer:
		return checkTransferAsset(tx)
	case externalapi.TransactionTypeDelegate:
		return checkDelegateAsset(tx)
	case externalapi.TransactionTypeVote:
		return tp.checkVoteAsset(tx)
	case externalapi.TransactionTypeMultisignature:
		return checkMultisignatureAsset(tx)
	}
	return errors.Wrapf(ruleerrors.ErrInvalidTransaction, "transaction %s has unknown type %d", tx.ID, tx.Type)
}

func (tp *transactionProcessor) checkTransactionAmounts(tx *externalapi.Transaction) error {
	if tx.Amount == nil || tx.Amount.Sign() < 0 {
		return errors.Wrapf(ruleerrors.ErrInvalidTransaction, "transaction %s has invalid amount %v", tx.ID, tx.Amount)
	}
	if tx.Fee == nil || tx.Fee.Sign() < 0 {
		return errors.Wrapf(ruleerrors.ErrInvalidTransaction, "transaction %s has invalid fee %v", tx.ID, tx.Fee)
	}
	expectedFee := tp.params.TransactionFee(tx)
	if expectedFee != nil && tx.Fee.Cmp(expectedFee) != 0 {
		return errors.Wrapf(ruleerrors.ErrInvalidTransaction, "transaction %s pays fee %s, expected %s",
			tx.ID, tx.Fee, expectedFee)
	}
	return nil
}

func checkTransactionSender(tx *externalapi.Transaction) error {
	if tx.SenderID != consensushashing.AddressFromPublicKey(tx.SenderPublicKey) {
		return errors.Wrapf(ruleerrors.ErrSenderPublicKeyMismatch,
			"transaction %s sender %s does not match its public key", tx.ID, tx.SenderID)
	}
	valid, err := signing.VerifyTransactionSignature(tx, tx.SenderPublicKey, tx.Signature)
	if err != nil {
		return err
	}
	if !valid {
		return errors.Wrapf(ruleerrors.ErrInvalidTransaction, "transaction %s has an invalid signature", tx.ID)
	}
	return nil
}

func checkTransactionID(tx *externalapi.Transaction) error {
	id, err := consensushashing.TransactionID(tx)
	if err != nil {
		return err
	}
	if id != tx.ID {
		return errors.Wrapf(ruleerrors.ErrInvalidTransaction, "transaction id %s does not match its content, "+
			"expected %s", tx.ID, id)
	}
	return nil
}

func checkTransferAsset(tx *externalapi.Transaction) error {
	if tx.RecipientID == "" {
		return errors.Wrapf(ruleerrors.ErrInvalidTransaction, "transfer %s has no recipient", tx.ID)
	}
	if tx.Asset.Delegate != nil || tx.Asset.Votes != nil || tx.Asset.Multisignature != nil {
		return errors.Wrapf(ruleerrors.ErrInvalidTransaction, "transfer %s carries an asset", tx.ID)
	}
	return nil
}

func checkNoTransferredAmount(tx *externalapi.Transaction) error {
	if tx.Amount.Sign() != 0 {
		return errors.Wrapf(ruleerrors.ErrInvalidTransaction, "%s transaction %s transfers %s",
			tx.Type, tx.ID, tx.Amount)
	}
	return nil
}

func checkDelegateAsset(tx *externalapi.Transaction) error {
	err := checkNoTransferredAmount(tx)
	if err != nil {
		return err
	}
	if tx.Asset.Delegate == nil {
		return errors.Wrapf(ruleerrors.ErrInvalidTransaction, "delegate registration %s has no username", tx.ID)
	}

	username := tx.Asset.Delegate.Username
	if len(username) == 0 || len(username) > maxUsernameLength {
		return errors.Wrapf(ruleerrors.ErrInvalidTransaction, "username %q must be 1 to %d characters long",
			username, maxUsernameLength)
	}
	for _, r := range username {
		if !strings.ContainsRune(usernameCharacters, r) {
			return errors.Wrapf(ruleerrors.ErrInvalidTransaction, "username %q contains %q", username, r)
		}
	}
	// Usernames must not be mistaken for addresses
	if isAddress(username) {
		return errors.Wrapf(ruleerrors.ErrInvalidTransaction, "username %q looks like an address", username)
	}
	return nil
}

func isAddress(s string) bool {
	if len(s) < 2 || !strings.HasSuffix(strings.ToUpper(s), "L") {
		return false
	}
	for _, r := range s[:len(s)-1] {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func (tp *transactionProcessor) checkVoteAsset(tx *externalapi.Transaction) error {
	err := checkNoTransferredAmount(tx)
	if err != nil {
		return err
	}
	votes := tx.Asset.Votes
	if len(votes) == 0 || len(votes) > tp.params.MaxVotesPerTransaction {
		return errors.Wrapf(ruleerrors.ErrInvalidVote, "vote %s must hold 1 to %d votes",
			tx.ID, tp.params.MaxVotesPerTransaction)
	}

	seen := make(map[string]struct{}, len(votes))
	for _, vote := range votes {
		_, publicKeyHex, err := parseVote(vote)
		if err != nil {
			return err
		}
		if _, ok := seen[publicKeyHex]; ok {
			return errors.Wrapf(ruleerrors.ErrInvalidVote, "vote %s names %s twice", tx.ID, publicKeyHex)
		}
		seen[publicKeyHex] = struct{}{}
	}
	return nil
}

// parseVote splits a vote into its direction and the hex encoded public
// key of the delegate
func parseVote(vote string) (isAddition bool, publicKeyHex string, err error) {
	switch {
	case strings.HasPrefix(vote, voteAdditionPrefix):
		isAddition = true
	case strings.HasPrefix(vote, voteRemovalPrefix):
		isAddition = false
	default:
		return false, "", errors.Wrapf(ruleerrors.ErrInvalidVote, "vote %q has no direction", vote)
	}

	publicKeyHex = vote[1:]
	if !isPublicKeyHex(publicKeyHex) {
		return false, "", errors.Wrapf(ruleerrors.ErrInvalidVote, "vote %q does not name a public key", vote)
	}
	return isAddition, publicKeyHex, nil
}

func isPublicKeyHex(s string) bool {
	if len(s) != publicKeyHexLength {
		return false
	}
	_, err := hex.DecodeString(s)
	return err == nil
}

func checkMultisignatureAsset(tx *externalapi.Transaction) error {
	err := checkNoTransferredAmount(tx)
	if err != nil {
		return err
	}
	asset := tx.Asset.Multisignature
	if asset == nil {
		return errors.Wrapf(ruleerrors.ErrInvalidTransaction, "multisignature registration %s has no keys group", tx.ID)
	}
	if len(asset.KeysGroup) == 0 || len(asset.KeysGroup) > maxMultisignatureKeys {
		return errors.Wrapf(ruleerrors.ErrInvalidTransaction, "keys group of %s must hold 1 to %d keys",
			tx.ID, maxMultisignatureKeys)
	}
	if asset.Min == 0 || int(asset.Min) > len(asset.KeysGroup) {
		return errors.Wrapf(ruleerrors.ErrInvalidTransaction, "minimum of %s must be between 1 and %d",
			tx.ID, len(asset.KeysGroup))
	}
	if asset.Lifetime == 0 || asset.Lifetime > maxMultisignatureLifetime {
		return errors.Wrapf(ruleerrors.ErrInvalidTransaction, "lifetime of %s must be between 1 and %d hours",
			tx.ID, maxMultisignatureLifetime)
	}

	senderPublicKeyHex := hex.EncodeToString(tx.SenderPublicKey)
	seen := make(map[string]struct{}, len(asset.KeysGroup))
	for _, key := range asset.KeysGroup {
		if !strings.HasPrefix(key, keysGroupAdditionPrefix) || !isPublicKeyHex(key[1:]) {
			return errors.Wrapf(ruleerrors.ErrInvalidTransaction, "keys group of %s holds malformed key %q", tx.ID, key)
		}
		publicKeyHex := key[1:]
		if publicKeyHex == senderPublicKeyHex {
			return errors.Wrapf(ruleerrors.ErrInvalidTransaction, "keys group of %s holds the sender key", tx.ID)
		}
		if _, ok := seen[publicKeyHex]; ok {
			return errors.Wrapf(ruleerrors.ErrInvalidTransaction, "keys group of %s holds %s twice", tx.ID, publicKeyHex)
		}
		seen[publicKeyHex] = struct{}{}
	}
	return nil
}
