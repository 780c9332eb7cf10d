package transactionprocessor

import (
	"encoding/hex"
	"math/big"
	"sort"

	"github.com/dposnet/dposd/domain/consensus/model"
	"github.com/dposnet/dposd/domain/consensus/model/externalapi"
	"github.com/dposnet/dposd/domain/consensus/ruleerrors"
	"github.com/dposnet/dposd/domain/consensus/utils/consensushashing"
	"github.com/pkg/errors"
)

// applyTransaction applies tx to state. Nothing is written to state unless
// every check passes. In verification mode missing co-signatures make the
// transaction PENDING instead of failing it.
func (tp *transactionProcessor) applyTransaction(state model.AccountState, tx *externalapi.Transaction,
	skipBalanceCheck bool, isVerification bool) *model.TransactionResult {

	sender, _, err := state.Account(tx.SenderID)
	if err != nil {
		return resultFromError(tx, err)
	}

	err = checkCoSignatures(sender, tx)
	if err != nil {
		if isVerification && errors.Is(err, ruleerrors.ErrMissingSignatures) {
			log.Tracef("Transaction %s is waiting for co-signatures: %s", tx.ID, err)
			return &model.TransactionResult{
				TransactionID: tx.ID,
				Status:        model.TransactionStatusPending,
				Errors:        []error{err},
			}
		}
		return resultFromError(tx, err)
	}

	spent := new(big.Int).Add(tx.Amount, tx.Fee)
	if !skipBalanceCheck && sender.Balance.Cmp(spent) < 0 {
		return resultFromError(tx, errors.Wrapf(ruleerrors.ErrInsufficientBalance,
			"account %s has %s, transaction %s spends %s", sender.Address, sender.Balance, tx.ID, spent))
	}
	sender.Balance.Sub(sender.Balance, spent)

	switch tx.Type {
	case externalapi.TransactionTypeTransfer:
		// The recipient is read after the debit so that transfers to self
		// see it
		state.SetAccount(sender)
		recipient, _, err := state.Account(tx.RecipientID)
		if err != nil {
			return resultFromError(tx, err)
		}
		recipient.Balance.Add(recipient.Balance, tx.Amount)
		state.SetAccount(recipient)
		return resultFromError(tx, nil)

	case externalapi.TransactionTypeDelegate:
		err = applyDelegate(state, sender, tx)
	case externalapi.TransactionTypeVote:
		err = tp.applyVote(state, sender, tx)
	case externalapi.TransactionTypeMultisignature:
		err = applyMultisignature(sender, tx)
	default:
		err = errors.Wrapf(ruleerrors.ErrInvalidTransaction, "transaction %s has unknown type %d", tx.ID, tx.Type)
	}
	if err != nil {
		return resultFromError(tx, err)
	}
	state.SetAccount(sender)
	return resultFromError(tx, nil)
}

func applyDelegate(state model.AccountState, sender *externalapi.Account, tx *externalapi.Transaction) error {
	if sender.IsDelegate {
		return errors.Wrapf(ruleerrors.ErrDelegateAlreadyRegistered,
			"account %s is already registered as delegate %s", sender.Address, sender.Username)
	}
	username := tx.Asset.Delegate.Username
	_, taken, err := state.AddressByUsername(username)
	if err != nil {
		return err
	}
	if taken {
		return errors.Wrapf(ruleerrors.ErrUsernameTaken, "username %s is taken", username)
	}
	sender.IsDelegate = true
	sender.Username = username
	return nil
}

func (tp *transactionProcessor) applyVote(state model.AccountState, sender *externalapi.Account,
	tx *externalapi.Transaction) error {

	votes := make(map[string]struct{}, len(sender.Votes))
	for _, vote := range sender.Votes {
		votes[vote] = struct{}{}
	}

	for _, vote := range tx.Asset.Votes {
		isAddition, publicKeyHex, err := parseVote(vote)
		if err != nil {
			return err
		}
		err = checkVotedDelegate(state, publicKeyHex)
		if err != nil {
			return err
		}

		_, alreadyVoted := votes[publicKeyHex]
		if isAddition {
			if alreadyVoted {
				return errors.Wrapf(ruleerrors.ErrInvalidVote, "account %s already votes for %s",
					sender.Address, publicKeyHex)
			}
			votes[publicKeyHex] = struct{}{}
		} else {
			if !alreadyVoted {
				return errors.Wrapf(ruleerrors.ErrInvalidVote, "account %s does not vote for %s",
					sender.Address, publicKeyHex)
			}
			delete(votes, publicKeyHex)
		}
	}

	if len(votes) > tp.params.MaxVotesPerAccount {
		return errors.Wrapf(ruleerrors.ErrInvalidVote, "account %s would vote for %d delegates, maximum is %d",
			sender.Address, len(votes), tp.params.MaxVotesPerAccount)
	}
	sender.Votes = sortedKeys(votes)
	return nil
}

func checkVotedDelegate(state model.AccountState, publicKeyHex string) error {
	publicKey, err := hex.DecodeString(publicKeyHex)
	if err != nil {
		return errors.Wrapf(ruleerrors.ErrInvalidVote, "malformed public key %s", publicKeyHex)
	}
	delegate, found, err := state.Account(consensushashing.AddressFromPublicKey(publicKey))
	if err != nil {
		return err
	}
	if !found || !delegate.IsDelegate {
		return errors.Wrapf(ruleerrors.ErrInvalidVote, "%s is not a delegate", publicKeyHex)
	}
	return nil
}

func applyMultisignature(sender *externalapi.Account, tx *externalapi.Transaction) error {
	if sender.IsMultisignature() {
		return errors.Wrapf(ruleerrors.ErrMultisignatureAlreadyRegistered,
			"account %s already has a keys group", sender.Address)
	}
	asset := tx.Asset.Multisignature
	sender.MultisigKeysGroup = keysGroupPublicKeys(asset.KeysGroup)
	sender.MultisigMin = asset.Min
	sender.MultisigLifetime = asset.Lifetime
	return nil
}

func (tp *transactionProcessor) undoTransaction(state model.AccountState, tx *externalapi.Transaction) error {
	sender, _, err := state.Account(tx.SenderID)
	if err != nil {
		return err
	}

	switch tx.Type {
	case externalapi.TransactionTypeTransfer:
		recipient, _, err := state.Account(tx.RecipientID)
		if err != nil {
			return err
		}
		recipient.Balance.Sub(recipient.Balance, tx.Amount)
		state.SetAccount(recipient)

		// Re-read in case the transfer was to self
		sender, _, err = state.Account(tx.SenderID)
		if err != nil {
			return err
		}

	case externalapi.TransactionTypeDelegate:
		if !sender.IsDelegate || sender.Username != tx.Asset.Delegate.Username {
			return errors.Wrapf(ruleerrors.ErrInvalidTransaction,
				"account %s is not registered as delegate %s", sender.Address, tx.Asset.Delegate.Username)
		}
		sender.IsDelegate = false
		sender.Username = ""

	case externalapi.TransactionTypeVote:
		err = undoVote(sender, tx)
		if err != nil {
			return err
		}

	case externalapi.TransactionTypeMultisignature:
		sender.MultisigKeysGroup = nil
		sender.MultisigMin = 0
		sender.MultisigLifetime = 0

	default:
		return errors.Wrapf(ruleerrors.ErrInvalidTransaction, "transaction %s has unknown type %d", tx.ID, tx.Type)
	}

	sender.Balance.Add(sender.Balance, tx.Amount)
	sender.Balance.Add(sender.Balance, tx.Fee)
	state.SetAccount(sender)
	return nil
}

func undoVote(sender *externalapi.Account, tx *externalapi.Transaction) error {
	votes := make(map[string]struct{}, len(sender.Votes))
	for _, vote := range sender.Votes {
		votes[vote] = struct{}{}
	}
	for i := len(tx.Asset.Votes) - 1; i >= 0; i-- {
		isAddition, publicKeyHex, err := parseVote(tx.Asset.Votes[i])
		if err != nil {
			return err
		}
		if isAddition {
			delete(votes, publicKeyHex)
		} else {
			votes[publicKeyHex] = struct{}{}
		}
	}
	sender.Votes = sortedKeys(votes)
	return nil
}

func sortedKeys(set map[string]struct{}) []string {
	if len(set) == 0 {
		return nil
	}
	keys := make([]string, 0, len(set))
	for key := range set {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
