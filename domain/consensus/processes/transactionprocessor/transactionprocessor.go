package transactionprocessor

import (
	"github.com/dposnet/dposd/domain/chainconfig"
	"github.com/dposnet/dposd/domain/consensus/model"
	"github.com/dposnet/dposd/domain/consensus/model/externalapi"
	"github.com/dposnet/dposd/domain/consensus/ruleerrors"
	"github.com/pkg/errors"
)

// transactionProcessor verifies and applies transactions against an
// account state
type transactionProcessor struct {
	params *chainconfig.Params
}

// New instantiates a new TransactionProcessor
func New(params *chainconfig.Params) model.TransactionProcessor {
	return &transactionProcessor{
		params: params,
	}
}

func (tp *transactionProcessor) ValidateTransactions(transactions []*externalapi.Transaction) []*model.TransactionResult {
	results := make([]*model.TransactionResult, len(transactions))
	for i, tx := range transactions {
		results[i] = resultFromError(tx, tp.validateTransactionInIsolation(tx))
	}
	return results
}

func (tp *transactionProcessor) CheckAllowedTransactions(
	transactions []*externalapi.Transaction, height uint64) []*model.TransactionResult {

	results := make([]*model.TransactionResult, len(transactions))
	for i, tx := range transactions {
		var err error
		if !tp.params.IsTransactionTypeAllowed(tx.Type, height) {
			err = errors.Wrapf(ruleerrors.ErrTransactionTypeNotAllowed,
				"transaction %s of type %s is not allowed at height %d", tx.ID, tx.Type, height)
		}
		results[i] = resultFromError(tx, err)
	}
	return results
}

func (tp *transactionProcessor) VerifyTransactions(
	state model.AccountState, transactions []*externalapi.Transaction) []*model.TransactionResult {

	results := make([]*model.TransactionResult, len(transactions))
	for i, tx := range transactions {
		results[i] = tp.applyTransaction(state, tx, false, true)
	}
	return results
}

func (tp *transactionProcessor) ApplyTransactions(state model.AccountState,
	transactions []*externalapi.Transaction, skipBalanceCheck bool) []*model.TransactionResult {

	results := make([]*model.TransactionResult, len(transactions))
	for i, tx := range transactions {
		results[i] = tp.applyTransaction(state, tx, skipBalanceCheck, false)
	}
	return results
}

// UndoTransactions reverts transactions last to first. Results are
// reported in the order of transactions.
func (tp *transactionProcessor) UndoTransactions(
	state model.AccountState, transactions []*externalapi.Transaction) []*model.TransactionResult {

	results := make([]*model.TransactionResult, len(transactions))
	for i := len(transactions) - 1; i >= 0; i-- {
		tx := transactions[i]
		results[i] = resultFromError(tx, tp.undoTransaction(state, tx))
	}
	return results
}

func resultFromError(tx *externalapi.Transaction, err error) *model.TransactionResult {
	if err != nil {
		return &model.TransactionResult{
			TransactionID: tx.ID,
			Status:        model.TransactionStatusFail,
			Errors:        []error{err},
		}
	}
	return &model.TransactionResult{
		TransactionID: tx.ID,
		Status:        model.TransactionStatusOK,
	}
}
