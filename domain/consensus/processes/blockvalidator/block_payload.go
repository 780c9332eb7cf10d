package blockvalidator

import (
	"bytes"

	"github.com/dposnet/dposd/domain/consensus/model"
	"github.com/dposnet/dposd/domain/consensus/model/externalapi"
	"github.com/dposnet/dposd/domain/consensus/ruleerrors"
	"github.com/dposnet/dposd/domain/consensus/utils/consensushashing"
	"github.com/pkg/errors"
)

// checkBlockPayload checks the transactions of block against the payload
// fields of its header. Transactions are validated one by one only once
// the payload is known to be the signed one.
func (v *blockValidator) checkBlockPayload(block *externalapi.Block) error {
	err := v.checkTransactionCount(block)
	if err != nil {
		return err
	}

	err = v.checkDuplicateTransactions(block)
	if err != nil {
		return err
	}

	err = v.checkPayloadHash(block)
	if err != nil {
		return err
	}

	err = v.checkTotals(block)
	if err != nil {
		return err
	}

	return v.checkTransactionsInIsolation(block)
}

func (v *blockValidator) checkTransactionCount(block *externalapi.Block) error {
	if len(block.Transactions) > v.params.MaxTransactionsPerBlock {
		return errors.Wrapf(ruleerrors.ErrTooManyTransactions, "block %s has %d transactions, maximum is %d",
			block.ID, len(block.Transactions), v.params.MaxTransactionsPerBlock)
	}
	if int(block.NumberOfTransactions) != len(block.Transactions) {
		return errors.Wrapf(ruleerrors.ErrTransactionCountMismatch, "block %s declares %d transactions, has %d",
			block.ID, block.NumberOfTransactions, len(block.Transactions))
	}
	return nil
}

func (v *blockValidator) checkDuplicateTransactions(block *externalapi.Block) error {
	seen := make(map[string]struct{}, len(block.Transactions))
	for _, tx := range block.Transactions {
		if _, ok := seen[tx.ID]; ok {
			return errors.Wrapf(ruleerrors.ErrDuplicateTransaction, "block %s holds transaction %s twice",
				block.ID, tx.ID)
		}
		seen[tx.ID] = struct{}{}
	}
	return nil
}

func (v *blockValidator) checkPayloadHash(block *externalapi.Block) error {
	payloadHash, payloadLength, err := consensushashing.PayloadHash(block.Transactions)
	if err != nil {
		return err
	}
	if payloadLength > v.params.MaxPayloadLength {
		return errors.Wrapf(ruleerrors.ErrPayloadTooLong, "block %s has a payload of %d bytes, maximum is %d",
			block.ID, payloadLength, v.params.MaxPayloadLength)
	}
	if !bytes.Equal(payloadHash, block.PayloadHash) {
		return errors.Wrapf(ruleerrors.ErrInvalidPayloadHash, "block %s has payload hash %x, computed %x",
			block.ID, block.PayloadHash, payloadHash)
	}
	if payloadLength != block.PayloadLength {
		return errors.Wrapf(ruleerrors.ErrInvalidPayloadLength, "block %s declares a payload of %d bytes, has %d",
			block.ID, block.PayloadLength, payloadLength)
	}
	return nil
}

func (v *blockValidator) checkTotals(block *externalapi.Block) error {
	totalAmount, totalFee := consensushashing.TransactionTotals(block.Transactions)
	if block.TotalAmount == nil || totalAmount.Cmp(block.TotalAmount) != 0 {
		return errors.Wrapf(ruleerrors.ErrInvalidTotalAmount, "block %s declares total amount %v, computed %s",
			block.ID, block.TotalAmount, totalAmount)
	}
	if block.TotalFee == nil || totalFee.Cmp(block.TotalFee) != 0 {
		return errors.Wrapf(ruleerrors.ErrInvalidTotalFee, "block %s declares total fee %v, computed %s",
			block.ID, block.TotalFee, totalFee)
	}
	return nil
}

func (v *blockValidator) checkTransactionsInIsolation(block *externalapi.Block) error {
	results := v.transactionProcessor.ValidateTransactions(block.Transactions)
	var invalidTransactions []ruleerrors.InvalidTransaction
	for _, result := range results {
		if result.Status != model.TransactionStatusOK {
			invalidTransactions = append(invalidTransactions, ruleerrors.InvalidTransaction{
				TransactionID: result.TransactionID,
				Errors:        result.Errors,
			})
		}
	}
	if len(invalidTransactions) > 0 {
		return ruleerrors.NewErrInvalidTransactions(invalidTransactions)
	}
	return nil
}
