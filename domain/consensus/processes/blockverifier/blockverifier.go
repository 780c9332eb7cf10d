package blockverifier

import (
	"github.com/dposnet/dposd/domain/chainconfig"
	"github.com/dposnet/dposd/domain/consensus/datastructures/accountstore"
	"github.com/dposnet/dposd/domain/consensus/model"
	"github.com/dposnet/dposd/domain/consensus/model/externalapi"
	"github.com/dposnet/dposd/domain/consensus/ruleerrors"
	"github.com/dposnet/dposd/infrastructure/logger"
	"github.com/pkg/errors"
)

// blockVerifier checks blocks against the persisted chain
type blockVerifier struct {
	params *chainconfig.Params

	blockStore           model.BlockStore
	accountStore         model.AccountStore
	transactionProcessor model.TransactionProcessor
	forgerEligibility    model.ForgerEligibility
}

// New instantiates a new BlockVerifier
func New(params *chainconfig.Params,
	blockStore model.BlockStore,
	accountStore model.AccountStore,
	transactionProcessor model.TransactionProcessor,
	forgerEligibility model.ForgerEligibility) model.BlockVerifier {

	return &blockVerifier{
		params:               params,
		blockStore:           blockStore,
		accountStore:         accountStore,
		transactionProcessor: transactionProcessor,
		forgerEligibility:    forgerEligibility,
	}
}

// VerifyBlock checks that block is new, that none of its transactions is
// confirmed, that its transactions apply on top of the state read from
// dbContext, and that its generator was scheduled for its slot
func (v *blockVerifier) VerifyBlock(dbContext model.DBReader, block *externalapi.Block) error {
	onEnd := logger.LogAndMeasureExecutionTime(log, "VerifyBlock")
	defer onEnd()

	err := v.checkBlockIsNew(dbContext, block)
	if err != nil {
		return err
	}

	err = v.checkTransactionsAreNotConfirmed(dbContext, block)
	if err != nil {
		return err
	}

	err = v.checkTransactionsInContext(dbContext, block)
	if err != nil {
		return err
	}

	return v.forgerEligibility.VerifyBlockForger(block)
}

func (v *blockVerifier) checkBlockIsNew(dbContext model.DBReader, block *externalapi.Block) error {
	exists, err := v.blockStore.HasBlock(dbContext, block.ID)
	if err != nil {
		return err
	}
	if exists {
		return errors.Wrapf(ruleerrors.ErrBlockAlreadyExists, "block %s already exists", block.ID)
	}
	return nil
}

func (v *blockVerifier) checkTransactionsAreNotConfirmed(dbContext model.DBReader, block *externalapi.Block) error {
	for _, tx := range block.Transactions {
		confirmed, err := v.blockStore.IsTransactionConfirmed(dbContext, tx.ID)
		if err != nil {
			return err
		}
		if confirmed {
			return errors.Wrapf(ruleerrors.ErrTransactionAlreadyConfirmed,
				"transaction %s of block %s is already confirmed", tx.ID, block.ID)
		}
	}
	return nil
}

// checkTransactionsInContext verifies the non-inert transactions of block
// in order on a throwaway view of the account state
func (v *blockVerifier) checkTransactionsInContext(dbContext model.DBReader, block *externalapi.Block) error {
	transactions := make([]*externalapi.Transaction, 0, len(block.Transactions))
	for _, tx := range block.Transactions {
		if v.params.IsInertTransaction(tx.ID) {
			log.Debugf("Skipping verification of inert transaction %s", tx.ID)
			continue
		}
		transactions = append(transactions, tx)
	}

	state := accountstore.NewStagingState(v.accountStore, dbContext)
	results := v.transactionProcessor.VerifyTransactions(state, transactions)
	for _, result := range results {
		if result.Status != model.TransactionStatusOK {
			return ruleerrors.NewErrInvalidTransactions([]ruleerrors.InvalidTransaction{{
				TransactionID: result.TransactionID,
				Errors:        result.Errors,
			}})
		}
	}
	return nil
}
