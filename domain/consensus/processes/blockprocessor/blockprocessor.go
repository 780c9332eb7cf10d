package blockprocessor

import (
	"github.com/dposnet/dposd/domain/chainconfig"
	"github.com/dposnet/dposd/domain/consensus/model"
)

// blockProcessor is responsible for processing incoming blocks, creating
// blocks over a given tip and replaying the persisted chain
type blockProcessor struct {
	params          *chainconfig.Params
	databaseContext model.DBManager

	slots                model.SlotOracle
	rewardCurve          model.RewardCurve
	blockValidator       model.BlockValidator
	blockVerifier        model.BlockVerifier
	ledgerMutator        model.LedgerMutator
	transactionProcessor model.TransactionProcessor

	blockStore   model.BlockStore
	accountStore model.AccountStore
	rebuildStore model.RebuildStore
}

// New instantiates a new BlockProcessor
func New(
	params *chainconfig.Params,
	databaseContext model.DBManager,
	slots model.SlotOracle,
	rewardCurve model.RewardCurve,
	blockValidator model.BlockValidator,
	blockVerifier model.BlockVerifier,
	ledgerMutator model.LedgerMutator,
	transactionProcessor model.TransactionProcessor,
	blockStore model.BlockStore,
	accountStore model.AccountStore,
	rebuildStore model.RebuildStore) model.BlockProcessor {

	return &blockProcessor{
		params:          params,
		databaseContext: databaseContext,

		slots:                slots,
		rewardCurve:          rewardCurve,
		blockValidator:       blockValidator,
		blockVerifier:        blockVerifier,
		ledgerMutator:        ledgerMutator,
		transactionProcessor: transactionProcessor,

		blockStore:   blockStore,
		accountStore: accountStore,
		rebuildStore: rebuildStore,
	}
}

// inTransaction runs f inside a database transaction that is committed
// only if f succeeds
func (bp *blockProcessor) inTransaction(f func(dbTx model.DBTransaction) error) error {
	dbTx, err := bp.databaseContext.Begin()
	if err != nil {
		return err
	}
	defer dbTx.RollbackUnlessClosed()

	err = f(dbTx)
	if err != nil {
		return err
	}
	return dbTx.Commit()
}
