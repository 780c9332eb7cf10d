package ledgermutator

import (
	"sort"

	"github.com/dposnet/dposd/domain/chainconfig"
	"github.com/dposnet/dposd/domain/consensus/datastructures/accountstore"
	"github.com/dposnet/dposd/domain/consensus/model"
	"github.com/dposnet/dposd/domain/consensus/model/externalapi"
	"github.com/dposnet/dposd/domain/consensus/ruleerrors"
	"github.com/pkg/errors"
)

type ledgerMutator struct {
	params *chainconfig.Params

	slots                model.SlotOracle
	transactionProcessor model.TransactionProcessor

	blockStore   model.BlockStore
	accountStore model.AccountStore
	roundStore   model.RoundStore
}

// New instantiates a new LedgerMutator
func New(params *chainconfig.Params,
	slots model.SlotOracle,
	transactionProcessor model.TransactionProcessor,
	blockStore model.BlockStore,
	accountStore model.AccountStore,
	roundStore model.RoundStore) model.LedgerMutator {

	return &ledgerMutator{
		params:               params,
		slots:                slots,
		transactionProcessor: transactionProcessor,
		blockStore:           blockStore,
		accountStore:         accountStore,
		roundStore:           roundStore,
	}
}

// ApplyBlock applies the transactions of block and its round bookkeeping.
// Nothing is written to dbTx if any transaction fails.
func (lm *ledgerMutator) ApplyBlock(dbTx model.DBTransaction, block *externalapi.Block) error {
	state := accountstore.NewStagingState(lm.accountStore, dbTx)
	transactions := lm.effectiveTransactions(block)

	results := lm.transactionProcessor.ApplyTransactions(state, transactions, false)
	err := firstFailure(results)
	if err != nil {
		return errors.Wrapf(err, "failed applying block %s", block.ID)
	}

	err = lm.applyRound(dbTx, state, block, transactions)
	if err != nil {
		return err
	}
	return state.Commit(dbTx)
}

// UndoBlock reverts ApplyBlock for block. block must be the tip.
func (lm *ledgerMutator) UndoBlock(dbTx model.DBTransaction, block *externalapi.Block) error {
	state := accountstore.NewStagingState(lm.accountStore, dbTx)
	transactions := lm.effectiveTransactions(block)

	if !block.IsGenesis() {
		err := lm.undoRound(dbTx, state, block, transactions)
		if err != nil {
			return err
		}
	}

	results := lm.transactionProcessor.UndoTransactions(state, transactions)
	err := firstFailure(results)
	if err != nil {
		return errors.Wrapf(err, "failed undoing block %s", block.ID)
	}
	return state.Commit(dbTx)
}

// ApplyGenesisBlock applies the genesis transactions without balance
// checks. Votes are applied last since they refer to delegates registered
// by the same block.
func (lm *ledgerMutator) ApplyGenesisBlock(dbTx model.DBTransaction, block *externalapi.Block) error {
	if !block.IsGenesis() {
		return errors.Wrapf(ruleerrors.ErrInvalidGenesisBlock, "block %s at height %d is not a genesis block",
			block.ID, block.Height)
	}

	transactions := make([]*externalapi.Transaction, len(block.Transactions))
	copy(transactions, block.Transactions)
	sort.SliceStable(transactions, func(i, j int) bool {
		return transactions[i].Type != externalapi.TransactionTypeVote &&
			transactions[j].Type == externalapi.TransactionTypeVote
	})

	state := accountstore.NewStagingState(lm.accountStore, dbTx)
	results := lm.transactionProcessor.ApplyTransactions(state, transactions, true)
	err := firstFailure(results)
	if err != nil {
		return errors.Wrapf(err, "failed applying genesis block %s", block.ID)
	}
	log.Debugf("Applied %d genesis transactions", len(transactions))
	return state.Commit(dbTx)
}

// SaveGenesisBlock persists the genesis block
func (lm *ledgerMutator) SaveGenesisBlock(dbTx model.DBTransaction, block *externalapi.Block) error {
	if !block.IsGenesis() {
		return errors.Wrapf(ruleerrors.ErrInvalidGenesisBlock, "block %s at height %d is not a genesis block",
			block.ID, block.Height)
	}
	return lm.blockStore.Save(dbTx, stripped(block))
}

// SaveBlock persists block and its transactions
func (lm *ledgerMutator) SaveBlock(dbTx model.DBTransaction, block *externalapi.Block) error {
	return lm.blockStore.Save(dbTx, stripped(block))
}

// DeleteBlock removes block and its transactions. The genesis block can
// never be deleted.
func (lm *ledgerMutator) DeleteBlock(dbTx model.DBTransaction, block *externalapi.Block) error {
	if block.IsGenesis() {
		return errors.Wrapf(ruleerrors.ErrCannotDeleteGenesis, "cannot delete genesis block %s", block.ID)
	}
	return lm.blockStore.Delete(dbTx, block)
}

// DeleteLastBlock undoes and deletes lastBlock and returns the block it
// extended, which becomes the tip once dbTx is committed
func (lm *ledgerMutator) DeleteLastBlock(dbTx model.DBTransaction, lastBlock *externalapi.Block) (
	*externalapi.Block, error) {

	if lastBlock.IsGenesis() {
		return nil, errors.Wrapf(ruleerrors.ErrCannotDeleteGenesis, "cannot delete genesis block %s", lastBlock.ID)
	}

	previousBlock, err := lm.blockStore.Block(dbTx, lastBlock.PreviousBlockID)
	if err != nil {
		return nil, errors.Wrapf(err, "failed loading block %s preceding %s", lastBlock.PreviousBlockID, lastBlock.ID)
	}

	err = lm.UndoBlock(dbTx, lastBlock)
	if err != nil {
		return nil, err
	}
	err = lm.DeleteBlock(dbTx, lastBlock)
	if err != nil {
		return nil, err
	}
	return previousBlock, nil
}

// ResetState removes every account and round record. Blocks are kept.
func (lm *ledgerMutator) ResetState(dbTx model.DBTransaction) error {
	err := lm.accountStore.Clear(dbTx)
	if err != nil {
		return err
	}
	return lm.roundStore.Clear(dbTx)
}

// effectiveTransactions returns the transactions of block that affect the
// ledger
func (lm *ledgerMutator) effectiveTransactions(block *externalapi.Block) []*externalapi.Transaction {
	transactions := make([]*externalapi.Transaction, 0, len(block.Transactions))
	for _, tx := range block.Transactions {
		if lm.params.IsInertTransaction(tx.ID) {
			continue
		}
		transactions = append(transactions, tx)
	}
	return transactions
}

func firstFailure(results []*model.TransactionResult) error {
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

func stripped(block *externalapi.Block) *externalapi.Block {
	if block.ReceivedAt == nil {
		return block
	}
	blockCopy := *block
	blockCopy.ReceivedAt = nil
	return &blockCopy
}
