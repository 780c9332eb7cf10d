package model

import "github.com/dposnet/dposd/domain/consensus/model/externalapi"

// LedgerMutator applies and undoes blocks against account state and round
// bookkeeping. Every operation runs inside the given database transaction
// and leaves committing to the caller.
type LedgerMutator interface {
	ApplyBlock(dbTx DBTransaction, block *externalapi.Block) error
	UndoBlock(dbTx DBTransaction, block *externalapi.Block) error
	ApplyGenesisBlock(dbTx DBTransaction, block *externalapi.Block) error
	SaveGenesisBlock(dbTx DBTransaction, block *externalapi.Block) error
	SaveBlock(dbTx DBTransaction, block *externalapi.Block) error
	DeleteBlock(dbTx DBTransaction, block *externalapi.Block) error
	DeleteLastBlock(dbTx DBTransaction, lastBlock *externalapi.Block) (*externalapi.Block, error)
	ResetState(dbTx DBTransaction) error
}
