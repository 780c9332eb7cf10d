package model

import "github.com/dposnet/dposd/domain/consensus/model/externalapi"

// BlockStore represents a store of blocks, indexed by id, by height and by
// the ids of their transactions
type BlockStore interface {
	Save(dbContext DBWriter, block *externalapi.Block) error
	Delete(dbContext DBWriter, block *externalapi.Block) error
	Block(dbContext DBReader, blockID string) (*externalapi.Block, error)
	HasBlock(dbContext DBReader, blockID string) (bool, error)
	BlockByHeight(dbContext DBReader, height uint64) (*externalapi.Block, error)
	BlocksByHeightRange(dbContext DBReader, fromHeight uint64, toHeight uint64) ([]*externalapi.Block, error)
	LastBlock(dbContext DBReader) (*externalapi.Block, error)
	LastBlockIDs(dbContext DBReader, count uint64) ([]string, error)
	IsTransactionConfirmed(dbContext DBReader, transactionID string) (bool, error)
}
