package blockstore

import (
	"encoding/binary"

	"github.com/dposnet/dposd/domain/consensus/database"
	"github.com/dposnet/dposd/domain/consensus/database/serialization"
	"github.com/dposnet/dposd/domain/consensus/model"
	"github.com/dposnet/dposd/domain/consensus/model/externalapi"
	"github.com/pkg/errors"
)

var (
	blocksBucket                = database.MakeBucket([]byte("blocks"))
	heightsBucket               = database.MakeBucket([]byte("block-heights"))
	confirmedTransactionsBucket = database.MakeBucket([]byte("confirmed-transactions"))
)

// blockStore represents a store of blocks
type blockStore struct {
}

// New instantiates a new BlockStore
func New() model.BlockStore {
	return &blockStore{}
}

// Save persists the block row, its height index entry and the confirmation
// entries of its transactions
func (bs *blockStore) Save(dbContext model.DBWriter, block *externalapi.Block) error {
	blockBytes, err := bs.serializeBlock(block)
	if err != nil {
		return err
	}
	err = dbContext.Put(bs.idAsKey(block.ID), blockBytes)
	if err != nil {
		return err
	}
	err = dbContext.Put(bs.heightAsKey(block.Height), []byte(block.ID))
	if err != nil {
		return err
	}
	for _, tx := range block.Transactions {
		err = dbContext.Put(confirmedTransactionsBucket.Key([]byte(tx.ID)), []byte(block.ID))
		if err != nil {
			return err
		}
	}
	return nil
}

// Delete removes everything Save persisted for block
func (bs *blockStore) Delete(dbContext model.DBWriter, block *externalapi.Block) error {
	err := dbContext.Delete(bs.idAsKey(block.ID))
	if err != nil {
		return err
	}

	heightKey := bs.heightAsKey(block.Height)
	idAtHeight, err := dbContext.Get(heightKey)
	if err != nil && !database.IsNotFoundError(err) {
		return err
	}
	if err == nil && string(idAtHeight) == block.ID {
		err = dbContext.Delete(heightKey)
		if err != nil {
			return err
		}
	}

	for _, tx := range block.Transactions {
		err = dbContext.Delete(confirmedTransactionsBucket.Key([]byte(tx.ID)))
		if err != nil {
			return err
		}
	}
	return nil
}

// Block gets the block associated with the given id
func (bs *blockStore) Block(dbContext model.DBReader, blockID string) (*externalapi.Block, error) {
	blockBytes, err := dbContext.Get(bs.idAsKey(blockID))
	if err != nil {
		return nil, err
	}
	return bs.deserializeBlock(blockBytes)
}

// HasBlock returns whether a block with a given id exists in the store.
func (bs *blockStore) HasBlock(dbContext model.DBReader, blockID string) (bool, error) {
	return dbContext.Has(bs.idAsKey(blockID))
}

// BlockByHeight gets the block at the given height
func (bs *blockStore) BlockByHeight(dbContext model.DBReader, height uint64) (*externalapi.Block, error) {
	blockID, err := dbContext.Get(bs.heightAsKey(height))
	if err != nil {
		return nil, err
	}
	return bs.Block(dbContext, string(blockID))
}

// BlocksByHeightRange gets the blocks from fromHeight to toHeight, both
// inclusive, ordered by height. Missing heights at the end of the range are
// not an error.
func (bs *blockStore) BlocksByHeightRange(dbContext model.DBReader, fromHeight uint64, toHeight uint64) (
	[]*externalapi.Block, error) {

	if toHeight < fromHeight {
		return nil, nil
	}

	cursor, err := dbContext.Cursor(heightsBucket)
	if err != nil {
		return nil, err
	}
	defer cursor.Close()

	err = cursor.Seek(bs.heightAsKey(fromHeight))
	if database.IsNotFoundError(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	blocks := make([]*externalapi.Block, 0, toHeight-fromHeight+1)
	for ok := true; ok; ok = cursor.Next() {
		key, err := cursor.Key()
		if err != nil {
			return nil, err
		}
		height := binary.BigEndian.Uint64(key.Suffix())
		if height > toHeight {
			break
		}
		blockID, err := cursor.Value()
		if err != nil {
			return nil, err
		}
		block, err := bs.Block(dbContext, string(blockID))
		if err != nil {
			return nil, err
		}
		blocks = append(blocks, block)
	}
	return blocks, nil
}

// LastBlock gets the block with the greatest height
func (bs *blockStore) LastBlock(dbContext model.DBReader) (*externalapi.Block, error) {
	height, err := bs.lastHeight(dbContext)
	if err != nil {
		return nil, err
	}
	return bs.BlockByHeight(dbContext, height)
}

// LastBlockIDs returns the ids of the last count blocks, from the highest
// block down
func (bs *blockStore) LastBlockIDs(dbContext model.DBReader, count uint64) ([]string, error) {
	lastHeight, err := bs.lastHeight(dbContext)
	if database.IsNotFoundError(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, count)
	for height := lastHeight; height >= 1 && uint64(len(ids)) < count; height-- {
		blockID, err := dbContext.Get(bs.heightAsKey(height))
		if err != nil {
			return nil, err
		}
		ids = append(ids, string(blockID))
	}
	return ids, nil
}

// IsTransactionConfirmed returns whether a persisted block contains the
// transaction with the given id
func (bs *blockStore) IsTransactionConfirmed(dbContext model.DBReader, transactionID string) (bool, error) {
	return dbContext.Has(confirmedTransactionsBucket.Key([]byte(transactionID)))
}

func (bs *blockStore) lastHeight(dbContext model.DBReader) (uint64, error) {
	cursor, err := dbContext.Cursor(heightsBucket)
	if err != nil {
		return 0, err
	}
	defer cursor.Close()

	if !cursor.Last() {
		return 0, errors.Wrapf(database.ErrNotFound, "the block store is empty")
	}
	key, err := cursor.Key()
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(key.Suffix()), nil
}

func (bs *blockStore) serializeBlock(block *externalapi.Block) ([]byte, error) {
	blockBytes, err := serialization.Marshal(serialization.BlockToDbBlock(block))
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return blockBytes, nil
}

func (bs *blockStore) deserializeBlock(blockBytes []byte) (*externalapi.Block, error) {
	dbBlock := &serialization.DbBlock{}
	err := serialization.Unmarshal(blockBytes, dbBlock)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return serialization.DbBlockToBlock(dbBlock)
}

func (bs *blockStore) idAsKey(blockID string) model.DBKey {
	return blocksBucket.Key([]byte(blockID))
}

func (bs *blockStore) heightAsKey(height uint64) model.DBKey {
	var heightBytes [8]byte
	binary.BigEndian.PutUint64(heightBytes[:], height)
	return heightsBucket.Key(heightBytes[:])
}
