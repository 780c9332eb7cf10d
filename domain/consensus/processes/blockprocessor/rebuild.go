package blockprocessor

import (
	"github.com/dposnet/dposd/domain/consensus/model"
	"github.com/dposnet/dposd/domain/consensus/model/externalapi"
	"github.com/dposnet/dposd/domain/consensus/ruleerrors"
	"github.com/dposnet/dposd/infrastructure/logger"
	"github.com/pkg/errors"
)

const defaultRebuildBatchSize = 1000

// Rebuild clears the account state and round bookkeeping and replays the
// persisted blocks from genesis upward, each in its own database
// transaction. The replayed height is stored with every replayed block. If
// options.ShouldCancel stops the replay, the persisted blocks are kept and
// ErrRebuildInterrupted is returned; ResumeRebuild finishes the replay.
// If options.UpToHeight stops the replay below the persisted tip, the blocks
// above the replayed tip are deleted so that the block store and the ledger
// agree. It returns the new tip.
func (bp *blockProcessor) Rebuild(options *model.RebuildOptions) (*externalapi.Block, error) {
	onEnd := logger.LogAndMeasureExecutionTime(log, "Rebuild")
	defer onEnd()

	err := bp.inTransaction(func(dbTx model.DBTransaction) error {
		err := bp.ledgerMutator.ResetState(dbTx)
		if err != nil {
			return err
		}
		return bp.rebuildStore.Stage(dbTx, 0)
	})
	if err != nil {
		return nil, err
	}
	return bp.replay(nil, options)
}

// ResumeRebuild finishes a rebuild that was interrupted. It returns nil when
// no rebuild is pending.
func (bp *blockProcessor) ResumeRebuild(options *model.RebuildOptions) (*externalapi.Block, error) {
	replayedHeight, found, err := bp.rebuildStore.ReplayedHeight(bp.databaseContext)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}

	onEnd := logger.LogAndMeasureExecutionTime(log, "ResumeRebuild")
	defer onEnd()

	var lastBlock *externalapi.Block
	if replayedHeight > 0 {
		lastBlock, err = bp.blockStore.BlockByHeight(bp.databaseContext, replayedHeight)
		if err != nil {
			return nil, err
		}
	}
	log.Infof("Resuming the rebuild after height %d", replayedHeight)
	return bp.replay(lastBlock, options)
}

// replay applies the persisted blocks above lastBlock. lastBlock is nil when
// the ledger is empty.
func (bp *blockProcessor) replay(lastBlock *externalapi.Block, options *model.RebuildOptions) (*externalapi.Block, error) {
	if options == nil {
		options = &model.RebuildOptions{}
	}
	batchSize := options.BatchSize
	if batchSize == 0 {
		batchSize = defaultRebuildBatchSize
	}

	for fromHeight := heightOf(lastBlock) + 1; ; fromHeight += batchSize {
		toHeight := fromHeight + batchSize - 1
		if options.UpToHeight != 0 && toHeight > options.UpToHeight {
			toHeight = options.UpToHeight
		}
		if toHeight < fromHeight {
			break
		}

		blocks, err := bp.blockStore.BlocksByHeightRange(bp.databaseContext, fromHeight, toHeight)
		if err != nil {
			return nil, err
		}
		if len(blocks) == 0 {
			break
		}
		log.Debugf("Replaying %d blocks from height %d", len(blocks), fromHeight)

		for _, block := range blocks {
			if options.ShouldCancel != nil && options.ShouldCancel() {
				log.Infof("Rebuild cancelled after height %d", heightOf(lastBlock))
				return nil, errors.Wrapf(model.ErrRebuildInterrupted, "stopped after height %d", heightOf(lastBlock))
			}

			err := bp.replayBlock(lastBlock, block)
			if err != nil {
				return nil, err
			}
			lastBlock = block

			if options.OnProgress != nil {
				options.OnProgress(block)
			}
		}
		if uint64(len(blocks)) < toHeight-fromHeight+1 {
			break
		}
	}

	if lastBlock == nil {
		return nil, errors.Wrapf(ruleerrors.ErrInvalidGenesisBlock, "no block was replayed")
	}

	err := bp.truncateAbove(lastBlock)
	if err != nil {
		return nil, err
	}
	err = bp.inTransaction(func(dbTx model.DBTransaction) error {
		return bp.rebuildStore.Delete(dbTx)
	})
	if err != nil {
		return nil, err
	}

	log.Infof("Rebuilt the ledger up to block %s at height %d", lastBlock.ID, lastBlock.Height)
	return lastBlock, nil
}

// replayBlock applies a persisted block. The genesis block must come first.
func (bp *blockProcessor) replayBlock(lastBlock *externalapi.Block, block *externalapi.Block) error {
	if lastBlock == nil {
		if !block.IsGenesis() || block.ID != bp.params.GenesisBlock.ID {
			return errors.Wrapf(ruleerrors.ErrInvalidGenesisBlock,
				"the first persisted block %s does not match the genesis block %s",
				block.ID, bp.params.GenesisBlock.ID)
		}
		return bp.inTransaction(func(dbTx model.DBTransaction) error {
			err := bp.ledgerMutator.ApplyGenesisBlock(dbTx, block)
			if err != nil {
				return err
			}
			return bp.rebuildStore.Stage(dbTx, block.Height)
		})
	}

	if block.Height != lastBlock.Height+1 || block.PreviousBlockID != lastBlock.ID {
		return errors.Wrapf(ruleerrors.ErrInvalidPreviousBlock,
			"persisted block %s at height %d does not extend block %s at height %d",
			block.ID, block.Height, lastBlock.ID, lastBlock.Height)
	}
	return bp.inTransaction(func(dbTx model.DBTransaction) error {
		err := bp.ledgerMutator.ApplyBlock(dbTx, block)
		if err != nil {
			return err
		}
		return bp.rebuildStore.Stage(dbTx, block.Height)
	})
}

// truncateAbove deletes the persisted blocks above lastBlock. Their
// transactions were never applied, so only the rows are removed.
func (bp *blockProcessor) truncateAbove(lastBlock *externalapi.Block) error {
	for {
		persistedTip, err := bp.blockStore.LastBlock(bp.databaseContext)
		if err != nil {
			return err
		}
		if persistedTip.Height <= lastBlock.Height {
			return nil
		}

		fromHeight := lastBlock.Height + 1
		if persistedTip.Height >= defaultRebuildBatchSize && persistedTip.Height-defaultRebuildBatchSize+1 > fromHeight {
			fromHeight = persistedTip.Height - defaultRebuildBatchSize + 1
		}
		blocks, err := bp.blockStore.BlocksByHeightRange(bp.databaseContext, fromHeight, persistedTip.Height)
		if err != nil {
			return err
		}
		log.Infof("Deleting %d blocks above height %d that were not replayed", len(blocks), lastBlock.Height)

		err = bp.inTransaction(func(dbTx model.DBTransaction) error {
			for _, block := range blocks {
				err := bp.ledgerMutator.DeleteBlock(dbTx, block)
				if err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			return err
		}
	}
}

func heightOf(block *externalapi.Block) uint64 {
	if block == nil {
		return 0
	}
	return block.Height
}
