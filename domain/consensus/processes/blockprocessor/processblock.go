package blockprocessor

import (
	"github.com/dposnet/dposd/domain/consensus/model"
	"github.com/dposnet/dposd/domain/consensus/model/externalapi"
	"github.com/dposnet/dposd/domain/consensus/processes/blockprocessor/blocklogger"
	"github.com/dposnet/dposd/infrastructure/logger"
)

// ProcessBlock validates block against lastBlock, verifies it against the
// persisted chain and applies it. broadcast, if set, is called once the
// block is known to be valid and before anything is written.
func (bp *blockProcessor) ProcessBlock(lastBlock *externalapi.Block, lastBlockIDs []string,
	block *externalapi.Block, broadcast func(block *externalapi.Block)) error {

	onEnd := logger.LogAndMeasureExecutionTime(log, "ProcessBlock")
	defer onEnd()

	err := bp.validateBlock(lastBlock, lastBlockIDs, block)
	if err != nil {
		return err
	}

	err = bp.verifyAndInsertBlock(block, broadcast)
	if err != nil {
		return err
	}

	log.Debugf("Block %s at height %d validated and inserted", block.ID, block.Height)
	blocklogger.LogBlock(block)
	return nil
}

// verifyAndInsertBlock verifies block against the persisted chain, then
// applies and saves it in the same database transaction
func (bp *blockProcessor) verifyAndInsertBlock(block *externalapi.Block, broadcast func(block *externalapi.Block)) error {
	return bp.inTransaction(func(dbTx model.DBTransaction) error {
		err := bp.blockVerifier.VerifyBlock(dbTx, block)
		if err != nil {
			return err
		}

		if broadcast != nil {
			broadcast(block)
		}

		err = bp.ledgerMutator.ApplyBlock(dbTx, block)
		if err != nil {
			return err
		}
		return bp.ledgerMutator.SaveBlock(dbTx, block)
	})
}

// validateBlock runs the stateless checks of block. It sets the id of
// block as a side effect.
func (bp *blockProcessor) validateBlock(lastBlock *externalapi.Block, lastBlockIDs []string,
	block *externalapi.Block) error {

	err := bp.blockValidator.ValidateBlock(block, lastBlock)
	if err != nil {
		return err
	}
	err = bp.blockValidator.ValidateSlotWindow(block)
	if err != nil {
		return err
	}
	return bp.blockValidator.VerifyAgainstLastBlockIDs(block, lastBlockIDs)
}

// DeleteLastBlock undoes and deletes lastBlock and returns the new tip
func (bp *blockProcessor) DeleteLastBlock(lastBlock *externalapi.Block) (*externalapi.Block, error) {
	var newLastBlock *externalapi.Block
	err := bp.inTransaction(func(dbTx model.DBTransaction) error {
		var err error
		newLastBlock, err = bp.ledgerMutator.DeleteLastBlock(dbTx, lastBlock)
		return err
	})
	if err != nil {
		return nil, err
	}

	log.Debugf("Deleted block %s, new last block is %s at height %d",
		lastBlock.ID, newLastBlock.ID, newLastBlock.Height)
	return newLastBlock, nil
}

// RestoreBlock applies block, previously removed from the chain, back on
// top of lastBlock
func (bp *blockProcessor) RestoreBlock(lastBlock *externalapi.Block, block *externalapi.Block) error {
	onEnd := logger.LogAndMeasureExecutionTime(log, "RestoreBlock")
	defer onEnd()

	err := bp.blockValidator.ValidateBlock(block, lastBlock)
	if err != nil {
		return err
	}
	err = bp.verifyAndInsertBlock(block, nil)
	if err != nil {
		return err
	}

	log.Infof("Restored block %s at height %d", block.ID, block.Height)
	return nil
}
