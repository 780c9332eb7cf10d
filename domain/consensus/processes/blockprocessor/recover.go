package blockprocessor

import (
	"github.com/dposnet/dposd/domain/consensus/model/externalapi"
	"github.com/dposnet/dposd/domain/consensus/ruleerrors"
	"github.com/dposnet/dposd/infrastructure/logger"
	"github.com/pkg/errors"
)

// RecoverInvalidOwnChain deletes tips until the block removed last
// validates and verifies on top of the remaining chain. onDelete, if set, is
// called after every deletion. It returns the recovered tip.
func (bp *blockProcessor) RecoverInvalidOwnChain(lastBlock *externalapi.Block,
	onDelete func(deleted *externalapi.Block, newLastBlock *externalapi.Block)) (*externalapi.Block, error) {

	onEnd := logger.LogAndMeasureExecutionTime(log, "RecoverInvalidOwnChain")
	defer onEnd()

	for {
		if lastBlock.IsGenesis() {
			return nil, errors.Wrapf(ruleerrors.ErrCannotDeleteGenesis,
				"cannot recover the chain past the genesis block %s", lastBlock.ID)
		}

		deleted := lastBlock
		newLastBlock, err := bp.DeleteLastBlock(deleted)
		if err != nil {
			return nil, err
		}
		if onDelete != nil {
			onDelete(deleted, newLastBlock)
		}
		lastBlock = newLastBlock

		err = bp.checkBlockOnTip(deleted, newLastBlock)
		if err == nil {
			log.Infof("Recovered own chain at block %s at height %d", newLastBlock.ID, newLastBlock.Height)
			return newLastBlock, nil
		}
		if !ruleerrors.IsRuleError(err) {
			return nil, err
		}
		log.Warnf("Block %s does not verify on top of block %s: %s", deleted.ID, newLastBlock.ID, err)
	}
}

// checkBlockOnTip checks whether block could be applied on top of
// lastBlock and the current ledger
func (bp *blockProcessor) checkBlockOnTip(block *externalapi.Block, lastBlock *externalapi.Block) error {
	candidate := block.Clone()
	err := bp.blockValidator.ValidateBlock(candidate, lastBlock)
	if err != nil {
		return err
	}
	return bp.blockVerifier.VerifyBlock(bp.databaseContext, candidate)
}
