package blockvalidator

import (
	"github.com/dposnet/dposd/domain/consensus/model/externalapi"
	"github.com/dposnet/dposd/domain/consensus/ruleerrors"
	"github.com/pkg/errors"
)

// checkBlockSlot checks that block belongs to a slot after the one of
// lastBlock and not after the current one
func (v *blockValidator) checkBlockSlot(block *externalapi.Block, lastBlock *externalapi.Block) error {
	blockSlot := v.slots.SlotNumber(block.Timestamp)
	if lastBlock != nil {
		lastBlockSlot := v.slots.SlotNumber(lastBlock.Timestamp)
		if blockSlot <= lastBlockSlot {
			return errors.Wrapf(ruleerrors.ErrInvalidBlockSlot, "block %s is in slot %d, not after slot %d "+
				"of block %s", block.ID, blockSlot, lastBlockSlot, lastBlock.ID)
		}
	}

	currentSlot := v.slots.CurrentSlot()
	if blockSlot > currentSlot {
		return errors.Wrapf(ruleerrors.ErrInvalidBlockSlot, "block %s is in slot %d, current slot is %d",
			block.ID, blockSlot, currentSlot)
	}
	return nil
}

// ValidateSlotWindow checks that block is neither older than the slot
// window nor in the future
func (v *blockValidator) ValidateSlotWindow(block *externalapi.Block) error {
	blockSlot := v.slots.SlotNumber(block.Timestamp)
	currentSlot := v.slots.CurrentSlot()

	if blockSlot > currentSlot {
		return errors.Wrapf(ruleerrors.ErrBlockSlotInFuture, "block %s is in slot %d, current slot is %d",
			block.ID, blockSlot, currentSlot)
	}
	if currentSlot-blockSlot > v.params.BlockSlotWindow {
		return errors.Wrapf(ruleerrors.ErrBlockSlotTooOld, "block %s is in slot %d, %d slots behind the current one",
			block.ID, blockSlot, currentSlot-blockSlot)
	}
	return nil
}

// VerifyAgainstLastBlockIDs rejects blocks that are among the last applied
// ones
func (v *blockValidator) VerifyAgainstLastBlockIDs(block *externalapi.Block, lastBlockIDs []string) error {
	for _, id := range lastBlockIDs {
		if id == block.ID {
			return errors.Wrapf(ruleerrors.ErrBlockAlreadyInChain, "block %s is already in the chain", block.ID)
		}
	}
	return nil
}
