package forkchoice

import (
	"bytes"

	"github.com/dposnet/dposd/domain/consensus/model"
	"github.com/dposnet/dposd/domain/consensus/model/externalapi"
)

// Choose decides how candidate relates to lastBlock. The rules are
// evaluated in order and the first match wins.
func Choose(slots model.SlotOracle, lastBlock *externalapi.Block, candidate *externalapi.Block) model.ForkChoiceOutcome {
	switch {
	case IsValidBlock(lastBlock, candidate):
		return model.ForkChoiceValid
	case IsIdenticalBlock(lastBlock, candidate):
		return model.ForkChoiceIdentical
	case IsDoubleForging(lastBlock, candidate):
		return model.ForkChoiceDoubleForging
	case IsTieBreak(slots, lastBlock, candidate):
		return model.ForkChoiceTieBreak
	case IsDifferentChain(lastBlock, candidate):
		return model.ForkChoiceDifferentChain
	}
	return model.ForkChoiceDiscard
}

// IsValidBlock returns whether candidate directly extends lastBlock
func IsValidBlock(lastBlock *externalapi.Block, candidate *externalapi.Block) bool {
	return candidate.Height == lastBlock.Height+1 && candidate.PreviousBlockID == lastBlock.ID
}

// IsIdenticalBlock returns whether candidate is lastBlock
func IsIdenticalBlock(lastBlock *externalapi.Block, candidate *externalapi.Block) bool {
	return candidate.ID == lastBlock.ID
}

// IsDuplicateBlock returns whether candidate competes with lastBlock for the
// same position in the chain
func IsDuplicateBlock(lastBlock *externalapi.Block, candidate *externalapi.Block) bool {
	return candidate.Height == lastBlock.Height &&
		candidate.PreviousBlockID == lastBlock.PreviousBlockID &&
		candidate.PrevotedConfirmedUptoHeight == lastBlock.PrevotedConfirmedUptoHeight
}

// IsDoubleForging returns whether the generator of lastBlock forged a second
// block for the same position
func IsDoubleForging(lastBlock *externalapi.Block, candidate *externalapi.Block) bool {
	return IsDuplicateBlock(lastBlock, candidate) &&
		bytes.Equal(candidate.GeneratorPublicKey, lastBlock.GeneratorPublicKey)
}

// IsTieBreak returns whether candidate, forged by a different delegate for
// the same position, should replace lastBlock: it was received in its
// forging slot, lastBlock was not, and it belongs to a later slot.
func IsTieBreak(slots model.SlotOracle, lastBlock *externalapi.Block, candidate *externalapi.Block) bool {
	if !IsDuplicateBlock(lastBlock, candidate) ||
		bytes.Equal(candidate.GeneratorPublicKey, lastBlock.GeneratorPublicKey) {
		return false
	}

	lastBlockSlot := slots.SlotNumber(lastBlock.Timestamp)
	candidateSlot := slots.SlotNumber(candidate.Timestamp)
	return !isReceivedWithinForgingSlot(slots, lastBlock, lastBlockSlot) &&
		isReceivedWithinForgingSlot(slots, candidate, candidateSlot) &&
		lastBlockSlot < candidateSlot
}

// IsDifferentChain returns whether candidate belongs to a chain with more
// finalized blocks, or as many and a greater height
func IsDifferentChain(lastBlock *externalapi.Block, candidate *externalapi.Block) bool {
	if candidate.PrevotedConfirmedUptoHeight > lastBlock.PrevotedConfirmedUptoHeight {
		return true
	}
	return candidate.PrevotedConfirmedUptoHeight == lastBlock.PrevotedConfirmedUptoHeight &&
		candidate.Height > lastBlock.Height
}

// Blocks without a receipt time were forged or replayed locally and count
// as received in time.
func isReceivedWithinForgingSlot(slots model.SlotOracle, block *externalapi.Block, slot uint64) bool {
	if block.ReceivedAt == nil {
		return true
	}
	return slots.IsWithinForgingSlot(slot, *block.ReceivedAt)
}
