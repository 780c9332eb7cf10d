package chainstatemanager

import (
	"time"

	"github.com/dposnet/dposd/domain/consensus/model"
	"github.com/dposnet/dposd/domain/consensus/model/externalapi"
	"github.com/dposnet/dposd/domain/consensus/notifications"
	"github.com/dposnet/dposd/domain/consensus/processes/forkchoice"
	"github.com/dposnet/dposd/domain/consensus/ruleerrors"
	"github.com/dposnet/dposd/infrastructure/metrics"
	"github.com/pkg/errors"
)

// ReceiveBlock runs fork choice for a block received from the network and
// acts on its outcome
func (csm *chainStateManager) ReceiveBlock(block *externalapi.Block) (model.ForkChoiceOutcome, error) {
	end, err := csm.begin()
	if err != nil {
		return model.ForkChoiceDiscard, err
	}
	defer end()
	err = csm.checkLedger()
	if err != nil {
		return model.ForkChoiceDiscard, err
	}

	tip := csm.currentTip()
	if tip == nil {
		return model.ForkChoiceDiscard, errors.New("the chain state is not initialized")
	}

	candidate := block.Clone()
	err = csm.validateCandidate(candidate)
	if err != nil {
		metrics.ForkChoiceOutcomes.WithLabelValues(model.ForkChoiceDiscard.String()).Inc()
		log.Debugf("Rejected block at height %d before fork choice: %s", candidate.Height, err)
		return model.ForkChoiceDiscard, err
	}

	outcome := forkchoice.Choose(csm.slots, tip.lastBlockWithReceipt(), candidate)
	metrics.ForkChoiceOutcomes.WithLabelValues(outcome.String()).Inc()
	log.Debugf("Fork choice outcome of block %s at height %d: %s", candidate.ID, candidate.Height, outcome)

	switch outcome {
	case model.ForkChoiceValid:
		err = csm.applyValidBlock(tip, candidate)
	case model.ForkChoiceIdentical:
		log.Debugf("Block %s is already the tip", candidate.ID)
	case model.ForkChoiceDoubleForging:
		log.Warnf("Delegate %x forged blocks %s and %s at height %d",
			candidate.GeneratorPublicKey, tip.block.ID, candidate.ID, candidate.Height)
		csm.notificationQueue.Enqueue(notifications.ForkEvent(candidate, notifications.ForkCauseDuplicateBlock))
	case model.ForkChoiceTieBreak:
		csm.notificationQueue.Enqueue(notifications.ForkEvent(candidate, notifications.ForkCauseDuplicateBlock))
		err = csm.breakTie(tip, candidate)
	case model.ForkChoiceDifferentChain:
		log.Infof("Block %s at height %d belongs to a different chain", candidate.ID, candidate.Height)
		csm.notificationQueue.Enqueue(
			notifications.ForkEvent(candidate, notifications.ForkCauseDifferentChain),
			notifications.PriorityChainDetectedEvent(candidate))
	default:
		log.Debugf("Discarded block %s at height %d", candidate.ID, candidate.Height)
	}
	return outcome, err
}

// validateCandidate runs the checks of candidate that do not depend on the
// tip, so that no fork choice outcome acts on a forged or stale block. The
// id of candidate is recomputed.
func (csm *chainStateManager) validateCandidate(candidate *externalapi.Block) error {
	err := csm.blockValidator.ValidateBlock(candidate, nil)
	if err != nil {
		return err
	}
	return csm.blockValidator.ValidateSlotWindow(candidate)
}

// applyValidBlock processes block on top of tip and makes it the new tip
func (csm *chainStateManager) applyValidBlock(tip *tipState, block *externalapi.Block) error {
	start := time.Now()
	err := csm.blockProcessor.ProcessBlock(tip.block, tip.lastBlockIDs, block, csm.broadcast)
	if err != nil {
		if errors.Is(err, ruleerrors.ErrForgerNotEligible) {
			csm.notificationQueue.Enqueue(notifications.ForkEvent(block, notifications.ForkCauseIneligibleForger))
		}
		return err
	}
	metrics.ObserveSince(metrics.BlockProcessingDuration, start)

	err = csm.setTip(block, block.ReceivedAt)
	if err != nil {
		return err
	}
	csm.UpdateLastReceipt()
	csm.notificationQueue.Enqueue(notifications.NewBlockEvent(csm.LastBlock()))
	return nil
}

// breakTie replaces the tip with candidate. If candidate cannot be
// applied, the removed tip is restored.
func (csm *chainStateManager) breakTie(tip *tipState, candidate *externalapi.Block) error {
	err := csm.checkTieBreakCandidate(tip, candidate.Clone())
	if err != nil {
		return err
	}

	removed := tip.block
	log.Infof("Replacing block %s with block %s at height %d", removed.ID, candidate.ID, candidate.Height)
	newLastBlock, err := csm.blockProcessor.DeleteLastBlock(removed)
	if err != nil {
		return err
	}
	err = csm.setTip(newLastBlock, nil)
	if err != nil {
		return err
	}
	csm.notificationQueue.Enqueue(notifications.DeletedBlockEvent(removed))

	applyErr := csm.applyValidBlock(csm.currentTip(), candidate)
	if applyErr == nil {
		return nil
	}

	log.Warnf("Failed to apply block %s, restoring block %s: %s", candidate.ID, removed.ID, applyErr)
	err = csm.restore(removed, tip.receivedAt)
	if err != nil {
		log.Criticalf("Failed to restore block %s, the tip is now %s at height %d: %s",
			removed.ID, newLastBlock.ID, newLastBlock.Height, err)
		return errors.Wrapf(applyErr, "restoring block %s failed with %s", removed.ID, err)
	}
	return applyErr
}

func (csm *chainStateManager) checkTieBreakCandidate(tip *tipState, candidate *externalapi.Block) error {
	err := csm.blockValidator.ValidateBlock(candidate, tip.block)
	if err != nil {
		return err
	}
	err = csm.blockValidator.ValidateSlotWindow(candidate)
	if err != nil {
		return err
	}
	return csm.blockValidator.VerifyAgainstLastBlockIDs(candidate, tip.lastBlockIDs)
}

func (csm *chainStateManager) restore(block *externalapi.Block, receivedAt *time.Time) error {
	lastBlock := csm.currentTip().block
	err := csm.blockProcessor.RestoreBlock(lastBlock, block.Clone())
	if err != nil {
		return err
	}
	err = csm.setTip(block, receivedAt)
	if err != nil {
		return err
	}
	csm.notificationQueue.Enqueue(notifications.NewBlockEvent(csm.LastBlock()))
	return nil
}
