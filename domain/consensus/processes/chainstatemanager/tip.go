package chainstatemanager

import (
	"time"

	"github.com/dposnet/dposd/domain/consensus/model/externalapi"
	"github.com/dposnet/dposd/domain/consensus/notifications"
	"github.com/dposnet/dposd/infrastructure/metrics"
)

// setTip replaces the tip with block, reading the last block ids window
// from the block store. A broadhash change is notified. The tip never
// carries ReceivedAt; receivedAt is kept beside it.
func (csm *chainStateManager) setTip(block *externalapi.Block, receivedAt *time.Time) error {
	if block.ReceivedAt != nil {
		stripped := *block
		stripped.ReceivedAt = nil
		block = &stripped
	}

	windowSize := csm.params.BlockSlotWindow
	if csm.params.BroadhashWindow > windowSize {
		windowSize = csm.params.BroadhashWindow
	}
	ids, err := csm.blockStore.LastBlockIDs(csm.databaseContext, windowSize)
	if err != nil {
		return err
	}

	tip := &tipState{
		block:        block,
		receivedAt:   receivedAt,
		lastBlockIDs: firstIDs(ids, csm.params.BlockSlotWindow),
		broadhash:    broadhash(csm.params, firstIDs(ids, csm.params.BroadhashWindow)),
	}
	previous := csm.currentTip()
	csm.tip.Store(tip)
	metrics.TipHeight.Set(float64(block.Height))

	if previous == nil || previous.broadhash != tip.broadhash {
		log.Debugf("Broadhash changed to %s", tip.broadhash)
		metrics.BroadhashChanges.Inc()
		csm.notificationQueue.Enqueue(notifications.NewBroadhashEvent(tip.broadhash))
	}
	return nil
}

// lastBlockWithReceipt returns a copy of the tip carrying its receipt
// time
func (tip *tipState) lastBlockWithReceipt() *externalapi.Block {
	lastBlock := *tip.block
	lastBlock.ReceivedAt = tip.receivedAt
	return &lastBlock
}

func firstIDs(ids []string, count uint64) []string {
	if uint64(len(ids)) > count {
		ids = ids[:count]
	}
	idsCopy := make([]string, len(ids))
	copy(idsCopy, ids)
	return idsCopy
}
