package chainstatemanager

import (
	"sync/atomic"

	"github.com/dposnet/dposd/domain/consensus/model"
	"github.com/dposnet/dposd/domain/consensus/model/externalapi"
	"github.com/dposnet/dposd/domain/consensus/notifications"
	"github.com/pkg/errors"
)

// DeleteLastBlock removes the tip. It is meant for a synchronizer rolling
// back to a common block with a peer.
func (csm *chainStateManager) DeleteLastBlock() (*externalapi.Block, error) {
	end, err := csm.begin()
	if err != nil {
		return nil, err
	}
	defer end()
	err = csm.checkLedger()
	if err != nil {
		return nil, err
	}

	tip := csm.currentTip()
	if tip == nil {
		return nil, errors.New("the chain state is not initialized")
	}

	newLastBlock, err := csm.blockProcessor.DeleteLastBlock(tip.block)
	if err != nil {
		return nil, err
	}
	err = csm.setTip(newLastBlock, nil)
	if err != nil {
		return nil, err
	}
	csm.notificationQueue.Enqueue(notifications.DeletedBlockEvent(tip.block))
	return newLastBlock, nil
}

// Rebuild replays the persisted chain and makes its last replayed block
// the tip. An interrupted rebuild blocks every chain change until a later
// Rebuild or the next Init finishes the replay.
func (csm *chainStateManager) Rebuild(options *model.RebuildOptions) (*externalapi.Block, error) {
	end, err := csm.begin()
	if err != nil {
		return nil, err
	}
	defer end()

	lastBlock, err := csm.blockProcessor.Rebuild(options)
	if errors.Is(err, model.ErrRebuildInterrupted) {
		atomic.StoreInt32(&csm.isRebuildPending, 1)
	}
	if err != nil {
		return nil, err
	}
	atomic.StoreInt32(&csm.isRebuildPending, 0)
	err = csm.setTip(lastBlock, nil)
	if err != nil {
		return nil, err
	}
	return lastBlock, nil
}

// RecoverInvalidOwnChain deletes tips until the chain is consistent again
func (csm *chainStateManager) RecoverInvalidOwnChain() (*externalapi.Block, error) {
	end, err := csm.begin()
	if err != nil {
		return nil, err
	}
	defer end()
	err = csm.checkLedger()
	if err != nil {
		return nil, err
	}

	tip := csm.currentTip()
	if tip == nil {
		return nil, errors.New("the chain state is not initialized")
	}

	var tipErr error
	onDelete := func(deleted *externalapi.Block, newLastBlock *externalapi.Block) {
		err := csm.setTip(newLastBlock, nil)
		if err != nil && tipErr == nil {
			tipErr = err
		}
		csm.notificationQueue.Enqueue(notifications.DeletedBlockEvent(deleted))
	}

	lastBlock, err := csm.blockProcessor.RecoverInvalidOwnChain(tip.block, onDelete)
	if err != nil {
		return nil, err
	}
	if tipErr != nil {
		return nil, tipErr
	}
	return lastBlock, nil
}
