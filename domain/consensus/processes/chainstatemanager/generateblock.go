package chainstatemanager

import (
	"github.com/dposnet/dposd/domain/consensus/model/externalapi"
	"github.com/dposnet/dposd/domain/consensus/utils/signing"
	"github.com/dposnet/dposd/infrastructure/metrics"
	"github.com/pkg/errors"
)

// GenerateBlock forges a block over the tip with the given candidate
// transactions that pass the block checks, and applies it
func (csm *chainStateManager) GenerateBlock(keyPair *signing.KeyPair, timestamp uint32,
	transactions []*externalapi.Transaction) (*externalapi.Block, error) {

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

	filtered := csm.blockProcessor.FilterTransactions(tip.block, transactions)
	block, err := csm.blockProcessor.ForgeBlock(tip.block, keyPair, timestamp, filtered)
	if err != nil {
		return nil, err
	}

	err = csm.applyValidBlock(tip, block)
	if err != nil {
		return nil, err
	}
	metrics.ForgedBlocks.Inc()
	log.Infof("Forged block %s at height %d with %d transactions (%d candidates)",
		block.ID, block.Height, len(filtered), len(transactions))
	return block, nil
}
