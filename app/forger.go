package app

import (
	"context"
	"encoding/hex"
	"time"

	"github.com/dposnet/dposd/domain/consensus"
	"github.com/dposnet/dposd/domain/consensus/model/externalapi"
	"github.com/dposnet/dposd/domain/consensus/ruleerrors"
	"github.com/dposnet/dposd/domain/consensus/utils/signing"
	"github.com/dposnet/dposd/domain/txpool"
	"github.com/pkg/errors"
)

// forger generates a block whenever one of its delegates owns the current
// slot
type forger struct {
	consensus consensus.Consensus
	txPool    *txpool.TxPool
	interval  time.Duration

	// keyPairs is keyed by the hex encoded public key
	keyPairs map[string]*signing.KeyPair
}

func newForger(consensus consensus.Consensus, txPool *txpool.TxPool, secrets []string,
	interval time.Duration) *forger {

	keyPairs := make(map[string]*signing.KeyPair, len(secrets))
	for _, secret := range secrets {
		keyPair := signing.KeyPairFromSecret(secret)
		keyPairs[keyPair.PublicKeyHex()] = keyPair
	}
	return &forger{
		consensus: consensus,
		txPool:    txPool,
		interval:  interval,
		keyPairs:  keyPairs,
	}
}

func (f *forger) run(ctx context.Context) error {
	if len(f.keyPairs) == 0 {
		log.Infof("No forging secrets configured. Forging is disabled")
		return nil
	}
	log.Infof("Forging for %d delegates every %s", len(f.keyPairs), f.interval)

	ticker := time.NewTicker(f.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			_, err := f.tryForge()
			if err != nil {
				return err
			}
		}
	}
}

// tryForge forges a block in the current slot if one of the configured
// delegates owns it. It returns nil when there was nothing to forge.
func (f *forger) tryForge() (*externalapi.Block, error) {
	slots := f.consensus.Slots()
	currentSlot := slots.CurrentSlot()

	lastBlock := f.consensus.LastBlock()
	if slots.SlotNumber(lastBlock.Timestamp) >= currentSlot {
		return nil, nil
	}
	if f.consensus.IsActive() {
		log.Debugf("Skipping slot %d: the chain is busy", currentSlot)
		return nil, nil
	}

	publicKey, err := f.consensus.ForgerForSlot(currentSlot)
	if err != nil {
		return nil, err
	}
	keyPair, ok := f.keyPairs[hex.EncodeToString(publicKey)]
	if !ok {
		return nil, nil
	}

	transactions := f.txPool.GetMergedTransactionList(f.consensus.Params().MaxTransactionsPerBlock)
	block, err := f.consensus.GenerateBlock(keyPair, slots.SlotTime(currentSlot), transactions)
	if err != nil {
		if errors.Is(err, ruleerrors.ErrConcurrentProcessingRejected) {
			log.Debugf("Skipping slot %d: %s", currentSlot, err)
			return nil, nil
		}
		if ruleerrors.IsRuleError(err) {
			log.Warnf("Failed forging a block in slot %d: %s", currentSlot, err)
			return nil, nil
		}
		return nil, err
	}

	log.Infof("Forged block %s at height %d in slot %d with %d transactions",
		block.ID, block.Height, currentSlot, len(block.Transactions))
	return block, nil
}
