package txpool

import (
	"github.com/dposnet/dposd/domain/consensus/model/externalapi"
)

// OnConfirmedBlock removes the transactions of block from every queue
func (p *TxPool) OnConfirmedBlock(block *externalapi.Block) {
	p.mtx.Lock()
	defer p.mtx.Unlock()

	removed := 0
	for _, tx := range block.Transactions {
		if p.remove(tx.ID) {
			removed++
		}
	}
	p.updateMetrics()
	if removed > 0 {
		log.Debugf("Removed %d transactions confirmed by block %s", removed, block.ID)
	}
}

// OnDeletedBlock returns the transactions of a block removed from the tip
// to the VERIFIED queue
func (p *TxPool) OnDeletedBlock(block *externalapi.Block) {
	p.mtx.Lock()
	defer p.mtx.Unlock()

	for _, tx := range block.Transactions {
		if _, ok := p.index[tx.ID]; ok {
			continue
		}
		err := p.insert(tx.Clone(), QueueVerified)
		if err != nil {
			log.Warnf("Dropping transaction %s of deleted block %s: %s", tx.ID, block.ID, err)
		}
	}
	p.updateMetrics()
}
