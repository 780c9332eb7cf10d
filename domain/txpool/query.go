package txpool

import (
	"github.com/dposnet/dposd/domain/consensus/model/externalapi"
)

// GetMergedTransactionList returns READY transactions first, then fully
// co-signed PENDING ones, then VERIFIED ones. At most limit transactions
// are returned, and never more than the configured maximum per query. A
// non-positive limit asks for the maximum.
func (p *TxPool) GetMergedTransactionList(limit int) []*externalapi.Transaction {
	p.mtx.Lock()
	defer p.mtx.Unlock()

	if limit <= 0 || limit > p.cfg.MaxTransactionsPerQuery {
		limit = p.cfg.MaxTransactionsPerQuery
	}

	transactions := make([]*externalapi.Transaction, 0, limit)
	add := func(ptxs []*poolTransaction, filter func(*poolTransaction) bool) {
		for _, ptx := range ptxs {
			if len(transactions) == limit {
				return
			}
			if filter != nil && !filter(ptx) {
				continue
			}
			transactions = append(transactions, ptx.tx.Clone())
		}
	}
	add(p.queues[QueueReady].first(limit), nil)
	add(p.queues[QueuePending].first(0), func(ptx *poolTransaction) bool { return ptx.signaturesComplete })
	add(p.queues[QueueVerified].first(limit), nil)
	return transactions
}

// TransactionsToRelay returns the locally submitted transactions that were
// not handed out for relay yet, up to the configured maximum. Each
// transaction is handed out once.
func (p *TxPool) TransactionsToRelay() []*externalapi.Transaction {
	p.mtx.Lock()
	defer p.mtx.Unlock()

	var transactions []*externalapi.Transaction
	remaining := p.relay[:0]
	for _, id := range p.relay {
		ptx, ok := p.index[id]
		if !ok {
			continue
		}
		if len(transactions) == p.cfg.MaxTransactionsToRelay {
			remaining = append(remaining, id)
			continue
		}
		transactions = append(transactions, ptx.tx.Clone())
	}
	p.relay = remaining
	return transactions
}
