package txpool

import (
	"time"

	"github.com/dposnet/dposd/domain/consensus/model/externalapi"
)

// lifetime returns how long ptx may stay in the pool. Multisignature
// registrations live for the lifetime they declare, and transactions
// waiting for the co-signatures of a multisignature account for the
// lifetime of the account.
func (p *TxPool) lifetime(ptx *poolTransaction) time.Duration {
	tx := ptx.tx
	if tx.Type == externalapi.TransactionTypeMultisignature && tx.Asset.Multisignature != nil {
		return time.Duration(tx.Asset.Multisignature.Lifetime) * time.Hour
	}
	if ptx.queue == QueuePending {
		sender, found, err := p.chainState.GetAccount(tx.SenderID)
		if err != nil {
			log.Warnf("Could not read the sender of transaction %s: %s", tx.ID, err)
		} else if found && sender.IsMultisignature() {
			return time.Duration(sender.MultisigLifetime) * time.Hour
		}
	}
	return p.params.UnconfirmedTransactionTimeout
}

// expireTransactions removes the transactions that outlived their
// lifetime. This function MUST be called with the pool lock held.
func (p *TxPool) expireTransactions() int {
	now := p.clock.Now()
	var expired []string
	for id, ptx := range p.index {
		if now.After(ptx.expiresAt) {
			expired = append(expired, id)
		}
	}
	for _, id := range expired {
		log.Debugf("Transaction %s expired", id)
		p.remove(id)
	}
	return len(expired)
}
