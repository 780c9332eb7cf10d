package txpool

import (
	"github.com/dposnet/dposd/domain/consensus/model"
	"github.com/dposnet/dposd/domain/consensus/model/externalapi"
	"github.com/dposnet/dposd/infrastructure/logger"
)

// FillPool runs one fill cycle: it expires old transactions, then
// promotes a batch of RECEIVED transactions to VERIFIED and a batch of
// VERIFIED transactions to READY, re-verifying each against the current
// tip
func (p *TxPool) FillPool() {
	onEnd := logger.LogAndMeasureExecutionTime(log, "FillPool")
	defer onEnd()

	p.mtx.Lock()
	defer p.mtx.Unlock()

	expired := p.expireTransactions()
	received := p.promoteReceived()
	verified := p.promoteVerified()
	cosigned := p.promoteCosigned()
	p.updateMetrics()

	if expired+received+verified+cosigned > 0 {
		counts := p.counts()
		log.Debugf("Fill cycle expired %d, verified %d, readied %d transactions "+
			"(received %d, verified %d, ready %d, pending %d)",
			expired, received, verified+cosigned,
			counts.Received, counts.Verified, counts.Ready, counts.Pending)
	}
}

// promoteReceived verifies a batch of RECEIVED transactions. This function
// MUST be called with the pool lock held.
func (p *TxPool) promoteReceived() int {
	promoted := 0
	for _, ptx := range p.queues[QueueReceived].first(p.cfg.ReceivedBatchSize) {
		tx := ptx.tx
		err := p.checkTimestamp(tx)
		if err == nil {
			err = p.checkUnconfirmed(tx)
		}
		var queue Queue
		if err == nil {
			queue, err = p.verify(tx)
		}
		if err != nil {
			log.Debugf("Dropping received transaction %s: %s", tx.ID, err)
			p.remove(tx.ID)
			continue
		}

		err = p.move(ptx, queue)
		if err != nil {
			log.Debugf("Stopping the promotion of received transactions: %s", err)
			break
		}
		promoted++
	}
	return promoted
}

// promoteVerified re-verifies a batch of VERIFIED transactions in order on
// top of the tip and readies the ones that still apply. This function MUST
// be called with the pool lock held.
func (p *TxPool) promoteVerified() int {
	batch := p.queues[QueueVerified].first(p.cfg.VerifiedBatchSize)
	if len(batch) == 0 {
		return 0
	}

	var candidates []*poolTransaction
	for _, ptx := range batch {
		err := p.checkUnconfirmed(ptx.tx)
		if err != nil {
			log.Debugf("Dropping verified transaction %s: %s", ptx.tx.ID, err)
			p.remove(ptx.tx.ID)
			continue
		}
		candidates = append(candidates, ptx)
	}

	transactions := make([]*externalapi.Transaction, len(candidates))
	for i, ptx := range candidates {
		transactions[i] = ptx.tx
	}
	allowed := p.chainState.CheckAllowedTransactions(transactions)
	results := p.chainState.VerifyTransactions(transactions)

	promoted := 0
	for i, ptx := range candidates {
		status := results[i].Status
		errs := results[i].Errors
		if allowed[i].Status != model.TransactionStatusOK {
			status = allowed[i].Status
			errs = allowed[i].Errors
		}

		var err error
		switch status {
		case model.TransactionStatusOK:
			err = p.move(ptx, QueueReady)
			if err == nil {
				promoted++
			}
		case model.TransactionStatusPending:
			err = p.move(ptx, QueuePending)
		default:
			log.Debugf("Dropping verified transaction %s: %v", ptx.tx.ID, errs)
			p.remove(ptx.tx.ID)
		}
		if err != nil {
			log.Debugf("Stopping the promotion of verified transactions: %s", err)
			break
		}
	}
	return promoted
}

// promoteCosigned readies the PENDING transactions that gathered their
// co-signatures while READY was full. This function MUST be called with
// the pool lock held.
func (p *TxPool) promoteCosigned() int {
	promoted := 0
	for _, ptx := range p.queues[QueuePending].first(0) {
		if !ptx.signaturesComplete {
			continue
		}
		err := p.move(ptx, QueueReady)
		if err != nil {
			break
		}
		promoted++
	}
	return promoted
}

func (p *TxPool) checkUnconfirmed(tx *externalapi.Transaction) error {
	confirmed, err := p.chainState.IsTransactionConfirmed(tx.ID)
	if err != nil {
		return err
	}
	if confirmed {
		return txRuleErrorf(RejectAlreadyProcessed, "transaction %s is already confirmed", tx.ID)
	}
	return nil
}
