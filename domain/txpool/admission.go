package txpool

import (
	"github.com/dposnet/dposd/domain/consensus/model"
	"github.com/dposnet/dposd/domain/consensus/model/externalapi"
)

// ProcessUnconfirmedTransaction verifies tx against the tip and queues it
// as VERIFIED, or as PENDING when it waits for co-signatures. broadcast
// marks it for relay.
func (p *TxPool) ProcessUnconfirmedTransaction(tx *externalapi.Transaction, broadcast bool) error {
	p.mtx.Lock()
	defer p.mtx.Unlock()

	err := p.checkNewTransaction(tx)
	if err != nil {
		return err
	}

	queue, err := p.verify(tx)
	if err != nil {
		return err
	}
	err = p.insert(tx, queue)
	if err != nil {
		return err
	}
	if broadcast {
		p.relay = append(p.relay, tx.ID)
	}
	p.updateMetrics()

	log.Debugf("Accepted transaction %s into the %s queue (pool size %d)", tx.ID, queue, len(p.index))
	return nil
}

// AddBundledTransactions queues transactions received from the network as
// RECEIVED. They are verified by the fill cycle. Known transactions are
// skipped. Returns an error once the RECEIVED queue is full.
func (p *TxPool) AddBundledTransactions(transactions []*externalapi.Transaction) error {
	p.mtx.Lock()
	defer p.mtx.Unlock()
	defer p.updateMetrics()

	for _, tx := range transactions {
		if _, ok := p.index[tx.ID]; ok {
			continue
		}
		err := p.insert(tx, QueueReceived)
		if err != nil {
			return err
		}
	}
	return nil
}

// checkNewTransaction rejects transactions the pool already holds, that a
// block already confirmed, or whose slot has not started yet. This
// function MUST be called with the pool lock held.
func (p *TxPool) checkNewTransaction(tx *externalapi.Transaction) error {
	if _, ok := p.index[tx.ID]; ok {
		return txRuleErrorf(RejectAlreadyProcessed, "already have transaction %s", tx.ID)
	}
	confirmed, err := p.chainState.IsTransactionConfirmed(tx.ID)
	if err != nil {
		return err
	}
	if confirmed {
		return txRuleErrorf(RejectAlreadyProcessed, "transaction %s is already confirmed", tx.ID)
	}
	return p.checkTimestamp(tx)
}

func (p *TxPool) checkTimestamp(tx *externalapi.Transaction) error {
	transactionSlot := p.slots.SlotNumber(tx.Timestamp)
	currentSlot := p.slots.CurrentSlot()
	if transactionSlot > currentSlot {
		return txRuleErrorf(RejectFutureTimestamp, "transaction %s is in slot %d, current slot is %d",
			tx.ID, transactionSlot, currentSlot)
	}
	return nil
}

// verify runs the consensus checks of tx against the tip and returns the
// queue it belongs to
func (p *TxPool) verify(tx *externalapi.Transaction) (Queue, error) {
	transactions := []*externalapi.Transaction{tx}
	result := p.chainState.ValidateTransactions(transactions)[0]
	if result.Status != model.TransactionStatusOK {
		return 0, invalidTransactionError(tx.ID, result.Errors)
	}
	result = p.chainState.CheckAllowedTransactions(transactions)[0]
	if result.Status != model.TransactionStatusOK {
		return 0, invalidTransactionError(tx.ID, result.Errors)
	}

	result = p.chainState.VerifyTransactions(transactions)[0]
	switch result.Status {
	case model.TransactionStatusOK:
		return QueueVerified, nil
	case model.TransactionStatusPending:
		return QueuePending, nil
	}
	return 0, invalidTransactionError(tx.ID, result.Errors)
}
