package txpool

import (
	"github.com/dposnet/dposd/domain/consensus/model"
	"github.com/dposnet/dposd/domain/consensus/model/externalapi"
)

// ProcessSignature adds a co-signature to a PENDING transaction. Once the
// transaction has all the co-signatures it needs it leaves PENDING for
// READY.
func (p *TxPool) ProcessSignature(transactionID string, publicKey []byte, signature []byte) error {
	p.mtx.Lock()
	defer p.mtx.Unlock()

	ptx, ok := p.queues[QueuePending].transactions[transactionID]
	if !ok {
		return txRuleErrorf(RejectNotFound, "transaction %s is not waiting for co-signatures", transactionID)
	}

	err := p.chainState.VerifyCoSignature(ptx.tx, publicKey, signature)
	if err != nil {
		return RuleError{Err: err}
	}

	tx := ptx.tx.Clone()
	tx.Signatures = append(tx.Signatures, signature)
	result := p.chainState.VerifyTransactions([]*externalapi.Transaction{tx})[0]
	switch result.Status {
	case model.TransactionStatusPending:
		ptx.tx = tx
		log.Debugf("Added a co-signature to transaction %s", transactionID)
		return nil
	case model.TransactionStatusOK:
		ptx.tx = tx
		ptx.signaturesComplete = true
		err = p.move(ptx, QueueReady)
		if err != nil {
			log.Debugf("Transaction %s is fully co-signed, it stays pending: %s", transactionID, err)
		}
		p.updateMetrics()
		return nil
	}

	p.remove(transactionID)
	p.updateMetrics()
	return invalidTransactionError(transactionID, result.Errors)
}
