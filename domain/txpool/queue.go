package txpool

import (
	"time"

	"github.com/dposnet/dposd/domain/consensus/model/externalapi"
)

// Queue identifies one of the pool queues
type Queue int

// Transactions flow from RECEIVED to VERIFIED to READY. PENDING holds the
// transactions waiting for co-signatures.
const (
	QueueReceived Queue = iota
	QueueVerified
	QueueReady
	QueuePending
)

var allQueues = []Queue{QueueReceived, QueueVerified, QueueReady, QueuePending}

var queueStrings = map[Queue]string{
	QueueReceived: "received",
	QueueVerified: "verified",
	QueueReady:    "ready",
	QueuePending:  "pending",
}

func (q Queue) String() string {
	if s, ok := queueStrings[q]; ok {
		return s
	}
	return "unknown"
}

type poolTransaction struct {
	tx         *externalapi.Transaction
	queue      Queue
	receivedAt time.Time
	expiresAt  time.Time

	// signaturesComplete is set on a PENDING transaction once it gathered
	// the co-signatures it needs
	signaturesComplete bool
}

// transactionQueue keeps its transactions in insertion order
type transactionQueue struct {
	order        []string
	transactions map[string]*poolTransaction
}

func newTransactionQueue() *transactionQueue {
	return &transactionQueue{
		transactions: make(map[string]*poolTransaction),
	}
}

func (tq *transactionQueue) len() int {
	return len(tq.transactions)
}

func (tq *transactionQueue) add(ptx *poolTransaction) {
	tq.order = append(tq.order, ptx.tx.ID)
	tq.transactions[ptx.tx.ID] = ptx
}

func (tq *transactionQueue) remove(transactionID string) {
	if _, ok := tq.transactions[transactionID]; !ok {
		return
	}
	delete(tq.transactions, transactionID)
	for i, id := range tq.order {
		if id == transactionID {
			tq.order = append(tq.order[:i], tq.order[i+1:]...)
			break
		}
	}
}

// first returns up to limit transactions in insertion order. A
// non-positive limit returns all of them.
func (tq *transactionQueue) first(limit int) []*poolTransaction {
	count := len(tq.order)
	if limit > 0 && limit < count {
		count = limit
	}
	ptxs := make([]*poolTransaction, 0, count)
	for _, id := range tq.order[:count] {
		ptxs = append(ptxs, tq.transactions[id])
	}
	return ptxs
}
