package txpool

import (
	"sync"
	"time"

	"github.com/dposnet/dposd/domain/chainconfig"
	"github.com/dposnet/dposd/domain/consensus/model"
	"github.com/dposnet/dposd/domain/consensus/model/externalapi"
	"github.com/dposnet/dposd/infrastructure/metrics"
)

// ChainState is the view of the chain the pool verifies transactions
// against
type ChainState interface {
	GetAccount(address string) (account *externalapi.Account, found bool, err error)
	IsTransactionConfirmed(transactionID string) (bool, error)
	ValidateTransactions(transactions []*externalapi.Transaction) []*model.TransactionResult
	CheckAllowedTransactions(transactions []*externalapi.Transaction) []*model.TransactionResult
	VerifyTransactions(transactions []*externalapi.Transaction) []*model.TransactionResult
	VerifyCoSignature(transaction *externalapi.Transaction, publicKey []byte, signature []byte) error
}

// Counts holds the number of transactions in each queue
type Counts struct {
	Received int
	Verified int
	Ready    int
	Pending  int
}

// Total returns the number of transactions in the pool
func (c Counts) Total() int {
	return c.Received + c.Verified + c.Ready + c.Pending
}

// TxPool holds the transactions that are not in a block yet. A transaction
// is in exactly one queue at a time.
type TxPool struct {
	cfg        *Config
	params     *chainconfig.Params
	chainState ChainState
	slots      model.SlotOracle
	clock      model.Clock

	mtx    sync.Mutex
	queues map[Queue]*transactionQueue
	index  map[string]*poolTransaction

	// relay holds the ids of locally submitted transactions that were not
	// handed out for relay yet
	relay []string

	quit chan struct{}
	wg   sync.WaitGroup
}

// New returns a new, empty TxPool
func New(cfg *Config, params *chainconfig.Params, chainState ChainState, slots model.SlotOracle,
	clock model.Clock) *TxPool {

	queues := make(map[Queue]*transactionQueue, len(allQueues))
	for _, queue := range allQueues {
		queues[queue] = newTransactionQueue()
	}
	return &TxPool{
		cfg:        cfg,
		params:     params,
		chainState: chainState,
		slots:      slots,
		clock:      clock,
		queues:     queues,
		index:      make(map[string]*poolTransaction),
	}
}

// Start starts the fill cycle
func (p *TxPool) Start() {
	p.quit = make(chan struct{})
	p.wg.Add(1)
	spawn("TxPool.fillLoop", p.fillLoop)
}

// Stop stops the fill cycle and waits for it to exit
func (p *TxPool) Stop() {
	close(p.quit)
	p.wg.Wait()
}

func (p *TxPool) fillLoop() {
	defer p.wg.Done()

	ticker := time.NewTicker(p.cfg.FillInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			p.FillPool()
		case <-p.quit:
			return
		}
	}
}

// Has returns whether the transaction is in any queue
func (p *TxPool) Has(transactionID string) bool {
	p.mtx.Lock()
	defer p.mtx.Unlock()

	_, ok := p.index[transactionID]
	return ok
}

// Get returns the transaction with the given id and the queue holding it
func (p *TxPool) Get(transactionID string) (*externalapi.Transaction, Queue, bool) {
	p.mtx.Lock()
	defer p.mtx.Unlock()

	ptx, ok := p.index[transactionID]
	if !ok {
		return nil, 0, false
	}
	return ptx.tx.Clone(), ptx.queue, true
}

// Counts returns the number of transactions in each queue
func (p *TxPool) Counts() Counts {
	p.mtx.Lock()
	defer p.mtx.Unlock()

	return p.counts()
}

func (p *TxPool) counts() Counts {
	return Counts{
		Received: p.queues[QueueReceived].len(),
		Verified: p.queues[QueueVerified].len(),
		Ready:    p.queues[QueueReady].len(),
		Pending:  p.queues[QueuePending].len(),
	}
}

func (p *TxPool) updateMetrics() {
	for _, queue := range allQueues {
		metrics.PoolQueueSize.WithLabelValues(queue.String()).Set(float64(p.queues[queue].len()))
	}
}

// insert adds tx to queue. This function MUST be called with the pool lock
// held.
func (p *TxPool) insert(tx *externalapi.Transaction, queue Queue) error {
	if p.queues[queue].len() >= p.cfg.MaxQueueSize {
		return txRuleErrorf(RejectPoolFull, "the %s queue is full, transaction %s was not queued",
			queue, tx.ID)
	}

	now := p.clock.Now()
	ptx := &poolTransaction{
		tx:         tx,
		queue:      queue,
		receivedAt: now,
	}
	ptx.expiresAt = now.Add(p.lifetime(ptx))
	p.queues[queue].add(ptx)
	p.index[tx.ID] = ptx
	return nil
}

// move moves ptx to queue. This function MUST be called with the pool lock
// held.
func (p *TxPool) move(ptx *poolTransaction, queue Queue) error {
	if p.queues[queue].len() >= p.cfg.MaxQueueSize {
		return txRuleErrorf(RejectPoolFull, "the %s queue is full, transaction %s stays %s",
			queue, ptx.tx.ID, ptx.queue)
	}

	p.queues[ptx.queue].remove(ptx.tx.ID)
	ptx.queue = queue
	ptx.expiresAt = ptx.receivedAt.Add(p.lifetime(ptx))
	p.queues[queue].add(ptx)
	return nil
}

// remove removes the transaction from the pool. This function MUST be
// called with the pool lock held.
func (p *TxPool) remove(transactionID string) bool {
	ptx, ok := p.index[transactionID]
	if !ok {
		return false
	}
	p.queues[ptx.queue].remove(transactionID)
	delete(p.index, transactionID)
	return true
}
