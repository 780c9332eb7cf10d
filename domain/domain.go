package domain

import (
	"github.com/dposnet/dposd/domain/consensus"
	"github.com/dposnet/dposd/domain/consensus/notifications"
	"github.com/dposnet/dposd/domain/consensus/processes/slots"
	"github.com/dposnet/dposd/domain/txpool"
	infrastructuredatabase "github.com/dposnet/dposd/infrastructure/db/database"
)

// Domain provides a reference to the domain's external aps
type Domain interface {
	Consensus() consensus.Consensus
	TxPool() *txpool.TxPool
	Dispatcher() *notifications.Dispatcher

	// Start starts delivering chain events and the pool fill cycle
	Start()
	Stop()
}

type domain struct {
	consensus  consensus.Consensus
	txPool     *txpool.TxPool
	dispatcher *notifications.Dispatcher
}

func (d *domain) Consensus() consensus.Consensus {
	return d.consensus
}

func (d *domain) TxPool() *txpool.TxPool {
	return d.txPool
}

func (d *domain) Dispatcher() *notifications.Dispatcher {
	return d.dispatcher
}

func (d *domain) Start() {
	d.dispatcher.Start()
	d.txPool.Start()
}

func (d *domain) Stop() {
	d.txPool.Stop()
	d.dispatcher.Stop()
}

// New instantiates a new instance of a Domain object. The pool follows
// the chain through the consensus events.
func New(consensusConfig *consensus.Config, poolConfig *txpool.Config,
	db infrastructuredatabase.Database) (Domain, error) {

	consensusFactory := consensus.NewFactory()
	consensusInstance, err := consensusFactory.NewConsensus(consensusConfig, db)
	if err != nil {
		return nil, err
	}

	clock := consensusConfig.Clock
	if clock == nil {
		clock = slots.SystemClock()
	}
	txPool := txpool.New(poolConfig, consensusInstance.Params(), consensusInstance, consensusInstance.Slots(), clock)

	dispatcher := notifications.NewDispatcher(consensusInstance.NotificationQueue())
	dispatcher.Subscribe(func(event *notifications.Event) {
		txPool.OnConfirmedBlock(event.Block)
	}, notifications.EventNewBlock)
	dispatcher.Subscribe(func(event *notifications.Event) {
		txPool.OnDeletedBlock(event.Block)
	}, notifications.EventDeletedBlock)

	return &domain{
		consensus:  consensusInstance,
		txPool:     txPool,
		dispatcher: dispatcher,
	}, nil
}
