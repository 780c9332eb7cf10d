package chainstatemanager

import (
	"sync/atomic"
	"time"

	"github.com/dposnet/dposd/domain/chainconfig"
	"github.com/dposnet/dposd/domain/consensus/model"
	"github.com/dposnet/dposd/domain/consensus/model/externalapi"
	"github.com/dposnet/dposd/domain/consensus/notifications"
	"github.com/dposnet/dposd/domain/consensus/ruleerrors"
	"github.com/pkg/errors"
)

// blockReceiptTimeout is the number of block times without a new block
// after which the node is considered stale
const blockReceiptTimeout = 2

// tipState is an immutable snapshot of the tip. It is replaced as a whole
// on every tip change.
type tipState struct {
	block *externalapi.Block

	// receivedAt is the receipt time of block if it came from the network.
	// It is not persisted, so it is lost on restart.
	receivedAt *time.Time

	lastBlockIDs []string
	broadhash    string
}

type chainStateManager struct {
	params          *chainconfig.Params
	databaseContext model.DBManager
	clock           model.Clock

	slots          model.SlotOracle
	blockProcessor model.BlockProcessor
	blockValidator model.BlockValidator
	ledgerMutator  model.LedgerMutator
	blockStore     model.BlockStore

	notificationQueue *notifications.Queue
	broadcast         func(block *externalapi.Block)

	isActive         int32
	isRebuildPending int32
	tip              atomic.Value
	lastReceipt      atomic.Value
}

// New instantiates a new ChainStateManager. broadcast, if set, is called
// with every block about to be applied.
func New(params *chainconfig.Params,
	databaseContext model.DBManager,
	clock model.Clock,
	slots model.SlotOracle,
	blockProcessor model.BlockProcessor,
	blockValidator model.BlockValidator,
	ledgerMutator model.LedgerMutator,
	blockStore model.BlockStore,
	notificationQueue *notifications.Queue,
	broadcast func(block *externalapi.Block)) model.ChainStateManager {

	csm := &chainStateManager{
		params:            params,
		databaseContext:   databaseContext,
		clock:             clock,
		slots:             slots,
		blockProcessor:    blockProcessor,
		blockValidator:    blockValidator,
		ledgerMutator:     ledgerMutator,
		blockStore:        blockStore,
		notificationQueue: notificationQueue,
		broadcast:         broadcast,
	}
	csm.lastReceipt.Store(time.Time{})
	return csm
}

// begin moves the state machine to PROCESSING. The returned function moves
// it back to IDLE.
func (csm *chainStateManager) begin() (end func(), err error) {
	if !atomic.CompareAndSwapInt32(&csm.isActive, 0, 1) {
		return nil, errors.Wrapf(ruleerrors.ErrConcurrentProcessingRejected,
			"another block is being processed")
	}
	return func() { atomic.StoreInt32(&csm.isActive, 0) }, nil
}

// checkLedger fails while an interrupted rebuild left the ledger behind
// the persisted blocks
func (csm *chainStateManager) checkLedger() error {
	if atomic.LoadInt32(&csm.isRebuildPending) != 0 {
		return errors.Wrapf(model.ErrRebuildInterrupted, "the ledger is partially rebuilt")
	}
	return nil
}

func (csm *chainStateManager) IsActive() bool {
	return atomic.LoadInt32(&csm.isActive) == 1
}

func (csm *chainStateManager) currentTip() *tipState {
	tip, _ := csm.tip.Load().(*tipState)
	return tip
}

func (csm *chainStateManager) LastBlock() *externalapi.Block {
	tip := csm.currentTip()
	if tip == nil {
		return nil
	}
	return tip.block
}

func (csm *chainStateManager) LastBlockIDs() []string {
	tip := csm.currentTip()
	if tip == nil {
		return nil
	}
	ids := make([]string, len(tip.lastBlockIDs))
	copy(ids, tip.lastBlockIDs)
	return ids
}

func (csm *chainStateManager) Broadhash() string {
	tip := csm.currentTip()
	if tip == nil {
		return csm.params.Nethash()
	}
	return tip.broadhash
}

func (csm *chainStateManager) UpdateLastReceipt() {
	csm.lastReceipt.Store(csm.clock.Now())
}

func (csm *chainStateManager) LastReceipt() time.Time {
	return csm.lastReceipt.Load().(time.Time)
}

// IsStale returns whether no block was applied for a while
func (csm *chainStateManager) IsStale() bool {
	lastReceipt := csm.LastReceipt()
	if lastReceipt.IsZero() {
		return true
	}
	return csm.clock.Now().Sub(lastReceipt) > blockReceiptTimeout*csm.params.BlockTime
}
