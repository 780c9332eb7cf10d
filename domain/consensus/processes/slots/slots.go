package slots

import (
	"time"

	"github.com/dposnet/dposd/domain/chainconfig"
	"github.com/dposnet/dposd/domain/consensus/model"
)

type slotOracle struct {
	epoch           time.Time
	blockTime       uint32
	activeDelegates uint64
	clock           model.Clock
}

// New instantiates a new SlotOracle for the given network, reading the
// current time from clock
func New(params *chainconfig.Params, clock model.Clock) model.SlotOracle {
	return &slotOracle{
		epoch:           params.EpochTime,
		blockTime:       uint32(params.BlockTime / time.Second),
		activeDelegates: params.ActiveDelegates,
		clock:           clock,
	}
}

// EpochTime converts a wall-clock time to seconds since the chain epoch.
// Times before the epoch map to 0.
func (s *slotOracle) EpochTime(t time.Time) uint32 {
	if t.Before(s.epoch) {
		return 0
	}
	return uint32(t.Sub(s.epoch) / time.Second)
}

func (s *slotOracle) CurrentEpochTime() uint32 {
	return s.EpochTime(s.clock.Now())
}

func (s *slotOracle) SlotNumber(timestamp uint32) uint64 {
	return uint64(timestamp / s.blockTime)
}

func (s *slotOracle) CurrentSlot() uint64 {
	return s.SlotNumber(s.CurrentEpochTime())
}

func (s *slotOracle) SlotTime(slot uint64) uint32 {
	return uint32(slot) * s.blockTime
}

// RoundNumber returns the round the given height belongs to. Rounds start
// at 1.
func (s *slotOracle) RoundNumber(height uint64) uint64 {
	return (height + s.activeDelegates - 1) / s.activeDelegates
}

func (s *slotOracle) IsLastBlockOfRound(height uint64) bool {
	return height > 0 && height%s.activeDelegates == 0
}

// IsWithinForgingSlot returns whether receivedAt falls inside slot
func (s *slotOracle) IsWithinForgingSlot(slot uint64, receivedAt time.Time) bool {
	return s.SlotNumber(s.EpochTime(receivedAt)) == slot
}

type systemClock struct{}

func (systemClock) Now() time.Time {
	return time.Now()
}

// SystemClock returns a clock reading the system time
func SystemClock() model.Clock {
	return systemClock{}
}
