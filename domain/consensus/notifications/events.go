package notifications

import (
	"fmt"

	"github.com/dposnet/dposd/domain/consensus/model/externalapi"
)

// EventType identifies the kind of a chain event
type EventType int

// Chain event types
const (
	EventNewBlock EventType = iota
	EventDeletedBlock
	EventNewBroadhash
	EventPriorityChainDetected
	EventFork
)

var eventTypeStrings = map[EventType]string{
	EventNewBlock:              "NewBlock",
	EventDeletedBlock:          "DeletedBlock",
	EventNewBroadhash:          "NewBroadhash",
	EventPriorityChainDetected: "PriorityChainDetected",
	EventFork:                  "Fork",
}

func (t EventType) String() string {
	if s, ok := eventTypeStrings[t]; ok {
		return s
	}
	return fmt.Sprintf("EventType(%d)", int(t))
}

// ForkCause tells why a received block signals a fork
type ForkCause int

// Fork causes
const (
	// ForkCauseDifferentChain is a block that does not extend the tip
	// and belongs to another chain
	ForkCauseDifferentChain ForkCause = 1

	// ForkCauseIneligibleForger is a block forged by a delegate not
	// scheduled for its slot
	ForkCauseIneligibleForger ForkCause = 3

	// ForkCauseDuplicateBlock is a second block competing for the
	// position of the tip
	ForkCauseDuplicateBlock ForkCause = 5
)

// Event is a chain event. Block is set for block events, Broadhash for
// broadhash changes, and ForkCause for forks.
type Event struct {
	Type      EventType
	Block     *externalapi.Block
	Broadhash string
	ForkCause ForkCause
}

func (e *Event) String() string {
	switch e.Type {
	case EventNewBroadhash:
		return fmt.Sprintf("%s %s", e.Type, e.Broadhash)
	case EventFork:
		return fmt.Sprintf("%s (cause %d) at block %s", e.Type, e.ForkCause, e.Block.ID)
	}
	return fmt.Sprintf("%s %s at height %d", e.Type, e.Block.ID, e.Block.Height)
}

// NewBlockEvent returns the event of block becoming the tip
func NewBlockEvent(block *externalapi.Block) *Event {
	return &Event{Type: EventNewBlock, Block: block}
}

// DeletedBlockEvent returns the event of block being removed from the tip
func DeletedBlockEvent(block *externalapi.Block) *Event {
	return &Event{Type: EventDeletedBlock, Block: block}
}

// NewBroadhashEvent returns the event of the broadhash changing
func NewBroadhashEvent(broadhash string) *Event {
	return &Event{Type: EventNewBroadhash, Broadhash: broadhash}
}

// PriorityChainDetectedEvent returns the event of block belonging to a
// chain that should replace the local one
func PriorityChainDetectedEvent(block *externalapi.Block) *Event {
	return &Event{Type: EventPriorityChainDetected, Block: block}
}

// ForkEvent returns the event of block signaling a fork
func ForkEvent(block *externalapi.Block, cause ForkCause) *Event {
	return &Event{Type: EventFork, Block: block, ForkCause: cause}
}
