package notifications

import (
	"testing"
	"time"

	"github.com/dposnet/dposd/domain/consensus/model/externalapi"
)

func TestQueueOrder(t *testing.T) {
	queue := NewQueue()
	first := &externalapi.Block{ID: "1", Height: 1}
	second := &externalapi.Block{ID: "2", Height: 2}

	queue.Enqueue(NewBlockEvent(first), NewBroadhashEvent("abc"))
	queue.Enqueue(DeletedBlockEvent(second))
	if queue.Len() != 3 {
		t.Fatalf("TestQueueOrder: expected 3 queued events, got %d", queue.Len())
	}

	events := queue.Drain()
	expectedTypes := []EventType{EventNewBlock, EventNewBroadhash, EventDeletedBlock}
	for i, event := range events {
		if event.Type != expectedTypes[i] {
			t.Fatalf("TestQueueOrder: event %d: expected %s, got %s", i, expectedTypes[i], event.Type)
		}
	}
	if queue.Len() != 0 {
		t.Fatalf("TestQueueOrder: expected the queue to be empty after Drain")
	}
}

func TestDispatchPending(t *testing.T) {
	queue := NewQueue()
	dispatcher := NewDispatcher(queue)

	var delivered []*Event
	dispatcher.Subscribe(func(event *Event) {
		delivered = append(delivered, event)
	}, EventNewBlock, EventFork)

	block := &externalapi.Block{ID: "1", Height: 1}
	queue.Enqueue(NewBlockEvent(block), NewBroadhashEvent("abc"), ForkEvent(block, ForkCauseIneligibleForger))

	if count := dispatcher.DispatchPending(); count != 3 {
		t.Fatalf("TestDispatchPending: expected 3 dispatched events, got %d", count)
	}
	if len(delivered) != 2 {
		t.Fatalf("TestDispatchPending: expected 2 delivered events, got %d", len(delivered))
	}
	if delivered[1].Type != EventFork || delivered[1].ForkCause != ForkCauseIneligibleForger {
		t.Fatalf("TestDispatchPending: unexpected second event %s", delivered[1])
	}

	// Events are delivered at most once
	if count := dispatcher.DispatchPending(); count != 0 {
		t.Fatalf("TestDispatchPending: expected nothing left to dispatch, got %d", count)
	}
}

func TestDispatcherLoop(t *testing.T) {
	queue := NewQueue()
	dispatcher := NewDispatcher(queue)

	received := make(chan *Event, 10)
	dispatcher.Subscribe(func(event *Event) {
		received <- event
	}, EventPriorityChainDetected)
	dispatcher.Start()

	block := &externalapi.Block{ID: "1", Height: 1}
	queue.Enqueue(PriorityChainDetectedEvent(block))

	select {
	case event := <-received:
		if event.Block.ID != block.ID {
			t.Fatalf("TestDispatcherLoop: unexpected event %s", event)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("TestDispatcherLoop: timed out waiting for the event")
	}

	queue.Enqueue(PriorityChainDetectedEvent(block))
	dispatcher.Stop()
	if len(received) != 1 {
		t.Fatalf("TestDispatcherLoop: expected events queued before Stop to be delivered")
	}
}
