package events

import (
	"sync"
	"testing"
	"time"

	"github.com/fortytw2/leaktest"
)

type collectingNotifier struct {
	sync.Mutex
	received []Event
}

func (n *collectingNotifier) Notify(event Event) error {
	n.Lock()
	defer n.Unlock()
	n.received = append(n.received, event)
	return nil
}

func (n *collectingNotifier) count() int {
	n.Lock()
	defer n.Unlock()
	return len(n.received)
}

func TestEventDelivery(t *testing.T) {
	defer leaktest.Check(t)()

	notifier := &collectingNotifier{}
	s := NewEventService(notifier, 10)

	done := make(chan struct{})
	go func() {
		s.DrainEvents()
		close(done)
	}()

	s.EnqueueEvent(Event{EntryID: "entry-1", EventName: ApplicationQueued})
	s.EnqueueEvent(Event{EntryID: "entry-1", EventName: ApplicationCompleted})
	s.Close()
	<-done

	if got := notifier.count(); got != 2 {
		t.Errorf("delivered = %d, want 2", got)
	}
}

func TestEnqueueSetsCreatedAt(t *testing.T) {
	defer leaktest.Check(t)()

	notifier := &collectingNotifier{}
	s := NewEventService(notifier, 1)

	s.EnqueueEvent(Event{EntryID: "entry-1", EventName: ApplicationQueued})

	done := make(chan struct{})
	go func() {
		s.DrainEvents()
		close(done)
	}()
	s.Close()
	<-done

	notifier.Lock()
	defer notifier.Unlock()
	if len(notifier.received) != 1 {
		t.Fatalf("delivered = %d, want 1", len(notifier.received))
	}
	if notifier.received[0].CreatedAt.IsZero() {
		t.Error("created_at not stamped")
	}
}

func TestEnqueueNeverBlocks(t *testing.T) {
	defer leaktest.Check(t)()

	// No drain goroutine and a full buffer: enqueue must drop, not block.
	s := NewEventService(&collectingNotifier{}, 1)
	defer s.Close()

	finished := make(chan struct{})
	go func() {
		for i := 0; i < 10; i++ {
			s.EnqueueEvent(Event{EntryID: "entry-1", EventName: ApplicationQueued})
		}
		close(finished)
	}()

	select {
	case <-finished:
	case <-time.After(time.Second):
		t.Fatal("enqueue blocked on a full buffer")
	}
}
