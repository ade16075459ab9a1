// Package events is the internal hook the orchestrator calls after each
// committed state transition. Delivery to the notification channel is
// fire-and-forget: a slow or failing notifier never blocks a transition.
package events

import (
	"time"

	log "github.com/sirupsen/logrus"
)

const (
	// ApplicationQueued is emitted after a successful enqueue.
	ApplicationQueued = "application-queued"
	// ApplicationQueuedDesktop is additionally emitted when the entry is
	// routed to the user's desktop client.
	ApplicationQueuedDesktop = "application-queued-desktop"
	// ApplicationProcessing is emitted when an executor claims or resumes.
	ApplicationProcessing = "application-processing"
	// ApplicationCompleted is emitted on the successful terminal state.
	ApplicationCompleted = "application-completed"
	// ApplicationFailed is emitted on the failed terminal state.
	ApplicationFailed = "application-failed"
	// ApplicationCancelled is emitted on user cancellation.
	ApplicationCancelled = "application-cancelled"
)

// Event is one status notification.
type Event struct {
	EntryID   string
	UserID    string
	EventName string
	CreatedAt time.Time
	Metadata  map[string]interface{}
}

// EventService queues events for asynchronous delivery.
type EventService interface {
	EnqueueEvent(Event)
	DrainEvents()
	Close()
}

// Notifier is the external notification channel.
type Notifier interface {
	Notify(Event) error
}

type eventService struct {
	c        chan Event
	notifier Notifier
}

// NewEventService creates an event service buffering up to depth events.
// Call DrainEvents in a goroutine to start delivery.
func NewEventService(notifier Notifier, depth int) EventService {
	return &eventService{
		c:        make(chan Event, depth),
		notifier: notifier,
	}
}

func (s *eventService) EnqueueEvent(event Event) {
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}
	select {
	case s.c <- event:
	default:
		// The buffer is full. Events are advisory, the durable store
		// has the truth, so drop rather than block a transition.
		log.WithFields(log.Fields{
			"event": event.EventName,
			"entry": event.EntryID,
		}).Warn("event buffer full, dropping event")
	}
}

func (s *eventService) DrainEvents() {
	for event := range s.c {
		if err := s.notifier.Notify(event); err != nil {
			log.WithFields(log.Fields{
				"event": event.EventName,
				"entry": event.EntryID,
			}).Errorf("notifier error: %s", err)
		}
	}
}

func (s *eventService) Close() {
	close(s.c)
}

// LogNotifier writes events to the application log. It is the development
// fallback when no external channel is configured.
type LogNotifier struct{}

func (LogNotifier) Notify(event Event) error {
	log.WithFields(log.Fields{
		"event": event.EventName,
		"entry": event.EntryID,
		"user":  event.UserID,
	}).Info("application event")
	return nil
}
