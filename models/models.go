package models

import (
	"errors"

	"github.com/jinzhu/gorm"
	uuid "github.com/satori/go.uuid"
)

const (
	// StatusPending is the transient state an entry holds before it is
	// promoted to one of the queued states.
	StatusPending = "PENDING"
	// StatusQueued is waiting for a server executor to claim.
	StatusQueued = "QUEUED"
	// StatusQueuedForDesktop is waiting for the user's desktop client to claim.
	StatusQueuedForDesktop = "QUEUED_FOR_DESKTOP"
	// StatusProcessing is claimed and actively executing.
	StatusProcessing = "PROCESSING"
	// StatusRetrying is waiting for the next retry attempt to become due.
	StatusRetrying = "RETRYING"
	// StatusPaused is suspended pending an external signal, e.g. rate-limit backoff.
	StatusPaused = "PAUSED"
	// StatusRequiresCaptcha is suspended pending a human captcha solve.
	StatusRequiresCaptcha = "REQUIRES_CAPTCHA"
	// StatusCompleted is the successful terminal state.
	StatusCompleted = "COMPLETED"
	// StatusFailed is the unsuccessful terminal state.
	StatusFailed = "FAILED"
	// StatusCancelled is the user-cancelled terminal state.
	StatusCancelled = "CANCELLED"

	// ModeServer is server-side automated execution.
	ModeServer = "SERVER"
	// ModeDesktop is execution by the user's desktop client.
	ModeDesktop = "DESKTOP"

	// PriorityServer is the dispatch priority for server-mode entries.
	// Lower value is served first.
	PriorityServer = 3
	// PriorityDesktop is the dispatch priority for desktop-mode entries.
	PriorityDesktop = 7

	// DefaultMaxAttempts is the retry budget for new entries.
	DefaultMaxAttempts = 3
)

// ErrStaleState is returned when a conditional update matched no row,
// meaning another writer got there first. Callers must re-read.
var ErrStaleState = errors.New("stale state")

var statuses = struct {
	terminal  []string
	claimable []string
	suspended []string
}{
	terminal:  []string{StatusCompleted, StatusFailed, StatusCancelled},
	claimable: []string{StatusQueued, StatusQueuedForDesktop, StatusRetrying},
	suspended: []string{StatusPaused, StatusRequiresCaptcha},
}

// NonTerminalStatuses are the states in which an entry still blocks
// re-enqueue of the same (user, job) pair.
func NonTerminalStatuses() []string {
	return []string{
		StatusPending, StatusQueued, StatusQueuedForDesktop,
		StatusProcessing, StatusRetrying, StatusPaused, StatusRequiresCaptcha,
	}
}

// ClaimableStatuses are the states an executor may claim from.
func ClaimableStatuses() []string {
	return statuses.claimable
}

// SuspendedStatuses are the states an executor may resume from.
func SuspendedStatuses() []string {
	return statuses.suspended
}

// IsTerminal returns whether the status permits no further transitions.
func IsTerminal(status string) bool {
	return inSlice(statuses.terminal, status)
}

// CanTransition returns if the status can move to the next stage.
// Terminal entries are immutable.
func CanTransition(current string, next string) bool {
	switch current {
	case StatusPending:
		return inSlice([]string{StatusQueued, StatusQueuedForDesktop, StatusCancelled}, next)
	case StatusQueued, StatusQueuedForDesktop:
		return inSlice([]string{StatusProcessing, StatusCancelled}, next)
	case StatusProcessing:
		// Back to QUEUED is a claim release, e.g. when no proxy was free.
		return inSlice([]string{StatusCompleted, StatusFailed, StatusRetrying, StatusRequiresCaptcha, StatusPaused, StatusCancelled, StatusQueued}, next)
	case StatusRetrying:
		return inSlice([]string{StatusProcessing, StatusQueued, StatusQueuedForDesktop, StatusFailed, StatusCancelled}, next)
	case StatusPaused, StatusRequiresCaptcha:
		return inSlice([]string{StatusProcessing, StatusRetrying, StatusFailed, StatusCancelled}, next)
	default:
		return false
	}
}

func inSlice(slice []string, val string) bool {
	for _, v := range slice {
		if val == v {
			return true
		}
	}
	return false
}

// uuidHook hooks new uuid as primary key for models before creation.
type uuidHook struct{}

func (u uuidHook) BeforeCreate(scope *gorm.Scope) error {
	if !scope.PrimaryKeyZero() {
		return nil
	}
	return scope.SetColumn("id", uuid.NewV4().String())
}
