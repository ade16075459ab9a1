package orchestrator

import "errors"

// Errors returned to callers racing over entry state. Handlers map these to
// HTTP conflict and gone responses.
var (
	ErrAlreadyClaimed  = errors.New("entry already claimed by another executor")
	ErrTerminal        = errors.New("entry is in a terminal state")
	ErrNotClaimable    = errors.New("entry is not in a claimable state")
	ErrNotClaimedByYou = errors.New("entry is claimed by another executor")
	ErrNotSuspended    = errors.New("entry is not suspended")
)

var (
	errEmptyID        = errors.New("entry and executor id required")
	errUnknownOutcome = errors.New("unknown result outcome")
)

// Error types recorded on entries for failures the orchestrator itself
// detects, as opposed to types reported by executors.
const (
	ErrorTypeQueue   = "QUEUE_ERROR"
	ErrorTypeStalled = "EXECUTOR_TIMEOUT"
)

// ValidationError marks a request rejected before any state change.
type ValidationError struct {
	Err error
}

func (e ValidationError) Error() string {
	return "invalid request: " + e.Err.Error()
}

// IsValidation reports whether err is a request validation failure.
func IsValidation(err error) bool {
	_, ok := err.(ValidationError)
	return ok
}
