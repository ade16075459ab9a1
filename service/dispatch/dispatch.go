// Package dispatch is the adapter to the distributed work queue. The queue is
// only a wake-up signal for executors; the durable application store stays the
// system of record. Jobs are keyed by the durable entry id, so redundant
// submissions collapse into one unit of work.
package dispatch

//go:generate mockgen -source=dispatch.go -package=dispatch -destination=dispatch_mock.go

import (
	"errors"
	"time"
)

// ErrNotFound is returned by Get for unknown job ids.
var ErrNotFound = errors.New("dispatch job not found")

// Job is a dispatch descriptor.
type Job struct {
	// ID is the durable entry id, reused as the idempotency key.
	ID string `json:"id"`
	// Priority orders ready jobs; lower value is served first.
	Priority int `json:"priority"`
	// Payload is the denormalized entry payload.
	Payload string `json:"payload"`
	// DelayUntil defers delivery, e.g. for retry backoff. Zero means ready.
	DelayUntil time.Time `json:"delay_until,omitempty"`
}

// Service is the dispatch queue contract.
type Service interface {
	// Submit enqueues the job, deduplicating on job id.
	Submit(job Job) error
	// Remove takes the job out of the queue. Removing an unknown or
	// already-consumed job is not an error.
	Remove(jobID string) error
	// Get returns the stored descriptor, or ErrNotFound.
	Get(jobID string) (Job, error)
	// PromoteDelayed moves jobs whose delay has elapsed onto the ready
	// queue and returns how many were promoted.
	PromoteDelayed(now time.Time) (int, error)
	Close() error
}

// ServiceConfig holds configuration for the dispatch queue.
type ServiceConfig struct {
	KeyPrefix string `env:"JOBSWIPE_DISPATCH_PREFIX" envDefault:"dispatch"`
}
