package orchestrator

import (
	"time"

	"github.com/jobswipe/platform/models"
)

// Health statuses, worst first.
const (
	HealthHealthy   = "healthy"
	HealthDegraded  = "degraded"
	HealthUnhealthy = "unhealthy"
)

// Stats is an aggregate snapshot of the queue.
type Stats struct {
	Total          int64           `json:"total"`
	ByStatus       map[string]int  `json:"by_status"`
	OldestQueuedAt *time.Time      `json:"oldest_queued_at,omitempty"`
	Throughput     ThroughputRates `json:"throughput"`
}

// ThroughputRates are process-local completion rates, events per second.
type ThroughputRates struct {
	Completed1m float64 `json:"completed_1m"`
	Failed1m    float64 `json:"failed_1m"`
}

// Health is the queue health verdict with the issues that produced it.
type Health struct {
	Status      string   `json:"status"`
	Issues      []string `json:"issues,omitempty"`
	FailureRate float64  `json:"failure_rate"`
	Window      int      `json:"window"`
}

// Stats aggregates entry counts by status.
func (o *Orchestrator) Stats() (Stats, error) {
	counts, err := o.repo.GroupCountByStatus()
	if err != nil {
		return Stats{}, err
	}

	var total int64
	for _, n := range counts {
		total += int64(n)
	}

	oldest, err := o.repo.OldestQueuedAt()
	if err != nil {
		return Stats{}, err
	}

	return Stats{
		Total:          total,
		ByStatus:       counts,
		OldestQueuedAt: oldest,
		Throughput: ThroughputRates{
			Completed1m: o.completed.Rate1(),
			Failed1m:    o.failed.Rate1(),
		},
	}, nil
}

// HealthCheck inspects the recent finish window and the head of the queue.
// One issue degrades, two or more are unhealthy.
func (o *Orchestrator) HealthCheck() (Health, error) {
	health := Health{Status: HealthHealthy, Window: o.conf.HealthWindow}

	finished, err := o.repo.RecentFinished(o.conf.HealthWindow)
	if err != nil {
		return Health{}, err
	}

	// Too small a sample says nothing about the failure rate.
	if len(finished) >= 10 {
		var failures int
		for _, entry := range finished {
			if entry.Status == models.StatusFailed {
				failures++
			}
		}
		health.FailureRate = float64(failures) / float64(len(finished))
		if health.FailureRate >= o.conf.HealthFailureThreshold {
			health.Issues = append(health.Issues, "elevated failure rate")
		}
	}

	oldest, err := o.repo.OldestQueuedAt()
	if err != nil {
		return Health{}, err
	}
	if oldest != nil && time.Since(*oldest) > o.conf.HealthStallWindow {
		counts, err := o.repo.GroupCountByStatus()
		if err != nil {
			return Health{}, err
		}
		// An old queue head with executors actively processing is
		// backlog, not a stall.
		if counts[models.StatusProcessing] == 0 {
			health.Issues = append(health.Issues, "queue stalled: no entries processing")
		}
	}

	switch len(health.Issues) {
	case 0:
	case 1:
		health.Status = HealthDegraded
	default:
		health.Status = HealthUnhealthy
	}
	return health, nil
}
