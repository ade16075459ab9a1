package orchestrator

import (
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/jobswipe/platform/models"
	"github.com/jobswipe/platform/service/dispatch"
	"github.com/jobswipe/platform/service/events"
)

// ReconcileDispatch re-submits queued entries whose dispatch job went
// missing; a dropped redis write or a crashed executor that consumed the
// job without claiming both leave an entry waiting forever otherwise. The
// age cutoff keeps the sweep off entries still in the normal enqueue path.
func (o *Orchestrator) ReconcileDispatch() error {
	cutoff := time.Now().Add(-o.conf.ReconcileAfter)
	entries, err := o.repo.FindQueuedOlderThan(cutoff, o.conf.SweepBatch)
	if err != nil {
		return err
	}

	resubmitted := 0
	for _, entry := range entries {
		_, err := o.dispatch.Get(entry.ID)
		if err == nil {
			continue
		}
		if err != dispatch.ErrNotFound {
			return err
		}
		err = o.dispatch.Submit(dispatch.Job{
			ID:       entry.ID,
			Priority: entry.Priority,
			Payload:  entry.Payload,
		})
		if err != nil {
			log.WithFields(log.Fields{"entry": entry.ID}).Errorf("reconcile submit failed: %s", err)
			continue
		}
		resubmitted++
	}

	if resubmitted > 0 {
		log.WithFields(log.Fields{"count": resubmitted}).Info("re-dispatched orphaned entries")
	}
	return nil
}

// PromoteRetries moves due retries onto the ready queue. Entries whose
// delayed dispatch job was lost are re-submitted directly.
func (o *Orchestrator) PromoteRetries() error {
	now := time.Now()

	if _, err := o.dispatch.PromoteDelayed(now); err != nil {
		return err
	}

	entries, err := o.repo.FindDueRetries(now, o.conf.SweepBatch)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		_, err := o.dispatch.Get(entry.ID)
		if err == nil {
			continue
		}
		if err != dispatch.ErrNotFound {
			return err
		}
		err = o.dispatch.Submit(dispatch.Job{
			ID:       entry.ID,
			Priority: entry.Priority,
			Payload:  entry.Payload,
		})
		if err != nil {
			log.WithFields(log.Fields{"entry": entry.ID}).Errorf("retry submit failed: %s", err)
		}
	}
	return nil
}

// ReopenStalled recovers entries stuck in PROCESSING past the stall window,
// which means the claiming executor died without reporting. The stall
// consumes an attempt like any other failure.
func (o *Orchestrator) ReopenStalled() error {
	cutoff := time.Now().Add(-o.conf.StallAfter)
	entries, err := o.repo.FindStalledProcessing(cutoff, o.conf.SweepBatch)
	if err != nil {
		return err
	}

	now := time.Now()
	for _, entry := range entries {
		attempts := entry.Attempts + 1
		if attempts < entry.MaxAttempts {
			err := o.repo.ConditionalUpdate(entry.ID, []string{models.StatusProcessing}, map[string]interface{}{
				"status":        models.StatusRetrying,
				"attempts":      attempts,
				"next_retry_at": now,
				"claimed_by":    "",
				"claimed_at":    nil,
				"error_type":    ErrorTypeStalled,
				"error_message": "executor stopped reporting",
			})
			if err == models.ErrStaleState {
				// The executor reported after all.
				continue
			}
			if err != nil {
				return err
			}
			err = o.dispatch.Submit(dispatch.Job{
				ID:       entry.ID,
				Priority: entry.Priority,
				Payload:  entry.Payload,
			})
			if err != nil {
				log.WithFields(log.Fields{"entry": entry.ID}).Errorf("stall re-dispatch failed: %s", err)
			}
			o.reportProxy(entry, false)
			continue
		}

		err := o.repo.ConditionalUpdate(entry.ID, []string{models.StatusProcessing}, map[string]interface{}{
			"status":        models.StatusFailed,
			"attempts":      attempts,
			"completed_at":  now,
			"error_type":    ErrorTypeStalled,
			"error_message": "executor stopped reporting",
		})
		if err == models.ErrStaleState {
			continue
		}
		if err != nil {
			return err
		}
		o.failed.Mark(1)
		o.reportProxy(entry, false)
		o.emit(entry, events.ApplicationFailed, map[string]interface{}{
			"error_type": ErrorTypeStalled,
		})
	}
	return nil
}
