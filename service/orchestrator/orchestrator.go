// Package orchestrator is the queue state machine behind automated job
// applications. It owns every entry transition; correctness under concurrent
// callers comes from conditional updates at the store layer, not from
// in-process locks, because executors run in separate processes.
package orchestrator

//go:generate mockgen -source=orchestrator.go -package=orchestrator -destination=orchestrator_mock.go

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/cenkalti/backoff"
	"github.com/jinzhu/gorm"
	"github.com/rcrowley/go-metrics"
	log "github.com/sirupsen/logrus"
	validator "gopkg.in/validator.v2"

	"github.com/jobswipe/platform/models"
	"github.com/jobswipe/platform/service/dispatch"
	"github.com/jobswipe/platform/service/eligibility"
	"github.com/jobswipe/platform/service/events"
	"github.com/jobswipe/platform/service/proxypool"
)

// Service is the orchestrator's public API.
type Service interface {
	Enqueue(req EnqueueRequest) (models.ApplicationEntry, error)
	GetStatus(entryID string) (models.ApplicationEntry, error)
	Cancel(entryID, userID string) (CancelResult, error)
	Claim(entryID, executorID string) (ClaimResult, error)
	Resume(entryID, executorID string) error
	ReportResult(entryID, executorID string, report ResultReport) error
	Stats() (Stats, error)
	HealthCheck() (Health, error)
}

// EnqueueRequest carries everything an executor needs to act without further
// lookups; the originating job or profile may change or disappear after
// enqueue, so the payload is a denormalized snapshot.
type EnqueueRequest struct {
	UserID      string  `json:"user_id" validate:"nonzero"`
	JobID       string  `json:"job_id" validate:"nonzero"`
	Payload     Payload `json:"payload"`
	MaxAttempts int     `json:"max_attempts"`
}

// Payload is the denormalized job + profile snapshot recorded at enqueue time.
type Payload struct {
	Job     JobSnapshot     `json:"job"`
	Profile ProfileSnapshot `json:"profile"`
}

// JobSnapshot is the job posting at enqueue time.
type JobSnapshot struct {
	Title    string `json:"title" validate:"nonzero"`
	Company  string `json:"company"`
	ApplyURL string `json:"apply_url" validate:"nonzero"`
	Country  string `json:"country,omitempty"`
}

// ProfileSnapshot is the applicant profile at enqueue time.
type ProfileSnapshot struct {
	FirstName string `json:"first_name" validate:"nonzero"`
	LastName  string `json:"last_name"`
	Email     string `json:"email" validate:"nonzero"`
	Phone     string `json:"phone,omitempty"`
	ResumeURL string `json:"resume_url,omitempty"`
}

// ClaimResult hands an executor the payload, the entry's callback token for
// artifact uploads, and, for server-mode entries, the proxy its execution
// must egress through.
type ClaimResult struct {
	Entry   models.ApplicationEntry `json:"entry"`
	Payload string                  `json:"payload"`
	Token   string                  `json:"token"`
	Proxy   *models.Proxy           `json:"proxy,omitempty"`
}

// CancelResult reports the cancellation outcome. Cancelled false without an
// error means the entry was already processing, which cannot be interrupted.
type CancelResult struct {
	Cancelled bool `json:"cancelled"`
	Refunded  bool `json:"refunded"`
}

// ServiceConfig holds configuration for the orchestrator.
type ServiceConfig struct {
	DefaultMaxAttempts     int           `env:"JOBSWIPE_MAX_ATTEMPTS" envDefault:"3"`
	RetryBase              time.Duration `env:"JOBSWIPE_RETRY_BASE" envDefault:"1m"`
	RetryCap               time.Duration `env:"JOBSWIPE_RETRY_CAP" envDefault:"30m"`
	StallAfter             time.Duration `env:"JOBSWIPE_STALL_AFTER" envDefault:"15m"`
	ReconcileAfter         time.Duration `env:"JOBSWIPE_RECONCILE_AFTER" envDefault:"2m"`
	SweepBatch             int           `env:"JOBSWIPE_SWEEP_BATCH" envDefault:"100"`
	StoreRetries           uint64        `env:"JOBSWIPE_STORE_RETRIES" envDefault:"3"`
	HealthWindow           int           `env:"JOBSWIPE_HEALTH_WINDOW" envDefault:"50"`
	HealthFailureThreshold float64       `env:"JOBSWIPE_HEALTH_FAILURE_THRESHOLD" envDefault:"0.5"`
	HealthStallWindow      time.Duration `env:"JOBSWIPE_HEALTH_STALL_WINDOW" envDefault:"10m"`
}

// Orchestrator composes the queue store, dispatch queue, proxy pool,
// eligibility resolver and event emitter.
type Orchestrator struct {
	repo        models.ApplicationRepo
	dispatch    dispatch.Service
	eligibility eligibility.Service
	proxies     proxypool.Service
	events      events.EventService
	conf        ServiceConfig

	completed metrics.Meter
	failed    metrics.Meter
}

var _ Service = &Orchestrator{}

// New creates an orchestrator with conf.
func New(repo models.ApplicationRepo, d dispatch.Service, e eligibility.Service, p proxypool.Service, ev events.EventService, conf ServiceConfig) *Orchestrator {
	if conf.DefaultMaxAttempts == 0 {
		conf.DefaultMaxAttempts = models.DefaultMaxAttempts
	}
	if conf.RetryBase == 0 {
		conf.RetryBase = time.Minute
	}
	if conf.RetryCap == 0 {
		conf.RetryCap = 30 * time.Minute
	}
	if conf.StallAfter == 0 {
		conf.StallAfter = 15 * time.Minute
	}
	if conf.ReconcileAfter == 0 {
		conf.ReconcileAfter = 2 * time.Minute
	}
	if conf.SweepBatch == 0 {
		conf.SweepBatch = 100
	}
	if conf.HealthWindow == 0 {
		conf.HealthWindow = 50
	}
	if conf.HealthFailureThreshold == 0 {
		conf.HealthFailureThreshold = 0.5
	}
	if conf.HealthStallWindow == 0 {
		conf.HealthStallWindow = 10 * time.Minute
	}

	registry := metrics.NewRegistry()
	return &Orchestrator{
		repo:        repo,
		dispatch:    d,
		eligibility: e,
		proxies:     p,
		events:      ev,
		conf:        conf,
		completed:   metrics.NewRegisteredMeter("applications.completed", registry),
		failed:      metrics.NewRegisteredMeter("applications.failed", registry),
	}
}

// Enqueue queues a job application for a user. Calling it again for the same
// (user, job) pair while an entry is still in flight returns the existing
// entry unchanged; callers must treat that as success. Enqueue never blocks
// on executor availability.
func (o *Orchestrator) Enqueue(req EnqueueRequest) (models.ApplicationEntry, error) {
	var entry models.ApplicationEntry

	if err := validator.Validate(req); err != nil {
		return entry, ValidationError{err}
	}

	payload, err := json.Marshal(req.Payload)
	if err != nil {
		return entry, ValidationError{err}
	}

	existing, err := o.findNonTerminal(req.UserID, req.JobID)
	if err == nil {
		return existing, nil
	}
	if err != gorm.ErrRecordNotFound {
		return entry, err
	}

	decision, err := o.eligibility.Check(req.UserID)
	if err != nil {
		return entry, err
	}

	status, mode, priority := models.StatusQueuedForDesktop, models.ModeDesktop, models.PriorityDesktop
	if decision.Allowed {
		status, mode, priority = models.StatusQueued, models.ModeServer, models.PriorityServer
	}

	maxAttempts := req.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = o.conf.DefaultMaxAttempts
	}

	entry = models.NewApplicationEntry()
	entry.UserID = req.UserID
	entry.JobID = req.JobID
	entry.Status = status
	entry.ExecutionMode = mode
	entry.Priority = priority
	entry.MaxAttempts = maxAttempts
	entry.Payload = string(payload)

	// The durable record must commit before dispatch: the store is the
	// source of truth, the queue only a wake-up signal.
	err = o.repo.Create(&entry)
	if isUniqueViolation(err) {
		// Lost an enqueue race for the pair; the winner's entry is the
		// idempotent answer.
		return o.findNonTerminal(req.UserID, req.JobID)
	}
	if err != nil {
		return entry, err
	}

	err = o.dispatch.Submit(dispatch.Job{
		ID:       entry.ID,
		Priority: entry.Priority,
		Payload:  entry.Payload,
	})
	if err != nil {
		// Never roll back the entry. The reconciliation sweep will
		// re-dispatch it; record what happened in the meantime.
		log.WithFields(log.Fields{"entry": entry.ID}).Errorf("dispatch submit failed: %s", err)
		uerr := o.repo.ConditionalUpdate(entry.ID, []string{status}, map[string]interface{}{
			"error_type":    ErrorTypeQueue,
			"error_message": err.Error(),
		})
		if uerr != nil && uerr != models.ErrStaleState {
			log.WithFields(log.Fields{"entry": entry.ID}).Error(uerr)
		}
		entry.ErrorType = ErrorTypeQueue
		entry.ErrorMessage = err.Error()
	}

	meta := map[string]interface{}{"job_id": entry.JobID, "execution_mode": mode}
	o.emit(entry, events.ApplicationQueued, meta)
	if mode == models.ModeDesktop {
		o.emit(entry, events.ApplicationQueuedDesktop, meta)
	}

	return entry, nil
}

// GetStatus returns the entry as stored.
func (o *Orchestrator) GetStatus(entryID string) (models.ApplicationEntry, error) {
	return o.getEntry(entryID)
}

// Claim atomically hands the entry to one executor. Exactly one of any
// concurrent claims succeeds; the losers get ErrAlreadyClaimed or
// ErrTerminal and must not treat that as failure of their own work.
func (o *Orchestrator) Claim(entryID, executorID string) (ClaimResult, error) {
	if entryID == "" || executorID == "" {
		return ClaimResult{}, ValidationError{errEmptyID}
	}

	err := o.repo.Claim(entryID, executorID, time.Now())
	if err == models.ErrStaleState {
		entry, gerr := o.getEntry(entryID)
		if gerr != nil {
			return ClaimResult{}, gerr
		}
		switch {
		case entry.IsTerminal():
			return ClaimResult{}, ErrTerminal
		case entry.ClaimedBy != "":
			return ClaimResult{}, ErrAlreadyClaimed
		default:
			return ClaimResult{}, ErrNotClaimable
		}
	}
	if err != nil {
		return ClaimResult{}, err
	}

	entry, err := o.getEntry(entryID)
	if err != nil {
		return ClaimResult{}, err
	}

	// The wake-up signal has served its purpose.
	if err := o.dispatch.Remove(entryID); err != nil {
		log.WithFields(log.Fields{"entry": entryID}).Warnf("dispatch remove failed: %s", err)
	}

	result := ClaimResult{Entry: entry, Payload: entry.Payload, Token: entry.Token}

	if entry.ExecutionMode == models.ModeServer {
		proxy, err := o.selectProxy(entry)
		if err != nil {
			o.releaseClaim(entry)
			return ClaimResult{}, err
		}
		entry.ProxyID = proxy.ID
		result.Entry = entry
		result.Proxy = &proxy
	}

	o.emit(entry, events.ApplicationProcessing, map[string]interface{}{"executor": executorID})
	return result, nil
}

// Resume moves a suspended entry (captcha wait, rate-limit pause) back to
// processing. Only the claiming executor may resume.
func (o *Orchestrator) Resume(entryID, executorID string) error {
	entry, err := o.getEntry(entryID)
	if err != nil {
		return err
	}
	if entry.IsTerminal() {
		return ErrTerminal
	}
	if entry.ClaimedBy != executorID {
		return ErrNotClaimedByYou
	}

	err = o.repo.ConditionalUpdate(entryID, models.SuspendedStatuses(), map[string]interface{}{
		"status": models.StatusProcessing,
	})
	if err == models.ErrStaleState {
		return ErrNotSuspended
	}
	if err != nil {
		return err
	}

	o.emit(entry, events.ApplicationProcessing, map[string]interface{}{"executor": executorID, "resumed": true})
	return nil
}

// Cancel cancels a not-yet-claimed entry. Processing entries cannot be
// interrupted; for those Cancel reports cancelled=false without error and
// the caller waits for completion.
func (o *Orchestrator) Cancel(entryID, userID string) (CancelResult, error) {
	entry, err := o.getEntry(entryID)
	if err != nil {
		return CancelResult{}, err
	}
	if entry.UserID != userID {
		// Do not leak other users' entries.
		return CancelResult{}, gorm.ErrRecordNotFound
	}
	if entry.IsTerminal() {
		return CancelResult{}, ErrTerminal
	}
	if entry.Status == models.StatusProcessing {
		return CancelResult{Cancelled: false}, nil
	}

	// Best-effort: the job may already have been consumed.
	if err := o.dispatch.Remove(entryID); err != nil {
		log.WithFields(log.Fields{"entry": entryID}).Warnf("dispatch remove failed: %s", err)
	}

	cancellable := []string{
		models.StatusPending, models.StatusQueued, models.StatusQueuedForDesktop,
		models.StatusRetrying, models.StatusPaused, models.StatusRequiresCaptcha,
	}
	now := time.Now()
	err = o.repo.ConditionalUpdate(entryID, cancellable, map[string]interface{}{
		"status":       models.StatusCancelled,
		"completed_at": now,
	})
	if err == models.ErrStaleState {
		// Lost the race to a claim or a concurrent transition; re-read
		// and report what actually happened.
		entry, gerr := o.getEntry(entryID)
		if gerr != nil {
			return CancelResult{}, gerr
		}
		if entry.Status == models.StatusProcessing {
			return CancelResult{Cancelled: false}, nil
		}
		return CancelResult{}, ErrTerminal
	}
	if err != nil {
		return CancelResult{}, err
	}

	o.emit(entry, events.ApplicationCancelled, nil)
	return CancelResult{Cancelled: true, Refunded: true}, nil
}

// ReportResult finalizes an execution. Only the claiming executor may report.
func (o *Orchestrator) ReportResult(entryID, executorID string, report ResultReport) error {
	entry, err := o.getEntry(entryID)
	if err != nil {
		return err
	}
	if entry.IsTerminal() {
		return ErrTerminal
	}
	if entry.ClaimedBy != executorID {
		return ErrNotClaimedByYou
	}

	now := time.Now()

	switch report.Outcome {
	case OutcomeSuccess:
		return o.completeEntry(entry, report, now)
	case OutcomeCaptcha:
		return o.suspendEntry(entry, models.StatusRequiresCaptcha)
	case OutcomePaused:
		return o.suspendEntry(entry, models.StatusPaused)
	case OutcomeFailure:
		return o.failEntry(entry, report, now)
	default:
		return ValidationError{errUnknownOutcome}
	}
}

func (o *Orchestrator) completeEntry(entry models.ApplicationEntry, report ResultReport, now time.Time) error {
	result, err := json.Marshal(report.Data)
	if err != nil {
		return ValidationError{err}
	}

	err = o.repo.ConditionalUpdate(entry.ID, []string{models.StatusProcessing}, map[string]interface{}{
		"status":       models.StatusCompleted,
		"completed_at": now,
		"result":       string(result),
	})
	if err == models.ErrStaleState {
		return ErrTerminal
	}
	if err != nil {
		return err
	}

	o.completed.Mark(1)
	o.reportProxy(entry, true)
	o.emit(entry, events.ApplicationCompleted, nil)
	return nil
}

func (o *Orchestrator) suspendEntry(entry models.ApplicationEntry, status string) error {
	// The claim is retained: the same executor resumes after the captcha
	// solve or backoff window.
	err := o.repo.ConditionalUpdate(entry.ID, []string{models.StatusProcessing}, map[string]interface{}{
		"status": status,
	})
	if err == models.ErrStaleState {
		return ErrTerminal
	}
	return err
}

func (o *Orchestrator) failEntry(entry models.ApplicationEntry, report ResultReport, now time.Time) error {
	expected := []string{models.StatusProcessing, models.StatusPaused, models.StatusRequiresCaptcha}
	attempts := entry.Attempts + 1

	// Non-retryable failures go straight to FAILED regardless of the
	// remaining attempt budget.
	if report.Retryable && attempts < entry.MaxAttempts {
		next := now.Add(o.retryDelay(attempts))
		err := o.repo.ConditionalUpdate(entry.ID, expected, map[string]interface{}{
			"status":        models.StatusRetrying,
			"attempts":      attempts,
			"next_retry_at": next,
			"claimed_by":    "",
			"claimed_at":    nil,
			"error_type":    report.ErrorType,
			"error_message": report.ErrorMessage,
		})
		if err == models.ErrStaleState {
			return ErrTerminal
		}
		if err != nil {
			return err
		}

		err = o.dispatch.Submit(dispatch.Job{
			ID:         entry.ID,
			Priority:   entry.Priority,
			Payload:    entry.Payload,
			DelayUntil: next,
		})
		if err != nil {
			// The retry sweep re-submits due retries with no
			// dispatch job; losing this submit loses nothing.
			log.WithFields(log.Fields{"entry": entry.ID}).Warnf("retry dispatch failed: %s", err)
		}

		o.reportProxy(entry, false)
		return nil
	}

	err := o.repo.ConditionalUpdate(entry.ID, expected, map[string]interface{}{
		"status":        models.StatusFailed,
		"attempts":      attempts,
		"completed_at":  now,
		"error_type":    report.ErrorType,
		"error_message": report.ErrorMessage,
	})
	if err == models.ErrStaleState {
		return ErrTerminal
	}
	if err != nil {
		return err
	}

	o.failed.Mark(1)
	o.reportProxy(entry, false)
	o.emit(entry, events.ApplicationFailed, map[string]interface{}{
		"error_type": report.ErrorType,
	})
	return nil
}

func (o *Orchestrator) selectProxy(entry models.ApplicationEntry) (models.Proxy, error) {
	var criteria models.ProxyCriteria
	var payload Payload
	if err := json.Unmarshal([]byte(entry.Payload), &payload); err == nil {
		criteria.Country = payload.Job.Country
	}

	proxy, err := o.proxies.Select(criteria)
	if err != nil {
		return models.Proxy{}, err
	}

	uerr := o.repo.ConditionalUpdate(entry.ID, []string{models.StatusProcessing}, map[string]interface{}{
		"proxy_id": proxy.ID,
	})
	if uerr != nil {
		log.WithFields(log.Fields{"entry": entry.ID}).Error(uerr)
	}
	return proxy, nil
}

// releaseClaim undoes a claim whose proxy selection failed, putting the entry
// back in front of the executors.
func (o *Orchestrator) releaseClaim(entry models.ApplicationEntry) {
	err := o.repo.ConditionalUpdate(entry.ID, []string{models.StatusProcessing}, map[string]interface{}{
		"status":     models.StatusQueued,
		"claimed_by": "",
		"claimed_at": nil,
	})
	if err != nil {
		log.WithFields(log.Fields{"entry": entry.ID}).Error(err)
		return
	}
	err = o.dispatch.Submit(dispatch.Job{
		ID:       entry.ID,
		Priority: entry.Priority,
		Payload:  entry.Payload,
	})
	if err != nil {
		log.WithFields(log.Fields{"entry": entry.ID}).Warnf("re-dispatch failed: %s", err)
	}
}

func (o *Orchestrator) reportProxy(entry models.ApplicationEntry, success bool) {
	if entry.ProxyID == "" {
		return
	}
	if err := o.proxies.ReportOutcome(entry.ProxyID, success); err != nil {
		log.WithFields(log.Fields{"proxy": entry.ProxyID}).Error(err)
	}
}

func (o *Orchestrator) retryDelay(attempts int) time.Duration {
	delay := o.conf.RetryBase
	for i := 1; i < attempts; i++ {
		delay *= 2
		if delay >= o.conf.RetryCap {
			return o.conf.RetryCap
		}
	}
	return delay
}

func (o *Orchestrator) emit(entry models.ApplicationEntry, name string, meta map[string]interface{}) {
	o.events.EnqueueEvent(events.Event{
		EntryID:   entry.ID,
		UserID:    entry.UserID,
		EventName: name,
		Metadata:  meta,
	})
}

// getEntry reads an entry, retrying transient store errors with bounded
// backoff. Not-found is permanent and surfaces immediately.
func (o *Orchestrator) getEntry(id string) (models.ApplicationEntry, error) {
	var entry models.ApplicationEntry
	err := o.withRetry(func() (err error) {
		entry, err = o.repo.Get(id)
		return
	})
	return entry, err
}

func (o *Orchestrator) findNonTerminal(userID, jobID string) (models.ApplicationEntry, error) {
	var entry models.ApplicationEntry
	err := o.withRetry(func() (err error) {
		entry, err = o.repo.FindNonTerminalByUserJob(userID, jobID)
		return
	})
	return entry, err
}

func (o *Orchestrator) withRetry(op func() error) error {
	retries := o.conf.StoreRetries
	if retries == 0 {
		retries = 3
	}
	b := backoff.WithMaxRetries(backoff.NewExponentialBackOff(), retries)
	return backoff.Retry(func() error {
		err := op()
		if err == nil {
			return nil
		}
		if isPermanent(err) {
			return backoff.Permanent(err)
		}
		return err
	}, b)
}

func isPermanent(err error) bool {
	return err == gorm.ErrRecordNotFound ||
		err == models.ErrStaleState ||
		isUniqueViolation(err)
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "duplicate key value")
}
