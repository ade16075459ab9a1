package models

import (
	"fmt"
	"time"

	"github.com/dchest/uniuri"
	"github.com/jinzhu/gorm"
)

// ApplicationEntry is one durable record of a user's automation request for a
// single job, tracked through the queue state machine. Entries are never
// deleted; terminal states are retained for idempotency checks and audit.
type ApplicationEntry struct {
	uuidHook
	ID            string     `gorm:"primary_key" json:"id"`
	UserID        string     `gorm:"not null;index" json:"user_id"`
	JobID         string     `gorm:"not null;index" json:"job_id"`
	Status        string     `gorm:"not null;index" json:"status"`
	Priority      int        `json:"priority"`
	ExecutionMode string     `json:"execution_mode"`
	Attempts      int        `json:"attempts"`
	MaxAttempts   int        `json:"max_attempts"`
	ClaimedBy     string     `json:"claimed_by,omitempty"`
	ClaimedAt     *time.Time `json:"claimed_at,omitempty"`
	ScheduledAt   time.Time  `json:"scheduled_at"`
	StartedAt     *time.Time `json:"started_at,omitempty"`
	CompletedAt   *time.Time `json:"completed_at,omitempty"`
	NextRetryAt   *time.Time `json:"next_retry_at,omitempty"`
	ProxyID       string     `json:"-"`
	Payload       string     `sql:"type:JSONB NOT NULL DEFAULT '{}'::JSONB" json:"payload"`
	Result        string     `sql:"type:JSONB" json:"result,omitempty"`
	ErrorType     string     `json:"error_type,omitempty"`
	ErrorMessage  string     `json:"error_message,omitempty"`
	Token         string     `json:"-"`
}

// IsTerminal returns whether the entry permits no further transitions.
func (e ApplicationEntry) IsTerminal() bool {
	return IsTerminal(e.Status)
}

// NewApplicationEntry creates an entry with its per-entry callback token.
func NewApplicationEntry() ApplicationEntry {
	return ApplicationEntry{Token: uniuri.NewLen(30), ScheduledAt: time.Now()}
}

// ApplicationRepo is the durable queue store. It is the single source of
// truth for entries; the dispatch queue is only a wake-up signal. All state
// transitions go through conditional updates so that concurrent writers from
// separate processes cannot clobber each other.
type ApplicationRepo interface {
	Create(entry *ApplicationEntry) error
	Get(id string) (ApplicationEntry, error)
	// FindNonTerminalByUserJob returns the blocking entry for the pair,
	// or gorm.ErrRecordNotFound when the pair is free to enqueue.
	FindNonTerminalByUserJob(userID, jobID string) (ApplicationEntry, error)
	// ConditionalUpdate applies mutation only while the entry is in one of
	// the expected statuses. Returns ErrStaleState when no row matched.
	ConditionalUpdate(id string, expected []string, mutation map[string]interface{}) error
	// Claim atomically transitions a claimable, unclaimed entry to
	// PROCESSING and records the claimant. Returns ErrStaleState when the
	// entry is claimed, terminal, or not in a claimable state.
	Claim(id, executorID string, now time.Time) error
	GroupCountByStatus() (map[string]int, error)
	CountUserEntriesSince(userID, mode string, since time.Time) (int, error)
	// RecentFinished returns the most recently finished entries
	// (COMPLETED or FAILED), newest first.
	RecentFinished(limit int) ([]ApplicationEntry, error)
	FindQueuedOlderThan(cutoff time.Time, limit int) ([]ApplicationEntry, error)
	FindStalledProcessing(cutoff time.Time, limit int) ([]ApplicationEntry, error)
	FindDueRetries(now time.Time, limit int) ([]ApplicationEntry, error)
	OldestQueuedAt() (*time.Time, error)
}

type applicationRepo struct{ db *gorm.DB }

// ApplicationDataSource returns the data source for application entries.
func ApplicationDataSource(db *gorm.DB) ApplicationRepo {
	return &applicationRepo{db: db}
}

func (repo *applicationRepo) Create(entry *ApplicationEntry) error {
	return repo.db.Create(entry).Error
}

func (repo *applicationRepo) Get(id string) (ApplicationEntry, error) {
	var entry ApplicationEntry
	err := repo.db.First(&entry, "id = ?", id).Error
	return entry, err
}

func (repo *applicationRepo) FindNonTerminalByUserJob(userID, jobID string) (ApplicationEntry, error) {
	var entry ApplicationEntry
	err := repo.db.
		Where("user_id = ? AND job_id = ?", userID, jobID).
		Where("status in (?)", NonTerminalStatuses()).
		First(&entry).Error
	return entry, err
}

func (repo *applicationRepo) ConditionalUpdate(id string, expected []string, mutation map[string]interface{}) error {
	if next, ok := mutation["status"].(string); ok {
		for _, current := range expected {
			if !CanTransition(current, next) {
				return fmt.Errorf("illegal transition %s -> %s", current, next)
			}
		}
	}
	result := repo.db.Model(&ApplicationEntry{}).
		Where("id = ? AND status in (?)", id, expected).
		Updates(mutation)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrStaleState
	}
	return nil
}

func (repo *applicationRepo) Claim(id, executorID string, now time.Time) error {
	result := repo.db.Model(&ApplicationEntry{}).
		Where("id = ? AND status in (?)", id, ClaimableStatuses()).
		Where("claimed_by = '' OR claimed_by IS NULL").
		Updates(map[string]interface{}{
			"status":     StatusProcessing,
			"claimed_by": executorID,
			"claimed_at": now,
			"started_at": gorm.Expr("COALESCE(started_at, ?)", now),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrStaleState
	}
	return nil
}

func (repo *applicationRepo) GroupCountByStatus() (map[string]int, error) {
	counts := map[string]int{}
	rows, err := repo.db.Model(&ApplicationEntry{}).
		Select("status, count(*)").
		Group("status").
		Rows()
	if err != nil {
		return counts, err
	}
	defer rows.Close()
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return counts, err
		}
		counts[status] = count
	}
	return counts, nil
}

func (repo *applicationRepo) CountUserEntriesSince(userID, mode string, since time.Time) (int, error) {
	var count int
	err := repo.db.Model(&ApplicationEntry{}).
		Where("user_id = ? AND execution_mode = ?", userID, mode).
		Where("scheduled_at >= ?", since).
		Count(&count).Error
	return count, err
}

func (repo *applicationRepo) RecentFinished(limit int) ([]ApplicationEntry, error) {
	var entries []ApplicationEntry
	err := repo.db.
		Where("status in (?)", []string{StatusCompleted, StatusFailed}).
		Order("completed_at desc").
		Limit(limit).
		Find(&entries).Error
	return entries, err
}

func (repo *applicationRepo) FindQueuedOlderThan(cutoff time.Time, limit int) ([]ApplicationEntry, error) {
	var entries []ApplicationEntry
	err := repo.db.
		Where("status in (?)", []string{StatusQueued, StatusQueuedForDesktop}).
		Where("scheduled_at < ?", cutoff).
		Order("scheduled_at").
		Limit(limit).
		Find(&entries).Error
	return entries, err
}

func (repo *applicationRepo) FindStalledProcessing(cutoff time.Time, limit int) ([]ApplicationEntry, error) {
	var entries []ApplicationEntry
	err := repo.db.
		Where("status = ? AND claimed_at < ?", StatusProcessing, cutoff).
		Order("claimed_at").
		Limit(limit).
		Find(&entries).Error
	return entries, err
}

func (repo *applicationRepo) FindDueRetries(now time.Time, limit int) ([]ApplicationEntry, error) {
	var entries []ApplicationEntry
	err := repo.db.
		Where("status = ? AND next_retry_at <= ?", StatusRetrying, now).
		Order("next_retry_at").
		Limit(limit).
		Find(&entries).Error
	return entries, err
}

func (repo *applicationRepo) OldestQueuedAt() (*time.Time, error) {
	var entry ApplicationEntry
	err := repo.db.
		Where("status in (?)", []string{StatusQueued, StatusQueuedForDesktop}).
		Order("scheduled_at").
		First(&entry).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	t := entry.ScheduledAt
	return &t, nil
}
