// Package eligibility answers whether a user may run server-side automation
// right now. It is a pure query; routing decisions made from it are recorded
// on the entry and never revisited.
package eligibility

//go:generate mockgen -source=eligibility.go -package=eligibility -destination=eligibility_mock.go

import (
	"time"

	"github.com/jobswipe/platform/models"
)

// Decision is the outcome of an eligibility check.
type Decision struct {
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason,omitempty"`
}

// Service is the eligibility resolver contract.
type Service interface {
	Check(userID string) (Decision, error)
}

// ServiceConfig holds configuration for the default resolver.
type ServiceConfig struct {
	// ServerDailyLimit caps server-mode enqueues per user per UTC day.
	ServerDailyLimit int `env:"JOBSWIPE_SERVER_DAILY_LIMIT" envDefault:"10"`
}

type service struct {
	repo models.ApplicationRepo
	conf ServiceConfig
}

// New creates the default resolver: a per-day cap on server-mode entries,
// counted from the durable store.
func New(repo models.ApplicationRepo, conf ServiceConfig) Service {
	return &service{repo: repo, conf: conf}
}

func (s *service) Check(userID string) (Decision, error) {
	now := time.Now().UTC()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	count, err := s.repo.CountUserEntriesSince(userID, models.ModeServer, midnight)
	if err != nil {
		return Decision{}, err
	}
	if count >= s.conf.ServerDailyLimit {
		return Decision{Allowed: false, Reason: "daily server automation limit reached"}, nil
	}
	return Decision{Allowed: true}, nil
}
