// Package proxypool selects egress proxies for server-side executions from
// the shared pool, respecting per-proxy hourly and daily caps.
package proxypool

//go:generate mockgen -source=proxypool.go -package=proxypool -destination=proxypool_mock.go

import (
	"errors"
	"time"

	"github.com/jinzhu/gorm"
	log "github.com/sirupsen/logrus"

	"github.com/jobswipe/platform/models"
)

// ErrNoProxyAvailable is returned when every matching proxy is inactive or
// over its rate caps. Callers can fall back to desktop execution.
var ErrNoProxyAvailable = errors.New("no proxy available")

// Service is the proxy pool contract.
type Service interface {
	// Select picks the healthiest available proxy matching criteria and
	// consumes one request slot on it in the same critical section.
	Select(criteria models.ProxyCriteria) (models.Proxy, error)
	// ReportOutcome feeds an execution result back into the health signal.
	ReportOutcome(proxyID string, success bool) error
	ResetHourlyUsage() error
	ResetDailyUsage() error
}

// candidateBatch bounds how many proxies one selection will race for before
// giving up. Contention past this depth means the pool is saturated anyway.
const candidateBatch = 10

type service struct {
	repo models.ProxyRepo
}

// New creates a proxy pool over the durable proxy store.
func New(repo models.ProxyRepo) Service {
	return &service{repo: repo}
}

func (s *service) Select(criteria models.ProxyCriteria) (models.Proxy, error) {
	candidates, err := s.repo.Candidates(criteria, candidateBatch)
	if err != nil {
		return models.Proxy{}, err
	}

	// Candidates are ordered best-first: highest success rate, then least
	// recently used. The reservation is a conditional increment, so a
	// concurrent selection that consumed the last slot just moves us to
	// the next candidate.
	for _, candidate := range candidates {
		err := s.repo.Reserve(candidate.ID, time.Now())
		if err == models.ErrStaleState {
			continue
		}
		if err != nil {
			return models.Proxy{}, err
		}
		return s.repo.Get(candidate.ID)
	}
	return models.Proxy{}, ErrNoProxyAvailable
}

func (s *service) ReportOutcome(proxyID string, success bool) error {
	err := s.repo.RecordOutcome(proxyID, success)
	if err == gorm.ErrRecordNotFound {
		// Proxy retired while the execution ran. Nothing to adjust.
		log.WithFields(log.Fields{"proxy": proxyID}).Warn("outcome for retired proxy")
		return nil
	}
	return err
}

func (s *service) ResetHourlyUsage() error {
	return s.repo.ResetHourlyUsage()
}

func (s *service) ResetDailyUsage() error {
	return s.repo.ResetDailyUsage()
}
