package models

import (
	"time"

	"github.com/jinzhu/gorm"
)

const (
	// ProxyTypeResidential is a residential egress proxy.
	ProxyTypeResidential = "residential"
	// ProxyTypeDatacenter is a datacenter egress proxy.
	ProxyTypeDatacenter = "datacenter"
	// ProxyTypeMobile is a mobile egress proxy.
	ProxyTypeMobile = "mobile"
	// ProxyTypeStatic is a static egress proxy.
	ProxyTypeStatic = "static"
)

// Proxy is one egress proxy in the shared pool. The usage counters are the
// one piece of mutable state shared by concurrent executors; they are only
// ever changed through atomic SQL updates, never read-modify-write in
// application memory.
type Proxy struct {
	uuidHook
	ID                 string     `gorm:"primary_key" json:"id"`
	Host               string     `gorm:"not null" json:"host"`
	Port               int        `gorm:"not null" json:"port"`
	Username           string     `json:"username,omitempty"`
	Password           string     `json:"-"`
	Type               string     `json:"type"`
	Country            string     `json:"country,omitempty"`
	IsActive           bool       `json:"is_active"`
	FailureCount       int        `json:"failure_count"`
	SuccessRate        float64    `json:"success_rate"`
	RequestsPerHour    int        `json:"requests_per_hour"`
	DailyLimit         int        `json:"daily_limit"`
	CurrentHourlyUsage int        `json:"current_hourly_usage"`
	CurrentDailyUsage  int        `json:"current_daily_usage"`
	LastUsedAt         *time.Time `json:"last_used_at,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
}

// ProxyCriteria filters proxy candidates on selection.
type ProxyCriteria struct {
	Country string
	Type    string
}

// ProxyRepo is the store for the shared proxy pool.
type ProxyRepo interface {
	Create(proxy *Proxy) error
	Get(id string) (Proxy, error)
	// Candidates returns active proxies under their caps matching the
	// criteria, ordered best-first: highest success rate, then least
	// recently used.
	Candidates(criteria ProxyCriteria, limit int) ([]Proxy, error)
	// Reserve consumes one request slot on the proxy. The increment is
	// conditional on the caps still holding, so two concurrent
	// reservations can never over-allocate past the rate window.
	// Returns ErrStaleState when the proxy hit a cap since Candidates.
	Reserve(id string, now time.Time) error
	// RecordOutcome folds an execution outcome into the health signal.
	RecordOutcome(id string, success bool) error
	ResetHourlyUsage() error
	ResetDailyUsage() error
}

type proxyRepo struct{ db *gorm.DB }

// ProxyDataSource returns the data source for the proxy pool.
func ProxyDataSource(db *gorm.DB) ProxyRepo {
	return &proxyRepo{db: db}
}

func (repo *proxyRepo) Create(proxy *Proxy) error {
	return repo.db.Create(proxy).Error
}

func (repo *proxyRepo) Get(id string) (Proxy, error) {
	var proxy Proxy
	err := repo.db.First(&proxy, "id = ?", id).Error
	return proxy, err
}

func (repo *proxyRepo) Candidates(criteria ProxyCriteria, limit int) ([]Proxy, error) {
	var proxies []Proxy
	query := repo.db.
		Where("is_active = ?", true).
		Where("current_hourly_usage < requests_per_hour").
		Where("current_daily_usage < daily_limit")
	if criteria.Country != "" {
		query = query.Where("country = ?", criteria.Country)
	}
	if criteria.Type != "" {
		query = query.Where("type = ?", criteria.Type)
	}
	err := query.
		Order("success_rate desc, last_used_at asc NULLS FIRST").
		Limit(limit).
		Find(&proxies).Error
	return proxies, err
}

func (repo *proxyRepo) Reserve(id string, now time.Time) error {
	result := repo.db.Model(&Proxy{}).
		Where("id = ? AND is_active = ?", id, true).
		Where("current_hourly_usage < requests_per_hour").
		Where("current_daily_usage < daily_limit").
		Updates(map[string]interface{}{
			"current_hourly_usage": gorm.Expr("current_hourly_usage + 1"),
			"current_daily_usage":  gorm.Expr("current_daily_usage + 1"),
			"last_used_at":         now,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrStaleState
	}
	return nil
}

func (repo *proxyRepo) RecordOutcome(id string, success bool) error {
	if success {
		return repo.db.Model(&Proxy{}).
			Where("id = ?", id).
			Updates(map[string]interface{}{
				"success_rate": gorm.Expr("LEAST(1.0, success_rate + 0.05)"),
			}).Error
	}
	return repo.db.Model(&Proxy{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"success_rate":  gorm.Expr("GREATEST(0.0, success_rate - 0.10)"),
			"failure_count": gorm.Expr("failure_count + 1"),
		}).Error
}

func (repo *proxyRepo) ResetHourlyUsage() error {
	return repo.db.Model(&Proxy{}).
		Where("current_hourly_usage > 0").
		Update("current_hourly_usage", 0).Error
}

func (repo *proxyRepo) ResetDailyUsage() error {
	return repo.db.Model(&Proxy{}).
		Where("current_daily_usage > 0").
		Update("current_daily_usage", 0).Error
}
