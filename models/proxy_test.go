// +build integration

package models

import (
	"testing"
	"time"

	"github.com/jinzhu/gorm"
)

func TestProxyReserveHonorsCaps(t *testing.T) {
	RunTransaction(func(db *gorm.DB) {
		repo := ProxyDataSource(db)

		proxy := Proxy{
			Host:            "10.0.0.1",
			Port:            3128,
			Type:            ProxyTypeDatacenter,
			IsActive:        true,
			SuccessRate:     1.0,
			RequestsPerHour: 2,
			DailyLimit:      10,
		}
		if err := repo.Create(&proxy); err != nil {
			t.Fatal(err)
		}

		now := time.Now()
		for i := 0; i < 2; i++ {
			if err := repo.Reserve(proxy.ID, now); err != nil {
				t.Fatalf("reserve %d: %s", i, err)
			}
		}
		if err := repo.Reserve(proxy.ID, now); err != ErrStaleState {
			t.Fatalf("reserve over cap err = %v, want ErrStaleState", err)
		}

		reserved, err := repo.Get(proxy.ID)
		if err != nil {
			t.Fatal(err)
		}
		if reserved.CurrentHourlyUsage != 2 {
			t.Errorf("hourly usage = %d, want 2", reserved.CurrentHourlyUsage)
		}

		if err := repo.ResetHourlyUsage(); err != nil {
			t.Fatal(err)
		}
		if err := repo.Reserve(proxy.ID, now); err != nil {
			t.Errorf("reserve after hourly reset: %s", err)
		}
	})
}

func TestProxyCandidatesFilterAndOrder(t *testing.T) {
	RunTransaction(func(db *gorm.DB) {
		repo := ProxyDataSource(db)

		flaky := Proxy{Host: "10.0.0.1", Port: 3128, Country: "US", IsActive: true, SuccessRate: 0.2, RequestsPerHour: 10, DailyLimit: 100}
		healthy := Proxy{Host: "10.0.0.2", Port: 3128, Country: "US", IsActive: true, SuccessRate: 0.9, RequestsPerHour: 10, DailyLimit: 100}
		inactive := Proxy{Host: "10.0.0.3", Port: 3128, Country: "US", IsActive: false, SuccessRate: 1.0, RequestsPerHour: 10, DailyLimit: 100}
		foreign := Proxy{Host: "10.0.0.4", Port: 3128, Country: "DE", IsActive: true, SuccessRate: 1.0, RequestsPerHour: 10, DailyLimit: 100}
		for _, p := range []*Proxy{&flaky, &healthy, &inactive, &foreign} {
			if err := repo.Create(p); err != nil {
				t.Fatal(err)
			}
		}

		candidates, err := repo.Candidates(ProxyCriteria{Country: "US"}, 10)
		if err != nil {
			t.Fatal(err)
		}
		if len(candidates) != 2 {
			t.Fatalf("candidates = %d, want 2", len(candidates))
		}
		if candidates[0].ID != healthy.ID {
			t.Errorf("best candidate = %s, want healthiest first", candidates[0].Host)
		}
	})
}

func TestProxyRecordOutcome(t *testing.T) {
	RunTransaction(func(db *gorm.DB) {
		repo := ProxyDataSource(db)

		proxy := Proxy{Host: "10.0.0.1", Port: 3128, IsActive: true, SuccessRate: 0.5, RequestsPerHour: 10, DailyLimit: 100}
		if err := repo.Create(&proxy); err != nil {
			t.Fatal(err)
		}

		if err := repo.RecordOutcome(proxy.ID, false); err != nil {
			t.Fatal(err)
		}
		updated, _ := repo.Get(proxy.ID)
		if updated.SuccessRate > 0.41 || updated.SuccessRate < 0.39 {
			t.Errorf("success rate = %f, want 0.40", updated.SuccessRate)
		}
		if updated.FailureCount != 1 {
			t.Errorf("failure count = %d, want 1", updated.FailureCount)
		}

		if err := repo.RecordOutcome(proxy.ID, true); err != nil {
			t.Fatal(err)
		}
		updated, _ = repo.Get(proxy.ID)
		if updated.SuccessRate > 0.46 || updated.SuccessRate < 0.44 {
			t.Errorf("success rate = %f, want 0.45", updated.SuccessRate)
		}
	})
}
