package orchestrator

import (
	"testing"
	"time"

	"github.com/golang/mock/gomock"

	"github.com/jobswipe/platform/models"
	"github.com/jobswipe/platform/service/dispatch"
)

func TestReconcileDispatchResubmitsOrphans(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	env := newTestEnv(ctrl)

	old := time.Now().Add(-10 * time.Minute)
	orphan := env.repo.seed(models.ApplicationEntry{
		UserID: "user-1", JobID: "job-1",
		Status:      models.StatusQueued,
		Priority:    models.PriorityServer,
		ScheduledAt: old,
	})
	tracked := env.repo.seed(models.ApplicationEntry{
		UserID: "user-2", JobID: "job-2",
		Status:      models.StatusQueued,
		Priority:    models.PriorityServer,
		ScheduledAt: old,
	})
	// Young enough to still be in the normal enqueue path; must be left
	// alone even though no sweep job check would find it.
	env.repo.seed(models.ApplicationEntry{
		UserID: "user-3", JobID: "job-3",
		Status:      models.StatusQueued,
		ScheduledAt: time.Now(),
	})

	env.dispatch.EXPECT().Get(orphan.ID).Return(dispatch.Job{}, dispatch.ErrNotFound)
	env.dispatch.EXPECT().Get(tracked.ID).Return(dispatch.Job{ID: tracked.ID}, nil)
	env.dispatch.EXPECT().Submit(gomock.Any()).DoAndReturn(func(job dispatch.Job) error {
		if job.ID != orphan.ID {
			t.Errorf("re-submitted %q, want %q", job.ID, orphan.ID)
		}
		return nil
	})

	if err := env.orch.ReconcileDispatch(); err != nil {
		t.Fatal(err)
	}
}

func TestPromoteRetriesResubmitsLostJobs(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	env := newTestEnv(ctrl)

	due := time.Now().Add(-time.Minute)
	entry := env.repo.seed(models.ApplicationEntry{
		UserID: "user-1", JobID: "job-1",
		Status:      models.StatusRetrying,
		Priority:    models.PriorityServer,
		Attempts:    1,
		MaxAttempts: 3,
		NextRetryAt: &due,
		ScheduledAt: due,
	})

	env.dispatch.EXPECT().PromoteDelayed(gomock.Any()).Return(0, nil)
	env.dispatch.EXPECT().Get(entry.ID).Return(dispatch.Job{}, dispatch.ErrNotFound)
	env.dispatch.EXPECT().Submit(gomock.Any()).Return(nil)

	if err := env.orch.PromoteRetries(); err != nil {
		t.Fatal(err)
	}
}

func TestReopenStalledRetries(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	env := newTestEnv(ctrl)

	stale := time.Now().Add(-time.Hour)
	entry := env.repo.seed(models.ApplicationEntry{
		UserID: "user-1", JobID: "job-1",
		Status:      models.StatusProcessing,
		ClaimedBy:   "executor-dead",
		ClaimedAt:   &stale,
		Attempts:    0,
		MaxAttempts: 3,
		ScheduledAt: stale,
	})

	env.dispatch.EXPECT().Submit(gomock.Any()).Return(nil)

	if err := env.orch.ReopenStalled(); err != nil {
		t.Fatal(err)
	}

	stored, _ := env.repo.Get(entry.ID)
	if stored.Status != models.StatusRetrying {
		t.Errorf("status = %q, want %q", stored.Status, models.StatusRetrying)
	}
	if stored.Attempts != 1 {
		t.Errorf("attempts = %d, stall must consume an attempt", stored.Attempts)
	}
	if stored.ClaimedBy != "" {
		t.Error("claim not released")
	}
	if stored.ErrorType != ErrorTypeStalled {
		t.Errorf("error type = %q, want %q", stored.ErrorType, ErrorTypeStalled)
	}
}

func TestReopenStalledExhaustsBudget(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	env := newTestEnv(ctrl)

	stale := time.Now().Add(-time.Hour)
	entry := env.repo.seed(models.ApplicationEntry{
		UserID: "user-1", JobID: "job-1",
		Status:      models.StatusProcessing,
		ClaimedBy:   "executor-dead",
		ClaimedAt:   &stale,
		Attempts:    2,
		MaxAttempts: 3,
		ScheduledAt: stale,
	})

	if err := env.orch.ReopenStalled(); err != nil {
		t.Fatal(err)
	}

	stored, _ := env.repo.Get(entry.ID)
	if stored.Status != models.StatusFailed {
		t.Errorf("status = %q, want %q", stored.Status, models.StatusFailed)
	}
	if stored.Attempts != 3 {
		t.Errorf("attempts = %d, want 3", stored.Attempts)
	}
}

func TestHealthCheckDegradesOnFailureRate(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	env := newTestEnv(ctrl)

	now := time.Now()
	for i := 0; i < 12; i++ {
		status := models.StatusFailed
		if i%4 == 0 {
			status = models.StatusCompleted
		}
		env.repo.seed(models.ApplicationEntry{
			UserID: "user-1", JobID: "job-" + string(rune('a'+i)),
			Status:      status,
			CompletedAt: &now,
			ScheduledAt: now,
		})
	}

	health, err := env.orch.HealthCheck()
	if err != nil {
		t.Fatal(err)
	}
	if health.Status != HealthDegraded {
		t.Errorf("status = %q, want %q (rate %.2f)", health.Status, HealthDegraded, health.FailureRate)
	}
}

func TestHealthCheckUnhealthyWhenAlsoStalled(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	env := newTestEnv(ctrl)

	now := time.Now()
	for i := 0; i < 12; i++ {
		env.repo.seed(models.ApplicationEntry{
			UserID: "user-1", JobID: "job-" + string(rune('a'+i)),
			Status:      models.StatusFailed,
			CompletedAt: &now,
			ScheduledAt: now,
		})
	}
	old := now.Add(-time.Hour)
	env.repo.seed(models.ApplicationEntry{
		UserID: "user-2", JobID: "job-stuck",
		Status:      models.StatusQueued,
		ScheduledAt: old,
	})

	health, err := env.orch.HealthCheck()
	if err != nil {
		t.Fatal(err)
	}
	if health.Status != HealthUnhealthy {
		t.Errorf("status = %q, want %q, issues %v", health.Status, HealthUnhealthy, health.Issues)
	}
}

func TestHealthCheckHealthy(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	env := newTestEnv(ctrl)

	now := time.Now()
	env.repo.seed(models.ApplicationEntry{
		UserID: "user-1", JobID: "job-1",
		Status:      models.StatusQueued,
		ScheduledAt: now,
	})

	health, err := env.orch.HealthCheck()
	if err != nil {
		t.Fatal(err)
	}
	if health.Status != HealthHealthy {
		t.Errorf("status = %q, want %q", health.Status, HealthHealthy)
	}
}
