package migration1

import (
	"time"

	"github.com/jinzhu/gorm"
	_ "github.com/jinzhu/gorm/dialects/postgres"
	"gopkg.in/gormigrate.v1"
)

// Snapshot of the models at the time of this migration.

type ApplicationEntry struct {
	ID            string `gorm:"primary_key"`
	UserID        string `gorm:"not null;index"`
	JobID         string `gorm:"not null;index"`
	Status        string `gorm:"not null;index"`
	Priority      int
	ExecutionMode string
	Attempts      int
	MaxAttempts   int
	ClaimedBy     string
	ClaimedAt     *time.Time
	ScheduledAt   time.Time
	StartedAt     *time.Time
	CompletedAt   *time.Time
	NextRetryAt   *time.Time
	ProxyID       string
	Payload       string `sql:"type:JSONB NOT NULL DEFAULT '{}'::JSONB"`
	Result        string `sql:"type:JSONB"`
	ErrorType     string
	ErrorMessage  string
	Token         string
}

type Proxy struct {
	ID                 string `gorm:"primary_key"`
	Host               string `gorm:"not null"`
	Port               int    `gorm:"not null"`
	Username           string
	Password           string
	Type               string
	Country            string
	IsActive           bool
	FailureCount       int
	SuccessRate        float64
	RequestsPerHour    int
	DailyLimit         int
	CurrentHourlyUsage int
	CurrentDailyUsage  int
	LastUsedAt         *time.Time
	CreatedAt          time.Time
}

var Migration = gormigrate.Migration{
	ID: "1",
	Migrate: func(tx *gorm.DB) error {
		err := tx.AutoMigrate(&ApplicationEntry{}).Error
		if err != nil {
			return err
		}
		err = tx.AutoMigrate(&Proxy{}).Error
		if err != nil {
			return err
		}
		// One non-terminal entry per (user, job). Terminal entries do not
		// block re-enqueue, so the unique index is partial.
		return tx.Exec(`
CREATE UNIQUE INDEX IF NOT EXISTS idx_application_entries_user_job_open
ON application_entries (user_id, job_id)
WHERE status NOT IN ('COMPLETED', 'FAILED', 'CANCELLED')
`).Error
	},
	Rollback: func(tx *gorm.DB) error {
		err := tx.Exec(`DROP INDEX IF EXISTS idx_application_entries_user_job_open`).Error
		if err != nil {
			return err
		}
		err = tx.DropTableIfExists(&ApplicationEntry{}).Error
		if err != nil {
			return err
		}
		return tx.DropTableIfExists(&Proxy{}).Error
	},
}
