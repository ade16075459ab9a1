package migration

import (
	"github.com/jinzhu/gorm"
	"gopkg.in/gormigrate.v1"

	"github.com/jobswipe/platform/migration/migration1"
)

// MigrateSchema runs all pending schema migrations.
func MigrateSchema(db *gorm.DB) error {
	m := gormigrate.New(db, gormigrate.DefaultOptions, []*gormigrate.Migration{
		&migration1.Migration,
	})
	return m.Migrate()
}
