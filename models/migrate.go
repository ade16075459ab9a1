package models

import (
	"github.com/jinzhu/gorm"
)

func MigrateAll(db *gorm.DB) {
	db.AutoMigrate(&ApplicationEntry{})
	db.AutoMigrate(&Proxy{})
}
