package api

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/jinzhu/gorm"

	"github.com/jobswipe/platform/service/orchestrator"
	"github.com/jobswipe/platform/service/storage"
	"github.com/jobswipe/platform/sugar"
)

var (
	errNotFound = errors.New("Not Found")

	db *gorm.DB

	queue orchestrator.Service

	artifacts storage.Service
)

// DB sets the database to use for the API.
func DB(d *gorm.DB) {
	db = d
}

// Queue sets the orchestrator behind the API.
func Queue(s orchestrator.Service) {
	queue = s
}

// Artifacts sets the artifact store behind the API.
func Artifacts(s storage.Service) {
	artifacts = s
}

// Transaction runs a transaction, rolling back if error != nil.
func Transaction(c *gin.Context, ops func(db *gorm.DB) error) error {
	tx := db.Begin()
	err := ops(tx)
	if err != nil {
		tx.Rollback()
		c.Error(err)
		sugar.ErrResponse(c, 500, nil)
	} else {
		tx.Commit()
	}
	return err
}

func bindID(c *gin.Context, id *string) bool {
	paramID := c.Param("id")
	if paramID != "" {
		*id = paramID
		return true
	}
	sugar.ErrResponse(c, 404, nil)
	return false
}
