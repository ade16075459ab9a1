package api

import (
	"fmt"
	"io"

	"github.com/gin-gonic/gin"
	"github.com/jinzhu/gorm"

	"github.com/jobswipe/platform/service/orchestrator"
	"github.com/jobswipe/platform/service/proxypool"
	"github.com/jobswipe/platform/sugar"
)

// Application handles requests for application queue entries.
type Application struct{}

// Create enqueues a new application. Re-posting the same (user, job) pair
// while an entry is in flight returns the existing entry.
func (a Application) Create(c *gin.Context) {
	req := orchestrator.EnqueueRequest{}
	if err := c.BindJSON(&req); err != nil {
		sugar.ErrResponse(c, 400, err)
		return
	}

	entry, err := queue.Enqueue(req)
	if err != nil {
		queueError(c, err)
		return
	}
	sugar.SuccessResponse(c, 201, entry)
}

// Get fetches one entry with its current status.
func (a Application) Get(c *gin.Context) {
	var id string
	if !bindID(c, &id) {
		return
	}

	entry, err := queue.GetStatus(id)
	if err != nil {
		sugar.NotFoundOrError(c, err)
		return
	}
	sugar.SuccessResponse(c, 200, entry)
}

// Cancel cancels a queued entry on behalf of its owner.
func (a Application) Cancel(c *gin.Context) {
	var id string
	if !bindID(c, &id) {
		return
	}
	userID := c.Query("user_id")
	if userID == "" {
		sugar.ErrResponse(c, 400, "user_id required")
		return
	}

	result, err := queue.Cancel(id, userID)
	if err != nil {
		queueError(c, err)
		return
	}
	sugar.SuccessResponse(c, 200, result)
}

type executorRequest struct {
	ExecutorID string `json:"executor_id" validate:"nonzero"`
}

// Claim hands the entry to the calling executor.
func (a Application) Claim(c *gin.Context) {
	var id string
	if !bindID(c, &id) {
		return
	}
	req := executorRequest{}
	c.BindJSON(&req)
	if !sugar.ValidateRequest(c, req) {
		return
	}

	result, err := queue.Claim(id, req.ExecutorID)
	if err != nil {
		queueError(c, err)
		return
	}
	sugar.SuccessResponse(c, 200, result)
}

// Resume moves a suspended entry back to processing.
func (a Application) Resume(c *gin.Context) {
	var id string
	if !bindID(c, &id) {
		return
	}
	req := executorRequest{}
	c.BindJSON(&req)
	if !sugar.ValidateRequest(c, req) {
		return
	}

	if err := queue.Resume(id, req.ExecutorID); err != nil {
		queueError(c, err)
		return
	}
	sugar.SuccessResponse(c, 200, nil)
}

type resultRequest struct {
	ExecutorID string `json:"executor_id" validate:"nonzero"`
	orchestrator.ResultReport
}

// Result records an execution outcome from an executor.
func (a Application) Result(c *gin.Context) {
	var id string
	if !bindID(c, &id) {
		return
	}
	req := resultRequest{}
	c.BindJSON(&req)
	if !sugar.ValidateRequest(c, req) {
		return
	}

	if err := queue.ReportResult(id, req.ExecutorID, req.ResultReport); err != nil {
		queueError(c, err)
		return
	}
	sugar.SuccessResponse(c, 200, nil)
}

// Stats reports aggregate queue counts.
func (a Application) Stats(c *gin.Context) {
	stats, err := queue.Stats()
	if err != nil {
		sugar.InternalError(c, err)
		return
	}
	sugar.SuccessResponse(c, 200, stats)
}

// UploadArtifact stores the raw artifact produced by an execution, such as
// a filled-form screenshot bundle. Executors authenticate with the entry
// token handed out at claim time.
func (a Application) UploadArtifact(c *gin.Context) {
	var id string
	if !bindID(c, &id) {
		return
	}
	entry, err := queue.GetStatus(id)
	if err != nil {
		sugar.NotFoundOrError(c, err)
		return
	}
	if c.Query("token") != entry.Token {
		sugar.ErrResponse(c, 404, nil)
		return
	}

	key := artifactKey(id)
	url, err := artifacts.Upload(key, c.Request.Body, c.Request.ContentLength)
	if err != nil {
		sugar.InternalError(c, err)
		return
	}
	sugar.SuccessResponse(c, 200, sugar.M{"artifact_url": url})
}

// DownloadArtifact streams a previously uploaded artifact.
func (a Application) DownloadArtifact(c *gin.Context) {
	var id string
	if !bindID(c, &id) {
		return
	}
	if _, err := queue.GetStatus(id); err != nil {
		sugar.NotFoundOrError(c, err)
		return
	}

	reader, err := artifacts.Download(artifactKey(id))
	if err != nil {
		sugar.NotFoundOrError(c, err)
		return
	}
	defer reader.Close()

	c.Header("Content-Type", "application/octet-stream")
	c.Status(200)
	if _, err := io.Copy(c.Writer, reader); err != nil {
		c.Error(err)
	}
}

func artifactKey(id string) string {
	return fmt.Sprintf("applications/%s/artifact.tar.gz", id)
}

// queueError maps orchestrator errors onto API responses.
func queueError(c *gin.Context, err error) {
	switch {
	case err == gorm.ErrRecordNotFound:
		sugar.ErrResponse(c, 404, nil)
	case orchestrator.IsValidation(err):
		sugar.ErrResponse(c, 400, err)
	case err == orchestrator.ErrTerminal:
		sugar.ErrResponse(c, 410, err)
	case err == orchestrator.ErrNotClaimedByYou:
		sugar.ErrResponse(c, 403, err)
	case err == orchestrator.ErrAlreadyClaimed,
		err == orchestrator.ErrNotClaimable,
		err == orchestrator.ErrNotSuspended:
		sugar.ErrResponse(c, 409, err)
	case err == proxypool.ErrNoProxyAvailable:
		sugar.ErrResponse(c, 503, err)
	default:
		sugar.InternalError(c, err)
	}
}
