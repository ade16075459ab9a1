package api

import (
	"github.com/gin-gonic/gin"

	"github.com/jobswipe/platform/service/orchestrator"
	"github.com/jobswipe/platform/sugar"
)

// Health reports queue health for load balancers and monitors.
type Health struct{}

// Status responds 200 while the queue is healthy or degraded and 503 once
// it is unhealthy, so routing drops the instance before users notice.
func (h Health) Status(c *gin.Context) {
	if err := db.DB().Ping(); err != nil {
		sugar.ErrResponse(c, 503, "database unreachable")
		return
	}

	health, err := queue.HealthCheck()
	if err != nil {
		sugar.InternalError(c, err)
		return
	}

	code := 200
	if health.Status == orchestrator.HealthUnhealthy {
		code = 503
	}
	c.JSON(code, health)
}
