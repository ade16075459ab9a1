package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/jinzhu/gorm"

	"github.com/jobswipe/platform/handlers/api"
)

// SetupRoutes sets up api routes.
func SetupRoutes(r gin.IRouter, db *gorm.DB) {
	health := api.Health{}
	r.GET("/health", health.Status)

	application := api.Application{}
	applicationRoute := r.Group("/applications")
	{
		applicationRoute.POST("", application.Create)
		applicationRoute.GET("/stats", application.Stats)
		applicationRoute.GET("/:id", application.Get)
		applicationRoute.DELETE("/:id", application.Cancel)
		applicationRoute.POST("/:id/claim", application.Claim)
		applicationRoute.POST("/:id/resume", application.Resume)
		applicationRoute.POST("/:id/result", application.Result)
		applicationRoute.PUT("/:id/artifact", application.UploadArtifact)
		applicationRoute.GET("/:id/artifact", application.DownloadArtifact)
	}
}
