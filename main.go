package main

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	_ "github.com/jinzhu/gorm/dialects/postgres"
	log "github.com/sirupsen/logrus"

	"github.com/jobswipe/platform/config"
	"github.com/jobswipe/platform/handlers/api"
	"github.com/jobswipe/platform/migration"
	"github.com/jobswipe/platform/models"
	"github.com/jobswipe/platform/routes"
	"github.com/jobswipe/platform/service/dispatch"
	"github.com/jobswipe/platform/service/eligibility"
	"github.com/jobswipe/platform/service/events"
	"github.com/jobswipe/platform/service/orchestrator"
	"github.com/jobswipe/platform/service/proxypool"
	"github.com/jobswipe/platform/service/storage"
	"github.com/jobswipe/platform/service/storage/localfile"
	"github.com/jobswipe/platform/service/storage/s3"
)

var version string

func main() {
	conf, err := config.ParseEnvConfig()
	if err != nil {
		log.Fatal(err)
	}

	if err := config.SetupLogging(version, conf); err != nil {
		log.Fatal(err)
	}

	db := config.SetupDB(conf)
	defer db.Close()

	if conf.Jobswipe.PlatformMigrate {
		if err := migration.MigrateSchema(db); err != nil {
			log.Fatalf("migration failed: %v", err)
		}
	}

	dispatchQueue, err := dispatch.New(conf.RedisUrl, conf.Jobswipe.Dispatch)
	if err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}
	defer dispatchQueue.Close()

	applicationRepo := models.ApplicationDataSource(db)
	proxyRepo := models.ProxyDataSource(db)

	var notifier events.Notifier = events.LogNotifier{}
	if conf.Jobswipe.Intercom.AccessToken != "" {
		notifier = events.NewIntercomNotifier(conf.Jobswipe.Intercom)
	}
	eventService := events.NewEventService(notifier, 100)
	defer eventService.Close()
	go eventService.DrainEvents()

	queue := orchestrator.New(
		applicationRepo,
		dispatchQueue,
		eligibility.New(applicationRepo, conf.Jobswipe.Eligibility),
		proxypool.New(proxyRepo),
		eventService,
		conf.Jobswipe.Orchestrator,
	)

	var artifacts storage.Service
	switch conf.Jobswipe.StorageBackend {
	case "s3":
		artifacts = s3.New(conf.Jobswipe.S3)
	default:
		artifacts = localfile.Service(conf.Jobswipe.StorageDir)
	}

	api.DB(db)
	api.Queue(queue)
	api.Artifacts(artifacts)

	r := gin.Default()
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowAllOrigins = true
	corsConfig.AllowHeaders = append(corsConfig.AllowHeaders, "Authorization")
	r.Use(cors.New(corsConfig))

	routes.SetupRoutes(r, db)

	log.WithFields(log.Fields{"env": conf.Jobswipe.Env, "port": conf.Port}).Info("starting api")
	if err := r.Run(":" + conf.Port); err != nil {
		log.Fatal(err)
	}
}
