package main

import (
	"os"
	"time"

	"github.com/jinzhu/gorm"
	_ "github.com/jinzhu/gorm/dialects/postgres"
	"github.com/robfig/cron"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/jobswipe/platform/config"
	"github.com/jobswipe/platform/models"
	"github.com/jobswipe/platform/service/dispatch"
	"github.com/jobswipe/platform/service/eligibility"
	"github.com/jobswipe/platform/service/events"
	"github.com/jobswipe/platform/service/orchestrator"
	"github.com/jobswipe/platform/service/proxypool"
)

var (
	db *gorm.DB

	queue *orchestrator.Orchestrator

	proxies proxypool.Service

	RootCmd = &cobra.Command{
		Use:              "cron",
		Short:            "Background sweeps for the jobswipe application queue",
		PersistentPreRun: setup,
	}

	version string
)

func setup(*cobra.Command, []string) {
	conf, err := config.ParseEnvConfig()
	if err != nil {
		log.Fatal(err)
	}

	if err := config.SetupLogging(version, conf); err != nil {
		log.Fatal(err)
	}

	db = config.SetupDB(conf)

	dispatchQueue, err := dispatch.New(conf.RedisUrl, conf.Jobswipe.Dispatch)
	if err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}

	applicationRepo := models.ApplicationDataSource(db)
	proxies = proxypool.New(models.ProxyDataSource(db))

	eventService := events.NewEventService(events.LogNotifier{}, 100)
	go eventService.DrainEvents()

	queue = orchestrator.New(
		applicationRepo,
		dispatchQueue,
		eligibility.New(applicationRepo, conf.Jobswipe.Eligibility),
		proxies,
		eventService,
		conf.Jobswipe.Orchestrator,
	)
}

func main() {
	RootCmd.AddCommand(commands...)

	if err := RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var commands = []*cobra.Command{
	&cobra.Command{
		Use:   "health",
		Short: "Check queue health",
		Run: func(*cobra.Command, []string) {
			healthCmd()
		},
	},
	&cobra.Command{
		Use:   "cron",
		Short: "Start the sweep worker",
		Run: func(*cobra.Command, []string) {
			cronCmd()
		},
	},
}

func healthCmd() {
	if err := db.DB().Ping(); err != nil {
		exitWithErr("error connecting to db")
	}

	health, err := queue.HealthCheck()
	if err != nil {
		exitWithErr(err)
	}
	log.WithFields(log.Fields{"status": health.Status, "issues": health.Issues}).Info("queue health")
	if health.Status == orchestrator.HealthUnhealthy {
		os.Exit(1)
	}
}

func cronCmd() {
	worker := cron.New()
	schedule := func(d time.Duration, f func()) {
		worker.Schedule(cron.Every(d), cron.FuncJob(f))
	}

	schedule(30*time.Second, promoteRetries)
	schedule(time.Minute, reconcileDispatch)
	schedule(time.Minute, reopenStalled)
	worker.AddFunc("@hourly", resetHourlyProxyUsage)
	worker.AddFunc("@daily", resetDailyProxyUsage)

	worker.Start()
	log.Printf("starting workers")

	waitForever := make(chan struct{})
	<-waitForever
}

func reconcileDispatch() {
	if err := queue.ReconcileDispatch(); err != nil {
		log.Errorf("reconcile dispatch: %s", err)
	}
}

func promoteRetries() {
	if err := queue.PromoteRetries(); err != nil {
		log.Errorf("promote retries: %s", err)
	}
}

func reopenStalled() {
	if err := queue.ReopenStalled(); err != nil {
		log.Errorf("reopen stalled: %s", err)
	}
}

func resetHourlyProxyUsage() {
	if err := proxies.ResetHourlyUsage(); err != nil {
		log.Errorf("reset hourly proxy usage: %s", err)
	}
}

func resetDailyProxyUsage() {
	if err := proxies.ResetDailyUsage(); err != nil {
		log.Errorf("reset daily proxy usage: %s", err)
	}
}

func exitWithErr(err interface{}) {
	log.Error(err)
	os.Exit(1)
}
