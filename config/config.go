package config

import (
	"github.com/caarlos0/env"

	"github.com/jobswipe/platform/service/dispatch"
	"github.com/jobswipe/platform/service/eligibility"
	"github.com/jobswipe/platform/service/events"
	"github.com/jobswipe/platform/service/orchestrator"
	"github.com/jobswipe/platform/service/storage/s3"
)

type Config struct {
	ProgramName string         `env:"JOBSWIPE_NAME" envDefault:"jobswipe-api"`
	DbUrl       string         `env:"DATABASE_URL"`
	RedisUrl    string         `env:"REDIS_URL" envDefault:"redis://localhost:6379"`
	SecretKey   string         `env:"SECRET_KEY_BASE"`
	Port        string         `env:"PORT" envDefault:"8080"`
	Host        string         `env:"JOBSWIPE_HOST_NAME"`
	Jobswipe    JobswipeConfig `env:"JOBSWIPE"`
}

type JobswipeConfig struct {
	Env             string `env:"JOBSWIPE_ENV" envDefault:"development"`
	PlatformMigrate bool   `env:"JOBSWIPE_PLATFORM_MIGRATE"`
	LogzioToken     string `env:"LOGZIO_TOKEN"`
	StorageBackend  string `env:"JOBSWIPE_STORAGE_BACKEND" envDefault:"localfile"`
	StorageDir      string `env:"JOBSWIPE_STORAGE_DIR" envDefault:"/tmp/jobswipe-artifacts"`
	Dispatch        dispatch.ServiceConfig
	Eligibility     eligibility.ServiceConfig
	Intercom        events.IntercomConfig
	Orchestrator    orchestrator.ServiceConfig
	S3              s3.ServiceConfig
}

func ParseEnvConfig() (*Config, error) {
	conf := Config{}

	err := env.Parse(&conf)
	if err != nil {
		return nil, err
	}

	err = env.Parse(&conf.Jobswipe)
	if err != nil {
		return nil, err
	}

	err = env.Parse(&conf.Jobswipe.Dispatch)
	if err != nil {
		return nil, err
	}

	err = env.Parse(&conf.Jobswipe.Eligibility)
	if err != nil {
		return nil, err
	}

	err = env.Parse(&conf.Jobswipe.Intercom)
	if err != nil {
		return nil, err
	}

	err = env.Parse(&conf.Jobswipe.Orchestrator)
	if err != nil {
		return nil, err
	}

	err = env.Parse(&conf.Jobswipe.S3)
	if err != nil {
		return nil, err
	}

	return &conf, nil
}
