package config

import (
	"github.com/ReconfigureIO/logruzio"
	"github.com/sirupsen/logrus"
)

func SetupLogging(version string, conf *Config) error {
	if conf.Jobswipe.LogzioToken == "" {
		return nil
	}
	ctx := logrus.Fields{
		"Environment": conf.Jobswipe.Env,
		"Version":     version,
		"Application": conf.ProgramName,
	}
	hook, err := logruzio.New(conf.Jobswipe.LogzioToken, conf.ProgramName, ctx)
	if err != nil {
		return err
	}
	logrus.AddHook(hook)
	return nil
}
