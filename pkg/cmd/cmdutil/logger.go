package cmdutil

import (
	"fmt"
	"io"
	"os"

	"github.com/dbsDevelops/f1-24-setup-recommender/log"
	"github.com/dbsDevelops/f1-24-setup-recommender/pkg/config"
)

const (
	logFileSizeMB  = 50
	logFileBackups = 5
)

func ParseLogLevel(l string, defaultVal log.Level) log.Level {
	level, err := log.ParseLevel(l)
	if err != nil {
		return defaultVal
	}
	return level
}

// SetupLogger creates the application logger from the log flags and installs
// it as default logger.
func SetupLogger() (*log.Logger, error) {
	logger, err := newLogger(config.LogLevel)
	if err != nil {
		return nil, err
	}
	log.ResetDefault(logger)
	return logger, nil
}

// SQLLogger creates the logger used by the database tracer.
func SQLLogger() (*log.Logger, error) {
	l, err := newLogger(config.SQLLogLevel)
	if err != nil {
		return nil, err
	}
	return l.Named("sql"), nil
}

// newLogger uses level unless a log config file is given. The config file
// then decides the level per logger name.
func newLogger(level string) (*log.Logger, error) {
	var writer io.Writer = os.Stderr
	if config.LogFile != "" {
		writer = log.FileWriter(config.LogFile, logFileSizeMB, logFileBackups)
	}
	opts := []log.Option{log.WithCaller(true), log.AddCallerSkip(1)}
	var lvl log.Level
	if config.LogFormat == "json" {
		lvl = ParseLogLevel(level, log.InfoLevel)
	} else {
		lvl = ParseLogLevel(level, log.DebugLevel)
	}
	if config.LogConfig != "" {
		cfg, err := log.LoadConfig(config.LogConfig)
		if err != nil {
			return nil, fmt.Errorf("could not load log config: %w", err)
		}
		filter, err := cfg.Filter()
		if err != nil {
			return nil, err
		}
		if lvl, err = cfg.MinLevel(); err != nil {
			return nil, err
		}
		opts = append(opts, log.WithFilter(filter))
	}
	if config.LogFormat == "json" {
		return log.New(writer, lvl, opts...), nil
	}
	return log.DevLogger(writer, lvl, opts...), nil
}
