package app

import (
	"os"

	log "github.com/sirupsen/logrus"

	"delivery/internal/config"
)

// ConfigureLogger applies level and format settings to the standard logrus logger.
func ConfigureLogger(cfg config.LogConfig) *log.Logger {
	logger := log.StandardLogger()
	logger.SetOutput(os.Stdout)

	if cfg.Format == "text" {
		logger.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	} else {
		logger.SetFormatter(&log.JSONFormatter{})
	}

	level, err := log.ParseLevel(cfg.Level)
	if err != nil {
		level = log.InfoLevel
		logger.WithField("level", cfg.Level).Warn("unknown log level, using info")
	}
	logger.SetLevel(level)

	return logger
}
