// internal/workers/nalk-ai/log-interaction/config.go
package loginteraction

import (
	"time"

	"nalk-analytics/internal/common/config"
)

type Config struct {
	InteractionsTable string
	WriteTimeout      time.Duration
}

func LoadConfig(cfg *config.Config) *Config {
	return &Config{
		InteractionsTable: cfg.Pipeline.InteractionsTable,
		WriteTimeout:      config.GetDuration(cfg.Pipeline.LogWriteTimeout),
	}
}
