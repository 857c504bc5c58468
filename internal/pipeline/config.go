// internal/pipeline/config.go
package pipeline

import (
	"time"

	"nalk-analytics/internal/common/config"
)

type Config struct {
	// Timeout bounds one whole run.
	Timeout  time.Duration
	Location *time.Location
}

func LoadConfig(cfg *config.Config) *Config {
	timeout := config.GetDuration(cfg.Server.RequestTimeout)
	if timeout <= 0 {
		timeout = 90 * time.Second
	}
	return &Config{
		Timeout:  timeout,
		Location: cfg.Pipeline.Location(),
	}
}
