// internal/workers/nalk-ai/compose-answer/config.go
package composeanswer

import (
	"time"

	"nalk-analytics/internal/common/config"
)

type Config struct {
	Temperature float64
	Timeout     time.Duration
}

func LoadConfig(cfg *config.Config) *Config {
	return &Config{
		Temperature: cfg.Pipeline.ComposerTemperature,
		Timeout:     config.GetDuration(cfg.LLM.Timeout) + 5*time.Second,
	}
}
