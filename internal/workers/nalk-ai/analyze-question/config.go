// internal/workers/nalk-ai/analyze-question/config.go
package analyzequestion

import (
	"time"

	"nalk-analytics/internal/common/config"
)

type Config struct {
	Temperature float64
	// MaxAttempts bounds transport retries; unparsable output is never retried.
	MaxAttempts  int
	RetryBackoff time.Duration
	Timeout      time.Duration
}

func LoadConfig(cfg *config.Config) *Config {
	return &Config{
		Temperature:  cfg.Pipeline.AnalyzerTemperature,
		MaxAttempts:  cfg.Pipeline.AnalyzerMaxAttempts,
		RetryBackoff: 500 * time.Millisecond,
		Timeout:      time.Duration(cfg.Pipeline.AnalyzerMaxAttempts+1) * config.GetDuration(cfg.LLM.Timeout),
	}
}
