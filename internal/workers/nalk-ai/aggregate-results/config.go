// internal/workers/nalk-ai/aggregate-results/config.go
package aggregateresults

import (
	"time"

	"nalk-analytics/internal/common/config"
)

type Config struct {
	Temperature    float64
	MaxAttempts    int
	PromptRowLimit int
	// Location decides which calendar month a deal belongs to.
	Location *time.Location
	Timeout  time.Duration
}

func LoadConfig(cfg *config.Config) *Config {
	return &Config{
		Temperature:    cfg.Pipeline.AggregationTemperature,
		MaxAttempts:    cfg.Pipeline.AggregationMaxAttempts,
		PromptRowLimit: cfg.Pipeline.PromptRowLimit,
		Location:       cfg.Pipeline.Location(),
		Timeout:        time.Duration(cfg.Pipeline.AggregationMaxAttempts+1) * config.GetDuration(cfg.LLM.Timeout),
	}
}
