// internal/workers/nalk-ai/resolve-temporal-filter/config.go
package resolvetemporalfilter

import (
	"time"

	"nalk-analytics/internal/common/config"
)

type Config struct {
	// ReferenceYear is the year every month phrase resolves to.
	ReferenceYear int
	Location      *time.Location
	Timeout       time.Duration
}

func LoadConfig(cfg *config.Config) *Config {
	return &Config{
		ReferenceYear: cfg.Pipeline.ReferenceYear,
		Location:      cfg.Pipeline.Location(),
		Timeout:       5 * time.Second,
	}
}
