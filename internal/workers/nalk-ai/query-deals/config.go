// internal/workers/nalk-ai/query-deals/config.go
package querydeals

import (
	"time"

	"nalk-analytics/internal/common/config"
)

type Config struct {
	DealsTable string
	RowLimit   int
	CacheTTL   time.Duration
	Timeout    time.Duration
}

func LoadConfig(cfg *config.Config) *Config {
	return &Config{
		DealsTable: cfg.Pipeline.DealsTable,
		RowLimit:   cfg.Pipeline.RowLimit,
		CacheTTL:   config.GetDuration(cfg.Pipeline.CacheTTL),
		Timeout:    30 * time.Second,
	}
}
