// internal/workers/nalk-ai/resolve-temporal-filter/models.go
package resolvetemporalfilter

import "nalk-analytics/internal/models"

type Input struct {
	// Period is the temporal phrase extracted by the analyzer.
	Period *string `json:"periodo"`
	// Question is the raw question, scanned for multi-month spans.
	Question string `json:"question"`
}

type Output struct {
	DateRange *models.DateRange `json:"dateRange"`
	Span      bool              `json:"span"`
}
