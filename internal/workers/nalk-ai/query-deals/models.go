// internal/workers/nalk-ai/query-deals/models.go
package querydeals

import "nalk-analytics/internal/models"

type Input struct {
	Filters models.DealFilters `json:"filters"`
	// Fields is the analyzer's field selector; empty or "*" selects all.
	Fields []string `json:"fields"`
}

type Output struct {
	Rows      []models.Deal `json:"rows"`
	RowCount  int           `json:"rowCount"`
	Truncated bool          `json:"truncated"`
	// NoData is set when a date filter matched nothing; AvailablePeriods
	// then lists the "YYYY-MM" months with won deals.
	NoData             bool     `json:"noData"`
	AvailablePeriods   []string `json:"availablePeriods,omitempty"`
	QueryError         string   `json:"queryError,omitempty"`
	QueryExecutionTime int64    `json:"queryExecutionTime"`
}
