// internal/workers/nalk-ai/aggregate-results/models.go
package aggregateresults

import "nalk-analytics/internal/models"

type Input struct {
	Question string        `json:"question"`
	Rows     []models.Deal `json:"rows"`
	// RowCount is the number of rows the query returned; it can exceed
	// len(Rows) when the job payload was trimmed.
	RowCount   int    `json:"rowCount"`
	QueryError string `json:"queryError,omitempty"`
}

type Output struct {
	Aggregation models.AggregationResult `json:"aggregation"`
	Tier        models.AggregationTier   `json:"tier"`
	// Attempts counts LLM calls made by the LLM tier.
	Attempts int `json:"attempts"`
}
