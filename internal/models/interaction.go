// internal/models/interaction.go
package models

import "time"

// DateRange is a half-open interval [Gte, Lt) on deal creation time.
type DateRange struct {
	Gte   time.Time `json:"gte"`
	Lt    time.Time `json:"lt"`
	Label string    `json:"label"`
}

// DealFilters are the predicates applied to the deals query.
type DealFilters struct {
	Status    StatusFilter `json:"status,omitempty"`
	DateRange *DateRange   `json:"dateRange,omitempty"`
}

// Pipeline outcomes, also used as metric labels.
const (
	OutcomeAnswered  = "answered"
	OutcomeNoData    = "no_data"
	OutcomeDateRange = "date_range"
	OutcomeDegraded  = "degraded"
	OutcomeFailed    = "failed"
)

// QuerySummary is the serialized query/aggregation descriptor stored with
// each interaction.
type QuerySummary struct {
	Outcome     string             `json:"outcome"`
	Filters     DealFilters        `json:"filters"`
	RowCount    int                `json:"rowCount"`
	QueryError  string             `json:"queryError,omitempty"`
	Tier        AggregationTier    `json:"tier,omitempty"`
	Analysis    *Analysis          `json:"analysis,omitempty"`
	Aggregation *AggregationResult `json:"aggregation,omitempty"`
	Periods     []string           `json:"availablePeriods,omitempty"`
}

// InteractionLogEntry is one append-only audit record.
type InteractionLogEntry struct {
	ID           string       `json:"id"`
	Question     string       `json:"question"`
	Prompt       string       `json:"prompt"`
	Answer       string       `json:"answer"`
	QuerySummary QuerySummary `json:"querySummary"`
	CreatedAt    time.Time    `json:"createdAt"`
}
