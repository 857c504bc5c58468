// internal/models/query_types.go
package models

// QueryType names a read query against the deals table.
type QueryType string

const (
	QueryTypeDeals            QueryType = "deals"
	QueryTypeAvailablePeriods QueryType = "available_periods"
	QueryTypeDateRange        QueryType = "date_range"
	QueryTypeSampleRow        QueryType = "sample_row"
)
