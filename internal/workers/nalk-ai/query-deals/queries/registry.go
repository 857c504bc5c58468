// internal/workers/nalk-ai/query-deals/queries/registry.go
package queries

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"nalk-analytics/internal/common/database"
	"nalk-analytics/internal/models"
)

var (
	ErrUnknownQueryType = errors.New("unknown query type")
	ErrInvalidTable     = errors.New("invalid table name")
)

// Params are shared by every query; each query reads what it needs.
type Params struct {
	Table   string
	Columns []string
	Filters models.DealFilters
	Limit   int
}

// QueryFunc returns the decoded result and its row count.
type QueryFunc func(ctx context.Context, db *sql.DB, p Params) (interface{}, int, error)

var Registry = map[models.QueryType]QueryFunc{
	models.QueryTypeDeals:            Deals,
	models.QueryTypeAvailablePeriods: AvailablePeriods,
	models.QueryTypeDateRange:        DateBounds,
	models.QueryTypeSampleRow:        SampleRow,
}

func Execute(ctx context.Context, db *sql.DB, queryType models.QueryType, p Params) (interface{}, int, error) {
	fn, exists := Registry[queryType]
	if !exists {
		return nil, 0, fmt.Errorf("%w: %s", ErrUnknownQueryType, queryType)
	}
	if !database.ValidIdentifier(p.Table) {
		return nil, 0, fmt.Errorf("%w: %q", ErrInvalidTable, p.Table)
	}
	return fn(ctx, db, p)
}
