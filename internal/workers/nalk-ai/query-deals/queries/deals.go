// internal/workers/nalk-ai/query-deals/queries/deals.go
package queries

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"nalk-analytics/internal/models"
)

// BuildDealsQuery returns the bounded deals query and its arguments.
func BuildDealsQuery(p Params) (string, []interface{}) {
	cols := p.Columns
	if len(cols) == 0 {
		cols = models.DealColumns
	}

	var where []string
	var args []interface{}
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if dr := p.Filters.DateRange; dr != nil {
		where = append(where, "created_at >= "+arg(dr.Gte))
		where = append(where, "created_at < "+arg(dr.Lt))
	}

	switch p.Filters.Status {
	case models.StatusClosed:
		where = append(where, "COALESCE(win, false) = true")
	case models.StatusLost, models.StatusInProgress:
		// em_andamento maps to the same predicate as perdidos
		where = append(where, "COALESCE(win, false) = false", "COALESCE(hold, false) = false")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "SELECT %s FROM %s", selectList(cols), p.Table)
	if len(where) > 0 {
		b.WriteString(" WHERE ")
		b.WriteString(strings.Join(where, " AND "))
	}
	b.WriteString(" ORDER BY created_at DESC LIMIT ")
	b.WriteString(arg(p.Limit))

	return b.String(), args
}

// Deals returns []models.Deal capped at p.Limit rows.
func Deals(ctx context.Context, db *sql.DB, p Params) (interface{}, int, error) {
	cols := p.Columns
	if len(cols) == 0 {
		cols = models.DealColumns
	}
	p.Columns = cols

	query, args := BuildDealsQuery(p)
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	deals := make([]models.Deal, 0)
	for rows.Next() {
		var r dealRow
		if err := rows.Scan(r.targets(cols)...); err != nil {
			return nil, 0, err
		}
		deals = append(deals, r.deal())
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return deals, len(deals), nil
}

// AvailablePeriods returns the "YYYY-MM" months that have won deals.
func AvailablePeriods(ctx context.Context, db *sql.DB, p Params) (interface{}, int, error) {
	rows, err := db.QueryContext(ctx, fmt.Sprintf(`
		SELECT DISTINCT to_char(date_trunc('month', created_at), 'YYYY-MM') AS period
		FROM %s
		WHERE COALESCE(win, false) = true AND created_at IS NOT NULL
		ORDER BY period`, p.Table))
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	periods := make([]string, 0)
	for rows.Next() {
		var period string
		if err := rows.Scan(&period); err != nil {
			return nil, 0, err
		}
		periods = append(periods, period)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return periods, len(periods), nil
}

// DateBounds returns models.DateBounds for the whole table.
func DateBounds(ctx context.Context, db *sql.DB, p Params) (interface{}, int, error) {
	var earliest, latest sql.NullTime
	err := db.QueryRowContext(ctx,
		fmt.Sprintf("SELECT MIN(created_at), MAX(created_at) FROM %s", p.Table),
	).Scan(&earliest, &latest)
	if err != nil {
		return nil, 0, err
	}

	bounds := models.DateBounds{}
	if earliest.Valid && latest.Valid {
		e, l := earliest.Time, latest.Time
		bounds.Earliest, bounds.Latest = &e, &l
		return bounds, 1, nil
	}
	return bounds, 0, nil
}

// SampleRow returns the most recent deal, or nil for an empty table.
func SampleRow(ctx context.Context, db *sql.DB, p Params) (interface{}, int, error) {
	cols := models.DealColumns
	var r dealRow
	err := db.QueryRowContext(ctx,
		fmt.Sprintf("SELECT %s FROM %s ORDER BY created_at DESC LIMIT 1", selectList(cols), p.Table),
	).Scan(r.targets(cols)...)
	if err == sql.ErrNoRows {
		return (*models.Deal)(nil), 0, nil
	}
	if err != nil {
		return nil, 0, err
	}
	d := r.deal()
	return &d, 1, nil
}
