// internal/workers/nalk-ai/query-deals/queries/columns.go
package queries

import (
	"database/sql"
	"strconv"
	"strings"

	"nalk-analytics/internal/models"
)

// RequiredColumns are always selected because aggregation depends on them.
var RequiredColumns = []string{
	models.ColumnCreatedAt,
	models.ColumnAmount,
	models.ColumnWin,
	models.ColumnHold,
	models.ColumnLostReason,
}

var columnExpressions = map[string]string{
	models.ColumnWin:  "COALESCE(win, false) AS win",
	models.ColumnHold: "COALESCE(hold, false) AS hold",
}

// SelectColumns narrows the field selector to known columns. An empty
// selector, "*" or any unknown name selects every column.
func SelectColumns(fields []string) []string {
	if len(fields) == 0 {
		return models.DealColumns
	}

	wanted := make(map[string]bool, len(fields)+len(RequiredColumns))
	for _, f := range fields {
		f = strings.TrimSpace(f)
		if f == "*" || !isColumn(f) {
			return models.DealColumns
		}
		wanted[f] = true
	}
	for _, c := range RequiredColumns {
		wanted[c] = true
	}

	cols := make([]string, 0, len(wanted))
	for _, c := range models.DealColumns {
		if wanted[c] {
			cols = append(cols, c)
		}
	}
	return cols
}

func isColumn(name string) bool {
	for _, c := range models.DealColumns {
		if c == name {
			return true
		}
	}
	return false
}

func selectList(cols []string) string {
	exprs := make([]string, len(cols))
	for i, c := range cols {
		if expr, ok := columnExpressions[c]; ok {
			exprs[i] = expr
		} else {
			exprs[i] = c
		}
	}
	return strings.Join(exprs, ", ")
}

// dealRow holds nullable scan targets for every column.
type dealRow struct {
	id, name, amount                     sql.NullString
	stage, source, campaign, owner, lost sql.NullString
	createdAt, closedAt                  sql.NullTime
	win, hold                            sql.NullBool
	interactions                         sql.NullInt64
}

func (r *dealRow) targets(cols []string) []interface{} {
	dest := make([]interface{}, len(cols))
	for i, c := range cols {
		switch c {
		case models.ColumnID:
			dest[i] = &r.id
		case models.ColumnName:
			dest[i] = &r.name
		case models.ColumnCreatedAt:
			dest[i] = &r.createdAt
		case models.ColumnClosedAt:
			dest[i] = &r.closedAt
		case models.ColumnAmount:
			dest[i] = &r.amount
		case models.ColumnWin:
			dest[i] = &r.win
		case models.ColumnHold:
			dest[i] = &r.hold
		case models.ColumnStageName:
			dest[i] = &r.stage
		case models.ColumnSourceName:
			dest[i] = &r.source
		case models.ColumnCampaignName:
			dest[i] = &r.campaign
		case models.ColumnOwnerName:
			dest[i] = &r.owner
		case models.ColumnLostReason:
			dest[i] = &r.lost
		case models.ColumnInteractions:
			dest[i] = &r.interactions
		}
	}
	return dest
}

func (r *dealRow) deal() models.Deal {
	d := models.Deal{
		ID:           r.id.String,
		Name:         r.name.String,
		CreatedAt:    r.createdAt.Time,
		Win:          r.win.Bool,
		Hold:         r.hold.Bool,
		StageName:    r.stage.String,
		SourceName:   r.source.String,
		CampaignName: r.campaign.String,
		OwnerName:    r.owner.String,
		Interactions: int(r.interactions.Int64),
	}
	if r.closedAt.Valid {
		t := r.closedAt.Time
		d.ClosedAt = &t
	}
	// numeric arrives as text; unparsable amounts stay nil and count as 0
	if r.amount.Valid {
		if v, err := strconv.ParseFloat(strings.TrimSpace(r.amount.String), 64); err == nil {
			d.Amount = &v
		}
	}
	if r.lost.Valid {
		s := r.lost.String
		d.LostReason = &s
	}
	return d
}
