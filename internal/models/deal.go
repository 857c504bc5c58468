// internal/models/deal.go
package models

import "time"

// Column names of the deals table.
const (
	ColumnID           = "id"
	ColumnName         = "name"
	ColumnCreatedAt    = "created_at"
	ColumnClosedAt     = "closed_at"
	ColumnAmount       = "deal_amount_total"
	ColumnWin          = "win"
	ColumnHold         = "hold"
	ColumnStageName    = "deal_stage_name"
	ColumnSourceName   = "deal_source_name"
	ColumnCampaignName = "campaign_name"
	ColumnOwnerName    = "user_name"
	ColumnLostReason   = "deal_lost_reason_name"
	ColumnInteractions = "interactions"
)

// DealColumns lists every readable column in table order.
var DealColumns = []string{
	ColumnID, ColumnName, ColumnCreatedAt, ColumnClosedAt, ColumnAmount,
	ColumnWin, ColumnHold, ColumnStageName, ColumnSourceName,
	ColumnCampaignName, ColumnOwnerName, ColumnLostReason, ColumnInteractions,
}

// DealStatus is derived from win/hold; exactly one applies to every deal.
type DealStatus string

const (
	DealWon    DealStatus = "won"
	DealLost   DealStatus = "lost"
	DealOnHold DealStatus = "on-hold"
)

// Deal is a read-only row of the deals table. Columns that were not selected
// keep their zero value.
type Deal struct {
	ID           string     `json:"id,omitempty"`
	Name         string     `json:"name,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	ClosedAt     *time.Time `json:"closed_at,omitempty"`
	Amount       *float64   `json:"deal_amount_total"`
	Win          bool       `json:"win"`
	Hold         bool       `json:"hold"`
	StageName    string     `json:"deal_stage_name,omitempty"`
	SourceName   string     `json:"deal_source_name,omitempty"`
	CampaignName string     `json:"campaign_name,omitempty"`
	OwnerName    string     `json:"user_name,omitempty"`
	LostReason   *string    `json:"deal_lost_reason_name"`
	Interactions int        `json:"interactions,omitempty"`
}

func (d Deal) Status() DealStatus {
	switch {
	case d.Win:
		return DealWon
	case d.Hold:
		return DealOnHold
	default:
		return DealLost
	}
}

// AmountOrZero coerces a missing amount to 0.
func (d Deal) AmountOrZero() float64 {
	if d.Amount == nil {
		return 0
	}
	return *d.Amount
}

// DateBounds is the earliest and latest deal creation time; both are nil
// when the table is empty.
type DateBounds struct {
	Earliest *time.Time `json:"earliest"`
	Latest   *time.Time `json:"latest"`
}

func (b DateBounds) Empty() bool {
	return b.Earliest == nil || b.Latest == nil
}
