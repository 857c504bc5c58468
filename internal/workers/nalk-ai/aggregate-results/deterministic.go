// internal/workers/nalk-ai/aggregate-results/deterministic.go
package aggregateresults

import (
	"sort"
	"strings"
	"time"

	"nalk-analytics/internal/models"
	resolvetemporalfilter "nalk-analytics/internal/workers/nalk-ai/resolve-temporal-filter"
)

const (
	UnspecifiedReason = "Motivo não especificado"
	maxLossReasons    = 5
)

var revenueWords = []string{"vendido", "fechado", "vendas"}

func asksLossReasons(lower string) bool {
	return strings.Contains(lower, "motivo") && strings.Contains(lower, "perda")
}

func asksRevenue(lower string) bool {
	if !strings.Contains(lower, "valor") {
		return false
	}
	for _, w := range revenueWords {
		if strings.Contains(lower, w) {
			return true
		}
	}
	return false
}

// DeterministicAggregate answers the question patterns that need no model:
// loss-reason ranking and revenue totals. It returns nil when the question
// matches neither.
func DeterministicAggregate(question string, rows []models.Deal, loc *time.Location) *models.AggregationResult {
	lower := strings.ToLower(question)

	switch {
	case asksLossReasons(lower):
		return &models.AggregationResult{
			Kind:        models.KindLossReasons,
			LossReasons: lossReasons(rows),
		}
	case asksRevenue(lower):
		if months := resolvetemporalfilter.MentionedMonths(question); len(months) >= 2 {
			return &models.AggregationResult{
				Kind:    models.KindMonthlyRevenue,
				Monthly: monthlyRevenue(rows, months, loc),
			}
		}
		return &models.AggregationResult{
			Kind:    models.KindRevenue,
			Revenue: []models.RevenueSummary{revenueSummary(rows)},
		}
	}
	return nil
}

// fallbackAggregate never returns nil.
func fallbackAggregate(question string, rows []models.Deal, loc *time.Location) *models.AggregationResult {
	if res := DeterministicAggregate(question, rows, loc); res != nil {
		return res
	}
	return &models.AggregationResult{
		Kind:  models.KindGeneralStats,
		Stats: []models.GeneralStats{generalStats(rows)},
	}
}

func reasonLabel(r *string) string {
	if r == nil {
		return UnspecifiedReason
	}
	s := strings.TrimSpace(*r)
	if s == "" || strings.EqualFold(s, "null") {
		return UnspecifiedReason
	}
	return s
}

func lossReasons(rows []models.Deal) []models.LossReasonCount {
	counts := make(map[string]int)
	for _, d := range rows {
		if d.Status() != models.DealLost {
			continue
		}
		counts[reasonLabel(d.LostReason)]++
	}

	out := make([]models.LossReasonCount, 0, len(counts))
	for reason, n := range counts {
		out = append(out, models.LossReasonCount{Reason: reason, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Reason < out[j].Reason
	})
	if len(out) > maxLossReasons {
		out = out[:maxLossReasons]
	}
	return out
}

func revenueSummary(rows []models.Deal) models.RevenueSummary {
	s := models.RevenueSummary{TotalDeals: len(rows)}
	for _, d := range rows {
		if d.Win {
			s.TotalValue += d.AmountOrZero()
			s.ClosedDeals++
		}
	}
	return s
}

// monthlyRevenue emits one entry per requested month that has rows.
func monthlyRevenue(rows []models.Deal, months []time.Month, loc *time.Location) []models.MonthlyRevenue {
	if loc == nil {
		loc = time.UTC
	}
	wanted := make(map[time.Month]bool, len(months))
	for _, m := range months {
		wanted[m] = true
	}

	byKey := make(map[string]*models.MonthlyRevenue)
	for _, d := range rows {
		created := d.CreatedAt.In(loc)
		if !wanted[created.Month()] {
			continue
		}
		key := created.Format("2006-01")
		entry, ok := byKey[key]
		if !ok {
			entry = &models.MonthlyRevenue{
				Month:     key,
				MonthName: resolvetemporalfilter.MonthLabel(created),
			}
			byKey[key] = entry
		}
		if d.Win {
			entry.TotalValue += d.AmountOrZero()
			entry.ClosedDeals++
		}
	}

	out := make([]models.MonthlyRevenue, 0, len(byKey))
	for _, e := range byKey {
		out = append(out, *e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Month < out[j].Month })
	return out
}

func generalStats(rows []models.Deal) models.GeneralStats {
	s := models.GeneralStats{TotalDeals: len(rows)}
	for _, d := range rows {
		switch d.Status() {
		case models.DealWon:
			s.WonDeals++
			s.TotalValue += d.AmountOrZero()
		case models.DealOnHold:
			s.OnHoldDeals++
		default:
			s.LostDeals++
		}
	}
	return s
}
