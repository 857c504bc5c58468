// internal/models/aggregation.go
package models

import (
	"encoding/json"
	"fmt"
)

// AggregationKind is the "tipo" discriminator of an AggregationResult.
type AggregationKind string

const (
	KindLossReasons    AggregationKind = "motivos_perda"
	KindRevenue        AggregationKind = "valor_vendido"
	KindMonthlyRevenue AggregationKind = "valores_mensais"
	KindGeneralStats   AggregationKind = "estatisticas_gerais"
)

// AggregationTier names the strategy that produced a result.
type AggregationTier string

const (
	TierPattern  AggregationTier = "pattern"
	TierLLM      AggregationTier = "llm"
	TierFallback AggregationTier = "fallback"
	TierNone     AggregationTier = "none"
)

type LossReasonCount struct {
	Reason string `json:"motivo"`
	Count  int    `json:"quantidade"`
}

type RevenueSummary struct {
	TotalValue  float64 `json:"valor_total"`
	ClosedDeals int     `json:"deals_fechados"`
	TotalDeals  int     `json:"total_deals"`
}

type MonthlyRevenue struct {
	Month       string  `json:"mes"` // YYYY-MM
	MonthName   string  `json:"nome_mes"`
	TotalValue  float64 `json:"valor_total"`
	ClosedDeals int     `json:"deals_fechados"`
}

type GeneralStats struct {
	TotalDeals  int     `json:"total_deals"`
	WonDeals    int     `json:"deals_ganhos"`
	LostDeals   int     `json:"deals_perdidos"`
	OnHoldDeals int     `json:"deals_em_espera"`
	TotalValue  float64 `json:"valor_total"`
}

// AggregationResult is a closed tagged variant: exactly the slice matching
// Kind is populated. It encodes as {"tipo": ..., "resultados": [...]}.
type AggregationResult struct {
	Kind        AggregationKind
	LossReasons []LossReasonCount
	Revenue     []RevenueSummary
	Monthly     []MonthlyRevenue
	Stats       []GeneralStats
}

type aggregationEnvelope struct {
	Kind    AggregationKind `json:"tipo"`
	Results json.RawMessage `json:"resultados"`
}

// Len returns the number of result items.
func (r *AggregationResult) Len() int {
	switch r.Kind {
	case KindLossReasons:
		return len(r.LossReasons)
	case KindRevenue:
		return len(r.Revenue)
	case KindMonthlyRevenue:
		return len(r.Monthly)
	case KindGeneralStats:
		return len(r.Stats)
	}
	return 0
}

func (r AggregationResult) MarshalJSON() ([]byte, error) {
	var items interface{}
	switch r.Kind {
	case KindLossReasons:
		items = nonNil(r.LossReasons)
	case KindRevenue:
		items = nonNil(r.Revenue)
	case KindMonthlyRevenue:
		items = nonNil(r.Monthly)
	case KindGeneralStats:
		items = nonNil(r.Stats)
	default:
		return nil, fmt.Errorf("unknown aggregation kind %q", r.Kind)
	}
	return json.Marshal(struct {
		Kind    AggregationKind `json:"tipo"`
		Results interface{}     `json:"resultados"`
	}{r.Kind, items})
}

func (r *AggregationResult) UnmarshalJSON(data []byte) error {
	var env aggregationEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return err
	}
	if len(env.Results) == 0 || string(env.Results) == "null" {
		return fmt.Errorf("aggregation %q has no resultados", env.Kind)
	}

	out := AggregationResult{Kind: env.Kind}
	var err error
	switch env.Kind {
	case KindLossReasons:
		err = json.Unmarshal(env.Results, &out.LossReasons)
	case KindRevenue:
		err = json.Unmarshal(env.Results, &out.Revenue)
	case KindMonthlyRevenue:
		err = json.Unmarshal(env.Results, &out.Monthly)
	case KindGeneralStats:
		err = json.Unmarshal(env.Results, &out.Stats)
	default:
		return fmt.Errorf("unknown aggregation kind %q", env.Kind)
	}
	if err != nil {
		return fmt.Errorf("decode %s resultados: %w", env.Kind, err)
	}
	*r = out
	return nil
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
