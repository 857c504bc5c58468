// internal/models/analysis.go
package models

// StatusFilter is the deal status the question is about.
type StatusFilter string

const (
	StatusClosed     StatusFilter = "fechados"
	StatusLost       StatusFilter = "perdidos"
	StatusInProgress StatusFilter = "em_andamento"
	StatusAll        StatusFilter = "todos"
)

// StatusValues lists the accepted status filter values.
var StatusValues = []string{
	string(StatusClosed), string(StatusLost), string(StatusInProgress), string(StatusAll),
}

func (s StatusFilter) Valid() bool {
	switch s {
	case StatusClosed, StatusLost, StatusInProgress, StatusAll:
		return true
	}
	return false
}

type AnalysisFilters struct {
	Period *string      `json:"periodo,omitempty"`
	Status StatusFilter `json:"status,omitempty"`
}

// Analysis is the structured interpretation of a question.
type Analysis struct {
	Understanding      string          `json:"entendimento"`
	Fields             []string        `json:"campos_necessarios"`
	Filters            AnalysisFilters `json:"filtros_identificados"`
	NeedsClarification bool            `json:"precisa_esclarecimento"`
}

// DefaultAnalysis is used whenever the model output cannot be parsed: an
// unfiltered query over every field.
func DefaultAnalysis() Analysis {
	return Analysis{
		Understanding: "general",
		Fields:        []string{"*"},
		Filters:       AnalysisFilters{},
	}
}

// PeriodPhrase returns the temporal phrase or "".
func (a Analysis) PeriodPhrase() string {
	if a.Filters.Period == nil {
		return ""
	}
	return *a.Filters.Period
}
