// internal/workers/nalk-ai/analyze-question/models.go
package analyzequestion

import "nalk-analytics/internal/models"

type Input struct {
	Question  string       `json:"question"`
	SampleRow *models.Deal `json:"sampleRow,omitempty"`
}

type Output struct {
	Analysis models.Analysis `json:"analysis"`
	// Fallback is true when the default analysis was substituted.
	Fallback bool   `json:"fallback"`
	Reason   string `json:"reason,omitempty"`
}
