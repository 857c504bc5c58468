// internal/workers/nalk-ai/compose-answer/models.go
package composeanswer

import "nalk-analytics/internal/models"

type Input struct {
	Question    string                   `json:"question"`
	Aggregation models.AggregationResult `json:"aggregation"`
}

type Output struct {
	Answer string `json:"answer"`
	// Prompt is the user message sent to the model, kept for the audit log.
	Prompt string `json:"prompt"`
	// Degraded is set when Answer is the apology.
	Degraded bool `json:"degraded"`
}
