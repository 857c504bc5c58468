// internal/workers/nalk-ai/log-interaction/models.go
package loginteraction

import "nalk-analytics/internal/models"

type Input struct {
	Question     string              `json:"question"`
	Prompt       string              `json:"prompt"`
	Answer       string              `json:"answer"`
	QuerySummary models.QuerySummary `json:"querySummary"`
}

type Output struct {
	InteractionID string `json:"interactionId"`
	Logged        bool   `json:"logged"`
}
