// internal/workers/nalk-ai/log-interaction/handler.go
package loginteraction

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/google/uuid"

	"nalk-analytics/internal/common/camunda"
	"nalk-analytics/internal/common/database"
	"nalk-analytics/internal/common/errors"
	"nalk-analytics/internal/common/logger"
	"nalk-analytics/internal/common/metrics"
	"nalk-analytics/internal/models"
)

const (
	TaskType = "log-interaction"

	stage = "log"

	defaultWriteTimeout = 5 * time.Second
)

type Handler struct {
	config       *Config
	db           *sql.DB
	logger       logger.Logger
	errorHandler *errors.ErrorHandler
}

func NewHandler(config *Config, db *sql.DB, log logger.Logger) *Handler {
	if config.WriteTimeout <= 0 {
		config.WriteTimeout = defaultWriteTimeout
	}
	scoped := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		db:           db,
		logger:       scoped,
		errorHandler: errors.NewErrorHandler(scoped),
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	var input Input
	if err := camunda.DecodeVariables(job, &input); err != nil {
		h.errorHandler.HandleJobError(context.Background(), client, job, errors.NewInvalidInputError(err.Error()))
		return
	}

	camunda.CompleteJob(client, job, h.execute(context.Background(), &input), h.logger)
}

// execute writes one audit row. Failures are logged and counted, never returned.
func (h *Handler) execute(ctx context.Context, input *Input) *Output {
	defer metrics.ObserveStage(stage, time.Now())

	entry := models.InteractionLogEntry{
		ID:           uuid.NewString(),
		Question:     input.Question,
		Prompt:       input.Prompt,
		Answer:       input.Answer,
		QuerySummary: input.QuerySummary,
		CreatedAt:    time.Now().UTC(),
	}

	// the caller may already be gone; the write gets its own deadline
	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), h.config.WriteTimeout)
	defer cancel()

	if err := h.insert(writeCtx, entry); err != nil {
		metrics.InteractionLogFailures.Inc()
		h.logger.Error("interaction log write failed", map[string]interface{}{
			"interactionId": entry.ID,
			"error":         errors.NewInteractionLogFailedError(err),
		})
		return &Output{InteractionID: entry.ID}
	}

	h.logger.Debug("interaction logged", map[string]interface{}{
		"interactionId": entry.ID,
		"outcome":       entry.QuerySummary.Outcome,
	})
	return &Output{InteractionID: entry.ID, Logged: true}
}

func (h *Handler) insert(ctx context.Context, entry models.InteractionLogEntry) error {
	if h.db == nil {
		return fmt.Errorf("no database configured")
	}
	if !database.ValidIdentifier(h.config.InteractionsTable) {
		return fmt.Errorf("invalid table name %q", h.config.InteractionsTable)
	}

	summary, err := json.Marshal(entry.QuerySummary)
	if err != nil {
		return fmt.Errorf("encode query summary: %w", err)
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (id, question, prompt, answer, query_summary, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`, h.config.InteractionsTable)

	_, err = h.db.ExecContext(ctx, query,
		entry.ID, entry.Question, entry.Prompt, entry.Answer, string(summary), entry.CreatedAt)
	return err
}

// Execute method for direct usage
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input), nil
}
