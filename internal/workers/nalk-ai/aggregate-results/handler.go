// internal/workers/nalk-ai/aggregate-results/handler.go
package aggregateresults

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"nalk-analytics/internal/common/camunda"
	"nalk-analytics/internal/common/errors"
	"nalk-analytics/internal/common/llm"
	"nalk-analytics/internal/common/logger"
	"nalk-analytics/internal/common/metrics"
	"nalk-analytics/internal/models"
)

const (
	TaskType = "aggregate-results"

	stage = "aggregate"
)

var (
	ErrAggregationParseFailed      = stderrors.New("AGGREGATION_FAILED")
	ErrAggregationValidationFailed = stderrors.New("AGGREGATION_VALIDATION_FAILED")
)

type Handler struct {
	config       *Config
	llm          llm.Client
	logger       logger.Logger
	errorHandler *errors.ErrorHandler
}

func NewHandler(config *Config, client llm.Client, log logger.Logger) *Handler {
	if config.MaxAttempts < 1 {
		config.MaxAttempts = 1
	}
	scoped := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		llm:          client,
		logger:       scoped,
		errorHandler: errors.NewErrorHandler(scoped),
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	var input Input
	if err := camunda.DecodeVariables(job, &input); err != nil {
		h.errorHandler.HandleJobError(ctx, client, job, errors.NewInvalidInputError(err.Error()))
		return
	}

	camunda.CompleteJob(client, job, h.execute(ctx, &input), h.logger)
}

// execute walks the tiers: pattern, then LLM, then deterministic fallback.
// It always produces a result.
func (h *Handler) execute(ctx context.Context, input *Input) *Output {
	defer metrics.ObserveStage(stage, time.Now())

	out := h.aggregate(ctx, input)
	metrics.AggregationTier.WithLabelValues(string(out.Tier)).Inc()

	h.logger.Info("aggregation complete", map[string]interface{}{
		"tier":     out.Tier,
		"kind":     out.Aggregation.Kind,
		"items":    out.Aggregation.Len(),
		"attempts": out.Attempts,
		"rows":     len(input.Rows),
	})
	return out
}

func (h *Handler) aggregate(ctx context.Context, input *Input) *Output {
	if input.QueryError != "" {
		return &Output{
			Aggregation: models.AggregationResult{Kind: models.KindGeneralStats, Stats: []models.GeneralStats{}},
			Tier:        models.TierNone,
		}
	}

	if res := DeterministicAggregate(input.Question, input.Rows, h.config.Location); res != nil {
		return &Output{Aggregation: *res, Tier: models.TierPattern}
	}

	if len(input.Rows) > 0 {
		res, attempts := h.aggregateWithLLM(ctx, input)
		if res != nil {
			return &Output{Aggregation: *res, Tier: models.TierLLM, Attempts: attempts}
		}
		return &Output{
			Aggregation: *fallbackAggregate(input.Question, input.Rows, h.config.Location),
			Tier:        models.TierFallback,
			Attempts:    attempts,
		}
	}

	return &Output{
		Aggregation: *fallbackAggregate(input.Question, input.Rows, h.config.Location),
		Tier:        models.TierFallback,
	}
}

// aggregateWithLLM makes up to MaxAttempts independent calls and returns the
// first result that matches a known shape.
func (h *Handler) aggregateWithLLM(ctx context.Context, input *Input) (*models.AggregationResult, int) {
	total := input.RowCount
	if total < len(input.Rows) {
		total = len(input.Rows)
	}

	attempts := 0
	var lastErr error
	for attempt := 1; attempt <= h.config.MaxAttempts; attempt++ {
		if ctx.Err() != nil {
			lastErr = ctx.Err()
			break
		}
		attempts++

		messages := []llm.Message{
			llm.System(systemPrompt),
			llm.User(buildPrompt(input.Question, input.Rows, total, h.config.PromptRowLimit, attempt, h.config.MaxAttempts)),
		}
		raw, err := h.llm.Complete(ctx, messages, llm.Options{Temperature: h.config.Temperature})
		if err != nil {
			metrics.LLMCalls.WithLabelValues(stage, "error").Inc()
			lastErr = llm.StandardError(TaskType, err)
			h.logger.Warn("aggregation request failed", map[string]interface{}{
				"attempt": attempt,
				"error":   lastErr,
			})
			continue
		}

		res, err := decodeResult(llm.CleanJSON(raw))
		if err != nil {
			metrics.LLMCalls.WithLabelValues(stage, "unparsable").Inc()
			lastErr = err
			h.logger.Warn("aggregation response rejected", map[string]interface{}{
				"attempt": attempt,
				"error":   err,
			})
			continue
		}

		metrics.LLMCalls.WithLabelValues(stage, "ok").Inc()
		return res, attempts
	}

	exhausted := aggregationError(lastErr)
	h.logger.Error("llm aggregation exhausted, using deterministic fallback", map[string]interface{}{
		"attempts": attempts,
		"code":     exhausted.Code,
		"error":    exhausted,
	})
	return nil, attempts
}

// aggregationError classifies the last failure of the LLM tier.
func aggregationError(err error) *errors.StandardError {
	if stderrors.Is(err, ErrAggregationValidationFailed) {
		return errors.NewAggregationValidationFailedError(err)
	}
	return errors.NewAggregationFailedError(err)
}

// Execute method for direct usage
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input), nil
}
