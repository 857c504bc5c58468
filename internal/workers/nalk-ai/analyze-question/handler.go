// internal/workers/nalk-ai/analyze-question/handler.go
package analyzequestion

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/cenkalti/backoff/v5"

	"nalk-analytics/internal/common/camunda"
	"nalk-analytics/internal/common/errors"
	"nalk-analytics/internal/common/llm"
	"nalk-analytics/internal/common/logger"
	"nalk-analytics/internal/common/metrics"
	"nalk-analytics/internal/common/validation"
	"nalk-analytics/internal/models"
	"nalk-analytics/pkg/registry"
)

const (
	TaskType = "analyze-question"

	stage = "analyze"
)

var (
	ErrInvalidQuestion     = stderrors.New("INVALID_QUESTION")
	ErrAnalysisParseFailed = stderrors.New("ANALYSIS_PARSE_FAILED")
)

var analysisSchema = validation.JSONSchema{
	Type:     "object",
	Required: []string{"entendimento"},
	Properties: map[string]validation.Property{
		"entendimento": {Type: "string"},
		"campos_necessarios": {
			Type:     "array",
			Nullable: true,
			Items:    &validation.Property{Type: "string"},
		},
		"filtros_identificados": {
			Type:     "object",
			Nullable: true,
			Properties: map[string]validation.Property{
				"periodo": {Type: "string", Nullable: true},
				"status":  {Type: "string", Nullable: true, Enum: models.StatusValues},
			},
		},
		"precisa_esclarecimento": {Type: "boolean", Nullable: true},
	},
	AdditionalProperties: true,
}

type Handler struct {
	config       *Config
	llm          llm.Client
	fields       *registry.FieldRegistry
	logger       logger.Logger
	errorHandler *errors.ErrorHandler
}

// NewHandler builds the handler. fields may be nil when no metadata file is configured.
func NewHandler(config *Config, client llm.Client, fields *registry.FieldRegistry, log logger.Logger) *Handler {
	if config.MaxAttempts < 1 {
		config.MaxAttempts = 1
	}
	scoped := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		llm:          client,
		fields:       fields,
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

	output, err := h.execute(ctx, &input)
	if err != nil {
		h.errorHandler.HandleJobError(ctx, client, job, errors.NewInvalidQuestionError(err.Error()))
		return
	}

	camunda.CompleteJob(client, job, output, h.logger)
}

// execute only fails on an empty question. Upstream and parse failures
// yield the default analysis.
func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	defer metrics.ObserveStage(stage, time.Now())

	question := strings.TrimSpace(input.Question)
	if question == "" {
		return nil, ErrInvalidQuestion
	}

	messages := []llm.Message{
		llm.System(systemPrompt),
		llm.User(buildPrompt(question, h.fields, input.SampleRow)),
	}

	raw, err := h.complete(ctx, messages)
	if err != nil {
		metrics.LLMCalls.WithLabelValues(stage, "error").Inc()
		llmErr := llm.StandardError(TaskType, err)
		h.logger.Error("analysis request failed, using default analysis", map[string]interface{}{
			"error": llmErr,
			"code":  llmErr.Code,
		})
		return h.fallback(llmErr.Code), nil
	}

	analysis, err := h.parse(raw)
	if err != nil {
		metrics.LLMCalls.WithLabelValues(stage, "unparsable").Inc()
		parseErr := errors.NewAnalysisParseFailedError(err)
		h.logger.Warn("analysis unparsable, using default analysis", map[string]interface{}{
			"error":    parseErr,
			"details":  parseErr.Details,
			"response": truncate(raw, 500),
		})
		return h.fallback(parseErr.Code), nil
	}

	metrics.LLMCalls.WithLabelValues(stage, "ok").Inc()
	h.logger.Info("question analyzed", map[string]interface{}{
		"understanding": analysis.Understanding,
		"status":        analysis.Filters.Status,
		"period":        analysis.PeriodPhrase(),
		"fields":        analysis.Fields,
	})

	return &Output{Analysis: analysis}, nil
}

// complete retries transport failures only.
func (h *Handler) complete(ctx context.Context, messages []llm.Message) (string, error) {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = h.config.RetryBackoff

	attempt := 0
	return backoff.Retry(ctx, func() (string, error) {
		attempt++
		if attempt > 1 {
			h.logger.Warn("retrying analysis request", map[string]interface{}{"attempt": attempt})
		}
		resp, err := h.llm.Complete(ctx, messages, llm.Options{Temperature: h.config.Temperature})
		if err != nil && stderrors.Is(err, llm.ErrInvalidResponse) {
			return "", backoff.Permanent(err)
		}
		return resp, err
	}, backoff.WithBackOff(bo), backoff.WithMaxTries(uint(h.config.MaxAttempts)))
}

func (h *Handler) parse(raw string) (models.Analysis, error) {
	cleaned := llm.CleanJSON(raw)

	var generic map[string]interface{}
	if err := json.Unmarshal([]byte(cleaned), &generic); err != nil {
		return models.Analysis{}, fmt.Errorf("%w: %v", ErrAnalysisParseFailed, err)
	}

	normalizeStatus := false
	result := validation.ValidateInput(generic, analysisSchema)
	for _, verr := range result.Errors {
		if verr.Field == "filtros_identificados.status" && verr.Code == "INVALID_ENUM_VALUE" {
			normalizeStatus = true
			continue
		}
		return models.Analysis{}, fmt.Errorf("%w: %s: %s", ErrAnalysisParseFailed, verr.Field, verr.Message)
	}

	var analysis models.Analysis
	if err := json.Unmarshal([]byte(cleaned), &analysis); err != nil {
		return models.Analysis{}, fmt.Errorf("%w: %v", ErrAnalysisParseFailed, err)
	}

	if normalizeStatus {
		h.logger.Warn("unknown status filter, using todos", map[string]interface{}{
			"status": analysis.Filters.Status,
		})
		analysis.Filters.Status = models.StatusAll
	}
	if p := analysis.Filters.Period; p != nil {
		if trimmed := strings.TrimSpace(*p); trimmed == "" || strings.EqualFold(trimmed, "null") {
			analysis.Filters.Period = nil
		}
	}
	if len(analysis.Fields) == 0 {
		analysis.Fields = []string{"*"}
	}
	return analysis, nil
}

func (h *Handler) fallback(code errors.ErrorCode) *Output {
	return &Output{
		Analysis: models.DefaultAnalysis(),
		Fallback: true,
		Reason:   string(code),
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// Execute method for direct usage
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
