// internal/workers/nalk-ai/compose-answer/handler.go
package composeanswer

import (
	"context"
	"strings"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"nalk-analytics/internal/common/camunda"
	"nalk-analytics/internal/common/errors"
	"nalk-analytics/internal/common/llm"
	"nalk-analytics/internal/common/logger"
	"nalk-analytics/internal/common/metrics"
)

const (
	TaskType = "compose-answer"

	stage = "compose"

	// Apology is returned whenever no answer can be produced.
	Apology = "Desculpe, não consegui gerar uma resposta no momento. Tente novamente em instantes."
)

type Handler struct {
	config       *Config
	llm          llm.Client
	logger       logger.Logger
	errorHandler *errors.ErrorHandler
}

func NewHandler(config *Config, client llm.Client, log logger.Logger) *Handler {
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

// execute makes a single call; the model's text is returned as is.
func (h *Handler) execute(ctx context.Context, input *Input) *Output {
	defer metrics.ObserveStage(stage, time.Now())

	prompt, err := buildPrompt(input.Question, input.Aggregation)
	if err != nil {
		h.logger.Error("failed to build answer prompt", map[string]interface{}{"error": err})
		return &Output{Answer: Apology, Degraded: true}
	}

	answer, err := h.llm.Complete(ctx, []llm.Message{
		llm.System(systemPrompt),
		llm.User(prompt),
	}, llm.Options{Temperature: h.config.Temperature})
	if err != nil {
		metrics.LLMCalls.WithLabelValues(stage, "error").Inc()
		h.logger.Error("answer composition failed", map[string]interface{}{
			"error": errors.NewAnswerCompositionFailedError(err),
		})
		return &Output{Answer: Apology, Prompt: prompt, Degraded: true}
	}

	answer = strings.TrimSpace(answer)
	if answer == "" {
		metrics.LLMCalls.WithLabelValues(stage, "empty").Inc()
		h.logger.Warn("model returned an empty answer", nil)
		return &Output{Answer: Apology, Prompt: prompt, Degraded: true}
	}

	metrics.LLMCalls.WithLabelValues(stage, "ok").Inc()
	return &Output{Answer: answer, Prompt: prompt}
}

// Execute method for direct usage
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input), nil
}
