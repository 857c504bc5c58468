// internal/workers/nalk-ai/resolve-temporal-filter/handler.go
package resolvetemporalfilter

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"nalk-analytics/internal/common/camunda"
	"nalk-analytics/internal/common/errors"
	"nalk-analytics/internal/common/logger"
	"nalk-analytics/internal/models"
)

const (
	TaskType = "resolve-temporal-filter"
)

type Handler struct {
	config       *Config
	logger       logger.Logger
	errorHandler *errors.ErrorHandler
}

func NewHandler(config *Config, log logger.Logger) *Handler {
	if config.Location == nil {
		config.Location = time.UTC
	}
	scoped := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		logger:       scoped,
		errorHandler: errors.NewErrorHandler(scoped),
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	var input Input
	if err := camunda.DecodeVariables(job, &input); err != nil {
		h.errorHandler.HandleJobError(ctx, client, job, errors.NewInvalidInputError(err.Error()))
		return
	}

	output, _ := h.execute(ctx, &input)
	camunda.CompleteJob(client, job, output, h.logger)
}

func (h *Handler) execute(_ context.Context, input *Input) (*Output, error) {
	output := &Output{}

	if input.Period != nil {
		output.DateRange = h.Resolve(*input.Period)
	}

	if span := h.ResolveSpan(input.Question); span != nil {
		output.DateRange = span
		output.Span = true
	}

	if output.DateRange != nil {
		h.logger.Debug("date filter resolved", map[string]interface{}{
			"label": output.DateRange.Label,
			"span":  output.Span,
		})
	}
	return output, nil
}

// Resolve maps a temporal phrase onto [start of month, start of next month).
// Months are tried January to December and the first match wins; nil means
// no filter.
func (h *Handler) Resolve(phrase string) *models.DateRange {
	lower := strings.ToLower(strings.TrimSpace(phrase))
	if lower == "" {
		return nil
	}

	for m := time.January; m <= time.December; m++ {
		for _, p := range phrases(m, h.config.ReferenceYear) {
			if strings.Contains(lower, p) {
				return h.monthRange(m, m)
			}
		}
	}
	return nil
}

// ResolveSpan returns the range covering every month named in question when
// it names at least two, and nil otherwise.
func (h *Handler) ResolveSpan(question string) *models.DateRange {
	months := MentionedMonths(question)
	if len(months) < 2 {
		return nil
	}
	return h.monthRange(months[0], months[len(months)-1])
}

func (h *Handler) monthRange(first, last time.Month) *models.DateRange {
	start := time.Date(h.config.ReferenceYear, first, 1, 0, 0, 0, 0, h.config.Location)
	lastStart := time.Date(h.config.ReferenceYear, last, 1, 0, 0, 0, 0, h.config.Location)

	label := MonthLabel(start)
	if first != last {
		label = fmt.Sprintf("%s a %s", MonthName(first), MonthLabel(lastStart))
	}

	return &models.DateRange{
		Gte:   start,
		Lt:    lastStart.AddDate(0, 1, 0),
		Label: label,
	}
}

// Execute method for direct usage
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
