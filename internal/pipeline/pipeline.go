// internal/pipeline/pipeline.go
package pipeline

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"nalk-analytics/internal/common/logger"
	"nalk-analytics/internal/common/metrics"
	"nalk-analytics/internal/common/observability"
	"nalk-analytics/internal/models"
	aggregateresults "nalk-analytics/internal/workers/nalk-ai/aggregate-results"
	analyzequestion "nalk-analytics/internal/workers/nalk-ai/analyze-question"
	composeanswer "nalk-analytics/internal/workers/nalk-ai/compose-answer"
	loginteraction "nalk-analytics/internal/workers/nalk-ai/log-interaction"
	querydeals "nalk-analytics/internal/workers/nalk-ai/query-deals"
	resolvetemporalfilter "nalk-analytics/internal/workers/nalk-ai/resolve-temporal-filter"
)

// DateRangeSentinel asks for the welcome message instead of an answer.
const DateRangeSentinel = "__GET_DATE_RANGE__"

var (
	ErrEmptyQuestion  = stderrors.New("INVALID_QUESTION")
	ErrPipelineFailed = stderrors.New("PIPELINE_FAILED")
)

// Stages are the handlers a run calls, in order.
type Stages struct {
	Analyzer   *analyzequestion.Handler
	Resolver   *resolvetemporalfilter.Handler
	Query      *querydeals.Handler
	Aggregator *aggregateresults.Handler
	Composer   *composeanswer.Handler
	Recorder   *loginteraction.Handler
}

type Result struct {
	Answer        string `json:"answer"`
	Outcome       string `json:"outcome"`
	InteractionID string `json:"interactionId,omitempty"`
}

type Pipeline struct {
	config *Config
	stages Stages
	obs    *observability.Observability
	logger logger.Logger
}

// New builds the pipeline. obs may be nil.
func New(config *Config, stages Stages, obs *observability.Observability, log logger.Logger) *Pipeline {
	if config.Location == nil {
		config.Location = time.UTC
	}
	return &Pipeline{
		config: config,
		stages: stages,
		obs:    obs,
		logger: log.WithFields(map[string]interface{}{"component": "pipeline"}),
	}
}

// Answer runs one question through every stage. Stage failures degrade the
// answer; an error is returned only for an empty question or a panic.
func (p *Pipeline) Answer(ctx context.Context, question string) (result *Result, err error) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("pipeline panicked", map[string]interface{}{"panic": fmt.Sprint(r)})
			result, err = nil, fmt.Errorf("%w: %v", ErrPipelineFailed, r)
		}
		outcome := models.OutcomeFailed
		if result != nil {
			outcome = result.Outcome
		}
		metrics.PipelineRequests.WithLabelValues(outcome).Inc()
		p.obs.RecordRun(ctx, outcome, time.Since(start))
	}()

	question = strings.TrimSpace(question)
	if question == "" {
		return nil, ErrEmptyQuestion
	}

	ctx, cancel := context.WithTimeout(ctx, p.config.Timeout)
	defer cancel()

	if question == DateRangeSentinel {
		return p.dateRange(ctx), nil
	}
	return p.run(ctx, question)
}

func (p *Pipeline) dateRange(ctx context.Context) *Result {
	bounds, err := p.stages.Query.DateBounds(ctx)
	if err != nil {
		p.logger.Warn("date range lookup failed", map[string]interface{}{"error": err})
		bounds = models.DateBounds{}
	}
	return &Result{Answer: welcome(bounds, p.config.Location), Outcome: models.OutcomeDateRange}
}

func (p *Pipeline) run(ctx context.Context, question string) (*Result, error) {
	sample, err := p.stages.Query.SampleRow(ctx)
	if err != nil {
		p.logger.Warn("sample row unavailable", map[string]interface{}{"error": err})
		sample = nil
	}

	analyzed, err := p.stages.Analyzer.Execute(ctx, &analyzequestion.Input{Question: question, SampleRow: sample})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEmptyQuestion, err)
	}
	analysis := analyzed.Analysis

	resolved, _ := p.stages.Resolver.Execute(ctx, &resolvetemporalfilter.Input{
		Period:   analysis.Filters.Period,
		Question: question,
	})

	filters := models.DealFilters{Status: analysis.Filters.Status, DateRange: resolved.DateRange}
	queried, _ := p.stages.Query.Execute(ctx, &querydeals.Input{Filters: filters, Fields: analysis.Fields})

	summary := models.QuerySummary{
		Filters:    filters,
		RowCount:   queried.RowCount,
		QueryError: queried.QueryError,
		Analysis:   &analysis,
	}

	if queried.NoData {
		summary.Outcome = models.OutcomeNoData
		summary.Tier = models.TierNone
		summary.Periods = queried.AvailablePeriods
		answer := noDataMessage(filters.DateRange.Label, queried.AvailablePeriods)
		return p.record(ctx, question, "", answer, summary), nil
	}

	aggregated, _ := p.stages.Aggregator.Execute(ctx, &aggregateresults.Input{
		Question:   question,
		Rows:       queried.Rows,
		RowCount:   queried.RowCount,
		QueryError: queried.QueryError,
	})
	summary.Tier = aggregated.Tier
	summary.Aggregation = &aggregated.Aggregation

	composed, _ := p.stages.Composer.Execute(ctx, &composeanswer.Input{
		Question:    question,
		Aggregation: aggregated.Aggregation,
	})

	summary.Outcome = models.OutcomeAnswered
	if composed.Degraded || queried.QueryError != "" {
		summary.Outcome = models.OutcomeDegraded
	}

	p.logger.Info("question answered", map[string]interface{}{
		"outcome":          summary.Outcome,
		"status":           filters.Status,
		"rowCount":         queried.RowCount,
		"tier":             aggregated.Tier,
		"analysisFallback": analyzed.Fallback,
	})

	return p.record(ctx, question, composed.Prompt, composed.Answer, summary), nil
}

// record writes the audit entry; the answer is returned whatever happens to the write.
func (p *Pipeline) record(ctx context.Context, question, prompt, answer string, summary models.QuerySummary) *Result {
	res := &Result{Answer: answer, Outcome: summary.Outcome}
	if p.stages.Recorder == nil {
		return res
	}

	logged, _ := p.stages.Recorder.Execute(ctx, &loginteraction.Input{
		Question:     question,
		Prompt:       prompt,
		Answer:       answer,
		QuerySummary: summary,
	})
	if logged.Logged {
		res.InteractionID = logged.InteractionID
	}
	return res
}
