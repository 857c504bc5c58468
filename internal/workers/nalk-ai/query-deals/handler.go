// internal/workers/nalk-ai/query-deals/handler.go
package querydeals

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/redis/go-redis/v9"

	"nalk-analytics/internal/common/camunda"
	"nalk-analytics/internal/common/errors"
	"nalk-analytics/internal/common/logger"
	"nalk-analytics/internal/models"
	"nalk-analytics/internal/workers/nalk-ai/query-deals/queries"
)

const (
	TaskType = "query-deals"
)

var (
	ErrQueryExecutionFailed = stderrors.New("QUERY_EXECUTION_FAILED")
	ErrQueryTimeout         = stderrors.New("QUERY_TIMEOUT")
)

type Handler struct {
	config       *Config
	db           *sql.DB
	cache        *Cache
	logger       logger.Logger
	errorHandler *errors.ErrorHandler
}

// NewHandler builds the handler. rdb may be nil to disable caching.
func NewHandler(config *Config, db *sql.DB, rdb *redis.Client, log logger.Logger) *Handler {
	scoped := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		db:           db,
		cache:        NewCache(rdb, config.CacheTTL, scoped),
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

	output, _ := h.execute(ctx, &input)
	camunda.CompleteJob(client, job, output, h.logger)
}

// execute never fails: query errors are reported in Output.QueryError and
// the rows are left empty.
func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	start := time.Now()
	params := queries.Params{
		Table:   h.config.DealsTable,
		Columns: queries.SelectColumns(input.Fields),
		Filters: input.Filters,
		Limit:   h.config.RowLimit,
	}

	output := &Output{Rows: []models.Deal{}}

	data, rowCount, err := queries.Execute(ctx, h.db, models.QueryTypeDeals, params)
	output.QueryExecutionTime = time.Since(start).Milliseconds()
	if err != nil {
		qerr := h.wrapQueryError(ctx, models.QueryTypeDeals, err)
		h.logger.Error("deals query failed", map[string]interface{}{
			"error":   qerr,
			"code":    qerr.Code,
			"filters": input.Filters,
		})
		output.QueryError = qerr.Details
		return output, nil
	}

	output.Rows = data.([]models.Deal)
	output.RowCount = rowCount
	output.Truncated = rowCount >= h.config.RowLimit
	if output.Truncated {
		h.logger.Warn("deals query hit row limit", map[string]interface{}{"rowLimit": h.config.RowLimit})
	}

	if rowCount == 0 && input.Filters.DateRange != nil {
		output.NoData = true
		periods, err := h.AvailablePeriods(ctx)
		if err != nil {
			h.logger.Error("available periods query failed", map[string]interface{}{"error": err})
		}
		output.AvailablePeriods = periods
	}

	h.logger.Info("deals query completed", map[string]interface{}{
		"rowCount":  rowCount,
		"columns":   len(params.Columns),
		"noData":    output.NoData,
		"elapsedMs": output.QueryExecutionTime,
	})
	return output, nil
}

// AvailablePeriods lists the "YYYY-MM" months with won deals.
func (h *Handler) AvailablePeriods(ctx context.Context) ([]string, error) {
	return cached(ctx, h.cache, cacheKey("available_periods", h.config.DealsTable),
		func(ctx context.Context) ([]string, error) {
			data, _, err := h.run(ctx, models.QueryTypeAvailablePeriods)
			if err != nil {
				return nil, err
			}
			return data.([]string), nil
		})
}

// DateBounds returns the earliest and latest deal creation time.
func (h *Handler) DateBounds(ctx context.Context) (models.DateBounds, error) {
	return cached(ctx, h.cache, cacheKey("date_range", h.config.DealsTable),
		func(ctx context.Context) (models.DateBounds, error) {
			data, _, err := h.run(ctx, models.QueryTypeDateRange)
			if err != nil {
				return models.DateBounds{}, err
			}
			return data.(models.DateBounds), nil
		})
}

// SampleRow returns one recent deal for prompt grounding, or nil.
func (h *Handler) SampleRow(ctx context.Context) (*models.Deal, error) {
	return cached(ctx, h.cache, cacheKey("sample_row", h.config.DealsTable),
		func(ctx context.Context) (*models.Deal, error) {
			data, _, err := h.run(ctx, models.QueryTypeSampleRow)
			if err != nil {
				return nil, err
			}
			return data.(*models.Deal), nil
		})
}

func (h *Handler) run(ctx context.Context, queryType models.QueryType) (interface{}, int, error) {
	data, n, err := queries.Execute(ctx, h.db, queryType, queries.Params{Table: h.config.DealsTable})
	if err != nil {
		return nil, 0, h.wrapQueryError(ctx, queryType, err)
	}
	return data, n, nil
}

func (h *Handler) wrapQueryError(ctx context.Context, queryType models.QueryType, err error) *errors.StandardError {
	if stderrors.Is(ctx.Err(), context.DeadlineExceeded) || stderrors.Is(err, context.DeadlineExceeded) {
		return errors.NewQueryTimeoutError(string(queryType), fmt.Errorf("%w: %w", ErrQueryTimeout, err))
	}
	return errors.NewQueryExecutionFailedError(string(queryType), fmt.Errorf("%w: %w", ErrQueryExecutionFailed, err))
}

// Execute method for direct usage
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
