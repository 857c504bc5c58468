package pipeline

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"nalk-analytics/internal/common/llm"
	"nalk-analytics/internal/common/logger"
	"nalk-analytics/internal/models"
	aggregateresults "nalk-analytics/internal/workers/nalk-ai/aggregate-results"
	analyzequestion "nalk-analytics/internal/workers/nalk-ai/analyze-question"
	composeanswer "nalk-analytics/internal/workers/nalk-ai/compose-answer"
	loginteraction "nalk-analytics/internal/workers/nalk-ai/log-interaction"
	querydeals "nalk-analytics/internal/workers/nalk-ai/query-deals"
	resolvetemporalfilter "nalk-analytics/internal/workers/nalk-ai/resolve-temporal-filter"
)

// ==========================
// Test Helper Functions
// ==========================

func createTestLogger(t *testing.T) logger.Logger {
	return logger.NewZapAdapter(zaptest.NewLogger(t))
}

func newTestPipeline(t *testing.T, db *sql.DB, client llm.Client) *Pipeline {
	log := createTestLogger(t)
	stages := Stages{
		Analyzer: analyzequestion.NewHandler(&analyzequestion.Config{
			Temperature: 0.1, MaxAttempts: 2, RetryBackoff: time.Millisecond, Timeout: time.Second,
		}, client, nil, log),
		Resolver: resolvetemporalfilter.NewHandler(&resolvetemporalfilter.Config{
			ReferenceYear: 2025, Location: time.UTC, Timeout: time.Second,
		}, log),
		Query: querydeals.NewHandler(&querydeals.Config{
			DealsTable: "deals_normalized", RowLimit: 5000, Timeout: time.Second,
		}, db, nil, log),
		Aggregator: aggregateresults.NewHandler(&aggregateresults.Config{
			MaxAttempts: 3, PromptRowLimit: 50, Location: time.UTC, Timeout: time.Second,
		}, client, log),
		Composer: composeanswer.NewHandler(&composeanswer.Config{Temperature: 0.3, Timeout: time.Second}, client, log),
		Recorder: loginteraction.NewHandler(&loginteraction.Config{
			InteractionsTable: "nalk_ai_interactions", WriteTimeout: time.Second,
		}, db, log),
	}
	return New(&Config{Timeout: 5 * time.Second, Location: time.UTC}, stages, nil, log)
}

var aggregatorColumns = []string{"created_at", "deal_amount_total", "win", "hold", "deal_lost_reason_name"}

func expectEmptySampleRow(mock sqlmock.Sqlmock) {
	mock.ExpectQuery(`SELECT .* FROM deals_normalized ORDER BY created_at DESC LIMIT 1`).
		WillReturnRows(sqlmock.NewRows(models.DealColumns))
}

func day(s string) time.Time {
	ts, _ := time.Parse("2006-01-02", s)
	return ts
}

// ==========================
// Sentinel Tests
// ==========================

func TestPipeline_DateRangeSentinel(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT MIN\(created_at\), MAX\(created_at\) FROM deals_normalized`).
		WillReturnRows(sqlmock.NewRows([]string{"min", "max"}).AddRow(day("2025-01-02"), day("2025-08-15")))

	fake := llm.NewFakeClient()
	p := newTestPipeline(t, db, fake)

	res, err := p.Answer(context.Background(), " __GET_DATE_RANGE__ ")
	require.NoError(t, err)

	assert.Equal(t, models.OutcomeDateRange, res.Outcome)
	assert.Contains(t, res.Answer, "Olá!")
	assert.Contains(t, res.Answer, "**02/01/2025** até **15/08/2025**")
	assert.Empty(t, fake.Calls())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPipeline_DateRangeSentinel_EmptyDataset(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT MIN\(created_at\), MAX\(created_at\)`).
		WillReturnRows(sqlmock.NewRows([]string{"min", "max"}).AddRow(nil, nil))

	p := newTestPipeline(t, db, llm.NewFakeClient())

	res, err := p.Answer(context.Background(), DateRangeSentinel)
	require.NoError(t, err)

	assert.Equal(t, welcomeMessage, res.Answer)
}

func TestPipeline_DateRangeSentinel_QueryError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT MIN`).WillReturnError(errors.New("connection refused"))

	p := newTestPipeline(t, db, llm.NewFakeClient())

	res, err := p.Answer(context.Background(), DateRangeSentinel)
	require.NoError(t, err)
	assert.Equal(t, welcomeMessage, res.Answer)
}

// ==========================
// Full Run Tests
// ==========================

func TestPipeline_LossReasonQuestion(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	expectEmptySampleRow(mock)
	mock.ExpectQuery(`SELECT created_at, deal_amount_total, COALESCE\(win, false\) AS win, .* FROM deals_normalized WHERE COALESCE\(win, false\) = false AND COALESCE\(hold, false\) = false`).
		WillReturnRows(sqlmock.NewRows(aggregatorColumns).
			AddRow(day("2025-08-01"), nil, false, false, "Preço alto").
			AddRow(day("2025-08-02"), nil, false, false, "Preço alto").
			AddRow(day("2025-08-03"), nil, false, false, nil))
	mock.ExpectExec(`INSERT INTO nalk_ai_interactions`).WillReturnResult(sqlmock.NewResult(0, 1))

	fake := llm.NewFakeClient(
		llm.FakeResponse{Text: `{"entendimento":"ranking de motivos de perda","campos_necessarios":["deal_lost_reason_name"],"filtros_identificados":{"periodo":null,"status":"perdidos"},"precisa_esclarecimento":false}`},
		llm.FakeResponse{Text: "O principal motivo é **Preço alto** (**2**)."},
	)
	p := newTestPipeline(t, db, fake)

	res, err := p.Answer(context.Background(), "quais os 5 maiores motivos de perda?")
	require.NoError(t, err)

	assert.Equal(t, models.OutcomeAnswered, res.Outcome)
	assert.Equal(t, "O principal motivo é **Preço alto** (**2**).", res.Answer)
	assert.NotEmpty(t, res.InteractionID)

	calls := fake.Calls()
	require.Len(t, calls, 2, "analysis and composition only; the pattern tier needs no call")
	assert.Contains(t, calls[1].Messages[1].Content, `"motivo": "Preço alto"`)
	assert.Contains(t, calls[1].Messages[1].Content, `"motivo": "Motivo não especificado"`)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPipeline_NoDataForPeriod(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	expectEmptySampleRow(mock)
	mock.ExpectQuery(`SELECT .* FROM deals_normalized WHERE created_at >= \$1 AND created_at < \$2`).
		WithArgs(day("2025-08-01"), day("2025-09-01"), 5000).
		WillReturnRows(sqlmock.NewRows(models.DealColumns))
	mock.ExpectQuery(`SELECT DISTINCT to_char`).
		WillReturnRows(sqlmock.NewRows([]string{"period"}).AddRow("2025-06").AddRow("2025-07"))
	mock.ExpectExec(`INSERT INTO nalk_ai_interactions`).WillReturnResult(sqlmock.NewResult(0, 1))

	fake := llm.NewFakeClient(
		llm.FakeResponse{Text: `{"entendimento":"vendas de agosto","campos_necessarios":["*"],"filtros_identificados":{"periodo":"agosto","status":"todos"}}`},
	)
	p := newTestPipeline(t, db, fake)

	res, err := p.Answer(context.Background(), "Quanto vendemos em agosto?")
	require.NoError(t, err)

	assert.Equal(t, models.OutcomeNoData, res.Outcome)
	assert.Equal(t, "Não encontrei negócios para **agosto de 2025**.\n\n"+
		"Períodos com vendas disponíveis:\n- junho de 2025\n- julho de 2025\n\n"+
		"Tente perguntar sobre um desses períodos.", res.Answer)
	assert.NotContains(t, res.Answer, "valor_total")
	assert.Len(t, fake.Calls(), 1, "no aggregation or composition on the no-data branch")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPipeline_DegradesOnQueryAndLLMFailures(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`LIMIT 1`).WillReturnError(errors.New("connection reset"))
	mock.ExpectQuery(`SELECT .* FROM deals_normalized`).WillReturnError(errors.New("connection reset"))
	mock.ExpectExec(`INSERT INTO nalk_ai_interactions`).WillReturnError(errors.New("connection reset"))

	fake := llm.NewFakeClient(
		llm.FakeResponse{Text: "desculpe, não entendi"},
		llm.FakeResponse{Err: llm.ErrRequestFailed},
	)
	p := newTestPipeline(t, db, fake)

	res, err := p.Answer(context.Background(), "Como foi o mês?")
	require.NoError(t, err)

	assert.Equal(t, models.OutcomeDegraded, res.Outcome)
	assert.Equal(t, composeanswer.Apology, res.Answer)
	assert.Empty(t, res.InteractionID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// ==========================
// Validation Tests
// ==========================

func TestPipeline_EmptyQuestion(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	p := newTestPipeline(t, db, llm.NewFakeClient())

	_, err = p.Answer(context.Background(), "  ")
	assert.ErrorIs(t, err, ErrEmptyQuestion)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNoDataMessage_WithoutPeriods(t *testing.T) {
	msg := noDataMessage("março de 2025", nil)
	assert.Equal(t, "Não encontrei negócios para **março de 2025**.\n\nAinda não há períodos com vendas registradas.", msg)
}
