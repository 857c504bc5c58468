package loginteraction

import (
	"context"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"nalk-analytics/internal/common/logger"
	"nalk-analytics/internal/models"
)

// ==========================
// Test Helper Functions
// ==========================

func createTestConfig() *Config {
	return &Config{InteractionsTable: "nalk_ai_interactions", WriteTimeout: time.Second}
}

func createTestLogger(t *testing.T) logger.Logger {
	return logger.NewZapAdapter(zaptest.NewLogger(t))
}

func createTestInput() *Input {
	return &Input{
		Question: "motivos de perda",
		Prompt:   "Pergunta do usuário: ...",
		Answer:   "O principal motivo é **Preço alto**.",
		QuerySummary: models.QuerySummary{
			Outcome:  models.OutcomeAnswered,
			Filters:  models.DealFilters{Status: models.StatusLost},
			RowCount: 2,
			Tier:     models.TierPattern,
			Aggregation: &models.AggregationResult{
				Kind:        models.KindLossReasons,
				LossReasons: []models.LossReasonCount{{Reason: "Preço alto", Count: 2}},
			},
		},
	}
}

// summaryArg checks the serialized summary column.
type summaryArg struct{}

func (summaryArg) Match(v driver.Value) bool {
	s, ok := v.(string)
	if !ok {
		return false
	}
	var decoded map[string]interface{}
	if err := json.Unmarshal([]byte(s), &decoded); err != nil {
		return false
	}
	agg, _ := decoded["aggregation"].(map[string]interface{})
	return decoded["outcome"] == "answered" && decoded["tier"] == "pattern" && agg["tipo"] == "motivos_perda"
}

// ==========================
// Core Functionality Tests
// ==========================

func TestHandler_Execute_InsertsEntry(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	input := createTestInput()
	mock.ExpectExec(`INSERT INTO nalk_ai_interactions \(id, question, prompt, answer, query_summary, created_at\)`).
		WithArgs(sqlmock.AnyArg(), input.Question, input.Prompt, input.Answer, summaryArg{}, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	h := NewHandler(createTestConfig(), db, createTestLogger(t))
	out, err := h.Execute(context.Background(), input)
	require.NoError(t, err)

	assert.True(t, out.Logged)
	_, parseErr := uuid.Parse(out.InteractionID)
	assert.NoError(t, parseErr)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandler_Execute_SurvivesCancelledCaller(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(`INSERT INTO nalk_ai_interactions`).WillReturnResult(sqlmock.NewResult(0, 1))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	h := NewHandler(createTestConfig(), db, createTestLogger(t))
	out, err := h.Execute(ctx, createTestInput())
	require.NoError(t, err)

	assert.True(t, out.Logged)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// ==========================
// Failure Tests
// ==========================

func TestHandler_Execute_SwallowsWriteErrors(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(`INSERT INTO nalk_ai_interactions`).WillReturnError(errors.New("relation does not exist"))

	h := NewHandler(createTestConfig(), db, createTestLogger(t))
	out, err := h.Execute(context.Background(), createTestInput())
	require.NoError(t, err)

	assert.False(t, out.Logged)
	assert.NotEmpty(t, out.InteractionID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandler_Execute_WriteTimeout(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(`INSERT INTO nalk_ai_interactions`).
		WillDelayFor(200 * time.Millisecond).
		WillReturnResult(sqlmock.NewResult(0, 1))

	cfg := createTestConfig()
	cfg.WriteTimeout = 20 * time.Millisecond

	h := NewHandler(cfg, db, createTestLogger(t))
	out, err := h.Execute(context.Background(), createTestInput())
	require.NoError(t, err)
	assert.False(t, out.Logged)
}

func TestHandler_Execute_RejectsBadTableName(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	cfg := createTestConfig()
	cfg.InteractionsTable = "logs; DROP TABLE deals"

	h := NewHandler(cfg, db, createTestLogger(t))
	out, _ := h.Execute(context.Background(), createTestInput())
	assert.False(t, out.Logged)
}

func TestHandler_Execute_NilDatabase(t *testing.T) {
	h := NewHandler(createTestConfig(), nil, createTestLogger(t))
	out, err := h.Execute(context.Background(), createTestInput())
	require.NoError(t, err)
	assert.False(t, out.Logged)
}

func TestNewHandler_DefaultsWriteTimeout(t *testing.T) {
	h := NewHandler(&Config{InteractionsTable: "t"}, nil, createTestLogger(t))
	assert.Equal(t, defaultWriteTimeout, h.config.WriteTimeout)
}
