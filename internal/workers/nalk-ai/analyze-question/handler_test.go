package analyzequestion

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"nalk-analytics/internal/common/llm"
	"nalk-analytics/internal/common/logger"
	"nalk-analytics/internal/models"
	"nalk-analytics/pkg/registry"
)

// ==========================
// Test Helper Functions
// ==========================

func createTestConfig() *Config {
	return &Config{
		Temperature:  0.1,
		MaxAttempts:  3,
		RetryBackoff: time.Millisecond,
		Timeout:      5 * time.Second,
	}
}

func createTestLogger(t *testing.T) logger.Logger {
	return logger.NewZapAdapter(zaptest.NewLogger(t))
}

func createTestFields() *registry.FieldRegistry {
	return &registry.FieldRegistry{
		Version: "1",
		Fields: []registry.FieldDescriptor{
			{Name: "win", Description: "Indica se o negócio foi ganho"},
			{Name: "deal_lost_reason_name", Description: "Motivo da perda"},
		},
	}
}

func newHandler(t *testing.T, responses ...llm.FakeResponse) (*Handler, *llm.FakeClient) {
	fake := llm.NewFakeClient(responses...)
	return NewHandler(createTestConfig(), fake, createTestFields(), createTestLogger(t)), fake
}

// ==========================
// Core Functionality Tests
// ==========================

func TestHandler_Execute_ParsesAnalysis(t *testing.T) {
	h, fake := newHandler(t, llm.FakeResponse{Text: "```json\n" + `{
		"entendimento": "motivos de perda em agosto",
		"campos_necessarios": ["deal_lost_reason_name", "win"],
		"filtros_identificados": {"periodo": "agosto", "status": "perdidos"},
		"precisa_esclarecimento": false
	}` + "\n```"})

	out, err := h.Execute(context.Background(), &Input{Question: "Quais os motivos de perda em agosto?"})
	require.NoError(t, err)

	assert.False(t, out.Fallback)
	assert.Equal(t, "motivos de perda em agosto", out.Analysis.Understanding)
	assert.Equal(t, []string{"deal_lost_reason_name", "win"}, out.Analysis.Fields)
	assert.Equal(t, models.StatusLost, out.Analysis.Filters.Status)
	assert.Equal(t, "agosto", out.Analysis.PeriodPhrase())

	calls := fake.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, 0.1, calls[0].Options.Temperature)
	assert.Equal(t, llm.RoleSystem, calls[0].Messages[0].Role)
}

func TestHandler_Execute_PromptCarriesFieldsSampleAndRules(t *testing.T) {
	h, fake := newHandler(t, llm.FakeResponse{Text: `{"entendimento":"x"}`})

	amount := 1500.0
	sample := &models.Deal{ID: "d-1", Name: "Contrato ACME", Amount: &amount, Win: true}

	_, err := h.Execute(context.Background(), &Input{Question: "Quanto vendemos?", SampleRow: sample})
	require.NoError(t, err)

	prompt := fake.LastPrompt()
	assert.Contains(t, prompt, "Quanto vendemos?")
	assert.Contains(t, prompt, "- win: Indica se o negócio foi ganho")
	assert.Contains(t, prompt, "Contrato ACME")
	assert.Contains(t, prompt, "win = true significa negócio ganho")
	assert.Contains(t, prompt, "hold = true significa negócio em espera")
}

func TestHandler_Execute_NormalizesOptionalValues(t *testing.T) {
	h, _ := newHandler(t, llm.FakeResponse{Text: `{"entendimento":"geral","campos_necessarios":[],"filtros_identificados":{"periodo":"null","status":"todos"}}`})

	out, err := h.Execute(context.Background(), &Input{Question: "Como estamos?"})
	require.NoError(t, err)

	assert.False(t, out.Fallback)
	assert.Equal(t, []string{"*"}, out.Analysis.Fields)
	assert.Nil(t, out.Analysis.Filters.Period)
	assert.Equal(t, models.StatusAll, out.Analysis.Filters.Status)
}

func TestHandler_Execute_UnknownStatusBecomesTodos(t *testing.T) {
	h, _ := newHandler(t, llm.FakeResponse{Text: `{"entendimento":"ganhos","filtros_identificados":{"periodo":null,"status":"ganhos"}}`})

	out, err := h.Execute(context.Background(), &Input{Question: "Quais negócios ganhamos?"})
	require.NoError(t, err)

	assert.False(t, out.Fallback)
	assert.Equal(t, models.StatusAll, out.Analysis.Filters.Status)
}

func TestHandler_Execute_ExtractsAnalysisFromProse(t *testing.T) {
	h, fake := newHandler(t, llm.FakeResponse{Text: "Claro! Aqui está a análise:\n" +
		`{"entendimento":"vendas de agosto","campos_necessarios":["*"],` +
		`"filtros_identificados":{"periodo":"agosto","status":"fechados"}}` +
		"\nEspero ter ajudado."})

	out, err := h.Execute(context.Background(), &Input{Question: "Quanto vendemos em agosto?"})
	require.NoError(t, err)

	assert.False(t, out.Fallback)
	assert.Empty(t, out.Reason)
	require.NotNil(t, out.Analysis.Filters.Period)
	assert.Equal(t, "agosto", *out.Analysis.Filters.Period)
	assert.Equal(t, models.StatusClosed, out.Analysis.Filters.Status)
	assert.Len(t, fake.Calls(), 1)
}

// ==========================
// Fallback Tests
// ==========================

func TestHandler_Execute_UnparsableOutputUsesDefault(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{name: "prose", raw: "Claro! O usuário quer saber sobre vendas."},
		{name: "missing understanding", raw: `{"campos_necessarios":["*"]}`},
		{name: "wrong field type", raw: `{"entendimento":"x","campos_necessarios":"win"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, fake := newHandler(t, llm.FakeResponse{Text: tt.raw})

			out, err := h.Execute(context.Background(), &Input{Question: "Quanto vendemos?"})
			require.NoError(t, err)

			assert.True(t, out.Fallback)
			assert.Equal(t, models.DefaultAnalysis(), out.Analysis)
			assert.Equal(t, "ANALYSIS_PARSE_FAILED", out.Reason)
			assert.Len(t, fake.Calls(), 1, "unparsable output is not retried")
		})
	}
}

func TestHandler_Execute_RetriesTransportFailures(t *testing.T) {
	h, fake := newHandler(t,
		llm.FakeResponse{Err: fmt.Errorf("%w: connection reset", llm.ErrRequestFailed)},
		llm.FakeResponse{Text: `{"entendimento":"vendas","filtros_identificados":{"status":"fechados"}}`},
	)

	out, err := h.Execute(context.Background(), &Input{Question: "Quanto vendemos?"})
	require.NoError(t, err)

	assert.False(t, out.Fallback)
	assert.Equal(t, models.StatusClosed, out.Analysis.Filters.Status)
	assert.Len(t, fake.Calls(), 2)
}

func TestHandler_Execute_GivesUpAfterMaxAttempts(t *testing.T) {
	failure := llm.FakeResponse{Err: fmt.Errorf("%w: 503", llm.ErrRequestFailed)}
	h, fake := newHandler(t, failure, failure, failure, failure)

	out, err := h.Execute(context.Background(), &Input{Question: "Quanto vendemos?"})
	require.NoError(t, err)

	assert.True(t, out.Fallback)
	assert.Equal(t, "LLM_REQUEST_FAILED", out.Reason)
	assert.Len(t, fake.Calls(), 3)
}

func TestHandler_Execute_InvalidResponseIsNotRetried(t *testing.T) {
	h, fake := newHandler(t,
		llm.FakeResponse{Err: fmt.Errorf("%w: no choices", llm.ErrInvalidResponse)},
		llm.FakeResponse{Text: `{"entendimento":"x"}`},
	)

	out, err := h.Execute(context.Background(), &Input{Question: "Quanto vendemos?"})
	require.NoError(t, err)

	assert.True(t, out.Fallback)
	assert.Equal(t, "LLM_INVALID_RESPONSE", out.Reason)
	assert.Len(t, fake.Calls(), 1)
}

// ==========================
// Validation Tests
// ==========================

func TestHandler_Execute_EmptyQuestion(t *testing.T) {
	h, fake := newHandler(t)

	_, err := h.Execute(context.Background(), &Input{Question: "   "})
	assert.ErrorIs(t, err, ErrInvalidQuestion)
	assert.Empty(t, fake.Calls())
}

func TestNewHandler_ClampsMaxAttempts(t *testing.T) {
	cfg := createTestConfig()
	cfg.MaxAttempts = 0
	h := NewHandler(cfg, llm.NewFakeClient(), nil, createTestLogger(t))
	assert.Equal(t, 1, h.config.MaxAttempts)
}

func TestBuildPrompt_WithoutMetadata(t *testing.T) {
	prompt := buildPrompt("Quanto vendemos?", nil, nil)
	assert.Contains(t, prompt, `"Quanto vendemos?"`)
	assert.NotContains(t, prompt, "Campos disponíveis")
	assert.NotContains(t, prompt, "Exemplo de registro")
}
