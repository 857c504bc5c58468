package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeal_Status(t *testing.T) {
	assert.Equal(t, DealWon, Deal{Win: true, Hold: true}.Status())
	assert.Equal(t, DealOnHold, Deal{Hold: true}.Status())
	assert.Equal(t, DealLost, Deal{}.Status())
}

func TestDeal_AmountOrZero(t *testing.T) {
	v := 12.5
	assert.Equal(t, 12.5, Deal{Amount: &v}.AmountOrZero())
	assert.Equal(t, 0.0, Deal{}.AmountOrZero())
}

func TestDefaultAnalysis_Encoding(t *testing.T) {
	data, err := json.Marshal(DefaultAnalysis())
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"entendimento": "general",
		"campos_necessarios": ["*"],
		"filtros_identificados": {},
		"precisa_esclarecimento": false
	}`, string(data))
}

func TestAggregationResult_Encoding(t *testing.T) {
	result := AggregationResult{
		Kind:        KindLossReasons,
		LossReasons: []LossReasonCount{{Reason: "Preço alto", Count: 2}},
	}

	data, err := json.Marshal(result)
	require.NoError(t, err)
	assert.JSONEq(t, `{"tipo":"motivos_perda","resultados":[{"motivo":"Preço alto","quantidade":2}]}`, string(data))

	var decoded AggregationResult
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, result, decoded)
	assert.Equal(t, 1, decoded.Len())
}

func TestAggregationResult_EmptyResultsEncodeAsArray(t *testing.T) {
	data, err := json.Marshal(AggregationResult{Kind: KindMonthlyRevenue})
	require.NoError(t, err)
	assert.JSONEq(t, `{"tipo":"valores_mensais","resultados":[]}`, string(data))
}

func TestAggregationResult_RejectsUnknownKinds(t *testing.T) {
	var r AggregationResult
	assert.Error(t, json.Unmarshal([]byte(`{"tipo":"ranking","resultados":[]}`), &r))
	assert.Error(t, json.Unmarshal([]byte(`{"tipo":"valor_vendido"}`), &r))
	assert.Error(t, json.Unmarshal([]byte(`{"tipo":"valor_vendido","resultados":"x"}`), &r))

	_, err := json.Marshal(AggregationResult{Kind: "ranking"})
	assert.Error(t, err)
}

func TestStatusFilter_Valid(t *testing.T) {
	for _, s := range StatusValues {
		assert.True(t, StatusFilter(s).Valid(), s)
	}
	assert.False(t, StatusFilter("ganhos").Valid())
	assert.False(t, StatusFilter("").Valid())
}
