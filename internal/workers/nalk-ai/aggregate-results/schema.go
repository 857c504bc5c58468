// internal/workers/nalk-ai/aggregate-results/schema.go
package aggregateresults

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"nalk-analytics/internal/models"
)

// resultSchema accepts exactly the known aggregation shapes.
const resultSchema = `{
  "type": "object",
  "required": ["tipo", "resultados"],
  "oneOf": [
    {
      "properties": {
        "tipo": {"enum": ["motivos_perda"]},
        "resultados": {"type": "array", "items": {
          "type": "object",
          "required": ["motivo", "quantidade"],
          "properties": {
            "motivo": {"type": "string"},
            "quantidade": {"type": "integer", "minimum": 0}
          }
        }}
      }
    },
    {
      "properties": {
        "tipo": {"enum": ["valor_vendido"]},
        "resultados": {"type": "array", "items": {
          "type": "object",
          "required": ["valor_total", "deals_fechados", "total_deals"],
          "properties": {
            "valor_total": {"type": "number"},
            "deals_fechados": {"type": "integer", "minimum": 0},
            "total_deals": {"type": "integer", "minimum": 0}
          }
        }}
      }
    },
    {
      "properties": {
        "tipo": {"enum": ["valores_mensais"]},
        "resultados": {"type": "array", "items": {
          "type": "object",
          "required": ["mes", "valor_total", "deals_fechados"],
          "properties": {
            "mes": {"type": "string", "pattern": "^[0-9]{4}-[0-9]{2}$"},
            "nome_mes": {"type": "string"},
            "valor_total": {"type": "number"},
            "deals_fechados": {"type": "integer", "minimum": 0}
          }
        }}
      }
    },
    {
      "properties": {
        "tipo": {"enum": ["estatisticas_gerais"]},
        "resultados": {"type": "array", "items": {
          "type": "object",
          "required": ["total_deals", "deals_ganhos", "valor_total"],
          "properties": {
            "total_deals": {"type": "integer", "minimum": 0},
            "deals_ganhos": {"type": "integer", "minimum": 0},
            "deals_perdidos": {"type": "integer", "minimum": 0},
            "deals_em_espera": {"type": "integer", "minimum": 0},
            "valor_total": {"type": "number"}
          }
        }}
      }
    }
  ]
}`

var compiledSchema *gojsonschema.Schema

func init() {
	s, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(resultSchema))
	if err != nil {
		panic(fmt.Sprintf("aggregate-results: invalid result schema: %v", err))
	}
	compiledSchema = s
}

// decodeResult validates doc against the known shapes and decodes it.
func decodeResult(doc string) (*models.AggregationResult, error) {
	result, err := compiledSchema.Validate(gojsonschema.NewStringLoader(doc))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAggregationParseFailed, err)
	}
	if !result.Valid() {
		errs := make([]string, len(result.Errors()))
		for i, desc := range result.Errors() {
			errs[i] = desc.String()
		}
		return nil, fmt.Errorf("%w: %s", ErrAggregationValidationFailed, strings.Join(errs, "; "))
	}

	normalized, err := wholeNumbers(doc)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAggregationParseFailed, err)
	}

	var agg models.AggregationResult
	if err := json.Unmarshal(normalized, &agg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAggregationParseFailed, err)
	}
	return &agg, nil
}

// wholeNumbers rewrites integral numbers such as 2.0 or 3e1 as plain
// integers. The schema accepts them as integers but encoding/json does not.
func wholeNumbers(doc string) ([]byte, error) {
	dec := json.NewDecoder(strings.NewReader(doc))
	dec.UseNumber()
	var v interface{}
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	return json.Marshal(rewriteNumbers(v))
}

func rewriteNumbers(v interface{}) interface{} {
	switch t := v.(type) {
	case map[string]interface{}:
		for k, e := range t {
			t[k] = rewriteNumbers(e)
		}
	case []interface{}:
		for i, e := range t {
			t[i] = rewriteNumbers(e)
		}
	case json.Number:
		if _, err := t.Int64(); err == nil {
			return t
		}
		f, err := t.Float64()
		if err == nil && f == math.Trunc(f) && math.Abs(f) < 1<<53 {
			return json.Number(strconv.FormatInt(int64(f), 10))
		}
	}
	return v
}
