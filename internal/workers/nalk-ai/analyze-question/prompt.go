// internal/workers/nalk-ai/analyze-question/prompt.go
package analyzequestion

import (
	"encoding/json"
	"fmt"
	"strings"

	"nalk-analytics/internal/models"
	"nalk-analytics/pkg/registry"
)

const systemPrompt = "Você é um analista de dados de CRM. Interprete perguntas sobre negócios (deals) e responda somente com JSON válido, sem texto adicional."

var domainRules = []string{
	"win = true significa negócio ganho (fechado, vendido).",
	"win = false e hold = false significa negócio perdido.",
	"hold = true significa negócio em espera.",
}

func buildPrompt(question string, fields *registry.FieldRegistry, sample *models.Deal) string {
	var parts []string

	parts = append(parts, fmt.Sprintf("Pergunta do usuário: %q", question))

	if fields != nil && len(fields.Fields) > 0 {
		parts = append(parts, "\nCampos disponíveis na tabela de negócios:")
		for _, f := range fields.Fields {
			parts = append(parts, fmt.Sprintf("- %s: %s", f.Name, f.Description))
		}
	}

	if sample != nil {
		sampleJSON, _ := json.MarshalIndent(sample, "", "  ")
		parts = append(parts, "\nExemplo de registro:")
		parts = append(parts, string(sampleJSON))
	}

	parts = append(parts, "\nRegras do domínio:")
	for _, r := range domainRules {
		parts = append(parts, "- "+r)
	}

	parts = append(parts, "\nResponda APENAS com um JSON no formato:")
	parts = append(parts, `{
  "entendimento": "resumo do que o usuário quer saber",
  "campos_necessarios": ["nome_do_campo"],
  "filtros_identificados": {
    "periodo": "mês ou período mencionado, ou null",
    "status": "fechados | perdidos | em_andamento | todos"
  },
  "precisa_esclarecimento": false
}`)

	return strings.Join(parts, "\n")
}
