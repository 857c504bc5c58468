// internal/workers/nalk-ai/aggregate-results/prompt.go
package aggregateresults

import (
	"encoding/json"
	"fmt"
	"strings"

	"nalk-analytics/internal/models"
)

const systemPrompt = "Você agrega dados de negócios de CRM. Responda exclusivamente com JSON puro, sem markdown e sem texto fora do JSON."

var examples = []string{
	`{"tipo":"motivos_perda","resultados":[{"motivo":"Preço alto","quantidade":3}]}`,
	`{"tipo":"valor_vendido","resultados":[{"valor_total":15000.5,"deals_fechados":4,"total_deals":10}]}`,
	`{"tipo":"valores_mensais","resultados":[{"mes":"2025-07","nome_mes":"julho de 2025","valor_total":8000,"deals_fechados":2}]}`,
	`{"tipo":"estatisticas_gerais","resultados":[{"total_deals":10,"deals_ganhos":4,"deals_perdidos":5,"deals_em_espera":1,"valor_total":15000.5}]}`,
}

// promptRow keeps the columns aggregation needs.
type promptRow struct {
	CreatedAt  string   `json:"created_at"`
	Amount     *float64 `json:"deal_amount_total"`
	Win        bool     `json:"win"`
	Hold       bool     `json:"hold"`
	LostReason *string  `json:"deal_lost_reason_name"`
	Stage      string   `json:"deal_stage_name,omitempty"`
	Source     string   `json:"deal_source_name,omitempty"`
	Owner      string   `json:"user_name,omitempty"`
}

func toPromptRows(rows []models.Deal, limit int) []promptRow {
	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}
	out := make([]promptRow, len(rows))
	for i, d := range rows {
		out[i] = promptRow{
			CreatedAt:  d.CreatedAt.Format("2006-01-02"),
			Amount:     d.Amount,
			Win:        d.Win,
			Hold:       d.Hold,
			LostReason: d.LostReason,
			Stage:      d.StageName,
			Source:     d.SourceName,
			Owner:      d.OwnerName,
		}
	}
	return out
}

// buildPrompt renders attempt n of max; later attempts are stricter.
func buildPrompt(question string, rows []models.Deal, total, rowLimit, attempt, max int) string {
	var b strings.Builder

	fmt.Fprintf(&b, "TENTATIVA %d/%d\n\n", attempt, max)
	fmt.Fprintf(&b, "Pergunta: %q\n\n", question)

	sample := toPromptRows(rows, rowLimit)
	fmt.Fprintf(&b, "Total de registros: %d (amostra abaixo com %d)\n", total, len(sample))
	b.WriteString("Campos: created_at, deal_amount_total, win, hold, deal_lost_reason_name, deal_stage_name, deal_source_name, user_name\n\n")

	b.WriteString("Regras:\n")
	b.WriteString("- win = true significa negócio ganho; win = false e hold = false significa perdido.\n")
	b.WriteString("- deal_amount_total nulo ou inválido conta como 0 nas somas.\n\n")

	data, _ := json.Marshal(sample)
	b.WriteString("Dados:\n")
	b.Write(data)
	b.WriteString("\n\n")

	b.WriteString("Responda com um único objeto JSON em um destes formatos:\n")
	for _, ex := range examples {
		b.WriteString(ex)
		b.WriteString("\n")
	}

	if attempt > 1 {
		b.WriteString("\nA resposta anterior não era um JSON válido em um dos formatos acima.")
		b.WriteString(" Retorne SOMENTE o objeto JSON, começando com { e terminando com }.")
	}
	if attempt == max && max > 1 {
		b.WriteString(" Esta é a última tentativa: nenhuma explicação, nenhum bloco de código.")
	}

	return b.String()
}
