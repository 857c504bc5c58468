// internal/workers/nalk-ai/compose-answer/prompt.go
package composeanswer

import (
	"encoding/json"
	"fmt"
	"strings"

	"nalk-analytics/internal/models"
)

const systemPrompt = "Você é um assistente de análise comercial. Responda sempre em português do Brasil, em Markdown simples."

var styleRules = []string{
	"Seja direto: responda exatamente o que foi perguntado.",
	"Destaque os números importantes em negrito com **...**.",
	"Deixe uma linha em branco entre seções.",
	"Use uma única quebra de linha entre itens de lista.",
	"Liste no máximo 5 itens.",
	"Não adicione frases de encerramento.",
	"Não ofereça insights que não foram pedidos.",
}

func buildPrompt(question string, agg models.AggregationResult) (string, error) {
	data, err := json.MarshalIndent(agg, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode aggregation: %w", err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Pergunta do usuário: %q\n\n", question)
	b.WriteString("Resultado da análise:\n")
	b.Write(data)
	b.WriteString("\n\nRegras de estilo:\n")
	for _, r := range styleRules {
		b.WriteString("- ")
		b.WriteString(r)
		b.WriteString("\n")
	}
	b.WriteString("\nValores monetários em reais (R$). Se o resultado estiver vazio, diga que não há dados suficientes.")
	return b.String(), nil
}
