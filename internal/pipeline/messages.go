// internal/pipeline/messages.go
package pipeline

import (
	"strings"
	"time"

	"nalk-analytics/internal/models"
	resolvetemporalfilter "nalk-analytics/internal/workers/nalk-ai/resolve-temporal-filter"
)

const welcomeMessage = "Olá! Eu sou a Nalk AI, sua assistente de análise comercial. " +
	"Pergunte sobre vendas, motivos de perda ou o desempenho de um período."

// welcome appends the known data range when there is one.
func welcome(bounds models.DateBounds, loc *time.Location) string {
	if bounds.Empty() {
		return welcomeMessage
	}
	return welcomeMessage + "\n\nTenho dados de **" + bounds.Earliest.In(loc).Format("02/01/2006") +
		"** até **" + bounds.Latest.In(loc).Format("02/01/2006") + "**."
}

func noDataMessage(label string, periods []string) string {
	var b strings.Builder
	b.WriteString("Não encontrei negócios para **")
	b.WriteString(label)
	b.WriteString("**.")

	if len(periods) == 0 {
		b.WriteString("\n\nAinda não há períodos com vendas registradas.")
		return b.String()
	}

	b.WriteString("\n\nPeríodos com vendas disponíveis:\n")
	for i, p := range periods {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString("- ")
		b.WriteString(resolvetemporalfilter.MonthLabelFromKey(p))
	}
	b.WriteString("\n\nTente perguntar sobre um desses períodos.")
	return b.String()
}
