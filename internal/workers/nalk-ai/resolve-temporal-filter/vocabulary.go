// internal/workers/nalk-ai/resolve-temporal-filter/vocabulary.go
package resolvetemporalfilter

import (
	"fmt"
	"strings"
	"time"
)

var monthNames = [12]string{
	"janeiro", "fevereiro", "março", "abril", "maio", "junho",
	"julho", "agosto", "setembro", "outubro", "novembro", "dezembro",
}

var monthAbbreviations = [12]string{
	"jan", "fev", "mar", "abr", "mai", "jun",
	"jul", "ago", "set", "out", "nov", "dez",
}

// MonthName returns the Portuguese name of m.
func MonthName(m time.Month) string {
	if m < time.January || m > time.December {
		return ""
	}
	return monthNames[m-1]
}

// fullNames are the spellings accepted as a literal month mention.
func fullNames(m time.Month) []string {
	names := []string{monthNames[m-1]}
	if m == time.March {
		names = append(names, "marco")
	}
	return names
}

// phrases returns the vocabulary for m in the given year.
func phrases(m time.Month, year int) []string {
	return append(fullNames(m),
		fmt.Sprintf("%04d-%02d", year, int(m)),
		monthAbbreviations[m-1],
	)
}

// MentionedMonths returns the distinct months named in full in text, in
// calendar order.
func MentionedMonths(text string) []time.Month {
	lower := strings.ToLower(text)
	var months []time.Month
	for m := time.January; m <= time.December; m++ {
		for _, name := range fullNames(m) {
			if strings.Contains(lower, name) {
				months = append(months, m)
				break
			}
		}
	}
	return months
}

// MonthLabel formats a month as "agosto de 2025".
func MonthLabel(t time.Time) string {
	return fmt.Sprintf("%s de %d", MonthName(t.Month()), t.Year())
}

// MonthLabelFromKey formats a "YYYY-MM" key, returning the key unchanged
// when it does not parse.
func MonthLabelFromKey(key string) string {
	t, err := time.Parse("2006-01", key)
	if err != nil {
		return key
	}
	return MonthLabel(t)
}
