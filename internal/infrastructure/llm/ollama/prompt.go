package ollama

import (
	"strings"

	"github.com/kirillkom/paperbox/internal/core/domain"
)

const maxPromptSnippet = 6000

func buildExtractionPrompt(filename, text string) string {
	snippet := truncateRunes(text, maxPromptSnippet)

	names := make([]string, 0, len(domain.Categories()))
	for _, c := range domain.Categories() {
		names = append(names, string(c))
	}

	return `You analyse personal bureaucratic documents written in German or English.
Return a strict JSON object with keys:
category (one of: ` + strings.Join(names, ", ") + `),
summary (string, one or two sentences),
extractedData (object with arrays of strings: dates, amounts, reference_ids, keywords, due_dates, expiry_dates, payment_dates, renewal_dates),
urgency_score (integer 1-10, 10 when due today or overdue),
confidence_score (number from 0 to 1).
Write every date as YYYY-MM-DD. Use "Other" only when nothing else fits.
No markdown, no extra keys.

Filename: ` + filename + `
Document:
` + snippet
}

// truncateRunes keeps at most limit characters without splitting a
// multi-byte sequence.
func truncateRunes(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	count := 0
	for i := range s {
		if count == limit {
			return s[:i]
		}
		count++
	}
	return s
}
