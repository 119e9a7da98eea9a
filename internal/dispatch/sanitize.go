package dispatch

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// properNounRun matches runs of two or more capitalized words, the shape of
// personal names that trip real-person safety filters.
var properNounRun = regexp.MustCompile(`\b[A-Z][a-z]+(?:\s+[A-Z][a-z]+)+\b`)

// triggerTerms are single words that reliably trip celebrity/real-person
// filters regardless of surrounding text.
var triggerTerms = []string{
	"celebrity",
	"actress",
	"actor",
	"president",
	"politician",
	"singer",
	"influencer",
}

// SanitizePrompt strips proper nouns and known real-person trigger terms
// from a prompt after a content-policy rejection. Input is NFKC-normalized
// first so stylized Unicode spellings cannot dodge the replacement.
func SanitizePrompt(prompt string) string {
	sanitized := norm.NFKC.String(prompt)
	sanitized = properNounRun.ReplaceAllString(sanitized, "a person")

	for _, term := range triggerTerms {
		sanitized = replaceWordInsensitive(sanitized, term, "person")
	}

	sanitized = strings.Join(strings.Fields(sanitized), " ")
	return sanitized
}

func replaceWordInsensitive(text, word, replacement string) string {
	fields := strings.Fields(text)
	for i, field := range fields {
		trimmed := strings.Trim(field, ".,!?;:\"'")
		if strings.EqualFold(trimmed, word) {
			fields[i] = strings.Replace(field, trimmed, replacement, 1)
		}
	}
	return strings.Join(fields, " ")
}
