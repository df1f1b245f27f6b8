// Package text prepares user input before it is sent to a synthesis backend.
package text

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

const whitespaceRegexPattern = `\s+`

// Punctuation and formatting constants.
const (
	emDash       = "—"
	enDash       = "–"
	figureDash   = "‒"
	ellipsis     = "..."
	ellipsisChar = "…"
)

// Normalizer rewrites text into the plain form synthesis engines handle best.
type Normalizer struct {
	whitespacePattern    *regexp.Regexp
	abbreviationReplacer *strings.Replacer
	punctuationReplacer  *strings.Replacer
}

// NewNormalizer creates a Normalizer with compiled patterns and replacers.
func NewNormalizer() *Normalizer {
	abbreviations := []string{
		"Mr.", "Mister",
		"Mrs.", "Misses",
		"Ms.", "Miss",
		"Dr.", "Doctor",
		"St.", "Saint",
		"Co.", "Company",
		"Ltd.", "Limited",
		"Corp.", "Corporation",
		"Inc.", "Incorporated",
	}

	return &Normalizer{
		whitespacePattern:    regexp.MustCompile(whitespaceRegexPattern),
		abbreviationReplacer: strings.NewReplacer(abbreviations...),
		punctuationReplacer: strings.NewReplacer(
			emDash, "-",
			enDash, "-",
			figureDash, "-",
			ellipsisChar, ellipsis,
			"“", `"`, "”", `"`,
			"‘", "'", "’", "'",
		),
	}
}

// Normalize expands abbreviations, straightens quotes and dashes, collapses
// whitespace and terminates the final sentence. Empty or blank input
// returns "".
func (n *Normalizer) Normalize(input string) string {
	collapsed := strings.TrimSpace(n.whitespacePattern.ReplaceAllString(input, " "))
	if collapsed == "" {
		return ""
	}

	expanded := n.abbreviationReplacer.Replace(collapsed)
	plain := n.punctuationReplacer.Replace(expanded)

	return ensureSentenceEnding(plain)
}

func ensureSentenceEnding(text string) string {
	lastChar, _ := utf8.DecodeLastRuneInString(text)

	switch {
	case lastChar == '.', lastChar == '!', lastChar == '?':
		return text
	case unicode.IsPunct(lastChar) && lastChar != '"' && lastChar != '\'' && lastChar != ')':
		return strings.TrimRightFunc(text, unicode.IsPunct) + "."
	default:
		return text + "."
	}
}
