package reconciliation

import (
	"regexp"
	"strings"
	"unicode"

	"reconciliation-service/internal/domain"

	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var whitespaceRegex = regexp.MustCompile(`\s+`)

// foldText lower-cases, strips accents and collapses whitespace.
func foldText(s string) string {
	t := transform.Chain(norm.NFD, transform.RemoveFunc(func(r rune) bool {
		return unicode.Is(unicode.Mn, r)
	}))
	result, _, err := transform.String(t, s)
	if err != nil {
		result = s
	}
	result = strings.ToLower(result)
	result = whitespaceRegex.ReplaceAllString(result, " ")
	return strings.TrimSpace(result)
}

// rowText flattens a row into a single folded string.
func rowText(row []domain.Cell) string {
	parts := make([]string, 0, len(row))
	for _, c := range row {
		if c.IsBlank() {
			continue
		}
		parts = append(parts, c.String())
	}
	return foldText(strings.Join(parts, " "))
}
