package notes

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// DefaultAlphabet is the home-row/top-row piano layout, C to the upper C.
var DefaultAlphabet = []string{"A", "W", "S", "E", "D", "F", "T", "G", "Y", "H", "U", "J", "K"}

// NormalizeKey folds a key symbol to its canonical upper-case form.
func NormalizeKey(key string) string {
	// Casers keep state, so each call gets its own.
	return cases.Upper(language.Und).String(strings.TrimSpace(key))
}

// NormalizeKeys folds every symbol and drops empty entries.
func NormalizeKeys(keys []string) []string {
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		if k = NormalizeKey(k); k != "" {
			out = append(out, k)
		}
	}
	return out
}
