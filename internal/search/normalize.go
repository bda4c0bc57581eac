// Package search hosts the Search Coordinator: the orchestrator that
// answers read requests from cache/store, decides when to refresh, and
// launches background scrapes.
package search

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var diacriticFold = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// NormalizeQuery trims, lower-cases, and diacritic-folds a user query so
// that "Café", "cafe", and "CAFÉ" all land on the same cache key and
// store row. Normalization is idempotent: NormalizeQuery(NormalizeQuery(q)) == NormalizeQuery(q).
func NormalizeQuery(q string) string {
	q = strings.TrimSpace(q)
	q = strings.ToLower(q)
	q = strings.Join(strings.Fields(q), " ")
	folded, _, err := transform.String(diacriticFold, q)
	if err != nil {
		return q
	}
	return folded
}
