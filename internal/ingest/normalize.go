package ingest

import (
	"regexp"
	"sort"
	"strings"

	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var whitespaceRegex = regexp.MustCompile(`\s+`)

// normalizeHeader maps the many spellings of a column header found in
// exports ("R$ NEGOCIADO TOTAL \n(LÍQUIDO)", decomposed accents from macOS)
// onto one key. Accents are kept: "PRAÇA" stays "PRAÇA".
func normalizeHeader(h string) string {
	out, _, err := transform.String(norm.NFC, h)
	if err != nil {
		out = h
	}
	out = whitespaceRegex.ReplaceAllString(out, " ")
	return strings.ToUpper(strings.TrimSpace(out))
}

// normalizeKeys resolves headers that collide after normalization the same
// way every time: a non-nil value under the exact vocabulary spelling wins,
// otherwise the first non-nil value in sorted raw-key order.
func normalizeKeys(row map[string]any) map[string]any {
	keys := make([]string, 0, len(row))
	for k := range row {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make(map[string]any, len(row))
	exact := make(map[string]bool, len(row))
	for _, k := range keys {
		v := row[k]
		nk := normalizeHeader(k)
		prev, seen := out[nk]
		switch {
		case !seen:
		case exact[nk]:
			continue
		case k == nk && v != nil:
		case prev == nil && v != nil:
		default:
			continue
		}
		out[nk] = v
		exact[nk] = k == nk && v != nil
	}
	return out
}
