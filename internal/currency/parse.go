package currency

import (
	"encoding/json"
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

// zero sentinels observed in pt-BR media-plan exports
var sentinels = map[string]struct{}{
	"":   {},
	"-":  {},
	"--": {},
}

// Parse converts a pt-BR formatted amount ("R$ 1.234,56") or a plain number
// into a float64. It never fails: anything it cannot read is 0, and negative
// amounts are clamped to 0.
func Parse(v any) float64 {
	switch t := v.(type) {
	case nil:
		return 0
	case string:
		return ParseString(t)
	case float64:
		return finite(t)
	case float32:
		return finite(float64(t))
	case int:
		return finite(float64(t))
	case int8:
		return finite(float64(t))
	case int16:
		return finite(float64(t))
	case int32:
		return finite(float64(t))
	case int64:
		return finite(float64(t))
	case uint:
		return finite(float64(t))
	case uint8:
		return finite(float64(t))
	case uint16:
		return finite(float64(t))
	case uint32:
		return finite(float64(t))
	case uint64:
		return finite(float64(t))
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return 0
		}
		return finite(f)
	default:
		return 0
	}
}

// exponent is scientific notation as spreadsheets export it ("1.2E+07").
// The mantissa separator is a decimal point, never a thousands separator.
var exponent = regexp.MustCompile(`^-?\d+(?:[.,]\d+)?[eE][-+]?\d+$`)

// ParseString handles the display-string form only. Letters other than the
// "R$" symbol make the value malformed, except in scientific notation.
func ParseString(s string) float64 {
	s = strings.ReplaceAll(s, "R$", "")
	if strings.IndexFunc(s, unicode.IsLetter) >= 0 {
		c := strings.Join(strings.Fields(s), "")
		if !exponent.MatchString(c) {
			return 0
		}
		f, err := strconv.ParseFloat(strings.Replace(c, ",", ".", 1), 64)
		if err != nil {
			return 0
		}
		return finite(f)
	}
	s = strip(s)
	if _, ok := sentinels[s]; ok {
		return 0
	}
	s = strings.ReplaceAll(s, ".", "")
	s = strings.ReplaceAll(s, ",", ".")
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return finite(f)
}

// strip drops whitespace (NBSP included), symbols and any other decoration,
// keeping digits, separators and the sign.
func strip(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9', r == '.', r == ',', r == '-':
			b.WriteRune(r)
		}
	}
	return b.String()
}

func finite(f float64) float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) || f < 0 {
		return 0
	}
	return f
}
