package report

import (
	"math"
	"strconv"
	"strings"
)

// CroreScale is the number of currency units in one crore.
const CroreScale = 10_000_000

// ToCrores converts a raw amount to crores rounded to 2 decimals. Null and
// non-numeric values convert to 0.
func ToCrores(v any) float64 {
	f, _ := Number(v)
	return Round2(f / CroreScale)
}

// Round2 rounds half away from zero to 2 decimal places.
func Round2(f float64) float64 {
	return math.Round(f*100) / 100
}

// Number coerces a cell to float64. The second result is false for nulls and
// values that are not numbers; those count as 0 everywhere in this package.
func Number(v any) (float64, bool) {
	switch x := v.(type) {
	case nil:
		return 0, false
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int8:
		return float64(x), true
	case int16:
		return float64(x), true
	case int32:
		return float64(x), true
	case int64:
		return float64(x), true
	case uint:
		return float64(x), true
	case uint8:
		return float64(x), true
	case uint16:
		return float64(x), true
	case uint32:
		return float64(x), true
	case uint64:
		return float64(x), true
	case []byte:
		return parseNumber(string(x))
	case string:
		return parseNumber(x)
	default:
		return 0, false
	}
}

func parseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
