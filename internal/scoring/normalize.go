package scoring

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// NormalizeScore converts a score of unknown shape into an integer in [0, 100].
// Non-numeric, NaN and infinite inputs become 0; halves round up. The float is
// clamped before rounding so huge finite values cannot overflow int.
func NormalizeScore(v any) int {
	f, ok := toFloat(v)
	if !ok || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return Round(math.Max(0, math.Min(f, MaxScore)))
}

// Round rounds half up: 90.5 becomes 91.
func Round(f float64) int {
	return int(math.Floor(f + 0.5))
}

// Clamp bounds a score to [0, MaxScore].
func Clamp(score int) int {
	switch {
	case score < 0:
		return 0
	case score > MaxScore:
		return MaxScore
	default:
		return score
	}
}

func toFloat(v any) (float64, bool) {
	switch val := v.(type) {
	case nil:
		return 0, false
	case float64:
		return val, true
	case float32:
		return float64(val), true
	case int:
		return float64(val), true
	case int32:
		return float64(val), true
	case int64:
		return float64(val), true
	case uint:
		return float64(val), true
	case json.Number:
		f, err := val.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		return f, err == nil
	case bool:
		return 0, false
	default:
		return 0, false
	}
}
