package domain

import (
	"math"
	"strconv"
)

// Metadata carries summarized event details from the host application.
// Accessors never fail: missing or mistyped values read as zero.
type Metadata map[string]any

// Float returns the numeric value for key. JSON numbers, Go numeric types
// and numeric strings are accepted; NaN and ±Inf read as 0.
func (m Metadata) Float(key string) float64 {
	var f float64
	switch v := m[key].(type) {
	case float64:
		f = v
	case float32:
		f = float64(v)
	case int:
		f = float64(v)
	case int64:
		f = float64(v)
	case int32:
		f = float64(v)
	case string:
		parsed, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return 0
		}
		f = parsed
	default:
		return 0
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

// Int returns Float truncated toward zero, saturated to the int range.
func (m Metadata) Int(key string) int {
	f := m.Float(key)
	switch {
	case f >= float64(math.MaxInt):
		return math.MaxInt
	case f <= float64(math.MinInt):
		return math.MinInt
	}
	return int(f)
}

// Bool returns the boolean value for key. "true"/"1" strings count as true.
func (m Metadata) Bool(key string) bool {
	switch v := m[key].(type) {
	case bool:
		return v
	case string:
		b, _ := strconv.ParseBool(v)
		return b
	}
	return false
}

// String returns the string value for key.
func (m Metadata) String(key string) string {
	if s, ok := m[key].(string); ok {
		return s
	}
	return ""
}

// Has reports whether key is present.
func (m Metadata) Has(key string) bool {
	_, ok := m[key]
	return ok
}
