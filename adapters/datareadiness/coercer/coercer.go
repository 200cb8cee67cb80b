package coercer

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"insightdash/domain/table"
)

// standard decimal notation: optional sign, digits with optional fraction, optional exponent
var decimalPattern = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?$`)

// CoercionConfig defines which literal strings count as missing
type CoercionConfig struct {
	MissingTokens []string `json:"missing_tokens"`
}

// DefaultCoercionConfig returns the tokens the dashboard treats as null
func DefaultCoercionConfig() CoercionConfig {
	return CoercionConfig{
		MissingTokens: []string{"", "N/A", "null"},
	}
}

// TypeCoercer normalizes cells to null, number or trimmed string
type TypeCoercer struct {
	missing map[string]bool
}

// NewTypeCoercer creates a coercer with the given config
func NewTypeCoercer(config CoercionConfig) *TypeCoercer {
	missing := make(map[string]bool, len(config.MissingTokens))
	for _, tok := range config.MissingTokens {
		missing[tok] = true
	}
	return &TypeCoercer{missing: missing}
}

// CoerceValue normalizes one cell. It is idempotent:
// CoerceValue(CoerceValue(v)) == CoerceValue(v).
func (c *TypeCoercer) CoerceValue(v table.Value) table.Value {
	switch v.Type() {
	case table.ValueTypeNumeric:
		f := v.AsFloat64()
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return table.NewMissingValue()
		}
		return v
	case table.ValueTypeString:
		return c.coerceString(v.AsString())
	}
	return table.NewMissingValue()
}

// CoerceRaw converts a driver or spreadsheet value into a normalized cell
func (c *TypeCoercer) CoerceRaw(raw interface{}) table.Value {
	switch v := raw.(type) {
	case nil:
		return table.NewMissingValue()
	case table.Value:
		return c.CoerceValue(v)
	case float64:
		return c.CoerceValue(table.NewNumericValue(v))
	case float32:
		return c.CoerceValue(table.NewNumericValue(float64(v)))
	case int:
		return table.NewNumericValue(float64(v))
	case int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		f, _ := strconv.ParseFloat(fmt.Sprintf("%d", v), 64)
		return table.NewNumericValue(f)
	case []byte:
		return c.coerceString(string(v))
	case string:
		return c.coerceString(v)
	case bool:
		return table.NewStringValue(strconv.FormatBool(v))
	case time.Time:
		return table.NewStringValue(v.UTC().Format(time.RFC3339))
	default:
		return c.coerceString(fmt.Sprintf("%v", v))
	}
}

func (c *TypeCoercer) coerceString(s string) table.Value {
	trimmed := strings.TrimSpace(s)
	if c.missing[trimmed] {
		return table.NewMissingValue()
	}
	if f, ok := parseDecimal(trimmed); ok {
		return table.NewNumericValue(f)
	}
	return table.NewStringValue(trimmed)
}

// parseDecimal accepts standard decimal notation only; hex, "Inf", "NaN"
// and thousands separators stay strings
func parseDecimal(s string) (float64, bool) {
	if !decimalPattern.MatchString(s) {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
		return 0, false
	}
	return f, true
}
