package table

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
)

// ValueType defines the storage type for a cell
type ValueType string

const (
	ValueTypeMissing ValueType = "missing"
	ValueTypeNumeric ValueType = "numeric"
	ValueTypeString  ValueType = "string"
)

// Value is a single cell: a number, a string, or missing.
// The zero Value is missing.
type Value struct {
	kind ValueType
	num  float64
	str  string
}

// NewNumericValue creates a numeric value
func NewNumericValue(n float64) Value {
	return Value{kind: ValueTypeNumeric, num: n}
}

// NewStringValue creates a string value. The empty string is kept as a
// string; deciding what counts as missing is the cleaner's job.
func NewStringValue(s string) Value {
	return Value{kind: ValueTypeString, str: s}
}

// NewMissingValue creates a missing value
func NewMissingValue() Value {
	return Value{kind: ValueTypeMissing}
}

// Type reports the storage type of the value
func (v Value) Type() ValueType {
	if v.kind == "" {
		return ValueTypeMissing
	}
	return v.kind
}

// IsMissing returns true for null cells
func (v Value) IsMissing() bool { return v.Type() == ValueTypeMissing }

// IsNumeric returns true if the value holds a number
func (v Value) IsNumeric() bool { return v.kind == ValueTypeNumeric }

// IsString returns true if the value holds a string
func (v Value) IsString() bool { return v.kind == ValueTypeString }

// AsFloat64 returns the numeric value, or 0 if not numeric
func (v Value) AsFloat64() float64 {
	if v.kind == ValueTypeNumeric {
		return v.num
	}
	return 0
}

// AsString returns the string value, or empty string if not a string
func (v Value) AsString() string {
	if v.kind == ValueTypeString {
		return v.str
	}
	return ""
}

// String renders the value for labels and grouping keys
func (v Value) String() string {
	switch v.Type() {
	case ValueTypeNumeric:
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	case ValueTypeString:
		return v.str
	}
	return "<missing>"
}

// MarshalJSON encodes missing and non-finite numbers as null
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.Type() {
	case ValueTypeNumeric:
		if math.IsNaN(v.num) || math.IsInf(v.num, 0) {
			return []byte("null"), nil
		}
		return json.Marshal(v.num)
	case ValueTypeString:
		return json.Marshal(v.str)
	}
	return []byte("null"), nil
}

// UnmarshalJSON accepts any JSON scalar. Booleans, objects and arrays are
// kept as their JSON text so that downstream coercion stays total.
func (v *Value) UnmarshalJSON(data []byte) error {
	raw := bytes.TrimSpace(data)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		*v = NewMissingValue()
		return nil
	}

	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return err
		}
		*v = NewStringValue(s)
	case '{', '[':
		var buf bytes.Buffer
		if err := json.Compact(&buf, raw); err != nil {
			return err
		}
		*v = NewStringValue(buf.String())
	case 't', 'f':
		*v = NewStringValue(string(raw))
	default:
		f, err := strconv.ParseFloat(string(raw), 64)
		if err != nil || math.IsInf(f, 0) {
			*v = NewStringValue(string(raw))
			return nil
		}
		*v = NewNumericValue(f)
	}
	return nil
}
