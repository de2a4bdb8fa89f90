package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// DateTimeFormat is the canonical string form for DATETIME values.
// Every datetime is normalized to this form before hashing and storage so
// that value-identical rows serialize identically.
const DateTimeFormat = time.RFC3339

// ValueKind discriminates the variants of a Value.
type ValueKind int

const (
	KindNull ValueKind = iota
	KindInt
	KindFloat
	KindStr
	KindBool
	KindDateTime
)

// String returns the kind name for logging and error messages.
func (k ValueKind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindStr:
		return "str"
	case KindBool:
		return "bool"
	case KindDateTime:
		return "datetime"
	default:
		return fmt.Sprintf("ValueKind(%d)", int(k))
	}
}

// Value is a tagged variant holding one typed cell value.
// The zero Value is the null value.
type Value struct {
	Kind  ValueKind
	Int   int64
	Float float64
	Str   string
	Bool  bool
	Time  time.Time
}

// NullValue returns the null variant.
func NullValue() Value {
	return Value{Kind: KindNull}
}

// IntValue returns an integer variant.
func IntValue(v int64) Value {
	return Value{Kind: KindInt, Int: v}
}

// FloatValue returns a float variant.
func FloatValue(v float64) Value {
	return Value{Kind: KindFloat, Float: v}
}

// StrValue returns a string variant.
func StrValue(v string) Value {
	return Value{Kind: KindStr, Str: v}
}

// BoolValue returns a boolean variant.
func BoolValue(v bool) Value {
	return Value{Kind: KindBool, Bool: v}
}

// DateTimeValue returns a datetime variant.
func DateTimeValue(v time.Time) Value {
	return Value{Kind: KindDateTime, Time: v}
}

// IsNull reports whether the value is the null variant.
func (v Value) IsNull() bool {
	return v.Kind == KindNull
}

// ValueFromAny rebuilds a Value from the plain Go form a stored record
// round-trips through JSON as: nil, bool, float64, string. JSON carries no
// integer or datetime kind, so stored integers come back as floats and
// stored datetimes as their canonical string form. Unrecognized types map
// to null.
func ValueFromAny(v any) Value {
	switch t := v.(type) {
	case nil:
		return NullValue()
	case bool:
		return BoolValue(t)
	case float64:
		return FloatValue(t)
	case string:
		return StrValue(t)
	case int64:
		return IntValue(t)
	case int:
		return IntValue(int64(t))
	default:
		return NullValue()
	}
}

// Go converts the value to its plain Go representation: nil, int64,
// float64, string or bool. DATETIME converts to its canonical string form.
func (v Value) Go() any {
	switch v.Kind {
	case KindNull:
		return nil
	case KindInt:
		return v.Int
	case KindFloat:
		return v.Float
	case KindStr:
		return v.Str
	case KindBool:
		return v.Bool
	case KindDateTime:
		return v.Time.Format(DateTimeFormat)
	default:
		return nil
	}
}

// MarshalJSON serializes the value for canonical row serialization.
// Datetimes serialize as their canonical string form.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case KindNull:
		return []byte("null"), nil
	case KindInt:
		return json.Marshal(v.Int)
	case KindFloat:
		return json.Marshal(v.Float)
	case KindStr:
		return json.Marshal(v.Str)
	case KindBool:
		return json.Marshal(v.Bool)
	case KindDateTime:
		return json.Marshal(v.Time.Format(DateTimeFormat))
	default:
		return nil, fmt.Errorf("cannot marshal value of kind %s", v.Kind)
	}
}

// String renders the value for display. Null renders as the empty string.
func (v Value) String() string {
	switch v.Kind {
	case KindNull:
		return ""
	case KindInt:
		return fmt.Sprintf("%d", v.Int)
	case KindFloat:
		return fmt.Sprintf("%g", v.Float)
	case KindStr:
		return v.Str
	case KindBool:
		return fmt.Sprintf("%t", v.Bool)
	case KindDateTime:
		return v.Time.Format(DateTimeFormat)
	default:
		return ""
	}
}
