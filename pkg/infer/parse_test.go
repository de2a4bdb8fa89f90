package infer

import (
	"testing"
	"time"

	"github.com/rlake-data/ingest-engine/pkg/models"
)

func TestParseInt(t *testing.T) {
	tests := []struct {
		in   string
		want int64
		ok   bool
	}{
		{"42", 42, true},
		{"-7", -7, true},
		{"+5", 5, true},
		{" 42 ", 42, true},
		{"0", 0, true},
		{"9223372036854775807", 9223372036854775807, true},
		{"9223372036854775808", 0, false},
		{"1.0", 0, false},
		{"1e3", 0, false},
		{"", 0, false},
		{"abc", 0, false},
	}
	for _, tt := range tests {
		got, ok := ParseInt(tt.in)
		if ok != tt.ok || got != tt.want {
			t.Errorf("ParseInt(%q) = (%d, %v), want (%d, %v)", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestParseFloat(t *testing.T) {
	tests := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"1.5", 1.5, true},
		{"-0.25", -0.25, true},
		{"1e3", 1000, true},
		{"10", 10, true},
		{" 2.5 ", 2.5, true},
		{"", 0, false},
		{"1,5", 0, false},
		{"abc", 0, false},
	}
	for _, tt := range tests {
		got, ok := ParseFloat(tt.in)
		if ok != tt.ok || (ok && got != tt.want) {
			t.Errorf("ParseFloat(%q) = (%g, %v), want (%g, %v)", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestParseBool(t *testing.T) {
	tests := []struct {
		in   string
		want bool
		ok   bool
	}{
		{"true", true, true},
		{"TRUE", true, true},
		{"Yes", true, true},
		{"1", true, true},
		{"false", false, true},
		{"No", false, true},
		{"0", false, true},
		{"t", false, false},
		{"y", false, false},
		{"on", false, false},
		{" true", false, false},
		{"", false, false},
	}
	for _, tt := range tests {
		got, ok := ParseBool(tt.in)
		if ok != tt.ok || got != tt.want {
			t.Errorf("ParseBool(%q) = (%v, %v), want (%v, %v)", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestParseDateTime(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
	}{
		{"2024-03-15T10:30:00Z", time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC)},
		{"2024-03-15T10:30:00.123Z", time.Date(2024, 3, 15, 10, 30, 0, 123000000, time.UTC)},
		{"2024-03-15 10:30:00", time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC)},
		{"2024-03-15", time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)},
		{"2024/03/15", time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)},
		{"03/15/2024", time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)},
		{"15 Mar 2024", time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)},
		{"20240315", time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		got, ok := ParseDateTime(tt.in)
		if !ok {
			t.Errorf("ParseDateTime(%q): no layout matched", tt.in)
			continue
		}
		if !got.Equal(tt.want) {
			t.Errorf("ParseDateTime(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}

	for _, in := range []string{"", "not a date", "2024-13-45", "12:30"} {
		if _, ok := ParseDateTime(in); ok {
			t.Errorf("ParseDateTime(%q): expected no match", in)
		}
	}
}

func TestCoerce(t *testing.T) {
	s := func(v string) *string { return &v }

	tests := []struct {
		name string
		raw  *string
		typ  models.ColumnType
		want models.Value
	}{
		{"nil is null for integers", nil, models.ColumnTypeInteger, models.NullValue()},
		{"nil is null for strings", nil, models.ColumnTypeString, models.NullValue()},
		{"integer", s("42"), models.ColumnTypeInteger, models.IntValue(42)},
		{"integer fallback", s("abc"), models.ColumnTypeInteger, models.StrValue("abc")},
		{"float", s("1.5"), models.ColumnTypeFloat, models.FloatValue(1.5)},
		{"float from int literal", s("10"), models.ColumnTypeFloat, models.FloatValue(10)},
		{"float nan is null", s("NaN"), models.ColumnTypeFloat, models.NullValue()},
		{"float inf keeps raw", s("inf"), models.ColumnTypeFloat, models.StrValue("inf")},
		{"float fallback", s("fast"), models.ColumnTypeFloat, models.StrValue("fast")},
		{"boolean yes", s("YES"), models.ColumnTypeBoolean, models.BoolValue(true)},
		{"boolean zero", s("0"), models.ColumnTypeBoolean, models.BoolValue(false)},
		{"boolean fallback", s("maybe"), models.ColumnTypeBoolean, models.StrValue("maybe")},
		{"string", s("hello"), models.ColumnTypeString, models.StrValue("hello")},
		{"datetime fallback", s("someday"), models.ColumnTypeDateTime, models.StrValue("someday")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Coerce(tt.raw, tt.typ)
			if got != tt.want {
				t.Errorf("Coerce(%v, %s) = %+v, want %+v", tt.raw, tt.typ, got, tt.want)
			}
		})
	}

	t.Run("datetime", func(t *testing.T) {
		got := Coerce(s("2024-03-15"), models.ColumnTypeDateTime)
		if got.Kind != models.KindDateTime {
			t.Fatalf("expected datetime value, got %s", got.Kind)
		}
		if want := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC); !got.Time.Equal(want) {
			t.Errorf("coerced time = %v, want %v", got.Time, want)
		}
	})
}
