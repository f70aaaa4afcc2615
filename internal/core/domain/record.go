package domain

import (
	"strconv"
	"strings"
	"time"
)

// RawRecord is one record as returned by the upstream statistics API.
// The wire schema varies per dataset, so the raw boundary stays loosely typed.
type RawRecord map[string]any

// FieldKind tags the type of a canonical field value.
type FieldKind int

const (
	FieldString FieldKind = iota
	FieldInt
	FieldFloat
	FieldTime
)

// FieldValue is a typed cell in a canonical record.
type FieldValue struct {
	Kind  FieldKind
	Str   string
	Int   int64
	Float float64
	Time  time.Time
}

func StringValue(s string) FieldValue  { return FieldValue{Kind: FieldString, Str: s} }
func IntValue(i int64) FieldValue      { return FieldValue{Kind: FieldInt, Int: i} }
func FloatValue(f float64) FieldValue  { return FieldValue{Kind: FieldFloat, Float: f} }
func TimeValue(t time.Time) FieldValue { return FieldValue{Kind: FieldTime, Time: t} }

// IsNull reports whether the value is empty or the literal string "null".
func (v FieldValue) IsNull() bool {
	if v.Kind != FieldString {
		return false
	}
	s := strings.TrimSpace(v.Str)
	return s == "" || strings.EqualFold(s, "null")
}

// Numeric returns the value as a float64 when it is numeric or a numeric string.
func (v FieldValue) Numeric() (float64, bool) {
	switch v.Kind {
	case FieldInt:
		return float64(v.Int), true
	case FieldFloat:
		return v.Float, true
	case FieldString:
		f, err := strconv.ParseFloat(strings.TrimSpace(v.Str), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	}
	return 0, false
}

// String renders the value for keys, logs and JSONL output.
func (v FieldValue) String() string {
	switch v.Kind {
	case FieldInt:
		return strconv.FormatInt(v.Int, 10)
	case FieldFloat:
		return strconv.FormatFloat(v.Float, 'f', -1, 64)
	case FieldTime:
		return v.Time.Format(time.RFC3339)
	}
	return v.Str
}

// CanonicalRecord is the output of field mapping: fixed column names to
// typed values per domain schema, joinable downstream via DatasetID.
type CanonicalRecord struct {
	DatasetID string
	Fields    map[string]FieldValue
}

// Columns returns the record's column names.
func (r CanonicalRecord) Columns() []string {
	cols := make([]string, 0, len(r.Fields))
	for c := range r.Fields {
		cols = append(cols, c)
	}
	return cols
}

// Get returns the value for a column.
func (r CanonicalRecord) Get(col string) (FieldValue, bool) {
	v, ok := r.Fields[col]
	return v, ok
}
