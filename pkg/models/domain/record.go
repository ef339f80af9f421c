package domain

import (
	"math"
	"strings"
	"time"

	"github.com/spf13/cast"
)

// UnknownKey is the bucket used for records whose grouping field is missing or empty.
const UnknownKey = "Unknown"

// Record is one flat business row (a contract or licence line item).
// Values are whatever the dataset carried: string, float64, bool or nil.
type Record map[string]any

// String returns the field rendered as text, "" when absent or null.
func (r Record) String(field string) string {
	v, ok := r[field]
	if !ok || v == nil {
		return ""
	}
	s, err := cast.ToStringE(v)
	if err != nil {
		return ""
	}
	return s
}

// Number returns the field as a float64. Anything that does not parse is 0.
func (r Record) Number(field string) float64 {
	v, ok := r[field]
	if !ok || v == nil {
		return 0
	}
	if _, isBool := v.(bool); isBool {
		return 0
	}
	if s, isString := v.(string); isString {
		v = strings.TrimSpace(s)
	}
	f, err := cast.ToFloat64E(v)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

// IsNumber reports whether the field holds a value that parses as a finite number.
func (r Record) IsNumber(field string) bool {
	v, ok := r[field]
	if !ok || v == nil {
		return false
	}
	if _, isBool := v.(bool); isBool {
		return false
	}
	if s, isString := v.(string); isString {
		if strings.TrimSpace(s) == "" {
			return false
		}
		v = strings.TrimSpace(s)
	}
	f, err := cast.ToFloat64E(v)
	return err == nil && !math.IsNaN(f) && !math.IsInf(f, 0)
}

// Time parses the field as a date. The second result is false for missing or unparseable values.
func (r Record) Time(field string) (time.Time, bool) {
	s := strings.TrimSpace(r.String(field))
	if s == "" {
		return time.Time{}, false
	}
	t, err := cast.ToTimeE(s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// GroupKey returns the bucket key of the record for field.
func (r Record) GroupKey(field string) string {
	key := strings.TrimSpace(r.String(field))
	if key == "" {
		return UnknownKey
	}
	return key
}

// Clone returns a shallow copy of the record.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Dataset is the ordered, immutable result of a load.
type Dataset struct {
	Columns []string
	Records []Record
}

// Len returns the number of records.
func (d Dataset) Len() int {
	return len(d.Records)
}
