package query

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Accessor extracts one field from a record. It returns a string, a numeric
// value, a bool, a time.Time, or nil when the record has no value.
type Accessor[T any] func(T) any

// Fields is a module's field table, keyed by the (possibly dotted) field
// name used in configs and descriptors, e.g. "role.name".
type Fields[T any] map[string]Accessor[T]

func (f Fields[T]) Value(rec T, field string) any {
	get, ok := f[field]
	if !ok {
		return nil
	}
	return get(rec)
}

// Missing returns the config fields that have no accessor.
func (f Fields[T]) Missing(cfg *Config) []string {
	var missing []string
	for _, name := range cfg.Fields() {
		if _, ok := f[name]; !ok {
			missing = append(missing, name)
		}
	}
	return missing
}

// TimePtr adapts an optional timestamp for an accessor so that an unset
// value reads as nil rather than a typed nil pointer.
func TimePtr(t *time.Time) any {
	if t == nil {
		return nil
	}
	return *t
}

var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseTime accepts RFC 3339 timestamps and plain dates.
func ParseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised time %q", s)
}

// Text returns the canonical text form of an accessor value, the form
// filters and facets compare. It reports false for missing values.
func Text(v any) (string, bool) {
	return stringValue(v)
}

func stringValue(v any) (string, bool) {
	switch x := v.(type) {
	case nil:
		return "", false
	case string:
		return x, true
	case bool:
		return strconv.FormatBool(x), true
	case time.Time:
		if x.IsZero() {
			return "", false
		}
		return x.UTC().Format(time.RFC3339Nano), true
	case fmt.Stringer:
		return x.String(), true
	}
	if f, ok := numberValue(v); ok {
		return strconv.FormatFloat(f, 'f', -1, 64), true
	}
	return fmt.Sprint(v), true
}

// numberValue reports the value as a float64 when it is of a numeric kind.
func numberValue(v any) (float64, bool) {
	switch x := v.(type) {
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
	case float32:
		return float64(x), true
	case float64:
		return x, true
	}
	return 0, false
}

// coerceNumber is numberValue plus numeric strings, for range filtering.
func coerceNumber(v any) (float64, bool) {
	if f, ok := numberValue(v); ok {
		return f, true
	}
	if s, ok := v.(string); ok {
		f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		return f, err == nil
	}
	return 0, false
}

// coerceTime accepts time values and parseable strings.
func coerceTime(v any) (time.Time, bool) {
	switch x := v.(type) {
	case time.Time:
		return x, !x.IsZero()
	case string:
		t, err := ParseTime(x)
		return t, err == nil
	}
	return time.Time{}, false
}
