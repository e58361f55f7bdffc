package domain

import (
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"time"
)

// TimestampLayout is the fixed-width UTC text form of stored timestamps. Fixed
// width keeps lexical and chronological order identical.
const TimestampLayout = "2006-01-02T15:04:05.000000Z07:00"

// Fields is a flat column -> value mapping passed to the job log store.
type Fields map[string]any

var writableColumns = map[string]struct{}{
	ColAdIdea:     {},
	ColTitle:      {},
	ColPrompt:     {},
	ColStatus:     {},
	ColTaskID:     {},
	ColVideoURL:   {},
	ColError:      {},
	ColModel:      {},
	ColResolution: {},
	ColCreatedAt:  {},
	ColUpdatedAt:  {},
}

// Normalize validates column names and reduces every value to a primitive
// (string, int64, float64, bool or nil). Composite values are JSON encoded and
// timestamps are rendered with TimestampLayout, since the backing schema is flat.
func (f Fields) Normalize() (Fields, error) {
	out := make(Fields, len(f))
	for key, value := range f {
		if _, ok := writableColumns[key]; !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownField, key)
		}
		v, err := primitive(value)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", key, err)
		}
		out[key] = v
	}
	if raw, ok := out[ColStatus]; ok {
		s, _ := raw.(string)
		if !JobStatus(s).Valid() {
			return nil, fmt.Errorf("field %q: unknown status %v", ColStatus, raw)
		}
	}
	return out, nil
}

// Columns returns the keys in a stable order so generated SQL is deterministic.
func (f Fields) Columns() []string {
	cols := make([]string, 0, len(f))
	for k := range f {
		cols = append(cols, k)
	}
	sort.Strings(cols)
	return cols
}

// Status returns the status carried by the fields, if any.
func (f Fields) Status() (JobStatus, bool) {
	raw, ok := f[ColStatus]
	if !ok {
		return "", false
	}
	switch v := raw.(type) {
	case JobStatus:
		return v, true
	case string:
		return JobStatus(v), true
	}
	return "", false
}

func primitive(value any) (any, error) {
	switch v := value.(type) {
	case nil:
		return nil, nil
	case string:
		return v, nil
	case bool:
		return v, nil
	case int64:
		return v, nil
	case float64:
		return v, nil
	case time.Time:
		return v.UTC().Format(TimestampLayout), nil
	case *time.Time:
		if v == nil {
			return nil, nil
		}
		return v.UTC().Format(TimestampLayout), nil
	case fmt.Stringer:
		return v.String(), nil
	}

	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.String:
		return rv.String(), nil
	case reflect.Bool:
		return rv.Bool(), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int(), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return int64(rv.Uint()), nil
	case reflect.Float32, reflect.Float64:
		return rv.Float(), nil
	case reflect.Pointer:
		if rv.IsNil() {
			return nil, nil
		}
		return primitive(rv.Elem().Interface())
	}

	raw, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("encode composite value: %w", err)
	}
	return string(raw), nil
}
