package model

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"
)

// Record is a single decoded JSON object as delivered by the API.
type Record = map[string]any

// present mirrors an "isset" check: the key exists and is not null.
func present(rec Record, field string) bool {
	v, ok := rec[field]
	return ok && v != nil
}

// requireFields returns a ValidationError for the first absent field, in order.
func requireFields(entity string, rec Record, fields ...string) error {
	for _, f := range fields {
		if !present(rec, f) {
			return missing(entity, f)
		}
	}
	return nil
}

func stringField(entity string, rec Record, field string) (string, error) {
	switch v := rec[field].(type) {
	case string:
		return v, nil
	case json.Number:
		return v.String(), nil
	default:
		return "", invalid(entity, field, fmt.Sprintf("expected string, got %T", rec[field]))
	}
}

func optionalString(entity string, rec Record, field string) (*string, error) {
	if !present(rec, field) {
		return nil, nil
	}
	s, err := stringField(entity, rec, field)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func intField(entity string, rec Record, field string) (int, error) {
	switch v := rec[field].(type) {
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case float64:
		if v != math.Trunc(v) {
			return 0, invalid(entity, field, "expected integer")
		}
		return int(v), nil
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			return 0, invalid(entity, field, "expected integer")
		}
		return int(n), nil
	default:
		return 0, invalid(entity, field, fmt.Sprintf("expected integer, got %T", rec[field]))
	}
}

func optionalInt(entity string, rec Record, field string) (*int, error) {
	if !present(rec, field) {
		return nil, nil
	}
	n, err := intField(entity, rec, field)
	if err != nil {
		return nil, err
	}
	return &n, nil
}

// localeMap reads a locale -> text mapping such as {"en-US": "..."}.
func localeMap(entity string, rec Record, field string) (map[string]string, error) {
	out := map[string]string{}
	switch v := rec[field].(type) {
	case map[string]string:
		for k, s := range v {
			out[k] = s
		}
	case map[string]any:
		for k, raw := range v {
			if raw == nil {
				continue
			}
			s, ok := raw.(string)
			if !ok {
				return nil, invalid(entity, field, fmt.Sprintf("locale %q is not a string", k))
			}
			out[k] = s
		}
	default:
		return nil, invalid(entity, field, "expected locale map")
	}
	return out, nil
}

func stringList(entity string, rec Record, field string) ([]string, error) {
	if !present(rec, field) {
		return []string{}, nil
	}
	switch v := rec[field].(type) {
	case []string:
		return append([]string{}, v...), nil
	case []any:
		out := make([]string, 0, len(v))
		for _, raw := range v {
			s, ok := raw.(string)
			if !ok {
				return nil, invalid(entity, field, "expected list of strings")
			}
			out = append(out, s)
		}
		return out, nil
	default:
		return nil, invalid(entity, field, "expected list")
	}
}

// recordList reads an optional list of nested objects.
func recordList(entity string, rec Record, field string) ([]Record, error) {
	if !present(rec, field) {
		return nil, nil
	}
	switch v := rec[field].(type) {
	case []Record:
		return v, nil
	case []any:
		out := make([]Record, 0, len(v))
		for i, raw := range v {
			r, ok := raw.(map[string]any)
			if !ok {
				return nil, invalid(entity, field, fmt.Sprintf("item %d is not an object", i))
			}
			out = append(out, r)
		}
		return out, nil
	default:
		return nil, invalid(entity, field, "expected list")
	}
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
}

// timeField parses a timestamp; zone-less values are taken as UTC.
func timeField(entity string, rec Record, field string) (time.Time, error) {
	s, err := stringField(entity, rec, field)
	if err != nil {
		return time.Time{}, err
	}
	s = strings.TrimSpace(s)
	for _, layout := range timeLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, invalid(entity, field, fmt.Sprintf("unparseable time %q", s))
}
