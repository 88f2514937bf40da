package mcp

import (
	"encoding/json"
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"
)

// ArgumentError reports a supplied argument the operation cannot accept.
type ArgumentError struct {
	Field  string
	Reason string
}

func (e *ArgumentError) Error() string {
	return fmt.Sprintf("invalid argument %s: %s", e.Field, e.Reason)
}

// Arguments holds the normalized input for one invocation: every field of the
// operation's contract is present and typed.
type Arguments map[string]any

// String returns a string or enum field.
func (a Arguments) String(name string) string {
	s, _ := a[name].(string)
	return s
}

// Int returns a number field truncated to an integer.
func (a Arguments) Int(name string) int {
	f, _ := a[name].(float64)
	return int(f)
}

// Normalize applies op's input contract to raw arguments.
//
// Missing, null, empty or mistyped string and number values fall back to the
// field default. Numbers outside the field bounds and enum values outside the
// allowed set are rejected with an *ArgumentError naming the field.
func Normalize(op OperationDescriptor, raw map[string]any) (Arguments, error) {
	args := make(Arguments, len(op.Fields))
	for _, f := range op.Fields {
		v, err := normalizeField(f, raw[f.Name])
		if err != nil {
			return nil, err
		}
		args[f.Name] = v
	}
	return args, nil
}

func normalizeField(f FieldSpec, v any) (any, error) {
	switch f.Kind {
	case KindString:
		if s, ok := v.(string); ok && s != "" {
			return s, nil
		}
		return f.Default, nil

	case KindNumber:
		n, ok := toNumber(v)
		if !ok || n == 0 {
			return f.Default, nil
		}
		if f.Min != 0 && n < f.Min {
			return nil, &ArgumentError{Field: f.Name, Reason: fmt.Sprintf("%v is below the minimum %v", n, f.Min)}
		}
		if f.Max != 0 && n > f.Max {
			return nil, &ArgumentError{Field: f.Name, Reason: fmt.Sprintf("%v exceeds the maximum %v", n, f.Max)}
		}
		return n, nil

	case KindEnum:
		if v == nil {
			return f.Default, nil
		}
		s, ok := v.(string)
		if !ok {
			return nil, &ArgumentError{Field: f.Name, Reason: fmt.Sprintf("expected one of %s, got %v", strings.Join(f.AllowedValues, ", "), v)}
		}
		if s == "" {
			return f.Default, nil
		}
		if !slices.Contains(f.AllowedValues, s) {
			return nil, &ArgumentError{Field: f.Name, Reason: fmt.Sprintf("expected one of %s, got %q", strings.Join(f.AllowedValues, ", "), s)}
		}
		return s, nil
	}

	return nil, &ArgumentError{Field: f.Name, Reason: fmt.Sprintf("unsupported field kind %q", f.Kind)}
}

// toNumber coerces the JSON-decoded shapes a caller may send for a number.
func toNumber(v any) (float64, bool) {
	var n float64
	switch x := v.(type) {
	case float64:
		n = x
	case float32:
		n = float64(x)
	case int:
		n = float64(x)
	case int64:
		n = float64(x)
	case json.Number:
		f, err := x.Float64()
		if err != nil {
			return 0, false
		}
		n = f
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return 0, false
		}
		n = f
	default:
		return 0, false
	}
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, false
	}
	return n, true
}
