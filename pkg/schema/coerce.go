package schema

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Coercion accepts the shapes UI layers typically hand over: numbers arrive
// as strings from text inputs and as float64 from decoded JSON.

func coerceString(name string, v any) (string, error) {
	switch typed := v.(type) {
	case string:
		return typed, nil
	case fmt.Stringer:
		return typed.String(), nil
	}
	return "", &ValueError{Field: name, Expected: "string", Value: v}
}

func coerceInt(name string, v any) (int, error) {
	switch typed := v.(type) {
	case int:
		return typed, nil
	case int32:
		return int(typed), nil
	case int64:
		return int(typed), nil
	case float64:
		if finite(typed) && typed == math.Trunc(typed) {
			return int(typed), nil
		}
	case string:
		if n, err := strconv.Atoi(strings.TrimSpace(typed)); err == nil {
			return n, nil
		}
	}
	return 0, &ValueError{Field: name, Expected: "integer", Value: v}
}

func coerceFloat(name string, v any) (float64, error) {
	var n float64
	switch typed := v.(type) {
	case float64:
		n = typed
	case float32:
		n = float64(typed)
	case int:
		n = float64(typed)
	case int64:
		n = float64(typed)
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(typed), 64)
		if err != nil {
			return 0, &ValueError{Field: name, Expected: "number", Value: v}
		}
		n = parsed
	default:
		return 0, &ValueError{Field: name, Expected: "number", Value: v}
	}
	// JSON has no encoding for Inf or NaN.
	if !finite(n) {
		return 0, &ValueError{Field: name, Expected: "finite number", Value: v}
	}
	return n, nil
}

func finite(n float64) bool {
	return !math.IsInf(n, 0) && !math.IsNaN(n)
}

func coerceStrings(name string, v any) ([]string, error) {
	switch typed := v.(type) {
	case nil:
		return []string{}, nil
	case []string:
		return append([]string{}, typed...), nil
	case []any:
		out := make([]string, 0, len(typed))
		for _, item := range typed {
			s, ok := item.(string)
			if !ok {
				return nil, &ValueError{Field: name, Expected: "list of strings", Value: v}
			}
			out = append(out, s)
		}
		return out, nil
	}
	return nil, &ValueError{Field: name, Expected: "list of strings", Value: v}
}
