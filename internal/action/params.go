package action

import (
	"time"
)

// Param helpers. Recipe params arrive as map[string]any straight from
// YAML, so numbers may be int, int64 or float64 depending on how they
// were written.

// FloatParam reads a numeric parameter.
func FloatParam(params map[string]any, key string) (float64, bool) {
	v, ok := params[key]
	if !ok {
		return 0, false
	}
	return toFloat64(v)
}

// IntParam reads an integer parameter. Floats with a fractional part
// are rejected.
func IntParam(params map[string]any, key string) (int, bool) {
	f, ok := FloatParam(params, key)
	if !ok || f != float64(int(f)) {
		return 0, false
	}
	return int(f), true
}

// StringParam reads a string parameter.
func StringParam(params map[string]any, key string) (string, bool) {
	s, ok := params[key].(string)
	return s, ok
}

// DurationParam reads a duration parameter. Accepts either a Go duration
// string ("1.5s", "500ms") or a bare number of seconds.
func DurationParam(params map[string]any, key string) (time.Duration, bool) {
	v, ok := params[key]
	if !ok {
		return 0, false
	}
	switch d := v.(type) {
	case string:
		parsed, err := time.ParseDuration(d)
		if err != nil {
			return 0, false
		}
		return parsed, true
	default:
		f, ok := toFloat64(v)
		if !ok {
			return 0, false
		}
		return time.Duration(f * float64(time.Second)), true
	}
}

// MapParam reads a nested mapping parameter. YAML may decode nested maps
// as map[string]any or map[any]any; both are accepted.
func MapParam(params map[string]any, key string) (map[string]any, bool) {
	v, ok := params[key]
	if !ok {
		return nil, false
	}
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case map[any]any:
		out := make(map[string]any, len(m))
		for k, val := range m {
			ks, ok := k.(string)
			if !ok {
				return nil, false
			}
			out[ks] = val
		}
		return out, true
	}
	return nil, false
}

func toFloat64(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}
