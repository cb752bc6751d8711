package action

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Inputs are the declared parameters of one invocation, as decoded from JSON
// or YAML. Absent keys and nil values mean "not supplied".
type Inputs map[string]any

// String returns the input as a string; non-string scalars are formatted.
func (in Inputs) String(key string) string {
	switch v := in[key].(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}

// OptionalString returns nil when the input is absent or blank.
func (in Inputs) OptionalString(key string) *string {
	s := in.String(key)
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return &s
}

// Int returns nil when the input is absent. A value that cannot be coerced
// to an integer is a ConfigurationError.
func (in Inputs) Int(key string) (*int, error) {
	var n int
	switch v := in[key].(type) {
	case nil:
		return nil, nil
	case int:
		n = v
	case int64:
		n = int(v)
	case float64:
		if v != math.Trunc(v) {
			return nil, &ConfigurationError{Key: key, Value: fmt.Sprint(v)}
		}
		n = int(v)
	case string:
		if strings.TrimSpace(v) == "" {
			return nil, nil
		}
		parsed, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return nil, &ConfigurationError{Key: key, Value: v}
		}
		n = parsed
	default:
		return nil, &ConfigurationError{Key: key, Value: fmt.Sprint(v)}
	}
	return &n, nil
}

// Bool returns nil when the input is absent.
func (in Inputs) Bool(key string) (*bool, error) {
	var b bool
	switch v := in[key].(type) {
	case nil:
		return nil, nil
	case bool:
		b = v
	case string:
		if strings.TrimSpace(v) == "" {
			return nil, nil
		}
		parsed, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return nil, &ConfigurationError{Key: key, Value: v}
		}
		b = parsed
	default:
		return nil, &ConfigurationError{Key: key, Value: fmt.Sprint(v)}
	}
	return &b, nil
}
