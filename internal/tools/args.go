package tools

import (
	"encoding/json"
	"fmt"
	"math"
)

// Args wraps the raw argument mapping of a tool call. Accessors return an
// error when a key is missing or of the wrong type; callers surface those as
// argument-class failures.
type Args map[string]any

// String extracts a required string argument.
func (a Args) String(key string) (string, error) {
	raw, ok := a[key]
	if !ok {
		return "", fmt.Errorf("argument error: missing %q", key)
	}
	value, ok := raw.(string)
	if !ok {
		return "", fmt.Errorf("argument error: %q must be a string", key)
	}
	return value, nil
}

// Int extracts a required integer argument. JSON decoding produces float64
// for all numbers, so integral floats are accepted.
func (a Args) Int(key string) (int, error) {
	raw, ok := a[key]
	if !ok {
		return 0, fmt.Errorf("argument error: missing %q", key)
	}
	switch value := raw.(type) {
	case int:
		return value, nil
	case int64:
		return int(value), nil
	case float64:
		if value != math.Trunc(value) {
			return 0, fmt.Errorf("argument error: %q must be an integer", key)
		}
		return int(value), nil
	case json.Number:
		parsed, err := value.Int64()
		if err != nil {
			return 0, fmt.Errorf("argument error: %q must be an integer", key)
		}
		return int(parsed), nil
	default:
		return 0, fmt.Errorf("argument error: %q must be an integer", key)
	}
}

// Bool extracts a required boolean argument.
func (a Args) Bool(key string) (bool, error) {
	raw, ok := a[key]
	if !ok {
		return false, fmt.Errorf("argument error: missing %q", key)
	}
	value, ok := raw.(bool)
	if !ok {
		return false, fmt.Errorf("argument error: %q must be a boolean", key)
	}
	return value, nil
}
