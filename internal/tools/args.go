package tools

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Args holds decoded JSON arguments for a tool call
type Args map[string]json.RawMessage

// RequiredString returns a required, non-blank string argument
func (args Args) RequiredString(key string) (string, error) {
	value, ok, err := args.OptionalString(key)
	if err != nil {
		return "", err
	}
	if !ok || strings.TrimSpace(value) == "" {
		return "", fmt.Errorf("%s is required", key)
	}
	return value, nil
}

// OptionalString returns an optional string argument with a presence flag
func (args Args) OptionalString(key string) (string, bool, error) {
	raw, ok := args[key]
	if !ok || isNull(raw) {
		return "", false, nil
	}
	var value string
	if err := json.Unmarshal(raw, &value); err != nil {
		return "", false, fmt.Errorf("%s must be a string", key)
	}
	return value, true, nil
}

// OptionalStringSlice returns an optional string slice argument.
// A single string is accepted as a one-element list.
func (args Args) OptionalStringSlice(key string) ([]string, error) {
	raw, ok := args[key]
	if !ok || isNull(raw) {
		return nil, nil
	}
	var value []string
	if err := json.Unmarshal(raw, &value); err == nil {
		return value, nil
	}
	var single string
	if err := json.Unmarshal(raw, &single); err == nil {
		return []string{single}, nil
	}
	return nil, fmt.Errorf("%s must be a list of strings", key)
}

// OptionalInt returns an optional integer argument.
// Numeric strings such as "5" are accepted.
func (args Args) OptionalInt(key string) (*int, error) {
	raw, ok := args[key]
	if !ok || isNull(raw) {
		return nil, nil
	}
	var value int
	if err := json.Unmarshal(raw, &value); err == nil {
		return &value, nil
	}
	var quoted string
	if err := json.Unmarshal(raw, &quoted); err == nil {
		var n int
		if _, err := fmt.Sscanf(strings.TrimSpace(quoted), "%d", &n); err == nil {
			return &n, nil
		}
	}
	return nil, fmt.Errorf("%s must be an integer", key)
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}
