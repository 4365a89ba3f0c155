// Package extract recovers structured JSON objects from free-form model replies.
//
// Replies drift: prose before and after the payload, markdown fences, raw newlines
// inside string literals, several objects in one message. Extract tries a fixed
// sequence of recovery strategies and accepts the first candidate that passes the
// caller's validation.
package extract

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ValidateFunc checks a candidate object. A nil error accepts it.
type ValidateFunc func(candidate []byte) error

// Options controls a single extraction
type Options struct {
	// Marker is a key the payload must contain, without quotes (for example "ok")
	Marker string
	// Validate is applied to every well-formed candidate; nil accepts any object
	Validate ValidateFunc
}

// Error reports that no candidate in the text validated
type Error struct {
	Marker     string
	Candidates int
	Cause      error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("no valid object with key %q among %d candidates: %v", e.Marker, e.Candidates, e.Cause)
	}
	return fmt.Sprintf("no valid object with key %q among %d candidates", e.Marker, e.Candidates)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// ErrNoObject is the cause reported when the text contains no braces at all
var ErrNoObject = errors.New("no JSON object in text")

// Extract returns the first candidate object in text that parses and validates.
//
// Strategies, in order:
//  1. the whole text after fence stripping
//  2. brace-matched objects enclosing each occurrence of the marker key
//  3. the span from the first '{' to the last '}'
//
// Candidates that fail are retried once after Sanitize.
func Extract(text string, opts Options) ([]byte, error) {
	tried := make(map[string]bool)
	var lastErr error
	attempts := 0

	try := func(candidate string) ([]byte, bool) {
		candidate = strings.TrimSpace(candidate)
		if candidate == "" || tried[candidate] {
			return nil, false
		}
		tried[candidate] = true
		attempts++

		out, err := accept(candidate, opts.Validate)
		if err == nil {
			return out, true
		}
		lastErr = err

		sanitized := Sanitize(candidate)
		if sanitized == candidate {
			return nil, false
		}
		out, err = accept(sanitized, opts.Validate)
		if err != nil {
			lastErr = err
			return nil, false
		}
		return out, true
	}

	stripped := StripFences(text)
	if strings.HasPrefix(stripped, "{") && strings.HasSuffix(stripped, "}") {
		if out, ok := try(stripped); ok {
			return out, nil
		}
	}

	for _, candidate := range CandidateSpans(text, opts.Marker) {
		if out, ok := try(candidate); ok {
			return out, nil
		}
	}

	if candidate, ok := outerSpan(text); ok {
		if out, ok := try(candidate); ok {
			return out, nil
		}
	}

	if attempts == 0 && lastErr == nil {
		lastErr = ErrNoObject
	}
	return nil, &Error{Marker: opts.Marker, Candidates: attempts, Cause: lastErr}
}

// accept checks that candidate is a single JSON object and passes validate
func accept(candidate string, validate ValidateFunc) ([]byte, error) {
	data := []byte(candidate)

	var probe map[string]json.RawMessage
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&probe); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	if dec.More() {
		return nil, errors.New("trailing data after object")
	}

	if validate != nil {
		if err := validate(data); err != nil {
			return nil, err
		}
	}
	return data, nil
}
