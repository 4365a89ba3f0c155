package llm

import "fmt"

// RequestError describes a failed call to a chat endpoint
type RequestError struct {
	Provider   Provider
	StatusCode int
	Message    string
	Cause      error
}

func (e *RequestError) Error() string {
	msg := fmt.Sprintf("%s request failed", e.Provider)
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" (HTTP %d)", e.StatusCode)
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Cause != nil {
		msg += fmt.Sprintf(": %v", e.Cause)
	}
	return msg
}

func (e *RequestError) Unwrap() error {
	return e.Cause
}

// ErrUnsupportedProvider is returned by NewClient for an unknown provider name
type ErrUnsupportedProvider struct {
	Provider Provider
}

func (e ErrUnsupportedProvider) Error() string {
	return fmt.Sprintf("unsupported LLM provider: %s", e.Provider)
}
