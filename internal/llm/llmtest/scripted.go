// Package llmtest provides a scripted llm.ChatClient for tests.
package llmtest

import (
	"context"
	"errors"
	"sync"

	"github.com/jonathan/signal-agent/internal/llm"
)

// ErrExhausted is returned once every scripted reply has been used
var ErrExhausted = errors.New("llmtest: no scripted replies left")

// Reply is one scripted response; a non-nil Err is returned instead of Text
type Reply struct {
	Text string
	Err  error
}

// Scripted returns its replies in order and records every transcript it receives
type Scripted struct {
	mu      sync.Mutex
	replies []Reply
	calls   [][]llm.Message
	model   string
}

// NewScripted creates a client that answers with texts in order
func NewScripted(texts ...string) *Scripted {
	s := &Scripted{model: "scripted"}
	for _, t := range texts {
		s.replies = append(s.replies, Reply{Text: t})
	}
	return s
}

// NewScriptedReplies creates a client from replies that may include errors
func NewScriptedReplies(replies ...Reply) *Scripted {
	return &Scripted{model: "scripted", replies: replies}
}

// Repeat creates a client that answers with the same text n times
func Repeat(text string, n int) *Scripted {
	texts := make([]string, n)
	for i := range texts {
		texts[i] = text
	}
	return NewScripted(texts...)
}

// Chat returns the next scripted reply
func (s *Scripted) Chat(_ context.Context, messages []llm.Message) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.calls = append(s.calls, append([]llm.Message(nil), messages...))
	if len(s.replies) == 0 {
		return "", ErrExhausted
	}
	r := s.replies[0]
	s.replies = s.replies[1:]
	return r.Text, r.Err
}

// Calls returns a copy of every transcript received
func (s *Scripted) Calls() [][]llm.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([][]llm.Message(nil), s.calls...)
}

// CallCount returns how many times Chat was called
func (s *Scripted) CallCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

// Model returns a fixed identifier
func (s *Scripted) Model() string {
	return s.model
}

// Close is a no-op
func (s *Scripted) Close() error {
	return nil
}
