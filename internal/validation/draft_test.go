package validation

import (
	"strings"
	"testing"

	"github.com/jonathan/signal-agent/internal/types"
	"github.com/stretchr/testify/assert"
)

func violationTypes(vs []Violation) []string {
	out := make([]string, 0, len(vs))
	for _, v := range vs {
		out = append(out, v.Type)
	}
	return out
}

func TestCheckDraft_Clean(t *testing.T) {
	draft := types.EmailDraft{
		Subject:      "Congrats on the new Plano clinic",
		Body:         "Hi Bright Smile, noticed your new Plano location opened this month.\n\nWould a 10-minute walkthrough next week be useful?",
		CallToAction: "Open to a 10-minute walkthrough next week?",
	}
	assert.Empty(t, CheckDraft(draft, DefaultDraftRules()))
}

func TestCheckDraft_Violations(t *testing.T) {
	tests := []struct {
		name     string
		draft    types.EmailDraft
		expected []string
	}{
		{
			name:     "long subject",
			draft:    types.EmailDraft{Subject: strings.Repeat("a", 61), Body: "ok"},
			expected: []string{ViolationSubjectLength},
		},
		{
			name:     "long body",
			draft:    types.EmailDraft{Subject: "Hi", Body: strings.Repeat("word ", 81)},
			expected: []string{ViolationBodyWords},
		},
		{
			name:     "link in body",
			draft:    types.EmailDraft{Subject: "Hi", Body: "See https://example.com for more."},
			expected: []string{ViolationLink},
		},
		{
			name:     "emoji in subject",
			draft:    types.EmailDraft{Subject: "Congrats 🎉", Body: "ok"},
			expected: []string{ViolationEmoji},
		},
		{
			name:     "bullets",
			draft:    types.EmailDraft{Subject: "Hi", Body: "We offer:\n- scheduling\n- reminders"},
			expected: []string{ViolationBulletList},
		},
		{
			name:     "forbidden phrase in cta",
			draft:    types.EmailDraft{Subject: "Hi", Body: "ok", CallToAction: "Act now for a demo"},
			expected: []string{ViolationForbiddenPhrase},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, violationTypes(CheckDraft(tt.draft, DefaultDraftRules())))
		})
	}
}

func TestCheckDraft_ZeroRulesOnlyContentChecks(t *testing.T) {
	draft := types.EmailDraft{Subject: strings.Repeat("a", 200), Body: strings.Repeat("word ", 200)}
	assert.Empty(t, CheckDraft(draft, DraftRules{}))
}
