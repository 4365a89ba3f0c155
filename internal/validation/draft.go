package validation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/jonathan/signal-agent/internal/types"
)

// Violation types reported by CheckDraft
const (
	ViolationSubjectLength   = "subject_length"
	ViolationBodyWords       = "body_words"
	ViolationLink            = "link"
	ViolationEmoji           = "emoji"
	ViolationBulletList      = "bullet_list"
	ViolationForbiddenPhrase = "forbidden_phrase"
)

// Violation is one style rule a draft breaks. Violations are advisory; drafts
// are never rejected for them.
type Violation struct {
	Type    string `json:"type"`
	Field   string `json:"field"`
	Details string `json:"details"`
}

// DraftRules configures CheckDraft.
type DraftRules struct {
	MaxSubjectChars  int
	MaxBodyWords     int
	ForbiddenPhrases []string
}

// DefaultDraftRules mirrors the style guide given to the drafting model.
func DefaultDraftRules() DraftRules {
	return DraftRules{
		MaxSubjectChars:  60,
		MaxBodyWords:     80,
		ForbiddenPhrases: []string{"game-changer", "revolutionary", "synergy", "guaranteed", "act now"},
	}
}

var (
	linkPattern   = regexp.MustCompile(`(?i)\bhttps?://|\bwww\.`)
	bulletPattern = regexp.MustCompile(`(?m)^\s*(?:[-*•]|\d+[.)])\s+`)
)

// CheckDraft reports every style rule the draft breaks.
func CheckDraft(draft types.EmailDraft, rules DraftRules) []Violation {
	var violations []Violation

	if rules.MaxSubjectChars > 0 {
		if n := utf8.RuneCountInString(draft.Subject); n > rules.MaxSubjectChars {
			violations = append(violations, Violation{
				Type:    ViolationSubjectLength,
				Field:   "subject",
				Details: fmt.Sprintf("subject has %d characters, limit is %d", n, rules.MaxSubjectChars),
			})
		}
	}

	if rules.MaxBodyWords > 0 {
		if n := len(strings.Fields(draft.Body)); n > rules.MaxBodyWords {
			violations = append(violations, Violation{
				Type:    ViolationBodyWords,
				Field:   "body",
				Details: fmt.Sprintf("body has %d words, limit is %d", n, rules.MaxBodyWords),
			})
		}
	}

	fields := []struct {
		name string
		text string
	}{
		{"subject", draft.Subject},
		{"body", draft.Body},
		{"call_to_action", draft.CallToAction},
	}

	for _, f := range fields {
		if linkPattern.MatchString(f.text) {
			violations = append(violations, Violation{Type: ViolationLink, Field: f.name, Details: "contains a link"})
		}
		if containsEmoji(f.text) {
			violations = append(violations, Violation{Type: ViolationEmoji, Field: f.name, Details: "contains an emoji"})
		}
		lower := strings.ToLower(f.text)
		for _, phrase := range rules.ForbiddenPhrases {
			phrase = strings.ToLower(strings.TrimSpace(phrase))
			if phrase != "" && strings.Contains(lower, phrase) {
				violations = append(violations, Violation{
					Type:    ViolationForbiddenPhrase,
					Field:   f.name,
					Details: fmt.Sprintf("contains forbidden phrase: %s", phrase),
				})
				break
			}
		}
	}

	if bulletPattern.MatchString(draft.Body) {
		violations = append(violations, Violation{Type: ViolationBulletList, Field: "body", Details: "contains a bullet list"})
	}

	return violations
}

func containsEmoji(s string) bool {
	for _, r := range s {
		if unicode.Is(unicode.So, r) || (r >= 0x1F300 && r <= 0x1FAFF) {
			return true
		}
	}
	return false
}
