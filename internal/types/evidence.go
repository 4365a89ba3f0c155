package types

import "time"

// MaxSnippetRunes bounds EvidenceCard.Snippet
const MaxSnippetRunes = 320

// MaxSubjectRunes bounds EmailDraft.Subject
const MaxSubjectRunes = 120

// EvidenceCard is the scored, timestamped record of a detected signal
type EvidenceCard struct {
	SignalType     SignalType `json:"signal_type" validate:"required,oneof=expansion scheduler hiring"`
	CanonicalURL   string     `json:"canonical_url" validate:"required,url"`
	FirstSeen      time.Time  `json:"first_seen"`
	LastSeen       time.Time  `json:"last_seen"`
	Snippet        string     `json:"snippet" validate:"max=320"`
	ScreenshotPath string     `json:"screenshot_path,omitempty"`
	Confidence     float64    `json:"confidence" validate:"gte=0,lte=1"`
	Explain        string     `json:"explain"`
	SourceSite     string     `json:"source_site,omitempty"`
}

// EmailDraft is an outreach email produced for a card that cleared the confidence gate
type EmailDraft struct {
	Subject      string `json:"subject" validate:"required,max=120"`
	Body         string `json:"body" validate:"required"`
	CallToAction string `json:"call_to_action,omitempty"`
}

// Record is one line of the batch output file
type Record struct {
	Domain   string        `json:"domain"`
	Company  string        `json:"company"`
	Vertical string        `json:"vertical"`
	Card     *EvidenceCard `json:"card"`
	Email    *EmailDraft   `json:"email"`
}
