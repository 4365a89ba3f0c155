// Package types provides type definitions for structured data used throughout the signal-agent system.
//
//nolint:revive // types is a standard Go package name pattern
package types

import (
	"sort"
	"time"
)

// SignalType is the kind of business event a validator can report
type SignalType string

const (
	// SignalExpansion covers new locations, grand openings and similar growth announcements
	SignalExpansion SignalType = "expansion"
	// SignalScheduler covers adoption of an online booking or scheduling tool
	SignalScheduler SignalType = "scheduler"
	// SignalHiring covers open roles and careers pages
	SignalHiring SignalType = "hiring"
)

// SignalTypes lists every known signal type in prompt order
var SignalTypes = []SignalType{SignalExpansion, SignalScheduler, SignalHiring}

// Valid reports whether s is one of the known signal types
func (s SignalType) Valid() bool {
	for _, t := range SignalTypes {
		if s == t {
			return true
		}
	}
	return false
}

// ScrapeResult is the output of the scrape stage.
// When OK is true, Pages and URLs share the same key set.
type ScrapeResult struct {
	OK    bool              `json:"ok"`
	Why   []string          `json:"why"`
	Pages map[string]string `json:"pages"` // path -> raw HTML
	URLs  map[string]string `json:"urls"`  // path -> absolute URL
}

// Paths returns the page keys in sorted order
func (r *ScrapeResult) Paths() []string {
	if r == nil {
		return nil
	}
	paths := make([]string, 0, len(r.Pages))
	for p := range r.Pages {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// HasPages reports whether the result is usable by the validate stage
func (r *ScrapeResult) HasPages() bool {
	return r != nil && r.OK && len(r.Pages) > 0
}

// ValidateResult is the output of the validate stage
type ValidateResult struct {
	OK          bool       `json:"ok"`
	Why         []string   `json:"why"`
	SignalType  SignalType `json:"signal_type,omitempty" validate:"omitempty,oneof=expansion scheduler hiring"`
	EvidenceURL string     `json:"evidence_url,omitempty"`
	Snippet     string     `json:"snippet,omitempty"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
	Confidence  float64    `json:"confidence" validate:"gte=0,lte=1"`
}

// HasEvidence reports whether a card can be built from the result
func (r *ValidateResult) HasEvidence() bool {
	return r != nil && r.OK && r.EvidenceURL != "" && r.Snippet != ""
}
