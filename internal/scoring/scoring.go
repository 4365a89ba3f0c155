// Package scoring provides the freshness and confidence heuristics used to score evidence cards.
package scoring

import (
	"math"
	"regexp"
	"strings"
	"time"

	"github.com/jonathan/signal-agent/internal/types"
)

// Default parameters for freshness decay
const (
	DefaultWeeklyDecay = 0.85
	DefaultFloor       = 0.3
	// UnknownDateWeight is the weight applied when no publish date is known
	UnknownDateWeight = 0.9
)

// Confidence components
const (
	baseConfidence   = 0.4
	explicitBonus    = 0.3
	addressLikeBonus = 0.1
	vendorHintBonus  = 0.1
)

// Reason codes reported in EvidenceCard.Explain
const (
	ReasonExplicitPhrase = "explicit_phrase"
	ReasonAddressLike    = "address_like"
	ReasonVendorHint     = "vendor_hint"
	ReasonGeneric        = "generic"
)

var (
	explicitPattern    = regexp.MustCompile(`(?i)(grand\s*opening|now\s*open|new\s*location|opened\s*(our\s*)?(second|third))`)
	addressLikePattern = regexp.MustCompile(`\d{2,5}\s+\w+`)
)

// FreshnessWeight returns the recency weight for a publish date using the default decay and floor.
func FreshnessWeight(publishedAt *time.Time, now time.Time) float64 {
	return FreshnessWeightWith(publishedAt, now, DefaultWeeklyDecay, DefaultFloor)
}

// FreshnessWeightWith decays by weeklyDecay per whole elapsed week and never drops below floor.
// A nil date yields UnknownDateWeight; future dates count as zero weeks old.
func FreshnessWeightWith(publishedAt *time.Time, now time.Time, weeklyDecay, floor float64) float64 {
	if publishedAt == nil {
		return UnknownDateWeight
	}

	elapsed := now.UTC().Sub(publishedAt.UTC())
	weeks := math.Floor(elapsed.Hours() / 24 / 7)
	if weeks <= 0 {
		return 1.0
	}

	return math.Max(floor, math.Pow(weeklyDecay, weeks))
}

// Confidence scores a snippet for a signal type, scaled by the freshness weight.
// The score is clamped to [0, 1] and rounded to three decimals. Reasons are
// comma-joined, or "generic" when no heuristic fired.
func Confidence(signalType types.SignalType, snippet string, weight float64) (float64, string) {
	base := baseConfidence
	var reasons []string

	if explicitPattern.MatchString(snippet) {
		base += explicitBonus
		reasons = append(reasons, ReasonExplicitPhrase)
	}
	if addressLikePattern.MatchString(snippet) {
		base += addressLikeBonus
		reasons = append(reasons, ReasonAddressLike)
	}
	if signalType == types.SignalScheduler {
		base += vendorHintBonus
		reasons = append(reasons, ReasonVendorHint)
	}

	score := round(clamp01(base*weight), 3)
	if len(reasons) == 0 {
		return score, ReasonGeneric
	}
	return score, strings.Join(reasons, ",")
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

// Round2 rounds to two decimals, as shown in card explanations
func Round2(v float64) float64 {
	return round(v, 2)
}
