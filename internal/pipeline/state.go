package pipeline

import (
	"github.com/jonathan/signal-agent/internal/pipeline/steps"
	"github.com/jonathan/signal-agent/internal/types"
)

// Stage is a position in the state machine
type Stage string

// Stages in execution order
const (
	StageScrape       Stage = "scrape"
	StageValidate     Stage = "validate"
	StageOutboundGate Stage = "outbound_gate"
	StageDone         Stage = "done"
)

// stageSteps maps each runnable stage to its registry step
var stageSteps = map[Stage]string{
	StageScrape:       steps.StepScrape,
	StageValidate:     steps.StepValidate,
	StageOutboundGate: steps.StepOutboundGate,
}

// State is everything known about one domain's run. It is passed by value:
// each stage receives a copy, fills in its result and returns it.
type State struct {
	Domain         string                `json:"domain"`
	Company        string                `json:"company,omitempty"`
	Vertical       string                `json:"vertical,omitempty"`
	ScrapeResult   *types.ScrapeResult   `json:"scrape_result,omitempty"`
	ValidateResult *types.ValidateResult `json:"validate_result,omitempty"`
	Card           *types.EvidenceCard   `json:"card,omitempty"`
	Email          *types.EmailDraft     `json:"email,omitempty"`
	Stage          Stage                 `json:"stage"`
	// Version counts executed stages; skipped stages leave it unchanged
	Version int            `json:"version"`
	Steps   steps.Statuses `json:"steps"`
}

// NewState returns the initial state for a domain
func NewState(domain, company, vertical string) State {
	return State{
		Domain:   domain,
		Company:  company,
		Vertical: vertical,
		Stage:    StageScrape,
		Steps:    steps.Statuses{},
	}
}

// Record converts a state into its output line
func (s State) Record() types.Record {
	return types.Record{
		Domain:   s.Domain,
		Company:  s.Company,
		Vertical: s.Vertical,
		Card:     s.Card,
		Email:    s.Email,
	}
}

func (s State) complete(step string, next Stage) State {
	s = s.mark(step, steps.StatusCompleted, next)
	s.Version++
	return s
}

func (s State) skip(step string, next Stage) State {
	return s.mark(step, steps.StatusSkipped, next)
}

// mark copies the status map so earlier states stay unchanged
func (s State) mark(step, status string, next Stage) State {
	statuses := make(steps.Statuses, len(s.Steps)+1)
	for k, v := range s.Steps {
		statuses[k] = v
	}
	statuses[step] = status
	s.Steps = statuses
	s.Stage = next
	return s
}
