// Package steps provides step definitions and dependency validation for the
// signal pipeline.
package steps

import (
	"fmt"
)

// Step names
const (
	StepScrape       = "scrape"
	StepValidate     = "validate"
	StepOutboundGate = "outbound_gate"
)

// Step categories
const (
	CategoryCollection = "collection"
	CategoryValidation = "validation"
	CategoryOutbound   = "outbound"
)

// Step statuses
const (
	StatusCompleted = "completed"
	StatusSkipped   = "skipped"
)

// StepDefinition defines metadata for a pipeline step
type StepDefinition struct {
	Name         string
	Category     string
	Dependencies []string
}

// StepRegistry holds all step definitions
var StepRegistry = map[string]StepDefinition{
	StepScrape: {
		Name:         StepScrape,
		Category:     CategoryCollection,
		Dependencies: []string{},
	},
	StepValidate: {
		Name:         StepValidate,
		Category:     CategoryValidation,
		Dependencies: []string{StepScrape},
	},
	StepOutboundGate: {
		Name:         StepOutboundGate,
		Category:     CategoryOutbound,
		Dependencies: []string{StepValidate},
	},
}

// Order lists the steps in execution order
var Order = []string{StepScrape, StepValidate, StepOutboundGate}

// Statuses maps a step name to the status it finished with
type Statuses map[string]string

// Done reports whether step finished, whether it ran or was skipped
func (s Statuses) Done(step string) bool {
	status := s[step]
	return status == StatusCompleted || status == StatusSkipped
}

// DependencyError represents a dependency validation error
type DependencyError struct {
	Step                string
	MissingDependencies []string
}

func (e *DependencyError) Error() string {
	return fmt.Sprintf("step %s: missing dependencies: %v", e.Step, e.MissingDependencies)
}

// ValidateDependencies checks if all required dependencies for a step are done
func ValidateDependencies(statuses Statuses, stepName string) error {
	def, ok := StepRegistry[stepName]
	if !ok {
		return fmt.Errorf("unknown step: %s", stepName)
	}

	var missing []string
	for _, dep := range def.Dependencies {
		if !statuses.Done(dep) {
			missing = append(missing, dep)
		}
	}

	if len(missing) > 0 {
		return &DependencyError{
			Step:                stepName,
			MissingDependencies: missing,
		}
	}
	return nil
}

// GetAvailableSteps returns steps that can be executed (dependencies met), in order
func GetAvailableSteps(statuses Statuses) []string {
	var available []string
	for _, stepName := range Order {
		if statuses.Done(stepName) {
			continue
		}
		if err := ValidateDependencies(statuses, stepName); err != nil {
			continue
		}
		available = append(available, stepName)
	}
	return available
}

// GetBlockedSteps returns steps that are blocked (dependencies not met), in order
func GetBlockedSteps(statuses Statuses) []string {
	var blocked []string
	for _, stepName := range Order {
		if statuses.Done(stepName) {
			continue
		}
		if err := ValidateDependencies(statuses, stepName); err != nil {
			blocked = append(blocked, stepName)
		}
	}
	return blocked
}
