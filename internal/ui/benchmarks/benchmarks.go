// Package benchmarks provides timing estimates for pipeline steps.
package benchmarks

import (
	"time"

	"github.com/imamik/siteforge/internal/pipeline"
)

// DefaultTimings are typical step durations (seconds). Certificate issuance
// and distribution rollout dominate a first deployment.
var DefaultTimings = map[string]int{
	pipeline.StepInstall:            60,
	pipeline.StepRegister:           30,
	pipeline.StepBuild:              90,
	pipeline.StepUpload:             20,
	pipeline.StepRequestCertificate: 5,
	pipeline.StepValidationRecords:  30,
	pipeline.StepWaitCertificate:    300,
	pipeline.StepCreateDistribution: 15,
	pipeline.StepDNSCutover:         10,
	pipeline.StepWaitDistribution:   900,
}

// Record is the observed outcome of a finished step.
type Record struct {
	Step     string
	Duration time.Duration
	Skipped  bool
}

// EstimateRemaining calculates the estimated time remaining based on
// current step, elapsed time, and finished step records.
func EstimateRemaining(currentStep string, stepElapsed time.Duration, history []Record) time.Duration {
	return EstimateRemainingWithScale(currentStep, stepElapsed, history, PerformanceScale(currentStep, stepElapsed, history))
}

// EstimateRemainingWithScale calculates ETA while applying a performance scale factor.
func EstimateRemainingWithScale(currentStep string, stepElapsed time.Duration, history []Record, scale float64) time.Duration {
	currentIdx := -1
	for i, s := range pipeline.Steps {
		if s == currentStep {
			currentIdx = i
			break
		}
	}
	if currentIdx < 0 {
		return 0
	}

	var remaining time.Duration

	// For the current step: max(0, expected - elapsed)
	if expected, ok := expectedDuration(currentStep, scale); ok && expected > stepElapsed {
		remaining += expected - stepElapsed
	}

	finished := make(map[string]bool, len(history))
	for _, rec := range history {
		finished[rec.Step] = true
	}

	for _, step := range pipeline.Steps[currentIdx+1:] {
		if finished[step] {
			continue
		}
		if expected, ok := expectedDuration(step, scale); ok {
			remaining += expected
		}
	}

	return remaining
}

// PerformanceScale derives a speed multiplier from observed-vs-expected durations.
// Example: expected 3m, observed 4m30s => scale=1.5 (future ETAs are stretched by 50%).
func PerformanceScale(currentStep string, stepElapsed time.Duration, history []Record) float64 {
	var expectedTotal, actualTotal time.Duration

	for _, rec := range history {
		expected, ok := expectedDuration(rec.Step, 1)
		if !ok || rec.Skipped {
			continue
		}
		expectedTotal += expected
		actualTotal += rec.Duration
	}

	// An overrunning current step is folded in immediately so the ETA adapts quickly.
	if expected, ok := expectedDuration(currentStep, 1); ok && stepElapsed > expected {
		expectedTotal += expected
		actualTotal += stepElapsed
	}

	if expectedTotal == 0 || actualTotal == 0 {
		return 1.0
	}

	scale := float64(actualTotal) / float64(expectedTotal)
	return min(max(scale, 0.25), 3.0)
}

// StepExpectedDuration returns the benchmark duration for a step.
func StepExpectedDuration(step string) (time.Duration, bool) {
	return expectedDuration(step, 1)
}

// TotalEstimate returns the estimated duration of the given steps.
func TotalEstimate(steps []string) time.Duration {
	var total time.Duration
	for _, s := range steps {
		if d, ok := expectedDuration(s, 1); ok {
			total += d
		}
	}
	return total
}

func expectedDuration(step string, scale float64) (time.Duration, bool) {
	secs, ok := DefaultTimings[step]
	if !ok {
		return 0, false
	}
	return time.Duration(float64(time.Duration(secs)*time.Second) * scale), true
}
