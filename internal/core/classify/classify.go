// Package classify maps raw numeric fields to status and severity bands.
// This is part of the Functional Core: no clock, no randomness, no I/O.
// Identical inputs always produce identical outputs.
package classify

import (
	"math"

	"github.com/example/railctl/internal/models"
)

// Bands are the utilization thresholds (percent) used to classify sections.
type Bands struct {
	NormalMax    float64 // at or below: Normal
	CongestedMax float64 // at or below: Congested; above: Blocked
}

// DefaultBands returns the 60/85 bands.
func DefaultBands() Bands {
	return Bands{NormalMax: 60, CongestedMax: 85}
}

// Utilization returns currentTrains/capacity*100. A non-positive capacity yields 0.
func Utilization(currentTrains, capacity int) float64 {
	if capacity <= 0 {
		return 0
	}
	return float64(currentTrains) * 100 / float64(capacity)
}

// SectionStatus derives the status of a section.
// Rules:
// - an external flag (Blocked, Maintenance) takes precedence
// - currentTrains >= capacity, or utilization above CongestedMax: Blocked
// - utilization above NormalMax: Congested
// - otherwise Normal
func SectionStatus(currentTrains, capacity int, flag models.SectionFlag, b Bands) models.SectionStatus {
	switch flag {
	case models.FlagBlocked:
		return models.SectionBlocked
	case models.FlagMaintenance:
		return models.SectionMaintenance
	}

	u := Utilization(currentTrains, capacity)
	if currentTrains >= capacity || u > b.CongestedMax {
		return models.SectionBlocked
	}
	if u > b.NormalMax {
		return models.SectionCongested
	}
	return models.SectionNormal
}

// IsCritical reports whether a section counts as critical for network health:
// Blocked status or utilization above the congested band.
func IsCritical(s models.Section, b Bands) bool {
	return s.Status == models.SectionBlocked || s.Utilization > b.CongestedMax
}

// Severity is the delay bucket of a train. It is derived, never stored on the train.
type Severity string

const (
	SeverityNone   Severity = "none"
	SeverityMild   Severity = "mild"
	SeveritySevere Severity = "severe"
)

// DelayThresholds configure delay severity.
type DelayThresholds struct {
	SevereMinutes int // delays at or above this are severe
}

// DefaultDelayThresholds returns the 10 minute severe threshold.
func DefaultDelayThresholds() DelayThresholds {
	return DelayThresholds{SevereMinutes: 10}
}

// DelaySeverity buckets a signed delay in minutes.
func DelaySeverity(delayMinutes int, t DelayThresholds) Severity {
	switch {
	case delayMinutes <= 0:
		return SeverityNone
	case delayMinutes < t.SevereMinutes:
		return SeverityMild
	default:
		return SeveritySevere
	}
}

// KPIStatus compares a value with its target using an absolute tolerance band.
// For higher-is-better KPIs, meeting the target is good, falling short by no
// more than tolerance is a warning, anything worse is critical. Lower-is-better
// KPIs mirror this.
func KPIStatus(value, target, tolerance float64, higherIsBetter bool) models.KPIStatus {
	shortfall := target - value
	if !higherIsBetter {
		shortfall = value - target
	}
	switch {
	case shortfall <= 0:
		return models.KPIGood
	case shortfall <= tolerance:
		return models.KPIWarning
	default:
		return models.KPICritical
	}
}

// Trend compares the current value with the previous history point.
// Without a previous point the trend is stable.
func Trend(previous, current float64, hasPrevious bool, epsilon float64) models.KPITrend {
	if !hasPrevious || math.Abs(current-previous) <= epsilon {
		return models.TrendStable
	}
	if current > previous {
		return models.TrendUp
	}
	return models.TrendDown
}
