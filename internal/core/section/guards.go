// Package section contains the pure business logic for section topology and
// occupancy updates. Utilization and status are re-derived on every change.
package section

import (
	"fmt"
	"math"

	"github.com/example/railctl/internal/core/classify"
	"github.com/example/railctl/internal/errs"
	"github.com/example/railctl/internal/models"
)

// GuardResult represents the outcome of a guard evaluation.
type GuardResult struct {
	Allowed   bool
	SectionID string
	Reason    string
}

// Error converts the guard result to a ValidationError if not allowed.
func (r GuardResult) Error() error {
	if r.Allowed {
		return nil
	}
	return &errs.ValidationError{Entity: "section", ID: r.SectionID, Reason: r.Reason}
}

func deny(id, format string, args ...any) GuardResult {
	return GuardResult{Allowed: false, SectionID: id, Reason: fmt.Sprintf(format, args...)}
}

// CanConfigure evaluates a topology entry.
// Rules:
// - ID must be set
// - Capacity must be positive
// - Length must be a positive finite number
func CanConfigure(spec models.SectionSpec) GuardResult {
	if spec.ID == "" {
		return deny("", "id is required")
	}
	if spec.Capacity <= 0 {
		return deny(spec.ID, "capacity must be positive (got %d)", spec.Capacity)
	}
	if math.IsNaN(spec.LengthKm) || math.IsInf(spec.LengthKm, 0) || spec.LengthKm <= 0 {
		return deny(spec.ID, "length must be positive (got %v)", spec.LengthKm)
	}
	return GuardResult{Allowed: true, SectionID: spec.ID}
}

// New builds an empty section from its topology entry.
func New(spec models.SectionSpec, bands classify.Bands) models.Section {
	name := spec.Name
	if name == "" {
		name = spec.ID
	}
	return Derive(models.Section{
		ID:       spec.ID,
		Name:     name,
		LengthKm: spec.LengthKm,
		Capacity: spec.Capacity,
	}, bands)
}

// Reconfigure applies a changed topology entry to an existing section,
// keeping its occupancy and flag.
func Reconfigure(prev models.Section, spec models.SectionSpec, bands classify.Bands) models.Section {
	next := New(spec, bands)
	next.CurrentTrains = prev.CurrentTrains
	next.Flag = prev.Flag
	return Derive(next, bands)
}

// Derive recomputes utilization and status from the section's inputs.
func Derive(s models.Section, bands classify.Bands) models.Section {
	s.Utilization = classify.Utilization(s.CurrentTrains, s.Capacity)
	s.Status = classify.SectionStatus(s.CurrentTrains, s.Capacity, s.Flag, bands)
	return s
}

// Apply merges an occupancy delta into the previous state and validates it.
// Rules:
// - an absolute count cannot be combined with entered/left counts
// - entered and left counts cannot be negative
// - the resulting count cannot be negative (it may exceed capacity)
// - the flag must be a known value
func Apply(prev models.Section, d models.SectionDelta, bands classify.Bands) (models.Section, GuardResult) {
	id := prev.ID
	if d.CurrentTrains != nil && (d.TrainsEntered != 0 || d.TrainsLeft != 0) {
		return prev, deny(id, "current_trains cannot be combined with trains_entered/trains_left")
	}
	if d.TrainsEntered < 0 || d.TrainsLeft < 0 {
		return prev, deny(id, "trains_entered and trains_left must not be negative")
	}

	next := prev
	if d.CurrentTrains != nil {
		next.CurrentTrains = *d.CurrentTrains
	}
	next.CurrentTrains += d.TrainsEntered - d.TrainsLeft
	if next.CurrentTrains < 0 {
		return prev, deny(id, "current train count cannot be negative (got %d)", next.CurrentTrains)
	}

	if d.Flag != nil {
		if !models.ValidSectionFlag(*d.Flag) {
			return prev, deny(id, "unknown flag %q", *d.Flag)
		}
		next.Flag = *d.Flag
	}

	return Derive(next, bands), GuardResult{Allowed: true, SectionID: id}
}
