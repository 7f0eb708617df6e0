// Package train contains the pure business logic for train telemetry updates.
// Guards are pure functions that evaluate invariants without side effects.
package train

import (
	"fmt"
	"math"
	"time"

	"github.com/example/railctl/internal/errs"
	"github.com/example/railctl/internal/models"
	"github.com/example/railctl/internal/spatial"
)

// GuardResult represents the outcome of a guard evaluation.
type GuardResult struct {
	Allowed bool
	TrainID string
	Reason  string
}

// Error converts the guard result to a ValidationError if not allowed.
func (r GuardResult) Error() error {
	if r.Allowed {
		return nil
	}
	return &errs.ValidationError{Entity: "train", ID: r.TrainID, Reason: r.Reason}
}

func deny(id, format string, args ...any) GuardResult {
	return GuardResult{Allowed: false, TrainID: id, Reason: fmt.Sprintf(format, args...)}
}

// Validate checks a fully merged train against its invariants.
// Rules:
// - ID must be set
// - Kind, Status and Priority must be known values
// - Speed must be finite and non-negative
// - Stopped implies speed 0
// - Delayed implies delay > 0, Ahead implies delay < 0, OnTime implies delay == 0
// - Position must be a valid lat/lng
func Validate(t models.Train) GuardResult {
	if t.ID == "" {
		return deny("", "id is required")
	}
	if !models.ValidTrainKind(t.Kind) {
		return deny(t.ID, "unknown kind %q", t.Kind)
	}
	if !models.ValidTrainStatus(t.Status) {
		return deny(t.ID, "unknown status %q", t.Status)
	}
	if !models.ValidPriority(t.Priority) {
		return deny(t.ID, "unknown priority %q", t.Priority)
	}
	if math.IsNaN(t.SpeedKmh) || math.IsInf(t.SpeedKmh, 0) || t.SpeedKmh < 0 {
		return deny(t.ID, "speed must be a non-negative number (got %v)", t.SpeedKmh)
	}
	if t.Status == models.TrainStopped && t.SpeedKmh != 0 {
		return deny(t.ID, "speed must be 0 when Stopped (got %v)", t.SpeedKmh)
	}

	switch t.Status {
	case models.TrainDelayed:
		if t.DelayMinutes <= 0 {
			return deny(t.ID, "delay must be positive when Delayed (got %d)", t.DelayMinutes)
		}
	case models.TrainAhead:
		if t.DelayMinutes >= 0 {
			return deny(t.ID, "delay must be negative when Ahead (got %d)", t.DelayMinutes)
		}
	case models.TrainOnTime:
		if t.DelayMinutes != 0 {
			return deny(t.ID, "delay must be 0 when OnTime (got %d)", t.DelayMinutes)
		}
	}

	if !spatial.ValidPosition(t.Position) {
		return deny(t.ID, "invalid position (%v, %v)", t.Position.Lat, t.Position.Lng)
	}

	return GuardResult{Allowed: true, TrainID: t.ID}
}

// CanCreate checks that a delta for an unknown train carries every required field.
func CanCreate(id string, d models.TrainDelta) GuardResult {
	var missing []string
	if d.Kind == nil {
		missing = append(missing, "kind")
	}
	if d.Status == nil {
		missing = append(missing, "status")
	}
	if d.Priority == nil {
		missing = append(missing, "priority")
	}
	if d.Position == nil {
		missing = append(missing, "position")
	}
	if len(missing) > 0 {
		return deny(id, "first update must set %v", missing)
	}
	return GuardResult{Allowed: true, TrainID: id}
}

// Apply merges a delta into the previous state and validates the result.
// prev is nil for a train seen for the first time. The previous value is never
// modified; on failure the returned train must be discarded.
func Apply(prev *models.Train, id string, d models.TrainDelta, now time.Time) (models.Train, GuardResult) {
	var next models.Train
	if prev == nil {
		if r := CanCreate(id, d); !r.Allowed {
			return models.Train{}, r
		}
		next = models.Train{ID: id, Name: id}
	} else {
		next = *prev
	}

	if d.Name != nil {
		next.Name = *d.Name
	}
	if d.Kind != nil {
		next.Kind = *d.Kind
	}
	if d.CurrentLocation != nil {
		next.CurrentLocation = *d.CurrentLocation
	}
	if d.Destination != nil {
		next.Destination = *d.Destination
	}
	if d.Status != nil {
		next.Status = *d.Status
	}
	if d.DelayMinutes != nil {
		next.DelayMinutes = *d.DelayMinutes
	}
	if d.SpeedKmh != nil {
		next.SpeedKmh = *d.SpeedKmh
	}
	if d.Priority != nil {
		next.Priority = *d.Priority
	}
	if d.Position != nil {
		next.Position = *d.Position
	}
	if d.NextSignal != nil {
		next.NextSignal = *d.NextSignal
	}
	if d.Platform != nil {
		next.Platform = *d.Platform
	}
	if d.Route != nil {
		next.Route = *d.Route
	}
	next.UpdatedAt = now

	return next, Validate(next)
}

// CanRetire evaluates whether a retire reason is acceptable.
func CanRetire(id, reason string) GuardResult {
	if reason != models.RetireArrived && reason != models.RetireWithdrawn {
		return deny(id, "unknown retire reason %q (want %s or %s)", reason, models.RetireArrived, models.RetireWithdrawn)
	}
	return GuardResult{Allowed: true, TrainID: id}
}
