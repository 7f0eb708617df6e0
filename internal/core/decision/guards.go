// Package decision contains the pure business logic for AI decisions.
// The only automatic transition is the confidence-gated choice at creation;
// everything after that is operator-driven.
package decision

import (
	"fmt"
	"math"

	"github.com/example/railctl/internal/errs"
	"github.com/example/railctl/internal/models"
)

// Operator actions on a decision.
const (
	ActionApprove  = "approve"
	ActionOverride = "override"
)

// GuardResult represents the outcome of a guard evaluation.
type GuardResult struct {
	Allowed bool
	Reason  string
}

// TransitionContext provides context for lifecycle guards.
type TransitionContext struct {
	DecisionID  string
	CurrentMode models.ImplementationMode
	Action      string
}

// Error converts the guard result to an InvalidTransitionError if not allowed.
func (r GuardResult) Error(ctx TransitionContext) error {
	if r.Allowed {
		return nil
	}
	return &errs.InvalidTransitionError{
		Kind:   "decision",
		ID:     ctx.DecisionID,
		From:   string(ctx.CurrentMode),
		Action: ctx.Action,
		Reason: r.Reason,
	}
}

// CreateContext provides context for decision creation.
type CreateContext struct {
	TrainID    string
	Kind       models.DecisionKind
	Confidence float64
}

// CanCreate evaluates whether a decision can be created.
// Rules:
// - train id must be set
// - kind must be known
// - confidence must be within 0..100
func CanCreate(ctx CreateContext) GuardResult {
	if ctx.TrainID == "" {
		return GuardResult{Allowed: false, Reason: "train id is required"}
	}
	if !models.ValidDecisionKind(ctx.Kind) {
		return GuardResult{Allowed: false, Reason: fmt.Sprintf("unknown decision kind %q", ctx.Kind)}
	}
	if math.IsNaN(ctx.Confidence) || ctx.Confidence < 0 || ctx.Confidence > 100 {
		return GuardResult{Allowed: false, Reason: fmt.Sprintf("confidence must be within 0..100 (got %v)", ctx.Confidence)}
	}
	return GuardResult{Allowed: true}
}

// InitialMode returns auto when confidence reaches the threshold, pending otherwise.
func InitialMode(confidence, threshold float64) models.ImplementationMode {
	if confidence >= threshold {
		return models.ModeAuto
	}
	return models.ModePending
}

// CanApprove evaluates whether a decision can be approved.
// Rules:
// - decision must be pending
func CanApprove(ctx TransitionContext) GuardResult {
	if ctx.CurrentMode != models.ModePending {
		return GuardResult{
			Allowed: false,
			Reason:  fmt.Sprintf("can only approve %s decisions", models.ModePending),
		}
	}
	return GuardResult{Allowed: true}
}

// CanOverride evaluates whether a decision can be overridden.
// Rules:
// - decision must be pending or auto (manual_override is terminal)
func CanOverride(ctx TransitionContext) GuardResult {
	if ctx.CurrentMode == models.ModeManualOverride {
		return GuardResult{Allowed: false, Reason: "decision is already overridden"}
	}
	return GuardResult{Allowed: true}
}

// Evaluate dispatches to the guard for ctx.Action.
func Evaluate(ctx TransitionContext) GuardResult {
	switch ctx.Action {
	case ActionApprove:
		return CanApprove(ctx)
	case ActionOverride:
		return CanOverride(ctx)
	}
	return GuardResult{Allowed: false, Reason: fmt.Sprintf("unknown action %q", ctx.Action)}
}

// TargetMode returns the mode a permitted action leads to.
func TargetMode(action string) models.ImplementationMode {
	if action == ActionOverride {
		return models.ModeManualOverride
	}
	return models.ModeAuto
}

// GenerateID formats a decision ID from the current max number.
func GenerateID(currentMax int) string {
	return fmt.Sprintf("AID-%03d", currentMax+1)
}
