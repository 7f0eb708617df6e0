// Package recommendation contains the pure business logic for the
// recommendation lifecycle: New → InProgress → Completed.
// Guards are pure functions that evaluate preconditions without side effects.
package recommendation

import (
	"fmt"
	"time"

	"github.com/example/railctl/internal/errs"
	"github.com/example/railctl/internal/models"
)

// Operator actions on a recommendation.
const (
	ActionReview    = "review"
	ActionImplement = "implement"
	ActionComplete  = "complete"
)

// GuardResult represents the outcome of a guard evaluation.
type GuardResult struct {
	Allowed bool
	Reason  string
}

// TransitionContext provides context for lifecycle guards.
type TransitionContext struct {
	RecommendationID string
	CurrentStatus    models.RecommendationStatus
	Action           string
}

// Error converts the guard result to an InvalidTransitionError if not allowed.
func (r GuardResult) Error(ctx TransitionContext) error {
	if r.Allowed {
		return nil
	}
	return &errs.InvalidTransitionError{
		Kind:   "recommendation",
		ID:     ctx.RecommendationID,
		From:   string(ctx.CurrentStatus),
		Action: ctx.Action,
		Reason: r.Reason,
	}
}

// CanReview evaluates whether a recommendation can be reviewed.
// Rules:
// - recommendation must be New (reviewing never changes its status)
func CanReview(ctx TransitionContext) GuardResult {
	if ctx.CurrentStatus != models.RecommendationNew {
		return GuardResult{
			Allowed: false,
			Reason:  fmt.Sprintf("can only review %s recommendations", models.RecommendationNew),
		}
	}
	return GuardResult{Allowed: true}
}

// CanImplement evaluates whether a recommendation can be implemented.
// Rules:
// - recommendation must be New
func CanImplement(ctx TransitionContext) GuardResult {
	if ctx.CurrentStatus != models.RecommendationNew {
		return GuardResult{
			Allowed: false,
			Reason:  fmt.Sprintf("can only implement %s recommendations", models.RecommendationNew),
		}
	}
	return GuardResult{Allowed: true}
}

// CanComplete evaluates whether a recommendation can be marked complete.
// Rules:
// - recommendation must be InProgress (New cannot skip ahead, Completed is terminal)
func CanComplete(ctx TransitionContext) GuardResult {
	if ctx.CurrentStatus != models.RecommendationInProgress {
		return GuardResult{
			Allowed: false,
			Reason:  fmt.Sprintf("can only complete %s recommendations", models.RecommendationInProgress),
		}
	}
	return GuardResult{Allowed: true}
}

// Evaluate dispatches to the guard for ctx.Action.
func Evaluate(ctx TransitionContext) GuardResult {
	switch ctx.Action {
	case ActionReview:
		return CanReview(ctx)
	case ActionImplement:
		return CanImplement(ctx)
	case ActionComplete:
		return CanComplete(ctx)
	}
	return GuardResult{Allowed: false, Reason: fmt.Sprintf("unknown action %q", ctx.Action)}
}

// TargetStatus returns the status a permitted action leads to.
func TargetStatus(current models.RecommendationStatus, action string) models.RecommendationStatus {
	switch action {
	case ActionImplement:
		return models.RecommendationInProgress
	case ActionComplete:
		return models.RecommendationCompleted
	}
	return current
}

// StatusTransitionResult captures the new status and its side effects.
type StatusTransitionResult struct {
	NewStatus   models.RecommendationStatus
	CompletedAt *time.Time // set when the recommendation becomes Completed
}

// ApplyStatusTransition returns the result of moving to newStatus at now.
func ApplyStatusTransition(newStatus models.RecommendationStatus, now time.Time) StatusTransitionResult {
	result := StatusTransitionResult{NewStatus: newStatus}
	if newStatus == models.RecommendationCompleted {
		result.CompletedAt = &now
	}
	return result
}

// GenerateID formats a recommendation ID from the current max number.
func GenerateID(currentMax int) string {
	return fmt.Sprintf("REC-%03d", currentMax+1)
}
