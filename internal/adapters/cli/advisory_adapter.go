// Package cli provides thin CLI adapters that translate between CLI concerns
// and application services. Adapters handle argument parsing, output formatting,
// but delegate business logic to services.
package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"

	"github.com/example/railctl/internal/models"
	"github.com/example/railctl/internal/ports/primary"
)

// AdvisoryAdapter translates recommendation and decision commands to
// AdvisoryService and QueryService calls.
type AdvisoryAdapter struct {
	commands primary.AdvisoryService
	query    primary.QueryService
	out      io.Writer
}

// NewAdvisoryAdapter creates a new AdvisoryAdapter with the given services.
func NewAdvisoryAdapter(commands primary.AdvisoryService, query primary.QueryService, out io.Writer) *AdvisoryAdapter {
	return &AdvisoryAdapter{
		commands: commands,
		query:    query,
		out:      out,
	}
}

// ListRecommendations lists recommendations with optional filters.
func (a *AdvisoryAdapter) ListRecommendations(ctx context.Context, filters primary.RecommendationFilters) error {
	recs, err := a.query.ListRecommendations(ctx, filters)
	if err != nil {
		return fmt.Errorf("failed to list recommendations: %w", err)
	}

	if len(recs) == 0 {
		fmt.Fprintln(a.out, "No recommendations found")
		return nil
	}

	fmt.Fprintf(a.out, "\n%-10s %-8s %-12s %-11s %-8s %s\n", "ID", "PRIORITY", "CATEGORY", "STATUS", "ENTITY", "TITLE")
	fmt.Fprintln(a.out, "────────────────────────────────────────────────────────────────────────────")
	for _, r := range recs {
		fmt.Fprintf(a.out, "%-10s %-8s %-12s %-11s %-8s %s\n",
			r.ID, priorityLabel(r.Priority), r.Category, r.Status, r.EntityID, r.Title)
	}
	fmt.Fprintln(a.out)

	return nil
}

// ShowRecommendation displays a single recommendation.
func (a *AdvisoryAdapter) ShowRecommendation(ctx context.Context, id string) (*models.Recommendation, error) {
	rec, err := a.query.GetRecommendation(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get recommendation: %w", err)
	}

	fmt.Fprintf(a.out, "\nRecommendation: %s\n", rec.ID)
	fmt.Fprintf(a.out, "Title:    %s\n", rec.Title)
	fmt.Fprintf(a.out, "Priority: %s\n", priorityLabel(rec.Priority))
	fmt.Fprintf(a.out, "Category: %s\n", rec.Category)
	fmt.Fprintf(a.out, "Status:   %s\n", rec.Status)
	if rec.Description != "" {
		fmt.Fprintf(a.out, "Description: %s\n", rec.Description)
	}
	if rec.EstimatedImpact != "" {
		fmt.Fprintf(a.out, "Impact:   %s\n", rec.EstimatedImpact)
	}
	if rec.EntityID != "" {
		fmt.Fprintf(a.out, "Raised by: %s on %s\n", rec.RuleID, rec.EntityID)
	}
	fmt.Fprintf(a.out, "Created:  %s\n", rec.CreatedAt.Format(time.RFC3339))
	if rec.CompletedAt != nil {
		fmt.Fprintf(a.out, "Completed: %s\n", rec.CompletedAt.Format(time.RFC3339))
	}
	fmt.Fprintln(a.out)

	return rec, nil
}

// ReviewRecommendation records an operator review.
func (a *AdvisoryAdapter) ReviewRecommendation(ctx context.Context, id string) error {
	rec, err := a.commands.ReviewRecommendation(ctx, id)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "✓ Recommendation %s reviewed (%s)\n", rec.ID, rec.Status)
	return nil
}

// ImplementRecommendation starts work on a recommendation.
func (a *AdvisoryAdapter) ImplementRecommendation(ctx context.Context, id string) error {
	rec, err := a.commands.ImplementRecommendation(ctx, id)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "✓ Recommendation %s is now %s\n", rec.ID, rec.Status)
	return nil
}

// CompleteRecommendation marks a recommendation as completed.
func (a *AdvisoryAdapter) CompleteRecommendation(ctx context.Context, id string) error {
	rec, err := a.commands.CompleteRecommendation(ctx, id)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "✓ Recommendation %s marked as %s\n", rec.ID, rec.Status)
	return nil
}

// Counts prints the recommendation summary counters.
func (a *AdvisoryAdapter) Counts(ctx context.Context) error {
	counts, err := a.query.RecommendationCounts(ctx)
	if err != nil {
		return fmt.Errorf("failed to count recommendations: %w", err)
	}

	fmt.Fprintf(a.out, "Total: %d  New: %d  High priority: %d  In progress: %d  Completed: %d\n",
		counts.Total, counts.New, counts.HighPriority, counts.InProgress, counts.Completed)
	return nil
}

// ListDecisions lists decisions with optional filters.
func (a *AdvisoryAdapter) ListDecisions(ctx context.Context, filters primary.DecisionFilters) error {
	decs, err := a.query.ListDecisions(ctx, filters)
	if err != nil {
		return fmt.Errorf("failed to list decisions: %w", err)
	}

	if len(decs) == 0 {
		fmt.Fprintln(a.out, "No decisions found")
		return nil
	}

	fmt.Fprintf(a.out, "\n%-10s %-8s %-9s %-16s %-6s %s\n", "ID", "TRAIN", "KIND", "MODE", "CONF", "RECOMMENDATION")
	fmt.Fprintln(a.out, "────────────────────────────────────────────────────────────────────────────")
	for _, d := range decs {
		fmt.Fprintf(a.out, "%-10s %-8s %-9s %-16s %-6.1f %s\n",
			d.ID, d.TrainID, d.Kind, modeLabel(d.Mode), d.Confidence, d.Recommendation)
	}
	fmt.Fprintln(a.out)

	return nil
}

// ShowDecision displays a single decision.
func (a *AdvisoryAdapter) ShowDecision(ctx context.Context, id string) (*models.AIDecision, error) {
	dec, err := a.query.GetDecision(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get decision: %w", err)
	}

	fmt.Fprintf(a.out, "\nDecision: %s\n", dec.ID)
	fmt.Fprintf(a.out, "Train:      %s\n", dec.TrainID)
	fmt.Fprintf(a.out, "Kind:       %s\n", dec.Kind)
	fmt.Fprintf(a.out, "Mode:       %s\n", modeLabel(dec.Mode))
	fmt.Fprintf(a.out, "Confidence: %.1f%%\n", dec.Confidence)
	fmt.Fprintf(a.out, "Recommendation: %s\n", dec.Recommendation)
	if dec.Impact != "" {
		fmt.Fprintf(a.out, "Impact:     %s\n", dec.Impact)
	}
	if dec.RecommendationID != "" {
		fmt.Fprintf(a.out, "Raised with: %s\n", dec.RecommendationID)
	}
	fmt.Fprintf(a.out, "Created:    %s\n", dec.CreatedAt.Format(time.RFC3339))
	fmt.Fprintln(a.out)

	return dec, nil
}

// ApproveDecision approves a pending decision.
func (a *AdvisoryAdapter) ApproveDecision(ctx context.Context, id string) error {
	dec, err := a.commands.ApproveDecision(ctx, id)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "✓ Decision %s approved (%s)\n", dec.ID, dec.Mode)
	return nil
}

// OverrideDecision hands a decision over to manual control.
func (a *AdvisoryAdapter) OverrideDecision(ctx context.Context, id string) error {
	dec, err := a.commands.OverrideDecision(ctx, id)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "✓ Decision %s overridden (%s)\n", dec.ID, dec.Mode)
	return nil
}

func priorityLabel(p models.Priority) string {
	switch p {
	case models.PriorityHigh:
		return color.New(color.FgRed).Sprint(p)
	case models.PriorityMedium:
		return color.New(color.FgYellow).Sprint(p)
	}
	return string(p)
}

func modeLabel(m models.ImplementationMode) string {
	switch m {
	case models.ModePending:
		return color.New(color.FgYellow).Sprint(m)
	case models.ModeManualOverride:
		return color.New(color.FgCyan).Sprint(m)
	}
	return string(m)
}
