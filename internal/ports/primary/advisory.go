package primary

import (
	"context"

	"github.com/example/railctl/internal/models"
)

// AdvisoryService defines the primary port for operator lifecycle commands.
// Each command locks only the targeted record and never waits for an
// aggregation cycle.
type AdvisoryService interface {
	// ReviewRecommendation records an operator review. Status is unchanged.
	ReviewRecommendation(ctx context.Context, id string) (*models.Recommendation, error)

	// ImplementRecommendation moves a New recommendation to InProgress.
	ImplementRecommendation(ctx context.Context, id string) (*models.Recommendation, error)

	// CompleteRecommendation moves an InProgress recommendation to Completed.
	CompleteRecommendation(ctx context.Context, id string) (*models.Recommendation, error)

	// ApproveDecision moves a pending decision to auto.
	ApproveDecision(ctx context.Context, id string) (*models.AIDecision, error)

	// OverrideDecision moves a pending or auto decision to manual_override.
	OverrideDecision(ctx context.Context, id string) (*models.AIDecision, error)
}
