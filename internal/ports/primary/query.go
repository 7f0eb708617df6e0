package primary

import (
	"context"
	"time"

	"github.com/example/railctl/internal/core/aggregate"
	"github.com/example/railctl/internal/models"
	"github.com/example/railctl/internal/spatial"
)

// QueryService defines the primary port for read-only views.
type QueryService interface {
	// GetSnapshot returns the Train/Section/KPI state of the latest cycle.
	GetSnapshot(ctx context.Context) models.Snapshot

	// GetAggregates returns the derived metrics and trend series of the latest cycle.
	GetAggregates(ctx context.Context) aggregate.Aggregates

	// GetRecommendation retrieves a recommendation by ID.
	GetRecommendation(ctx context.Context, id string) (*models.Recommendation, error)

	// ListRecommendations lists recommendations with optional filters.
	ListRecommendations(ctx context.Context, filters RecommendationFilters) ([]*models.Recommendation, error)

	// RecommendationCounts returns the recommendation summary counters.
	RecommendationCounts(ctx context.Context) (*RecommendationCounts, error)

	// GetDecision retrieves a decision by ID.
	GetDecision(ctx context.Context, id string) (*models.AIDecision, error)

	// ListDecisions lists decisions with optional filters.
	ListDecisions(ctx context.Context, filters DecisionFilters) ([]*models.AIDecision, error)

	// ListAuditLog lists audit entries with optional filters.
	ListAuditLog(ctx context.Context, filters AuditLogFilters) ([]*AuditEntry, error)

	// NearbyTrains returns trains of the latest cycle within radiusKm of center,
	// nearest first.
	NearbyTrains(ctx context.Context, center models.Position, radiusKm float64) ([]spatial.TrainDistance, error)

	// ArchivedTrains returns trains retired as arrived or withdrawn, oldest first.
	ArchivedTrains(ctx context.Context) []models.ArchivedTrain
}

// RecommendationFilters contains filter options for listing recommendations.
type RecommendationFilters struct {
	Status   models.RecommendationStatus
	Priority models.Priority
	Category models.Category
	EntityID string
	Limit    int
}

// DecisionFilters contains filter options for listing decisions.
type DecisionFilters struct {
	Mode    models.ImplementationMode
	TrainID string
	Kind    models.DecisionKind
	Limit   int
}

// RecommendationCounts mirrors the recommendation summary cards.
type RecommendationCounts struct {
	Total        int `json:"total"`
	New          int `json:"new"`
	HighPriority int `json:"high_priority"`
	InProgress   int `json:"in_progress"`
	Completed    int `json:"completed"`
}

// AuditEntry is an audit log entry at the port boundary.
type AuditEntry struct {
	ID         string    `json:"id"`
	Timestamp  time.Time `json:"timestamp"`
	ActorID    string    `json:"actor_id,omitempty"`
	EntityType string    `json:"entity_type"`
	EntityID   string    `json:"entity_id"`
	Action     string    `json:"action"`
	FieldName  string    `json:"field_name,omitempty"`
	OldValue   string    `json:"old_value,omitempty"`
	NewValue   string    `json:"new_value,omitempty"`
}

// AuditLogFilters contains filter options for listing audit entries.
type AuditLogFilters struct {
	EntityType string
	EntityID   string
	ActorID    string
	Action     string
	Limit      int
}
