// Package secondary defines the secondary ports (driven adapters) for the application.
// These are the interfaces through which the application drives external systems.
package secondary

import (
	"context"
	"time"
)

// RecommendationRepository defines the secondary port for recommendation persistence.
// Recommendations are never deleted.
type RecommendationRepository interface {
	// Create persists a new recommendation.
	Create(ctx context.Context, rec *RecommendationRecord) error

	// GetByID retrieves a recommendation by its ID.
	GetByID(ctx context.Context, id string) (*RecommendationRecord, error)

	// List retrieves recommendations matching the given filters, newest first.
	List(ctx context.Context, filters RecommendationFilters) ([]*RecommendationRecord, error)

	// UpdateStatus moves a recommendation from one status to another.
	// It reports false without error when the stored status is no longer from.
	UpdateStatus(ctx context.Context, id, from, to string, updatedAt time.Time, completedAt *time.Time) (bool, error)

	// GetNextID returns the next available recommendation ID.
	GetNextID(ctx context.Context) (string, error)

	// Counts returns the recommendation counters.
	Counts(ctx context.Context) (*RecommendationCounts, error)
}

// RecommendationRecord represents a recommendation as stored in persistence.
type RecommendationRecord struct {
	ID              string
	Priority        string
	Category        string
	Title           string
	Description     string
	EstimatedImpact string
	Status          string
	EntityID        string // Empty string means null
	RuleID          string // Empty string means null
	CreatedAt       time.Time
	UpdatedAt       time.Time
	CompletedAt     *time.Time
}

// RecommendationFilters contains filter options for querying recommendations.
type RecommendationFilters struct {
	Status   string
	Priority string
	Category string
	EntityID string
	Limit    int
}

// RecommendationCounts summarizes recommendations by status and priority.
type RecommendationCounts struct {
	Total        int
	New          int
	HighPriority int
	InProgress   int
	Completed    int
}

// DecisionRepository defines the secondary port for AI decision persistence.
type DecisionRepository interface {
	// Create persists a new decision.
	Create(ctx context.Context, dec *DecisionRecord) error

	// GetByID retrieves a decision by its ID.
	GetByID(ctx context.Context, id string) (*DecisionRecord, error)

	// List retrieves decisions matching the given filters, newest first.
	List(ctx context.Context, filters DecisionFilters) ([]*DecisionRecord, error)

	// UpdateMode moves a decision from one mode to another.
	// It reports false without error when the stored mode is no longer from.
	UpdateMode(ctx context.Context, id, from, to string, updatedAt time.Time) (bool, error)

	// GetNextID returns the next available decision ID.
	GetNextID(ctx context.Context) (string, error)
}

// DecisionRecord represents an AI decision as stored in persistence.
type DecisionRecord struct {
	ID               string
	TrainID          string
	Kind             string
	Recommendation   string
	Confidence       float64
	Mode             string
	Impact           string
	RecommendationID string // Empty string means null
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// DecisionFilters contains filter options for querying decisions.
type DecisionFilters struct {
	Mode    string
	TrainID string
	Kind    string
	Limit   int
}

// ConditionRepository defines the secondary port for open advisory conditions.
// A condition is keyed by (entity, rule) and stays open until the rule stops holding.
type ConditionRepository interface {
	// ListOpen returns every open condition.
	ListOpen(ctx context.Context) ([]*ConditionRecord, error)

	// Open records a condition. It reports false when the condition was already open.
	Open(ctx context.Context, cond *ConditionRecord) (bool, error)

	// SetRecommendation links an open condition to the recommendation it raised.
	SetRecommendation(ctx context.Context, entityID, ruleID, recommendationID string) error

	// SetDecisionPending marks whether the condition still owes its decision.
	SetDecisionPending(ctx context.Context, entityID, ruleID string, pending bool) error

	// Clear removes a condition so the rule may fire again.
	Clear(ctx context.Context, entityID, ruleID string) error
}

// ConditionRecord represents an open condition as stored in persistence.
type ConditionRecord struct {
	EntityID         string
	RuleID           string
	RecommendationID string // Empty string means null
	DecisionPending  bool   // the decision raised with the recommendation is not stored yet
	OpenedAt         time.Time
}

// AuditLogRepository defines the secondary port for audit log persistence.
// Logs are immutable.
type AuditLogRepository interface {
	// Create persists a new audit log entry.
	Create(ctx context.Context, log *AuditLogRecord) error

	// List retrieves log entries matching the given filters, newest first.
	List(ctx context.Context, filters AuditLogFilters) ([]*AuditLogRecord, error)

	// GetNextID returns the next available log ID.
	GetNextID(ctx context.Context) (string, error)
}

// AuditLogRecord represents an audit log entry as stored in persistence.
type AuditLogRecord struct {
	ID         string
	Timestamp  time.Time
	ActorID    string // Empty string means null
	EntityType string
	EntityID   string
	Action     string // 'create', 'update', 'review'
	FieldName  string // Empty string means null - for updates only
	OldValue   string // Empty string means null
	NewValue   string // Empty string means null
}

// AuditLogFilters contains filter options for querying audit logs.
type AuditLogFilters struct {
	EntityType string
	EntityID   string
	ActorID    string
	Action     string
	Limit      int
}
