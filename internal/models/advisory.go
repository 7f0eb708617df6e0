package models

import "time"

// RecommendationStatus lifecycle: New → InProgress → Completed (terminal).
type RecommendationStatus string

const (
	RecommendationNew        RecommendationStatus = "New"
	RecommendationInProgress RecommendationStatus = "InProgress"
	RecommendationCompleted  RecommendationStatus = "Completed"
)

// Category is the kind of action a recommendation proposes.
type Category string

const (
	CategoryRouting     Category = "Routing"
	CategoryTiming      Category = "Timing"
	CategoryPlatform    Category = "Platform"
	CategoryMaintenance Category = "Maintenance"
)

// Recommendation is an advisory raised for an operator.
// EntityID and RuleID identify the condition that raised it.
type Recommendation struct {
	ID              string               `json:"id"`
	Priority        Priority             `json:"priority"`
	Category        Category             `json:"category"`
	Title           string               `json:"title"`
	Description     string               `json:"description"`
	EstimatedImpact string               `json:"estimated_impact"`
	Status          RecommendationStatus `json:"status"`
	EntityID        string               `json:"entity_id"`
	RuleID          string               `json:"rule_id"`
	CreatedAt       time.Time            `json:"created_at"`
	UpdatedAt       time.Time            `json:"updated_at"`
	CompletedAt     *time.Time           `json:"completed_at,omitempty"`
}

// DecisionKind is what an automated decision acts on.
type DecisionKind string

const (
	DecisionRouting  DecisionKind = "routing"
	DecisionPriority DecisionKind = "priority"
	DecisionTiming   DecisionKind = "timing"
	DecisionPlatform DecisionKind = "platform"
)

// ImplementationMode lifecycle: pending → auto; pending|auto → manual_override (terminal).
type ImplementationMode string

const (
	ModeAuto           ImplementationMode = "auto"
	ModePending        ImplementationMode = "pending"
	ModeManualOverride ImplementationMode = "manual_override"
)

// AIDecision is an automated decision about a single train.
// RecommendationID is set when it was raised together with a recommendation.
type AIDecision struct {
	ID               string             `json:"id"`
	TrainID          string             `json:"train_id"`
	Kind             DecisionKind       `json:"kind"`
	Recommendation   string             `json:"recommendation"`
	Confidence       float64            `json:"confidence"`
	Mode             ImplementationMode `json:"mode"`
	Impact           string             `json:"impact"`
	RecommendationID string             `json:"recommendation_id,omitempty"`
	CreatedAt        time.Time          `json:"created_at"`
	UpdatedAt        time.Time          `json:"updated_at"`
}

// ValidCategory reports whether c is a known recommendation category.
func ValidCategory(c Category) bool {
	switch c {
	case CategoryRouting, CategoryTiming, CategoryPlatform, CategoryMaintenance:
		return true
	}
	return false
}

// ValidDecisionKind reports whether k is a known decision kind.
func ValidDecisionKind(k DecisionKind) bool {
	switch k {
	case DecisionRouting, DecisionPriority, DecisionTiming, DecisionPlatform:
		return true
	}
	return false
}
