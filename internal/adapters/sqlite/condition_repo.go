package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/example/railctl/internal/ports/secondary"
)

// ConditionRepository implements secondary.ConditionRepository with SQLite.
type ConditionRepository struct {
	db *sql.DB
}

// NewConditionRepository creates a new SQLite condition repository.
func NewConditionRepository(db *sql.DB) *ConditionRepository {
	return &ConditionRepository{db: db}
}

// ListOpen returns every open condition, oldest first.
func (r *ConditionRepository) ListOpen(ctx context.Context) ([]*secondary.ConditionRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT entity_id, rule_id, recommendation_id, decision_pending, opened_at FROM advisory_conditions ORDER BY opened_at, entity_id, rule_id`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list conditions: %w", err)
	}
	defer rows.Close()

	var conds []*secondary.ConditionRecord
	for rows.Next() {
		var recommendationID sql.NullString
		record := &secondary.ConditionRecord{}
		if err := rows.Scan(&record.EntityID, &record.RuleID, &recommendationID, &record.DecisionPending, &record.OpenedAt); err != nil {
			return nil, fmt.Errorf("failed to scan condition: %w", err)
		}
		record.RecommendationID = recommendationID.String
		conds = append(conds, record)
	}

	return conds, rows.Err()
}

// Open records a condition. It reports false when the condition was already open.
func (r *ConditionRepository) Open(ctx context.Context, cond *secondary.ConditionRecord) (bool, error) {
	var recommendationID sql.NullString
	if cond.RecommendationID != "" {
		recommendationID = sql.NullString{String: cond.RecommendationID, Valid: true}
	}

	result, err := r.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO advisory_conditions (entity_id, rule_id, recommendation_id, decision_pending, opened_at) VALUES (?, ?, ?, ?, ?)`,
		cond.EntityID,
		cond.RuleID,
		recommendationID,
		cond.DecisionPending,
		cond.OpenedAt,
	)
	if err != nil {
		return false, fmt.Errorf("failed to open condition: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return n == 1, nil
}

// SetRecommendation links an open condition to the recommendation it raised.
func (r *ConditionRepository) SetRecommendation(ctx context.Context, entityID, ruleID, recommendationID string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE advisory_conditions SET recommendation_id = ? WHERE entity_id = ? AND rule_id = ?`,
		recommendationID, entityID, ruleID,
	)
	if err != nil {
		return fmt.Errorf("failed to link condition: %w", err)
	}
	return nil
}

// SetDecisionPending marks whether the condition still owes its decision.
func (r *ConditionRepository) SetDecisionPending(ctx context.Context, entityID, ruleID string, pending bool) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE advisory_conditions SET decision_pending = ? WHERE entity_id = ? AND rule_id = ?`,
		pending, entityID, ruleID,
	)
	if err != nil {
		return fmt.Errorf("failed to update pending decision: %w", err)
	}
	return nil
}

// Clear removes a condition so the rule may fire again.
func (r *ConditionRepository) Clear(ctx context.Context, entityID, ruleID string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM advisory_conditions WHERE entity_id = ? AND rule_id = ?`,
		entityID, ruleID,
	)
	if err != nil {
		return fmt.Errorf("failed to clear condition: %w", err)
	}
	return nil
}

// Ensure ConditionRepository implements the interface
var _ secondary.ConditionRepository = (*ConditionRepository)(nil)
