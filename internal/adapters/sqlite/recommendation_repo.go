// Package sqlite contains SQLite implementations of repository interfaces.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/example/railctl/internal/errs"
	"github.com/example/railctl/internal/ports/secondary"
)

// RecommendationRepository implements secondary.RecommendationRepository with SQLite.
type RecommendationRepository struct {
	db *sql.DB
}

// NewRecommendationRepository creates a new SQLite recommendation repository.
func NewRecommendationRepository(db *sql.DB) *RecommendationRepository {
	return &RecommendationRepository{db: db}
}

const recommendationColumns = `id, priority, category, title, description, estimated_impact, status, entity_id, rule_id, created_at, updated_at, completed_at`

// Create persists a new recommendation.
func (r *RecommendationRepository) Create(ctx context.Context, rec *secondary.RecommendationRecord) error {
	var entityID, ruleID sql.NullString
	if rec.EntityID != "" {
		entityID = sql.NullString{String: rec.EntityID, Valid: true}
	}
	if rec.RuleID != "" {
		ruleID = sql.NullString{String: rec.RuleID, Valid: true}
	}
	var completedAt sql.NullTime
	if rec.CompletedAt != nil {
		completedAt = sql.NullTime{Time: *rec.CompletedAt, Valid: true}
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO recommendations (`+recommendationColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID,
		rec.Priority,
		rec.Category,
		rec.Title,
		rec.Description,
		rec.EstimatedImpact,
		rec.Status,
		entityID,
		ruleID,
		rec.CreatedAt,
		rec.UpdatedAt,
		completedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create recommendation: %w", err)
	}

	return nil
}

// GetByID retrieves a recommendation by its ID.
func (r *RecommendationRepository) GetByID(ctx context.Context, id string) (*secondary.RecommendationRecord, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+recommendationColumns+` FROM recommendations WHERE id = ?`,
		id,
	)
	record, err := scanRecommendation(row)
	if err == sql.ErrNoRows {
		return nil, errs.NotFound("recommendation", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get recommendation: %w", err)
	}
	return record, nil
}

// List retrieves recommendations matching the given filters, newest first.
func (r *RecommendationRepository) List(ctx context.Context, filters secondary.RecommendationFilters) ([]*secondary.RecommendationRecord, error) {
	query := `SELECT ` + recommendationColumns + ` FROM recommendations WHERE 1=1`
	args := []any{}

	if filters.Status != "" {
		query += " AND status = ?"
		args = append(args, filters.Status)
	}

	if filters.Priority != "" {
		query += " AND priority = ?"
		args = append(args, filters.Priority)
	}

	if filters.Category != "" {
		query += " AND category = ?"
		args = append(args, filters.Category)
	}

	if filters.EntityID != "" {
		query += " AND entity_id = ?"
		args = append(args, filters.EntityID)
	}

	query += " ORDER BY created_at DESC, id DESC"

	if filters.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filters.Limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list recommendations: %w", err)
	}
	defer rows.Close()

	var recs []*secondary.RecommendationRecord
	for rows.Next() {
		record, err := scanRecommendation(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan recommendation: %w", err)
		}
		recs = append(recs, record)
	}

	return recs, rows.Err()
}

// UpdateStatus moves a recommendation from one status to another.
// The status check and the write happen in one statement.
func (r *RecommendationRepository) UpdateStatus(ctx context.Context, id, from, to string, updatedAt time.Time, completedAt *time.Time) (bool, error) {
	var completed sql.NullTime
	if completedAt != nil {
		completed = sql.NullTime{Time: *completedAt, Valid: true}
	}

	result, err := r.db.ExecContext(ctx,
		`UPDATE recommendations SET status = ?, updated_at = ?, completed_at = COALESCE(?, completed_at) WHERE id = ? AND status = ?`,
		to, updatedAt, completed, id, from,
	)
	if err != nil {
		return false, fmt.Errorf("failed to update recommendation status: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return n == 1, nil
}

// GetNextID returns the next available recommendation ID.
func (r *RecommendationRepository) GetNextID(ctx context.Context) (string, error) {
	var maxID int
	prefixLen := len("REC-") + 1
	err := r.db.QueryRowContext(ctx,
		fmt.Sprintf("SELECT COALESCE(MAX(CAST(SUBSTR(id, %d) AS INTEGER)), 0) FROM recommendations", prefixLen),
	).Scan(&maxID)
	if err != nil {
		return "", fmt.Errorf("failed to get next recommendation ID: %w", err)
	}

	return fmt.Sprintf("REC-%03d", maxID+1), nil
}

// Counts returns the recommendation counters.
func (r *RecommendationRepository) Counts(ctx context.Context) (*secondary.RecommendationCounts, error) {
	counts := &secondary.RecommendationCounts{}
	err := r.db.QueryRowContext(ctx, `
		SELECT
			COUNT(*),
			COALESCE(SUM(CASE WHEN status = 'New' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN priority = 'High' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN status = 'InProgress' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN status = 'Completed' THEN 1 ELSE 0 END), 0)
		FROM recommendations`,
	).Scan(&counts.Total, &counts.New, &counts.HighPriority, &counts.InProgress, &counts.Completed)
	if err != nil {
		return nil, fmt.Errorf("failed to count recommendations: %w", err)
	}
	return counts, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecommendation(row rowScanner) (*secondary.RecommendationRecord, error) {
	var (
		description sql.NullString
		impact      sql.NullString
		entityID    sql.NullString
		ruleID      sql.NullString
		completedAt sql.NullTime
	)

	record := &secondary.RecommendationRecord{}
	err := row.Scan(&record.ID,
		&record.Priority,
		&record.Category,
		&record.Title,
		&description,
		&impact,
		&record.Status,
		&entityID,
		&ruleID,
		&record.CreatedAt,
		&record.UpdatedAt,
		&completedAt)
	if err != nil {
		return nil, err
	}
	record.Description = description.String
	record.EstimatedImpact = impact.String
	record.EntityID = entityID.String
	record.RuleID = ruleID.String
	if completedAt.Valid {
		t := completedAt.Time
		record.CompletedAt = &t
	}
	return record, nil
}

// Ensure RecommendationRepository implements the interface
var _ secondary.RecommendationRepository = (*RecommendationRepository)(nil)
