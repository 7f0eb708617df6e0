package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/example/railctl/internal/errs"
	"github.com/example/railctl/internal/ports/secondary"
)

// DecisionRepository implements secondary.DecisionRepository with SQLite.
type DecisionRepository struct {
	db *sql.DB
}

// NewDecisionRepository creates a new SQLite decision repository.
func NewDecisionRepository(db *sql.DB) *DecisionRepository {
	return &DecisionRepository{db: db}
}

const decisionColumns = `id, train_id, kind, recommendation, confidence, mode, impact, recommendation_id, created_at, updated_at`

// Create persists a new decision.
func (r *DecisionRepository) Create(ctx context.Context, dec *secondary.DecisionRecord) error {
	var recommendationID sql.NullString
	if dec.RecommendationID != "" {
		recommendationID = sql.NullString{String: dec.RecommendationID, Valid: true}
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO ai_decisions (`+decisionColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		dec.ID,
		dec.TrainID,
		dec.Kind,
		dec.Recommendation,
		dec.Confidence,
		dec.Mode,
		dec.Impact,
		recommendationID,
		dec.CreatedAt,
		dec.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create decision: %w", err)
	}

	return nil
}

// GetByID retrieves a decision by its ID.
func (r *DecisionRepository) GetByID(ctx context.Context, id string) (*secondary.DecisionRecord, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+decisionColumns+` FROM ai_decisions WHERE id = ?`,
		id,
	)
	record, err := scanDecision(row)
	if err == sql.ErrNoRows {
		return nil, errs.NotFound("decision", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get decision: %w", err)
	}
	return record, nil
}

// List retrieves decisions matching the given filters, newest first.
func (r *DecisionRepository) List(ctx context.Context, filters secondary.DecisionFilters) ([]*secondary.DecisionRecord, error) {
	query := `SELECT ` + decisionColumns + ` FROM ai_decisions WHERE 1=1`
	args := []any{}

	if filters.Mode != "" {
		query += " AND mode = ?"
		args = append(args, filters.Mode)
	}

	if filters.TrainID != "" {
		query += " AND train_id = ?"
		args = append(args, filters.TrainID)
	}

	if filters.Kind != "" {
		query += " AND kind = ?"
		args = append(args, filters.Kind)
	}

	query += " ORDER BY created_at DESC, id DESC"

	if filters.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filters.Limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list decisions: %w", err)
	}
	defer rows.Close()

	var decisions []*secondary.DecisionRecord
	for rows.Next() {
		record, err := scanDecision(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan decision: %w", err)
		}
		decisions = append(decisions, record)
	}

	return decisions, rows.Err()
}

// UpdateMode moves a decision from one mode to another in one statement.
func (r *DecisionRepository) UpdateMode(ctx context.Context, id, from, to string, updatedAt time.Time) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE ai_decisions SET mode = ?, updated_at = ? WHERE id = ? AND mode = ?`,
		to, updatedAt, id, from,
	)
	if err != nil {
		return false, fmt.Errorf("failed to update decision mode: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return n == 1, nil
}

// GetNextID returns the next available decision ID.
func (r *DecisionRepository) GetNextID(ctx context.Context) (string, error) {
	var maxID int
	prefixLen := len("AID-") + 1
	err := r.db.QueryRowContext(ctx,
		fmt.Sprintf("SELECT COALESCE(MAX(CAST(SUBSTR(id, %d) AS INTEGER)), 0) FROM ai_decisions", prefixLen),
	).Scan(&maxID)
	if err != nil {
		return "", fmt.Errorf("failed to get next decision ID: %w", err)
	}

	return fmt.Sprintf("AID-%03d", maxID+1), nil
}

func scanDecision(row rowScanner) (*secondary.DecisionRecord, error) {
	var (
		impact           sql.NullString
		recommendationID sql.NullString
	)

	record := &secondary.DecisionRecord{}
	err := row.Scan(&record.ID,
		&record.TrainID,
		&record.Kind,
		&record.Recommendation,
		&record.Confidence,
		&record.Mode,
		&impact,
		&recommendationID,
		&record.CreatedAt,
		&record.UpdatedAt)
	if err != nil {
		return nil, err
	}
	record.Impact = impact.String
	record.RecommendationID = recommendationID.String
	return record, nil
}

// Ensure DecisionRepository implements the interface
var _ secondary.DecisionRepository = (*DecisionRepository)(nil)
