package app

import (
	"context"
	"fmt"
	"math"

	"github.com/example/railctl/internal/config"
	"github.com/example/railctl/internal/core/aggregate"
	"github.com/example/railctl/internal/errs"
	"github.com/example/railctl/internal/models"
	"github.com/example/railctl/internal/ports/primary"
	"github.com/example/railctl/internal/ports/secondary"
	"github.com/example/railctl/internal/spatial"
)

// QueryServiceImpl serves read-only views. Snapshot and aggregate views come
// from the latest published cycle so every reader sees the metrics the
// advisory rules were evaluated against.
type QueryServiceImpl struct {
	engine    *Engine
	store     *EntityStore
	config    *config.Store
	recRepo   secondary.RecommendationRepository
	decRepo   secondary.DecisionRepository
	auditRepo secondary.AuditLogRepository
}

// NewQueryService creates a new QueryService with injected dependencies.
func NewQueryService(
	engine *Engine,
	store *EntityStore,
	cfg *config.Store,
	recRepo secondary.RecommendationRepository,
	decRepo secondary.DecisionRepository,
	auditRepo secondary.AuditLogRepository,
) *QueryServiceImpl {
	return &QueryServiceImpl{
		engine:    engine,
		store:     store,
		config:    cfg,
		recRepo:   recRepo,
		decRepo:   decRepo,
		auditRepo: auditRepo,
	}
}

// GetSnapshot returns the snapshot of the latest cycle. Before the first
// cycle it returns the live store snapshot, which carries no derived KPIs.
func (s *QueryServiceImpl) GetSnapshot(ctx context.Context) models.Snapshot {
	if view := s.engine.View(); view != nil {
		return view.Snapshot.Clone()
	}
	return s.store.Snapshot()
}

// GetAggregates returns the aggregates of the latest cycle. Before the first
// cycle they are computed on demand, without trends.
func (s *QueryServiceImpl) GetAggregates(ctx context.Context) aggregate.Aggregates {
	if view := s.engine.View(); view != nil {
		return cloneAggregates(view.Aggregates)
	}
	return aggregate.Compute(s.store.Snapshot(), s.config.Current().AggregateConfig())
}

// GetRecommendation retrieves a recommendation by ID.
func (s *QueryServiceImpl) GetRecommendation(ctx context.Context, id string) (*models.Recommendation, error) {
	record, err := s.recRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return recordToRecommendation(record), nil
}

// ListRecommendations lists recommendations with optional filters.
func (s *QueryServiceImpl) ListRecommendations(ctx context.Context, filters primary.RecommendationFilters) ([]*models.Recommendation, error) {
	records, err := s.recRepo.List(ctx, secondary.RecommendationFilters{
		Status:   string(filters.Status),
		Priority: string(filters.Priority),
		Category: string(filters.Category),
		EntityID: filters.EntityID,
		Limit:    filters.Limit,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list recommendations: %w", err)
	}

	recs := make([]*models.Recommendation, len(records))
	for i, r := range records {
		recs[i] = recordToRecommendation(r)
	}
	return recs, nil
}

// RecommendationCounts returns the recommendation summary counters.
func (s *QueryServiceImpl) RecommendationCounts(ctx context.Context) (*primary.RecommendationCounts, error) {
	c, err := s.recRepo.Counts(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count recommendations: %w", err)
	}
	return &primary.RecommendationCounts{
		Total:        c.Total,
		New:          c.New,
		HighPriority: c.HighPriority,
		InProgress:   c.InProgress,
		Completed:    c.Completed,
	}, nil
}

// GetDecision retrieves a decision by ID.
func (s *QueryServiceImpl) GetDecision(ctx context.Context, id string) (*models.AIDecision, error) {
	record, err := s.decRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return recordToDecision(record), nil
}

// ListDecisions lists decisions with optional filters.
func (s *QueryServiceImpl) ListDecisions(ctx context.Context, filters primary.DecisionFilters) ([]*models.AIDecision, error) {
	records, err := s.decRepo.List(ctx, secondary.DecisionFilters{
		Mode:    string(filters.Mode),
		TrainID: filters.TrainID,
		Kind:    string(filters.Kind),
		Limit:   filters.Limit,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list decisions: %w", err)
	}

	decs := make([]*models.AIDecision, len(records))
	for i, r := range records {
		decs[i] = recordToDecision(r)
	}
	return decs, nil
}

// ListAuditLog lists audit entries with optional filters.
func (s *QueryServiceImpl) ListAuditLog(ctx context.Context, filters primary.AuditLogFilters) ([]*primary.AuditEntry, error) {
	records, err := s.auditRepo.List(ctx, secondary.AuditLogFilters{
		EntityType: filters.EntityType,
		EntityID:   filters.EntityID,
		ActorID:    filters.ActorID,
		Action:     filters.Action,
		Limit:      filters.Limit,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list audit log: %w", err)
	}

	entries := make([]*primary.AuditEntry, len(records))
	for i, r := range records {
		entries[i] = &primary.AuditEntry{
			ID:         r.ID,
			Timestamp:  r.Timestamp,
			ActorID:    r.ActorID,
			EntityType: r.EntityType,
			EntityID:   r.EntityID,
			Action:     r.Action,
			FieldName:  r.FieldName,
			OldValue:   r.OldValue,
			NewValue:   r.NewValue,
		}
	}
	return entries, nil
}

// NearbyTrains returns trains of the latest cycle within radiusKm of center.
func (s *QueryServiceImpl) NearbyTrains(ctx context.Context, center models.Position, radiusKm float64) ([]spatial.TrainDistance, error) {
	if !spatial.ValidPosition(center) {
		return nil, errs.Validation("position", "", "invalid position (%v, %v)", center.Lat, center.Lng)
	}
	if math.IsNaN(radiusKm) || radiusKm <= 0 {
		return nil, errs.Validation("position", "", "radius must be positive (got %v)", radiusKm)
	}
	return spatial.Nearby(s.GetSnapshot(ctx).Trains, center, radiusKm), nil
}

// ArchivedTrains returns retired trains, oldest first.
func (s *QueryServiceImpl) ArchivedTrains(ctx context.Context) []models.ArchivedTrain {
	return s.store.Archived()
}

// cloneAggregates copies the slices of a published view so callers cannot
// modify it.
func cloneAggregates(a aggregate.Aggregates) aggregate.Aggregates {
	a.DelayHistogram = append([]aggregate.HistogramBin(nil), a.DelayHistogram...)
	a.Throughput = append([]aggregate.SectionThroughput(nil), a.Throughput...)
	a.Trends = append([]aggregate.TrendBucket(nil), a.Trends...)
	return a
}

// Ensure QueryServiceImpl implements the interface
var _ primary.QueryService = (*QueryServiceImpl)(nil)
