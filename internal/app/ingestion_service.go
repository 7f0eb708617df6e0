package app

import (
	"context"
	"fmt"
	"log"

	"github.com/example/railctl/internal/errs"
	"github.com/example/railctl/internal/models"
	"github.com/example/railctl/internal/ports/primary"
)

// IngestionServiceImpl implements the IngestionService interface on top of
// the entity store.
type IngestionServiceImpl struct {
	store *EntityStore
}

// NewIngestionService creates a new IngestionService.
func NewIngestionService(store *EntityStore) *IngestionServiceImpl {
	return &IngestionServiceImpl{store: store}
}

// ApplyTrainUpdate merges a delta into a train, creating or retiring it.
func (s *IngestionServiceImpl) ApplyTrainUpdate(ctx context.Context, trainID string, delta models.TrainDelta) (*models.Train, error) {
	return s.store.ApplyTrainUpdate(ctx, trainID, delta)
}

// ApplySectionUpdate merges an occupancy delta into a configured section.
func (s *IngestionServiceImpl) ApplySectionUpdate(ctx context.Context, sectionID string, delta models.SectionDelta) (*models.Section, error) {
	return s.store.ApplySectionUpdate(ctx, sectionID, delta)
}

// ApplyBatch applies records in order. Every rejected record is reported
// with its position; the rest of the batch still applies.
func (s *IngestionServiceImpl) ApplyBatch(ctx context.Context, records []models.UpdateRecord) *primary.BatchResult {
	result := &primary.BatchResult{}
	for i, rec := range records {
		if err := s.applyRecord(ctx, rec); err != nil {
			result.Failed = append(result.Failed, primary.RecordError{
				Index:    i,
				Kind:     rec.Kind,
				EntityID: rec.EntityID,
				Err:      err,
			})
			continue
		}
		result.Applied++
	}
	if len(result.Failed) > 0 {
		log.Printf("[ingest] batch applied %d of %d records", result.Applied, len(records))
	}
	return result
}

func (s *IngestionServiceImpl) applyRecord(ctx context.Context, rec models.UpdateRecord) error {
	switch rec.Kind {
	case models.UpdateTrain:
		if rec.Train == nil {
			return errs.Validation("train", rec.EntityID, "record carries no train delta")
		}
		_, err := s.store.ApplyTrainUpdate(ctx, rec.EntityID, *rec.Train)
		return err
	case models.UpdateSection:
		if rec.Section == nil {
			return errs.Validation("section", rec.EntityID, "record carries no section delta")
		}
		_, err := s.store.ApplySectionUpdate(ctx, rec.EntityID, *rec.Section)
		return err
	}
	return errs.Validation(string(rec.Kind), rec.EntityID, "unknown record kind %q", rec.Kind)
}

// InjectKPI stores an externally computed KPI.
func (s *IngestionServiceImpl) InjectKPI(ctx context.Context, k models.KPI) (*models.KPI, error) {
	out, err := s.store.InjectKPI(ctx, k)
	if err != nil {
		return nil, fmt.Errorf("failed to inject KPI: %w", err)
	}
	return out, nil
}

// Ensure IngestionServiceImpl implements the interface
var _ primary.IngestionService = (*IngestionServiceImpl)(nil)
