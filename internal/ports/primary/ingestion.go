package primary

import (
	"context"

	"github.com/example/railctl/internal/models"
)

// IngestionService defines the primary port for entity state updates.
// Every rejected update is returned to the caller; the entity is left unchanged.
type IngestionService interface {
	// ApplyTrainUpdate merges a delta into a train, creating or retiring it.
	// Returns nil train when the delta retired it.
	ApplyTrainUpdate(ctx context.Context, trainID string, delta models.TrainDelta) (*models.Train, error)

	// ApplySectionUpdate merges an occupancy delta into a configured section.
	ApplySectionUpdate(ctx context.Context, sectionID string, delta models.SectionDelta) (*models.Section, error)

	// ApplyBatch applies a feed of typed records in order.
	// A failing record does not stop the batch.
	ApplyBatch(ctx context.Context, records []models.UpdateRecord) *BatchResult

	// InjectKPI stores an externally computed KPI.
	InjectKPI(ctx context.Context, kpi models.KPI) (*models.KPI, error)
}

// BatchResult reports the outcome of ApplyBatch.
type BatchResult struct {
	Applied int
	Failed  []RecordError
}

// RecordError is a rejected record of a batch.
type RecordError struct {
	Index    int
	Kind     models.UpdateKind
	EntityID string
	Err      error
}
