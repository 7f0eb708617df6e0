package secondary

import "context"

// LogWriter defines the interface for writing audit log entries.
// Implementations extract the operator from context.
type LogWriter interface {
	// LogCreate logs a create operation for an entity.
	LogCreate(ctx context.Context, entityType, entityID string) error

	// LogUpdate logs an update operation for an entity field.
	// fieldName, oldValue, newValue describe what changed.
	LogUpdate(ctx context.Context, entityType, entityID, fieldName, oldValue, newValue string) error

	// LogReview logs that an operator reviewed an entity without changing it.
	LogReview(ctx context.Context, entityType, entityID string) error
}
