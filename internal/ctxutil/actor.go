// Package ctxutil carries the acting operator through request and cycle
// contexts so the audit log can attribute every advisory change.
package ctxutil

import "context"

// EngineActor is the actor recorded for changes made by the aggregation cycle.
const EngineActor = "engine"

type actorKey struct{}

// WithActorID attaches the operator (or EngineActor) responsible for the
// changes made under ctx.
func WithActorID(ctx context.Context, actorID string) context.Context {
	return context.WithValue(ctx, actorKey{}, actorID)
}

// ActorFromContext returns the attached actor; audit entries without one are
// stored with a null actor.
func ActorFromContext(ctx context.Context) string {
	actor, _ := ctx.Value(actorKey{}).(string)
	return actor
}
