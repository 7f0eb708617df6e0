// Package errs defines the typed failures the engine surfaces to its callers.
// Every failure is local and recoverable; callers match them with errors.As.
package errs

import (
	"errors"
	"fmt"
)

// ValidationError reports a malformed or invariant-violating entity delta.
// The targeted entity is left unchanged.
type ValidationError struct {
	Entity string // "train", "section"
	ID     string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("invalid %s: %s", e.Entity, e.Reason)
	}
	return fmt.Sprintf("invalid %s %s: %s", e.Entity, e.ID, e.Reason)
}

// InvalidTransitionError reports an illegal lifecycle transition attempt.
type InvalidTransitionError struct {
	Kind   string // "recommendation", "decision"
	ID     string
	From   string
	Action string
	Reason string
}

func (e *InvalidTransitionError) Error() string {
	msg := fmt.Sprintf("cannot %s %s %s (current status: %s)", e.Action, e.Kind, e.ID, e.From)
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	return msg
}

// NotFoundError reports a reference to an unknown entity, recommendation or decision.
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Kind, e.ID)
}

// ConfigError reports an invalid tunable. The previous configuration is retained.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid config %s: %s", e.Field, e.Reason)
}

// Validation is shorthand for building a ValidationError.
func Validation(entity, id, format string, args ...any) error {
	return &ValidationError{Entity: entity, ID: id, Reason: fmt.Sprintf(format, args...)}
}

// NotFound is shorthand for building a NotFoundError.
func NotFound(kind, id string) error {
	return &NotFoundError{Kind: kind, ID: id}
}

// KindOf names the typed failure wrapped in err, or "internal" when err
// carries none of them.
func KindOf(err error) string {
	var (
		validation *ValidationError
		notFound   *NotFoundError
		transition *InvalidTransitionError
		config     *ConfigError
	)
	switch {
	case errors.As(err, &validation):
		return "validation"
	case errors.As(err, &notFound):
		return "not found"
	case errors.As(err, &transition):
		return "invalid transition"
	case errors.As(err, &config):
		return "config"
	}
	return "internal"
}
