// Package events fans lifecycle and collaboration events out to registered
// in-process handlers, decoupling the lifecycle engine from its background
// consumers such as the notification bundler.
package events

import (
	"context"

	"github.com/kestrelhq/driftboard/internal/domain"
)

// Handler defines an interface for components that consume events after
// they have been durably appended to the event log. Handler failures never
// roll back the transition that produced the event.
type Handler interface {
	// HandleEvent processes the given event within the provided context.
	// Returns an error if the event cannot be handled successfully.
	HandleEvent(ctx context.Context, event *domain.Event) error
}

// Emitter defines an interface for components that publish events. This
// allows the engine to publish without direct knowledge of handlers.
type Emitter interface {
	// EmitEvent publishes the given event to all registered handlers.
	// Returns the first handler error, if any.
	EmitEvent(ctx context.Context, event *domain.Event) error
}
