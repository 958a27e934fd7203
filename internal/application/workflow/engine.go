package workflow

import (
	"context"

	"github.com/garyjia/rfq-procurement/internal/domain/entity"
	"github.com/garyjia/rfq-procurement/internal/domain/event"
	domainwf "github.com/garyjia/rfq-procurement/internal/domain/workflow"
)

// Engine applies authorized, guarded status transitions to workflow
// entities. It holds no persistent state of its own: each call reads the
// current snapshot, evaluates the entity's transition table, and writes the
// new status plus a history entry atomically.
type Engine interface {
	// Transition moves the entity to the target status on behalf of the
	// actor. The returned Result carries the updated snapshot and the
	// side-effect events that were emitted.
	Transition(ctx context.Context, entityType domainwf.EntityType, entityID string, target domainwf.State, actor domainwf.Actor, reason string) (*Result, error)

	// History returns the transition log of an entity, oldest first
	History(ctx context.Context, entityType domainwf.EntityType, entityID string) ([]*entity.StatusHistory, error)
}

// Result describes a successfully applied transition
type Result struct {
	Entity domainwf.Subject
	From   domainwf.State
	To     domainwf.State
	Events []*event.Event
}
