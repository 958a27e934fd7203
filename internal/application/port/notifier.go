package port

import (
	"context"

	"github.com/garyjia/rfq-procurement/internal/domain/event"
)

// Notifier consumes the side-effect descriptors transitions emit. Dispatch
// is fire-and-forget from the workflow's point of view: a failure is logged
// by the caller and never affects the transition outcome.
type Notifier interface {
	Dispatch(ctx context.Context, evt *event.Event) error
}
