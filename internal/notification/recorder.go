package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/garyjia/rfq-procurement/internal/application/port"
	"github.com/garyjia/rfq-procurement/internal/domain/entity"
	"github.com/garyjia/rfq-procurement/internal/domain/event"
)

// Recorder persists dispatched workflow events as notification rows, one
// per recipient company. Delivery transports consume the recorded rows
// elsewhere; recording failures are logged and never fail a transition.
type Recorder struct {
	notifications port.NotificationRepository
	logger        *zap.Logger
}

// NewRecorder creates a new notification recorder
func NewRecorder(notifications port.NotificationRepository, logger *zap.Logger) *Recorder {
	return &Recorder{
		notifications: notifications,
		logger:        logger,
	}
}

// Dispatch implements port.Notifier
func (r *Recorder) Dispatch(ctx context.Context, evt *event.Event) error {
	var payload string
	if len(evt.Payload) > 0 {
		raw, err := json.Marshal(evt.Payload)
		if err != nil {
			return fmt.Errorf("marshaling event payload: %w", err)
		}
		payload = string(raw)
	}

	for _, recipient := range evt.Recipients {
		n := &entity.Notification{
			ID:         uuid.NewString(),
			EventID:    evt.ID,
			EventType:  string(evt.Type),
			EntityType: evt.EntityType,
			EntityID:   evt.EntityID,
			Recipient:  recipient,
			Payload:    payload,
			CreatedAt:  time.Now().UTC(),
		}
		if err := r.notifications.Create(ctx, n); err != nil {
			return fmt.Errorf("recording notification for %s: %w", recipient, err)
		}
	}

	r.logger.Debug("Notification recorded",
		zap.String("event_type", string(evt.Type)),
		zap.String("entity_id", evt.EntityID),
		zap.Int("recipients", len(evt.Recipients)))
	return nil
}

// Verify interface compliance
var _ port.Notifier = (*Recorder)(nil)
