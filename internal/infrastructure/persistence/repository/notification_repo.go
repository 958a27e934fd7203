package repository

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/garyjia/rfq-procurement/internal/application/port"
	"github.com/garyjia/rfq-procurement/internal/domain/entity"
	"github.com/garyjia/rfq-procurement/internal/domain/workflow"
	"github.com/garyjia/rfq-procurement/pkg/database"
)

// NotificationRepository implements port.NotificationRepository.
// Writes always use the plain connection: notification rows are recorded by
// async event handlers whose context may outlive the transition's
// transaction.
type NotificationRepository struct {
	db     *database.DB
	logger *zap.Logger
}

// NewNotificationRepository creates a new notification repository
func NewNotificationRepository(db *database.DB, logger *zap.Logger) port.NotificationRepository {
	return &NotificationRepository{
		db:     db,
		logger: logger,
	}
}

// Create records one notification row
func (r *NotificationRepository) Create(ctx context.Context, n *entity.Notification) error {
	query := `
		INSERT INTO notifications (
			id, event_id, event_type, entity_type, entity_id,
			recipient, payload, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.DB.ExecContext(ctx, query,
		n.ID,
		n.EventID,
		n.EventType,
		n.EntityType.String(),
		n.EntityID,
		n.Recipient,
		n.Payload,
		n.CreatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create notification",
			zap.String("event_id", n.EventID), zap.Error(err))
		return fmt.Errorf("failed to create notification: %w", err)
	}
	return nil
}

// ListByRecipient retrieves a recipient's notifications newest first
func (r *NotificationRepository) ListByRecipient(ctx context.Context, recipient string, limit int) ([]*entity.Notification, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT id, event_id, event_type, entity_type, entity_id,
			recipient, payload, created_at
		FROM notifications
		WHERE recipient = ?
		ORDER BY created_at DESC
		LIMIT ?
	`

	rows, err := r.db.DB.QueryContext(ctx, query, recipient, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	defer rows.Close()

	var notifications []*entity.Notification
	for rows.Next() {
		var n entity.Notification
		var entityType string
		if err := rows.Scan(
			&n.ID,
			&n.EventID,
			&n.EventType,
			&entityType,
			&n.EntityID,
			&n.Recipient,
			&n.Payload,
			&n.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		n.EntityType = workflow.EntityType(entityType)
		notifications = append(notifications, &n)
	}
	return notifications, rows.Err()
}

// Verify interface compliance
var _ port.NotificationRepository = (*NotificationRepository)(nil)
