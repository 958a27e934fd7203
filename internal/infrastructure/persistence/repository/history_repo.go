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

// HistoryRepository implements port.HistoryRepository
type HistoryRepository struct {
	db     *database.DB
	logger *zap.Logger
}

// NewHistoryRepository creates a new history repository
func NewHistoryRepository(db *database.DB, logger *zap.Logger) port.HistoryRepository {
	return &HistoryRepository{
		db:     db,
		logger: logger,
	}
}

// Append writes a transition record. Called inside the same transaction as
// the status change it records.
func (r *HistoryRepository) Append(ctx context.Context, entry *entity.StatusHistory) error {
	query := `
		INSERT INTO status_history (
			id, entity_type, entity_id, from_status, to_status,
			actor_id, actor_role, reason, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.GetExecutor(ctx).ExecContext(ctx, query,
		entry.ID,
		entry.EntityType.String(),
		entry.EntityID,
		entry.FromStatus.String(),
		entry.ToStatus.String(),
		entry.ActorID,
		string(entry.ActorRole),
		entry.Reason,
		entry.CreatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to append status history",
			zap.String("entity_id", entry.EntityID), zap.Error(err))
		return fmt.Errorf("failed to append history: %w", err)
	}
	return nil
}

// ListByEntity retrieves an entity's transition log oldest first
func (r *HistoryRepository) ListByEntity(ctx context.Context, entityType workflow.EntityType, entityID string) ([]*entity.StatusHistory, error) {
	query := `
		SELECT id, entity_type, entity_id, from_status, to_status,
			actor_id, actor_role, reason, created_at
		FROM status_history
		WHERE entity_type = ? AND entity_id = ?
		ORDER BY created_at ASC, rowid ASC
	`

	rows, err := r.db.GetExecutor(ctx).QueryContext(ctx, query, entityType.String(), entityID)
	if err != nil {
		return nil, fmt.Errorf("failed to list history: %w", err)
	}
	defer rows.Close()

	var entries []*entity.StatusHistory
	for rows.Next() {
		var entry entity.StatusHistory
		var entityTypeStr, fromStatus, toStatus, actorRole string
		if err := rows.Scan(
			&entry.ID,
			&entityTypeStr,
			&entry.EntityID,
			&fromStatus,
			&toStatus,
			&entry.ActorID,
			&actorRole,
			&entry.Reason,
			&entry.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan history entry: %w", err)
		}
		entry.EntityType = workflow.EntityType(entityTypeStr)
		entry.FromStatus = workflow.State(fromStatus)
		entry.ToStatus = workflow.State(toStatus)
		entry.ActorRole = workflow.Role(actorRole)
		entries = append(entries, &entry)
	}
	return entries, rows.Err()
}

// Verify interface compliance
var _ port.HistoryRepository = (*HistoryRepository)(nil)
