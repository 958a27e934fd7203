package repository

import (
	"context"
	"fmt"

	"github.com/garyjia/rfq-procurement/internal/domain/workflow"
	"github.com/garyjia/rfq-procurement/pkg/database"
)

// updateStatusVersioned performs the optimistic status write shared by all
// workflow-managed tables: the row's version must still equal
// expectedVersion or the update is rejected with workflow.ErrConflict. A
// missing row surfaces as workflow.ErrNotFound.
func updateStatusVersioned(ctx context.Context, db *database.DB, table, id string, status workflow.State, expectedVersion int) error {
	exec := db.GetExecutor(ctx)

	query := fmt.Sprintf(
		"UPDATE %s SET status = ?, version = version + 1, updated_at = CURRENT_TIMESTAMP WHERE id = ? AND version = ?",
		table,
	)
	result, err := exec.ExecContext(ctx, query, status.String(), id, expectedVersion)
	if err != nil {
		return fmt.Errorf("failed to update %s status: %w", table, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check affected rows: %w", err)
	}
	if affected > 0 {
		return nil
	}

	// Distinguish a version mismatch from a missing row
	var count int
	existsQuery := fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE id = ?", table)
	if err := exec.QueryRowContext(ctx, existsQuery, id).Scan(&count); err != nil {
		return fmt.Errorf("failed to check %s existence: %w", table, err)
	}
	if count == 0 {
		return fmt.Errorf("%w: %s %s", workflow.ErrNotFound, table, id)
	}
	return fmt.Errorf("%w: %s %s changed concurrently (expected version %d)",
		workflow.ErrConflict, table, id, expectedVersion)
}
