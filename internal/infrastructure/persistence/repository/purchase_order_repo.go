package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/garyjia/rfq-procurement/internal/application/port"
	"github.com/garyjia/rfq-procurement/internal/domain/entity"
	"github.com/garyjia/rfq-procurement/internal/domain/workflow"
	"github.com/garyjia/rfq-procurement/pkg/database"
)

// PurchaseOrderRepository implements port.PurchaseOrderRepository
type PurchaseOrderRepository struct {
	db     *database.DB
	logger *zap.Logger
}

// NewPurchaseOrderRepository creates a new purchase order repository
func NewPurchaseOrderRepository(db *database.DB, logger *zap.Logger) port.PurchaseOrderRepository {
	return &PurchaseOrderRepository{
		db:     db,
		logger: logger,
	}
}

const orderColumns = `id, order_number, rfq_id, bid_id, buyer_company_id,
	supplier_company_id, total_amount, currency, status, version, created_at, updated_at`

const modificationColumns = `id, order_id, proposed_by, company_id, description,
	status, decided_by, decided_at, created_at`

// Create inserts a new purchase order
func (r *PurchaseOrderRepository) Create(ctx context.Context, order *entity.PurchaseOrder) error {
	query := `
		INSERT INTO purchase_orders (
			id, order_number, rfq_id, bid_id, buyer_company_id, supplier_company_id,
			total_amount, currency, status, version, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.GetExecutor(ctx).ExecContext(ctx, query,
		order.ID,
		order.OrderNumber,
		order.RfqID,
		order.BidID,
		order.BuyerCompanyID,
		order.SupplierCompanyID,
		order.TotalAmount,
		order.Currency,
		order.Status.String(),
		order.Version,
		order.CreatedAt,
		order.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create purchase order", zap.String("order_id", order.ID), zap.Error(err))
		return fmt.Errorf("failed to create purchase order: %w", err)
	}
	return nil
}

// GetByID retrieves a purchase order by ID
func (r *PurchaseOrderRepository) GetByID(ctx context.Context, id string) (*entity.PurchaseOrder, error) {
	query := "SELECT " + orderColumns + " FROM purchase_orders WHERE id = ?"

	var order entity.PurchaseOrder
	var status string
	err := r.db.GetExecutor(ctx).QueryRowContext(ctx, query, id).Scan(
		&order.ID,
		&order.OrderNumber,
		&order.RfqID,
		&order.BidID,
		&order.BuyerCompanyID,
		&order.SupplierCompanyID,
		&order.TotalAmount,
		&order.Currency,
		&status,
		&order.Version,
		&order.CreatedAt,
		&order.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: purchase order %s", workflow.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get purchase order: %w", err)
	}
	order.Status = workflow.State(status)
	return &order, nil
}

// UpdateStatus writes a new status when the stored version still matches
func (r *PurchaseOrderRepository) UpdateStatus(ctx context.Context, id string, status workflow.State, expectedVersion int) error {
	return updateStatusVersioned(ctx, r.db, "purchase_orders", id, status, expectedVersion)
}

// CreateModification appends a change proposal to an order's modification log
func (r *PurchaseOrderRepository) CreateModification(ctx context.Context, mod *entity.Modification) error {
	query := `
		INSERT INTO po_modifications (
			id, order_id, proposed_by, company_id, description, status, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.GetExecutor(ctx).ExecContext(ctx, query,
		mod.ID,
		mod.OrderID,
		mod.ProposedBy,
		mod.CompanyID,
		mod.Description,
		string(mod.Status),
		mod.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create modification: %w", err)
	}
	return nil
}

// GetModification retrieves a modification by ID
func (r *PurchaseOrderRepository) GetModification(ctx context.Context, id string) (*entity.Modification, error) {
	query := "SELECT " + modificationColumns + " FROM po_modifications WHERE id = ?"

	mod, err := scanModification(r.db.GetExecutor(ctx).QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: modification %s", workflow.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get modification: %w", err)
	}
	return mod, nil
}

// ListModifications retrieves an order's modifications oldest first
func (r *PurchaseOrderRepository) ListModifications(ctx context.Context, orderID string) ([]*entity.Modification, error) {
	query := "SELECT " + modificationColumns + ` FROM po_modifications
		WHERE order_id = ? ORDER BY created_at ASC`

	rows, err := r.db.GetExecutor(ctx).QueryContext(ctx, query, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to list modifications: %w", err)
	}
	defer rows.Close()

	var mods []*entity.Modification
	for rows.Next() {
		mod, err := scanModification(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan modification: %w", err)
		}
		mods = append(mods, mod)
	}
	return mods, rows.Err()
}

// DecideModification records the counterparty's decision on a proposed
// modification. Only rows still proposed are decidable.
func (r *PurchaseOrderRepository) DecideModification(ctx context.Context, id string, status entity.ModificationStatus, decidedBy string, decidedAt time.Time) error {
	query := `
		UPDATE po_modifications
		SET status = ?, decided_by = ?, decided_at = ?
		WHERE id = ? AND status = ?
	`

	result, err := r.db.GetExecutor(ctx).ExecContext(ctx, query,
		string(status), decidedBy, decidedAt, id, string(entity.ModificationProposed))
	if err != nil {
		return fmt.Errorf("failed to decide modification: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check affected rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: modification %s is not open for decision", workflow.ErrConflict, id)
	}
	return nil
}

func scanModification(row rowScanner) (*entity.Modification, error) {
	var mod entity.Modification
	var status string
	var decidedBy sql.NullString
	var decidedAt sql.NullTime
	err := row.Scan(
		&mod.ID,
		&mod.OrderID,
		&mod.ProposedBy,
		&mod.CompanyID,
		&mod.Description,
		&status,
		&decidedBy,
		&decidedAt,
		&mod.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	mod.Status = entity.ModificationStatus(status)
	mod.DecidedBy = decidedBy.String
	if decidedAt.Valid {
		t := decidedAt.Time
		mod.DecidedAt = &t
	}
	return &mod, nil
}

// Verify interface compliance
var _ port.PurchaseOrderRepository = (*PurchaseOrderRepository)(nil)
