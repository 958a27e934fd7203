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

// RfqRepository implements port.RfqRepository
type RfqRepository struct {
	db     *database.DB
	logger *zap.Logger
}

// NewRfqRepository creates a new RFQ repository
func NewRfqRepository(db *database.DB, logger *zap.Logger) port.RfqRepository {
	return &RfqRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts a new RFQ
func (r *RfqRepository) Create(ctx context.Context, rfq *entity.Rfq) error {
	query := `
		INSERT INTO rfqs (
			id, title, description, buyer_company_id, created_by, currency,
			budget_min, budget_max, bid_deadline, status, version,
			created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.GetExecutor(ctx).ExecContext(ctx, query,
		rfq.ID,
		rfq.Title,
		rfq.Description,
		rfq.BuyerCompanyID,
		rfq.CreatedBy,
		rfq.Currency,
		rfq.BudgetMin,
		rfq.BudgetMax,
		rfq.BidDeadline,
		rfq.Status.String(),
		rfq.Version,
		rfq.CreatedAt,
		rfq.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create rfq", zap.String("rfq_id", rfq.ID), zap.Error(err))
		return fmt.Errorf("failed to create rfq: %w", err)
	}
	return nil
}

// GetByID retrieves an RFQ by ID
func (r *RfqRepository) GetByID(ctx context.Context, id string) (*entity.Rfq, error) {
	query := `
		SELECT id, title, description, buyer_company_id, created_by, currency,
			budget_min, budget_max, bid_deadline, status, version,
			created_at, updated_at
		FROM rfqs
		WHERE id = ?
	`

	var rfq entity.Rfq
	var status string
	err := r.db.GetExecutor(ctx).QueryRowContext(ctx, query, id).Scan(
		&rfq.ID,
		&rfq.Title,
		&rfq.Description,
		&rfq.BuyerCompanyID,
		&rfq.CreatedBy,
		&rfq.Currency,
		&rfq.BudgetMin,
		&rfq.BudgetMax,
		&rfq.BidDeadline,
		&status,
		&rfq.Version,
		&rfq.CreatedAt,
		&rfq.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: rfq %s", workflow.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get rfq: %w", err)
	}
	rfq.Status = workflow.State(status)
	return &rfq, nil
}

// AddItem appends a requested line to an RFQ
func (r *RfqRepository) AddItem(ctx context.Context, item *entity.RfqItem) error {
	query := `
		INSERT INTO rfq_items (id, rfq_id, description, quantity, unit, target_price)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.GetExecutor(ctx).ExecContext(ctx, query,
		item.ID,
		item.RfqID,
		item.Description,
		item.Quantity,
		item.Unit,
		item.TargetPrice,
	)
	if err != nil {
		return fmt.Errorf("failed to add rfq item: %w", err)
	}
	return nil
}

// CountItems counts the requested lines of an RFQ
func (r *RfqRepository) CountItems(ctx context.Context, rfqID string) (int, error) {
	var count int
	err := r.db.GetExecutor(ctx).QueryRowContext(ctx,
		"SELECT COUNT(*) FROM rfq_items WHERE rfq_id = ?", rfqID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count rfq items: %w", err)
	}
	return count, nil
}

// ListItems retrieves the requested lines of an RFQ
func (r *RfqRepository) ListItems(ctx context.Context, rfqID string) ([]entity.RfqItem, error) {
	query := `
		SELECT id, rfq_id, description, quantity, unit, target_price
		FROM rfq_items
		WHERE rfq_id = ?
		ORDER BY rowid ASC
	`

	rows, err := r.db.GetExecutor(ctx).QueryContext(ctx, query, rfqID)
	if err != nil {
		return nil, fmt.Errorf("failed to list rfq items: %w", err)
	}
	defer rows.Close()

	var items []entity.RfqItem
	for rows.Next() {
		var item entity.RfqItem
		if err := rows.Scan(
			&item.ID,
			&item.RfqID,
			&item.Description,
			&item.Quantity,
			&item.Unit,
			&item.TargetPrice,
		); err != nil {
			return nil, fmt.Errorf("failed to scan rfq item: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// UpdateStatus writes a new status when the stored version still matches
func (r *RfqRepository) UpdateStatus(ctx context.Context, id string, status workflow.State, expectedVersion int) error {
	return updateStatusVersioned(ctx, r.db, "rfqs", id, status, expectedVersion)
}

// ListDeadlinePassed returns RFQs still open for bidding whose deadline has
// passed
func (r *RfqRepository) ListDeadlinePassed(ctx context.Context, now time.Time) ([]*entity.Rfq, error) {
	query := `
		SELECT id, title, description, buyer_company_id, created_by, currency,
			budget_min, budget_max, bid_deadline, status, version,
			created_at, updated_at
		FROM rfqs
		WHERE status = ? AND bid_deadline <= ?
		ORDER BY bid_deadline ASC
	`

	rows, err := r.db.GetExecutor(ctx).QueryContext(ctx, query,
		workflow.RfqBiddingOpen.String(), now)
	if err != nil {
		return nil, fmt.Errorf("failed to list rfqs past deadline: %w", err)
	}
	defer rows.Close()

	var rfqs []*entity.Rfq
	for rows.Next() {
		var rfq entity.Rfq
		var status string
		if err := rows.Scan(
			&rfq.ID,
			&rfq.Title,
			&rfq.Description,
			&rfq.BuyerCompanyID,
			&rfq.CreatedBy,
			&rfq.Currency,
			&rfq.BudgetMin,
			&rfq.BudgetMax,
			&rfq.BidDeadline,
			&status,
			&rfq.Version,
			&rfq.CreatedAt,
			&rfq.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan rfq: %w", err)
		}
		rfq.Status = workflow.State(status)
		rfqs = append(rfqs, &rfq)
	}
	return rfqs, rows.Err()
}

// Verify interface compliance
var _ port.RfqRepository = (*RfqRepository)(nil)
