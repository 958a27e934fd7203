package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/garyjia/rfq-procurement/internal/application/port"
	"github.com/garyjia/rfq-procurement/internal/domain/entity"
	"github.com/garyjia/rfq-procurement/internal/domain/workflow"
	"github.com/garyjia/rfq-procurement/pkg/database"
)

// BidRepository implements port.BidRepository
type BidRepository struct {
	db     *database.DB
	logger *zap.Logger
}

// NewBidRepository creates a new bid repository
func NewBidRepository(db *database.DB, logger *zap.Logger) port.BidRepository {
	return &BidRepository{
		db:     db,
		logger: logger,
	}
}

const bidColumns = `id, rfq_id, buyer_company_id, supplier_company_id, submitted_by,
	total_amount, currency, notes, status, version, created_at, updated_at`

// Create inserts a new bid
func (r *BidRepository) Create(ctx context.Context, bid *entity.Bid) error {
	query := `
		INSERT INTO bids (
			id, rfq_id, buyer_company_id, supplier_company_id, submitted_by,
			total_amount, currency, notes, status, version, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.GetExecutor(ctx).ExecContext(ctx, query,
		bid.ID,
		bid.RfqID,
		bid.BuyerCompanyID,
		bid.SupplierCompanyID,
		bid.SubmittedBy,
		bid.TotalAmount,
		bid.Currency,
		bid.Notes,
		bid.Status.String(),
		bid.Version,
		bid.CreatedAt,
		bid.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create bid", zap.String("bid_id", bid.ID), zap.Error(err))
		return fmt.Errorf("failed to create bid: %w", err)
	}
	return nil
}

// GetByID retrieves a bid by ID
func (r *BidRepository) GetByID(ctx context.Context, id string) (*entity.Bid, error) {
	query := "SELECT " + bidColumns + " FROM bids WHERE id = ?"

	bid, err := scanBid(r.db.GetExecutor(ctx).QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: bid %s", workflow.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get bid: %w", err)
	}
	return bid, nil
}

// ListByRfq retrieves all bids placed against an RFQ
func (r *BidRepository) ListByRfq(ctx context.Context, rfqID string) ([]*entity.Bid, error) {
	query := "SELECT " + bidColumns + " FROM bids WHERE rfq_id = ? ORDER BY created_at ASC"

	rows, err := r.db.GetExecutor(ctx).QueryContext(ctx, query, rfqID)
	if err != nil {
		return nil, fmt.Errorf("failed to list bids: %w", err)
	}
	defer rows.Close()

	var bids []*entity.Bid
	for rows.Next() {
		bid, err := scanBid(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan bid: %w", err)
		}
		bids = append(bids, bid)
	}
	return bids, rows.Err()
}

// CountByRfqAndStatus counts an RFQ's bids in a given status
func (r *BidRepository) CountByRfqAndStatus(ctx context.Context, rfqID string, status workflow.State) (int, error) {
	var count int
	err := r.db.GetExecutor(ctx).QueryRowContext(ctx,
		"SELECT COUNT(*) FROM bids WHERE rfq_id = ? AND status = ?",
		rfqID, status.String()).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count bids: %w", err)
	}
	return count, nil
}

// UpdateStatus writes a new status when the stored version still matches
func (r *BidRepository) UpdateStatus(ctx context.Context, id string, status workflow.State, expectedVersion int) error {
	return updateStatusVersioned(ctx, r.db, "bids", id, status, expectedVersion)
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanBid(row rowScanner) (*entity.Bid, error) {
	var bid entity.Bid
	var status string
	err := row.Scan(
		&bid.ID,
		&bid.RfqID,
		&bid.BuyerCompanyID,
		&bid.SupplierCompanyID,
		&bid.SubmittedBy,
		&bid.TotalAmount,
		&bid.Currency,
		&bid.Notes,
		&status,
		&bid.Version,
		&bid.CreatedAt,
		&bid.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	bid.Status = workflow.State(status)
	return &bid, nil
}

// Verify interface compliance
var _ port.BidRepository = (*BidRepository)(nil)
