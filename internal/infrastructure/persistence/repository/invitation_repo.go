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

// InvitationRepository implements port.InvitationRepository
type InvitationRepository struct {
	db     *database.DB
	logger *zap.Logger
}

// NewInvitationRepository creates a new invitation repository
func NewInvitationRepository(db *database.DB, logger *zap.Logger) port.InvitationRepository {
	return &InvitationRepository{
		db:     db,
		logger: logger,
	}
}

const invitationColumns = `id, rfq_id, buyer_company_id, supplier_company_id,
	token, expires_at, status, version, created_at, updated_at`

// Create inserts a new invitation
func (r *InvitationRepository) Create(ctx context.Context, inv *entity.SupplierInvitation) error {
	query := `
		INSERT INTO supplier_invitations (
			id, rfq_id, buyer_company_id, supplier_company_id, token,
			expires_at, status, version, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.GetExecutor(ctx).ExecContext(ctx, query,
		inv.ID,
		inv.RfqID,
		inv.BuyerCompanyID,
		inv.SupplierCompanyID,
		inv.Token,
		inv.ExpiresAt,
		inv.Status.String(),
		inv.Version,
		inv.CreatedAt,
		inv.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create invitation", zap.String("invitation_id", inv.ID), zap.Error(err))
		return fmt.Errorf("failed to create invitation: %w", err)
	}
	return nil
}

// GetByID retrieves an invitation by ID
func (r *InvitationRepository) GetByID(ctx context.Context, id string) (*entity.SupplierInvitation, error) {
	query := "SELECT " + invitationColumns + " FROM supplier_invitations WHERE id = ?"

	inv, err := scanInvitation(r.db.GetExecutor(ctx).QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: invitation %s", workflow.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get invitation: %w", err)
	}
	return inv, nil
}

// GetByToken retrieves an invitation by its acceptance token
func (r *InvitationRepository) GetByToken(ctx context.Context, token string) (*entity.SupplierInvitation, error) {
	query := "SELECT " + invitationColumns + " FROM supplier_invitations WHERE token = ?"

	inv, err := scanInvitation(r.db.GetExecutor(ctx).QueryRowContext(ctx, query, token))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: invitation token", workflow.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get invitation by token: %w", err)
	}
	return inv, nil
}

// UpdateStatus writes a new status when the stored version still matches
func (r *InvitationRepository) UpdateStatus(ctx context.Context, id string, status workflow.State, expectedVersion int) error {
	return updateStatusVersioned(ctx, r.db, "supplier_invitations", id, status, expectedVersion)
}

// ListExpired returns pending invitations whose expiry has passed
func (r *InvitationRepository) ListExpired(ctx context.Context, now time.Time) ([]*entity.SupplierInvitation, error) {
	query := "SELECT " + invitationColumns + ` FROM supplier_invitations
		WHERE status = ? AND expires_at <= ?
		ORDER BY expires_at ASC`

	rows, err := r.db.GetExecutor(ctx).QueryContext(ctx, query,
		workflow.InvitationPending.String(), now)
	if err != nil {
		return nil, fmt.Errorf("failed to list expired invitations: %w", err)
	}
	defer rows.Close()

	var invitations []*entity.SupplierInvitation
	for rows.Next() {
		inv, err := scanInvitation(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan invitation: %w", err)
		}
		invitations = append(invitations, inv)
	}
	return invitations, rows.Err()
}

func scanInvitation(row rowScanner) (*entity.SupplierInvitation, error) {
	var inv entity.SupplierInvitation
	var status string
	err := row.Scan(
		&inv.ID,
		&inv.RfqID,
		&inv.BuyerCompanyID,
		&inv.SupplierCompanyID,
		&inv.Token,
		&inv.ExpiresAt,
		&status,
		&inv.Version,
		&inv.CreatedAt,
		&inv.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	inv.Status = workflow.State(status)
	return &inv, nil
}

// Verify interface compliance
var _ port.InvitationRepository = (*InvitationRepository)(nil)
