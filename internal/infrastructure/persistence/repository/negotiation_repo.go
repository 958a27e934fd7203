package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/garyjia/rfq-procurement/internal/application/port"
	"github.com/garyjia/rfq-procurement/internal/domain/entity"
	"github.com/garyjia/rfq-procurement/internal/domain/workflow"
	"github.com/garyjia/rfq-procurement/pkg/database"
)

// NegotiationRepository implements port.NegotiationRepository
type NegotiationRepository struct {
	db     *database.DB
	logger *zap.Logger
}

// NewNegotiationRepository creates a new negotiation repository
func NewNegotiationRepository(db *database.DB, logger *zap.Logger) port.NegotiationRepository {
	return &NegotiationRepository{
		db:     db,
		logger: logger,
	}
}

const negotiationColumns = `id, rfq_id, bid_id, buyer_company_id, supplier_company_id,
	initiated_by, currency, status, version, expires_at, created_at, updated_at`

const messageColumns = `id, negotiation_id, sender_id, sender_company_id,
	type, body, offer, read, created_at`

// Create inserts a new negotiation
func (r *NegotiationRepository) Create(ctx context.Context, n *entity.Negotiation) error {
	query := `
		INSERT INTO negotiations (
			id, rfq_id, bid_id, buyer_company_id, supplier_company_id,
			initiated_by, currency, status, version, expires_at, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.GetExecutor(ctx).ExecContext(ctx, query,
		n.ID,
		n.RfqID,
		n.BidID,
		n.BuyerCompanyID,
		n.SupplierCompanyID,
		n.InitiatedBy,
		n.Currency,
		n.Status.String(),
		n.Version,
		n.ExpiresAt,
		n.CreatedAt,
		n.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create negotiation", zap.String("negotiation_id", n.ID), zap.Error(err))
		return fmt.Errorf("failed to create negotiation: %w", err)
	}
	return nil
}

// GetByID retrieves a negotiation by ID
func (r *NegotiationRepository) GetByID(ctx context.Context, id string) (*entity.Negotiation, error) {
	query := "SELECT " + negotiationColumns + " FROM negotiations WHERE id = ?"

	n, err := scanNegotiation(r.db.GetExecutor(ctx).QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: negotiation %s", workflow.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get negotiation: %w", err)
	}
	return n, nil
}

// UpdateStatus writes a new status when the stored version still matches
func (r *NegotiationRepository) UpdateStatus(ctx context.Context, id string, status workflow.State, expectedVersion int) error {
	return updateStatusVersioned(ctx, r.db, "negotiations", id, status, expectedVersion)
}

// AppendMessage appends one entry to the message log
func (r *NegotiationRepository) AppendMessage(ctx context.Context, msg *entity.NegotiationMessage) error {
	var offerJSON sql.NullString
	if msg.Offer != nil {
		raw, err := json.Marshal(msg.Offer)
		if err != nil {
			return fmt.Errorf("failed to marshal offer: %w", err)
		}
		offerJSON = sql.NullString{String: string(raw), Valid: true}
	}

	query := `
		INSERT INTO negotiation_messages (
			id, negotiation_id, sender_id, sender_company_id, type, body, offer, read, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.GetExecutor(ctx).ExecContext(ctx, query,
		msg.ID,
		msg.NegotiationID,
		msg.SenderID,
		msg.SenderCompanyID,
		msg.Type.String(),
		msg.Body,
		offerJSON,
		msg.Read,
		msg.CreatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to append negotiation message",
			zap.String("negotiation_id", msg.NegotiationID), zap.Error(err))
		return fmt.Errorf("failed to append message: %w", err)
	}
	return nil
}

// ListMessages retrieves a negotiation's messages oldest first
func (r *NegotiationRepository) ListMessages(ctx context.Context, negotiationID string) ([]*entity.NegotiationMessage, error) {
	query := "SELECT " + messageColumns + ` FROM negotiation_messages
		WHERE negotiation_id = ? ORDER BY created_at ASC, rowid ASC`

	rows, err := r.db.GetExecutor(ctx).QueryContext(ctx, query, negotiationID)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	defer rows.Close()

	var messages []*entity.NegotiationMessage
	for rows.Next() {
		msg, err := scanMessage(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		messages = append(messages, msg)
	}
	return messages, rows.Err()
}

// LastMessage retrieves the most recent message, or nil when the log is empty
func (r *NegotiationRepository) LastMessage(ctx context.Context, negotiationID string) (*entity.NegotiationMessage, error) {
	query := "SELECT " + messageColumns + ` FROM negotiation_messages
		WHERE negotiation_id = ? ORDER BY created_at DESC, rowid DESC LIMIT 1`

	msg, err := scanMessage(r.db.GetExecutor(ctx).QueryRowContext(ctx, query, negotiationID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get last message: %w", err)
	}
	return msg, nil
}

// MarkRead flags a message as read
func (r *NegotiationRepository) MarkRead(ctx context.Context, messageID string) error {
	result, err := r.db.GetExecutor(ctx).ExecContext(ctx,
		"UPDATE negotiation_messages SET read = 1 WHERE id = ?", messageID)
	if err != nil {
		return fmt.Errorf("failed to mark message read: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check affected rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: message %s", workflow.ErrNotFound, messageID)
	}
	return nil
}

// ListExpired returns open or countered negotiations whose expiry has passed
func (r *NegotiationRepository) ListExpired(ctx context.Context, now time.Time) ([]*entity.Negotiation, error) {
	query := "SELECT " + negotiationColumns + ` FROM negotiations
		WHERE status IN (?, ?) AND expires_at IS NOT NULL AND expires_at <= ?
		ORDER BY expires_at ASC`

	rows, err := r.db.GetExecutor(ctx).QueryContext(ctx, query,
		workflow.NegotiationOpen.String(), workflow.NegotiationCountered.String(), now)
	if err != nil {
		return nil, fmt.Errorf("failed to list expired negotiations: %w", err)
	}
	defer rows.Close()

	var negotiations []*entity.Negotiation
	for rows.Next() {
		n, err := scanNegotiation(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan negotiation: %w", err)
		}
		negotiations = append(negotiations, n)
	}
	return negotiations, rows.Err()
}

func scanNegotiation(row rowScanner) (*entity.Negotiation, error) {
	var n entity.Negotiation
	var status string
	var bidID sql.NullString
	var expiresAt sql.NullTime
	err := row.Scan(
		&n.ID,
		&n.RfqID,
		&bidID,
		&n.BuyerCompanyID,
		&n.SupplierCompanyID,
		&n.InitiatedBy,
		&n.Currency,
		&status,
		&n.Version,
		&expiresAt,
		&n.CreatedAt,
		&n.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	n.Status = workflow.State(status)
	n.BidID = bidID.String
	if expiresAt.Valid {
		t := expiresAt.Time
		n.ExpiresAt = &t
	}
	return &n, nil
}

func scanMessage(row rowScanner) (*entity.NegotiationMessage, error) {
	var msg entity.NegotiationMessage
	var msgType string
	var offerJSON sql.NullString
	err := row.Scan(
		&msg.ID,
		&msg.NegotiationID,
		&msg.SenderID,
		&msg.SenderCompanyID,
		&msgType,
		&msg.Body,
		&offerJSON,
		&msg.Read,
		&msg.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	msg.Type = entity.MessageType(msgType)
	if offerJSON.Valid && offerJSON.String != "" {
		var offer entity.Offer
		if err := json.Unmarshal([]byte(offerJSON.String), &offer); err != nil {
			return nil, fmt.Errorf("failed to unmarshal offer: %w", err)
		}
		msg.Offer = &offer
	}
	return &msg, nil
}

// Verify interface compliance
var _ port.NegotiationRepository = (*NegotiationRepository)(nil)
