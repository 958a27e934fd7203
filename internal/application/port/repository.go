package port

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/garyjia/rfq-procurement/internal/domain/entity"
	"github.com/garyjia/rfq-procurement/internal/domain/workflow"
)

// TransactionManager executes a function within a database transaction.
// The transaction is carried through the context; nested calls reuse it.
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// EntityStore is the narrow persistence contract the workflow engine needs:
// load a snapshot and write a new status against an expected version.
// UpdateStatus fails with workflow.ErrConflict when the version no longer
// matches, and with workflow.ErrNotFound when the entity does not exist.
type EntityStore interface {
	Get(ctx context.Context, entityType workflow.EntityType, id string) (workflow.Subject, error)
	UpdateStatus(ctx context.Context, entityType workflow.EntityType, id string, status workflow.State, expectedVersion int) error
}

// HistoryRepository defines persistence operations for the status history log
type HistoryRepository interface {
	Append(ctx context.Context, entry *entity.StatusHistory) error
	ListByEntity(ctx context.Context, entityType workflow.EntityType, entityID string) ([]*entity.StatusHistory, error)
}

// RfqRepository defines persistence operations for Rfq
type RfqRepository interface {
	Create(ctx context.Context, rfq *entity.Rfq) error
	GetByID(ctx context.Context, id string) (*entity.Rfq, error)
	AddItem(ctx context.Context, item *entity.RfqItem) error
	CountItems(ctx context.Context, rfqID string) (int, error)
	ListItems(ctx context.Context, rfqID string) ([]entity.RfqItem, error)
	UpdateStatus(ctx context.Context, id string, status workflow.State, expectedVersion int) error
	ListDeadlinePassed(ctx context.Context, now time.Time) ([]*entity.Rfq, error)
}

// BidRepository defines persistence operations for Bid
type BidRepository interface {
	Create(ctx context.Context, bid *entity.Bid) error
	GetByID(ctx context.Context, id string) (*entity.Bid, error)
	ListByRfq(ctx context.Context, rfqID string) ([]*entity.Bid, error)
	CountByRfqAndStatus(ctx context.Context, rfqID string, status workflow.State) (int, error)
	UpdateStatus(ctx context.Context, id string, status workflow.State, expectedVersion int) error
}

// NegotiationRepository defines persistence operations for Negotiation and
// its append-only message log
type NegotiationRepository interface {
	Create(ctx context.Context, n *entity.Negotiation) error
	GetByID(ctx context.Context, id string) (*entity.Negotiation, error)
	UpdateStatus(ctx context.Context, id string, status workflow.State, expectedVersion int) error
	AppendMessage(ctx context.Context, msg *entity.NegotiationMessage) error
	ListMessages(ctx context.Context, negotiationID string) ([]*entity.NegotiationMessage, error)
	LastMessage(ctx context.Context, negotiationID string) (*entity.NegotiationMessage, error)
	MarkRead(ctx context.Context, messageID string) error
	ListExpired(ctx context.Context, now time.Time) ([]*entity.Negotiation, error)
}

// PurchaseOrderRepository defines persistence operations for PurchaseOrder
// and its modification log
type PurchaseOrderRepository interface {
	Create(ctx context.Context, order *entity.PurchaseOrder) error
	GetByID(ctx context.Context, id string) (*entity.PurchaseOrder, error)
	UpdateStatus(ctx context.Context, id string, status workflow.State, expectedVersion int) error
	CreateModification(ctx context.Context, mod *entity.Modification) error
	GetModification(ctx context.Context, id string) (*entity.Modification, error)
	ListModifications(ctx context.Context, orderID string) ([]*entity.Modification, error)
	DecideModification(ctx context.Context, id string, status entity.ModificationStatus, decidedBy string, decidedAt time.Time) error
}

// InvitationRepository defines persistence operations for SupplierInvitation
type InvitationRepository interface {
	Create(ctx context.Context, inv *entity.SupplierInvitation) error
	GetByID(ctx context.Context, id string) (*entity.SupplierInvitation, error)
	GetByToken(ctx context.Context, token string) (*entity.SupplierInvitation, error)
	UpdateStatus(ctx context.Context, id string, status workflow.State, expectedVersion int) error
	ListExpired(ctx context.Context, now time.Time) ([]*entity.SupplierInvitation, error)
}

// RateRepository looks up stored exchange rates keyed by currency pair and
// date. Lookups for an absent pair fail with workflow.ErrNotFound; inverse
// fallback is the converter's concern, not the repository's.
type RateRepository interface {
	Rate(ctx context.Context, from, to string, date time.Time) (decimal.Decimal, error)
	Store(ctx context.Context, from, to string, date time.Time, rate decimal.Decimal) error
}

// NotificationRepository defines persistence operations for recorded
// notifications
type NotificationRepository interface {
	Create(ctx context.Context, n *entity.Notification) error
	ListByRecipient(ctx context.Context, recipient string, limit int) ([]*entity.Notification, error)
}
