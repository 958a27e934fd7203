package repository

import (
	"context"
	"fmt"

	"github.com/garyjia/rfq-procurement/internal/application/port"
	"github.com/garyjia/rfq-procurement/internal/domain/workflow"
)

// EntityStore implements port.EntityStore by dispatching to the per-entity
// repositories. It is the engine's single persistence facade, so transition
// handling stays generic over entity types.
type EntityStore struct {
	rfqs         port.RfqRepository
	bids         port.BidRepository
	negotiations port.NegotiationRepository
	orders       port.PurchaseOrderRepository
	invitations  port.InvitationRepository
}

// NewEntityStore creates the engine's persistence facade
func NewEntityStore(
	rfqs port.RfqRepository,
	bids port.BidRepository,
	negotiations port.NegotiationRepository,
	orders port.PurchaseOrderRepository,
	invitations port.InvitationRepository,
) *EntityStore {
	return &EntityStore{
		rfqs:         rfqs,
		bids:         bids,
		negotiations: negotiations,
		orders:       orders,
		invitations:  invitations,
	}
}

// Get loads a workflow snapshot by entity type and ID
func (s *EntityStore) Get(ctx context.Context, entityType workflow.EntityType, id string) (workflow.Subject, error) {
	switch entityType {
	case workflow.EntityRfq:
		return s.rfqs.GetByID(ctx, id)
	case workflow.EntityBid:
		return s.bids.GetByID(ctx, id)
	case workflow.EntityNegotiation:
		return s.negotiations.GetByID(ctx, id)
	case workflow.EntityPurchaseOrder:
		return s.orders.GetByID(ctx, id)
	case workflow.EntitySupplierInvitation:
		return s.invitations.GetByID(ctx, id)
	default:
		return nil, fmt.Errorf("unknown entity type: %s", entityType)
	}
}

// UpdateStatus writes a new status against an expected version
func (s *EntityStore) UpdateStatus(ctx context.Context, entityType workflow.EntityType, id string, status workflow.State, expectedVersion int) error {
	switch entityType {
	case workflow.EntityRfq:
		return s.rfqs.UpdateStatus(ctx, id, status, expectedVersion)
	case workflow.EntityBid:
		return s.bids.UpdateStatus(ctx, id, status, expectedVersion)
	case workflow.EntityNegotiation:
		return s.negotiations.UpdateStatus(ctx, id, status, expectedVersion)
	case workflow.EntityPurchaseOrder:
		return s.orders.UpdateStatus(ctx, id, status, expectedVersion)
	case workflow.EntitySupplierInvitation:
		return s.invitations.UpdateStatus(ctx, id, status, expectedVersion)
	default:
		return fmt.Errorf("unknown entity type: %s", entityType)
	}
}

// Verify interface compliance
var _ port.EntityStore = (*EntityStore)(nil)
