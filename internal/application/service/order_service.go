package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/garyjia/rfq-procurement/internal/application/port"
	appwf "github.com/garyjia/rfq-procurement/internal/application/workflow"
	"github.com/garyjia/rfq-procurement/internal/domain/entity"
	"github.com/garyjia/rfq-procurement/internal/domain/workflow"
)

// OrderService drives purchase order fulfilment and the modification
// proposal flow between the two parties
type OrderService interface {
	Get(ctx context.Context, id string) (*entity.PurchaseOrder, error)
	Send(ctx context.Context, orderID string, actor workflow.Actor) (*entity.PurchaseOrder, error)
	Start(ctx context.Context, orderID string, actor workflow.Actor) (*entity.PurchaseOrder, error)
	MarkDelivered(ctx context.Context, orderID string, actor workflow.Actor) (*entity.PurchaseOrder, error)
	Confirm(ctx context.Context, orderID string, actor workflow.Actor) (*entity.PurchaseOrder, error)

	ProposeModification(ctx context.Context, orderID string, actor workflow.Actor, description string) (*entity.Modification, error)
	ApproveModification(ctx context.Context, modificationID string, actor workflow.Actor) (*entity.Modification, error)
	RejectModification(ctx context.Context, modificationID string, actor workflow.Actor) (*entity.Modification, error)
	ListModifications(ctx context.Context, orderID string) ([]*entity.Modification, error)
}

type orderServiceImpl struct {
	orderRepo port.PurchaseOrderRepository
	engine    appwf.Engine
	logger    *zap.Logger
}

// NewOrderService creates a new OrderService
func NewOrderService(orderRepo port.PurchaseOrderRepository, engine appwf.Engine, logger *zap.Logger) OrderService {
	return &orderServiceImpl{
		orderRepo: orderRepo,
		engine:    engine,
		logger:    logger,
	}
}

func (s *orderServiceImpl) Get(ctx context.Context, id string) (*entity.PurchaseOrder, error) {
	return s.orderRepo.GetByID(ctx, id)
}

// Send transmits the draft order to the supplier
func (s *orderServiceImpl) Send(ctx context.Context, orderID string, actor workflow.Actor) (*entity.PurchaseOrder, error) {
	return s.transition(ctx, orderID, workflow.OrderSentToSupplier, actor, "order sent to supplier")
}

// Start acknowledges the order on the supplier side
func (s *orderServiceImpl) Start(ctx context.Context, orderID string, actor workflow.Actor) (*entity.PurchaseOrder, error) {
	return s.transition(ctx, orderID, workflow.OrderInProgress, actor, "fulfilment started")
}

// MarkDelivered records delivery by the supplier
func (s *orderServiceImpl) MarkDelivered(ctx context.Context, orderID string, actor workflow.Actor) (*entity.PurchaseOrder, error) {
	return s.transition(ctx, orderID, workflow.OrderDelivered, actor, "goods delivered")
}

// Confirm records the buyer's acceptance of the delivery
func (s *orderServiceImpl) Confirm(ctx context.Context, orderID string, actor workflow.Actor) (*entity.PurchaseOrder, error) {
	return s.transition(ctx, orderID, workflow.OrderConfirmed, actor, "delivery confirmed")
}

func (s *orderServiceImpl) transition(ctx context.Context, orderID string, target workflow.State, actor workflow.Actor, reason string) (*entity.PurchaseOrder, error) {
	result, err := s.engine.Transition(ctx, workflow.EntityPurchaseOrder, orderID, target, actor, reason)
	if err != nil {
		return nil, err
	}
	return result.Entity.(*entity.PurchaseOrder), nil
}

// ProposeModification records a change request against an active order.
// Either party may propose; the counterparty decides.
func (s *orderServiceImpl) ProposeModification(ctx context.Context, orderID string, actor workflow.Actor, description string) (*entity.Modification, error) {
	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() && !workflow.Participant(actor, order) {
		return nil, fmt.Errorf("%w: only the order's parties may propose modifications", workflow.ErrUnauthorized)
	}
	if order.Status.TerminalFor(workflow.EntityPurchaseOrder) {
		return nil, fmt.Errorf("%w: order %s is %s", workflow.ErrGuardFailed, orderID, order.Status)
	}
	if description == "" {
		return nil, fmt.Errorf("modification description is required")
	}

	mod := &entity.Modification{
		ID:          uuid.NewString(),
		OrderID:     orderID,
		ProposedBy:  actor.ID,
		CompanyID:   actor.CompanyID,
		Description: description,
		Status:      entity.ModificationProposed,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.orderRepo.CreateModification(ctx, mod); err != nil {
		return nil, fmt.Errorf("creating modification: %w", err)
	}

	s.logger.Info("Order modification proposed",
		zap.String("order_id", orderID),
		zap.String("modification_id", mod.ID),
		zap.String("proposed_by", actor.ID))
	return mod, nil
}

// ApproveModification approves a proposed modification. Only the
// counterparty of the proposer (or an admin) may decide.
func (s *orderServiceImpl) ApproveModification(ctx context.Context, modificationID string, actor workflow.Actor) (*entity.Modification, error) {
	return s.decideModification(ctx, modificationID, actor, entity.ModificationApproved)
}

// RejectModification rejects a proposed modification
func (s *orderServiceImpl) RejectModification(ctx context.Context, modificationID string, actor workflow.Actor) (*entity.Modification, error) {
	return s.decideModification(ctx, modificationID, actor, entity.ModificationRejected)
}

func (s *orderServiceImpl) decideModification(ctx context.Context, modificationID string, actor workflow.Actor, decision entity.ModificationStatus) (*entity.Modification, error) {
	mod, err := s.orderRepo.GetModification(ctx, modificationID)
	if err != nil {
		return nil, err
	}
	if mod.Status != entity.ModificationProposed {
		return nil, fmt.Errorf("%w: modification %s is already %s", workflow.ErrGuardFailed, modificationID, mod.Status)
	}

	order, err := s.orderRepo.GetByID(ctx, mod.OrderID)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() {
		if !workflow.Participant(actor, order) {
			return nil, fmt.Errorf("%w: only the order's parties may decide modifications", workflow.ErrUnauthorized)
		}
		if actor.CompanyID == mod.CompanyID {
			return nil, fmt.Errorf("%w: the proposing party may not decide its own modification", workflow.ErrUnauthorized)
		}
	}

	if err := s.orderRepo.DecideModification(ctx, modificationID, decision, actor.ID, time.Now().UTC()); err != nil {
		return nil, fmt.Errorf("deciding modification: %w", err)
	}
	return s.orderRepo.GetModification(ctx, modificationID)
}

func (s *orderServiceImpl) ListModifications(ctx context.Context, orderID string) ([]*entity.Modification, error) {
	return s.orderRepo.ListModifications(ctx, orderID)
}
