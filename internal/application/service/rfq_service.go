package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/garyjia/rfq-procurement/internal/application/dispatcher"
	"github.com/garyjia/rfq-procurement/internal/application/port"
	appwf "github.com/garyjia/rfq-procurement/internal/application/workflow"
	"github.com/garyjia/rfq-procurement/internal/domain/entity"
	"github.com/garyjia/rfq-procurement/internal/domain/event"
	"github.com/garyjia/rfq-procurement/internal/domain/workflow"
	"github.com/garyjia/rfq-procurement/pkg/utils"
)

// CreateRfqInput collects what a buyer provides when drafting an RFQ
type CreateRfqInput struct {
	Title       string
	Description string
	Currency    string
	BudgetMin   decimal.Decimal
	BudgetMax   decimal.Decimal
	BidDeadline time.Time
}

// RfqItemInput is one requested line of an RFQ
type RfqItemInput struct {
	Description string
	Quantity    int
	Unit        string
	TargetPrice decimal.Decimal
}

// CreateBidInput collects what a supplier provides when drafting a bid
type CreateBidInput struct {
	RfqID       string
	TotalAmount decimal.Decimal
	Currency    string
	Notes       string
}

// RfqService drives the RFQ and bid lifecycles: drafting, publication,
// bid collection, award and supplier invitations. All status changes go
// through the workflow engine.
type RfqService interface {
	CreateRfq(ctx context.Context, actor workflow.Actor, input CreateRfqInput) (*entity.Rfq, error)
	GetRfq(ctx context.Context, id string) (*entity.Rfq, error)
	AddItem(ctx context.Context, rfqID string, actor workflow.Actor, input RfqItemInput) (*entity.RfqItem, error)
	Publish(ctx context.Context, rfqID string, actor workflow.Actor) (*entity.Rfq, error)
	CloseBidding(ctx context.Context, rfqID string, actor workflow.Actor, reason string) (*entity.Rfq, error)
	Cancel(ctx context.Context, rfqID string, actor workflow.Actor, reason string) (*entity.Rfq, error)

	CreateBid(ctx context.Context, actor workflow.Actor, input CreateBidInput) (*entity.Bid, error)
	SubmitBid(ctx context.Context, bidID string, actor workflow.Actor) (*entity.Bid, error)
	ReviewBid(ctx context.Context, bidID string, actor workflow.Actor) (*entity.Bid, error)
	RejectBid(ctx context.Context, bidID string, actor workflow.Actor, reason string) (*entity.Bid, error)
	AwardBid(ctx context.Context, bidID string, actor workflow.Actor) (*entity.PurchaseOrder, error)
	ListBids(ctx context.Context, rfqID string) ([]*entity.Bid, error)

	InviteSupplier(ctx context.Context, rfqID string, actor workflow.Actor, supplierCompanyID string, validFor time.Duration) (*entity.SupplierInvitation, error)
	AcceptInvitation(ctx context.Context, token string, actor workflow.Actor) (*entity.SupplierInvitation, error)
}

type rfqServiceImpl struct {
	rfqRepo        port.RfqRepository
	bidRepo        port.BidRepository
	orderRepo      port.PurchaseOrderRepository
	invitationRepo port.InvitationRepository
	engine         appwf.Engine
	txManager      port.TransactionManager
	dispatcher     dispatcher.Dispatcher
	logger         *zap.Logger
}

// NewRfqService creates a new RfqService
func NewRfqService(
	rfqRepo port.RfqRepository,
	bidRepo port.BidRepository,
	orderRepo port.PurchaseOrderRepository,
	invitationRepo port.InvitationRepository,
	engine appwf.Engine,
	txManager port.TransactionManager,
	d dispatcher.Dispatcher,
	logger *zap.Logger,
) RfqService {
	return &rfqServiceImpl{
		rfqRepo:        rfqRepo,
		bidRepo:        bidRepo,
		orderRepo:      orderRepo,
		invitationRepo: invitationRepo,
		engine:         engine,
		txManager:      txManager,
		dispatcher:     d,
		logger:         logger,
	}
}

// CreateRfq drafts a new RFQ for the buyer's company
func (s *rfqServiceImpl) CreateRfq(ctx context.Context, actor workflow.Actor, input CreateRfqInput) (*entity.Rfq, error) {
	if actor.Role != workflow.RoleBuyer && !actor.IsAdmin() {
		return nil, fmt.Errorf("%w: only buyers create rfqs", workflow.ErrUnauthorized)
	}
	if input.Title == "" {
		return nil, fmt.Errorf("rfq title is required")
	}
	currency := strings.ToUpper(input.Currency)
	if err := utils.ValidateCurrencyCode(currency); err != nil {
		return nil, err
	}
	if input.BudgetMax.IsPositive() && input.BudgetMin.GreaterThan(input.BudgetMax) {
		return nil, fmt.Errorf("budget_min exceeds budget_max")
	}

	now := time.Now().UTC()
	rfq := &entity.Rfq{
		ID:             uuid.NewString(),
		Title:          input.Title,
		Description:    input.Description,
		BuyerCompanyID: actor.CompanyID,
		CreatedBy:      actor.ID,
		Currency:       currency,
		BudgetMin:      input.BudgetMin,
		BudgetMax:      input.BudgetMax,
		BidDeadline:    input.BidDeadline,
		Status:         workflow.RfqDraft,
		Version:        1,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.rfqRepo.Create(ctx, rfq); err != nil {
		return nil, fmt.Errorf("creating rfq: %w", err)
	}

	s.logger.Info("RFQ drafted", zap.String("rfq_id", rfq.ID), zap.String("buyer_company", actor.CompanyID))
	return rfq, nil
}

// GetRfq retrieves an RFQ with its items
func (s *rfqServiceImpl) GetRfq(ctx context.Context, id string) (*entity.Rfq, error) {
	rfq, err := s.rfqRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	items, err := s.rfqRepo.ListItems(ctx, id)
	if err != nil {
		return nil, err
	}
	rfq.Items = items
	return rfq, nil
}

// AddItem adds a requested line to a draft RFQ
func (s *rfqServiceImpl) AddItem(ctx context.Context, rfqID string, actor workflow.Actor, input RfqItemInput) (*entity.RfqItem, error) {
	rfq, err := s.rfqRepo.GetByID(ctx, rfqID)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() && !workflow.BuyerOnly(actor, rfq) {
		return nil, fmt.Errorf("%w: only the rfq's buyer may add items", workflow.ErrUnauthorized)
	}
	if rfq.Status != workflow.RfqDraft {
		return nil, fmt.Errorf("%w: items can only be added while the rfq is draft", workflow.ErrGuardFailed)
	}
	if input.Quantity <= 0 {
		return nil, fmt.Errorf("item quantity must be positive")
	}

	item := &entity.RfqItem{
		ID:          uuid.NewString(),
		RfqID:       rfqID,
		Description: input.Description,
		Quantity:    input.Quantity,
		Unit:        input.Unit,
		TargetPrice: input.TargetPrice,
	}
	if err := s.rfqRepo.AddItem(ctx, item); err != nil {
		return nil, fmt.Errorf("adding rfq item: %w", err)
	}
	return item, nil
}

// Publish opens the RFQ for bidding
func (s *rfqServiceImpl) Publish(ctx context.Context, rfqID string, actor workflow.Actor) (*entity.Rfq, error) {
	result, err := s.engine.Transition(ctx, workflow.EntityRfq, rfqID, workflow.RfqBiddingOpen, actor, "published for bidding")
	if err != nil {
		return nil, err
	}
	return result.Entity.(*entity.Rfq), nil
}

// CloseBidding closes the RFQ's bidding window
func (s *rfqServiceImpl) CloseBidding(ctx context.Context, rfqID string, actor workflow.Actor, reason string) (*entity.Rfq, error) {
	result, err := s.engine.Transition(ctx, workflow.EntityRfq, rfqID, workflow.RfqBiddingClosed, actor, reason)
	if err != nil {
		return nil, err
	}
	return result.Entity.(*entity.Rfq), nil
}

// Cancel cancels a non-terminal RFQ
func (s *rfqServiceImpl) Cancel(ctx context.Context, rfqID string, actor workflow.Actor, reason string) (*entity.Rfq, error) {
	result, err := s.engine.Transition(ctx, workflow.EntityRfq, rfqID, workflow.RfqCancelled, actor, reason)
	if err != nil {
		return nil, err
	}
	return result.Entity.(*entity.Rfq), nil
}

// CreateBid drafts a bid for the supplier's company against an RFQ
func (s *rfqServiceImpl) CreateBid(ctx context.Context, actor workflow.Actor, input CreateBidInput) (*entity.Bid, error) {
	if actor.Role != workflow.RoleSupplier && !actor.IsAdmin() {
		return nil, fmt.Errorf("%w: only suppliers create bids", workflow.ErrUnauthorized)
	}

	rfq, err := s.rfqRepo.GetByID(ctx, input.RfqID)
	if err != nil {
		return nil, err
	}
	currency := strings.ToUpper(input.Currency)
	if err := utils.ValidateCurrencyCode(currency); err != nil {
		return nil, err
	}
	if err := utils.ValidateAmount(input.TotalAmount); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	bid := &entity.Bid{
		ID:                uuid.NewString(),
		RfqID:             rfq.ID,
		BuyerCompanyID:    rfq.BuyerCompanyID,
		SupplierCompanyID: actor.CompanyID,
		SubmittedBy:       actor.ID,
		TotalAmount:       input.TotalAmount,
		Currency:          currency,
		Notes:             input.Notes,
		Status:            workflow.BidDraft,
		Version:           1,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	if err := s.bidRepo.Create(ctx, bid); err != nil {
		return nil, fmt.Errorf("creating bid: %w", err)
	}

	s.logger.Info("Bid drafted",
		zap.String("bid_id", bid.ID),
		zap.String("rfq_id", rfq.ID),
		zap.String("supplier_company", actor.CompanyID))
	return bid, nil
}

// SubmitBid submits a draft bid while the RFQ is open for bidding
func (s *rfqServiceImpl) SubmitBid(ctx context.Context, bidID string, actor workflow.Actor) (*entity.Bid, error) {
	result, err := s.engine.Transition(ctx, workflow.EntityBid, bidID, workflow.BidSubmitted, actor, "bid submitted")
	if err != nil {
		return nil, err
	}
	return result.Entity.(*entity.Bid), nil
}

// ReviewBid moves a submitted bid into evaluation
func (s *rfqServiceImpl) ReviewBid(ctx context.Context, bidID string, actor workflow.Actor) (*entity.Bid, error) {
	result, err := s.engine.Transition(ctx, workflow.EntityBid, bidID, workflow.BidUnderReview, actor, "bid under review")
	if err != nil {
		return nil, err
	}
	return result.Entity.(*entity.Bid), nil
}

// RejectBid rejects a bid under review
func (s *rfqServiceImpl) RejectBid(ctx context.Context, bidID string, actor workflow.Actor, reason string) (*entity.Bid, error) {
	result, err := s.engine.Transition(ctx, workflow.EntityBid, bidID, workflow.BidRejected, actor, reason)
	if err != nil {
		return nil, err
	}
	return result.Entity.(*entity.Bid), nil
}

// AwardBid awards the bid, closes the RFQ as awarded, rejects the remaining
// bids under review and generates a draft purchase order from the winning
// bid
func (s *rfqServiceImpl) AwardBid(ctx context.Context, bidID string, actor workflow.Actor) (*entity.PurchaseOrder, error) {
	bid, err := s.bidRepo.GetByID(ctx, bidID)
	if err != nil {
		return nil, err
	}

	var order *entity.PurchaseOrder
	err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if _, err := s.engine.Transition(txCtx, workflow.EntityBid, bidID, workflow.BidAwarded, actor, "bid awarded"); err != nil {
			return err
		}
		if _, err := s.engine.Transition(txCtx, workflow.EntityRfq, bid.RfqID, workflow.RfqAwarded, actor,
			fmt.Sprintf("awarded to bid %s", bidID)); err != nil {
			return err
		}

		losers, err := s.bidRepo.ListByRfq(txCtx, bid.RfqID)
		if err != nil {
			return fmt.Errorf("listing bids: %w", err)
		}
		for _, loser := range losers {
			if loser.ID == bidID || loser.Status != workflow.BidUnderReview {
				continue
			}
			if _, err := s.engine.Transition(txCtx, workflow.EntityBid, loser.ID, workflow.BidRejected, actor,
				"rfq awarded to another bid"); err != nil {
				return err
			}
		}

		now := time.Now().UTC()
		order = &entity.PurchaseOrder{
			ID:                uuid.NewString(),
			OrderNumber:       newOrderNumber(),
			RfqID:             bid.RfqID,
			BidID:             bid.ID,
			BuyerCompanyID:    bid.BuyerCompanyID,
			SupplierCompanyID: bid.SupplierCompanyID,
			TotalAmount:       bid.TotalAmount,
			Currency:          bid.Currency,
			Status:            workflow.OrderDraft,
			Version:           1,
			CreatedAt:         now,
			UpdatedAt:         now,
		}
		if err := s.orderRepo.Create(txCtx, order); err != nil {
			return fmt.Errorf("creating purchase order: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Bid awarded",
		zap.String("bid_id", bidID),
		zap.String("rfq_id", bid.RfqID),
		zap.String("order_id", order.ID))

	if s.dispatcher != nil {
		evt := event.New(event.TypeOrderCreated, workflow.EntityPurchaseOrder, order.ID,
			[]string{order.BuyerCompanyID, order.SupplierCompanyID}, map[string]interface{}{
				"order_number": order.OrderNumber,
				"rfq_id":       order.RfqID,
				"bid_id":       order.BidID,
			})
		s.dispatcher.DispatchAsync(context.WithoutCancel(ctx), evt)
	}

	return order, nil
}

// ListBids returns the bids placed against an RFQ
func (s *rfqServiceImpl) ListBids(ctx context.Context, rfqID string) ([]*entity.Bid, error) {
	return s.bidRepo.ListByRfq(ctx, rfqID)
}

// InviteSupplier creates a tokenized invitation for a supplier company to
// bid on the RFQ
func (s *rfqServiceImpl) InviteSupplier(ctx context.Context, rfqID string, actor workflow.Actor, supplierCompanyID string, validFor time.Duration) (*entity.SupplierInvitation, error) {
	rfq, err := s.rfqRepo.GetByID(ctx, rfqID)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() && !workflow.BuyerOnly(actor, rfq) {
		return nil, fmt.Errorf("%w: only the rfq's buyer may invite suppliers", workflow.ErrUnauthorized)
	}
	if supplierCompanyID == "" {
		return nil, fmt.Errorf("supplier company is required")
	}
	if validFor <= 0 {
		return nil, fmt.Errorf("invitation validity must be positive")
	}

	now := time.Now().UTC()
	invitation := &entity.SupplierInvitation{
		ID:                uuid.NewString(),
		RfqID:             rfqID,
		BuyerCompanyID:    rfq.BuyerCompanyID,
		SupplierCompanyID: supplierCompanyID,
		Token:             uuid.NewString(),
		ExpiresAt:         now.Add(validFor),
		Status:            workflow.InvitationPending,
		Version:           1,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err := s.invitationRepo.Create(ctx, invitation); err != nil {
		return nil, fmt.Errorf("creating invitation: %w", err)
	}

	if s.dispatcher != nil {
		evt := event.New(event.TypeInvitationCreated, workflow.EntitySupplierInvitation, invitation.ID,
			[]string{supplierCompanyID}, map[string]interface{}{
				"rfq_id":     rfqID,
				"expires_at": invitation.ExpiresAt.Format(time.RFC3339),
			})
		s.dispatcher.DispatchAsync(context.WithoutCancel(ctx), evt)
	}

	return invitation, nil
}

// AcceptInvitation accepts a pending invitation by token. Acceptance past
// the expiry deadline fails even if the sweep has not yet expired the row.
func (s *rfqServiceImpl) AcceptInvitation(ctx context.Context, token string, actor workflow.Actor) (*entity.SupplierInvitation, error) {
	invitation, err := s.invitationRepo.GetByToken(ctx, token)
	if err != nil {
		return nil, err
	}

	result, err := s.engine.Transition(ctx, workflow.EntitySupplierInvitation, invitation.ID,
		workflow.InvitationAccepted, actor, "invitation accepted")
	if err != nil {
		return nil, err
	}
	return result.Entity.(*entity.SupplierInvitation), nil
}

// newOrderNumber generates a human-referenceable order number
func newOrderNumber() string {
	return "PO-" + strings.ToUpper(uuid.NewString()[:8])
}
