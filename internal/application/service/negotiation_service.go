package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/garyjia/rfq-procurement/internal/application/dispatcher"
	"github.com/garyjia/rfq-procurement/internal/application/port"
	appwf "github.com/garyjia/rfq-procurement/internal/application/workflow"
	"github.com/garyjia/rfq-procurement/internal/currency"
	"github.com/garyjia/rfq-procurement/internal/domain/entity"
	"github.com/garyjia/rfq-procurement/internal/domain/event"
	"github.com/garyjia/rfq-procurement/internal/domain/workflow"
)

// OfferInput is an offer amount as the sender states it
type OfferInput struct {
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency"`
}

// OpenNegotiationInput collects what is needed to open a negotiation
type OpenNegotiationInput struct {
	RfqID             string
	BidID             string
	SupplierCompanyID string
	ExpiresAt         *time.Time
}

// NegotiationSession manages the offer/counter-offer exchange within a
// negotiation: turn enforcement, currency normalization and the append-only
// message log. Current terms are always derived from the latest
// offer-bearing message, never from a separately mutated field.
type NegotiationSession interface {
	Open(ctx context.Context, actor workflow.Actor, input OpenNegotiationInput) (*entity.Negotiation, error)
	Get(ctx context.Context, negotiationID string) (*entity.Negotiation, error)
	PostMessage(ctx context.Context, negotiationID string, sender workflow.Actor, msgType entity.MessageType, body string, offer *OfferInput) (*entity.NegotiationMessage, error)
	Accept(ctx context.Context, negotiationID string, actor workflow.Actor) (*entity.Negotiation, error)
	Reject(ctx context.Context, negotiationID string, actor workflow.Actor, reason string) (*entity.Negotiation, error)
	Messages(ctx context.Context, negotiationID string) ([]*entity.NegotiationMessage, error)
	CurrentTerms(ctx context.Context, negotiationID string) (*entity.Offer, error)
}

type negotiationSessionImpl struct {
	negotiationRepo port.NegotiationRepository
	rfqRepo         port.RfqRepository
	converter       *currency.Converter
	engine          appwf.Engine
	txManager       port.TransactionManager
	dispatcher      dispatcher.Dispatcher
	logger          *zap.Logger
}

// NewNegotiationSession creates a new NegotiationSession
func NewNegotiationSession(
	negotiationRepo port.NegotiationRepository,
	rfqRepo port.RfqRepository,
	converter *currency.Converter,
	engine appwf.Engine,
	txManager port.TransactionManager,
	d dispatcher.Dispatcher,
	logger *zap.Logger,
) NegotiationSession {
	return &negotiationSessionImpl{
		negotiationRepo: negotiationRepo,
		rfqRepo:         rfqRepo,
		converter:       converter,
		engine:          engine,
		txManager:       txManager,
		dispatcher:      d,
		logger:          logger,
	}
}

// Open creates a negotiation between the RFQ's buyer and a supplier. The
// reference currency is fixed to the RFQ currency.
func (s *negotiationSessionImpl) Open(ctx context.Context, actor workflow.Actor, input OpenNegotiationInput) (*entity.Negotiation, error) {
	rfq, err := s.rfqRepo.GetByID(ctx, input.RfqID)
	if err != nil {
		return nil, err
	}

	if !actor.IsAdmin() && !(actor.Role == workflow.RoleBuyer && actor.CompanyID == rfq.BuyerCompanyID) {
		return nil, fmt.Errorf("%w: only the rfq's buyer may open a negotiation", workflow.ErrUnauthorized)
	}
	if input.SupplierCompanyID == "" {
		return nil, fmt.Errorf("supplier company is required")
	}

	now := time.Now().UTC()
	negotiation := &entity.Negotiation{
		ID:                uuid.NewString(),
		RfqID:             rfq.ID,
		BidID:             input.BidID,
		BuyerCompanyID:    rfq.BuyerCompanyID,
		SupplierCompanyID: input.SupplierCompanyID,
		InitiatedBy:       actor.ID,
		Currency:          rfq.Currency,
		Status:            workflow.NegotiationOpen,
		Version:           1,
		ExpiresAt:         input.ExpiresAt,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	if err := s.negotiationRepo.Create(ctx, negotiation); err != nil {
		return nil, fmt.Errorf("creating negotiation: %w", err)
	}

	s.logger.Info("Negotiation opened",
		zap.String("negotiation_id", negotiation.ID),
		zap.String("rfq_id", rfq.ID),
		zap.String("supplier_company", input.SupplierCompanyID))

	return negotiation, nil
}

// Get retrieves a negotiation by ID
func (s *negotiationSessionImpl) Get(ctx context.Context, negotiationID string) (*entity.Negotiation, error) {
	return s.negotiationRepo.GetByID(ctx, negotiationID)
}

// PostMessage appends a message to the negotiation. Counter-offers flip the
// turn: the party that sent the latest message may not counter again until
// the other side has responded. Offer amounts in a currency other than the
// negotiation's reference currency are normalized before persisting; the
// original amount and currency are kept alongside.
func (s *negotiationSessionImpl) PostMessage(
	ctx context.Context,
	negotiationID string,
	sender workflow.Actor,
	msgType entity.MessageType,
	body string,
	offer *OfferInput,
) (*entity.NegotiationMessage, error) {
	negotiation, err := s.negotiationRepo.GetByID(ctx, negotiationID)
	if err != nil {
		return nil, err
	}

	if negotiation.Closed() {
		return nil, fmt.Errorf("%w: negotiation %s is %s", ErrNegotiationClosed, negotiationID, negotiation.Status)
	}

	if msgType != entity.MessageSystem && !sender.IsSystem() {
		if !workflow.Participant(sender, negotiation) && !sender.IsAdmin() {
			return nil, fmt.Errorf("%w: %s is not a participant of negotiation %s",
				workflow.ErrUnauthorized, sender.ID, negotiationID)
		}
	}

	if msgType.IsOffer() && offer == nil {
		return nil, fmt.Errorf("message type %s requires an offer", msgType)
	}

	last, err := s.negotiationRepo.LastMessage(ctx, negotiationID)
	if err != nil {
		return nil, err
	}
	if msgType == entity.MessageCounterOffer && !sender.IsSystem() &&
		last != nil && last.SenderCompanyID == sender.CompanyID {
		return nil, fmt.Errorf("%w: %s sent the latest message and may not counter it",
			ErrOutOfTurn, sender.CompanyID)
	}

	msg := &entity.NegotiationMessage{
		ID:              uuid.NewString(),
		NegotiationID:   negotiationID,
		SenderID:        sender.ID,
		SenderCompanyID: sender.CompanyID,
		Type:            msgType,
		Body:            body,
		CreatedAt:       time.Now().UTC(),
	}

	if msgType.IsOffer() {
		normalized, err := s.converter.Convert(ctx, offer.Amount, offer.Currency, negotiation.Currency, time.Now().UTC())
		if err != nil {
			return nil, fmt.Errorf("normalizing offer amount: %w", err)
		}
		msg.Offer = &entity.Offer{
			Amount:             offer.Amount,
			Currency:           offer.Currency,
			NormalizedAmount:   normalized,
			NormalizedCurrency: negotiation.Currency,
		}
	}

	err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := s.negotiationRepo.AppendMessage(txCtx, msg); err != nil {
			return fmt.Errorf("appending message: %w", err)
		}

		// The first counter-offer moves the negotiation to countered; later
		// ones keep it there.
		if msgType == entity.MessageCounterOffer && negotiation.Status == workflow.NegotiationOpen {
			if _, err := s.engine.Transition(txCtx, workflow.EntityNegotiation, negotiationID,
				workflow.NegotiationCountered, sender, "counter-offer received"); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.dispatcher != nil && msgType != entity.MessageSystem {
		recipient := negotiation.SupplierCompanyID
		if sender.CompanyID == negotiation.SupplierCompanyID {
			recipient = negotiation.BuyerCompanyID
		}
		evt := event.New(event.TypeNegotiationMessage, workflow.EntityNegotiation, negotiationID,
			[]string{recipient}, map[string]interface{}{
				"message_id":   msg.ID,
				"message_type": msgType.String(),
				"sender_id":    sender.ID,
			})
		s.dispatcher.DispatchAsync(context.WithoutCancel(ctx), evt)
	}

	return msg, nil
}

// Accept closes the negotiation as accepted. Only the counterparty of the
// latest message's sender may accept, and only while an offer is pending.
func (s *negotiationSessionImpl) Accept(ctx context.Context, negotiationID string, actor workflow.Actor) (*entity.Negotiation, error) {
	negotiation, err := s.negotiationRepo.GetByID(ctx, negotiationID)
	if err != nil {
		return nil, err
	}
	if negotiation.Closed() {
		return nil, fmt.Errorf("%w: negotiation %s is %s", ErrNegotiationClosed, negotiationID, negotiation.Status)
	}

	last, err := s.negotiationRepo.LastMessage(ctx, negotiationID)
	if err != nil {
		return nil, err
	}
	if last == nil {
		return nil, fmt.Errorf("%w: no offer to accept", workflow.ErrGuardFailed)
	}
	if last.SenderCompanyID == actor.CompanyID && !actor.IsAdmin() {
		return nil, fmt.Errorf("%w: %s may not accept its own pending offer", ErrOutOfTurn, actor.CompanyID)
	}

	result, err := s.engine.Transition(ctx, workflow.EntityNegotiation, negotiationID,
		workflow.NegotiationAccepted, actor, "offer accepted")
	if err != nil {
		return nil, err
	}
	return result.Entity.(*entity.Negotiation), nil
}

// Reject closes the negotiation as rejected. Either party may reject at any
// time while the negotiation is open or countered.
func (s *negotiationSessionImpl) Reject(ctx context.Context, negotiationID string, actor workflow.Actor, reason string) (*entity.Negotiation, error) {
	negotiation, err := s.negotiationRepo.GetByID(ctx, negotiationID)
	if err != nil {
		return nil, err
	}
	if negotiation.Closed() {
		return nil, fmt.Errorf("%w: negotiation %s is %s", ErrNegotiationClosed, negotiationID, negotiation.Status)
	}

	result, err := s.engine.Transition(ctx, workflow.EntityNegotiation, negotiationID,
		workflow.NegotiationRejected, actor, reason)
	if err != nil {
		return nil, err
	}
	return result.Entity.(*entity.Negotiation), nil
}

// Messages returns the negotiation's message log, oldest first
func (s *negotiationSessionImpl) Messages(ctx context.Context, negotiationID string) ([]*entity.NegotiationMessage, error) {
	return s.negotiationRepo.ListMessages(ctx, negotiationID)
}

// CurrentTerms derives the negotiation's current terms from the latest
// offer-bearing message
func (s *negotiationSessionImpl) CurrentTerms(ctx context.Context, negotiationID string) (*entity.Offer, error) {
	messages, err := s.negotiationRepo.ListMessages(ctx, negotiationID)
	if err != nil {
		return nil, err
	}
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Type.IsOffer() && messages[i].Offer != nil {
			return messages[i].Offer, nil
		}
	}
	return nil, fmt.Errorf("%w: negotiation %s has no offers", workflow.ErrNotFound, negotiationID)
}
