package workflow

import (
	"context"
	"fmt"
	"time"

	"github.com/garyjia/rfq-procurement/internal/application/port"
	"github.com/garyjia/rfq-procurement/internal/domain/entity"
	domainwf "github.com/garyjia/rfq-procurement/internal/domain/workflow"
)

// Tables bundles the transition tables for every governed entity type
type Tables map[domainwf.EntityType]*domainwf.Table

// BuildTables assembles the declarative transition tables. Guards that span
// entities (bid counts, parent RFQ status) close over the repositories.
func BuildTables(rfqRepo port.RfqRepository, bidRepo port.BidRepository) Tables {
	return Tables{
		domainwf.EntityRfq:                buildRfqTable(rfqRepo, bidRepo),
		domainwf.EntityBid:                buildBidTable(rfqRepo, bidRepo),
		domainwf.EntityNegotiation:        buildNegotiationTable(),
		domainwf.EntityPurchaseOrder:      buildPurchaseOrderTable(),
		domainwf.EntitySupplierInvitation: buildInvitationTable(),
	}
}

func buildRfqTable(rfqRepo port.RfqRepository, bidRepo port.BidRepository) *domainwf.Table {
	hasItems := func(ctx context.Context, s domainwf.Subject) error {
		count, err := rfqRepo.CountItems(ctx, s.EntityID())
		if err != nil {
			return fmt.Errorf("counting rfq items: %w", err)
		}
		if count == 0 {
			return domainwf.Unmet("rfq has no items to bid on")
		}
		return nil
	}

	exactlyOneAwardedBid := func(ctx context.Context, s domainwf.Subject) error {
		count, err := bidRepo.CountByRfqAndStatus(ctx, s.EntityID(), domainwf.BidAwarded)
		if err != nil {
			return fmt.Errorf("counting awarded bids: %w", err)
		}
		if count != 1 {
			return domainwf.Unmet("rfq must have exactly one awarded bid, has %d", count)
		}
		return nil
	}

	b := domainwf.NewBuilder(domainwf.EntityRfq)

	b.Configure(domainwf.RfqDraft).
		Permit(domainwf.RfqBiddingOpen, domainwf.BuyerOnly, hasItems).
		Permit(domainwf.RfqCancelled, domainwf.BuyerOnly)

	b.Configure(domainwf.RfqBiddingOpen).
		Permit(domainwf.RfqBiddingClosed, domainwf.BuyerOnly).
		Permit(domainwf.RfqCancelled, domainwf.BuyerOnly)

	b.Configure(domainwf.RfqBiddingClosed).
		Permit(domainwf.RfqAwarded, domainwf.BuyerOnly, exactlyOneAwardedBid).
		Permit(domainwf.RfqCancelled, domainwf.BuyerOnly)

	return b.Build()
}

func buildBidTable(rfqRepo port.RfqRepository, bidRepo port.BidRepository) *domainwf.Table {
	rfqInState := func(want domainwf.State) domainwf.GuardFunc {
		return func(ctx context.Context, s domainwf.Subject) error {
			bid, ok := s.(*entity.Bid)
			if !ok {
				return fmt.Errorf("subject is not a bid")
			}
			rfq, err := rfqRepo.GetByID(ctx, bid.RfqID)
			if err != nil {
				return fmt.Errorf("loading rfq %s: %w", bid.RfqID, err)
			}
			if rfq.Status != want {
				return domainwf.Unmet("rfq is %s, must be %s", rfq.Status, want)
			}
			return nil
		}
	}

	// At most one bid per RFQ may hold awarded; per-entity serialization in
	// the store makes this check race-safe.
	noOtherAwardedBid := func(ctx context.Context, s domainwf.Subject) error {
		bid, ok := s.(*entity.Bid)
		if !ok {
			return fmt.Errorf("subject is not a bid")
		}
		count, err := bidRepo.CountByRfqAndStatus(ctx, bid.RfqID, domainwf.BidAwarded)
		if err != nil {
			return fmt.Errorf("counting awarded bids: %w", err)
		}
		if count > 0 {
			return domainwf.Unmet("rfq %s already has an awarded bid", bid.RfqID)
		}
		return nil
	}

	b := domainwf.NewBuilder(domainwf.EntityBid)

	b.Configure(domainwf.BidDraft).
		Permit(domainwf.BidSubmitted, domainwf.SupplierOnly, rfqInState(domainwf.RfqBiddingOpen))

	b.Configure(domainwf.BidSubmitted).
		Permit(domainwf.BidUnderReview, domainwf.BuyerOnly)

	b.Configure(domainwf.BidUnderReview).
		Permit(domainwf.BidAwarded, domainwf.BuyerOnly, rfqInState(domainwf.RfqBiddingClosed), noOtherAwardedBid).
		Permit(domainwf.BidRejected, domainwf.BuyerOnly)

	return b.Build()
}

func buildNegotiationTable() *domainwf.Table {
	b := domainwf.NewBuilder(domainwf.EntityNegotiation)

	// Turn enforcement for counter-offers and acceptance lives in the
	// negotiation session, which knows the message log.
	b.Configure(domainwf.NegotiationOpen).
		Permit(domainwf.NegotiationCountered, domainwf.Participant).
		Permit(domainwf.NegotiationAccepted, domainwf.Participant).
		Permit(domainwf.NegotiationRejected, domainwf.Participant).
		Permit(domainwf.NegotiationExpired, domainwf.SystemOnly)

	b.Configure(domainwf.NegotiationCountered).
		Permit(domainwf.NegotiationAccepted, domainwf.Participant).
		Permit(domainwf.NegotiationRejected, domainwf.Participant).
		Permit(domainwf.NegotiationExpired, domainwf.SystemOnly)

	return b.Build()
}

func buildPurchaseOrderTable() *domainwf.Table {
	b := domainwf.NewBuilder(domainwf.EntityPurchaseOrder)

	// Strictly linear: buyer sends, supplier acknowledges and delivers,
	// buyer confirms receipt.
	b.Configure(domainwf.OrderDraft).
		Permit(domainwf.OrderSentToSupplier, domainwf.BuyerOnly)

	b.Configure(domainwf.OrderSentToSupplier).
		Permit(domainwf.OrderInProgress, domainwf.SupplierOnly)

	b.Configure(domainwf.OrderInProgress).
		Permit(domainwf.OrderDelivered, domainwf.SupplierOnly)

	b.Configure(domainwf.OrderDelivered).
		Permit(domainwf.OrderConfirmed, domainwf.BuyerOnly)

	return b.Build()
}

func buildInvitationTable() *domainwf.Table {
	notExpired := func(ctx context.Context, s domainwf.Subject) error {
		inv, ok := s.(*entity.SupplierInvitation)
		if !ok {
			return fmt.Errorf("subject is not an invitation")
		}
		if !time.Now().Before(inv.ExpiresAt) {
			return domainwf.Unmet("invitation expired at %s", inv.ExpiresAt.Format(time.RFC3339))
		}
		return nil
	}

	deadlinePassed := func(ctx context.Context, s domainwf.Subject) error {
		inv, ok := s.(*entity.SupplierInvitation)
		if !ok {
			return fmt.Errorf("subject is not an invitation")
		}
		if time.Now().Before(inv.ExpiresAt) {
			return domainwf.Unmet("invitation does not expire until %s", inv.ExpiresAt.Format(time.RFC3339))
		}
		return nil
	}

	b := domainwf.NewBuilder(domainwf.EntitySupplierInvitation)

	b.Configure(domainwf.InvitationPending).
		Permit(domainwf.InvitationAccepted, domainwf.SupplierOnly, notExpired).
		Permit(domainwf.InvitationExpired, domainwf.SystemOnly, deadlinePassed)

	return b.Build()
}
