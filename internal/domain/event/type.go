package event

// Type identifies the type of domain event
type Type string

const (
	TypeRfqPublished     Type = "rfq.published"
	TypeRfqBiddingClosed Type = "rfq.bidding_closed"
	TypeRfqAwarded       Type = "rfq.awarded"
	TypeRfqCancelled     Type = "rfq.cancelled"

	TypeBidSubmitted   Type = "bid.submitted"
	TypeBidUnderReview Type = "bid.under_review"
	TypeBidAwarded     Type = "bid.awarded"
	TypeBidRejected    Type = "bid.rejected"

	TypeNegotiationCountered Type = "negotiation.countered"
	TypeNegotiationMessage   Type = "negotiation.message"
	TypeNegotiationAccepted  Type = "negotiation.accepted"
	TypeNegotiationRejected  Type = "negotiation.rejected"
	TypeNegotiationExpired   Type = "negotiation.expired"

	TypeOrderCreated   Type = "purchase_order.created"
	TypeOrderSent      Type = "purchase_order.sent_to_supplier"
	TypeOrderStarted   Type = "purchase_order.in_progress"
	TypeOrderDelivered Type = "purchase_order.delivered"
	TypeOrderConfirmed Type = "purchase_order.confirmed"

	TypeInvitationCreated  Type = "invitation.created"
	TypeInvitationAccepted Type = "invitation.accepted"
	TypeInvitationExpired  Type = "invitation.expired"
)

// String returns the string representation of the event type
func (t Type) String() string {
	return string(t)
}

// AllTypes lists every defined event type
func AllTypes() []Type {
	return []Type{
		TypeRfqPublished, TypeRfqBiddingClosed, TypeRfqAwarded, TypeRfqCancelled,
		TypeBidSubmitted, TypeBidUnderReview, TypeBidAwarded, TypeBidRejected,
		TypeNegotiationCountered, TypeNegotiationMessage, TypeNegotiationAccepted,
		TypeNegotiationRejected, TypeNegotiationExpired,
		TypeOrderCreated, TypeOrderSent, TypeOrderStarted, TypeOrderDelivered,
		TypeOrderConfirmed,
		TypeInvitationCreated, TypeInvitationAccepted, TypeInvitationExpired,
	}
}
