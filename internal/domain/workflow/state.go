package workflow

// EntityType identifies which transition table governs an entity
type EntityType string

const (
	EntityRfq                EntityType = "rfq"
	EntityBid                EntityType = "bid"
	EntityNegotiation        EntityType = "negotiation"
	EntityPurchaseOrder      EntityType = "purchase_order"
	EntitySupplierInvitation EntityType = "supplier_invitation"
)

// State represents a lifecycle status of a workflow entity
type State string

// Rfq states
const (
	RfqDraft         State = "draft"
	RfqBiddingOpen   State = "bidding_open"
	RfqBiddingClosed State = "bidding_closed"
	RfqAwarded       State = "awarded"
	RfqCancelled     State = "cancelled"
)

// Bid states
const (
	BidDraft       State = "draft"
	BidSubmitted   State = "submitted"
	BidUnderReview State = "under_review"
	BidAwarded     State = "awarded"
	BidRejected    State = "rejected"
)

// Negotiation states
const (
	NegotiationOpen      State = "open"
	NegotiationCountered State = "countered"
	NegotiationAccepted  State = "accepted"
	NegotiationRejected  State = "rejected"
	NegotiationExpired   State = "expired"
)

// PurchaseOrder states
const (
	OrderDraft          State = "draft"
	OrderSentToSupplier State = "sent_to_supplier"
	OrderInProgress     State = "in_progress"
	OrderDelivered      State = "delivered"
	OrderConfirmed      State = "confirmed"
)

// SupplierInvitation states
const (
	InvitationPending  State = "pending"
	InvitationAccepted State = "accepted"
	InvitationExpired  State = "expired"
)

var validStates = map[EntityType]map[State]bool{
	EntityRfq: {
		RfqDraft:         true,
		RfqBiddingOpen:   true,
		RfqBiddingClosed: true,
		RfqAwarded:       true,
		RfqCancelled:     true,
	},
	EntityBid: {
		BidDraft:       true,
		BidSubmitted:   true,
		BidUnderReview: true,
		BidAwarded:     true,
		BidRejected:    true,
	},
	EntityNegotiation: {
		NegotiationOpen:      true,
		NegotiationCountered: true,
		NegotiationAccepted:  true,
		NegotiationRejected:  true,
		NegotiationExpired:   true,
	},
	EntityPurchaseOrder: {
		OrderDraft:          true,
		OrderSentToSupplier: true,
		OrderInProgress:     true,
		OrderDelivered:      true,
		OrderConfirmed:      true,
	},
	EntitySupplierInvitation: {
		InvitationPending:  true,
		InvitationAccepted: true,
		InvitationExpired:  true,
	},
}

var terminalStates = map[EntityType]map[State]bool{
	EntityRfq: {
		RfqAwarded:   true,
		RfqCancelled: true,
	},
	EntityBid: {
		BidAwarded:  true,
		BidRejected: true,
	},
	EntityNegotiation: {
		NegotiationAccepted: true,
		NegotiationRejected: true,
		NegotiationExpired:  true,
	},
	EntityPurchaseOrder: {
		OrderConfirmed: true,
	},
	EntitySupplierInvitation: {
		InvitationAccepted: true,
		InvitationExpired:  true,
	},
}

// String returns the string representation of the state
func (s State) String() string {
	return string(s)
}

// ValidFor returns true if the state belongs to the entity type's state set
func (s State) ValidFor(et EntityType) bool {
	return validStates[et][s]
}

// TerminalFor returns true if the state is terminal for the entity type
// (no further transitions allowed)
func (s State) TerminalFor(et EntityType) bool {
	return terminalStates[et][s]
}

// String returns the string representation of the entity type
func (et EntityType) String() string {
	return string(et)
}

// IsValid returns true if the entity type has a defined state set
func (et EntityType) IsValid() bool {
	_, ok := validStates[et]
	return ok
}
