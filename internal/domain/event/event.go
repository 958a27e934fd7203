package event

import (
	"time"

	"github.com/google/uuid"

	"github.com/garyjia/rfq-procurement/internal/domain/workflow"
)

// Event is the side-effect descriptor a transition emits. Recipients are
// company IDs that should be notified; delivery itself happens outside the
// workflow core.
type Event struct {
	ID         string                 `json:"id"`
	Type       Type                   `json:"type"`
	EntityType workflow.EntityType    `json:"entity_type"`
	EntityID   string                 `json:"entity_id"`
	Recipients []string               `json:"recipients"`
	Payload    map[string]interface{} `json:"payload,omitempty"`
	Timestamp  time.Time              `json:"timestamp"`
}

// New creates a domain event with a generated ID and current timestamp
func New(eventType Type, entityType workflow.EntityType, entityID string, recipients []string, payload map[string]interface{}) *Event {
	return &Event{
		ID:         uuid.NewString(),
		Type:       eventType,
		EntityType: entityType,
		EntityID:   entityID,
		Recipients: recipients,
		Payload:    payload,
		Timestamp:  time.Now().UTC(),
	}
}

// WithPayload returns a copy of the event with one payload entry added
func (e *Event) WithPayload(key string, value interface{}) *Event {
	payload := make(map[string]interface{}, len(e.Payload)+1)
	for k, v := range e.Payload {
		payload[k] = v
	}
	payload[key] = value

	clone := *e
	clone.Payload = payload
	return &clone
}

// PayloadString retrieves a string value from the payload
func (e *Event) PayloadString(key string) string {
	if v, ok := e.Payload[key].(string); ok {
		return v
	}
	return ""
}

// ForTransition maps an entity type and its new state to the event type
// announcing that transition, or "" when no event is defined for the pair.
func ForTransition(entityType workflow.EntityType, to workflow.State) Type {
	switch entityType {
	case workflow.EntityRfq:
		switch to {
		case workflow.RfqBiddingOpen:
			return TypeRfqPublished
		case workflow.RfqBiddingClosed:
			return TypeRfqBiddingClosed
		case workflow.RfqAwarded:
			return TypeRfqAwarded
		case workflow.RfqCancelled:
			return TypeRfqCancelled
		}
	case workflow.EntityBid:
		switch to {
		case workflow.BidSubmitted:
			return TypeBidSubmitted
		case workflow.BidUnderReview:
			return TypeBidUnderReview
		case workflow.BidAwarded:
			return TypeBidAwarded
		case workflow.BidRejected:
			return TypeBidRejected
		}
	case workflow.EntityNegotiation:
		switch to {
		case workflow.NegotiationCountered:
			return TypeNegotiationCountered
		case workflow.NegotiationAccepted:
			return TypeNegotiationAccepted
		case workflow.NegotiationRejected:
			return TypeNegotiationRejected
		case workflow.NegotiationExpired:
			return TypeNegotiationExpired
		}
	case workflow.EntityPurchaseOrder:
		switch to {
		case workflow.OrderSentToSupplier:
			return TypeOrderSent
		case workflow.OrderInProgress:
			return TypeOrderStarted
		case workflow.OrderDelivered:
			return TypeOrderDelivered
		case workflow.OrderConfirmed:
			return TypeOrderConfirmed
		}
	case workflow.EntitySupplierInvitation:
		switch to {
		case workflow.InvitationAccepted:
			return TypeInvitationAccepted
		case workflow.InvitationExpired:
			return TypeInvitationExpired
		}
	}
	return ""
}
