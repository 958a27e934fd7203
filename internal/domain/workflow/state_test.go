package workflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStateValidFor(t *testing.T) {
	tests := []struct {
		name       string
		state      State
		entityType EntityType
		expected   bool
	}{
		{"rfq draft", RfqDraft, EntityRfq, true},
		{"rfq awarded", RfqAwarded, EntityRfq, true},
		{"bid state on rfq", BidUnderReview, EntityRfq, false},
		{"bid submitted", BidSubmitted, EntityBid, true},
		{"negotiation countered", NegotiationCountered, EntityNegotiation, true},
		{"order state on negotiation", OrderInProgress, EntityNegotiation, false},
		{"order confirmed", OrderConfirmed, EntityPurchaseOrder, true},
		{"invitation pending", InvitationPending, EntitySupplierInvitation, true},
		{"unknown state", State("frozen"), EntityRfq, false},
		{"unknown entity type", RfqDraft, EntityType("contract"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.state.ValidFor(tt.entityType))
		})
	}
}

func TestStateTerminalFor(t *testing.T) {
	tests := []struct {
		name       string
		state      State
		entityType EntityType
		expected   bool
	}{
		{"rfq awarded is terminal", RfqAwarded, EntityRfq, true},
		{"rfq cancelled is terminal", RfqCancelled, EntityRfq, true},
		{"rfq bidding open is not terminal", RfqBiddingOpen, EntityRfq, false},
		{"bid awarded is terminal", BidAwarded, EntityBid, true},
		{"bid under review is not terminal", BidUnderReview, EntityBid, false},
		{"negotiation accepted is terminal", NegotiationAccepted, EntityNegotiation, true},
		{"negotiation expired is terminal", NegotiationExpired, EntityNegotiation, true},
		{"negotiation countered is not terminal", NegotiationCountered, EntityNegotiation, false},
		{"order confirmed is terminal", OrderConfirmed, EntityPurchaseOrder, true},
		{"order delivered is not terminal", OrderDelivered, EntityPurchaseOrder, false},
		{"invitation expired is terminal", InvitationExpired, EntitySupplierInvitation, true},
		{"invitation pending is not terminal", InvitationPending, EntitySupplierInvitation, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.state.TerminalFor(tt.entityType))
		})
	}
}

func TestEntityTypeIsValid(t *testing.T) {
	for _, et := range []EntityType{EntityRfq, EntityBid, EntityNegotiation, EntityPurchaseOrder, EntitySupplierInvitation} {
		assert.True(t, et.IsValid(), "entity type %s", et)
	}
	assert.False(t, EntityType("contract").IsValid())
	assert.False(t, EntityType("").IsValid())
}

func TestRoleIsValid(t *testing.T) {
	for _, r := range []Role{RoleBuyer, RoleSupplier, RoleAdmin, RoleSystem} {
		assert.True(t, r.IsValid(), "role %s", r)
	}
	assert.False(t, Role("auditor").IsValid())
	assert.False(t, Role("").IsValid())
}

func TestSystemActor(t *testing.T) {
	assert.True(t, SystemActor.IsSystem())
	assert.False(t, SystemActor.IsAdmin())
	assert.Equal(t, "system", SystemActor.ID)
}
