package workflow

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

// stubSubject is a minimal Subject for exercising the table in isolation
type stubSubject struct {
	entityType EntityType
	id         string
	state      State
	version    int
	buyer      string
	supplier   string
}

func (s *stubSubject) EntityType() EntityType  { return s.entityType }
func (s *stubSubject) EntityID() string        { return s.id }
func (s *stubSubject) CurrentState() State     { return s.state }
func (s *stubSubject) EntityVersion() int      { return s.version }
func (s *stubSubject) BuyerCompany() string    { return s.buyer }
func (s *stubSubject) SupplierCompany() string { return s.supplier }

func newTestTable() *Table {
	b := NewBuilder(EntityRfq)
	b.Configure(RfqDraft).
		Permit(RfqBiddingOpen, BuyerOnly).
		Permit(RfqCancelled, BuyerOnly)
	b.Configure(RfqBiddingOpen).
		Permit(RfqBiddingClosed, BuyerOnly)
	return b.Build()
}

func TestBuilderPanics(t *testing.T) {
	tests := []struct {
		name string
		fn   func()
	}{
		{
			name: "unknown entity type",
			fn:   func() { NewBuilder(EntityType("contract")) },
		},
		{
			name: "configure foreign state",
			fn:   func() { NewBuilder(EntityRfq).Configure(BidUnderReview) },
		},
		{
			name: "permit foreign state",
			fn:   func() { NewBuilder(EntityRfq).Configure(RfqDraft).Permit(OrderInProgress, BuyerOnly) },
		},
		{
			name: "self transition",
			fn:   func() { NewBuilder(EntityRfq).Configure(RfqDraft).Permit(RfqDraft, BuyerOnly) },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Panics(t, tt.fn)
		})
	}
}

func TestTableCanTransition(t *testing.T) {
	table := newTestTable()

	assert.True(t, table.CanTransition(RfqDraft, RfqBiddingOpen))
	assert.True(t, table.CanTransition(RfqDraft, RfqCancelled))
	assert.False(t, table.CanTransition(RfqDraft, RfqAwarded))
	assert.False(t, table.CanTransition(RfqAwarded, RfqDraft))
	assert.False(t, table.CanTransition(RfqBiddingOpen, RfqDraft))
}

func TestTablePermittedTargets(t *testing.T) {
	table := newTestTable()

	assert.Equal(t, []State{RfqBiddingOpen, RfqCancelled}, table.PermittedTargets(RfqDraft))
	assert.Equal(t, []State{RfqBiddingClosed}, table.PermittedTargets(RfqBiddingOpen))
	assert.Empty(t, table.PermittedTargets(RfqAwarded))
}

func TestTableEvaluate(t *testing.T) {
	buyer := Actor{ID: "u1", Role: RoleBuyer, CompanyID: "buyer-co"}
	otherBuyer := Actor{ID: "u2", Role: RoleBuyer, CompanyID: "other-co"}
	supplier := Actor{ID: "u3", Role: RoleSupplier, CompanyID: "supp-co"}
	admin := Actor{ID: "u4", Role: RoleAdmin}

	subject := func(state State) *stubSubject {
		return &stubSubject{
			entityType: EntityRfq,
			id:         "rfq-1",
			state:      state,
			version:    1,
			buyer:      "buyer-co",
		}
	}

	failingGuard := func(ctx context.Context, s Subject) error { return Unmet("rfq has no items") }
	passingGuard := func(ctx context.Context, s Subject) error { return nil }

	guarded := func(guards ...GuardFunc) *Table {
		b := NewBuilder(EntityRfq)
		b.Configure(RfqDraft).Permit(RfqBiddingOpen, BuyerOnly, guards...)
		return b.Build()
	}

	tests := []struct {
		name     string
		table    *Table
		subject  *stubSubject
		target   State
		actor    Actor
		expected error
	}{
		{
			name:     "permitted transition passes",
			table:    newTestTable(),
			subject:  subject(RfqDraft),
			target:   RfqBiddingOpen,
			actor:    buyer,
			expected: nil,
		},
		{
			name:     "unknown current state",
			table:    newTestTable(),
			subject:  subject(State("frozen")),
			target:   RfqBiddingOpen,
			actor:    buyer,
			expected: ErrInvalidState,
		},
		{
			name:     "pair not in table",
			table:    newTestTable(),
			subject:  subject(RfqDraft),
			target:   RfqAwarded,
			actor:    buyer,
			expected: ErrInvalidTransition,
		},
		{
			name:     "wrong role rejected",
			table:    newTestTable(),
			subject:  subject(RfqDraft),
			target:   RfqBiddingOpen,
			actor:    supplier,
			expected: ErrUnauthorized,
		},
		{
			name:     "wrong company rejected",
			table:    newTestTable(),
			subject:  subject(RfqDraft),
			target:   RfqBiddingOpen,
			actor:    otherBuyer,
			expected: ErrUnauthorized,
		},
		{
			name:     "admin bypasses authorization",
			table:    newTestTable(),
			subject:  subject(RfqDraft),
			target:   RfqBiddingOpen,
			actor:    admin,
			expected: nil,
		},
		{
			name:     "system bypasses authorization",
			table:    newTestTable(),
			subject:  subject(RfqDraft),
			target:   RfqBiddingOpen,
			actor:    SystemActor,
			expected: nil,
		},
		{
			name:     "unmet guard rejects",
			table:    guarded(failingGuard),
			subject:  subject(RfqDraft),
			target:   RfqBiddingOpen,
			actor:    buyer,
			expected: ErrGuardFailed,
		},
		{
			name:     "guards run for admin too",
			table:    guarded(failingGuard),
			subject:  subject(RfqDraft),
			target:   RfqBiddingOpen,
			actor:    admin,
			expected: ErrGuardFailed,
		},
		{
			name:     "all guards pass",
			table:    guarded(passingGuard, passingGuard),
			subject:  subject(RfqDraft),
			target:   RfqBiddingOpen,
			actor:    buyer,
			expected: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.table.Evaluate(context.Background(), tt.subject, tt.target, tt.actor)
			if tt.expected == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.expected)
			}
		})
	}
}

func TestTableEvaluateGuardMessage(t *testing.T) {
	b := NewBuilder(EntityRfq)
	b.Configure(RfqDraft).Permit(RfqBiddingOpen, BuyerOnly, func(ctx context.Context, s Subject) error {
		return Unmet("rfq has no items to bid on")
	})
	table := b.Build()

	err := table.Evaluate(context.Background(), &stubSubject{
		entityType: EntityRfq,
		id:         "rfq-1",
		state:      RfqDraft,
		buyer:      "buyer-co",
	}, RfqBiddingOpen, Actor{ID: "u1", Role: RoleBuyer, CompanyID: "buyer-co"})

	assert.ErrorIs(t, err, ErrGuardFailed)
	assert.Contains(t, err.Error(), "rfq has no items to bid on")
}

func TestTableEvaluateGuardEvaluationError(t *testing.T) {
	dbErr := errors.New("database is locked")
	b := NewBuilder(EntityRfq)
	b.Configure(RfqDraft).Permit(RfqBiddingOpen, BuyerOnly, func(ctx context.Context, s Subject) error {
		return fmt.Errorf("counting rfq items: %w", dbErr)
	})
	table := b.Build()

	err := table.Evaluate(context.Background(), &stubSubject{
		entityType: EntityRfq,
		id:         "rfq-1",
		state:      RfqDraft,
		buyer:      "buyer-co",
	}, RfqBiddingOpen, Actor{ID: "u1", Role: RoleBuyer, CompanyID: "buyer-co"})

	// Infrastructure faults must stay distinguishable from rejections
	assert.ErrorIs(t, err, dbErr)
	assert.NotErrorIs(t, err, ErrGuardFailed)
}

func TestAuthFuncs(t *testing.T) {
	subject := &stubSubject{
		entityType: EntityNegotiation,
		id:         "neg-1",
		state:      NegotiationOpen,
		buyer:      "buyer-co",
		supplier:   "supp-co",
	}

	buyer := Actor{ID: "u1", Role: RoleBuyer, CompanyID: "buyer-co"}
	supplier := Actor{ID: "u2", Role: RoleSupplier, CompanyID: "supp-co"}
	strayBuyer := Actor{ID: "u3", Role: RoleBuyer, CompanyID: "supp-co"}
	straySupplier := Actor{ID: "u4", Role: RoleSupplier, CompanyID: "buyer-co"}

	assert.True(t, BuyerOnly(buyer, subject))
	assert.False(t, BuyerOnly(supplier, subject))
	assert.False(t, BuyerOnly(strayBuyer, subject))

	assert.True(t, SupplierOnly(supplier, subject))
	assert.False(t, SupplierOnly(buyer, subject))
	assert.False(t, SupplierOnly(straySupplier, subject))

	assert.True(t, Participant(buyer, subject))
	assert.True(t, Participant(supplier, subject))
	assert.False(t, Participant(strayBuyer, subject))

	assert.False(t, SystemOnly(buyer, subject))
	assert.False(t, SystemOnly(SystemActor, subject))
}
