package workflow

import (
	"context"
	"errors"
	"fmt"
	"sort"
)

// Subject is the view of an entity the transition table evaluates against
type Subject interface {
	// EntityType returns which transition table governs the entity
	EntityType() EntityType

	// EntityID returns the entity's identity
	EntityID() string

	// CurrentState returns the entity's current lifecycle state
	CurrentState() State

	// EntityVersion returns the optimistic-concurrency version of the snapshot
	EntityVersion() int

	// BuyerCompany returns the buyer-side company ID, or "" if none
	BuyerCompany() string

	// SupplierCompany returns the supplier-side company ID, or "" if none
	SupplierCompany() string
}

// AuthFunc decides whether an actor may request a transition on a subject.
// Admin and the system sentinel are exempted before AuthFunc is consulted.
type AuthFunc func(actor Actor, subject Subject) bool

// GuardFunc evaluates a business precondition for a transition. Guards
// report an unmet precondition with Unmet; any other error means the guard
// could not be evaluated and is propagated as-is.
type GuardFunc func(ctx context.Context, subject Subject) error

// Unmet builds the error a guard returns when its precondition does not
// hold. It wraps ErrGuardFailed so callers can tell a definitive rejection
// from an evaluation failure.
func Unmet(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrGuardFailed, fmt.Sprintf(format, args...))
}

// BuyerOnly authorizes buyers belonging to the subject's buyer company
func BuyerOnly(actor Actor, subject Subject) bool {
	return actor.Role == RoleBuyer && actor.CompanyID == subject.BuyerCompany()
}

// SupplierOnly authorizes suppliers belonging to the subject's supplier company
func SupplierOnly(actor Actor, subject Subject) bool {
	return actor.Role == RoleSupplier && actor.CompanyID == subject.SupplierCompany()
}

// Participant authorizes either side of the subject
func Participant(actor Actor, subject Subject) bool {
	return BuyerOnly(actor, subject) || SupplierOnly(actor, subject)
}

// SystemOnly authorizes nobody; only the sentinel (which bypasses AuthFunc)
// can take the transition
func SystemOnly(actor Actor, subject Subject) bool {
	return false
}

// rule holds the predicate set for one (from, to) pair
type rule struct {
	to     State
	auth   AuthFunc
	guards []GuardFunc
}

// StateConfig configures the outgoing transitions of a single state
type StateConfig struct {
	builder *Builder
	from    State
	rules   map[State]rule
}

// Builder assembles the declarative transition table for one entity type
type Builder struct {
	entityType EntityType
	configs    map[State]*StateConfig
}

// NewBuilder creates a transition table builder for the entity type
func NewBuilder(et EntityType) *Builder {
	if !et.IsValid() {
		panic(fmt.Sprintf("unknown entity type: %s", et))
	}
	return &Builder{
		entityType: et,
		configs:    make(map[State]*StateConfig),
	}
}

// Configure returns the configuration for transitions out of the given state
func (b *Builder) Configure(from State) *StateConfig {
	if !from.ValidFor(b.entityType) {
		panic(fmt.Sprintf("state %s is not valid for %s", from, b.entityType))
	}

	cfg, ok := b.configs[from]
	if !ok {
		cfg = &StateConfig{
			builder: b,
			from:    from,
			rules:   make(map[State]rule),
		}
		b.configs[from] = cfg
	}
	return cfg
}

// Permit allows the transition to the target state for actors the auth
// function accepts, subject to the given guards
func (c *StateConfig) Permit(to State, auth AuthFunc, guards ...GuardFunc) *StateConfig {
	if !to.ValidFor(c.builder.entityType) {
		panic(fmt.Sprintf("state %s is not valid for %s", to, c.builder.entityType))
	}
	if to == c.from {
		panic(fmt.Sprintf("self-transition %s -> %s is not allowed", c.from, to))
	}

	c.rules[to] = rule{to: to, auth: auth, guards: guards}
	return c
}

// Build creates the immutable transition table
func (b *Builder) Build() *Table {
	rules := make(map[State]map[State]rule, len(b.configs))
	for from, cfg := range b.configs {
		copied := make(map[State]rule, len(cfg.rules))
		for to, r := range cfg.rules {
			copied[to] = r
		}
		rules[from] = copied
	}

	return &Table{entityType: b.entityType, rules: rules}
}

// Table is the transition table for one entity type: a mapping from
// (currentState, targetState) to an authorization predicate and guard set
type Table struct {
	entityType EntityType
	rules      map[State]map[State]rule
}

// EntityType returns the entity type the table governs
func (t *Table) EntityType() EntityType {
	return t.entityType
}

// CanTransition returns true if the (from, to) pair is present in the table
func (t *Table) CanTransition(from, to State) bool {
	_, ok := t.rules[from][to]
	return ok
}

// PermittedTargets returns the target states reachable from the given state
func (t *Table) PermittedTargets(from State) []State {
	targets := make([]State, 0, len(t.rules[from]))
	for to := range t.rules[from] {
		targets = append(targets, to)
	}
	sort.Slice(targets, func(i, j int) bool { return targets[i] < targets[j] })
	return targets
}

// Evaluate checks structure, authorization and guards for the requested
// transition, in that order. It does not mutate the subject.
func (t *Table) Evaluate(ctx context.Context, subject Subject, target State, actor Actor) error {
	from := subject.CurrentState()
	if !from.ValidFor(t.entityType) {
		return fmt.Errorf("%w: %s %q in unknown state %s", ErrInvalidState, t.entityType, subject.EntityID(), from)
	}

	r, ok := t.rules[from][target]
	if !ok {
		return fmt.Errorf("%w: %s cannot move from %s to %s", ErrInvalidTransition, t.entityType, from, target)
	}

	if !actor.IsSystem() && !actor.IsAdmin() {
		if r.auth == nil || !r.auth(actor, subject) {
			return fmt.Errorf("%w: %s %s may not move %s %q to %s",
				ErrUnauthorized, actor.Role, actor.ID, t.entityType, subject.EntityID(), target)
		}
	}

	for _, guard := range r.guards {
		if err := guard(ctx, subject); err != nil {
			if errors.Is(err, ErrGuardFailed) {
				return err
			}
			// The guard could not be evaluated; keep the cause visible
			// instead of presenting it as a business rejection.
			return fmt.Errorf("evaluating guard for %s %q: %w", t.entityType, subject.EntityID(), err)
		}
	}

	return nil
}
