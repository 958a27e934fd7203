package workflow

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/garyjia/rfq-procurement/internal/application/dispatcher"
	"github.com/garyjia/rfq-procurement/internal/application/port"
	"github.com/garyjia/rfq-procurement/internal/domain/entity"
	"github.com/garyjia/rfq-procurement/internal/domain/event"
	domainwf "github.com/garyjia/rfq-procurement/internal/domain/workflow"
)

// engineImpl is the concrete implementation of Engine
type engineImpl struct {
	store       port.EntityStore
	historyRepo port.HistoryRepository
	txManager   port.TransactionManager
	tables      Tables
	dispatcher  dispatcher.Dispatcher
	logger      *zap.Logger
}

// EngineOption configures the workflow engine
type EngineOption func(*engineImpl)

// WithDispatcher sets the event dispatcher transitions emit through
func WithDispatcher(d dispatcher.Dispatcher) EngineOption {
	return func(e *engineImpl) {
		e.dispatcher = d
	}
}

// NewEngine creates a new workflow engine
func NewEngine(
	store port.EntityStore,
	historyRepo port.HistoryRepository,
	txManager port.TransactionManager,
	tables Tables,
	logger *zap.Logger,
	opts ...EngineOption,
) Engine {
	e := &engineImpl{
		store:       store,
		historyRepo: historyRepo,
		txManager:   txManager,
		tables:      tables,
		logger:      logger,
	}

	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Transition applies one status transition: structure, authorization and
// guard checks against the current snapshot, then status write plus history
// append in a single transaction. The version read with the snapshot guards
// the write, so a concurrent transition on the same entity loses with
// ErrConflict instead of clobbering.
func (e *engineImpl) Transition(
	ctx context.Context,
	entityType domainwf.EntityType,
	entityID string,
	target domainwf.State,
	actor domainwf.Actor,
	reason string,
) (*Result, error) {
	table, ok := e.tables[entityType]
	if !ok {
		return nil, fmt.Errorf("no transition table for entity type %s", entityType)
	}

	var result *Result
	err := e.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		subject, err := e.store.Get(txCtx, entityType, entityID)
		if err != nil {
			return err
		}

		if err := table.Evaluate(txCtx, subject, target, actor); err != nil {
			return err
		}

		from := subject.CurrentState()
		if err := e.store.UpdateStatus(txCtx, entityType, entityID, target, subject.EntityVersion()); err != nil {
			return err
		}

		history := &entity.StatusHistory{
			ID:         uuid.NewString(),
			EntityType: entityType,
			EntityID:   entityID,
			FromStatus: from,
			ToStatus:   target,
			ActorID:    actor.ID,
			ActorRole:  actor.Role,
			Reason:     reason,
			CreatedAt:  time.Now().UTC(),
		}
		if err := e.historyRepo.Append(txCtx, history); err != nil {
			return fmt.Errorf("appending status history: %w", err)
		}

		updated, err := e.store.Get(txCtx, entityType, entityID)
		if err != nil {
			return fmt.Errorf("reloading entity after transition: %w", err)
		}

		result = &Result{
			Entity: updated,
			From:   from,
			To:     target,
			Events: buildEvents(updated, from, target, actor, reason),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.logger.Info("Transition applied",
		zap.String("entity_type", entityType.String()),
		zap.String("entity_id", entityID),
		zap.String("from", result.From.String()),
		zap.String("to", result.To.String()),
		zap.String("actor", actor.ID))

	// Side effects are described by the result and dispatched without
	// blocking; a dispatch failure never unwinds the committed transition.
	// Handlers run after the caller's request may already be done, so they
	// get a context detached from its cancellation.
	if e.dispatcher != nil {
		dispatchCtx := context.WithoutCancel(ctx)
		for _, evt := range result.Events {
			e.dispatcher.DispatchAsync(dispatchCtx, evt)
		}
	}

	return result, nil
}

// History returns the transition log of an entity, oldest first
func (e *engineImpl) History(ctx context.Context, entityType domainwf.EntityType, entityID string) ([]*entity.StatusHistory, error) {
	return e.historyRepo.ListByEntity(ctx, entityType, entityID)
}

// buildEvents derives the side-effect descriptors for an applied transition
func buildEvents(subject domainwf.Subject, from, to domainwf.State, actor domainwf.Actor, reason string) []*event.Event {
	eventType := event.ForTransition(subject.EntityType(), to)
	if eventType == "" {
		return nil
	}

	recipients := make([]string, 0, 2)
	if c := subject.BuyerCompany(); c != "" {
		recipients = append(recipients, c)
	}
	if c := subject.SupplierCompany(); c != "" && c != subject.BuyerCompany() {
		recipients = append(recipients, c)
	}

	payload := map[string]interface{}{
		"from":     from.String(),
		"to":       to.String(),
		"actor_id": actor.ID,
	}
	if reason != "" {
		payload["reason"] = reason
	}

	return []*event.Event{
		event.New(eventType, subject.EntityType(), subject.EntityID(), recipients, payload),
	}
}
