package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/garyjia/rfq-procurement/internal/application/port"
	appwf "github.com/garyjia/rfq-procurement/internal/application/workflow"
	"github.com/garyjia/rfq-procurement/internal/domain/workflow"
)

// SweepResult summarizes one deadline sweep
type SweepResult struct {
	Transitioned int
	Failed       int
}

// DeadlineSweeper periodically scans for entities whose deadline has passed
// and drives them through the engine as the system actor: RFQs past their
// bid deadline close for bidding, pending invitations and open negotiations
// past their expiry become expired. Each entity is handled independently so
// one failed transition never stalls the rest of the sweep.
type DeadlineSweeper struct {
	rfqRepo         port.RfqRepository
	invitationRepo  port.InvitationRepository
	negotiationRepo port.NegotiationRepository
	engine          appwf.Engine
	logger          *zap.Logger

	interval time.Duration
	timeout  time.Duration

	mu        sync.Mutex
	isRunning bool
	ctx       context.Context
	cancel    context.CancelFunc
}

// NewDeadlineSweeper creates a new deadline sweeper
func NewDeadlineSweeper(
	rfqRepo port.RfqRepository,
	invitationRepo port.InvitationRepository,
	negotiationRepo port.NegotiationRepository,
	engine appwf.Engine,
	interval, timeout time.Duration,
	logger *zap.Logger,
) *DeadlineSweeper {
	if interval <= 0 {
		interval = time.Minute
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &DeadlineSweeper{
		rfqRepo:         rfqRepo,
		invitationRepo:  invitationRepo,
		negotiationRepo: negotiationRepo,
		engine:          engine,
		interval:        interval,
		timeout:         timeout,
		logger:          logger,
	}
}

// Start starts the sweep loop
func (s *DeadlineSweeper) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return fmt.Errorf("deadline sweeper is already running")
	}

	s.ctx, s.cancel = context.WithCancel(ctx)
	s.isRunning = true

	s.logger.Info("DeadlineSweeper started", zap.Duration("interval", s.interval))

	go s.sweepLoop()

	return nil
}

// Stop stops the sweep loop
func (s *DeadlineSweeper) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return
	}

	s.isRunning = false
	if s.cancel != nil {
		s.cancel()
	}

	s.logger.Info("DeadlineSweeper stopped")
}

// Name returns the worker name for identification
func (s *DeadlineSweeper) Name() string {
	return "DeadlineSweeper"
}

func (s *DeadlineSweeper) sweepLoop() {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	// Sweep immediately on start
	s.runSweep()

	for {
		select {
		case <-s.ctx.Done():
			s.logger.Debug("Sweep loop context cancelled")
			return

		case <-ticker.C:
			s.runSweep()
		}
	}
}

func (s *DeadlineSweeper) runSweep() {
	ctx, cancel := context.WithTimeout(s.ctx, s.timeout)
	defer cancel()

	result, err := s.Sweep(ctx, time.Now().UTC())
	if err != nil {
		s.logger.Error("Deadline sweep failed", zap.Error(err))
		return
	}
	if result.Transitioned > 0 || result.Failed > 0 {
		s.logger.Info("Deadline sweep completed",
			zap.Int("transitioned", result.Transitioned),
			zap.Int("failed", result.Failed))
	}
}

// Sweep performs one pass over all deadline-bearing entities. It is
// idempotent: entities already moved on re-query as empty, and a concurrent
// transition surfaces as a conflict counted under Failed.
func (s *DeadlineSweeper) Sweep(ctx context.Context, now time.Time) (SweepResult, error) {
	var result SweepResult

	rfqs, err := s.rfqRepo.ListDeadlinePassed(ctx, now)
	if err != nil {
		return result, fmt.Errorf("listing rfqs past deadline: %w", err)
	}
	for _, rfq := range rfqs {
		s.transition(ctx, &result, workflow.EntityRfq, rfq.ID,
			workflow.RfqBiddingClosed, "bid deadline passed")
	}

	invitations, err := s.invitationRepo.ListExpired(ctx, now)
	if err != nil {
		return result, fmt.Errorf("listing expired invitations: %w", err)
	}
	for _, inv := range invitations {
		s.transition(ctx, &result, workflow.EntitySupplierInvitation, inv.ID,
			workflow.InvitationExpired, "invitation expired")
	}

	negotiations, err := s.negotiationRepo.ListExpired(ctx, now)
	if err != nil {
		return result, fmt.Errorf("listing expired negotiations: %w", err)
	}
	for _, n := range negotiations {
		s.transition(ctx, &result, workflow.EntityNegotiation, n.ID,
			workflow.NegotiationExpired, "negotiation expired")
	}

	return result, nil
}

func (s *DeadlineSweeper) transition(ctx context.Context, result *SweepResult, entityType workflow.EntityType, id string, target workflow.State, reason string) {
	if _, err := s.engine.Transition(ctx, entityType, id, target, workflow.SystemActor, reason); err != nil {
		s.logger.Warn("Sweep transition failed",
			zap.String("entity_type", entityType.String()),
			zap.String("entity_id", id),
			zap.String("target", target.String()),
			zap.Error(err))
		result.Failed++
		return
	}
	result.Transitioned++
}

// Verify interface compliance
var _ Worker = (*DeadlineSweeper)(nil)
