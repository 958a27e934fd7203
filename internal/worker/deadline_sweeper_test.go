package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	appwf "github.com/garyjia/rfq-procurement/internal/application/workflow"
	"github.com/garyjia/rfq-procurement/internal/domain/entity"
	"github.com/garyjia/rfq-procurement/internal/domain/workflow"
)

// sweepRfqRepoMock implements port.RfqRepository; only listing is exercised
type sweepRfqRepoMock struct {
	listDeadlinePassedFn func(ctx context.Context, now time.Time) ([]*entity.Rfq, error)
}

func (m *sweepRfqRepoMock) Create(ctx context.Context, rfq *entity.Rfq) error { return nil }
func (m *sweepRfqRepoMock) GetByID(ctx context.Context, id string) (*entity.Rfq, error) {
	return nil, nil
}
func (m *sweepRfqRepoMock) AddItem(ctx context.Context, item *entity.RfqItem) error { return nil }
func (m *sweepRfqRepoMock) CountItems(ctx context.Context, rfqID string) (int, error) {
	return 0, nil
}
func (m *sweepRfqRepoMock) ListItems(ctx context.Context, rfqID string) ([]entity.RfqItem, error) {
	return nil, nil
}
func (m *sweepRfqRepoMock) UpdateStatus(ctx context.Context, id string, status workflow.State, expectedVersion int) error {
	return nil
}
func (m *sweepRfqRepoMock) ListDeadlinePassed(ctx context.Context, now time.Time) ([]*entity.Rfq, error) {
	return m.listDeadlinePassedFn(ctx, now)
}

// sweepInvitationRepoMock implements port.InvitationRepository
type sweepInvitationRepoMock struct {
	listExpiredFn func(ctx context.Context, now time.Time) ([]*entity.SupplierInvitation, error)
}

func (m *sweepInvitationRepoMock) Create(ctx context.Context, inv *entity.SupplierInvitation) error {
	return nil
}
func (m *sweepInvitationRepoMock) GetByID(ctx context.Context, id string) (*entity.SupplierInvitation, error) {
	return nil, nil
}
func (m *sweepInvitationRepoMock) GetByToken(ctx context.Context, token string) (*entity.SupplierInvitation, error) {
	return nil, nil
}
func (m *sweepInvitationRepoMock) UpdateStatus(ctx context.Context, id string, status workflow.State, expectedVersion int) error {
	return nil
}
func (m *sweepInvitationRepoMock) ListExpired(ctx context.Context, now time.Time) ([]*entity.SupplierInvitation, error) {
	return m.listExpiredFn(ctx, now)
}

// sweepNegotiationRepoMock implements port.NegotiationRepository
type sweepNegotiationRepoMock struct {
	listExpiredFn func(ctx context.Context, now time.Time) ([]*entity.Negotiation, error)
}

func (m *sweepNegotiationRepoMock) Create(ctx context.Context, n *entity.Negotiation) error {
	return nil
}
func (m *sweepNegotiationRepoMock) GetByID(ctx context.Context, id string) (*entity.Negotiation, error) {
	return nil, nil
}
func (m *sweepNegotiationRepoMock) UpdateStatus(ctx context.Context, id string, status workflow.State, expectedVersion int) error {
	return nil
}
func (m *sweepNegotiationRepoMock) AppendMessage(ctx context.Context, msg *entity.NegotiationMessage) error {
	return nil
}
func (m *sweepNegotiationRepoMock) ListMessages(ctx context.Context, negotiationID string) ([]*entity.NegotiationMessage, error) {
	return nil, nil
}
func (m *sweepNegotiationRepoMock) LastMessage(ctx context.Context, negotiationID string) (*entity.NegotiationMessage, error) {
	return nil, nil
}
func (m *sweepNegotiationRepoMock) MarkRead(ctx context.Context, messageID string) error { return nil }
func (m *sweepNegotiationRepoMock) ListExpired(ctx context.Context, now time.Time) ([]*entity.Negotiation, error) {
	return m.listExpiredFn(ctx, now)
}

// sweepEngineMock implements workflow.Engine and records transitions
type sweepEngineMock struct {
	transitionFn func(ctx context.Context, entityType workflow.EntityType, entityID string, target workflow.State, actor workflow.Actor, reason string) (*appwf.Result, error)
}

func (m *sweepEngineMock) Transition(ctx context.Context, entityType workflow.EntityType, entityID string, target workflow.State, actor workflow.Actor, reason string) (*appwf.Result, error) {
	return m.transitionFn(ctx, entityType, entityID, target, actor, reason)
}

func (m *sweepEngineMock) History(ctx context.Context, entityType workflow.EntityType, entityID string) ([]*entity.StatusHistory, error) {
	return nil, nil
}

func noDueRfqs(ctx context.Context, now time.Time) ([]*entity.Rfq, error) { return nil, nil }
func noDueInvitations(ctx context.Context, now time.Time) ([]*entity.SupplierInvitation, error) {
	return nil, nil
}
func noDueNegotiations(ctx context.Context, now time.Time) ([]*entity.Negotiation, error) {
	return nil, nil
}

type recordedTransition struct {
	entityType workflow.EntityType
	entityID   string
	target     workflow.State
	actor      workflow.Actor
	reason     string
}

func TestSweepTransitionsDueEntities(t *testing.T) {
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

	rfqRepo := &sweepRfqRepoMock{
		listDeadlinePassedFn: func(ctx context.Context, got time.Time) ([]*entity.Rfq, error) {
			assert.Equal(t, now, got)
			return []*entity.Rfq{{ID: "rfq-1"}, {ID: "rfq-2"}}, nil
		},
	}
	invitationRepo := &sweepInvitationRepoMock{
		listExpiredFn: func(ctx context.Context, got time.Time) ([]*entity.SupplierInvitation, error) {
			return []*entity.SupplierInvitation{{ID: "inv-1"}}, nil
		},
	}
	negotiationRepo := &sweepNegotiationRepoMock{
		listExpiredFn: func(ctx context.Context, got time.Time) ([]*entity.Negotiation, error) {
			return []*entity.Negotiation{{ID: "neg-1"}}, nil
		},
	}

	var transitions []recordedTransition
	engine := &sweepEngineMock{
		transitionFn: func(ctx context.Context, et workflow.EntityType, id string, target workflow.State, actor workflow.Actor, reason string) (*appwf.Result, error) {
			transitions = append(transitions, recordedTransition{et, id, target, actor, reason})
			return &appwf.Result{To: target}, nil
		},
	}

	sweeper := NewDeadlineSweeper(rfqRepo, invitationRepo, negotiationRepo, engine, time.Minute, time.Second, zap.NewNop())

	result, err := sweeper.Sweep(context.Background(), now)
	assert.NoError(t, err)
	assert.Equal(t, 4, result.Transitioned)
	assert.Equal(t, 0, result.Failed)

	assert.Equal(t, []recordedTransition{
		{workflow.EntityRfq, "rfq-1", workflow.RfqBiddingClosed, workflow.SystemActor, "bid deadline passed"},
		{workflow.EntityRfq, "rfq-2", workflow.RfqBiddingClosed, workflow.SystemActor, "bid deadline passed"},
		{workflow.EntitySupplierInvitation, "inv-1", workflow.InvitationExpired, workflow.SystemActor, "invitation expired"},
		{workflow.EntityNegotiation, "neg-1", workflow.NegotiationExpired, workflow.SystemActor, "negotiation expired"},
	}, transitions)
}

func TestSweepIsolatesFailures(t *testing.T) {
	rfqRepo := &sweepRfqRepoMock{
		listDeadlinePassedFn: func(ctx context.Context, now time.Time) ([]*entity.Rfq, error) {
			return []*entity.Rfq{{ID: "rfq-1"}, {ID: "rfq-2"}, {ID: "rfq-3"}}, nil
		},
	}
	invitationRepo := &sweepInvitationRepoMock{listExpiredFn: noDueInvitations}
	negotiationRepo := &sweepNegotiationRepoMock{listExpiredFn: noDueNegotiations}

	engine := &sweepEngineMock{
		transitionFn: func(ctx context.Context, et workflow.EntityType, id string, target workflow.State, actor workflow.Actor, reason string) (*appwf.Result, error) {
			if id == "rfq-2" {
				return nil, workflow.ErrConflict
			}
			return &appwf.Result{To: target}, nil
		},
	}

	sweeper := NewDeadlineSweeper(rfqRepo, invitationRepo, negotiationRepo, engine, time.Minute, time.Second, zap.NewNop())

	result, err := sweeper.Sweep(context.Background(), time.Now().UTC())
	assert.NoError(t, err)
	assert.Equal(t, 2, result.Transitioned)
	assert.Equal(t, 1, result.Failed)
}

func TestSweepListErrorAborts(t *testing.T) {
	listErr := errors.New("database is locked")
	rfqRepo := &sweepRfqRepoMock{
		listDeadlinePassedFn: func(ctx context.Context, now time.Time) ([]*entity.Rfq, error) {
			return nil, listErr
		},
	}
	sweeper := NewDeadlineSweeper(rfqRepo,
		&sweepInvitationRepoMock{listExpiredFn: noDueInvitations},
		&sweepNegotiationRepoMock{listExpiredFn: noDueNegotiations},
		&sweepEngineMock{}, time.Minute, time.Second, zap.NewNop())

	_, err := sweeper.Sweep(context.Background(), time.Now().UTC())
	assert.ErrorIs(t, err, listErr)
}

func TestSweepEmptyPass(t *testing.T) {
	sweeper := NewDeadlineSweeper(
		&sweepRfqRepoMock{listDeadlinePassedFn: noDueRfqs},
		&sweepInvitationRepoMock{listExpiredFn: noDueInvitations},
		&sweepNegotiationRepoMock{listExpiredFn: noDueNegotiations},
		&sweepEngineMock{
			transitionFn: func(ctx context.Context, et workflow.EntityType, id string, target workflow.State, actor workflow.Actor, reason string) (*appwf.Result, error) {
				t.Fatal("no transitions expected")
				return nil, nil
			},
		},
		time.Minute, time.Second, zap.NewNop())

	result, err := sweeper.Sweep(context.Background(), time.Now().UTC())
	assert.NoError(t, err)
	assert.Equal(t, SweepResult{}, result)
}

func TestSweeperStartStop(t *testing.T) {
	sweeper := NewDeadlineSweeper(
		&sweepRfqRepoMock{listDeadlinePassedFn: noDueRfqs},
		&sweepInvitationRepoMock{listExpiredFn: noDueInvitations},
		&sweepNegotiationRepoMock{listExpiredFn: noDueNegotiations},
		&sweepEngineMock{}, time.Hour, time.Second, zap.NewNop())

	assert.NoError(t, sweeper.Start(context.Background()))
	assert.Error(t, sweeper.Start(context.Background()), "second start must fail")
	sweeper.Stop()
	assert.NoError(t, sweeper.Start(context.Background()), "restart after stop")
	sweeper.Stop()
}
