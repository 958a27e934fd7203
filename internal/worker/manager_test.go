package worker

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

// fakeWorker implements Worker and records lifecycle calls
type fakeWorker struct {
	name     string
	startErr error
	log      *[]string
}

func (w *fakeWorker) Start(ctx context.Context) error {
	*w.log = append(*w.log, "start:"+w.name)
	return w.startErr
}

func (w *fakeWorker) Stop() {
	*w.log = append(*w.log, "stop:"+w.name)
}

func (w *fakeWorker) Name() string { return w.name }

func TestManagerStartStopOrder(t *testing.T) {
	var log []string
	m := NewManager(zap.NewNop())
	m.Register(&fakeWorker{name: "a", log: &log})
	m.Register(&fakeWorker{name: "b", log: &log})
	assert.Equal(t, 2, m.Count())

	assert.NoError(t, m.StartAll(context.Background()))
	m.StopAll()

	assert.Equal(t, []string{"start:a", "start:b", "stop:b", "stop:a"}, log,
		"workers start in registration order and stop in reverse")
}

func TestManagerStartAllFailsFast(t *testing.T) {
	var log []string
	startErr := errors.New("port already in use")

	m := NewManager(zap.NewNop())
	m.Register(&fakeWorker{name: "a", log: &log})
	m.Register(&fakeWorker{name: "b", startErr: startErr, log: &log})
	m.Register(&fakeWorker{name: "c", log: &log})

	assert.ErrorIs(t, m.StartAll(context.Background()), startErr)
	assert.Equal(t, []string{"start:a", "start:b"}, log, "later workers never start")
}
