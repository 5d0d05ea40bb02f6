package sink

import (
	"context"
	"testing"

	"github.com/soyeahso/prodbot/internal/hooks"
	"github.com/soyeahso/prodbot/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSink struct {
	id       string
	events   []string
	closed   *[]string
	closeErr error
}

func (s *recordingSink) ID() string { return s.id }

func (s *recordingSink) Attach(m *hooks.Manager) {
	m.OnAll(s.id, func(_ context.Context, p hooks.Payload) error {
		s.events = append(s.events, p.Event)
		return nil
	})
}

func (s *recordingSink) Close() error {
	*s.closed = append(*s.closed, s.id)
	return s.closeErr
}

type plainSink struct{ id string }

func (s plainSink) ID() string            { return s.id }
func (s plainSink) Attach(*hooks.Manager) {}

func testLog() *logging.Logger { return logging.New(nil, "silent") }

func TestRegister_Duplicate(t *testing.T) {
	reg := NewRegistry(testLog())
	require.NoError(t, reg.Register(plainSink{id: "metrics"}))

	err := reg.Register(plainSink{id: "metrics"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "metrics")
	assert.Equal(t, []string{"metrics"}, reg.List())
}

func TestAttachAll_ReceivesEvents(t *testing.T) {
	log := testLog()
	var closed []string
	s := &recordingSink{id: "rec", closed: &closed}

	reg := NewRegistry(log)
	require.NoError(t, reg.Register(s))

	m := hooks.NewManager(log)
	reg.AttachAll(m)
	m.Emit(context.Background(), hooks.EventRunStart, map[string]any{"threadId": "t1"})

	assert.Equal(t, []string{hooks.EventRunStart}, s.events)
}

func TestCloseAll_ReverseOrderSkipsNonClosers(t *testing.T) {
	var closed []string
	reg := NewRegistry(testLog())
	require.NoError(t, reg.Register(&recordingSink{id: "a", closed: &closed}))
	require.NoError(t, reg.Register(plainSink{id: "b"}))
	require.NoError(t, reg.Register(&recordingSink{id: "c", closed: &closed, closeErr: assert.AnError}))

	reg.CloseAll()
	assert.Equal(t, []string{"c", "a"}, closed)
	assert.Equal(t, []string{"a", "b", "c"}, reg.List())
}
