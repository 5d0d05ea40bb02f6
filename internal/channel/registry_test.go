package channel

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/soyeahso/prodbot/internal/domain"
	"github.com/soyeahso/prodbot/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *logging.Logger {
	return logging.New(nil, "silent")
}

type mockChannel struct {
	id       string
	started  atomic.Bool
	stopped  atomic.Bool
	startErr error
	stopErr  error
	sendErr  error

	mu      sync.Mutex
	sent    []domain.OutboundMessage
	handler func(domain.InboundMessage)
}

func (m *mockChannel) ID() string { return m.id }
func (m *mockChannel) Start(_ context.Context) error {
	m.started.Store(true)
	return m.startErr
}
func (m *mockChannel) Stop(_ context.Context) error {
	m.stopped.Store(true)
	return m.stopErr
}
func (m *mockChannel) Send(_ context.Context, msg domain.OutboundMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, msg)
	return m.sendErr
}
func (m *mockChannel) OnMessage(handler func(domain.InboundMessage)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handler = handler
}
func (m *mockChannel) Status() domain.ChannelStatus {
	return domain.ChannelStatus{
		ChannelID: m.id,
		Connected: m.started.Load() && !m.stopped.Load(),
	}
}

func TestRegistry_RegisterAndGet(t *testing.T) {
	reg := NewRegistry(testLogger())
	reg.Register(&mockChannel{id: "irc"})

	got, ok := reg.Get("irc")
	require.True(t, ok)
	assert.Equal(t, "irc", got.ID())

	_, ok = reg.Get("nonexistent")
	assert.False(t, ok)
}

func TestRegistry_ListSorted(t *testing.T) {
	reg := NewRegistry(testLogger())
	reg.Register(&mockChannel{id: "irc"})
	reg.Register(&mockChannel{id: "gateway"})

	assert.Equal(t, []string{"gateway", "irc"}, reg.List())
	assert.Equal(t, 2, reg.Count())
}

func TestRegistry_Status(t *testing.T) {
	reg := NewRegistry(testLogger())
	ch := &mockChannel{id: "irc"}
	ch.started.Store(true)
	reg.Register(ch)
	reg.Register(&mockChannel{id: "alpha"})

	statuses := reg.Status()
	require.Len(t, statuses, 2)
	assert.Equal(t, "alpha", statuses[0].ChannelID)
	assert.False(t, statuses[0].Connected)
	assert.Equal(t, "irc", statuses[1].ChannelID)
	assert.True(t, statuses[1].Connected)
}

func TestRegistry_Send(t *testing.T) {
	reg := NewRegistry(testLogger())
	ch := &mockChannel{id: "irc"}
	reg.Register(ch)

	msg := domain.OutboundMessage{ChannelID: "irc", To: "#shop", Body: "hi"}
	require.NoError(t, reg.Send(context.Background(), msg))
	assert.Equal(t, []domain.OutboundMessage{msg}, ch.sent)

	err := reg.Send(context.Background(), domain.OutboundMessage{ChannelID: "slack"})
	assert.ErrorContains(t, err, `channel "slack" not registered`)
}

func TestRegistry_OnMessage(t *testing.T) {
	reg := NewRegistry(testLogger())
	a, b := &mockChannel{id: "a"}, &mockChannel{id: "b"}
	reg.Register(a)
	reg.Register(b)

	var got []string
	reg.OnMessage(func(m domain.InboundMessage) { got = append(got, m.Body) })
	a.handler(domain.InboundMessage{Body: "from a"})
	b.handler(domain.InboundMessage{Body: "from b"})
	assert.Equal(t, []string{"from a", "from b"}, got)
}

func TestRegistry_StartAll(t *testing.T) {
	reg := NewRegistry(testLogger())
	ok := &mockChannel{id: "irc"}
	broken := &mockChannel{id: "broken", startErr: assert.AnError}
	reg.Register(ok)
	reg.Register(broken)

	reg.StartAll(context.Background())
	assert.Eventually(t, ok.started.Load, time.Second, 10*time.Millisecond)
	assert.Eventually(t, broken.started.Load, time.Second, 10*time.Millisecond)
}

func TestRegistry_StopAll(t *testing.T) {
	reg := NewRegistry(testLogger())
	ch1 := &mockChannel{id: "irc"}
	ch2 := &mockChannel{id: "other", stopErr: assert.AnError}
	reg.Register(ch1)
	reg.Register(ch2)

	reg.StopAll(context.Background())
	assert.True(t, ch1.stopped.Load())
	assert.True(t, ch2.stopped.Load())
}
