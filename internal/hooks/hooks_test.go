package hooks

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/soyeahso/prodbot/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testManager() *Manager {
	return NewManager(logging.New(nil, "silent"))
}

func noop(context.Context, Payload) error { return nil }

func TestManager_OnAndEmit(t *testing.T) {
	m := testManager()

	var got Payload
	m.On(EventNodeEnter, "test", func(_ context.Context, p Payload) error {
		got = p
		return nil
	})

	m.Emit(context.Background(), EventNodeEnter, map[string]any{"node": "Retriever", "thread": "t1"})
	assert.Equal(t, EventNodeEnter, got.Event)
	assert.Equal(t, "Retriever", got.String("node"))
	assert.Equal(t, "", got.String("missing"))
	assert.False(t, got.Time.IsZero())
}

func TestManager_EmitOrder(t *testing.T) {
	m := testManager()

	var order []string
	m.On(EventRunStart, "first", func(context.Context, Payload) error {
		order = append(order, "first")
		return nil
	})
	m.On(EventRunStart, "second", func(context.Context, Payload) error {
		order = append(order, "second")
		return nil
	})

	m.Emit(context.Background(), EventRunStart, nil)
	assert.Equal(t, []string{"first", "second"}, order)
}

func TestManager_HandlerErrorDoesNotStopOthers(t *testing.T) {
	m := testManager()

	var secondCalled bool
	m.On(EventRunError, "failing", func(context.Context, Payload) error {
		return errors.New("handler broke")
	})
	m.On(EventRunError, "second", func(context.Context, Payload) error {
		secondCalled = true
		return nil
	})

	m.Emit(context.Background(), EventRunError, nil)
	assert.True(t, secondCalled)
}

func TestManager_NilIsNoop(t *testing.T) {
	var m *Manager
	m.Emit(context.Background(), EventRunStart, nil)
	m.EmitAsync(context.Background(), EventRunStart, nil)
}

func TestManager_Off(t *testing.T) {
	m := testManager()

	var removed, kept int
	m.On(EventRunComplete, "remove-me", func(context.Context, Payload) error {
		removed++
		return nil
	})
	m.On(EventRunComplete, "keep-me", func(context.Context, Payload) error {
		kept++
		return nil
	})

	m.Off(EventRunComplete, "remove-me")
	m.Emit(context.Background(), EventRunComplete, nil)
	assert.Equal(t, 0, removed)
	assert.Equal(t, 1, kept)
}

func TestManager_EmitAsync(t *testing.T) {
	m := testManager()

	var count atomic.Int32
	var wg sync.WaitGroup
	wg.Add(2)
	for _, name := range []string{"a", "b"} {
		m.On(EventMessageSending, name, func(context.Context, Payload) error {
			count.Add(1)
			wg.Done()
			return nil
		})
	}

	ctx, cancel := context.WithCancel(context.Background())
	m.EmitAsync(ctx, EventMessageSending, nil)
	cancel()

	done := make(chan struct{})
	go func() { wg.Wait(); close(done) }()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("async handlers did not complete in time")
	}
	assert.Equal(t, int32(2), count.Load())
}

func TestManager_CountAndEvents(t *testing.T) {
	m := testManager()
	assert.Equal(t, 0, m.Count(EventGatewayStart))

	m.On(EventGatewayStart, "h1", noop)
	m.On(EventGatewayStart, "h2", noop)
	m.On(EventMessageReceived, "h3", noop)

	assert.Equal(t, 2, m.Count(EventGatewayStart))
	assert.Equal(t, []string{EventGatewayStart, EventMessageReceived}, m.Events())
}

func TestManager_OnAll(t *testing.T) {
	m := testManager()
	m.OnAll("sink", noop)
	for _, e := range AllEvents {
		assert.Equal(t, 1, m.Count(e), e)
	}
}

type fakePublisher struct {
	mu   sync.Mutex
	msgs map[string][]byte
	err  error
}

func (f *fakePublisher) Publish(subject string, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	if f.msgs == nil {
		f.msgs = map[string][]byte{}
	}
	f.msgs[subject] = data
	return nil
}

func TestNATSPublisher_PublishesEverySubject(t *testing.T) {
	m := testManager()
	pub := &fakePublisher{}
	p := NewNATSPublisher(pub, "prodbot.events", logging.New(nil, "silent"))
	p.Attach(m)

	m.Emit(context.Background(), EventRunComplete, map[string]any{"thread": "t1", "answer": "ok"})

	raw, ok := pub.msgs["prodbot.events.run_complete"]
	require.True(t, ok)

	var decoded Payload
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, EventRunComplete, decoded.Event)
	assert.Equal(t, "t1", decoded.Data["thread"])
	assert.NoError(t, p.Close())
}

func TestNATSPublisher_PublishError(t *testing.T) {
	pub := &fakePublisher{err: errors.New("nats: connection closed")}
	p := NewNATSPublisher(pub, "prodbot.events", logging.New(nil, "silent"))

	err := p.Handle(context.Background(), Payload{Event: EventRunStart})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "prodbot.events.run_start")
}
