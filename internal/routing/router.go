// Package routing turns channel messages into agent turns and sends the
// answers back where they came from.
package routing

import (
	"context"
	"sync"
	"time"

	"github.com/soyeahso/prodbot/internal/channel"
	"github.com/soyeahso/prodbot/internal/domain"
	"github.com/soyeahso/prodbot/internal/hooks"
	"github.com/soyeahso/prodbot/internal/logging"
)

const failurePrefix = "Sorry, something went wrong: "

// Runner runs one agent turn. *agent.Engine implements it.
type Runner interface {
	Run(ctx context.Context, query, threadID string) (string, error)
}

// Router routes inbound messages to the agent and replies to channels.
// Turns on the same thread run one at a time.
type Router struct {
	channels *channel.Registry
	runner   Runner
	scope    string
	timeout  time.Duration
	hooks    *hooks.Manager
	log      *logging.Logger

	mu       sync.Mutex
	locks    map[string]*threadLock
	draining bool
	inflight sync.WaitGroup
	cancel   context.CancelFunc
}

type threadLock struct {
	mu   sync.Mutex
	refs int
}

// Option configures a Router.
type Option func(*Router)

// WithHooks emits message_received and message_sending events.
func WithHooks(m *hooks.Manager) Option {
	return func(r *Router) { r.hooks = m }
}

// WithRunTimeout bounds each agent turn.
func WithRunTimeout(d time.Duration) Option {
	return func(r *Router) { r.timeout = d }
}

// NewRouter creates a message router. An empty scope means per-sender.
func NewRouter(channels *channel.Registry, runner Runner, scope string, log *logging.Logger, opts ...Option) *Router {
	if scope == "" {
		scope = ScopePerSender
	}
	r := &Router{
		channels: channels,
		runner:   runner,
		scope:    scope,
		timeout:  5 * time.Minute,
		log:      log.Sub("routing"),
		locks:    make(map[string]*threadLock),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// HandleInbound runs the agent for msg and sends the answer, or a failure
// notice, back through the originating channel.
func (r *Router) HandleInbound(ctx context.Context, msg domain.InboundMessage) {
	thread := ThreadID(msg, r.scope)
	log := r.log.With("thread", thread)
	log.Info().
		Str("channel", msg.ChannelID).
		Str("from", msg.From).
		Str("chatType", string(msg.ChatType)).
		Msg("routing inbound message")

	r.hooks.Emit(ctx, hooks.EventMessageReceived, map[string]any{
		"channel": msg.ChannelID,
		"from":    msg.From,
		"thread":  thread,
	})

	start := time.Now()
	answer, err := r.run(ctx, msg.Body, thread)
	if err != nil {
		log.Error().Err(err).Str("from", msg.From).Msg("agent run failed")
		answer = failurePrefix + err.Error()
	}

	reply := domain.OutboundMessage{
		ChannelID: msg.ChannelID,
		To:        replyTarget(msg),
		Body:      answer,
	}
	r.hooks.Emit(ctx, hooks.EventMessageSending, map[string]any{
		"channel": reply.ChannelID,
		"to":      reply.To,
		"thread":  thread,
	})

	if err := r.channels.Send(ctx, reply); err != nil {
		log.Error().Err(err).Str("to", reply.To).Msg("failed to send reply")
		return
	}

	log.Info().
		Str("to", reply.To).
		Dur("duration", time.Since(start)).
		Msg("reply sent")
}

// run executes one turn while holding the thread's lock.
func (r *Router) run(ctx context.Context, query, thread string) (string, error) {
	unlock := r.lock(thread)
	defer unlock()

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	return r.runner.Run(ctx, query, thread)
}

func (r *Router) lock(thread string) func() {
	r.mu.Lock()
	l, ok := r.locks[thread]
	if !ok {
		l = &threadLock{}
		r.locks[thread] = l
	}
	l.refs++
	r.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		r.mu.Lock()
		if l.refs--; l.refs == 0 {
			delete(r.locks, thread)
		}
		r.mu.Unlock()
	}
}

// Wire installs the router as the message handler on every registered
// channel. Each message is handled in its own goroutine under ctx until
// Drain is called.
func (r *Router) Wire(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	r.mu.Lock()
	r.cancel = cancel
	r.mu.Unlock()

	r.channels.OnMessage(func(msg domain.InboundMessage) {
		r.dispatch(ctx, msg)
	})
	r.log.Debug().Strs("channels", r.channels.List()).Msg("wired message handlers")
}

func (r *Router) dispatch(ctx context.Context, msg domain.InboundMessage) {
	r.mu.Lock()
	if r.draining {
		r.mu.Unlock()
		r.log.Warn().Str("channel", msg.ChannelID).Str("from", msg.From).Msg("dropping message while draining")
		return
	}
	r.inflight.Add(1)
	r.mu.Unlock()

	go func() {
		defer r.inflight.Done()
		r.HandleInbound(ctx, msg)
	}()
}

// Drain stops accepting channel messages and waits for turns already in
// flight. If ctx ends first the remaining turns are cancelled, awaited and
// ctx's error is returned.
func (r *Router) Drain(ctx context.Context) error {
	r.mu.Lock()
	r.draining = true
	cancel := r.cancel
	r.mu.Unlock()

	done := make(chan struct{})
	go func() {
		r.inflight.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		r.log.Warn().Msg("drain timed out; cancelling in-flight turns")
		if cancel != nil {
			cancel()
		}
		<-done
		return ctx.Err()
	}
}

// replyTarget determines where to send the response.
func replyTarget(msg domain.InboundMessage) string {
	if msg.ChatType == domain.ChatTypeDM {
		return msg.From
	}
	return msg.ChatID
}
