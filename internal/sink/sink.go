// Package sink manages the consumers of agent lifecycle events.
package sink

import (
	"fmt"
	"io"
	"sync"

	"github.com/soyeahso/prodbot/internal/hooks"
	"github.com/soyeahso/prodbot/internal/logging"
)

// Sink subscribes itself to a hook manager. Sinks that hold connections
// also implement io.Closer.
type Sink interface {
	ID() string
	Attach(m *hooks.Manager)
}

// Registry attaches sinks in registration order and closes them in reverse.
type Registry struct {
	mu    sync.Mutex
	sinks []Sink
	ids   map[string]struct{}
	log   *logging.Logger
}

// NewRegistry creates an empty sink registry.
func NewRegistry(log *logging.Logger) *Registry {
	return &Registry{
		ids: make(map[string]struct{}),
		log: log.Sub("sinks"),
	}
}

// Register adds s. Duplicate IDs are rejected.
func (r *Registry) Register(s Sink) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.ids[s.ID()]; ok {
		return fmt.Errorf("sink already registered: %s", s.ID())
	}
	r.ids[s.ID()] = struct{}{}
	r.sinks = append(r.sinks, s)
	return nil
}

// AttachAll subscribes every registered sink to m.
func (r *Registry) AttachAll(m *hooks.Manager) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, s := range r.sinks {
		s.Attach(m)
		r.log.Info().Str("id", s.ID()).Msg("event sink attached")
	}
}

// CloseAll closes sinks that own resources, newest first. Errors are logged.
func (r *Registry) CloseAll() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := len(r.sinks) - 1; i >= 0; i-- {
		c, ok := r.sinks[i].(io.Closer)
		if !ok {
			continue
		}
		if err := c.Close(); err != nil {
			r.log.Error().Err(err).Str("id", r.sinks[i].ID()).Msg("sink close error")
		}
	}
}

// List returns sink IDs in registration order.
func (r *Registry) List() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]string, len(r.sinks))
	for i, s := range r.sinks {
		out[i] = s.ID()
	}
	return out
}
