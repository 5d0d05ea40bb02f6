// Package agent runs the product-question graph: it routes each turn
// through direct answering, retrieval, grading, rewriting and web search,
// and checkpoints every step per thread.
package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/soyeahso/prodbot/internal/config"
	"github.com/soyeahso/prodbot/internal/domain"
	"github.com/soyeahso/prodbot/internal/hooks"
	"github.com/soyeahso/prodbot/internal/llm"
	"github.com/soyeahso/prodbot/internal/logging"
	"github.com/soyeahso/prodbot/internal/prompts"
	"github.com/soyeahso/prodbot/internal/store"
	"github.com/soyeahso/prodbot/internal/tools"
)

// ToolSource resolves tools by exact name. *tools.Registry implements it.
type ToolSource interface {
	Lookup(name string) (tools.Tool, bool)
	Names() []string
}

// Lifecycle populates and releases the tool source. *tools.Loader
// implements it.
type Lifecycle interface {
	Load(ctx context.Context) error
	Close() error
}

// Result describes a completed turn.
type Result struct {
	Answer   string           `json:"answer"`
	ThreadID string           `json:"threadId"`
	Path     []string         `json:"path"`
	Messages []domain.Message `json:"messages"`
	Duration time.Duration    `json:"duration"`
}

// Engine executes agent turns. It is safe for concurrent use across
// threads; concurrent turns on the same thread are not serialized.
type Engine struct {
	cfg         config.AgentConfig
	keywords    []string
	model       llm.Client
	tools       ToolSource
	checkpoints store.Checkpointer
	prompts     *prompts.Registry
	hooks       *hooks.Manager
	lifecycle   Lifecycle
	handlers    map[Node]handler
	log         *logging.Logger

	mu          sync.Mutex
	initialized bool
}

// Option configures an Engine.
type Option func(*Engine)

// WithLifecycle sets what Initialize and Shutdown drive.
func WithLifecycle(l Lifecycle) Option {
	return func(e *Engine) { e.lifecycle = l }
}

// WithHooks emits run and node events on m.
func WithHooks(m *hooks.Manager) Option {
	return func(e *Engine) { e.hooks = m }
}

// WithPrompts replaces the built-in prompt templates.
func WithPrompts(r *prompts.Registry) Option {
	return func(e *Engine) { e.prompts = r }
}

// New builds an engine. The tool source may be empty until Initialize.
func New(cfg config.AgentConfig, model llm.Client, toolSource ToolSource, checkpoints store.Checkpointer, log *logging.Logger, opts ...Option) *Engine {
	if cfg.DefaultThread == "" {
		cfg.DefaultThread = config.DefaultThread
	}
	keywords := cfg.Keywords
	if len(keywords) == 0 {
		keywords = config.DefaultKeywords
	}

	e := &Engine{
		cfg:         cfg,
		model:       model,
		tools:       toolSource,
		checkpoints: checkpoints,
		prompts:     prompts.NewRegistry(),
		log:         log.Sub("agent"),
	}
	for _, kw := range keywords {
		e.keywords = append(e.keywords, strings.ToLower(strings.TrimSpace(kw)))
	}
	for _, opt := range opts {
		opt(e)
	}
	e.handlers = e.handlerTable()
	return e
}

// Initialize loads tools through the lifecycle. It is idempotent and never
// fails: partial failures are logged and the engine runs with whatever
// tools loaded.
func (e *Engine) Initialize(ctx context.Context) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.lifecycle != nil {
		if err := e.lifecycle.Load(ctx); err != nil {
			e.log.Warn().Err(err).Msg("tool initialization incomplete")
		}
	}
	names := e.Tools()
	e.initialized = true
	e.log.Info().Strs("tools", names).Msg("agent initialized")
	e.hooks.Emit(ctx, hooks.EventToolsLoaded, map[string]any{"tools": names})
}

// Initialized reports whether Initialize has run since the last Shutdown.
func (e *Engine) Initialized() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.initialized
}

// Shutdown releases tool connections. Close errors and ctx expiry are
// logged, not returned. Callers must drain in-flight runs first.
func (e *Engine) Shutdown(ctx context.Context) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.initialized = false

	if e.lifecycle == nil {
		return
	}
	done := make(chan error, 1)
	go func() { done <- e.lifecycle.Close() }()
	select {
	case err := <-done:
		if err != nil {
			e.log.Warn().Err(err).Msg("error closing tool clients")
			return
		}
		e.log.Info().Msg("agent shut down")
	case <-ctx.Done():
		e.log.Warn().Err(ctx.Err()).Msg("shutdown interrupted before tool clients closed")
	}
}

// Tools returns the names of the currently loaded tools.
func (e *Engine) Tools() []string {
	if e.tools == nil {
		return nil
	}
	return e.tools.Names()
}

// Thread returns the persisted history of a thread.
func (e *Engine) Thread(ctx context.Context, threadID string) ([]domain.Message, error) {
	return e.checkpoints.Load(ctx, e.threadOr(threadID))
}

// Threads lists persisted threads.
func (e *Engine) Threads(ctx context.Context) ([]domain.ThreadInfo, error) {
	return e.checkpoints.Threads(ctx)
}

// Run executes one turn and returns the final answer. An empty threadID
// selects the configured default thread.
func (e *Engine) Run(ctx context.Context, query, threadID string) (string, error) {
	res, err := e.RunDetailed(ctx, query, threadID)
	if err != nil {
		return "", err
	}
	return res.Answer, nil
}

// RunDetailed executes one turn. The user message and each node's message
// are checkpointed as they are produced, so a failed run keeps everything
// written before the failure.
func (e *Engine) RunDetailed(ctx context.Context, query, threadID string) (*Result, error) {
	start := time.Now()
	thread := e.threadOr(threadID)
	res := &Result{ThreadID: thread}

	e.log.Debug().Str("thread", thread).Msg("run started")
	e.hooks.Emit(ctx, hooks.EventRunStart, map[string]any{"thread": thread})

	fail := func(node Node, err error) (*Result, error) {
		res.Duration = time.Since(start)
		e.log.Error().Err(err).Str("thread", thread).Str("node", node.String()).Strs("path", res.Path).Msg("run failed")
		e.hooks.Emit(ctx, hooks.EventRunError, map[string]any{
			"thread":     thread,
			"node":       node.String(),
			"path":       res.Path,
			"error":      err.Error(),
			"durationMs": res.Duration.Milliseconds(),
		})
		return nil, err
	}

	user := domain.Message{Role: domain.RoleUser, Content: query, Timestamp: time.Now()}
	if err := e.checkpoints.Append(ctx, thread, user); err != nil {
		return fail(End, fmt.Errorf("checkpoint: %w", err))
	}
	turn := []domain.Message{user}

	for node := Assistant; node != End; {
		if len(res.Path) == maxVisits {
			return fail(node, fmt.Errorf("agent: run exceeded %d node visits", maxVisits))
		}
		if err := ctx.Err(); err != nil {
			return fail(node, err)
		}

		nodeStart := time.Now()
		e.hooks.Emit(ctx, hooks.EventNodeEnter, map[string]any{"thread": thread, "node": node.String()})

		content, err := e.handlers[node](ctx, turn)
		if err != nil {
			var ne *NodeError
			if !errors.As(err, &ne) {
				err = &NodeError{Node: node, Err: err}
			}
			return fail(node, err)
		}

		msg := domain.Message{
			Role:      domain.RoleAssistant,
			Content:   content,
			Node:      node.String(),
			Timestamp: time.Now(),
		}
		turn = append(turn, msg)
		res.Path = append(res.Path, node.String())
		if err := e.checkpoints.Append(ctx, thread, msg); err != nil {
			return fail(node, fmt.Errorf("checkpoint: %w", err))
		}

		e.log.Debug().Str("thread", thread).Str("node", node.String()).Dur("duration", time.Since(nodeStart)).Msg("node visited")
		e.hooks.Emit(ctx, hooks.EventNodeExit, map[string]any{
			"thread":     thread,
			"node":       node.String(),
			"durationMs": time.Since(nodeStart).Milliseconds(),
		})

		node = e.next(ctx, thread, node, turn)
	}

	res.Answer = last(turn)
	res.Messages = turn[1:]
	res.Duration = time.Since(start)

	e.log.Info().
		Str("thread", thread).
		Strs("path", res.Path).
		Dur("duration", res.Duration).
		Msg("run complete")
	e.hooks.Emit(ctx, hooks.EventRunComplete, map[string]any{
		"thread":     thread,
		"path":       res.Path,
		"durationMs": res.Duration.Milliseconds(),
	})
	return res, nil
}

func (e *Engine) threadOr(id string) string {
	if id == "" {
		return e.cfg.DefaultThread
	}
	return id
}
