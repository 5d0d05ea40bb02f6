// Package tools holds the named capabilities the agent can invoke and
// discovers them from MCP servers.
package tools

import (
	"context"
	"sort"
	"sync"
)

// Well-known tool names used by the agent graph.
const (
	ProductInfo = "get_product_info"
	WebSearch   = "web_search"
)

// Tool is anything that answers a text query with text.
type Tool interface {
	Name() string
	Invoke(ctx context.Context, query string) (string, error)
}

// Func adapts a plain function into a Tool.
type Func struct {
	ToolName string
	Fn       func(ctx context.Context, query string) (string, error)
}

func (f Func) Name() string { return f.ToolName }

func (f Func) Invoke(ctx context.Context, query string) (string, error) {
	return f.Fn(ctx, query)
}

// Registry maps tool names to tools. It is filled during startup and read
// concurrently by agent runs.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]Tool
}

// NewRegistry creates an empty tool registry.
func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]Tool)}
}

// Register adds a tool. It reports false and keeps the existing entry when
// the name is already taken.
func (r *Registry) Register(t Tool) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.tools[t.Name()]; exists {
		return false
	}
	r.tools[t.Name()] = t
	return true
}

// Lookup finds a tool by exact name.
func (r *Registry) Lookup(name string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tools[name]
	return t, ok
}

// Names returns registered tool names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of registered tools.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tools)
}

// Clear removes every tool.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tools = make(map[string]Tool)
}
