package tools

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/soyeahso/prodbot/internal/config"
	"github.com/soyeahso/prodbot/internal/logging"
	"github.com/soyeahso/prodbot/internal/version"
)

// Dialer opens an unstarted or started MCP client for one configured server.
type Dialer func(ctx context.Context, name string, cfg config.MCPServerConfig) (*client.Client, error)

// DialMCP connects to a server using the transport named in cfg. Long-lived
// transport streams are detached from ctx cancellation; ctx still carries
// values.
func DialMCP(ctx context.Context, name string, cfg config.MCPServerConfig) (*client.Client, error) {
	ctx = context.WithoutCancel(ctx)
	switch cfg.Transport {
	case "stdio":
		env := make([]string, 0, len(cfg.Env))
		for k, v := range cfg.Env {
			env = append(env, k+"="+v)
		}
		// The stdio client spawns its subprocess on construction.
		return client.NewStdioMCPClient(cfg.Command, env, cfg.Args...)
	case "sse":
		c, err := client.NewSSEMCPClient(cfg.URL)
		if err != nil {
			return nil, err
		}
		if err := c.Start(ctx); err != nil {
			return nil, fmt.Errorf("starting sse transport: %w", err)
		}
		return c, nil
	case "streamable_http", "":
		c, err := client.NewStreamableHttpClient(cfg.URL)
		if err != nil {
			return nil, err
		}
		if err := c.Start(ctx); err != nil {
			return nil, fmt.Errorf("starting http transport: %w", err)
		}
		return c, nil
	default:
		return nil, fmt.Errorf("unsupported MCP transport %q for server %s", cfg.Transport, name)
	}
}

// Loader discovers tools from MCP servers and registers them.
type Loader struct {
	servers  map[string]config.MCPServerConfig
	registry *Registry
	timeout  time.Duration
	dial     Dialer
	log      *logging.Logger

	mu      sync.Mutex
	clients map[string]*client.Client
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithDialer replaces the transport dialer.
func WithDialer(d Dialer) LoaderOption {
	return func(l *Loader) { l.dial = d }
}

// WithTimeout bounds connect and discovery per server.
func WithTimeout(d time.Duration) LoaderOption {
	return func(l *Loader) { l.timeout = d }
}

// NewLoader creates a loader that fills registry from servers.
func NewLoader(servers map[string]config.MCPServerConfig, registry *Registry, log *logging.Logger, opts ...LoaderOption) *Loader {
	l := &Loader{
		servers:  servers,
		registry: registry,
		timeout:  30 * time.Second,
		dial:     DialMCP,
		log:      log.Sub("mcp"),
		clients:  make(map[string]*client.Client),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load connects to every configured server not yet connected and registers
// its tools. A failing server is logged and skipped; the joined failures are
// returned so callers can report them. Calling Load again retries only the
// servers that failed.
func (l *Loader) Load(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	names := make([]string, 0, len(l.servers))
	for name := range l.servers {
		names = append(names, name)
	}
	sort.Strings(names)

	var errs []error
	for _, name := range names {
		if _, ok := l.clients[name]; ok {
			continue
		}
		n, err := l.loadServer(ctx, name, l.servers[name])
		if err != nil {
			l.log.Warn().Err(err).Str("server", name).Msg("MCP server unavailable")
			errs = append(errs, fmt.Errorf("server %s: %w", name, err))
			continue
		}
		l.log.Info().Str("server", name).Int("tools", n).Msg("MCP server connected")
	}
	return errors.Join(errs...)
}

func (l *Loader) loadServer(ctx context.Context, name string, cfg config.MCPServerConfig) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	c, err := l.dial(ctx, name, cfg)
	if err != nil {
		return 0, fmt.Errorf("connecting: %w", err)
	}

	initReq := mcp.InitializeRequest{}
	initReq.Params.ClientInfo = mcp.Implementation{Name: "prodbot", Version: version.Version}
	initReq.Params.ProtocolVersion = "2024-11-05"
	if _, err := c.Initialize(ctx, initReq); err != nil {
		c.Close()
		return 0, fmt.Errorf("initializing: %w", err)
	}

	list, err := c.ListTools(ctx, mcp.ListToolsRequest{})
	if err != nil {
		c.Close()
		return 0, fmt.Errorf("listing tools: %w", err)
	}

	registered := 0
	for _, t := range list.Tools {
		if !l.registry.Register(&mcpTool{client: c, server: name, name: t.Name}) {
			l.log.Warn().Str("server", name).Str("tool", t.Name).Msg("duplicate tool name ignored")
			continue
		}
		registered++
	}
	l.clients[name] = c
	return registered, nil
}

// Connected returns the names of servers with a live session.
func (l *Loader) Connected() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	names := make([]string, 0, len(l.clients))
	for name := range l.clients {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Close ends every MCP session and empties the registry.
func (l *Loader) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	var errs []error
	for name, c := range l.clients {
		if err := c.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing %s: %w", name, err))
		}
	}
	l.clients = make(map[string]*client.Client)
	l.registry.Clear()
	return errors.Join(errs...)
}

// mcpTool invokes a remote MCP tool with a single "query" argument.
type mcpTool struct {
	client *client.Client
	server string
	name   string
}

func (t *mcpTool) Name() string { return t.name }

func (t *mcpTool) Invoke(ctx context.Context, query string) (string, error) {
	req := mcp.CallToolRequest{}
	req.Params.Name = t.name
	req.Params.Arguments = map[string]any{"query": query}

	resp, err := t.client.CallTool(ctx, req)
	if err != nil {
		return "", fmt.Errorf("MCP call %s/%s: %w", t.server, t.name, err)
	}
	text := resultText(resp)
	if resp.IsError {
		if text == "" {
			text = "unknown error"
		}
		return "", fmt.Errorf("tool %s: %s", t.name, text)
	}
	return text, nil
}

// resultText joins the text parts of a tool result.
func resultText(resp *mcp.CallToolResult) string {
	var parts []string
	for _, content := range resp.Content {
		if tc, ok := content.(mcp.TextContent); ok {
			parts = append(parts, tc.Text)
		}
	}
	return strings.Join(parts, "\n")
}
