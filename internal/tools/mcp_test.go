package tools

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soyeahso/prodbot/internal/config"
	"github.com/soyeahso/prodbot/internal/logging"
)

func silentLog() *logging.Logger { return logging.New(nil, "silent") }

// testServer exposes get_product_info (echoes the query) and web_search
// (always fails).
func testServer() *server.MCPServer {
	s := server.NewMCPServer("hybrid_search", "test", server.WithToolCapabilities(true))
	s.AddTool(mcp.NewTool(ProductInfo, mcp.WithString("query", mcp.Required())),
		func(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			q := req.GetString("query", "")
			if q == "nothing" {
				return mcp.NewToolResultText(""), nil
			}
			return mcp.NewToolResultText("catalog: " + q), nil
		})
	s.AddTool(mcp.NewTool(WebSearch, mcp.WithString("query", mcp.Required())),
		func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return mcp.NewToolResultError("search failed: quota exceeded"), nil
		})
	return s
}

// inProcessDialer serves every server name listed in ok from testServer and
// fails the rest.
func inProcessDialer(ok ...string) Dialer {
	allowed := map[string]bool{}
	for _, n := range ok {
		allowed[n] = true
	}
	return func(ctx context.Context, name string, _ config.MCPServerConfig) (*client.Client, error) {
		if !allowed[name] {
			return nil, errors.New("connection refused")
		}
		c, err := client.NewInProcessClient(testServer())
		if err != nil {
			return nil, err
		}
		if err := c.Start(ctx); err != nil {
			return nil, err
		}
		return c, nil
	}
}

func servers(names ...string) map[string]config.MCPServerConfig {
	out := map[string]config.MCPServerConfig{}
	for _, n := range names {
		out[n] = config.MCPServerConfig{Transport: "streamable_http", URL: "http://unused/mcp"}
	}
	return out
}

func TestLoader_LoadRegistersTools(t *testing.T) {
	reg := NewRegistry()
	l := NewLoader(servers("hybrid_search"), reg, silentLog(), WithDialer(inProcessDialer("hybrid_search")))

	require.NoError(t, l.Load(context.Background()))
	defer l.Close()

	assert.Equal(t, []string{"get_product_info", "web_search"}, reg.Names())
	assert.Equal(t, []string{"hybrid_search"}, l.Connected())
}

func TestLoader_InvokeJoinsText(t *testing.T) {
	reg := NewRegistry()
	l := NewLoader(servers("hybrid_search"), reg, silentLog(), WithDialer(inProcessDialer("hybrid_search")))
	require.NoError(t, l.Load(context.Background()))
	defer l.Close()

	tool, ok := reg.Lookup(ProductInfo)
	require.True(t, ok)
	out, err := tool.Invoke(context.Background(), "iPhone 16")
	require.NoError(t, err)
	assert.Equal(t, "catalog: iPhone 16", out)

	out, err = tool.Invoke(context.Background(), "nothing")
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestLoader_ToolErrorBecomesError(t *testing.T) {
	reg := NewRegistry()
	l := NewLoader(servers("hybrid_search"), reg, silentLog(), WithDialer(inProcessDialer("hybrid_search")))
	require.NoError(t, l.Load(context.Background()))
	defer l.Close()

	tool, ok := reg.Lookup(WebSearch)
	require.True(t, ok)
	_, err := tool.Invoke(context.Background(), "anything")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "quota exceeded")
}

func TestLoader_PartialFailure(t *testing.T) {
	reg := NewRegistry()
	l := NewLoader(servers("hybrid_search", "offline"), reg, silentLog(),
		WithDialer(inProcessDialer("hybrid_search")), WithTimeout(time.Second))

	err := l.Load(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "offline")
	assert.Equal(t, 2, reg.Len(), "healthy server still registers its tools")
	assert.Equal(t, []string{"hybrid_search"}, l.Connected())
	require.NoError(t, l.Close())
}

func TestLoader_Idempotent(t *testing.T) {
	reg := NewRegistry()
	dials := 0
	base := inProcessDialer("hybrid_search")
	counting := func(ctx context.Context, name string, cfg config.MCPServerConfig) (*client.Client, error) {
		dials++
		return base(ctx, name, cfg)
	}
	l := NewLoader(servers("hybrid_search"), reg, silentLog(), WithDialer(counting))

	require.NoError(t, l.Load(context.Background()))
	require.NoError(t, l.Load(context.Background()))
	defer l.Close()

	assert.Equal(t, 1, dials)
	assert.Equal(t, 2, reg.Len())
}

func TestLoader_CloseClearsRegistry(t *testing.T) {
	reg := NewRegistry()
	l := NewLoader(servers("hybrid_search"), reg, silentLog(), WithDialer(inProcessDialer("hybrid_search")))
	require.NoError(t, l.Load(context.Background()))

	require.NoError(t, l.Close())
	assert.Equal(t, 0, reg.Len())
	assert.Empty(t, l.Connected())
	assert.NoError(t, l.Close(), "second close is a no-op")
}

func TestLoader_NoServers(t *testing.T) {
	reg := NewRegistry()
	l := NewLoader(nil, reg, silentLog())
	assert.NoError(t, l.Load(context.Background()))
	assert.Equal(t, 0, reg.Len())
}

func TestDialMCP_UnknownTransport(t *testing.T) {
	_, err := DialMCP(context.Background(), "x", config.MCPServerConfig{Transport: "carrier-pigeon"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "carrier-pigeon")
}
