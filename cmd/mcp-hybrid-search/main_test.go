package main

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soyeahso/prodbot/internal/logging"
)

func TestDefaultCatalog(t *testing.T) {
	cat, err := LoadCatalog("")
	require.NoError(t, err)
	assert.Equal(t, 5, cat.Len())
}

func TestCatalogSearch(t *testing.T) {
	cat, err := LoadCatalog("")
	require.NoError(t, err)

	hits := cat.Search("What is the price of iPhone 16?", 3)
	require.NotEmpty(t, hits)
	assert.Equal(t, "iPhone 16", hits[0].Name)

	assert.Empty(t, cat.Search("product review", 3), "generic words alone match nothing")
	assert.Empty(t, cat.Search("capital of France", 3))
}

func TestCatalogSearch_Limit(t *testing.T) {
	cat, err := LoadCatalog("")
	require.NoError(t, err)
	assert.Len(t, cat.Search("android smartphone phone", 2), 2)
}

func TestFormat(t *testing.T) {
	out := Format([]Product{{Name: "iPhone 16", Price: 799, Rating: 4.5}})
	assert.Equal(t, "iPhone 16: $799, 4.5 stars", out)

	out = Format([]Product{{Name: "Kettle", Price: 19.5, Currency: "EUR"}})
	assert.Equal(t, "Kettle: 19.50 EUR", out)

	assert.Empty(t, Format(nil))
}

func TestParseCatalog_Invalid(t *testing.T) {
	_, err := ParseCatalog([]byte("products: [unclosed"))
	assert.Error(t, err)
}

func TestBraveSearch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "key-1", r.Header.Get("X-Subscription-Token"))
		assert.Equal(t, "best phone 2026", r.URL.Query().Get("q"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"query":{"original":"best phone 2026"},"web":{"results":[
			{"title":"Phone roundup","url":"https://example.com/phones","description":"The best phones."}]}}`))
	}))
	defer srv.Close()

	b := NewBraveSearch("key-1")
	b.BaseURL = srv.URL
	out, err := b.Search(context.Background(), "best phone 2026")
	require.NoError(t, err)
	assert.Contains(t, out, "1. Phone roundup")
	assert.Contains(t, out, "URL: https://example.com/phones")
}

func TestBraveSearch_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	b := NewBraveSearch("key-1")
	b.BaseURL = srv.URL
	_, err := b.Search(context.Background(), "q")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 429")
}

func TestBraveSearch_NoKey(t *testing.T) {
	_, err := NewBraveSearch("").Search(context.Background(), "q")
	assert.ErrorIs(t, err, errNoAPIKey)
}

type stubSearch struct {
	out string
	err error
}

func (s stubSearch) Search(context.Context, string) (string, error) { return s.out, s.err }

func connect(t *testing.T, web searcher) *client.Client {
	t.Helper()
	cat, err := LoadCatalog("")
	require.NoError(t, err)

	c, err := client.NewInProcessClient(newServer(cat, web, logging.New(nil, "silent")))
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })

	ctx := context.Background()
	require.NoError(t, c.Start(ctx))
	init := mcp.InitializeRequest{}
	init.Params.ProtocolVersion = "2024-11-05"
	init.Params.ClientInfo = mcp.Implementation{Name: "test", Version: "0"}
	_, err = c.Initialize(ctx, init)
	require.NoError(t, err)
	return c
}

func call(t *testing.T, c *client.Client, name, query string) *mcp.CallToolResult {
	t.Helper()
	req := mcp.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = map[string]any{"query": query}
	res, err := c.CallTool(context.Background(), req)
	require.NoError(t, err)
	return res
}

func text(res *mcp.CallToolResult) string {
	for _, c := range res.Content {
		if tc, ok := c.(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func TestServer_ListTools(t *testing.T) {
	c := connect(t, stubSearch{})
	list, err := c.ListTools(context.Background(), mcp.ListToolsRequest{})
	require.NoError(t, err)

	var names []string
	for _, tool := range list.Tools {
		names = append(names, tool.Name)
	}
	assert.ElementsMatch(t, []string{"get_product_info", "web_search"}, names)
}

func TestServer_ProductInfo(t *testing.T) {
	c := connect(t, stubSearch{})
	res := call(t, c, "get_product_info", "What is the price of iPhone 16?")
	assert.False(t, res.IsError)
	assert.Contains(t, text(res), "iPhone 16: $799, 4.5 stars")
}

func TestServer_WebSearch(t *testing.T) {
	c := connect(t, stubSearch{out: "1. Result"})
	res := call(t, c, "web_search", "anything")
	assert.False(t, res.IsError)
	assert.Equal(t, "1. Result", text(res))
}

func TestServer_WebSearchError(t *testing.T) {
	c := connect(t, stubSearch{err: errors.New("upstream down")})
	res := call(t, c, "web_search", "anything")
	assert.True(t, res.IsError)
	assert.Contains(t, text(res), "upstream down")
}
