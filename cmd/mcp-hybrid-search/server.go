package main

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/soyeahso/prodbot/internal/logging"
	"github.com/soyeahso/prodbot/internal/tools"
	"github.com/soyeahso/prodbot/internal/version"
)

const serverName = "hybrid_search"

// searcher is the web search backend.
type searcher interface {
	Search(ctx context.Context, query string) (string, error)
}

type handlers struct {
	catalog *Catalog
	web     searcher
	log     *logging.Logger
}

// newServer registers get_product_info and web_search on a fresh MCP server.
func newServer(catalog *Catalog, web searcher, log *logging.Logger) *server.MCPServer {
	h := &handlers{catalog: catalog, web: web, log: log}

	s := server.NewMCPServer(serverName, version.Version, server.WithToolCapabilities(true))
	s.AddTool(mcp.NewTool(tools.ProductInfo,
		mcp.WithDescription("Look up products in the catalog: prices, ratings and reviews."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Product question or name")),
	), h.productInfo)
	s.AddTool(mcp.NewTool(tools.WebSearch,
		mcp.WithDescription("Search the web and return titles, URLs and snippets."),
		mcp.WithString("query", mcp.Required(), mcp.Description("The search query")),
	), h.webSearch)
	return s
}

func (h *handlers) productInfo(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	matches := h.catalog.Search(query, 3)
	h.log.Debug().Str("query", query).Int("matches", len(matches)).Msg("product lookup")
	return mcp.NewToolResultText(Format(matches)), nil
}

func (h *handlers) webSearch(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	results, err := h.web.Search(ctx, query)
	if err != nil {
		h.log.Warn().Err(err).Str("query", query).Msg("web search failed")
		return mcp.NewToolResultError("search failed: " + err.Error()), nil
	}
	return mcp.NewToolResultText(results), nil
}
