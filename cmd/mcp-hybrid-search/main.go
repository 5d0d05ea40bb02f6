// Command mcp-hybrid-search is an MCP server exposing product catalog
// lookup and Brave web search.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/soyeahso/prodbot/internal/logging"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var (
		transport string
		addr      string
		catalog   string
		logLevel  string
	)

	cmd := &cobra.Command{
		Use:          "mcp-hybrid-search",
		Short:        "MCP server for product lookup and web search",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			// stdout carries the stdio protocol; logs go to stderr only.
			log := logging.New(nil, logLevel).Sub("mcp-hybrid-search")

			cat, err := LoadCatalog(catalog)
			if err != nil {
				return err
			}
			srv := newServer(cat, NewBraveSearch(os.Getenv("BRAVE_API_KEY")), log)
			log.Info().Int("products", cat.Len()).Str("transport", transport).Msg("server starting")

			switch transport {
			case "stdio":
				return server.ServeStdio(srv)
			case "http":
				return serveHTTP(cmd.Context(), srv, addr, log)
			default:
				return fmt.Errorf("unknown transport %q (want stdio or http)", transport)
			}
		},
	}

	cmd.Flags().StringVar(&transport, "transport", "http", "transport: stdio or http")
	cmd.Flags().StringVar(&addr, "addr", ":8000", "listen address for the http transport (endpoint /mcp)")
	cmd.Flags().StringVar(&catalog, "catalog", os.Getenv("PRODUCT_CATALOG"), "product catalog YAML (default: built-in)")
	cmd.Flags().StringVar(&logLevel, "log-level", "info", "log level")
	return cmd
}

func serveHTTP(ctx context.Context, srv *server.MCPServer, addr string, log *logging.Logger) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	httpSrv := server.NewStreamableHTTPServer(srv)
	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Msg("listening on /mcp")
		errCh <- httpSrv.Start(addr)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	log.Info().Msg("shutting down")
	return httpSrv.Shutdown(shutdownCtx)
}
