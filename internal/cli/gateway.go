package cli

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/soyeahso/prodbot/internal/channel"
	"github.com/soyeahso/prodbot/internal/channel/irc"
	"github.com/soyeahso/prodbot/internal/gateway"
	"github.com/soyeahso/prodbot/internal/routing"
	"github.com/spf13/cobra"
)

func newGatewayCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "gateway",
		Short: "Manage the prodbot gateway server",
	}

	cmd.AddCommand(newGatewayRunCmd())
	return cmd
}

func newGatewayRunCmd() *cobra.Command {
	var (
		port int
		bind string
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Serve the chat page, HTTP API, websocket RPC and configured channels",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("port") {
				cfg.Gateway.Port = port
			}
			if bind != "" {
				cfg.Gateway.Bind = bind
			}

			// Block until SIGINT/SIGTERM
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			rt, err := buildRuntime(ctx, cfg)
			if err != nil {
				return err
			}
			defer rt.Close()

			channels := channel.NewRegistry(log)
			if cfg.Channels.IRC != nil {
				channels.Register(irc.New(*cfg.Channels.IRC, log))
			}

			opts := []gateway.ServerOption{
				gateway.WithHooks(rt.hooks),
				gateway.WithMetrics(rt.metrics.Handler()),
				gateway.WithChannels(channels),
			}
			if channels.Count() > 0 {
				routerOpts := []routing.Option{routing.WithHooks(rt.hooks)}
				if cfg.Gateway.RunTimeout > 0 {
					routerOpts = append(routerOpts, routing.WithRunTimeout(time.Duration(cfg.Gateway.RunTimeout)*time.Second))
				}
				router := routing.NewRouter(channels, rt.engine, cfg.Session.Scope, log, routerOpts...)
				opts = append(opts, gateway.WithRouter(router))

				log.Info().
					Strs("channels", channels.List()).
					Str("scope", cfg.Session.Scope).
					Msg("message routing enabled")
			}

			return gateway.New(cfg, rt.engine, log, opts...).Start(ctx)
		},
	}

	cmd.Flags().IntVar(&port, "port", 0, "override gateway port (0 picks a free port)")
	cmd.Flags().StringVar(&bind, "bind", "", "override bind mode (auto, lan, loopback, custom)")

	return cmd
}
