package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/soyeahso/prodbot/internal/config"
	"github.com/soyeahso/prodbot/internal/version"
	"github.com/spf13/cobra"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show prodbot paths and a configuration summary",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "prodbot %s (commit %s)\n\n", version.Version, version.Commit)

			fmt.Fprintf(out, "Config:     %s\n", paths.Config)
			fmt.Fprintf(out, "Data:       %s\n", paths.Data)
			fmt.Fprintf(out, "Logs:       %s\n", paths.Logs)
			fmt.Fprintln(out)

			cfg, err := config.Load(paths.Config)
			if err != nil {
				fmt.Fprintf(out, "Config:     error loading: %v\n", err)
				return nil
			}

			fmt.Fprintf(out, "Gateway:    port=%d bind=%s auth=%s tls=%v\n",
				cfg.Gateway.Port, cfg.Gateway.Bind, cfg.Gateway.Auth.Mode, cfg.Gateway.TLS.Enabled)

			model := cfg.Models.Model
			if model == "" {
				model = "(provider default)"
			}
			fmt.Fprintf(out, "Model:      provider=%s model=%s", cfg.Models.Provider, model)
			if len(cfg.Models.Fallbacks) > 0 {
				fmt.Fprintf(out, " fallbacks=%s", strings.Join(cfg.Models.Fallbacks, ","))
			}
			fmt.Fprintln(out)

			fmt.Fprintf(out, "Agent:      thread=%s keywords=%s\n",
				cfg.Agent.DefaultThread, strings.Join(cfg.Agent.Keywords, ","))

			servers := make([]string, 0, len(cfg.MCP.Servers))
			for name, srv := range cfg.MCP.Servers {
				servers = append(servers, name+"("+srv.Transport+")")
			}
			sort.Strings(servers)
			if len(servers) > 0 {
				fmt.Fprintf(out, "MCP:        %s\n", strings.Join(servers, ", "))
			} else {
				fmt.Fprintln(out, "MCP:        (no servers)")
			}

			cp := cfg.Checkpoint.Store
			switch cp {
			case "sqlite":
				cp += " " + paths.CheckpointDB(cfg.Checkpoint)
			case "redis":
				cp += " prefix=" + cfg.Checkpoint.KeyPrefix
			}
			fmt.Fprintf(out, "Checkpoint: %s\n", cp)

			if cfg.Events.NATSURL != "" {
				fmt.Fprintf(out, "Events:     nats subject=%s\n", cfg.Events.Subject)
			}

			if irc := cfg.Channels.IRC; irc != nil {
				fmt.Fprintf(out, "IRC:        server=%s nick=%s channels=%s tls=%v scope=%s\n",
					irc.Server, irc.Nick, strings.Join(irc.Channels, ","), irc.UseTLS, cfg.Session.Scope)
			} else {
				fmt.Fprintln(out, "IRC:        (not configured)")
			}

			if issues := config.Validate(&cfg); len(issues) > 0 {
				fmt.Fprintf(out, "\nValidation issues (%d):\n", len(issues))
				for _, issue := range issues {
					fmt.Fprintf(out, "  - %s\n", issue)
				}
			}
			return nil
		},
	}
}
