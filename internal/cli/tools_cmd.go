package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func newToolsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tools",
		Short: "Inspect the tools exposed by configured MCP servers",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "Connect to every MCP server and print the tool names",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			rt, err := buildRuntime(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer rt.Close()

			rt.engine.Initialize(cmd.Context())
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				rt.engine.Shutdown(ctx)
			}()

			names := rt.engine.Tools()
			out := cmd.OutOrStdout()
			if len(names) == 0 {
				fmt.Fprintln(out, "No tools loaded.")
				return nil
			}
			for _, n := range names {
				fmt.Fprintln(out, n)
			}
			return nil
		},
	})

	return cmd
}
