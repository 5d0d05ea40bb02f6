package cli

import (
	"context"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/soyeahso/prodbot/internal/store"
	"github.com/spf13/cobra"
)

func newThreadsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "threads",
		Short: "Inspect checkpointed conversation threads",
	}

	cmd.AddCommand(newThreadsListCmd())
	cmd.AddCommand(newThreadsShowCmd())
	return cmd
}

// openCheckpoints opens the configured store without building an engine.
func openCheckpoints(ctx context.Context) (store.Checkpointer, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	if cfg.Checkpoint.Store == "memory" {
		log.Warn().Msg("checkpoint store is memory; threads do not outlive the process that wrote them")
	}
	if err := paths.EnsureDirs(); err != nil {
		return nil, err
	}
	return store.Open(ctx, cfg.Checkpoint, paths.CheckpointDB(cfg.Checkpoint), log)
}

func newThreadsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List threads, most recently updated first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cp, err := openCheckpoints(cmd.Context())
			if err != nil {
				return err
			}
			defer cp.Close()

			threads, err := cp.Threads(cmd.Context())
			if err != nil {
				return err
			}
			if len(threads) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No threads.")
				return nil
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "THREAD\tMESSAGES\tUPDATED")
			for _, t := range threads {
				fmt.Fprintf(tw, "%s\t%d\t%s\n", t.ID, t.Messages, t.UpdatedAt.Local().Format(time.DateTime))
			}
			return tw.Flush()
		},
	}
}

func newThreadsShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Print a thread's messages in order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cp, err := openCheckpoints(cmd.Context())
			if err != nil {
				return err
			}
			defer cp.Close()

			msgs, err := cp.Load(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if len(msgs) == 0 {
				return fmt.Errorf("thread %q has no messages", args[0])
			}

			out := cmd.OutOrStdout()
			for _, m := range msgs {
				label := string(m.Role)
				if m.Node != "" {
					label += "/" + m.Node
				}
				fmt.Fprintf(out, "[%s] %s\n", label, m.Content)
			}
			return nil
		},
	}
}
