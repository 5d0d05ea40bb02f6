package cli

import (
	"context"
	"fmt"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
)

func newAskCmd() *cobra.Command {
	var (
		threadID string
		showPath bool
	)

	cmd := &cobra.Command{
		Use:   "ask [question]",
		Short: "Ask the agent one question and print the answer",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			question := strings.TrimSpace(strings.Join(args, " "))
			if question == "" {
				return fmt.Errorf("question must not be empty")
			}

			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			rt, err := buildRuntime(ctx, cfg)
			if err != nil {
				return err
			}
			defer rt.Close()

			rt.engine.Initialize(ctx)
			defer func() {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				rt.engine.Shutdown(shutdownCtx)
			}()

			res, err := rt.engine.RunDetailed(ctx, question, threadID)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, res.Answer)
			if showPath {
				fmt.Fprintf(out, "\nthread: %s\npath:   %s\ntook:   %s\n",
					res.ThreadID, strings.Join(res.Path, " -> "), res.Duration.Round(time.Millisecond))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&threadID, "thread", "", "conversation thread (default from agent.defaultThread)")
	cmd.Flags().BoolVar(&showPath, "path", false, "print the thread, node path and duration after the answer")

	return cmd
}
