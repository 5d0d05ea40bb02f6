package cli

import (
	"github.com/soyeahso/prodbot/internal/config"
	"github.com/soyeahso/prodbot/internal/logging"
	"github.com/spf13/cobra"
)

var (
	cfgFile  string
	logLevel string

	// loaded at init time
	paths    config.Paths
	log      *logging.Logger
	closeLog = func() error { return nil }
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prodbot",
		Short: "prodbot - product question answering agent",
		Long: "prodbot answers product questions by routing each query between a language model, " +
			"a product catalog retriever and web search, rewriting poorly grounded queries until an answer is found.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			paths, err = config.ResolvePaths()
			if err != nil {
				return err
			}
			if cfgFile != "" {
				paths.Config = cfgFile
			}
			if err := config.LoadEnvFiles(paths.Base); err != nil {
				return err
			}

			// The log file and style come from config; a broken file still
			// gets a console logger so the error can be reported.
			opts := logging.Options{Level: "info"}
			if cfg, err := config.Load(paths.Config); err == nil {
				opts = logging.Options{
					Level: cfg.Logging.Level,
					Style: cfg.Logging.ConsoleStyle,
					File:  cfg.Logging.File,
				}
			}
			if logLevel != "" {
				opts.Level = logLevel
			}
			log, closeLog, err = logging.Open(opts)
			return err
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return closeLog()
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default ~/.prodbot/config.yaml)")
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (trace, debug, info, warn, error, fatal, silent)")

	cmd.AddCommand(newVersionCmd())
	cmd.AddCommand(newStatusCmd())
	cmd.AddCommand(newConfigCmd())
	cmd.AddCommand(newAskCmd())
	cmd.AddCommand(newGatewayCmd())
	cmd.AddCommand(newThreadsCmd())
	cmd.AddCommand(newToolsCmd())

	return cmd
}

// Execute runs the root command.
func Execute() error {
	return newRootCmd().Execute()
}
