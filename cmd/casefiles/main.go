package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/danielpatrickdp/casefiles/internal/config"
	"github.com/danielpatrickdp/casefiles/internal/logging"
)

var (
	cfg    config.Config
	logger = zap.NewNop()

	dbPath   string
	logLevel string
	logDev   bool
)

// #region root
var rootCmd = &cobra.Command{
	Use:   "casefiles",
	Short: "Detective case engine: gated hypotheses, contradictions, scoring",
	Long: `casefiles runs investigation cases described in YAML.

Collecting evidence and spending resources unlocks tier-2 hypotheses once
their requirement trees are satisfied; conflicting evidence surfaces
contradictions to resolve; closing the case scores the investigation.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load()
		if err != nil {
			return err
		}
		flags := cmd.Flags()
		if flags.Changed("db") {
			cfg.DBPath = dbPath
		}
		if flags.Changed("log-level") {
			cfg.LogLevel = logLevel
		}
		if flags.Changed("log-dev") {
			cfg.LogDev = logDev
		}

		logger, err = logging.NewLogger(cfg.LogLevel, cfg.LogDev)
		if err != nil {
			return err
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&dbPath, "db", "", "SQLite database path (env CASEFILES_DB)")
	pf.StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error (env CASEFILES_LOG_LEVEL)")
	pf.BoolVar(&logDev, "log-dev", false, "human-readable console logs (env CASEFILES_LOG_DEV)")

	rootCmd.AddCommand(validateCmd, playCmd, inspectCmd, replayCmd, exportCmd, narratorCmd)
}

// #endregion root

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
