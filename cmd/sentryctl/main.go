// Package main implements sentryctl, the read-only operator CLI for the
// governance core's audit trail. It never writes to an audit log and
// never consumes a token or confirmation — every subcommand here is an
// inspection tool, not a governance participant.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	verbose bool
	logger  *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "sentryctl",
	Short: "Read-only inspection tooling for the governance audit trail",
	Long: `sentryctl inspects the governance core's audit log and tokens from
outside the running process. It is strictly read-only: it cannot append
a record, consume a token, or issue a confirmation.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg := zap.NewProductionConfig()
		if verbose {
			cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
			cfg.Encoding = "console"
			cfg.EncoderConfig = zap.NewDevelopmentEncoderConfig()
		}
		l, err := cfg.Build()
		if err != nil {
			return fmt.Errorf("sentryctl: initialize logger: %w", err)
		}
		logger = l
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	auditCmd.AddCommand(auditVerifyCmd, auditExportCmd, auditTailCmd)
	tokenCmd.AddCommand(tokenInspectCmd)
	rootCmd.AddCommand(auditCmd, tokenCmd)
}

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Inspect a persisted audit log",
}

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Inspect a token or batch of tokens",
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
