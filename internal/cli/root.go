// Package cli wires the enrich commands together.
package cli

import (
	"context"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	verbose bool
	jsonLog bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:     "enrich",
	Short:   "Enrich player records with social profile metrics",
	Long: `Enrich locates each player's Instagram profile via web search,
scrapes follower and engagement metrics, and reconciles them into the
application database.`,
	Version: "0.1.0",
}

// Execute runs the CLI. The context carries signal cancellation from main.
func Execute(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&jsonLog, "json-log", false, "write logs as JSON")
	rootCmd.PersistentFlags().String("user-agent", "", "user agent for HTTP fetches")
	rootCmd.PersistentFlags().String("timeout", "", "per-request timeout (e.g. 30s)")
	rootCmd.PersistentFlags().String("database-url", "", "postgres connection string")

	cobra.OnInitialize(initLogging)
}

func initLogging() {
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	if env := os.Getenv("ENRICH_LOG_LEVEL"); env != "" && !verbose {
		if parsed, err := zerolog.ParseLevel(strings.ToLower(env)); err == nil {
			level = parsed
		}
	}
	zerolog.SetGlobalLevel(level)

	if jsonLog {
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	} else {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}
}
