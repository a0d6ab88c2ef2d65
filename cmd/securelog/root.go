package securelog

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	flagJSON          bool
	flagSARIF         bool
	flagThreads       int
	flagNoColor       bool
	flagLogLevel      string
	flagMetricsFile   string
	flagAuditLog      string
	flagNoUpdateCheck bool

	version = "0.1.0"
)

// rootCmd is the base Cobra command for the securelog CLI.
var rootCmd = &cobra.Command{
	Use:           "securelog",
	Short:         "Find and mask secrets in rendered pages and component trees",
	Long:          "securelog walks HTML documents and YAML component trees, reports values that match its secret patterns and can mask them in place.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		return setupLogging(flagLogLevel)
	},
}

// Execute runs the securelog CLI. It should be called by the main package.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(2)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "emit JSON")
	rootCmd.PersistentFlags().BoolVar(&flagSARIF, "sarif", false, "emit SARIF 2.1.0")
	rootCmd.PersistentFlags().IntVar(&flagThreads, "threads", 0, "files scanned concurrently (0 = GOMAXPROCS)")
	rootCmd.PersistentFlags().BoolVar(&flagNoColor, "no-color", false, "disable colorized output")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "warn", "log level: trace|debug|info|warn|error")
	rootCmd.PersistentFlags().StringVar(&flagMetricsFile, "metrics-file", "", "write Prometheus metrics in textfile format to this path")
	rootCmd.PersistentFlags().StringVar(&flagAuditLog, "audit-log", "", "append a JSONL audit record of each scan to this file")
	rootCmd.PersistentFlags().BoolVar(&flagNoUpdateCheck, "no-update-check", false, "disable update check")
}

// setupLogging points the global logger at stderr with the requested level.
func setupLogging(level string) error {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || lvl == zerolog.NoLevel {
		return fmt.Errorf("invalid log level %q", level)
	}
	zerolog.SetGlobalLevel(lvl)
	log.Logger = zerolog.New(zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.RFC3339,
		NoColor:    flagNoColor,
	}).With().Timestamp().Logger()
	return nil
}
