package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/smallbiznis/customerdesk/internal/client"
	"github.com/smallbiznis/customerdesk/internal/client/scenario"
	"github.com/smallbiznis/customerdesk/internal/observability/logger"
)

const (
	envBaseURL     = "CUSTOMERDESK_URL"
	envAPIKey      = "API_KEY"
	defaultBaseURL = "http://localhost:8080"
)

var errUnexpectedFailures = errors.New("some scenarios failed unexpectedly")

type Flags struct {
	BaseURL   string
	APIKey    string
	Timeout   time.Duration
	LogLevel  string
	LogFormat string
}

var (
	flags   Flags
	version = "dev"
)

var rootCmd = &cobra.Command{
	Use:   "customerdesk-client",
	Short: "Console client for the customerdesk API",
	Long: `Runs a fixed sequence of calls against a customerdesk server: it lists
and creates customers, adds invoices and phone numbers, and deletes the
customer again. Several calls are meant to fail and are reported as
expected failures with the server's problem details.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runScenarios(cmd.Context(), flags)
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "customerdesk-client %s\n", version)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flags.BaseURL, "base-url", envOr(envBaseURL, defaultBaseURL), "API base URL (env "+envBaseURL+")")
	rootCmd.PersistentFlags().StringVar(&flags.APIKey, "api-key", os.Getenv(envAPIKey), "API key sent on delete requests (env "+envAPIKey+")")
	rootCmd.PersistentFlags().DurationVar(&flags.Timeout, "timeout", 10*time.Second, "per-request timeout")
	rootCmd.PersistentFlags().StringVar(&flags.LogLevel, "log-level", "info", "log level")
	rootCmd.PersistentFlags().StringVar(&flags.LogFormat, "log-format", "console", "log format: console or json")

	rootCmd.AddCommand(versionCmd)
}

func runScenarios(ctx context.Context, f Flags) error {
	log, err := logger.New(nil, logger.Config{
		ServiceName: "customerdesk-client",
		Version:     version,
		Level:       f.LogLevel,
		Format:      f.LogFormat,
	})
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	c, err := client.New(client.Config{BaseURL: f.BaseURL, APIKey: f.APIKey, Timeout: f.Timeout}, log)
	if err != nil {
		return err
	}
	if f.APIKey == "" {
		log.Warn("no api key configured, delete calls will be rejected")
	}

	log.Info("running scenarios", zap.String("base_url", f.BaseURL))
	report := scenario.NewRunner(c, f.APIKey, log).Run(ctx)
	if report.Failed() {
		return fmt.Errorf("%w: %d", errUnexpectedFailures, report.Unexpected)
	}
	return nil
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func SetVersion(v string) {
	version = v
}

// Execute runs the root command until it finishes or the process is
// interrupted.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func Root() *cobra.Command {
	return rootCmd
}
