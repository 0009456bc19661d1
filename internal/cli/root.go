package cli

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/dshills/cadetprep/internal/assistant"
	"github.com/dshills/cadetprep/internal/cache"
	"github.com/dshills/cadetprep/internal/config"
	"github.com/dshills/cadetprep/internal/logging"
	"github.com/dshills/cadetprep/internal/metrics"
	"github.com/dshills/cadetprep/internal/output"
	"github.com/dshills/cadetprep/internal/server"
)

const version = "0.3.0"

// Exit codes.
const (
	ExitSuccess      = 0
	ExitUsageError   = 2
	ExitAuthError    = 3
	ExitRuntimeError = 4
)

var flagConfig string

var rootCmd = &cobra.Command{
	Use:   "cadetprep",
	Short: "Interview prep dashboard for airline cadet pilots",
	Long: "cadetprep serves airline reference data (fleet, destinations, training aircraft, " +
		"history, dictionary, news) and AI-generated interview insights with a response cache.",
	SilenceUsage: true,
}

// Run executes the root command and returns an exit code.
func Run() int {
	exitCode = ExitSuccess
	if err := rootCmd.Execute(); err != nil {
		// Cobra already prints the error
		return ExitUsageError
	}
	return exitCode
}

// exitCode is set by command handlers to control the process exit code.
var exitCode = ExitSuccess

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print cadetprep version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "cadetprep version %s\n", version)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Config file (default: OS config dir)/cadetprep/config.yaml")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(aiCmd)
	rootCmd.AddCommand(refCmd)
	rootCmd.AddCommand(cacheCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(modelsCmd)
	rootCmd.AddCommand(versionCmd)
}

// runtimeFailure reports err on stderr and sets the runtime exit code.
func runtimeFailure(cmd *cobra.Command, err error) {
	fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
	exitCode = ExitRuntimeError
}

func loadConfig(overrides map[string]string) (config.Config, error) {
	return config.Load(flagConfig, overrides)
}

// app is everything a command needs to produce AI content.
type app struct {
	cfg       config.Config
	log       zerolog.Logger
	store     cache.Store
	metrics   *metrics.Metrics
	assistant *assistant.Assistant
}

// openApp loads the effective config and builds the assistant on top of
// the configured cache backend. withMetrics adds a Prometheus registry.
func openApp(overrides map[string]string, withMetrics bool) (*app, error) {
	cfg, err := loadConfig(overrides)
	if err != nil {
		return nil, err
	}
	log, err := logging.New(cfg.Log, os.Stderr)
	if err != nil {
		return nil, err
	}
	store, err := cache.OpenStore(cfg.Cache.Backend, cfg.Cache.Dir)
	if err != nil {
		return nil, fmt.Errorf("opening cache: %w", err)
	}

	a := &app{cfg: cfg, log: log, store: store}
	if withMetrics {
		a.metrics = metrics.New(nil)
	}
	a.assistant = assistant.New(cfg, store, server.NewGenerator(cfg, log), assistant.Options{
		Logger:  logging.Component(log, "assistant"),
		Metrics: a.metrics,
	})
	return a, nil
}

func (a *app) Close() error { return a.store.Close() }

func (a *app) outputOptions() output.Options {
	return output.Options{Disclaimer: a.cfg.AIDisplay.ShowDisclaimer}
}
