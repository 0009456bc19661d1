package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/dshills/cadetprep/internal/config"
	"github.com/dshills/cadetprep/internal/logging"
	"github.com/dshills/cadetprep/internal/server"
)

var (
	flagListen  string
	flagNoWatch bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the dashboard JSON API",
	Long: "Serve reference data and AI content over HTTP. The config file is watched and " +
		"provider, model and page settings are applied without a restart.",
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		overrides := buildOverrides()
		if flagListen != "" {
			overrides["server.listen"] = flagListen
		}
		a, err := openApp(overrides, true)
		if err != nil {
			return err
		}
		defer a.Close()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		srv := server.New(a.assistant, a.metrics, logging.Component(a.log, "server"))

		if !flagNoWatch {
			path := flagConfig
			if path == "" {
				if path, err = config.ConfigPath(); err != nil {
					return err
				}
			}
			go func() {
				if err := srv.WatchConfig(ctx, path, overrides); err != nil {
					a.log.Warn().Err(err).Str("path", path).Msg("config watch disabled")
				}
			}()
		}

		a.log.Info().
			Str("provider", a.cfg.Provider).
			Bool("ai_available", a.cfg.GeminiEnabled()).
			Str("cache", a.store.Location()).
			Msg("starting cadetprep")
		if err := srv.Run(ctx, a.cfg.Server.Listen); err != nil {
			runtimeFailure(cmd, err)
		}
		return nil
	},
}

func init() {
	serveCmd.Flags().StringVar(&flagListen, "listen", "", "Listen address (default from config, 127.0.0.1:8501)")
	serveCmd.Flags().BoolVar(&flagNoWatch, "no-watch", false, "Do not reload the config file on change")
	serveCmd.Flags().StringVar(&flagProvider, "provider", "", "Generator provider (gemini, ollama)")
	serveCmd.Flags().StringVar(&flagModel, "model", "", "Model name")
}
