package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/dshills/cadetprep/internal/providers"
	"github.com/dshills/cadetprep/internal/redact"
)

const modelsTimeout = 30 * time.Second

var flagLive bool

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "Provider and model management",
}

type modelInfo struct {
	Provider string
	Models   []string
}

var knownModels = []modelInfo{
	{
		Provider: "gemini",
		Models: []string{
			"gemini-1.5-flash",
			"gemini-1.5-pro",
			"gemini-2.0-flash",
			"gemini-2.5-flash",
			"gemini-2.5-pro",
		},
	},
	{
		Provider: "ollama",
		Models: []string{
			"llama3.3",
			"llama3.2",
			"llama3.1",
			"mistral",
			"qwen2.5",
		},
	},
}

var modelsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List known providers and models",
	Long:  "List known providers and models. With --live, ask the configured provider instead.",
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		if !flagLive {
			for _, info := range knownModels {
				fmt.Fprintf(out, "%s:\n", info.Provider)
				for _, m := range info.Models {
					fmt.Fprintf(out, "  - %s\n", m)
				}
				fmt.Fprintln(out)
			}
			return nil
		}

		cfg, err := loadConfig(buildOverrides())
		if err != nil {
			return err
		}
		p, err := providers.New(cfg)
		if err != nil {
			return err
		}
		lister, ok := p.(providers.ModelLister)
		if !ok {
			return fmt.Errorf("provider %s cannot list models", p.Name())
		}

		ctx, cancel := context.WithTimeout(context.Background(), modelsTimeout)
		defer cancel()
		models, err := lister.ListModels(ctx)
		if err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "FAIL: %s\n", redact.Error(err))
			exitCode = exitCodeFor(err)
			return nil
		}
		fmt.Fprintf(out, "%s:\n", p.Name())
		for _, m := range models {
			fmt.Fprintf(out, "  - %s\n", m)
		}
		return nil
	},
}

var modelsDoctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Validate provider credentials",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(buildOverrides())
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Checking %s (%s)...\n", cfg.Provider, cfg.Model())

		if !cfg.GeminiEnabled() {
			fmt.Fprintln(cmd.ErrOrStderr(), "FAIL: gemini is disabled or has no API key")
			fmt.Fprintln(cmd.ErrOrStderr(), "Set gemini.enabled and gemini.api_key, or export GEMINI_API_KEY.")
			exitCode = ExitAuthError
			return nil
		}

		p, err := providers.New(cfg)
		if err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "FAIL: %v\n", err)
			exitCode = ExitAuthError
			return nil
		}

		ctx, cancel := context.WithTimeout(context.Background(), modelsTimeout)
		defer cancel()

		_, err = p.Generate(ctx, providers.GenerateRequest{
			SystemPrompt: "Respond with exactly: ok",
			Prompt:       "ping",
			MaxTokens:    10,
		})
		if err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "FAIL: %s\n", redact.Error(err))
			exitCode = exitCodeFor(err)
			return nil
		}

		fmt.Fprintf(cmd.OutOrStdout(), "OK: %s is configured and responding\n", cfg.Provider)
		return nil
	},
}

func exitCodeFor(err error) int {
	if providers.IsAuthError(err) {
		return ExitAuthError
	}
	return ExitRuntimeError
}

func init() {
	modelsCmd.AddCommand(modelsListCmd)
	modelsCmd.AddCommand(modelsDoctorCmd)

	modelsListCmd.Flags().BoolVar(&flagLive, "live", false, "Query the configured provider for its models")
	for _, c := range []*cobra.Command{modelsListCmd, modelsDoctorCmd} {
		c.Flags().StringVar(&flagProvider, "provider", "", "Provider to use (gemini, ollama)")
		c.Flags().StringVar(&flagModel, "model", "", "Model name")
	}
}
