package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/dshills/cadetprep/internal/assistant"
	"github.com/dshills/cadetprep/internal/output"
	"github.com/dshills/cadetprep/internal/refdata"
	"github.com/dshills/cadetprep/internal/topics"
)

const generateTimeout = 2 * time.Minute

var (
	flagProvider string
	flagModel    string
	flagFormat   string
	flagOut      string
	flagFresh    bool
	flagAircraft string
)

var aiCmd = &cobra.Command{
	Use:   "ai",
	Short: "Generate and browse AI interview content",
}

var aiGenerateCmd = &cobra.Command{
	Use:   "generate <topic>",
	Short: "Generate AI content for a topic",
	Long: "Generate AI content for a topic. Results are served from the cache when a fresh " +
		"entry exists; --fresh bypasses it. Topics: " + strings.Join(topics.All(), ", ") + ".",
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		topic := args[0]
		a, err := openApp(buildOverrides(), false)
		if err != nil {
			return err
		}
		defer a.Close()

		ctx, cancel := context.WithTimeout(context.Background(), generateTimeout)
		defer cancel()

		res, err := a.assistant.Generate(ctx, assistant.Request{
			Topic:    topic,
			Aircraft: flagAircraft,
			Fresh:    flagFresh,
		})
		switch {
		case errors.Is(err, assistant.ErrDisabled):
			fmt.Fprintf(cmd.ErrOrStderr(), "AI enhancements are off for %s.\n", topic)
			fmt.Fprintf(cmd.ErrOrStderr(), "Enable in config: cadetprep config set ai_enhancements.%s true\n", topic)
			exitCode = ExitUsageError
			return nil
		case errors.Is(err, topics.ErrUnknownTopic), errors.Is(err, refdata.ErrUnknownAircraft):
			return err
		case err != nil:
			runtimeFailure(cmd, err)
			return nil
		}

		if err := writeResult(cmd, res, a.outputOptions()); err != nil {
			runtimeFailure(cmd, err)
			return nil
		}
		if !res.Available {
			exitCode = exitCodeFor(res.Err)
		}
		return nil
	},
}

var aiHistoryCmd = &cobra.Command{
	Use:   "history <topic>",
	Short: "Show previous AI responses for a topic",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(nil, false)
		if err != nil {
			return err
		}
		defer a.Close()

		entries, err := a.assistant.History(args[0])
		if err != nil {
			return err
		}
		if flagOut != "" {
			return output.WriteHistory(args[0], entries, flagFormat, flagOut, a.outputOptions())
		}
		w, err := output.GetWriter(flagFormat, a.outputOptions())
		if err != nil {
			return err
		}
		return w.WriteHistory(cmd.OutOrStdout(), args[0], entries)
	},
}

var aiTopicsCmd = &cobra.Command{
	Use:   "topics",
	Short: "List topics and whether AI content is enabled for them",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(nil)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if !cfg.GeminiEnabled() {
			fmt.Fprintf(out, "AI provider %s is not configured.\n\n", cfg.Provider)
		}
		for _, t := range topics.All() {
			state := "disabled"
			if cfg.AIEnabledFor(t) {
				state = "enabled"
			}
			fmt.Fprintf(out, "%-18s %s\n", t, state)
		}
		return nil
	},
}

func writeResult(cmd *cobra.Command, res assistant.Result, opts output.Options) error {
	if flagOut != "" {
		return output.WriteResult(res, flagFormat, flagOut, opts)
	}
	w, err := output.GetWriter(flagFormat, opts)
	if err != nil {
		return err
	}
	return w.WriteResult(cmd.OutOrStdout(), res)
}

// buildOverrides maps CLI flags to config keys. Only set flags are included.
func buildOverrides() map[string]string {
	m := make(map[string]string)
	if flagProvider != "" {
		m["provider"] = flagProvider
	}
	if flagModel != "" {
		m["model"] = flagModel
	}
	return m
}

func init() {
	aiCmd.AddCommand(aiGenerateCmd)
	aiCmd.AddCommand(aiHistoryCmd)
	aiCmd.AddCommand(aiTopicsCmd)

	f := aiGenerateCmd.Flags()
	f.BoolVar(&flagFresh, "fresh", false, "Bypass the cache and generate new content")
	f.StringVar(&flagAircraft, "aircraft", "", "Training aircraft for training_aircraft tips (c172, da40, da42)")
	f.StringVar(&flagProvider, "provider", "", "Generator provider (gemini, ollama)")
	f.StringVar(&flagModel, "model", "", "Model name")

	for _, c := range []*cobra.Command{aiGenerateCmd, aiHistoryCmd} {
		c.Flags().StringVar(&flagFormat, "format", "text", "Output format (text, markdown, json)")
		c.Flags().StringVar(&flagOut, "out", "", "Write output to a file instead of stdout")
	}
}
