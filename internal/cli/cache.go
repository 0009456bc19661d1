package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dshills/cadetprep/internal/cache"
)

var (
	flagExpiredOnly  bool
	flagClearHistory bool
	flagHistoryTopic string
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the AI response cache",
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove cached AI responses",
	Long: "Remove cached AI responses. Topic histories are kept unless --history is given; " +
		"--topic limits history removal to one topic.",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(nil, false)
		if err != nil {
			return err
		}
		defer a.Close()
		c := a.assistant.Cache()

		n, err := c.Clear(flagExpiredOnly)
		if err != nil {
			runtimeFailure(cmd, fmt.Errorf("clearing cache: %w", err))
			return nil
		}
		what := "cached responses"
		if flagExpiredOnly {
			what = "expired responses"
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Removed %d %s.\n", n, what)

		if flagClearHistory || flagHistoryTopic != "" {
			if err := c.ClearHistory(flagHistoryTopic); err != nil {
				return fmt.Errorf("clearing history: %w", err)
			}
			if flagHistoryTopic != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "History cleared for %s.\n", flagHistoryTopic)
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), "All topic histories cleared.")
			}
		}
		return nil
	},
}

type cacheReport struct {
	Enabled  bool   `json:"enabled"`
	Backend  string `json:"backend"`
	TTLHours int    `json:"ttl_hours"`
	cache.Stats
}

var cacheShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show cache statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(nil, false)
		if err != nil {
			return err
		}
		defer a.Close()

		stats, err := a.assistant.Cache().Stats()
		if err != nil {
			runtimeFailure(cmd, fmt.Errorf("reading cache stats: %w", err))
			return nil
		}
		backend := a.cfg.Cache.Backend
		if backend == "" {
			backend = cache.BackendFile
		}
		data, err := json.MarshalIndent(cacheReport{
			Enabled:  a.cfg.Cache.Enabled,
			Backend:  backend,
			TTLHours: a.cfg.Cache.DurationHours,
			Stats:    stats,
		}, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	},
}

func init() {
	cacheCmd.AddCommand(cacheClearCmd)
	cacheCmd.AddCommand(cacheShowCmd)

	cacheClearCmd.Flags().BoolVar(&flagExpiredOnly, "expired", false, "Only remove entries older than the cache duration")
	cacheClearCmd.Flags().BoolVar(&flagClearHistory, "history", false, "Also remove every topic history")
	cacheClearCmd.Flags().StringVar(&flagHistoryTopic, "topic", "", "Remove the history of one topic")
}
