package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/dshills/cadetprep/internal/refdata"
)

var flagRefFormat string

var refCmd = &cobra.Command{
	Use:   "ref [dataset]",
	Short: "Print built-in reference data",
	Long: "Print a reference dataset. Without an argument, list the datasets. Datasets: " +
		strings.Join(refdata.Datasets(), ", ") + ".",
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		if len(args) == 0 {
			for _, name := range refdata.Datasets() {
				fmt.Fprintln(out, name)
			}
			return nil
		}

		data, err := refdata.Dataset(args[0])
		if err != nil {
			return err
		}
		switch flagRefFormat {
		case "", "json":
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(data)
		case "yaml":
			enc := yaml.NewEncoder(out)
			enc.SetIndent(2)
			if err := enc.Encode(data); err != nil {
				return err
			}
			return enc.Close()
		default:
			return fmt.Errorf("unknown format %q (want json or yaml)", flagRefFormat)
		}
	},
}

func init() {
	refCmd.Flags().StringVar(&flagRefFormat, "format", "json", "Output format (json, yaml)")
}
