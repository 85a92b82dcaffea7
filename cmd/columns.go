// =============================================================================
// DIAN XML Consolidator - Columns Command
// =============================================================================
//
// This file defines the 'columns' command, which prints the column catalog
// after the config.yaml overrides have been applied.
//
// COMMAND USAGE:
//   consolidator columns          table of key, label, enabled flag, scope
//   consolidator columns --yaml   export.columns block for config.yaml
//
// Tax breakdown and sector columns are not listed; they depend on the
// documents being exported.
//
// =============================================================================

package cmd

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/ginjaninja78/dian-xml-consolidator/internal/config"
	"github.com/ginjaninja78/dian-xml-consolidator/internal/projection"
)

var columnsAsYAML bool

var columnsCmd = &cobra.Command{
	Use:   "columns",
	Short: "List the column catalog",
	Long: `List every column the workbook can contain, in output order, with the
label and enabled flag that result from config.yaml.

Use --yaml to print the catalog as an export.columns block ready to paste
into config.yaml.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		mainConfig, err := config.LoadMainConfig(cfgFile)
		if err != nil {
			return fmt.Errorf("failed to load main config: %w", err)
		}
		exportConfig, err := mainConfig.ExportConfig()
		if err != nil {
			return err
		}
		if columnsAsYAML {
			return printColumnsYAML(cmd.OutOrStdout(), exportConfig.Columns)
		}
		return printColumns(cmd.OutOrStdout(), exportConfig.Columns)
	},
}

func init() {
	rootCmd.AddCommand(columnsCmd)
	columnsCmd.Flags().BoolVar(&columnsAsYAML, "yaml", false, "Print as a config.yaml export.columns block")
}

// printColumns writes the catalog as an aligned table. Item-only columns
// are marked with the "item" scope.
func printColumns(out io.Writer, columns []projection.Column) error {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "KEY\tLABEL\tENABLED\tSCOPE")
	for _, c := range columns {
		scope := "document"
		if projection.IsItemOnly(c.Key) {
			scope = "item"
		}
		fmt.Fprintf(tw, "%s\t%s\t%t\t%s\n", c.Key, c.Label, c.Enabled, scope)
	}
	return tw.Flush()
}

func printColumnsYAML(out io.Writer, columns []projection.Column) error {
	block := map[string]map[string][]projection.Column{
		"export": {"columns": columns},
	}
	enc := yaml.NewEncoder(out)
	enc.SetIndent(2)
	if err := enc.Encode(block); err != nil {
		return err
	}
	return enc.Close()
}
