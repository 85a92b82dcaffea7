// =============================================================================
// DIAN XML Consolidator - Inspect Command
// =============================================================================
//
// COMMAND USAGE:
//   consolidator inspect invoice.xml     normalized document as JSON
//   consolidator inspect report.xlsx     every sheet, tab separated
//
// =============================================================================

package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/dian-xml-consolidator/internal/normalizer"
	"github.com/ginjaninja78/dian-xml-consolidator/internal/validation"
	"github.com/ginjaninja78/dian-xml-consolidator/internal/xlsxwriter"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect FILE",
	Short: "Show how a single XML document is normalized, or dump a workbook",
	Long: `Inspect normalizes one DIAN XML file and prints the resulting document as
JSON, followed by any consistency warnings. Nothing is written or moved.

Given an .xlsx file instead, it prints every sheet of the workbook, which is
handy to check what 'process' produced.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]
		if strings.EqualFold(filepath.Ext(path), ".xlsx") {
			return inspectWorkbook(cmd.OutOrStdout(), path)
		}
		return inspectDocument(cmd.OutOrStdout(), path)
	},
}

func init() {
	rootCmd.AddCommand(inspectCmd)
}

// inspectDocument prints the normalized document and its warnings.
func inspectDocument(out io.Writer, path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	doc, err := normalizer.Normalize(raw)
	if err != nil {
		return fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	doc.SourceFileName = filepath.Base(path)

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(doc); err != nil {
		return err
	}

	if warnings := validation.NewValidator().ValidateDocument(&doc); len(warnings) > 0 {
		fmt.Fprintln(out)
		fmt.Fprint(out, validation.FormatErrors(warnings))
	}
	return nil
}

// inspectWorkbook prints each sheet with its data row count.
func inspectWorkbook(out io.Writer, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	tables, err := xlsxwriter.ReadSheets(f)
	if err != nil {
		return err
	}
	for _, table := range tables {
		fmt.Fprintf(out, "== %s (%d row(s)) ==\n", table.Name, max(len(table.Rows)-1, 0))
		for _, row := range table.Rows {
			fmt.Fprintln(out, strings.Join(row, "\t"))
		}
		fmt.Fprintln(out)
	}
	return nil
}
