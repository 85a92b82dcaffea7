// =============================================================================
// DIAN XML Consolidator - Root Command
// =============================================================================
//
// This file defines the root command for the Cobra CLI. Every other command
// is attached to it.
//
// COBRA CLI STRUCTURE:
//   rootCmd (consolidator)
//   ├── processCmd (consolidator process)
//   ├── columnsCmd (consolidator columns)
//   ├── inspectCmd (consolidator inspect FILE)
//   ├── serveCmd   (consolidator serve)
//   └── versionCmd (consolidator version)
//
// The root command owns the global flags (--config, --verbose) and the
// command context, which is cancelled on SIGINT or SIGTERM.
//
// =============================================================================

package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ginjaninja78/dian-xml-consolidator/internal/config"
)

// =============================================================================
// GLOBAL VARIABLES
// =============================================================================

// cfgFile holds the path to the main configuration file.
var cfgFile string

// verbose forces debug logging.
var verbose bool

// =============================================================================
// ROOT COMMAND DEFINITION
// =============================================================================

var rootCmd = &cobra.Command{
	Use:   "consolidator",
	Short: "DIAN XML Consolidator - Turn DIAN electronic documents into one spreadsheet",
	Long: `DIAN XML Consolidator reads Colombian electronic documents (invoices,
credit notes, debit notes and payroll documents in DIAN UBL 2.1 XML) and
consolidates them into a single XLSX workbook.

Key Features:
  - Detects the document kind from the XML root, including AttachedDocument envelopes
  - Tolerates namespace prefixes and schema variations between issuers
  - Summary (one row per document) or item-level rows
  - Configurable columns, one sheet per kind, optional tax breakdown
  - Concurrent normalization; a broken file never stops the batch
  - Optional PostgreSQL sink and an HTTP API

Example Usage:
  consolidator process                          # Consolidate every .xml in the input directory
  consolidator process --detail items --group   # Item rows, one sheet per document kind
  consolidator inspect ./input/fe001.xml        # Show how a single file is normalized
  consolidator serve                            # Start the HTTP API`,
	SilenceUsage: true,
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// =============================================================================
// EXECUTE FUNCTION
// =============================================================================

// Execute runs the CLI. It is called once by main.main().
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

// =============================================================================
// INITIALIZATION
// =============================================================================

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile,
		"config",
		"config.yaml",
		"Path to the main configuration file",
	)

	rootCmd.PersistentFlags().BoolVarP(
		&verbose,
		"verbose",
		"v",
		false,
		"Enable verbose output for debugging",
	)
}

// loadRuntime loads the configuration and builds the logger every command
// shares. The returned function flushes the logger and closes its file; the
// caller defers it.
func loadRuntime() (*config.MainConfig, *zap.Logger, func() error, error) {
	mainConfig, err := config.LoadMainConfig(cfgFile)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to load main config: %w", err)
	}

	log, closeLog, err := mainConfig.NewLogger(verbose)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to set up logging: %w", err)
	}

	log.Debug("Configuration loaded",
		zap.String("config", cfgFile),
		zap.String("input_dir", mainConfig.InputDir),
		zap.String("output_dir", mainConfig.OutputDir),
	)
	return mainConfig, log, closeLog, nil
}
