// =============================================================================
// DIAN XML Consolidator - Process Command
// =============================================================================
//
// This file defines the 'process' command, the main command of the tool. It
// orchestrates the whole consolidation pipeline.
//
// COMMAND USAGE:
//   consolidator process [flags]
//
// FLAGS:
//   --detail         : summary (one row per document) or items (one row per line)
//   --group          : One sheet per document kind
//   --columns        : Comma separated catalog keys to export (see 'columns')
//   --tax-breakdown  : Add a value and rate column per tax scheme
//   --sector-fields  : Add the health and transport annex columns
//   --output         : Workbook file name inside output_dir
//   --label          : Value of the {label} placeholder in output_file_format
//   --dry-run        : Normalize and report without writing or moving anything
//   --store          : Also append the documents to PostgreSQL
//
// PROCESSING PIPELINE:
//   1. Load configuration
//   2. Discover .xml files in the input directory
//   3. Normalize every file concurrently
//   4. Run the consistency checks
//   5. Project the documents and encode the workbook
//   6. Write the workbook (and store the documents, if enabled)
//   7. Archive the successfully normalized inputs
//   8. Write the error log and the summary log
//
// =============================================================================

package cmd

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ginjaninja78/dian-xml-consolidator/internal/api"
	"github.com/ginjaninja78/dian-xml-consolidator/internal/config"
	"github.com/ginjaninja78/dian-xml-consolidator/internal/normalizer"
	"github.com/ginjaninja78/dian-xml-consolidator/internal/projection"
	"github.com/ginjaninja78/dian-xml-consolidator/internal/store"
	"github.com/ginjaninja78/dian-xml-consolidator/internal/validation"
	"github.com/ginjaninja78/dian-xml-consolidator/internal/xlsxwriter"
	"github.com/ginjaninja78/dian-xml-consolidator/pkg/utils"
)

// =============================================================================
// COMMAND FLAGS
// =============================================================================

// processOptions holds the process flags. The *Set fields record whether a
// boolean flag was given explicitly, so an absent flag keeps the config value.
type processOptions struct {
	detail          string
	group           bool
	groupSet        bool
	columns         string
	taxBreakdown    bool
	taxBreakdownSet bool
	sectorFields    bool
	sectorFieldsSet bool
	output          string
	label           string
	dryRun          bool
	store           bool
}

var procOpts processOptions

// =============================================================================
// PROCESS COMMAND DEFINITION
// =============================================================================

var processCmd = &cobra.Command{
	Use:   "process",
	Short: "Consolidate the XML documents of the input directory into a workbook",
	Long: `The process command scans the input directory for .xml files, normalizes
each one into a canonical document and writes all of them into one XLSX
workbook in the output directory.

Files are normalized concurrently. A file that cannot be parsed is reported
and skipped; it never stops the rest of the batch.

On completion:
  - The workbook is placed in the output directory
  - Successfully normalized inputs are moved to the input archive (archive_inputs)
  - Failures and consistency warnings go to an error log
  - A summary log is written next to the workbook`,

	RunE: func(cmd *cobra.Command, args []string) error {
		procOpts.groupSet = cmd.Flags().Changed("group")
		procOpts.taxBreakdownSet = cmd.Flags().Changed("tax-breakdown")
		procOpts.sectorFieldsSet = cmd.Flags().Changed("sector-fields")

		mainConfig, log, closeLog, err := loadRuntime()
		if err != nil {
			return err
		}
		defer closeLog()

		exportConfig, err := resolveExportConfig(mainConfig, procOpts)
		if err != nil {
			return err
		}

		var sink api.DocumentSink
		if (procOpts.store || mainConfig.Database.Enabled) && !procOpts.dryRun {
			if mainConfig.Database.URL == "" {
				return fmt.Errorf("--store needs database.url or %s", config.EnvDatabaseURL)
			}
			pool, err := store.NewPool(cmd.Context(), mainConfig.Database.URL, log)
			if err != nil {
				return err
			}
			defer pool.Close()
			if err := store.Migrate(cmd.Context(), pool); err != nil {
				return err
			}
			sink = store.NewDocumentRepository(pool, log)
		}

		summary, err := runProcess(cmd.Context(), mainConfig, exportConfig, procOpts, sink, log)
		if summary != nil {
			printSummary(cmd.OutOrStdout(), summary, procOpts.dryRun)
		}
		return err
	},
}

func init() {
	rootCmd.AddCommand(processCmd)

	flags := processCmd.Flags()
	flags.StringVar(&procOpts.detail, "detail", "", "Row granularity: summary or items (default from config)")
	flags.BoolVar(&procOpts.group, "group", false, "Write one sheet per document kind")
	flags.StringVar(&procOpts.columns, "columns", "", "Comma separated column keys to export, in catalog order")
	flags.BoolVar(&procOpts.taxBreakdown, "tax-breakdown", false, "Add value and rate columns per tax scheme")
	flags.BoolVar(&procOpts.sectorFields, "sector-fields", false, "Add the health and transport annex columns")
	flags.StringVar(&procOpts.output, "output", "", "Workbook file name inside output_dir (default from output_file_format)")
	flags.StringVar(&procOpts.label, "label", "", "Value of the {label} placeholder in output_file_format")
	flags.BoolVar(&procOpts.dryRun, "dry-run", false, "Normalize and report without writing or moving any file")
	flags.BoolVar(&procOpts.store, "store", false, "Append the documents to PostgreSQL")
}

// resolveExportConfig layers the command-line flags over the export section
// of the configuration.
func resolveExportConfig(mainConfig *config.MainConfig, opts processOptions) (projection.ExportConfig, error) {
	exportConfig, err := mainConfig.ExportConfig()
	if err != nil {
		return exportConfig, err
	}

	if opts.detail != "" {
		level, err := projection.ParseDetailLevel(opts.detail)
		if err != nil {
			return exportConfig, err
		}
		exportConfig.DetailLevel = level
	}
	if opts.groupSet {
		exportConfig.GroupByKind = opts.group
	}
	if opts.taxBreakdownSet {
		exportConfig.TaxBreakdown = opts.taxBreakdown
	}
	if opts.sectorFieldsSet {
		exportConfig.SectorFields = opts.sectorFields
	}
	if opts.columns != "" {
		columns, err := projection.EnableOnly(exportConfig.Columns, strings.Split(opts.columns, ","))
		if err != nil {
			return exportConfig, err
		}
		exportConfig.Columns = columns
	}
	return exportConfig, nil
}

// =============================================================================
// MAIN PROCESSING FUNCTION
// =============================================================================

// runProcess runs the pipeline and returns the run summary. The summary is
// returned even alongside an error whenever files were processed.
func runProcess(ctx context.Context, mainConfig *config.MainConfig, exportConfig projection.ExportConfig,
	opts processOptions, sink api.DocumentSink, log *zap.Logger) (*utils.ProcessingSummary, error) {

	summary := &utils.ProcessingSummary{StartTime: time.Now()}
	fm := utils.NewFileManager(mainConfig.InputDir, mainConfig.OutputDir, mainConfig.InputArchiveDir,
		mainConfig.ArchiveInputs && !opts.dryRun)

	// =========================================================================
	// STEP 1: DISCOVER AND READ INPUT FILES
	// =========================================================================

	paths, err := fm.DiscoverInputFiles()
	if err != nil {
		return nil, fmt.Errorf("failed to discover input files: %w", err)
	}
	summary.TotalFiles = len(paths)
	if len(paths) == 0 {
		log.Info("No XML files found in the input directory", zap.String("input_dir", mainConfig.InputDir))
		summary.EndTime = time.Now()
		return summary, nil
	}
	log.Info("Found files to process", zap.Int("files", len(paths)))

	files, err := utils.ReadSourceFiles(ctx, paths)
	if err != nil {
		return nil, err
	}

	// =========================================================================
	// STEP 2: NORMALIZE AND CHECK
	// =========================================================================

	batch := normalizer.New(log, mainConfig.MaxConcurrency).Run(ctx, files)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	checks := validation.NewValidator().ValidateAll(batch.Documents)
	for _, w := range checks.Errors {
		log.Warn("Consistency check failed",
			zap.String("file", w.FileName),
			zap.String("document", w.DocumentNumber),
			zap.String("rule", w.Rule),
			zap.String("message", w.Message),
		)
	}

	// =========================================================================
	// STEP 3: BUILD AND WRITE THE WORKBOOK
	// =========================================================================

	data, err := xlsxwriter.Encode(projection.Project(batch.Documents, exportConfig))
	if err != nil {
		return nil, fmt.Errorf("failed to build workbook: %w", err)
	}

	if !opts.dryRun {
		name := opts.output
		if name == "" {
			params := map[string]string{}
			if opts.label != "" {
				params["label"] = opts.label
			}
			name = utils.GenerateOutputFileName(mainConfig.OutputFileFormat, params)
		}
		outPath, err := fm.WriteOutputFile(name, data)
		if err != nil {
			return nil, err
		}
		summary.OutputFile = outPath
		log.Info("Workbook written", zap.String("path", outPath), zap.Int("documents", len(batch.Documents)))

		if sink != nil && len(batch.Documents) > 0 {
			stored, err := sink.SaveBatch(ctx, batch.Documents)
			if err != nil {
				return nil, fmt.Errorf("failed to store documents: %w", err)
			}
			summary.StoredDocuments = stored
		}
	}

	// =========================================================================
	// STEP 4: ARCHIVE AND REPORT
	// =========================================================================

	var entries []utils.ErrorLogEntry
	for i, r := range batch.Results {
		if !r.Success {
			summary.FailedFiles++
			summary.FailedFilesList = append(summary.FailedFilesList, utils.FailedFileInfo{
				InputFile:    r.FileName,
				ErrorMessage: r.Error.Error(),
			})
			entries = append(entries, utils.ErrorLogEntry{
				Timestamp:    time.Now(),
				FileName:     r.FileName,
				ErrorType:    "normalization",
				ErrorMessage: r.Error.Error(),
			})
			continue
		}

		archivePath := ""
		if fm.ArchiveOnSuccess {
			if archivePath, err = fm.ArchiveInputFile(paths[i]); err != nil {
				log.Warn("Failed to archive input", zap.String("file", r.FileName), zap.Error(err))
				archivePath = ""
			}
		}

		summary.SuccessfulFiles++
		summary.TotalLineItems += r.Stats.LineItems
		summary.ProcessedFiles = append(summary.ProcessedFiles, utils.ProcessedFileInfo{
			InputFile:   r.FileName,
			ArchivePath: archivePath,
			Kind:        r.Document.Kind.Label(),
			Number:      r.Document.Number,
			LineItems:   r.Stats.LineItems,
			ProcessTime: r.Stats.ProcessingTime,
		})
	}

	for _, w := range checks.Errors {
		entries = append(entries, utils.ErrorLogEntry{
			Timestamp:      time.Now(),
			FileName:       w.FileName,
			ErrorType:      "warning",
			ErrorMessage:   w.Message,
			DocumentNumber: w.DocumentNumber,
			FieldName:      w.Field,
			FieldValue:     w.Value,
		})
	}
	summary.ValidationWarnings = checks.WarningCount
	summary.EndTime = time.Now()

	if !opts.dryRun {
		if logPath, err := utils.WriteErrorLog(entries, mainConfig.OutputDir); err != nil {
			log.Warn("Failed to write error log", zap.Error(err))
		} else if logPath != "" {
			log.Info("Error log written", zap.String("path", logPath))
		}
		if summaryPath, err := utils.WriteSummaryLog(*summary, mainConfig.OutputDir); err != nil {
			log.Warn("Failed to write summary log", zap.Error(err))
		} else {
			log.Debug("Summary log written", zap.String("path", summaryPath))
		}
	}

	if summary.SuccessfulFiles == 0 {
		return summary, fmt.Errorf("none of the %d file(s) could be normalized: %w", summary.TotalFiles, batch.Err)
	}
	return summary, nil
}

// printSummary prints the run summary to the terminal.
func printSummary(out io.Writer, summary *utils.ProcessingSummary, dryRun bool) {
	for _, pf := range summary.ProcessedFiles {
		fmt.Fprintf(out, "  ✓ %s -> %s %s (%d item(s))\n", pf.InputFile, pf.Kind, pf.Number, pf.LineItems)
	}
	for _, ff := range summary.FailedFilesList {
		fmt.Fprintf(out, "  ✗ %s: %s\n", ff.InputFile, ff.ErrorMessage)
	}

	fmt.Fprintln(out, "\n=== Processing Complete ===")
	if dryRun {
		fmt.Fprintln(out, "Dry run:         nothing was written")
	}
	fmt.Fprintf(out, "Total files:     %d\n", summary.TotalFiles)
	fmt.Fprintf(out, "Successful:      %d\n", summary.SuccessfulFiles)
	fmt.Fprintf(out, "Errors:          %d\n", summary.FailedFiles)
	fmt.Fprintf(out, "Warnings:        %d\n", summary.ValidationWarnings)
	if summary.StoredDocuments > 0 {
		fmt.Fprintf(out, "Stored:          %d\n", summary.StoredDocuments)
	}
	if summary.OutputFile != "" {
		fmt.Fprintf(out, "Workbook:        %s\n", summary.OutputFile)
	}
	fmt.Fprintf(out, "Time elapsed:    %s\n", summary.EndTime.Sub(summary.StartTime))
}
