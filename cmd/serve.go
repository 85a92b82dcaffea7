// =============================================================================
// DIAN XML Consolidator - Serve Command
// =============================================================================
//
// This file defines the 'serve' command, which runs the HTTP API in the
// foreground until the process is interrupted.
//
// COMMAND USAGE:
//   consolidator serve [--addr HOST:PORT]
//
// The export defaults come from config.yaml; requests may override them
// per call. With database.enabled the schema is migrated at startup and
// every normalized batch is stored.
//
// =============================================================================

package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ginjaninja78/dian-xml-consolidator/internal/api"
	"github.com/ginjaninja78/dian-xml-consolidator/internal/normalizer"
	"github.com/ginjaninja78/dian-xml-consolidator/internal/store"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long: `Serve exposes normalization and export over HTTP:

  GET  /health          liveness check
  POST /api/normalize   multipart "files" -> JSON documents, failures and warnings
  POST /api/export      multipart "files" (+ detail, group, columns,
                        tax_breakdown, sector_fields, sheet_name)
                        -> XLSX workbook

When database.enabled is set, normalized documents are also stored.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		mainConfig, log, closeLog, err := loadRuntime()
		if err != nil {
			return err
		}
		defer closeLog()

		exportConfig, err := mainConfig.ExportConfig()
		if err != nil {
			return err
		}

		opts := api.Options{
			Export:           exportConfig,
			OutputFileFormat: mainConfig.OutputFileFormat,
			MaxUploadBytes:   mainConfig.Server.MaxUploadBytes,
		}
		if mainConfig.Database.Enabled {
			pool, err := store.NewPool(cmd.Context(), mainConfig.Database.URL, log)
			if err != nil {
				return err
			}
			defer pool.Close()
			if err := store.Migrate(cmd.Context(), pool); err != nil {
				return err
			}
			opts.Sink = store.NewDocumentRepository(pool, log)
		}

		addr := mainConfig.Server.Addr
		if serveAddr != "" {
			addr = serveAddr
		}
		srv := &http.Server{
			Addr:              addr,
			Handler:           api.NewServer(normalizer.New(log, mainConfig.MaxConcurrency), opts, log),
			ReadHeaderTimeout: 10 * time.Second,
		}
		return serve(cmd.Context(), srv, log)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (default from server.addr)")
}

// serve runs srv until ctx is cancelled, then shuts it down gracefully.
//
// PARAMETERS:
//   - ctx: Cancelled on SIGINT/SIGTERM by the root command.
//   - srv: The configured server; ListenAndServe is called on it.
//   - log: Receives the listen and shutdown messages.
//
// RETURNS:
//   - nil after a clean shutdown, or the listen/shutdown error.
func serve(ctx context.Context, srv *http.Server, log *zap.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		log.Info("HTTP API listening", zap.String("addr", srv.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	log.Info("Shutting down HTTP API")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http server shutdown: %w", err)
	}
	return nil
}
