// =============================================================================
// DIAN XML Consolidator - PostgreSQL Sink
// =============================================================================
//
// Normalized documents can optionally be appended to PostgreSQL in addition
// to the workbook. The sink only inserts: re-importing a file creates new
// rows, nothing is reconciled against what is already stored.
//
// TABLES:
//   dian_documents       one row per document
//   dian_document_items  one row per line item, keyed by document and position
//
// =============================================================================

package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// DB is the part of *pgxpool.Pool the sink needs.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Begin(ctx context.Context) (pgx.Tx, error)
}

// NewPool connects to databaseURL and verifies the connection.
func NewPool(ctx context.Context, databaseURL string, logger *zap.Logger) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Info("Database connection established",
		zap.String("host", poolConfig.ConnConfig.Host),
		zap.String("database", poolConfig.ConnConfig.Database),
	)

	return pool, nil
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS dian_documents (
	id                 UUID PRIMARY KEY,
	kind               TEXT NOT NULL,
	number             TEXT NOT NULL,
	issue_date         TEXT NOT NULL,
	unique_code        TEXT NOT NULL,
	currency           TEXT NOT NULL,
	supplier_tax_id    TEXT NOT NULL,
	supplier_name      TEXT NOT NULL,
	customer_tax_id    TEXT NOT NULL,
	customer_name      TEXT NOT NULL,
	tax_exclusive_base NUMERIC NOT NULL,
	total_tax          NUMERIC NOT NULL,
	tax_inclusive      NUMERIC NOT NULL,
	payable_total      NUMERIC NOT NULL,
	source_file        TEXT NOT NULL,
	imported_at        TIMESTAMPTZ NOT NULL DEFAULT now()
)`,
	`CREATE INDEX IF NOT EXISTS dian_documents_unique_code_idx ON dian_documents (unique_code)`,
	`CREATE TABLE IF NOT EXISTS dian_document_items (
	document_id UUID NOT NULL REFERENCES dian_documents (id) ON DELETE CASCADE,
	position    INTEGER NOT NULL,
	line_id     TEXT NOT NULL,
	description TEXT NOT NULL,
	quantity    NUMERIC NOT NULL,
	unit_code   TEXT NOT NULL,
	unit_price  NUMERIC NOT NULL,
	line_base   NUMERIC NOT NULL,
	line_tax    NUMERIC NOT NULL,
	PRIMARY KEY (document_id, position)
)`,
}

// Migrate creates the sink tables when they do not exist yet.
func Migrate(ctx context.Context, db DB) error {
	for _, stmt := range schema {
		if _, err := db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	return nil
}
