// =============================================================================
// DIAN XML Consolidator - Document Repository
// =============================================================================
//
// This module appends normalized documents to the PostgreSQL sink tables
// created by Migrate. Statements are built with squirrel using $n
// placeholders.
//
// WRITE MODEL:
//   - One transaction per batch: either every document is stored or none is
//   - One INSERT per document into dian_documents
//   - Line items go to dian_document_items in multi-row INSERTs of at most
//     itemsPerInsert rows, which keeps every statement well below the
//     PostgreSQL limit of 65535 bind parameters
//   - Inserts only: documents are never deduplicated or updated
//
// =============================================================================

package store

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/ginjaninja78/dian-xml-consolidator/internal/types"
)

// itemsPerInsert bounds the rows of one item INSERT (9 parameters each).
const itemsPerInsert = 1000

var documentColumns = []string{
	"id", "kind", "number", "issue_date", "unique_code", "currency",
	"supplier_tax_id", "supplier_name", "customer_tax_id", "customer_name",
	"tax_exclusive_base", "total_tax", "tax_inclusive", "payable_total", "source_file",
}

var itemColumns = []string{
	"document_id", "position", "line_id", "description", "quantity",
	"unit_code", "unit_price", "line_base", "line_tax",
}

// DocumentRepository appends normalized documents to the sink tables.
type DocumentRepository struct {
	db     DB
	logger *zap.Logger
	newID  func() uuid.UUID
}

// NewDocumentRepository creates a repository on top of a pool or connection.
//
// PARAMETERS:
//   - db: A *pgxpool.Pool in production; anything that can Exec and Begin.
//   - logger: Structured logger; nil disables logging.
//
// RETURNS:
//   - A repository that assigns a random UUID to every stored document.
func NewDocumentRepository(db DB, logger *zap.Logger) *DocumentRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DocumentRepository{
		db:     db,
		logger: logger,
		newID:  uuid.New,
	}
}

// SaveBatch inserts docs and their line items in one transaction.
//
// PARAMETERS:
//   - ctx: Cancelling it aborts the transaction.
//   - docs: The documents to store, in order.
//
// RETURNS:
//   - The number of stored documents (len(docs) on success, 0 otherwise).
//   - An error naming the document whose insert failed; nothing is stored.
func (r *DocumentRepository) SaveBatch(ctx context.Context, docs []types.Document) (int, error) {
	if len(docs) == 0 {
		return 0, nil
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	for i := range docs {
		id := r.newID()
		if err := r.exec(ctx, tx, documentInsert(id, &docs[i])); err != nil {
			return 0, fmt.Errorf("failed to insert document %q: %w", docs[i].Number, err)
		}
		for _, insert := range itemsInserts(id, docs[i].Items) {
			if err := r.exec(ctx, tx, insert); err != nil {
				return 0, fmt.Errorf("failed to insert items of document %q: %w", docs[i].Number, err)
			}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}

	r.logger.Info("Documents stored", zap.Int("documents", len(docs)))
	return len(docs), nil
}

func (r *DocumentRepository) exec(ctx context.Context, tx pgx.Tx, query squirrel.Sqlizer) error {
	sql, args, err := query.ToSql()
	if err != nil {
		return err
	}
	_, err = tx.Exec(ctx, sql, args...)
	return err
}

func documentInsert(id uuid.UUID, doc *types.Document) squirrel.InsertBuilder {
	return squirrel.Insert("dian_documents").
		Columns(documentColumns...).
		Values(
			id, doc.Kind.String(), doc.Number, doc.IssueDate, doc.UniqueCode, doc.Currency,
			doc.Supplier.TaxID, doc.Supplier.Name, doc.Customer.TaxID, doc.Customer.Name,
			doc.TaxExclusiveBase, doc.TotalTax, doc.TaxInclusive, doc.PayableTotal, doc.SourceFileName,
		).
		PlaceholderFormat(squirrel.Dollar)
}

// itemsInserts splits items into INSERTs of at most itemsPerInsert rows.
// Positions are 1-based and continue across chunks.
func itemsInserts(documentID uuid.UUID, items []types.LineItem) []squirrel.InsertBuilder {
	var inserts []squirrel.InsertBuilder
	for start := 0; start < len(items); start += itemsPerInsert {
		end := min(start+itemsPerInsert, len(items))

		builder := squirrel.Insert("dian_document_items").
			Columns(itemColumns...).
			PlaceholderFormat(squirrel.Dollar)
		for i := start; i < end; i++ {
			item := items[i]
			builder = builder.Values(
				documentID, i+1, item.ID, item.Description, item.Quantity,
				item.UnitCode, item.UnitPrice, item.LineBase, item.LineTax,
			)
		}
		inserts = append(inserts, builder)
	}
	return inserts
}
