// =============================================================================
// DIAN XML Consolidator - Batch Normalization
// =============================================================================
//
// Normalization of one file has no shared state, so a batch runs files
// concurrently. The output order is an observable contract: results are
// written into a slice by input index, so the Document collection always
// follows the input listing regardless of completion order.
//
// CONCURRENCY:
//   A buffered channel acts as a semaphore bounding the number of files in
//   flight. A failing file is isolated into its own Result and never aborts
//   the batch.
//
// =============================================================================

package normalizer

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/ginjaninja78/dian-xml-consolidator/internal/types"
)

// =============================================================================
// RESULT STRUCTURES
// =============================================================================

// Result represents the outcome of normalizing a single file.
type Result struct {
	// FileName is the name of the input file.
	FileName string

	// Document is the normalized record. Zero value if Success is false.
	Document types.Document

	// Success indicates whether the file produced a Document.
	Success bool

	// Error contains the per-file diagnostic if normalization failed.
	Error error

	// Stats contains processing statistics.
	Stats ProcessingStats
}

// ProcessingStats contains statistics about one file.
type ProcessingStats struct {
	// LineItems is the number of line items extracted.
	LineItems int

	// ProcessingTime is the time taken to normalize the file.
	ProcessingTime time.Duration
}

// BatchResult is the outcome of a whole batch, in input order.
type BatchResult struct {
	// Results holds one entry per input file, including failures.
	Results []Result

	// Documents holds the successful Documents only.
	Documents []types.Document

	// Err aggregates every per-file failure; nil when all files succeeded.
	Err error
}

// Failures returns the failed results in input order.
func (b *BatchResult) Failures() []Result {
	var failed []Result
	for _, r := range b.Results {
		if !r.Success {
			failed = append(failed, r)
		}
	}
	return failed
}

// =============================================================================
// NORMALIZER
// =============================================================================

// Normalizer runs Normalize over batches of source files.
type Normalizer struct {
	logger         *zap.Logger
	maxConcurrency int
}

// New creates a Normalizer.
//
// PARAMETERS:
//   - logger: Structured logger; nil disables logging.
//   - maxConcurrency: Upper bound on files normalized at once; values below
//     one default to the number of CPUs.
func New(logger *zap.Logger, maxConcurrency int) *Normalizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxConcurrency < 1 {
		maxConcurrency = runtime.NumCPU()
	}
	return &Normalizer{
		logger:         logger,
		maxConcurrency: maxConcurrency,
	}
}

// Run normalizes every file and returns the results re-sequenced by input
// index. Cancelling ctx stops scheduling further files; files that were never
// scheduled fail with the context error.
func (n *Normalizer) Run(ctx context.Context, files []types.SourceFile) *BatchResult {
	results := make([]Result, len(files))
	sem := make(chan struct{}, n.maxConcurrency)

	var wg sync.WaitGroup

	for i, file := range files {
		if err := acquire(ctx, sem); err != nil {
			for j := i; j < len(files); j++ {
				results[j] = Result{
					FileName: files[j].Name,
					Error:    fmt.Errorf("%s: %w", files[j].Name, err),
				}
			}
			break
		}

		wg.Add(1)
		go func(i int, file types.SourceFile) {
			defer wg.Done()
			defer func() { <-sem }()

			results[i] = n.normalizeFile(file)
		}(i, file)
	}

	wg.Wait()

	batch := &BatchResult{Results: results}
	for _, r := range results {
		if r.Success {
			batch.Documents = append(batch.Documents, r.Document)
			continue
		}
		batch.Err = multierr.Append(batch.Err, r.Error)
	}

	n.logger.Info("Normalized batch",
		zap.Int("files", len(files)),
		zap.Int("documents", len(batch.Documents)),
		zap.Int("failed", len(files)-len(batch.Documents)),
	)

	return batch
}

// acquire takes a semaphore slot unless ctx is already done.
func acquire(ctx context.Context, sem chan struct{}) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case sem <- struct{}{}:
		return nil
	}
}

// normalizeFile wraps Normalize with timing, logging and the file name.
func (n *Normalizer) normalizeFile(file types.SourceFile) Result {
	start := time.Now()
	result := Result{FileName: file.Name}

	doc, err := Normalize(file.Content)
	if err != nil {
		result.Error = fmt.Errorf("%s: %w", file.Name, err)
		n.logger.Warn("Skipping unparseable file", zap.String("file", file.Name), zap.Error(err))
		return result
	}

	doc.SourceFileName = file.Name
	result.Document = doc
	result.Success = true
	result.Stats = ProcessingStats{
		LineItems:      len(doc.Items),
		ProcessingTime: time.Since(start),
	}

	n.logger.Debug("Normalized file",
		zap.String("file", file.Name),
		zap.Stringer("kind", doc.Kind),
		zap.String("number", doc.Number),
		zap.Int("items", len(doc.Items)),
	)

	return result
}
