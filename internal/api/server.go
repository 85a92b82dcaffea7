// =============================================================================
// DIAN XML Consolidator - HTTP API
// =============================================================================
//
// The API exposes the same pipeline as the process command over HTTP:
//
//   GET  /health          liveness check
//   POST /api/normalize   multipart "files" -> normalized documents as JSON
//   POST /api/export      multipart "files" -> XLSX workbook attachment
//
// Uploads are held in memory; the whole request is capped at
// server.max_upload_bytes.
//
// =============================================================================

package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/ginjaninja78/dian-xml-consolidator/internal/normalizer"
	"github.com/ginjaninja78/dian-xml-consolidator/internal/projection"
	"github.com/ginjaninja78/dian-xml-consolidator/internal/types"
)

// DocumentSink receives the documents of every successful normalize request.
type DocumentSink interface {
	SaveBatch(ctx context.Context, docs []types.Document) (int, error)
}

// Options configure a Server.
type Options struct {
	// Export is the projection used when a request does not override it.
	Export projection.ExportConfig

	// OutputFileFormat names the exported workbook.
	OutputFileFormat string

	// MaxUploadBytes caps the request body.
	MaxUploadBytes int64

	// Sink is optional.
	Sink DocumentSink
}

// Server is the HTTP API server.
type Server struct {
	router     chi.Router
	normalizer *normalizer.Normalizer
	opts       Options
	log        *zap.Logger
}

// NewServer creates and configures the HTTP server.
func NewServer(n *normalizer.Normalizer, opts Options, log *zap.Logger) *Server {
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = 32 << 20
	}
	if opts.OutputFileFormat == "" {
		opts.OutputFileFormat = "consolidado_{timestamp}.xlsx"
	}
	s := &Server{
		normalizer: n,
		opts:       opts,
		log:        log,
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))

	r.Get("/health", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Post("/normalize", s.handleNormalize)
		r.Post("/export", s.handleExport)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
