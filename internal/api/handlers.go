// =============================================================================
// DIAN XML Consolidator - API Handlers
// =============================================================================
//
// Request handlers for the upload endpoints. Both read the multipart "files"
// field and normalize the uploads through the shared batch normalizer.
//
// EXPORT FORM OPTIONS (all optional, server defaults otherwise):
//   detail         : summary or items
//   group          : true for one sheet per document kind
//   tax_breakdown  : true for per-scheme tax columns
//   sector_fields  : true for the health and transport annex columns
//   sheet_name     : Sheet name when not grouping
//   columns        : Comma separated catalog keys to export
//
// =============================================================================

package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/ginjaninja78/dian-xml-consolidator/internal/normalizer"
	"github.com/ginjaninja78/dian-xml-consolidator/internal/projection"
	"github.com/ginjaninja78/dian-xml-consolidator/internal/types"
	"github.com/ginjaninja78/dian-xml-consolidator/internal/validation"
	"github.com/ginjaninja78/dian-xml-consolidator/internal/xlsxwriter"
	"github.com/ginjaninja78/dian-xml-consolidator/pkg/utils"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type failure struct {
	File  string `json:"file"`
	Error string `json:"error"`
}

type normalizeResponse struct {
	Documents []types.Document              `json:"documents"`
	Failures  []failure                     `json:"failures"`
	Warnings  []*validation.ValidationError `json:"warnings"`
	Stored    int                           `json:"stored"`
}

// handleNormalize answers with the normalized documents, the files that
// failed and the consistency warnings. Documents are stored first when a
// sink is configured.
func (s *Server) handleNormalize(w http.ResponseWriter, r *http.Request) {
	files, ok := s.readUploads(w, r)
	if !ok {
		return
	}

	batch := s.normalizer.Run(r.Context(), files)
	resp := normalizeResponse{
		Documents: batch.Documents,
		Failures:  failures(batch),
		Warnings:  validation.Validate(batch.Documents),
	}
	if resp.Documents == nil {
		resp.Documents = []types.Document{}
	}

	if s.opts.Sink != nil && len(batch.Documents) > 0 {
		stored, err := s.opts.Sink.SaveBatch(r.Context(), batch.Documents)
		if err != nil {
			s.log.Error("Failed to store documents", zap.Error(err))
			jsonError(w, "failed to store documents", http.StatusInternalServerError)
			return
		}
		resp.Stored = stored
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// handleExport answers with the workbook as an attachment. Files that fail
// to normalize are skipped and counted in the X-Failed-Files header.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	files, ok := s.readUploads(w, r)
	if !ok {
		return
	}

	cfg, err := s.exportConfig(r)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	batch := s.normalizer.Run(r.Context(), files)
	for _, f := range batch.Failures() {
		s.log.Warn("Skipping file", zap.String("file", f.FileName), zap.Error(f.Error))
	}

	data, err := xlsxwriter.Encode(projection.Project(batch.Documents, cfg))
	if err != nil {
		s.log.Error("Failed to encode workbook", zap.Error(err))
		jsonError(w, "failed to build workbook", http.StatusInternalServerError)
		return
	}

	name := utils.GenerateOutputFileName(s.opts.OutputFileFormat, nil)
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.Header().Set("X-Documents", strconv.Itoa(len(batch.Documents)))
	w.Header().Set("X-Failed-Files", strconv.Itoa(len(batch.Failures())))
	w.Write(data)
}

// exportConfig applies the optional form overrides on top of the server
// defaults: detail, group, tax_breakdown, sector_fields, sheet_name and
// columns (a comma separated list of catalog keys).
func (s *Server) exportConfig(r *http.Request) (projection.ExportConfig, error) {
	cfg := s.opts.Export
	if len(cfg.Columns) == 0 {
		cfg.Columns = projection.Catalog()
	}

	if v := r.FormValue("detail"); v != "" {
		level, err := projection.ParseDetailLevel(v)
		if err != nil {
			return cfg, err
		}
		cfg.DetailLevel = level
	}
	for name, target := range map[string]*bool{
		"group":         &cfg.GroupByKind,
		"tax_breakdown": &cfg.TaxBreakdown,
		"sector_fields": &cfg.SectorFields,
	} {
		v := r.FormValue(name)
		if v == "" {
			continue
		}
		flag, err := strconv.ParseBool(v)
		if err != nil {
			return cfg, fmt.Errorf("invalid %s value %q", name, v)
		}
		*target = flag
	}
	if v := r.FormValue("sheet_name"); v != "" {
		cfg.SheetName = v
	}
	if v := r.FormValue("columns"); v != "" {
		columns, err := projection.EnableOnly(cfg.Columns, strings.Split(v, ","))
		if err != nil {
			return cfg, err
		}
		cfg.Columns = columns
	}
	return cfg, nil
}

// readUploads collects the "files" parts of a multipart request. On failure
// it writes the error response itself and returns false.
func (s *Server) readUploads(w http.ResponseWriter, r *http.Request) ([]types.SourceFile, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, s.opts.MaxUploadBytes)

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			jsonError(w, fmt.Sprintf("request exceeds max size (%d bytes)", s.opts.MaxUploadBytes), http.StatusRequestEntityTooLarge)
			return nil, false
		}
		jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return nil, false
	}
	defer r.MultipartForm.RemoveAll()

	headers := r.MultipartForm.File["files"]
	if len(headers) == 0 {
		jsonError(w, "at least one file is required in field \"files\"", http.StatusBadRequest)
		return nil, false
	}

	files := make([]types.SourceFile, 0, len(headers))
	for _, header := range headers {
		f, err := header.Open()
		if err != nil {
			jsonError(w, "failed to open upload: "+err.Error(), http.StatusBadRequest)
			return nil, false
		}
		content, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			jsonError(w, "failed to read upload", http.StatusInternalServerError)
			return nil, false
		}
		files = append(files, types.SourceFile{Name: sanitizeFilename(header.Filename), Content: content})
	}
	return files, true
}

func failures(batch *normalizer.BatchResult) []failure {
	out := []failure{}
	for _, f := range batch.Failures() {
		out = append(out, failure{File: f.FileName, Error: f.Error.Error()})
	}
	return out
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func sanitizeFilename(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	if name == "" || name == "." || name == "/" {
		name = "unnamed.xml"
	}
	return name
}
