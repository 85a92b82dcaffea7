package cmd

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap/zaptest"

	"github.com/ginjaninja78/dian-xml-consolidator/internal/config"
	"github.com/ginjaninja78/dian-xml-consolidator/internal/projection"
	"github.com/ginjaninja78/dian-xml-consolidator/internal/types"
	"github.com/ginjaninja78/dian-xml-consolidator/internal/xlsxwriter"
)

type recordingSink struct {
	docs []types.Document
}

func (s *recordingSink) SaveBatch(_ context.Context, docs []types.Document) (int, error) {
	s.docs = append(s.docs, docs...)
	return len(docs), nil
}

func testConfig(t *testing.T) *config.MainConfig {
	t.Helper()
	root := t.TempDir()
	cfg := &config.MainConfig{
		InputDir:         filepath.Join(root, "input"),
		OutputDir:        filepath.Join(root, "output"),
		InputArchiveDir:  filepath.Join(root, "archive"),
		ArchiveInputs:    true,
		OutputFileFormat: "consolidado_{label}.xlsx",
		LogLevel:         "info",
		MaxConcurrency:   2,
	}
	for _, dir := range []string{cfg.InputDir, cfg.OutputDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			t.Fatal(err)
		}
	}

	for _, name := range []string{"invoice.xml", "payroll.xml", "credit_note.xml"} {
		data, err := os.ReadFile(filepath.Join("..", "internal", "normalizer", "testdata", name))
		if err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(filepath.Join(cfg.InputDir, name), data, 0644); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.WriteFile(filepath.Join(cfg.InputDir, "broken.xml"), []byte("<Invoice>"), 0644); err != nil {
		t.Fatal(err)
	}
	return cfg
}

func TestRunProcess(t *testing.T) {
	cfg := testConfig(t)
	sink := &recordingSink{}
	exportConfig := projection.ExportConfig{GroupByKind: true, Columns: projection.Catalog()}

	summary, err := runProcess(context.Background(), cfg, exportConfig, processOptions{label: "Marzo 2024"}, sink, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("runProcess() error: %v", err)
	}

	if summary.TotalFiles != 4 || summary.SuccessfulFiles != 3 || summary.FailedFiles != 1 {
		t.Fatalf("summary = %+v", summary)
	}
	if summary.TotalLineItems != 4 || summary.StoredDocuments != 3 || len(sink.docs) != 3 {
		t.Errorf("line items = %d, stored = %d", summary.TotalLineItems, summary.StoredDocuments)
	}

	// Natural file order: broken, credit_note, invoice, payroll.
	if sink.docs[0].Kind != types.KindCreditNote || sink.docs[2].Kind != types.KindPayroll {
		t.Errorf("documents out of input order: %v, %v", sink.docs[0].Kind, sink.docs[2].Kind)
	}

	if filepath.Base(summary.OutputFile) != "consolidado_marzo-2024.xlsx" {
		t.Errorf("workbook = %q", summary.OutputFile)
	}
	f, err := os.Open(summary.OutputFile)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	tables, err := xlsxwriter.ReadSheets(f)
	if err != nil {
		t.Fatalf("ReadSheets() error: %v", err)
	}
	var names []string
	for _, table := range tables {
		names = append(names, table.Name)
	}
	if strings.Join(names, ",") != "Nota Crédito,Factura,Nómina" {
		t.Errorf("sheets = %v", names)
	}

	if _, err := os.Stat(filepath.Join(cfg.InputDir, "broken.xml")); err != nil {
		t.Error("failed input was moved")
	}
	for _, name := range []string{"invoice.xml", "payroll.xml", "credit_note.xml"} {
		if _, err := os.Stat(filepath.Join(cfg.InputArchiveDir, name)); err != nil {
			t.Errorf("%s not archived", name)
		}
	}

	logs, _ := filepath.Glob(filepath.Join(cfg.OutputDir, "*.txt"))
	if len(logs) != 2 {
		t.Errorf("logs = %v, want error log and summary", logs)
	}
}

func TestRunProcessDryRun(t *testing.T) {
	cfg := testConfig(t)
	sink := &recordingSink{}

	summary, err := runProcess(context.Background(), cfg, projection.ExportConfig{Columns: projection.DefaultColumns()},
		processOptions{dryRun: true}, sink, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("runProcess() error: %v", err)
	}
	if summary.SuccessfulFiles != 3 || summary.OutputFile != "" || len(sink.docs) != 0 {
		t.Fatalf("dry run summary = %+v", summary)
	}

	entries, _ := os.ReadDir(cfg.OutputDir)
	if len(entries) != 0 {
		t.Errorf("dry run wrote %d file(s)", len(entries))
	}
	inputs, _ := os.ReadDir(cfg.InputDir)
	if len(inputs) != 4 {
		t.Errorf("dry run moved inputs: %d left", len(inputs))
	}
}

func TestRunProcessEmptyInput(t *testing.T) {
	cfg := testConfig(t)
	for _, name := range []string{"invoice.xml", "payroll.xml", "credit_note.xml", "broken.xml"} {
		os.Remove(filepath.Join(cfg.InputDir, name))
	}

	summary, err := runProcess(context.Background(), cfg, projection.ExportConfig{}, processOptions{}, nil, zaptest.NewLogger(t))
	if err != nil || summary.TotalFiles != 0 || summary.OutputFile != "" {
		t.Fatalf("empty run = %+v, %v", summary, err)
	}
}

func TestRunProcessAllFailed(t *testing.T) {
	cfg := testConfig(t)
	for _, name := range []string{"invoice.xml", "payroll.xml", "credit_note.xml"} {
		os.Remove(filepath.Join(cfg.InputDir, name))
	}

	summary, err := runProcess(context.Background(), cfg, projection.ExportConfig{Columns: projection.DefaultColumns()},
		processOptions{output: "out.xlsx"}, nil, zaptest.NewLogger(t))
	if err == nil {
		t.Fatal("expected an error when no file could be normalized")
	}
	if summary == nil || summary.FailedFiles != 1 {
		t.Fatalf("summary = %+v", summary)
	}
}

func TestRunProcessCancelled(t *testing.T) {
	cfg := testConfig(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := runProcess(ctx, cfg, projection.ExportConfig{}, processOptions{}, nil, zaptest.NewLogger(t)); !errors.Is(err, context.Canceled) {
		t.Fatalf("error = %v, want context.Canceled", err)
	}
}

func TestResolveExportConfig(t *testing.T) {
	cfg := &config.MainConfig{Export: config.ExportSettings{DetailLevel: "summary", GroupByKind: true}}

	got, err := resolveExportConfig(cfg, processOptions{detail: "items", groupSet: true, group: false,
		sectorFieldsSet: true, sectorFields: true, columns: "number, payableTotal"})
	if err != nil {
		t.Fatalf("resolveExportConfig() error: %v", err)
	}
	if got.DetailLevel != projection.Items || got.GroupByKind || !got.SectorFields {
		t.Errorf("flags not applied: %+v", got)
	}
	enabled := 0
	for _, c := range got.Columns {
		if c.Enabled {
			enabled++
		}
	}
	if enabled != 2 {
		t.Errorf("enabled columns = %d, want 2", enabled)
	}

	kept, _ := resolveExportConfig(cfg, processOptions{})
	if !kept.GroupByKind {
		t.Error("absent --group overrode the config value")
	}

	if _, err := resolveExportConfig(cfg, processOptions{columns: "nope"}); err == nil {
		t.Error("unknown column key should fail")
	}
}

func TestPrintColumns(t *testing.T) {
	var buf bytes.Buffer
	if err := printColumns(&buf, projection.Catalog()); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if !strings.HasPrefix(out, "KEY") || !strings.Contains(out, "payableTotal") || !strings.Contains(out, "item") {
		t.Errorf("columns output = %q", out)
	}

	buf.Reset()
	if err := printColumnsYAML(&buf, projection.DefaultColumns()[:1]); err != nil {
		t.Fatal(err)
	}
	if yml := buf.String(); !strings.HasPrefix(yml, "export:\n") || !strings.Contains(yml, "columns:") || !strings.Contains(yml, "- key: kind") {
		t.Errorf("yaml output = %q", buf.String())
	}
}

func TestInspectDocument(t *testing.T) {
	var buf bytes.Buffer
	if err := inspectDocument(&buf, filepath.Join("..", "internal", "normalizer", "testdata", "invoice.xml")); err != nil {
		t.Fatalf("inspectDocument() error: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, `"number": "FE001"`) || !strings.Contains(out, `"sourceFileName": "invoice.xml"`) {
		t.Errorf("inspect output = %s", out)
	}

	broken := filepath.Join(t.TempDir(), "broken.xml")
	os.WriteFile(broken, []byte("<Invoice>"), 0644)
	if err := inspectDocument(&buf, broken); err == nil {
		t.Error("broken file should fail")
	}
}
