package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ginjaninja78/dian-xml-consolidator/internal/projection"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func dirsYAML(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	return "input_dir: " + filepath.Join(root, "in") + "\n" +
		"output_dir: " + filepath.Join(root, "out") + "\n" +
		"input_archive_dir: " + filepath.Join(root, "archive") + "\n"
}

func TestLoadMainConfigDefaults(t *testing.T) {
	cfg, err := LoadMainConfig(writeConfig(t, dirsYAML(t)))
	if err != nil {
		t.Fatalf("LoadMainConfig() error: %v", err)
	}

	if cfg.LogLevel != "info" || cfg.MaxConcurrency != 4 {
		t.Errorf("defaults not applied: %+v", cfg)
	}
	if cfg.OutputFileFormat != "consolidado_{timestamp}.xlsx" {
		t.Errorf("OutputFileFormat = %q", cfg.OutputFileFormat)
	}
	if cfg.Server.Addr != ":8080" || cfg.Server.MaxUploadBytes != 32<<20 {
		t.Errorf("server defaults = %+v", cfg.Server)
	}
	if _, err := os.Stat(cfg.InputDir); err != nil {
		t.Errorf("input dir not created: %v", err)
	}
	if _, err := os.Stat(cfg.InputArchiveDir); err == nil {
		t.Error("archive dir created although archive_inputs is off")
	}

	export, err := cfg.ExportConfig()
	if err != nil {
		t.Fatalf("ExportConfig() error: %v", err)
	}
	if export.DetailLevel != projection.Summary || export.SheetName != projection.DefaultSheetName {
		t.Errorf("export defaults = %+v", export)
	}
	if len(export.Columns) != len(projection.Catalog()) {
		t.Errorf("export columns = %d, want full catalog", len(export.Columns))
	}
}

func TestLoadMainConfigMissingFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	cfg, err := LoadMainConfig(filepath.Join(dir, "absent.yaml"))
	if err != nil {
		t.Fatalf("LoadMainConfig() error: %v", err)
	}
	if cfg.InputDir != "./input" {
		t.Errorf("InputDir = %q", cfg.InputDir)
	}
}

func TestLoadMainConfigExportSection(t *testing.T) {
	body := dirsYAML(t) + `
export:
  detail_level: items
  group_by_kind: true
  tax_breakdown: true
  sector_fields: true
  columns:
    - key: number
      label: Consecutivo
      enabled: true
    - key: currency
      enabled: true
    - key: uniqueCode
      enabled: false
`
	cfg, err := LoadMainConfig(writeConfig(t, body))
	if err != nil {
		t.Fatalf("LoadMainConfig() error: %v", err)
	}
	export, err := cfg.ExportConfig()
	if err != nil {
		t.Fatalf("ExportConfig() error: %v", err)
	}
	if export.DetailLevel != projection.Items || !export.GroupByKind || !export.TaxBreakdown || !export.SectorFields {
		t.Errorf("export = %+v", export)
	}
	for _, c := range export.Columns {
		switch c.Key {
		case "number":
			if c.Label != "Consecutivo" || !c.Enabled {
				t.Errorf("number = %+v", c)
			}
		case "currency":
			if !c.Enabled {
				t.Error("currency not enabled")
			}
		case "uniqueCode":
			if c.Enabled {
				t.Error("uniqueCode still enabled")
			}
		}
	}
}

func TestLoadMainConfigRejectsInvalidValues(t *testing.T) {
	cases := map[string]string{
		"level":   "log_level: loud\n",
		"detail":  "export:\n  detail_level: full\n",
		"column":  "export:\n  columns:\n    - key: bogus\n",
		"workers": "max_concurrency: -1\n",
		"db":      "database:\n  enabled: true\n",
		"yaml":    "input_dir: [\n",
	}
	for name, extra := range cases {
		t.Run(name, func(t *testing.T) {
			t.Setenv(EnvDatabaseURL, "")
			if _, err := LoadMainConfig(writeConfig(t, dirsYAML(t)+extra)); err == nil {
				t.Fatal("expected an error")
			}
		})
	}
}

func TestLoadMainConfigEnvOverrides(t *testing.T) {
	t.Setenv(EnvDatabaseURL, "postgres://localhost/dian")
	t.Setenv(EnvLogLevel, "debug")
	t.Setenv(EnvServerAddr, "127.0.0.1:9000")

	body := dirsYAML(t) + "log_level: warn\ndatabase:\n  enabled: true\n"
	cfg, err := LoadMainConfig(writeConfig(t, body))
	if err != nil {
		t.Fatalf("LoadMainConfig() error: %v", err)
	}
	if cfg.Database.URL != "postgres://localhost/dian" || cfg.LogLevel != "debug" || cfg.Server.Addr != "127.0.0.1:9000" {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
}

func TestNewLoggerWritesFile(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "logs", "consolidator.log")
	cfg := &MainConfig{LogLevel: "warn", LogFile: logFile}

	log, closeLog, err := cfg.NewLogger(false)
	if err != nil {
		t.Fatalf("NewLogger() error: %v", err)
	}
	log.Info("hidden")
	log.Warn("visible")
	if err := closeLog(); err != nil {
		t.Fatalf("close error: %v", err)
	}

	data, err := os.ReadFile(logFile)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(data), "hidden") || !strings.Contains(string(data), "visible") {
		t.Fatalf("log file = %q", data)
	}

	if _, _, err := (&MainConfig{LogLevel: "nope"}).NewLogger(false); err == nil {
		t.Error("NewLogger with invalid level should fail")
	}
}

func TestNewLoggerCloseReleasesFile(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "consolidator.log")
	cfg := &MainConfig{LogLevel: "info", LogFile: logFile}

	_, closeLog, err := cfg.NewLogger(false)
	if err != nil {
		t.Fatalf("NewLogger() error: %v", err)
	}
	if err := closeLog(); err != nil {
		t.Fatalf("first close error: %v", err)
	}
	if err := closeLog(); !errors.Is(err, os.ErrClosed) {
		t.Errorf("second close = %v, want os.ErrClosed", err)
	}
}

func TestNewLoggerCloseWithoutFile(t *testing.T) {
	_, closeLog, err := (&MainConfig{LogLevel: "info"}).NewLogger(true)
	if err != nil {
		t.Fatalf("NewLogger() error: %v", err)
	}
	if err := closeLog(); err != nil {
		t.Errorf("close without log file = %v, want nil", err)
	}
}
