// =============================================================================
// DIAN XML Consolidator - Configuration Module
// =============================================================================
//
// This module loads the application configuration from config.yaml, applies
// defaults and environment overrides, and validates the result.
//
// CONFIGURATION SOURCES (later wins):
//   1. Built-in defaults
//   2. config.yaml (optional; a missing file means "all defaults")
//   3. .env file in the working directory (loaded with godotenv)
//   4. DIAN_* environment variables
//
// =============================================================================

package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/ginjaninja78/dian-xml-consolidator/internal/projection"
)

// Environment variables that override config.yaml.
const (
	EnvDatabaseURL = "DIAN_DATABASE_URL"
	EnvLogLevel    = "DIAN_LOG_LEVEL"
	EnvServerAddr  = "DIAN_SERVER_ADDR"
)

// =============================================================================
// MAIN CONFIGURATION STRUCTURE
// =============================================================================

// MainConfig holds the global application configuration.
type MainConfig struct {
	// =========================================================================
	// DIRECTORY SETTINGS
	// =========================================================================

	// InputDir is scanned for .xml documents.
	// Default: "./input"
	InputDir string `yaml:"input_dir"`

	// OutputDir receives the generated workbooks and log files.
	// Default: "./output"
	OutputDir string `yaml:"output_dir"`

	// InputArchiveDir receives processed inputs when ArchiveInputs is set.
	// Default: "./input_archive"
	InputArchiveDir string `yaml:"input_archive_dir"`

	// ArchiveInputs moves successfully normalized files into InputArchiveDir.
	// Default: false
	ArchiveInputs bool `yaml:"archive_inputs"`

	// OutputFileFormat is the workbook file name pattern.
	// Placeholders: {date}, {timestamp}, {uuid}, {label}
	// Default: "consolidado_{timestamp}.xlsx"
	OutputFileFormat string `yaml:"output_file_format"`

	// =========================================================================
	// LOGGING SETTINGS
	// =========================================================================

	// LogFile is the path of the file log. Empty disables file logging.
	LogFile string `yaml:"log_file"`

	// LogLevel controls the verbosity of logging.
	// Valid values: "debug", "info", "warn", "error"
	// Default: "info"
	LogLevel string `yaml:"log_level"`

	// =========================================================================
	// PROCESSING SETTINGS
	// =========================================================================

	// MaxConcurrency caps the number of files normalized at once.
	// Default: 4
	MaxConcurrency int `yaml:"max_concurrency"`

	Export   ExportSettings   `yaml:"export"`
	Database DatabaseSettings `yaml:"database"`
	Server   ServerSettings   `yaml:"server"`
}

// ExportSettings control how documents are projected into the workbook.
type ExportSettings struct {
	// DetailLevel is "summary" (one row per document) or "items" (one row
	// per line item).
	DetailLevel string `yaml:"detail_level"`

	// GroupByKind writes one sheet per document kind.
	GroupByKind bool `yaml:"group_by_kind"`

	// TaxBreakdown adds a value and a rate column per tax scheme.
	TaxBreakdown bool `yaml:"tax_breakdown"`

	// SectorFields appends the health and transport annex columns.
	SectorFields bool `yaml:"sector_fields"`

	// SheetName names the consolidated sheet when GroupByKind is off.
	SheetName string `yaml:"sheet_name"`

	// Columns override the enabled flag and label of catalog columns.
	Columns []projection.Column `yaml:"columns"`
}

// DatabaseSettings configure the optional PostgreSQL sink.
type DatabaseSettings struct {
	URL     string `yaml:"url"`
	Enabled bool   `yaml:"enabled"`
}

// ServerSettings configure the HTTP API.
type ServerSettings struct {
	Addr           string `yaml:"addr"`
	MaxUploadBytes int64  `yaml:"max_upload_bytes"`
}

// =============================================================================
// CONFIGURATION LOADING FUNCTIONS
// =============================================================================

// LoadMainConfig loads the main configuration file.
//
// PARAMETERS:
//   - configPath: Path to config.yaml. The file may be absent.
//
// RETURNS:
//   - The loaded configuration with defaults and overrides applied.
//   - An error if the file cannot be parsed or the values are invalid.
func LoadMainConfig(configPath string) (*MainConfig, error) {
	var config MainConfig

	data, err := os.ReadFile(configPath)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	case errors.Is(err, os.ErrNotExist):
		// Defaults only.
	default:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}
	applyEnvOverrides(&config)

	applyMainConfigDefaults(&config)

	if err := validateMainConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

func applyEnvOverrides(config *MainConfig) {
	if v := os.Getenv(EnvDatabaseURL); v != "" {
		config.Database.URL = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		config.LogLevel = v
	}
	if v := os.Getenv(EnvServerAddr); v != "" {
		config.Server.Addr = v
	}
}

// applyMainConfigDefaults sets default values for any unset configuration options.
func applyMainConfigDefaults(config *MainConfig) {
	if config.InputDir == "" {
		config.InputDir = "./input"
	}
	if config.OutputDir == "" {
		config.OutputDir = "./output"
	}
	if config.InputArchiveDir == "" {
		config.InputArchiveDir = "./input_archive"
	}
	if config.OutputFileFormat == "" {
		config.OutputFileFormat = "consolidado_{timestamp}.xlsx"
	}
	if config.LogLevel == "" {
		config.LogLevel = "info"
	}
	if config.MaxConcurrency == 0 {
		config.MaxConcurrency = 4
	}
	if config.Export.DetailLevel == "" {
		config.Export.DetailLevel = projection.Summary.String()
	}
	if config.Export.SheetName == "" {
		config.Export.SheetName = projection.DefaultSheetName
	}
	if config.Server.Addr == "" {
		config.Server.Addr = ":8080"
	}
	if config.Server.MaxUploadBytes == 0 {
		config.Server.MaxUploadBytes = 32 << 20
	}
}

// validateMainConfig validates the main configuration and creates the
// working directories.
func validateMainConfig(config *MainConfig) error {
	if _, err := zapcore.ParseLevel(config.LogLevel); err != nil {
		return fmt.Errorf("log_level: %w", err)
	}
	if config.MaxConcurrency < 0 {
		return fmt.Errorf("max_concurrency must not be negative, got %d", config.MaxConcurrency)
	}
	if config.Server.MaxUploadBytes < 0 {
		return fmt.Errorf("server.max_upload_bytes must not be negative")
	}
	if _, err := config.ExportConfig(); err != nil {
		return fmt.Errorf("export: %w", err)
	}
	if config.Database.Enabled && strings.TrimSpace(config.Database.URL) == "" {
		return fmt.Errorf("database.enabled is set but no database url is configured (set database.url or %s)", EnvDatabaseURL)
	}

	dirs := []string{config.InputDir, config.OutputDir}
	if config.ArchiveInputs {
		dirs = append(dirs, config.InputArchiveDir)
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	return nil
}

// ExportConfig builds the projection settings from the export section.
func (c *MainConfig) ExportConfig() (projection.ExportConfig, error) {
	level, err := projection.ParseDetailLevel(c.Export.DetailLevel)
	if err != nil {
		return projection.ExportConfig{}, err
	}
	columns, err := projection.ApplyOverrides(projection.Catalog(), c.Export.Columns)
	if err != nil {
		return projection.ExportConfig{}, err
	}
	return projection.ExportConfig{
		DetailLevel:  level,
		GroupByKind:  c.Export.GroupByKind,
		TaxBreakdown: c.Export.TaxBreakdown,
		SectorFields: c.Export.SectorFields,
		SheetName:    c.Export.SheetName,
		Columns:      columns,
	}, nil
}
