// =============================================================================
// DIAN XML Consolidator - Logger Setup
// =============================================================================
//
// Builds the zap logger shared by every command: a console core on stderr
// and, when log_file is set, a second core appending to that file. Both
// cores share one atomic level taken from log_level (--verbose forces
// debug).
//
// =============================================================================

package config

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewLogger returns the program logger.
//
// PARAMETERS:
//   - verbose: Forces debug level on every core.
//
// RETURNS:
//   - The logger.
//   - A close function that flushes the logger and closes the log file. It
//     must be called once the logger is no longer used.
//   - An error if log_level is invalid or the log file cannot be opened.
func (c *MainConfig) NewLogger(verbose bool) (*zap.Logger, func() error, error) {
	level, err := zapcore.ParseLevel(c.LogLevel)
	if err != nil {
		return nil, nil, fmt.Errorf("log_level: %w", err)
	}
	if verbose {
		level = zapcore.DebugLevel
	}
	enabler := zap.NewAtomicLevelAt(level)

	ec := zap.NewDevelopmentEncoderConfig()
	ec.EncodeCaller = nil
	ec.EncodeLevel = zapcore.CapitalLevelEncoder
	cores := []zapcore.Core{
		zapcore.NewCore(zapcore.NewConsoleEncoder(ec), zapcore.Lock(os.Stderr), enabler),
	}

	var file *os.File
	if c.LogFile != "" {
		if err := os.MkdirAll(filepath.Dir(c.LogFile), 0755); err != nil {
			return nil, nil, fmt.Errorf("failed to create log directory: %w", err)
		}
		file, err = os.OpenFile(c.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, nil, fmt.Errorf("unable to open log file (%s): %w", c.LogFile, err)
		}
		fileEncoder := zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig())
		cores = append(cores, zapcore.NewCore(fileEncoder, zapcore.Lock(file), enabler))
	}

	logger := zap.New(zapcore.NewTee(cores...), zap.AddCaller())
	closeLogger := func() error {
		// Sync fails on terminals and pipes; only the file close matters.
		_ = logger.Sync()
		if file == nil {
			return nil
		}
		return file.Close()
	}
	return logger, closeLogger, nil
}
