// Package common holds process-wide helpers shared by the CLI and TUI.
package common

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/h0rv/spira/internal/config"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/arbor/models"
)

// InitLogger creates the arbor logger described by the logging configuration.
// With no usable output the logger has no writers and discards everything.
func InitLogger(cfg *config.Config) arbor.ILogger {
	logger := arbor.NewLogger()

	if cfg.LogsToFile() && cfg.Logging.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.Logging.File), 0o755); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: Failed to create log directory: %v\n", err)
		} else {
			logger = logger.WithFileWriter(models.WriterConfiguration{
				Type:       models.LogWriterTypeFile,
				FileName:   cfg.Logging.File,
				TimeFormat: "15:04:05",
				MaxSize:    10 * 1024 * 1024, // 10 MB
				MaxBackups: 3,
				OutputType: models.OutputFormatLogfmt,
			})
		}
	}

	if cfg.LogsToConsole() {
		logger = logger.WithConsoleWriter(models.WriterConfiguration{
			Type:       models.LogWriterTypeConsole,
			TimeFormat: "15:04:05",
		})
	}

	return logger.WithLevelFromString(cfg.Logging.Level)
}
