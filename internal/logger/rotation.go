// File: internal/logger/rotation.go
package logger

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/whatcher1074/helloworld/internal/config"
	"gopkg.in/natefinch/lumberjack.v2"
)

// newRotator returns a size/age rotating file writer for cfg.FilePath.
func newRotator(cfg config.LogConfig) (*lumberjack.Logger, error) {
	logDir := filepath.Dir(cfg.FilePath)
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	return &lumberjack.Logger{
		Filename:   cfg.FilePath,
		MaxSize:    cfg.MaxSize,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAge,
		Compress:   cfg.Compress,
	}, nil
}
