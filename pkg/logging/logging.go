// backend/pkg/logging/logging.go
package logging

import (
	"io"
	"log"
	"os"
	"path/filepath"

	"gopkg.in/natefinch/lumberjack.v2"
)

type Config struct {
	// File is the rotated log file. Empty logs to stdout only.
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// Setup points the standard logger at stdout and, when configured, a rotated
// file. The returned closer flushes the file and restores stderr output.
func Setup(cfg Config) (io.Closer, error) {
	log.SetFlags(log.Ldate | log.Ltime | log.Lmicroseconds)
	if cfg.File == "" {
		log.SetOutput(os.Stdout)
		return nopCloser{}, nil
	}
	if err := os.MkdirAll(filepath.Dir(cfg.File), 0o755); err != nil {
		return nil, err
	}

	file := &lumberjack.Logger{
		Filename:   cfg.File,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAgeDays,
		Compress:   true,
	}
	log.SetOutput(io.MultiWriter(os.Stdout, file))
	return &fileCloser{file: file}, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

type fileCloser struct {
	file *lumberjack.Logger
}

func (c *fileCloser) Close() error {
	log.SetOutput(os.Stderr)
	return c.file.Close()
}
