// Package logging builds the process logger.
package logging

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	rotatelogs "github.com/lestrrat-go/file-rotatelogs"
	"github.com/msomdec/book-exchange/internal/config"
)

// ParseLevel maps a LOG_LEVEL value to a slog level, defaulting to info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// New returns a logger writing human-readable text to stdout and JSON to
// stderr, or to a daily-rotated file when cfg.File is set. The returned
// closer releases the file, if any.
func New(cfg config.Log) (*slog.Logger, io.Closer, error) {
	opts := &slog.HandlerOptions{Level: ParseLevel(cfg.Level)}

	var (
		jsonOut io.Writer = os.Stderr
		closer  io.Closer = nopCloser{}
	)
	if cfg.File != "" {
		rl, err := newRotator(cfg.File, cfg.MaxAge)
		if err != nil {
			return nil, nil, err
		}
		jsonOut, closer = rl, rl
	}

	var handlers []slog.Handler
	if cfg.Format == "text" || cfg.Format == "both" {
		handlers = append(handlers, slog.NewTextHandler(os.Stdout, opts))
	}
	if cfg.Format == "json" || cfg.Format == "both" || cfg.File != "" {
		handlers = append(handlers, slog.NewJSONHandler(jsonOut, opts))
	}

	return slog.New(slog.NewMultiHandler(handlers...)), closer, nil
}

func newRotator(path string, maxAge time.Duration) (*rotatelogs.RotateLogs, error) {
	if maxAge <= 0 {
		maxAge = 7 * 24 * time.Hour
	}
	ext := filepath.Ext(path)
	pattern := strings.TrimSuffix(path, ext) + ".%Y%m%d" + ext
	return rotatelogs.New(pattern,
		rotatelogs.WithLinkName(path),
		rotatelogs.WithRotationTime(24*time.Hour),
		rotatelogs.WithMaxAge(maxAge),
	)
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
