package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/lmittmann/tint"

	"pool-logger/internal/config"
)

// New builds the process logger. Lines go to stdout and, when cfg.LogFile is
// set, to the log file as well. The returned closer owns the file handle.
func New(cfg config.Config, version string, appName string) (*slog.Logger, io.Closer, error) {
	var out io.Writer = os.Stdout
	var closer io.Closer

	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file %s: %w", cfg.LogFile, err)
		}
		out = io.MultiWriter(os.Stdout, f)
		closer = f
	}

	if version == "dev" {
		h := tint.NewHandler(out, &tint.Options{
			Level:      cfg.LogLevel,
			TimeFormat: time.Kitchen,
			NoColor:    cfg.LogFile != "",
		})
		return slog.New(h).With("app", appName), closer, nil
	}

	h := slog.NewJSONHandler(out, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	})
	return slog.New(h).With(
		"app", appName,
		"version", version,
		"env", cfg.AppEnv,
	), closer, nil
}
