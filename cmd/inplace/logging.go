package main

import (
	"context"
	"path/filepath"

	"inplace/internal/config"
	"inplace/internal/logging"
)

// newLogger builds the process logger from the [logging] section.
func newLogger(cfg *config.Config) (*logging.Logger, error) {
	lc := logging.DefaultConfig()

	level, err := logging.ParseLevel(cfg.Logging.Level)
	if err != nil {
		return nil, err
	}
	if verbose {
		level = logging.LevelDebug
	}
	format, err := logging.ParseFormat(cfg.Logging.Format)
	if err != nil {
		return nil, err
	}

	lc.Level = level
	lc.Format = format
	if cfg.Logging.Output != "" {
		lc.Output = cfg.Logging.Output
	}
	if cfg.Logging.FilePath != "" {
		lc.FilePath = cfg.Logging.FilePath
	}
	if cfg.Logging.MaxSizeMB > 0 {
		lc.MaxSize = int64(cfg.Logging.MaxSizeMB)
	}
	if cfg.Logging.MaxBackups > 0 {
		lc.MaxBackups = cfg.Logging.MaxBackups
	}
	if cfg.Logging.MaxAgeDays > 0 {
		lc.MaxAge = cfg.Logging.MaxAgeDays
	}
	return logging.New(lc)
}

func auditPath(cfg *config.Config) string {
	dir := filepath.Dir(cfg.Logging.FilePath)
	if cfg.Logging.FilePath == "" {
		dir = config.PlatformLogDir()
	}
	return filepath.Join(dir, "audit.log")
}

func openAudit(cfg *config.Config) (*logging.AuditLogger, error) {
	ac := logging.DefaultAuditConfig()
	ac.FilePath = auditPath(cfg)
	return logging.NewAuditLogger(ac)
}

// withAudit appends one audit record. Audit failures are logged and never
// fail the command.
func withAudit(cfg *config.Config, fn func(ctx context.Context, a *logging.AuditLogger) error) {
	a, err := openAudit(cfg)
	if err != nil {
		logging.Default().Warn("open audit log", "error", err)
		return
	}
	defer a.Close()
	if err := fn(context.Background(), a); err != nil {
		logging.Default().Warn("write audit log", "error", err)
	}
}
