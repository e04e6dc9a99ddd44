package logging

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"sync"
	"time"
)

// AuditEventType names a change to the agent's trust or credentials.
type AuditEventType string

// Audit event types.
const (
	AuditEventStartup        AuditEventType = "startup"
	AuditEventShutdown       AuditEventType = "shutdown"
	AuditEventConfigChange   AuditEventType = "config_change"
	AuditEventCredentialSet  AuditEventType = "credential_set"
	AuditEventCredentialGone AuditEventType = "credential_cleared"
	AuditEventPermission     AuditEventType = "permission"
	AuditEventInstall        AuditEventType = "install"
)

// AuditEvent is one line of the audit log.
type AuditEvent struct {
	Timestamp time.Time      `json:"timestamp"`
	EventType AuditEventType `json:"event_type"`
	Component string         `json:"component"`
	Action    string         `json:"action"`
	Resource  string         `json:"resource,omitempty"`
	Result    string         `json:"result"`
	Details   map[string]any `json:"details,omitempty"`
	Error     string         `json:"error,omitempty"`
	Cycle     string         `json:"cycle,omitempty"`
}

// AuditLoggerConfig holds configuration for the audit logger.
type AuditLoggerConfig struct {
	// FilePath is the path to the audit log file.
	FilePath string

	// MaxSize is the maximum size in MB before rotation.
	MaxSize int64

	// MaxBackups is the maximum number of rotated files to keep.
	MaxBackups int

	// Component is the component name for audit events.
	Component string
}

// DefaultAuditConfig returns default audit logger configuration.
func DefaultAuditConfig() *AuditLoggerConfig {
	return &AuditLoggerConfig{
		FilePath:   filepath.Join(defaultLogDir(), "audit.log"),
		MaxSize:    5,
		MaxBackups: 5,
		Component:  "inplace",
	}
}

// AuditLogger appends JSON lines describing credential, permission and
// configuration changes. Values of settings are never recorded for the
// credential key.
type AuditLogger struct {
	config  *AuditLoggerConfig
	rotator *FileRotator
	mu      sync.Mutex
}

// NewAuditLogger creates a new AuditLogger.
func NewAuditLogger(cfg *AuditLoggerConfig) (*AuditLogger, error) {
	if cfg == nil {
		cfg = DefaultAuditConfig()
	}

	rotator, err := NewFileRotator(&Config{
		FilePath:   cfg.FilePath,
		MaxSize:    cfg.MaxSize,
		MaxBackups: cfg.MaxBackups,
		Compress:   true,
	})
	if err != nil {
		return nil, fmt.Errorf("create audit rotator: %w", err)
	}
	return &AuditLogger{config: cfg, rotator: rotator}, nil
}

// Log writes an audit event.
func (a *AuditLogger) Log(ctx context.Context, event AuditEvent) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	if event.Component == "" {
		event.Component = a.config.Component
	}
	if event.Cycle == "" {
		event.Cycle = CycleFromContext(ctx)
	}
	if event.Result == "" {
		event.Result = "success"
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal audit event: %w", err)
	}
	data = append(data, '\n')
	if _, err := a.rotator.Write(data); err != nil {
		return fmt.Errorf("write audit event: %w", err)
	}
	return nil
}

// LogConfigChange records a settings change. Secret settings are logged
// without their values.
func (a *AuditLogger) LogConfigChange(ctx context.Context, setting, oldValue, newValue string) error {
	details := map[string]any{"old": oldValue, "new": newValue}
	if shouldRedact(setting) {
		details = nil
	}
	return a.Log(ctx, AuditEvent{
		EventType: AuditEventConfigChange,
		Action:    "set",
		Resource:  setting,
		Details:   details,
	})
}

// LogCredential records that the API key was stored or removed.
func (a *AuditLogger) LogCredential(ctx context.Context, provider string, stored bool) error {
	ev := AuditEvent{EventType: AuditEventCredentialSet, Action: "store", Resource: provider}
	if !stored {
		ev.EventType = AuditEventCredentialGone
		ev.Action = "clear"
	}
	return a.Log(ctx, ev)
}

// LogPermission records the accessibility trust state after a request.
func (a *AuditLogger) LogPermission(ctx context.Context, trusted, prompted bool) error {
	result := "granted"
	if !trusted {
		result = "denied"
	}
	return a.Log(ctx, AuditEvent{
		EventType: AuditEventPermission,
		Action:    "accessibility",
		Result:    result,
		Details:   map[string]any{"prompted": prompted},
	})
}

// LogInstall records an app bundle installation.
func (a *AuditLogger) LogInstall(ctx context.Context, path string, err error) error {
	ev := AuditEvent{EventType: AuditEventInstall, Action: "install", Resource: path}
	if err != nil {
		ev.Result = "failure"
		ev.Error = err.Error()
	}
	return a.Log(ctx, ev)
}

// LogStartup records agent startup.
func (a *AuditLogger) LogStartup(ctx context.Context, version string) error {
	return a.Log(ctx, AuditEvent{
		EventType: AuditEventStartup,
		Action:    "start",
		Details:   map[string]any{"version": version},
	})
}

// LogShutdown records agent shutdown.
func (a *AuditLogger) LogShutdown(ctx context.Context, reason string) error {
	return a.Log(ctx, AuditEvent{
		EventType: AuditEventShutdown,
		Action:    "stop",
		Details:   map[string]any{"reason": reason},
	})
}

// Close closes the audit log file.
func (a *AuditLogger) Close() error {
	return a.rotator.Close()
}
