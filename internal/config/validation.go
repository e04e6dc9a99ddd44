package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"inplace/internal/hotkey"
	"inplace/internal/rewrite"
)

// ErrInvalidConfig is returned when validation fails.
var ErrInvalidConfig = errors.New("invalid configuration")

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Field, e.Message)
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// Is lets errors.Is(err, ErrInvalidConfig) match any validation failure.
func (e ValidationErrors) Is(target error) bool {
	return target == ErrInvalidConfig
}

// ValidateConfig checks every section of the configuration.
func ValidateConfig(c *Config) error {
	var errs ValidationErrors

	if c.Version < 1 || c.Version > Version {
		errs = append(errs, ValidationError{
			Field:   "version",
			Message: fmt.Sprintf("unsupported version %d (current: %d)", c.Version, Version),
		})
	}

	errs = append(errs, validateProvider(&c.Provider)...)
	errs = append(errs, validateHotkey(&c.Hotkey)...)
	errs = append(errs, validateTiming(&c.Timing)...)
	errs = append(errs, validateHistory(&c.History)...)
	errs = append(errs, validateLogging(&c.Logging)...)

	if len(errs) > 0 {
		return errs
	}
	return nil
}

func validateProvider(p *ProviderConfig) ValidationErrors {
	var errs ValidationErrors

	if _, err := rewrite.ParseKind(p.Kind); err != nil {
		errs = append(errs, ValidationError{
			Field:   "provider.kind",
			Message: fmt.Sprintf("invalid provider: %s (valid: openai, local, custom, gemini)", p.Kind),
		})
	}

	// An empty base URL means the kind's default.
	if p.BaseURL != "" && !isValidURL(p.BaseURL) {
		errs = append(errs, ValidationError{
			Field:   "provider.base_url",
			Message: fmt.Sprintf("invalid URL: %s", p.BaseURL),
		})
	}

	if strings.TrimSpace(p.Model) == "" {
		errs = append(errs, *RequiredFieldError("provider.model"))
	}

	if p.TimeoutSec < 1 || p.TimeoutSec > 600 {
		errs = append(errs, *RangeError("provider.timeout_sec", 1, 600))
	}

	if p.Temperature < 0 || p.Temperature > 2 {
		errs = append(errs, *RangeError("provider.temperature", 0, 2))
	}

	return errs
}

func validateHotkey(h *HotkeyConfig) ValidationErrors {
	if _, err := hotkey.ParseCombo(h.Combo); err != nil {
		return ValidationErrors{{
			Field:   "hotkey.combo",
			Message: err.Error(),
		}}
	}
	return nil
}

func validateTiming(t *TimingConfig) ValidationErrors {
	var errs ValidationErrors

	check := func(field string, v int) {
		if v < 0 || v > 5000 {
			errs = append(errs, *RangeError(field, 0, 5000))
		}
	}
	check("timing.copy_settle_ms", t.CopySettleMs)
	check("timing.paste_delay_ms", t.PasteDelayMs)
	check("timing.restore_delay_ms", t.RestoreDelayMs)

	if len(t.ConfirmDelaysMs) == 0 {
		errs = append(errs, *RequiredFieldError("timing.confirm_delays_ms"))
	}
	for i, d := range t.ConfirmDelaysMs {
		check(fmt.Sprintf("timing.confirm_delays_ms[%d]", i), d)
	}

	if t.RestoreDelayMs < t.PasteDelayMs {
		errs = append(errs, ValidationError{
			Field:   "timing.restore_delay_ms",
			Message: "restore delay must not be shorter than paste delay",
		})
	}

	return errs
}

func validateHistory(h *HistoryConfig) ValidationErrors {
	var errs ValidationErrors

	if h.Enabled && h.Path == "" {
		errs = append(errs, ValidationError{
			Field:   "history.path",
			Message: "path is required when history is enabled",
		})
	}
	if h.MaxEntries < 0 {
		errs = append(errs, ValidationError{
			Field:   "history.max_entries",
			Message: "max entries cannot be negative",
		})
	}

	return errs
}

func validateLogging(l *LoggingConfig) ValidationErrors {
	var errs ValidationErrors

	switch l.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, ValidationError{
			Field:   "logging.level",
			Message: fmt.Sprintf("invalid log level: %s (valid: debug, info, warn, error)", l.Level),
		})
	}

	switch l.Format {
	case "text", "json":
	default:
		errs = append(errs, ValidationError{
			Field:   "logging.format",
			Message: fmt.Sprintf("invalid log format: %s (valid: text, json)", l.Format),
		})
	}

	switch l.Output {
	case "stdout", "stderr":
	case "file", "both":
		if l.FilePath == "" {
			errs = append(errs, ValidationError{
				Field:   "logging.file_path",
				Message: "file path is required when output includes a file",
			})
		}
	default:
		errs = append(errs, ValidationError{
			Field:   "logging.output",
			Message: fmt.Sprintf("invalid log output: %s (valid: stdout, stderr, file, both)", l.Output),
		})
	}

	if l.MaxSizeMB < 1 {
		errs = append(errs, ValidationError{
			Field:   "logging.max_size_mb",
			Message: "max size must be at least 1 MB",
		})
	}
	if l.MaxBackups < 0 {
		errs = append(errs, ValidationError{
			Field:   "logging.max_backups",
			Message: "max backups cannot be negative",
		})
	}
	if l.MaxAgeDays < 0 {
		errs = append(errs, ValidationError{
			Field:   "logging.max_age_days",
			Message: "max age cannot be negative",
		})
	}

	return errs
}

func isValidURL(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return false
	}
	return u.Scheme == "http" || u.Scheme == "https"
}

// RequiredFieldError creates a validation error for a required field.
func RequiredFieldError(field string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: "required field is missing",
	}
}

// RangeError creates a validation error for an out-of-range value.
func RangeError(field string, min, max interface{}) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: fmt.Sprintf("value must be between %v and %v", min, max),
	}
}
