// Package config handles configuration loading, validation, and management for inplace.
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"inplace/internal/rewrite"
)

// Version is the current configuration schema version.
const Version = 1

// Config holds the complete agent configuration.
type Config struct {
	// Version is the configuration schema version.
	Version int `toml:"version" json:"version" yaml:"version"`

	// Provider selects and parameterizes the rewrite endpoint.
	Provider ProviderConfig `toml:"provider" json:"provider" yaml:"provider"`

	// Hotkey configures the global trigger.
	Hotkey HotkeyConfig `toml:"hotkey" json:"hotkey" yaml:"hotkey"`

	// Timing holds the delays used while talking to other applications.
	Timing TimingConfig `toml:"timing" json:"timing" yaml:"timing"`

	// History configures the local record of rewrite cycles.
	History HistoryConfig `toml:"history" json:"history" yaml:"history"`

	// Logging configuration.
	Logging LoggingConfig `toml:"logging" json:"logging" yaml:"logging"`

	// mu protects concurrent access to the config.
	mu sync.RWMutex `toml:"-" json:"-" yaml:"-"`
}

// ProviderConfig holds the rewrite provider settings.
type ProviderConfig struct {
	// Kind is one of openai, local, custom or gemini.
	Kind string `toml:"kind" json:"kind" yaml:"kind"`

	// BaseURL is the endpoint root. Empty means the kind's default.
	BaseURL string `toml:"base_url" json:"base_url" yaml:"base_url"`

	// Model is the model identifier sent with each request.
	Model string `toml:"model" json:"model" yaml:"model"`

	// Instruction is the default rewrite instruction.
	Instruction string `toml:"instruction" json:"instruction" yaml:"instruction"`

	// TimeoutSec bounds one provider request.
	TimeoutSec int `toml:"timeout_sec" json:"timeout_sec" yaml:"timeout_sec"`

	// Temperature is the sampling temperature.
	Temperature float64 `toml:"temperature" json:"temperature" yaml:"temperature"`
}

// HotkeyConfig holds the global shortcut.
type HotkeyConfig struct {
	// Combo is a "+" separated list of modifiers and one key, e.g. "option+shift+r".
	Combo string `toml:"combo" json:"combo" yaml:"combo"`
}

// TimingConfig holds delays in milliseconds.
type TimingConfig struct {
	// CopySettleMs is the wait after synthesizing Cmd+C before reading the clipboard.
	CopySettleMs int `toml:"copy_settle_ms" json:"copy_settle_ms" yaml:"copy_settle_ms"`

	// ConfirmDelaysMs are the confirmation poll delays after a write.
	ConfirmDelaysMs []int `toml:"confirm_delays_ms" json:"confirm_delays_ms" yaml:"confirm_delays_ms"`

	// PasteDelayMs is the wait before Cmd+V in the paste fallback.
	PasteDelayMs int `toml:"paste_delay_ms" json:"paste_delay_ms" yaml:"paste_delay_ms"`

	// RestoreDelayMs is the wait before the clipboard is restored after pasting.
	RestoreDelayMs int `toml:"restore_delay_ms" json:"restore_delay_ms" yaml:"restore_delay_ms"`
}

// HistoryConfig holds rewrite history settings.
type HistoryConfig struct {
	// Enabled turns recording on.
	Enabled bool `toml:"enabled" json:"enabled" yaml:"enabled"`

	// Path is the SQLite database file.
	Path string `toml:"path" json:"path" yaml:"path"`

	// MaxEntries bounds the number of stored cycles. 0 keeps everything.
	MaxEntries int `toml:"max_entries" json:"max_entries" yaml:"max_entries"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `toml:"level" json:"level" yaml:"level"`

	// Format is text or json.
	Format string `toml:"format" json:"format" yaml:"format"`

	// Output is stdout, stderr, file or both.
	Output string `toml:"output" json:"output" yaml:"output"`

	// FilePath is the log file used when Output includes a file.
	FilePath string `toml:"file_path" json:"file_path" yaml:"file_path"`

	// MaxSizeMB is the size at which the log file is rotated.
	MaxSizeMB int `toml:"max_size_mb" json:"max_size_mb" yaml:"max_size_mb"`

	// MaxBackups is the number of rotated files kept.
	MaxBackups int `toml:"max_backups" json:"max_backups" yaml:"max_backups"`

	// MaxAgeDays is the age after which rotated files are removed.
	MaxAgeDays int `toml:"max_age_days" json:"max_age_days" yaml:"max_age_days"`
}

// DefaultConfig returns the configuration used when no file exists.
func DefaultConfig() *Config {
	return &Config{
		Version: Version,
		Provider: ProviderConfig{
			Kind:        string(rewrite.KindOpenAI),
			BaseURL:     rewrite.KindOpenAI.DefaultBaseURL(),
			Model:       rewrite.DefaultModel,
			Instruction: rewrite.DefaultInstruction,
			TimeoutSec:  60,
			Temperature: rewrite.DefaultTemperature,
		},
		Hotkey: HotkeyConfig{
			Combo: "option+shift+r",
		},
		Timing: TimingConfig{
			CopySettleMs:    150,
			ConfirmDelaysMs: []int{0, 80, 120},
			PasteDelayMs:    250,
			RestoreDelayMs:  600,
		},
		History: HistoryConfig{
			Enabled:    true,
			Path:       filepath.Join(PlatformDataDir(), "history.db"),
			MaxEntries: 500,
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "text",
			Output:     "file",
			FilePath:   filepath.Join(PlatformLogDir(), "inplace.log"),
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 14,
		},
	}
}

// ConfigPath returns the default configuration file path.
func ConfigPath() string {
	if p := os.Getenv("INPLACE_CONFIG"); p != "" {
		return p
	}
	return filepath.Join(PlatformConfigDir(), "config.toml")
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	return ValidateConfig(c)
}

// EnsureDirectories creates the directories the agent writes into.
func (c *Config) EnsureDirectories() error {
	dirs := []string{PlatformDataDir()}
	if c.History.Enabled {
		dirs = append(dirs, filepath.Dir(c.History.Path))
	}
	if c.Logging.FilePath != "" {
		dirs = append(dirs, filepath.Dir(c.Logging.FilePath))
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return err
		}
	}
	return nil
}

// ApplyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables are prefixed with INPLACE_ and use underscores.
func (c *Config) ApplyEnvOverrides() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if v := os.Getenv("INPLACE_PROVIDER"); v != "" {
		c.Provider.Kind = v
	}
	if v := os.Getenv("INPLACE_BASE_URL"); v != "" {
		c.Provider.BaseURL = v
	}
	if v := os.Getenv("INPLACE_MODEL"); v != "" {
		c.Provider.Model = v
	}
	if v := os.Getenv("INPLACE_TIMEOUT_SEC"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Provider.TimeoutSec = n
		}
	}
	if v := os.Getenv("INPLACE_HOTKEY"); v != "" {
		c.Hotkey.Combo = v
	}
	if v := os.Getenv("INPLACE_HISTORY_PATH"); v != "" {
		c.History.Path = v
	}
	if v := os.Getenv("INPLACE_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("INPLACE_LOG_PATH"); v != "" {
		c.Logging.FilePath = v
	}
}

// Clone returns a deep copy of the configuration.
func (c *Config) Clone() *Config {
	c.mu.RLock()
	defer c.mu.RUnlock()

	clone := &Config{
		Version:  c.Version,
		Provider: c.Provider,
		Hotkey:   c.Hotkey,
		Timing:   c.Timing,
		History:  c.History,
		Logging:  c.Logging,
	}
	clone.Timing.ConfirmDelaysMs = append([]int{}, c.Timing.ConfirmDelaysMs...)
	return clone
}

// ProviderKind returns the parsed provider kind, defaulting to openai.
func (c *Config) ProviderKind() rewrite.Kind {
	k, err := rewrite.ParseKind(c.Provider.Kind)
	if err != nil {
		return rewrite.KindOpenAI
	}
	return k
}

// EffectiveBaseURL returns the configured base URL or the kind's default.
func (c *Config) EffectiveBaseURL() string {
	if u := strings.TrimSpace(c.Provider.BaseURL); u != "" {
		return u
	}
	return c.ProviderKind().DefaultBaseURL()
}

// RequestTimeout returns the provider timeout.
func (c *Config) RequestTimeout() time.Duration {
	if c.Provider.TimeoutSec <= 0 {
		return 60 * time.Second
	}
	return time.Duration(c.Provider.TimeoutSec) * time.Second
}

// CopySettle returns the clipboard settle delay.
func (c *Config) CopySettle() time.Duration {
	return ms(c.Timing.CopySettleMs)
}

// ConfirmDelays returns the confirmation poll delays.
func (c *Config) ConfirmDelays() []time.Duration {
	out := make([]time.Duration, len(c.Timing.ConfirmDelaysMs))
	for i, d := range c.Timing.ConfirmDelaysMs {
		out[i] = ms(d)
	}
	return out
}

// PasteDelay returns the delay before the fallback paste.
func (c *Config) PasteDelay() time.Duration {
	return ms(c.Timing.PasteDelayMs)
}

// RestoreDelay returns the delay before the clipboard is restored after pasting.
func (c *Config) RestoreDelay() time.Duration {
	return ms(c.Timing.RestoreDelayMs)
}

func ms(n int) time.Duration {
	return time.Duration(n) * time.Millisecond
}
