package config

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"inplace/internal/rewrite"
)

// aliases maps the short setting names used by the menu and the CLI to
// their dotted keys.
var aliases = map[string]string{
	"provider":    "provider.kind",
	"base_url":    "provider.base_url",
	"model":       "provider.model",
	"instruction": "provider.instruction",
}

type field struct {
	get func(c *Config) string
	set func(c *Config, v string) error
}

var fields = map[string]field{
	"provider.kind": {
		get: func(c *Config) string { return c.Provider.Kind },
		set: setProviderKind,
	},
	"provider.base_url": {
		get: func(c *Config) string { return c.Provider.BaseURL },
		set: func(c *Config, v string) error { c.Provider.BaseURL = strings.TrimSpace(v); return nil },
	},
	"provider.model": {
		get: func(c *Config) string { return c.Provider.Model },
		set: func(c *Config, v string) error { c.Provider.Model = orDefault(v, rewrite.DefaultModel); return nil },
	},
	"provider.instruction": {
		get: func(c *Config) string { return c.Provider.Instruction },
		set: func(c *Config, v string) error {
			c.Provider.Instruction = orDefault(v, rewrite.DefaultInstruction)
			return nil
		},
	},
	"provider.timeout_sec": intField(func(c *Config) *int { return &c.Provider.TimeoutSec }),
	"provider.temperature": {
		get: func(c *Config) string { return strconv.FormatFloat(c.Provider.Temperature, 'g', -1, 64) },
		set: func(c *Config, v string) error {
			f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
			if err != nil {
				return fmt.Errorf("temperature: %w", err)
			}
			c.Provider.Temperature = f
			return nil
		},
	},
	"hotkey.combo": {
		get: func(c *Config) string { return c.Hotkey.Combo },
		set: func(c *Config, v string) error { c.Hotkey.Combo = strings.TrimSpace(v); return nil },
	},
	"timing.copy_settle_ms":   intField(func(c *Config) *int { return &c.Timing.CopySettleMs }),
	"timing.paste_delay_ms":   intField(func(c *Config) *int { return &c.Timing.PasteDelayMs }),
	"timing.restore_delay_ms": intField(func(c *Config) *int { return &c.Timing.RestoreDelayMs }),
	"timing.confirm_delays_ms": {
		get: func(c *Config) string {
			parts := make([]string, len(c.Timing.ConfirmDelaysMs))
			for i, d := range c.Timing.ConfirmDelaysMs {
				parts[i] = strconv.Itoa(d)
			}
			return strings.Join(parts, ",")
		},
		set: func(c *Config, v string) error {
			var out []int
			for _, p := range strings.Split(v, ",") {
				n, err := strconv.Atoi(strings.TrimSpace(p))
				if err != nil {
					return fmt.Errorf("confirm delays: %w", err)
				}
				out = append(out, n)
			}
			c.Timing.ConfirmDelaysMs = out
			return nil
		},
	},
	"history.enabled": {
		get: func(c *Config) string { return strconv.FormatBool(c.History.Enabled) },
		set: func(c *Config, v string) error {
			b, err := strconv.ParseBool(strings.TrimSpace(v))
			if err != nil {
				return fmt.Errorf("enabled: %w", err)
			}
			c.History.Enabled = b
			return nil
		},
	},
	"history.path":        stringField(func(c *Config) *string { return &c.History.Path }),
	"history.max_entries": intField(func(c *Config) *int { return &c.History.MaxEntries }),
	"logging.level":       stringField(func(c *Config) *string { return &c.Logging.Level }),
	"logging.format":      stringField(func(c *Config) *string { return &c.Logging.Format }),
	"logging.output":      stringField(func(c *Config) *string { return &c.Logging.Output }),
	"logging.file_path":   stringField(func(c *Config) *string { return &c.Logging.FilePath }),
}

func intField(ptr func(c *Config) *int) field {
	return field{
		get: func(c *Config) string { return strconv.Itoa(*ptr(c)) },
		set: func(c *Config, v string) error {
			n, err := strconv.Atoi(strings.TrimSpace(v))
			if err != nil {
				return err
			}
			*ptr(c) = n
			return nil
		},
	}
}

func stringField(ptr func(c *Config) *string) field {
	return field{
		get: func(c *Config) string { return *ptr(c) },
		set: func(c *Config, v string) error { *ptr(c) = strings.TrimSpace(v); return nil },
	}
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}

// setProviderKind switches the provider. A base URL that is empty or the
// default of any kind follows the new kind; a custom URL is kept.
func setProviderKind(c *Config, v string) error {
	k, err := rewrite.ParseKind(v)
	if err != nil {
		return err
	}
	if rewrite.IsDefaultBaseURL(c.Provider.BaseURL) {
		c.Provider.BaseURL = k.DefaultBaseURL()
	}
	c.Provider.Kind = string(k)
	return nil
}

// CanonicalKey resolves an alias to its dotted key.
func CanonicalKey(key string) string {
	key = strings.ToLower(strings.TrimSpace(key))
	if full, ok := aliases[key]; ok {
		return full
	}
	return key
}

// Keys lists every settable dotted key.
func Keys() []string {
	out := make([]string, 0, len(fields))
	for k := range fields {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Get returns the value of a setting by dotted key or alias.
func (c *Config) Get(key string) (string, error) {
	f, ok := fields[CanonicalKey(key)]
	if !ok {
		return "", fmt.Errorf("unknown setting %q", key)
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return f.get(c), nil
}

// Set changes a setting by dotted key or alias. The result is not
// validated; callers validate before saving.
func (c *Config) Set(key, value string) error {
	f, ok := fields[CanonicalKey(key)]
	if !ok {
		return fmt.Errorf("unknown setting %q", key)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return f.set(c, value)
}
