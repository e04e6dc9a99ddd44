package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"inplace/internal/rewrite"
)

func TestMain(m *testing.M) {
	// The genai dependency tree starts the opencensus view worker in init.
	goleak.VerifyTestMain(m, goleak.IgnoreTopFunction("go.opencensus.io/stats/view.(*worker).start"))
}

var ignoreMu = cmpopts.IgnoreUnexported(Config{})

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, rewrite.KindOpenAI, cfg.ProviderKind())
	assert.Equal(t, "https://api.openai.com/v1", cfg.EffectiveBaseURL())
	assert.Equal(t, "gpt-5-nano", cfg.Provider.Model)
	assert.Equal(t, "option+shift+r", cfg.Hotkey.Combo)
	assert.Equal(t, 150*time.Millisecond, cfg.CopySettle())
	assert.Equal(t, []time.Duration{0, 80 * time.Millisecond, 120 * time.Millisecond}, cfg.ConfirmDelays())
	assert.Equal(t, 250*time.Millisecond, cfg.PasteDelay())
	assert.Equal(t, 600*time.Millisecond, cfg.RestoreDelay())
	assert.Equal(t, 60*time.Second, cfg.RequestTimeout())
}

func TestConfigPathOverride(t *testing.T) {
	t.Setenv("INPLACE_CONFIG", "/tmp/x/inplace.yaml")
	assert.Equal(t, "/tmp/x/inplace.yaml", ConfigPath())
}

func TestLoadFormats(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"config.toml", "version = 1\n[provider]\nkind = \"local\"\nmodel = \"llama3\"\n"},
		{"config.yaml", "version: 1\nprovider:\n  kind: local\n  model: llama3\n"},
		{"config.json", `{"version":1,"provider":{"kind":"local","model":"llama3"}}`},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), test.name)
			require.NoError(t, os.WriteFile(path, []byte(test.body), 0600))

			cfg, err := Load(path)
			require.NoError(t, err)
			assert.Equal(t, rewrite.KindLocal, cfg.ProviderKind())
			assert.Equal(t, "llama3", cfg.Provider.Model)
			// Fields absent from the file keep their defaults.
			assert.Equal(t, rewrite.DefaultInstruction, cfg.Provider.Instruction)
			assert.Equal(t, 250, cfg.Timing.PasteDelayMs)
		})
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	require.NoError(t, err)
	if diff := cmp.Diff(DefaultConfig(), cfg, ignoreMu); diff != "" {
		t.Errorf("defaults mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[provider]\nkind = \"anthropic\"\n"), 0600))

	_, err := Load(path)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidConfig)

	var verrs ValidationErrors
	require.True(t, errors.As(err, &verrs))
	assert.Equal(t, "provider.kind", verrs[0].Field)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"bad base url", func(c *Config) { c.Provider.BaseURL = "localhost:11434" }, "provider.base_url"},
		{"empty model", func(c *Config) { c.Provider.Model = " " }, "provider.model"},
		{"timeout", func(c *Config) { c.Provider.TimeoutSec = 0 }, "provider.timeout_sec"},
		{"temperature", func(c *Config) { c.Provider.Temperature = 3 }, "provider.temperature"},
		{"hotkey", func(c *Config) { c.Hotkey.Combo = "shift+" }, "hotkey.combo"},
		{"no confirm delays", func(c *Config) { c.Timing.ConfirmDelaysMs = nil }, "timing.confirm_delays_ms"},
		{"restore before paste", func(c *Config) { c.Timing.RestoreDelayMs = 100 }, "timing.restore_delay_ms"},
		{"history path", func(c *Config) { c.History.Path = "" }, "history.path"},
		{"log level", func(c *Config) { c.Logging.Level = "trace" }, "logging.level"},
		{"log output", func(c *Config) { c.Logging.Output = "syslog" }, "logging.output"},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			cfg := DefaultConfig()
			test.mutate(cfg)

			err := cfg.Validate()
			var verrs ValidationErrors
			require.True(t, errors.As(err, &verrs), "got %v", err)
			var fields []string
			for _, e := range verrs {
				fields = append(fields, e.Field)
			}
			assert.Contains(t, fields, test.field)
		})
	}
}

func TestEmptyBaseURLFallsBackToKindDefault(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Provider.Kind = "local"
	cfg.Provider.BaseURL = ""
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "http://localhost:11434/v1", cfg.EffectiveBaseURL())
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv("INPLACE_PROVIDER", "gemini")
	t.Setenv("INPLACE_MODEL", "gemini-2.5-pro")
	t.Setenv("INPLACE_TIMEOUT_SEC", "15")
	t.Setenv("INPLACE_LOG_LEVEL", "debug")

	cfg := DefaultConfig()
	cfg.ApplyEnvOverrides()

	assert.Equal(t, rewrite.KindGemini, cfg.ProviderKind())
	assert.Equal(t, "gemini-2.5-pro", cfg.Provider.Model)
	assert.Equal(t, 15*time.Second, cfg.RequestTimeout())
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestGetSetAliases(t *testing.T) {
	cfg := DefaultConfig()

	require.NoError(t, cfg.Set("model", "gpt-5"))
	v, err := cfg.Get("provider.model")
	require.NoError(t, err)
	assert.Equal(t, "gpt-5", v)

	require.NoError(t, cfg.Set("instruction", ""))
	assert.Equal(t, rewrite.DefaultInstruction, cfg.Provider.Instruction)

	require.NoError(t, cfg.Set("timing.confirm_delays_ms", "0, 50,100"))
	assert.Equal(t, []int{0, 50, 100}, cfg.Timing.ConfirmDelaysMs)

	_, err = cfg.Get("watch.paths")
	assert.Error(t, err)
	assert.Error(t, cfg.Set("timing.paste_delay_ms", "soon"))
	assert.Contains(t, Keys(), "provider.kind")
}

func TestSetProviderResetsDefaultBaseURL(t *testing.T) {
	tests := []struct {
		name     string
		before   string
		provider string
		want     string
	}{
		{"default follows kind", "https://api.openai.com/v1", "local", "http://localhost:11434/v1"},
		{"empty follows kind", "", "custom", "http://localhost:8080/v1"},
		{"other default follows kind", "http://localhost:11434/v1/", "openai", "https://api.openai.com/v1"},
		{"gemini has no default", "https://api.openai.com/v1", "gemini", ""},
		{"custom url kept", "https://llm.corp.example/v1", "local", "https://llm.corp.example/v1"},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.Provider.BaseURL = test.before
			require.NoError(t, cfg.Set("provider", test.provider))
			assert.Equal(t, test.provider, cfg.Provider.Kind)
			assert.Equal(t, test.want, cfg.Provider.BaseURL)
		})
	}

	cfg := DefaultConfig()
	assert.Error(t, cfg.Set("provider", "anthropic"))
	assert.Equal(t, "openai", cfg.Provider.Kind)
}

func TestSaveRoundTrip(t *testing.T) {
	for _, name := range []string{"config.toml", "config.yaml", "config.json"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), name)
			cfg := DefaultConfig()
			cfg.Provider.Kind = "custom"
			cfg.Provider.BaseURL = "https://llm.corp.example/v1"
			cfg.Timing.ConfirmDelaysMs = []int{0, 40}

			require.NoError(t, SaveConfig(cfg, path))
			loaded, err := Load(path)
			require.NoError(t, err)
			if diff := cmp.Diff(cfg, loaded, ignoreMu); diff != "" {
				t.Errorf("round trip mismatch (-want +got):\n%s", diff)
			}

			info, err := os.Stat(path)
			require.NoError(t, err)
			assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
		})
	}
}

func TestLoadOrCreate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "inplace", "config.toml")

	cfg, created, err := LoadOrCreate(path)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "openai", cfg.Provider.Kind)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "# inplace configuration"))

	_, created, err = LoadOrCreate(path)
	require.NoError(t, err)
	assert.False(t, created)
}

func TestUpdate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")

	cfg, err := Update(path, func(c *Config) error { return c.Set("provider", "local") })
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:11434/v1", cfg.Provider.BaseURL)

	_, err = Update(path, func(c *Config) error { return c.Set("provider.timeout_sec", "0") })
	assert.ErrorIs(t, err, ErrInvalidConfig)

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 60, loaded.Provider.TimeoutSec, "invalid update must not be written")
}

func TestClone(t *testing.T) {
	cfg := DefaultConfig()
	clone := cfg.Clone()
	clone.Timing.ConfirmDelaysMs[0] = 999
	assert.Equal(t, 0, cfg.Timing.ConfirmDelaysMs[0])
}

func TestLoaderHotReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, SaveConfig(DefaultConfig(), path))

	loader := NewLoader(path)
	_, err := loader.Load()
	require.NoError(t, err)

	changed := make(chan *Config, 1)
	loader.OnChange(func(c *Config) {
		select {
		case changed <- c:
		default:
		}
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- loader.Run(ctx) }()
	defer func() {
		cancel()
		require.NoError(t, <-done)
	}()

	// Give the watcher time to register the directory.
	time.Sleep(100 * time.Millisecond)

	_, err = Update(path, func(c *Config) error { return c.Set("model", "gpt-5-mini") })
	require.NoError(t, err)

	select {
	case c := <-changed:
		assert.Equal(t, "gpt-5-mini", c.Provider.Model)
		assert.Equal(t, "gpt-5-mini", loader.Config().Provider.Model)
	case <-time.After(5 * time.Second):
		t.Fatal("no reload after write")
	}
}

func TestLoaderKeepsConfigOnBadReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, SaveConfig(DefaultConfig(), path))

	loader := NewLoader(path)
	_, err := loader.Load()
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(path, []byte("[provider\n"), 0600))
	loader.reload()

	select {
	case err := <-loader.Errors():
		assert.Contains(t, err.Error(), "reload config")
	default:
		t.Fatal("expected a reload error")
	}
	assert.Equal(t, "openai", loader.Config().Provider.Kind)
}
