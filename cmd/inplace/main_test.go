package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"inplace/internal/bundle"
	"inplace/internal/config"
	"inplace/internal/history"
	"inplace/internal/logging"
)

// sandbox points every default path at a temp dir and returns the config
// file path passed to commands.
func sandbox(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Setenv("XDG_STATE_HOME", filepath.Join(dir, "state"))
	t.Setenv("INPLACE_DATA_DIR", filepath.Join(dir, "data"))
	t.Setenv("INPLACE_API_KEY", "")
	t.Cleanup(func() {
		configPath = ""
		verbose = false
	})
	return filepath.Join(dir, "config.toml")
}

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestVersion(t *testing.T) {
	sandbox(t)
	out, err := execute(t, "", "version")
	require.NoError(t, err)
	assert.Equal(t, "inplace dev\n", out)
}

func TestConfigPath(t *testing.T) {
	path := sandbox(t)
	out, err := execute(t, "", "config", "path", "--config", path)
	require.NoError(t, err)
	assert.Equal(t, path+"\n", out)
}

func TestConfigSetAndGet(t *testing.T) {
	path := sandbox(t)

	out, err := execute(t, "", "config", "set", "model", "gpt-5", "--config", path)
	require.NoError(t, err)
	assert.Equal(t, "provider.model = gpt-5\n", out)

	out, err = execute(t, "", "config", "get", "provider.model", "--config", path)
	require.NoError(t, err)
	assert.Equal(t, "gpt-5\n", out)

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "gpt-5", cfg.Provider.Model)

	audit, err := os.ReadFile(auditPath(cfg))
	require.NoError(t, err)
	assert.Contains(t, string(audit), `"event_type":"config_change"`)
	assert.Contains(t, string(audit), `"resource":"provider.model"`)
}

func TestConfigSetProviderFollowsDefaultURL(t *testing.T) {
	path := sandbox(t)

	_, err := execute(t, "", "config", "set", "provider", "local", "--config", path)
	require.NoError(t, err)

	out, err := execute(t, "", "config", "get", "base_url", "--config", path)
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:11434/v1\n", out)
}

func TestConfigSetRejectsInvalid(t *testing.T) {
	path := sandbox(t)

	_, err := execute(t, "", "config", "set", "timing.restore_delay_ms", "100", "--config", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid setting")

	_, err = execute(t, "", "config", "set", "no.such.key", "1", "--config", path)
	assert.ErrorContains(t, err, "unknown setting")
}

func TestConfigGetAllHidesKey(t *testing.T) {
	path := sandbox(t)
	_, err := execute(t, "", "key", "set", "sk-secret", "--config", path)
	require.NoError(t, err)

	out, err := execute(t, "", "config", "get", "--config", path)
	require.NoError(t, err)
	assert.Contains(t, out, "provider.model = gpt-5-nano\n")
	assert.Contains(t, out, "api_key = (set)\n")
	assert.NotContains(t, out, "sk-secret")
}

func TestKeySetFromStdinAndClear(t *testing.T) {
	path := sandbox(t)

	out, err := execute(t, "sk-test\n", "key", "set", "--config", path)
	require.NoError(t, err)
	assert.Equal(t, "API key stored\n", out)

	key, err := secretStore().APIKey()
	require.NoError(t, err)
	assert.Equal(t, "sk-test", key)

	out, err = execute(t, "", "config", "get", "api_key", "--config", path)
	require.NoError(t, err)
	assert.Equal(t, "(set)\n", out)

	_, err = execute(t, "", "key", "clear", "--config", path)
	require.NoError(t, err)
	out, err = execute(t, "", "config", "get", "api_key", "--config", path)
	require.NoError(t, err)
	assert.Equal(t, "(not set)\n", out)
}

func TestConfigSetAPIKeyUsesSecretStore(t *testing.T) {
	path := sandbox(t)

	_, err := execute(t, "", "config", "set", "api_key", "sk-abc", "--config", path)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	if err == nil {
		assert.NotContains(t, string(data), "sk-abc")
	}
	key, err := secretStore().APIKey()
	require.NoError(t, err)
	assert.Equal(t, "sk-abc", key)
}

func TestKeySetEmptyStdin(t *testing.T) {
	path := sandbox(t)
	_, err := execute(t, "\n", "key", "set", "--config", path)
	assert.ErrorContains(t, err, "empty key")
}

func TestHistoryEmpty(t *testing.T) {
	path := sandbox(t)
	out, err := execute(t, "", "history", "--config", path)
	require.NoError(t, err)
	assert.Equal(t, "No history recorded.\n", out)
}

func TestHistoryListsCycles(t *testing.T) {
	path := sandbox(t)
	cfg, err := config.Load(path)
	require.NoError(t, err)

	store, err := history.Open(cfg.History.Path, 0)
	require.NoError(t, err)
	ctx := context.Background()
	require.NoError(t, store.Record(ctx, history.Entry{
		ID:           "c1",
		Outcome:      history.OutcomeApplied,
		Provider:     "openai",
		Model:        "gpt-5-nano",
		OriginalLen:  9,
		RewrittenLen: 9,
		Duration:     1200 * time.Millisecond,
	}))
	require.NoError(t, store.Record(ctx, history.Entry{
		ID:       "c2",
		Outcome:  history.OutcomeFailed,
		Provider: "local",
		Model:    "llama3",
		Error:    "Request failed (500)",
	}))
	require.NoError(t, store.Close())

	out, err := execute(t, "", "history", "--limit", "5", "--config", path)
	require.NoError(t, err)
	assert.Contains(t, out, "OUTCOME")
	assert.Contains(t, out, "applied")
	assert.Contains(t, out, "Request failed (500)")
	assert.Contains(t, out, "2 cycles recorded, 1 applied, 1 failed")
}

func TestInstall(t *testing.T) {
	path := sandbox(t)
	dir := t.TempDir()

	out, err := execute(t, "", "install", "--dir", dir, "--config", path)
	require.NoError(t, err)
	app := filepath.Join(dir, bundle.Name+".app")
	assert.Equal(t, "Installed "+app+"\n", out)

	_, err = os.Stat(bundle.Executable(app))
	assert.NoError(t, err)
}

func TestNewLoggerHonorsVerbose(t *testing.T) {
	sandbox(t)
	cfg := config.DefaultConfig()
	cfg.Logging.Output = "stderr"

	verbose = true
	logger, err := newLogger(cfg)
	require.NoError(t, err)
	assert.True(t, logger.Enabled(context.Background(), logging.LevelDebug))

	cfg.Logging.Level = "loud"
	_, err = newLogger(cfg)
	assert.Error(t, err)
}

func TestQuiet(t *testing.T) {
	assert.NoError(t, quiet(context.Canceled))
	assert.NoError(t, quiet(nil))
	assert.ErrorIs(t, quiet(context.DeadlineExceeded), context.DeadlineExceeded)
}
