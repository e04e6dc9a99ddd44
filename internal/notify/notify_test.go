package notify

import (
	"bytes"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorder(t *testing.T) {
	var r Recorder
	require.NoError(t, r.Notify("a", "b"))
	require.NoError(t, r.Notify("c", "d"))
	assert.Equal(t, []Message{{"a", "b"}, {"c", "d"}}, r.Messages())
}

func TestFallbackUsesSecondaryOnError(t *testing.T) {
	var rec Recorder
	failing := Func(func(string, string) error { return errors.New("no bus") })

	err := Fallback{Primary: failing, Secondary: &rec}.Notify("t", "b")
	require.NoError(t, err)
	assert.Len(t, rec.Messages(), 1)
}

func TestFallbackSkipsSecondaryOnSuccess(t *testing.T) {
	var primary, secondary Recorder
	require.NoError(t, Fallback{Primary: &primary, Secondary: &secondary}.Notify("t", "b"))
	assert.Len(t, primary.Messages(), 1)
	assert.Empty(t, secondary.Messages())
}

func TestFallbackWithoutSecondaryReturnsError(t *testing.T) {
	boom := errors.New("boom")
	err := Fallback{Primary: Func(func(string, string) error { return boom })}.Notify("t", "b")
	assert.ErrorIs(t, err, boom)
}

func TestLogNotifier(t *testing.T) {
	var buf bytes.Buffer
	n := Log{Logger: slog.New(slog.NewTextHandler(&buf, nil))}
	require.NoError(t, n.Notify("Rewrite failed", "Request failed (401)"))
	assert.Contains(t, buf.String(), "Rewrite failed")
}
