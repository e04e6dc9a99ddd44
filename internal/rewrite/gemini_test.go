package rewrite

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGeminiRewrite(t *testing.T) {
	var path, key string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		key = r.Header.Get("x-goog-api-key")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"role":"model","parts":[{"text":" the quick \n"}]},"finishReason":"STOP"}]}`))
	}))
	defer srv.Close()

	client := NewGeminiClient(5*time.Second, quietLogger())
	text, err := client.Rewrite(context.Background(), Request{
		Text:        "teh quick",
		Instruction: "fix grammar",
		APIKey:      "g-key",
		BaseURL:     srv.URL,
	})
	require.NoError(t, err)
	assert.Equal(t, "the quick", text)
	assert.True(t, strings.HasSuffix(path, DefaultGeminiModel+":generateContent"), path)
	assert.Equal(t, "g-key", key)
}

func TestGeminiStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error":{"code":403,"message":"API key not valid","status":"PERMISSION_DENIED"}}`))
	}))
	defer srv.Close()

	client := NewGeminiClient(5*time.Second, quietLogger())
	_, err := client.Rewrite(context.Background(), Request{Text: "x", APIKey: "bad", BaseURL: srv.URL})

	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr), "got %v", err)
	assert.Equal(t, http.StatusForbidden, statusErr.Code)
}

func TestGeminiRequiresKey(t *testing.T) {
	client := NewGeminiClient(time.Second, quietLogger())
	_, err := client.Rewrite(context.Background(), Request{Text: "x"})
	assert.ErrorIs(t, err, ErrMissingAPIKey)
}
