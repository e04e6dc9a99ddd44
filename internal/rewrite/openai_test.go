package rewrite

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func readFixture(t *testing.T, name string) []byte {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", name))
	require.NoError(t, err)
	return data
}

type captured struct {
	path   string
	auth   string
	body   chatRequest
	called int
}

func newServer(t *testing.T, status int, reply []byte) (*httptest.Server, *captured) {
	t.Helper()
	c := &captured{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c.called++
		c.path = r.URL.Path
		c.auth = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&c.body)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write(reply)
	}))
	t.Cleanup(srv.Close)
	return srv, c
}

func TestOpenAIRewrite(t *testing.T) {
	srv, got := newServer(t, http.StatusOK, readFixture(t, "completion_ok.json"))
	client := NewOpenAIClient(5*time.Second, quietLogger())

	text, err := client.Rewrite(context.Background(), Request{
		Text:        "teh quick",
		Instruction: "fix grammar",
		Model:       "gpt-5-nano",
		APIKey:      "sk-test",
		BaseURL:     srv.URL + "/v1/",
	})
	require.NoError(t, err)
	assert.Equal(t, "the quick", text)

	assert.Equal(t, "/v1/chat/completions", got.path)
	assert.Equal(t, "Bearer sk-test", got.auth)
	want := chatRequest{
		Model: "gpt-5-nano",
		Messages: []chatMessage{
			{Role: "system", Content: SystemPrompt},
			{Role: "user", Content: "INSTRUCTION:\nfix grammar\n\nTEXT:\nteh quick"},
		},
		Temperature: 1.0,
	}
	if diff := cmp.Diff(want, got.body); diff != "" {
		t.Errorf("request body mismatch (-want +got):\n%s", diff)
	}
}

func TestOpenAIZeroTemperature(t *testing.T) {
	srv, got := newServer(t, http.StatusOK, readFixture(t, "completion_ok.json"))
	client := NewOpenAIClient(5*time.Second, quietLogger())

	zero := 0.0
	_, err := client.Rewrite(context.Background(), Request{Text: "x", BaseURL: srv.URL, Temperature: &zero})
	require.NoError(t, err)
	assert.Zero(t, got.body.Temperature)
}

func TestOpenAINoKeyNoAuthorization(t *testing.T) {
	srv, got := newServer(t, http.StatusOK, readFixture(t, "completion_ok.json"))
	client := NewOpenAIClient(5*time.Second, quietLogger())

	_, err := client.Rewrite(context.Background(), Request{Text: "x", BaseURL: srv.URL})
	require.NoError(t, err)
	assert.Empty(t, got.auth)
	assert.Equal(t, DefaultModel, got.body.Model)
	assert.Contains(t, got.body.Messages[1].Content, DefaultInstruction)
}

func TestOpenAIStatusError(t *testing.T) {
	srv, _ := newServer(t, http.StatusUnauthorized, []byte(`{"error":{"message":"Incorrect API key provided"}}`))
	client := NewOpenAIClient(5*time.Second, quietLogger())

	_, err := client.Rewrite(context.Background(), Request{Text: "x", BaseURL: srv.URL})
	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr), "got %v", err)
	assert.Equal(t, http.StatusUnauthorized, statusErr.Code)
	assert.Equal(t, "Incorrect API key provided", statusErr.Message)
	assert.Equal(t, "Request failed (401): Incorrect API key provided", UserMessage(err))
}

func TestOpenAIStatusErrorTruncatesAtRune(t *testing.T) {
	body := strings.Repeat("a", maxErrorBytes-1) + "é and more"
	srv, _ := newServer(t, http.StatusBadGateway, []byte(body))
	client := NewOpenAIClient(5*time.Second, quietLogger())

	_, err := client.Rewrite(context.Background(), Request{Text: "x", BaseURL: srv.URL})
	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr), "got %v", err)
	assert.Equal(t, strings.Repeat("a", maxErrorBytes-1), statusErr.Message)
	assert.True(t, utf8.ValidString(UserMessage(err)))
}

func TestOpenAIEmptyContent(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"no choices", `{"choices":[]}`},
		{"null content", `{"choices":[{"message":{"content":null}}]}`},
		{"blank content", `{"choices":[{"message":{"content":"  \n "}}]}`},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			srv, _ := newServer(t, http.StatusOK, []byte(test.body))
			client := NewOpenAIClient(5*time.Second, quietLogger())

			_, err := client.Rewrite(context.Background(), Request{Text: "x", BaseURL: srv.URL})
			assert.ErrorIs(t, err, ErrNoContent)
			assert.Equal(t, "Model returned no content", UserMessage(err))
		})
	}
}

func TestOpenAIRejectsUnexpectedShape(t *testing.T) {
	srv, _ := newServer(t, http.StatusOK, readFixture(t, "completion_bad_shape.json"))
	client := NewOpenAIClient(5*time.Second, quietLogger())

	_, err := client.Rewrite(context.Background(), Request{Text: "x", BaseURL: srv.URL})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected response shape")
}

func TestOpenAIInvalidBaseURL(t *testing.T) {
	client := NewOpenAIClient(time.Second, quietLogger())

	for _, base := range []string{"", "not a url", "ftp://example.com", "localhost:8080"} {
		_, err := client.Rewrite(context.Background(), Request{Text: "x", BaseURL: base})
		assert.ErrorIs(t, err, ErrInvalidBaseURL, "base %q", base)
	}
}

func TestOpenAIRespectsContext(t *testing.T) {
	block := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-block:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(block)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	client := NewOpenAIClient(5*time.Second, quietLogger())
	_, err := client.Rewrite(ctx, Request{Text: "x", BaseURL: srv.URL})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestResponseSchemaFixtures(t *testing.T) {
	tests := []struct {
		fixture string
		valid   bool
	}{
		{"completion_ok.json", true},
		{"completion_bad_shape.json", false},
	}

	schema, err := responseSchema()
	require.NoError(t, err)

	for _, test := range tests {
		t.Run(test.fixture, func(t *testing.T) {
			var doc any
			require.NoError(t, json.Unmarshal(readFixture(t, test.fixture), &doc))
			err := schema.Validate(doc)
			if test.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}
