package rewrite

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"inplace/internal/logging"
)

//go:embed schema/chat_completion.schema.json
var chatCompletionSchema []byte

const chatCompletionSchemaURL = "https://inplace.local/schema/chat_completion.schema.json"

// maxErrorBytes bounds the raw error body quoted to the user.
const maxErrorBytes = 500

// maxResponseBytes bounds how much of a reply is read.
const maxResponseBytes = 4 << 20

var (
	schemaOnce     sync.Once
	compiledSchema *jsonschema.Schema
	schemaErr      error
)

func responseSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource(chatCompletionSchemaURL, bytes.NewReader(chatCompletionSchema)); err != nil {
			schemaErr = fmt.Errorf("add schema resource: %w", err)
			return
		}
		compiledSchema, schemaErr = compiler.Compile(chatCompletionSchemaURL)
	})
	return compiledSchema, schemaErr
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content *string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

type errorBody struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// OpenAIClient talks to any endpoint implementing the chat completions API:
// OpenAI itself, local servers such as Ollama, or a custom gateway.
type OpenAIClient struct {
	httpClient *http.Client
	logger     *slog.Logger
}

// NewOpenAIClient creates a client with the given request timeout.
func NewOpenAIClient(timeout time.Duration, logger *slog.Logger) *OpenAIClient {
	if logger == nil {
		logger = logging.Default().WithComponent("rewrite").Logger
	}
	return &OpenAIClient{
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// Rewrite posts one chat completion and returns the trimmed first choice.
func (c *OpenAIClient) Rewrite(ctx context.Context, req Request) (string, error) {
	url, err := endpoint(req.BaseURL, "/chat/completions")
	if err != nil {
		return "", err
	}

	body, err := json.Marshal(chatRequest{
		Model: req.model(),
		Messages: []chatMessage{
			{Role: "system", Content: SystemPrompt},
			{Role: "user", Content: UserPrompt(req.instruction(), req.Text)},
		},
		Temperature: req.temperature(),
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if key := strings.TrimSpace(req.APIKey); key != "" {
		httpReq.Header.Set("Authorization", "Bearer "+key)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	c.logger.Debug("chat completion",
		"model", req.model(),
		"status", resp.StatusCode,
		"duration", time.Since(start),
		"length", len(req.Text),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &StatusError{Code: resp.StatusCode, Message: errorMessage(resp.StatusCode, data)}
	}
	return decodeCompletion(data)
}

func errorMessage(code int, data []byte) string {
	var eb errorBody
	if err := json.Unmarshal(data, &eb); err == nil && eb.Error.Message != "" {
		return eb.Error.Message
	}
	if s := strings.TrimSpace(string(data)); s != "" {
		return truncate(s, maxErrorBytes)
	}
	return http.StatusText(code)
}

// decodeCompletion validates a 2xx body against the response schema and
// extracts the first choice.
func decodeCompletion(data []byte) (string, error) {
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return "", fmt.Errorf("parse response: %w", err)
	}
	schema, err := responseSchema()
	if err != nil {
		return "", err
	}
	if err := schema.Validate(doc); err != nil {
		return "", fmt.Errorf("unexpected response shape: %w", err)
	}

	var parsed chatResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return "", fmt.Errorf("parse response: %w", err)
	}
	if len(parsed.Choices) == 0 || parsed.Choices[0].Message.Content == nil {
		return "", ErrNoContent
	}
	text := strings.TrimSpace(*parsed.Choices[0].Message.Content)
	if text == "" {
		return "", ErrNoContent
	}
	return text, nil
}

// truncate cuts s to at most n bytes without splitting a rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
