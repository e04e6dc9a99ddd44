package rewrite

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"google.golang.org/genai"

	"inplace/internal/logging"
)

// DefaultGeminiModel is used by the gemini kind when the configured model is
// the global default.
const DefaultGeminiModel = "gemini-2.5-flash"

// GeminiClient rewrites through the Gemini API.
type GeminiClient struct {
	httpClient *http.Client
	logger     *slog.Logger
}

// NewGeminiClient creates a client with the given request timeout.
func NewGeminiClient(timeout time.Duration, logger *slog.Logger) *GeminiClient {
	if logger == nil {
		logger = logging.Default().WithComponent("rewrite").Logger
	}
	return &GeminiClient{
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// Rewrite issues one GenerateContent call. A client is built per request so
// that key and endpoint changes apply immediately.
func (c *GeminiClient) Rewrite(ctx context.Context, req Request) (string, error) {
	if strings.TrimSpace(req.APIKey) == "" {
		return "", ErrMissingAPIKey
	}

	cc := &genai.ClientConfig{
		APIKey:     req.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: c.httpClient,
	}
	if base := strings.TrimSpace(req.BaseURL); base != "" {
		if _, err := endpoint(base, ""); err != nil {
			return "", err
		}
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: strings.TrimRight(base, "/") + "/"}
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return "", fmt.Errorf("create gemini client: %w", err)
	}

	model := req.model()
	if model == DefaultModel {
		model = DefaultGeminiModel
	}

	start := time.Now()
	resp, err := client.Models.GenerateContent(ctx, model,
		[]*genai.Content{genai.NewContentFromText(UserPrompt(req.instruction(), req.Text), genai.RoleUser)},
		&genai.GenerateContentConfig{
			SystemInstruction: genai.NewContentFromText(SystemPrompt, genai.RoleUser),
			Temperature:       genai.Ptr(float32(req.temperature())),
		},
	)
	if err != nil {
		var apiErr genai.APIError
		if errors.As(err, &apiErr) {
			return "", &StatusError{Code: apiErr.Code, Message: apiErr.Message}
		}
		return "", fmt.Errorf("request failed: %w", err)
	}

	c.logger.Debug("generate content",
		"model", model,
		"duration", time.Since(start),
		"length", len(req.Text),
	)

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", ErrNoContent
	}
	return text, nil
}
