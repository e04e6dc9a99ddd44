// Package rewrite sends selected text to a language model and returns the
// rewritten text.
package rewrite

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
)

const (
	// DefaultModel is used when no model is configured.
	DefaultModel = "gpt-5-nano"

	// DefaultInstruction is used when no instruction is configured.
	DefaultInstruction = "Rewrite the text with clearer grammar and tone while preserving the author's intent. Return only the revised text."

	// SystemPrompt frames every request.
	SystemPrompt = "You are a writing assistant that rewrites user-selected text inline."

	// DefaultTemperature is the sampling temperature sent with each request.
	DefaultTemperature = 1.0
)

var (
	// ErrNoContent is returned when the model answers with nothing usable.
	ErrNoContent = errors.New("rewrite: model returned no content")

	// ErrInvalidBaseURL is returned when the endpoint cannot be parsed.
	ErrInvalidBaseURL = errors.New("rewrite: invalid base URL")

	// ErrMissingAPIKey is returned when the provider requires a key and none
	// was given.
	ErrMissingAPIKey = errors.New("rewrite: missing API key")
)

// Request is one rewrite call.
type Request struct {
	Text        string
	Instruction string
	Model       string
	APIKey      string
	BaseURL     string
	// Temperature is sent as is; nil sends DefaultTemperature.
	Temperature *float64
}

func (r Request) instruction() string {
	if s := strings.TrimSpace(r.Instruction); s != "" {
		return s
	}
	return DefaultInstruction
}

func (r Request) model() string {
	if s := strings.TrimSpace(r.Model); s != "" {
		return s
	}
	return DefaultModel
}

func (r Request) temperature() float64 {
	if r.Temperature != nil {
		return *r.Temperature
	}
	return DefaultTemperature
}

// UserPrompt formats the instruction and text into the user message.
func UserPrompt(instruction, text string) string {
	return "INSTRUCTION:\n" + instruction + "\n\nTEXT:\n" + text
}

// Provider turns text into rewritten text.
type Provider interface {
	Rewrite(ctx context.Context, req Request) (string, error)
}

// StatusError is a non-2xx reply from the endpoint.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("rewrite: request failed with status %d", e.Code)
	}
	return fmt.Sprintf("rewrite: request failed with status %d: %s", e.Code, e.Message)
}

// UserMessage renders a provider failure for a notification.
func UserMessage(err error) string {
	var statusErr *StatusError
	switch {
	case errors.As(err, &statusErr):
		if statusErr.Message != "" {
			return fmt.Sprintf("Request failed (%d): %s", statusErr.Code, statusErr.Message)
		}
		return fmt.Sprintf("Request failed (%d)", statusErr.Code)
	case errors.Is(err, ErrNoContent):
		return "Model returned no content"
	case errors.Is(err, ErrInvalidBaseURL):
		return "Invalid base URL"
	case errors.Is(err, ErrMissingAPIKey):
		return "Add an API key in Preferences or switch to Local/Custom mode that doesn't require one."
	case errors.Is(err, context.DeadlineExceeded):
		return "The request timed out."
	default:
		return err.Error()
	}
}

// endpoint joins base and path, rejecting anything that is not an absolute
// http(s) URL.
func endpoint(base, path string) (string, error) {
	base = strings.TrimRight(strings.TrimSpace(base), "/")
	u, err := url.Parse(base)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return "", fmt.Errorf("%w: %q", ErrInvalidBaseURL, base)
	}
	return base + path, nil
}
