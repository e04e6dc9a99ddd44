package rewrite

import (
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// Kind selects a provider implementation and its defaults.
type Kind string

const (
	KindOpenAI Kind = "openai"
	KindLocal  Kind = "local"
	KindCustom Kind = "custom"
	KindGemini Kind = "gemini"
)

// Kinds lists every provider kind.
var Kinds = []Kind{KindOpenAI, KindLocal, KindCustom, KindGemini}

// ParseKind parses a provider name.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	if k == "" {
		return KindOpenAI, nil
	}
	for _, known := range Kinds {
		if k == known {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown provider %q", s)
}

// DefaultBaseURL returns the endpoint used when none is configured.
func (k Kind) DefaultBaseURL() string {
	switch k {
	case KindLocal:
		return "http://localhost:11434/v1"
	case KindCustom:
		return "http://localhost:8080/v1"
	case KindGemini:
		return ""
	default:
		return "https://api.openai.com/v1"
	}
}

// RequiresAPIKey reports whether requests fail without a key.
func (k Kind) RequiresAPIKey() bool {
	return k == KindOpenAI || k == KindGemini
}

// DisplayName is the name shown in menus and messages.
func (k Kind) DisplayName() string {
	switch k {
	case KindLocal:
		return "Local"
	case KindCustom:
		return "Custom"
	case KindGemini:
		return "Gemini"
	default:
		return "OpenAI"
	}
}

// IsDefaultBaseURL reports whether u is empty or the default of any kind.
// Such a URL follows the provider when the provider changes.
func IsDefaultBaseURL(u string) bool {
	u = strings.TrimRight(strings.TrimSpace(u), "/")
	if u == "" {
		return true
	}
	for _, k := range Kinds {
		if d := k.DefaultBaseURL(); d != "" && u == d {
			return true
		}
	}
	return false
}

// Clients holds one client per wire protocol and hands out the one matching
// a kind.
type Clients struct {
	OpenAI *OpenAIClient
	Gemini *GeminiClient
}

// NewClients creates both clients with the same timeout.
func NewClients(timeout time.Duration, logger *slog.Logger) *Clients {
	return &Clients{
		OpenAI: NewOpenAIClient(timeout, logger),
		Gemini: NewGeminiClient(timeout, logger),
	}
}

// New returns a standalone provider for kind.
func New(kind Kind, timeout time.Duration, logger *slog.Logger) Provider {
	return NewClients(timeout, logger).For(kind)
}

// For returns the provider for kind.
func (c *Clients) For(kind Kind) Provider {
	if kind == KindGemini {
		return c.Gemini
	}
	return c.OpenAI
}
