// Package adapter talks to chat-completion providers. Every provider is
// driven through the same Request and streams StreamChunks back; Client turns
// that into a GenerationResult that never carries a partial answer.
package adapter

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"
)

// Provider name constants.
const (
	ProviderClaude = "claude"
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
	ProviderOllama = "ollama"
)

// DefaultTimeout bounds a single provider HTTP exchange.
const DefaultTimeout = 120 * time.Second

// StreamChunk is a single fragment or error delivered during streaming.
type StreamChunk struct {
	Text  string
	Error error
}

// Request is one chat-completion call: a system message, a single user
// message and the sampling configuration.
type Request struct {
	System string
	User   string
	Config GenerationConfig
	Stream bool
}

// ModelInfo describes a provider's default model.
type ModelInfo struct {
	Name              string
	Provider          string
	MaxContextWindow  int
	SupportsStreaming bool
}

// Provider is implemented by every backend.
type Provider interface {
	// Complete starts the request. The returned channel is closed when the
	// response is finished, failed, or ctx is done.
	Complete(ctx context.Context, req Request) (<-chan StreamChunk, error)

	// Info returns metadata about the provider's default model.
	Info() ModelInfo
}

// Options configures a provider.
type Options struct {
	APIKey     string        // empty = read from the provider's env var
	BaseURL    string        // empty = public endpoint (or localhost for ollama)
	Timeout    time.Duration // zero = DefaultTimeout
	HTTPClient *http.Client  // overrides Timeout when set
}

func (o Options) httpClient() *http.Client {
	if o.HTTPClient != nil {
		return o.HTTPClient
	}
	timeout := o.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &http.Client{Timeout: timeout}
}

func (o Options) key(envVar string) string {
	if o.APIKey != "" {
		return o.APIKey
	}
	return os.Getenv(envVar)
}

// New constructs the Provider for the named backend:
// "claude", "openai", "gemini" or "ollama".
func New(provider string, opts Options) (Provider, error) {
	switch provider {
	case ProviderClaude:
		return NewClaude(opts), nil
	case ProviderOpenAI:
		return NewOpenAI(opts), nil
	case ProviderGemini:
		return NewGemini(opts), nil
	case ProviderOllama:
		return NewOllama(opts), nil
	default:
		return nil, fmt.Errorf("adapter: unknown provider %q; valid providers: claude, openai, gemini, ollama", provider)
	}
}

// DefaultModel returns the model used when none is configured.
func DefaultModel(provider string) string {
	switch provider {
	case ProviderClaude:
		return "claude-sonnet-4-5"
	case ProviderGemini:
		return "gemini-2.0-flash"
	case ProviderOllama:
		return "llama3.2"
	default:
		return "gpt-4o-mini"
	}
}

// send delivers c unless ctx is done first. It reports whether the receiver
// may still be listening.
func send(ctx context.Context, ch chan<- StreamChunk, c StreamChunk) bool {
	select {
	case ch <- c:
		return true
	case <-ctx.Done():
		return false
	}
}
