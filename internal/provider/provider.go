// Package provider defines the unified interface for the LLM services the
// tool server forwards prompts to. Each adapter (anthropic.go, gemini.go,
// openai.go) implements Provider by turning a Request into a single
// non-streaming API call and normalizing the reply to plain text.
package provider

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/apexion-ai/mcpcli/internal/config"
)

// ── Message types ────────────────────────────────────────────────────────────

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Message is a prior conversation turn sent along with a prompt.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// ── Request types ────────────────────────────────────────────────────────────

// Request is the unified request format sent to a provider.
type Request struct {
	// Model overrides the provider's configured model when set.
	Model string

	// History holds prior turns in conversation order. Prompt is sent as
	// the final user turn after them.
	History []Message
	Prompt  string

	SystemPrompt string
	MaxTokens    int
	Temperature  *float64
}

// ── Errors ───────────────────────────────────────────────────────────────────

// ErrMalformedResponse is returned when a provider answers successfully but
// the reply carries no text.
var ErrMalformedResponse = errors.New("malformed provider response")

// ErrMissingAPIKey is returned when a provider is configured without a key.
var ErrMissingAPIKey = errors.New("API key not configured")

// APIError wraps a failed remote call.
type APIError struct {
	Provider string
	Err      error
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s API error: %v", e.Provider, e.Err)
}

func (e *APIError) Unwrap() error { return e.Err }

// ── Provider interface ───────────────────────────────────────────────────────

// Provider is the unified interface for all LLM providers.
// Implementations never retry; every failure is returned once.
type Provider interface {
	// Complete sends the request and returns the reply text.
	Complete(ctx context.Context, req *Request) (string, error)

	// Name returns the provider identifier, e.g. "anthropic", "genai".
	Name() string

	// DefaultModel returns the model used when the request does not set one.
	DefaultModel() string
}

// Options carries the settings shared by every adapter.
type Options struct {
	APIKey       string
	BaseURL      string
	Model        string
	MaxTokens    int
	Temperature  *float64
	SystemPrompt string

	// HTTPClient overrides the SDK's default client.
	HTTPClient *http.Client
}

// OptionsFromConfig converts a config section into adapter options.
func OptionsFromConfig(pc config.ProviderConfig) Options {
	return Options{
		APIKey:       pc.APIKey,
		BaseURL:      pc.BaseURL,
		Model:        pc.Model,
		MaxTokens:    pc.MaxTokens,
		Temperature:  pc.Temperature,
		SystemPrompt: pc.SystemPrompt,
	}
}

// New builds the adapter selected by pc.Type.
func New(ctx context.Context, pc config.ProviderConfig) (Provider, error) {
	opts := OptionsFromConfig(pc)
	if opts.APIKey == "" {
		return nil, fmt.Errorf("%s: %w", pc.Type, ErrMissingAPIKey)
	}
	switch pc.Type {
	case config.ProviderAnthropic, "":
		return NewAnthropicProvider(opts), nil
	case config.ProviderGenAI:
		return NewGeminiProvider(ctx, opts)
	case config.ProviderOpenAI:
		return NewOpenAIProvider(opts), nil
	default:
		return nil, fmt.Errorf("unknown provider type %q", pc.Type)
	}
}

// Unavailable returns a Provider whose every call fails with err. The tool
// server uses it so a missing key surfaces as a tool error instead of
// preventing startup.
func Unavailable(name string, err error) Provider {
	return &unavailable{name: name, err: err}
}

type unavailable struct {
	name string
	err  error
}

func (u *unavailable) Name() string         { return u.name }
func (u *unavailable) DefaultModel() string { return "" }
func (u *unavailable) Complete(context.Context, *Request) (string, error) {
	return "", u.err
}

// resolve merges per-request overrides over the adapter defaults.
func resolve(req *Request, opts Options, fallbackModel string) (model string, maxTokens int, temperature *float64, system string) {
	model = req.Model
	if model == "" {
		model = opts.Model
	}
	if model == "" {
		model = fallbackModel
	}
	maxTokens = req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = opts.MaxTokens
	}
	if maxTokens <= 0 {
		maxTokens = 4000
	}
	temperature = req.Temperature
	if temperature == nil {
		temperature = opts.Temperature
	}
	system = req.SystemPrompt
	if system == "" {
		system = opts.SystemPrompt
	}
	return model, maxTokens, temperature, system
}
