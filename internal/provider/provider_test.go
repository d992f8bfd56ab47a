package provider

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/apexion-ai/mcpcli/internal/config"
)

// fakeAPI serves a canned JSON body and records the last request body.
type fakeAPI struct {
	mu       sync.Mutex
	status   int
	body     string
	lastPath string
	lastBody map[string]any
	calls    atomic.Int32
}

func (f *fakeAPI) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f.calls.Add(1)
		data, _ := io.ReadAll(r.Body)
		f.mu.Lock()
		f.lastPath = r.URL.Path
		f.lastBody = nil
		_ = json.Unmarshal(data, &f.lastBody)
		f.mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		status := f.status
		if status == 0 {
			status = http.StatusOK
		}
		w.WriteHeader(status)
		_, _ = io.WriteString(w, f.body)
	}
}

func startFake(t *testing.T, f *fakeAPI) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(f.handler())
	t.Cleanup(srv.Close)
	return srv
}

func history() []Message {
	return []Message{
		{Role: RoleUser, Content: "hello"},
		{Role: RoleAssistant, Content: "hi"},
	}
}

// --- Anthropic ---

const anthropicOK = `{"id":"msg_1","type":"message","role":"assistant","model":"claude-test",
"content":[{"type":"text","text":"Merhaba"}],"stop_reason":"end_turn",
"usage":{"input_tokens":3,"output_tokens":2}}`

func TestAnthropicProvider_Complete(t *testing.T) {
	f := &fakeAPI{body: anthropicOK}
	srv := startFake(t, f)
	p := NewAnthropicProvider(Options{APIKey: "k", BaseURL: srv.URL, Model: "claude-test", MaxTokens: 100})

	got, err := p.Complete(context.Background(), &Request{Prompt: "again", History: history(), SystemPrompt: "be brief"})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if got != "Merhaba" {
		t.Errorf("Complete = %q, want %q", got, "Merhaba")
	}
	if !strings.HasSuffix(f.lastPath, "/v1/messages") {
		t.Errorf("path = %q", f.lastPath)
	}
	msgs, _ := f.lastBody["messages"].([]any)
	if len(msgs) != 3 {
		t.Fatalf("sent %d messages, want 3 (history + prompt)", len(msgs))
	}
	last := msgs[2].(map[string]any)
	if last["role"] != "user" {
		t.Errorf("final message role = %v, want user", last["role"])
	}
	if f.lastBody["max_tokens"] != float64(100) {
		t.Errorf("max_tokens = %v, want 100", f.lastBody["max_tokens"])
	}
	if f.lastBody["system"] == nil {
		t.Error("system prompt not sent")
	}
}

func TestAnthropicProvider_EmptyContentIsMalformed(t *testing.T) {
	f := &fakeAPI{body: `{"id":"msg_1","type":"message","role":"assistant","model":"m","content":[],"stop_reason":"end_turn","usage":{"input_tokens":1,"output_tokens":0}}`}
	srv := startFake(t, f)
	p := NewAnthropicProvider(Options{APIKey: "k", BaseURL: srv.URL})

	_, err := p.Complete(context.Background(), &Request{Prompt: "x"})
	if !errors.Is(err, ErrMalformedResponse) {
		t.Fatalf("err = %v, want ErrMalformedResponse", err)
	}
}

func TestAnthropicProvider_HTTPErrorNotRetried(t *testing.T) {
	f := &fakeAPI{status: http.StatusInternalServerError, body: `{"type":"error","error":{"type":"api_error","message":"boom"}}`}
	srv := startFake(t, f)
	p := NewAnthropicProvider(Options{APIKey: "k", BaseURL: srv.URL})

	_, err := p.Complete(context.Background(), &Request{Prompt: "x"})
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("err = %v, want *APIError", err)
	}
	if apiErr.Provider != "anthropic" {
		t.Errorf("provider = %q", apiErr.Provider)
	}
	if n := f.calls.Load(); n != 1 {
		t.Errorf("calls = %d, want exactly 1 (no retries)", n)
	}
}

// --- Gemini (genai) ---

const geminiOK = `{"candidates":[{"content":{"role":"model","parts":[{"text":"Selam"}]},"finishReason":"STOP"}]}`

func TestGeminiProvider_Complete(t *testing.T) {
	f := &fakeAPI{body: geminiOK}
	srv := startFake(t, f)
	temp := 0.7
	p, err := NewGeminiProvider(context.Background(), Options{APIKey: "k", BaseURL: srv.URL, Model: "gemini-test", Temperature: &temp})
	if err != nil {
		t.Fatalf("NewGeminiProvider: %v", err)
	}

	got, err := p.Complete(context.Background(), &Request{Prompt: "again", History: history()})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if got != "Selam" {
		t.Errorf("Complete = %q, want %q", got, "Selam")
	}
	if !strings.HasSuffix(f.lastPath, "models/gemini-test:generateContent") {
		t.Errorf("path = %q", f.lastPath)
	}
	contents, _ := f.lastBody["contents"].([]any)
	if len(contents) != 3 {
		t.Fatalf("sent %d contents, want 3", len(contents))
	}
	if role := contents[1].(map[string]any)["role"]; role != "model" {
		t.Errorf("assistant history role = %v, want model", role)
	}
	gen, _ := f.lastBody["generationConfig"].(map[string]any)
	if gen == nil || gen["temperature"] == nil {
		t.Errorf("generationConfig = %v, want temperature set", gen)
	}
}

func TestGeminiProvider_NoCandidatesIsMalformed(t *testing.T) {
	f := &fakeAPI{body: `{"candidates":[]}`}
	srv := startFake(t, f)
	p, err := NewGeminiProvider(context.Background(), Options{APIKey: "k", BaseURL: srv.URL})
	if err != nil {
		t.Fatal(err)
	}
	_, err = p.Complete(context.Background(), &Request{Prompt: "x"})
	if !errors.Is(err, ErrMalformedResponse) {
		t.Fatalf("err = %v, want ErrMalformedResponse", err)
	}
}

// --- OpenAI-compatible ---

const openaiOK = `{"id":"c1","object":"chat.completion","created":1,"model":"m",
"choices":[{"index":0,"message":{"role":"assistant","content":"Hey"},"finish_reason":"stop"}]}`

func TestOpenAIProvider_Complete(t *testing.T) {
	f := &fakeAPI{body: openaiOK}
	srv := startFake(t, f)
	p := NewOpenAIProvider(Options{APIKey: "k", BaseURL: srv.URL + "/v1/", Model: "m", SystemPrompt: "sys"})

	got, err := p.Complete(context.Background(), &Request{Prompt: "again", History: history()})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if got != "Hey" {
		t.Errorf("Complete = %q, want %q", got, "Hey")
	}
	if f.lastPath != "/v1/chat/completions" {
		t.Errorf("path = %q", f.lastPath)
	}
	msgs, _ := f.lastBody["messages"].([]any)
	if len(msgs) != 4 {
		t.Fatalf("sent %d messages, want 4 (system + history + prompt)", len(msgs))
	}
	if role := msgs[0].(map[string]any)["role"]; role != "system" {
		t.Errorf("first role = %v, want system", role)
	}
}

func TestOpenAIProvider_NoChoicesIsMalformed(t *testing.T) {
	f := &fakeAPI{body: `{"id":"c1","object":"chat.completion","created":1,"model":"m","choices":[]}`}
	srv := startFake(t, f)
	p := NewOpenAIProvider(Options{APIKey: "k", BaseURL: srv.URL + "/v1/"})

	_, err := p.Complete(context.Background(), &Request{Prompt: "x"})
	if !errors.Is(err, ErrMalformedResponse) {
		t.Fatalf("err = %v, want ErrMalformedResponse", err)
	}
}

func TestOpenAIProvider_NameDetection(t *testing.T) {
	tests := []struct {
		baseURL  string
		expected string
	}{
		{"", "openai"},
		{"https://api.deepseek.com/v1", "deepseek"},
		{"https://generativelanguage.googleapis.com/v1beta/openai/", "gemini"},
		{"https://custom.api.com/v1", "openai"},
	}
	for _, tt := range tests {
		p := NewOpenAIProvider(Options{APIKey: "test-key", BaseURL: tt.baseURL, Model: "test-model"})
		if p.Name() != tt.expected {
			t.Errorf("baseURL=%q: expected name %q, got %q", tt.baseURL, tt.expected, p.Name())
		}
	}
}

// --- Construction ---

func TestNew_MissingKey(t *testing.T) {
	_, err := New(context.Background(), config.ProviderConfig{Type: config.ProviderAnthropic})
	if !errors.Is(err, ErrMissingAPIKey) {
		t.Fatalf("err = %v, want ErrMissingAPIKey", err)
	}
}

func TestNew_SelectsAdapter(t *testing.T) {
	tests := []struct {
		typ  string
		want string
	}{
		{config.ProviderAnthropic, "anthropic"},
		{config.ProviderGenAI, "genai"},
		{config.ProviderOpenAI, "openai"},
	}
	for _, tt := range tests {
		p, err := New(context.Background(), config.ProviderConfig{Type: tt.typ, APIKey: "k", Model: "m"})
		if err != nil {
			t.Fatalf("New(%s): %v", tt.typ, err)
		}
		if p.Name() != tt.want {
			t.Errorf("New(%s).Name() = %q, want %q", tt.typ, p.Name(), tt.want)
		}
	}

	if _, err := New(context.Background(), config.ProviderConfig{Type: "bogus", APIKey: "k"}); err == nil {
		t.Error("expected error for unknown provider type")
	}
}

func TestUnavailable(t *testing.T) {
	p := Unavailable("gemini", ErrMissingAPIKey)
	if _, err := p.Complete(context.Background(), &Request{Prompt: "x"}); !errors.Is(err, ErrMissingAPIKey) {
		t.Errorf("err = %v, want ErrMissingAPIKey", err)
	}
}

func TestResolve_RequestOverridesDefaults(t *testing.T) {
	dt, rt := 0.2, 0.9
	opts := Options{Model: "base", MaxTokens: 50, Temperature: &dt, SystemPrompt: "sys"}

	model, maxTokens, temp, system := resolve(&Request{}, opts, "fallback")
	if model != "base" || maxTokens != 50 || *temp != 0.2 || system != "sys" {
		t.Errorf("defaults = %q %d %v %q", model, maxTokens, *temp, system)
	}

	model, maxTokens, temp, system = resolve(&Request{Model: "req", MaxTokens: 7, Temperature: &rt, SystemPrompt: "mine"}, opts, "fallback")
	if model != "req" || maxTokens != 7 || *temp != 0.9 || system != "mine" {
		t.Errorf("overrides = %q %d %v %q", model, maxTokens, *temp, system)
	}

	_, maxTokens, _, _ = resolve(&Request{}, Options{}, "fallback")
	if maxTokens != 4000 {
		t.Errorf("maxTokens fallback = %d, want 4000", maxTokens)
	}
}
