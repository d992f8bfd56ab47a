package provider

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// GeminiProvider implements Provider using the Google GenAI SDK.
type GeminiProvider struct {
	client *genai.Client
	opts   Options
}

func NewGeminiProvider(ctx context.Context, opts Options) (*GeminiProvider, error) {
	if opts.Model == "" {
		opts.Model = "gemini-2.5-pro"
	}
	cc := &genai.ClientConfig{
		APIKey:     opts.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: opts.HTTPClient,
	}
	if opts.BaseURL != "" {
		cc.HTTPOptions.BaseURL = opts.BaseURL
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return &GeminiProvider{client: client, opts: opts}, nil
}

func (p *GeminiProvider) Name() string         { return "genai" }
func (p *GeminiProvider) DefaultModel() string { return p.opts.Model }

func (p *GeminiProvider) Complete(ctx context.Context, req *Request) (string, error) {
	model, maxTokens, temperature, system := resolve(req, p.opts, p.opts.Model)

	cfg := &genai.GenerateContentConfig{
		MaxOutputTokens: int32(maxTokens),
	}
	if temperature != nil {
		cfg.Temperature = genai.Ptr(float32(*temperature))
	}
	if system != "" {
		cfg.SystemInstruction = genai.NewContentFromText(system, genai.RoleUser)
	}

	resp, err := p.client.Models.GenerateContent(ctx, model, p.buildContents(req), cfg)
	if err != nil {
		return "", &APIError{Provider: p.Name(), Err: err}
	}

	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("%s: %w: no candidates with text", p.Name(), ErrMalformedResponse)
	}
	return text, nil
}

func (p *GeminiProvider) buildContents(req *Request) []*genai.Content {
	contents := make([]*genai.Content, 0, len(req.History)+1)
	for _, m := range req.History {
		role := genai.Role(genai.RoleUser)
		if m.Role == RoleAssistant {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(m.Content, role))
	}
	contents = append(contents, genai.NewContentFromText(req.Prompt, genai.RoleUser))
	return contents
}
