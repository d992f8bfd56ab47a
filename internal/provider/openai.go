package provider

import (
	"context"
	"fmt"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// OpenAIProvider implements Provider for all OpenAI-compatible APIs,
// including Gemini's OpenAI endpoint, DeepSeek, Groq, etc.
type OpenAIProvider struct {
	client openai.Client
	opts   Options
	name   string
}

func NewOpenAIProvider(opts Options) *OpenAIProvider {
	reqOpts := []option.RequestOption{
		option.WithAPIKey(opts.APIKey),
		option.WithMaxRetries(0),
	}
	if opts.BaseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(opts.BaseURL))
	}
	if opts.HTTPClient != nil {
		reqOpts = append(reqOpts, option.WithHTTPClient(opts.HTTPClient))
	}

	name := "openai"
	switch {
	case strings.Contains(opts.BaseURL, "generativelanguage.googleapis.com"):
		name = "gemini"
	case strings.Contains(opts.BaseURL, "deepseek"):
		name = "deepseek"
	case strings.Contains(opts.BaseURL, "groq"):
		name = "groq"
	}

	if opts.Model == "" {
		opts.Model = "gpt-4o-mini"
	}

	return &OpenAIProvider{
		client: openai.NewClient(reqOpts...),
		opts:   opts,
		name:   name,
	}
}

func (p *OpenAIProvider) Name() string         { return p.name }
func (p *OpenAIProvider) DefaultModel() string { return p.opts.Model }

func (p *OpenAIProvider) Complete(ctx context.Context, req *Request) (string, error) {
	model, maxTokens, temperature, system := resolve(req, p.opts, p.opts.Model)

	params := openai.ChatCompletionNewParams{
		Model:     openai.ChatModel(model),
		Messages:  p.buildMessages(req, system),
		MaxTokens: openai.Int(int64(maxTokens)),
	}
	if temperature != nil {
		params.Temperature = openai.Float(*temperature)
	}

	resp, err := p.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", &APIError{Provider: p.name, Err: err}
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", fmt.Errorf("%s: %w: no choices with content", p.name, ErrMalformedResponse)
	}
	return resp.Choices[0].Message.Content, nil
}

func (p *OpenAIProvider) buildMessages(req *Request, system string) []openai.ChatCompletionMessageParamUnion {
	msgs := make([]openai.ChatCompletionMessageParamUnion, 0, len(req.History)+2)
	if system != "" {
		msgs = append(msgs, openai.SystemMessage(system))
	}
	for _, m := range req.History {
		switch m.Role {
		case RoleAssistant:
			msgs = append(msgs, openai.AssistantMessage(m.Content))
		case RoleSystem:
			msgs = append(msgs, openai.SystemMessage(m.Content))
		default:
			msgs = append(msgs, openai.UserMessage(m.Content))
		}
	}
	msgs = append(msgs, openai.UserMessage(req.Prompt))
	return msgs
}
