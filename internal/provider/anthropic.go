package provider

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	anthropicoption "github.com/anthropics/anthropic-sdk-go/option"
)

// AnthropicProvider implements Provider using the Anthropic native API.
type AnthropicProvider struct {
	client anthropic.Client
	opts   Options
}

func NewAnthropicProvider(opts Options) *AnthropicProvider {
	if opts.Model == "" {
		opts.Model = "claude-sonnet-4-20250514"
	}
	reqOpts := []anthropicoption.RequestOption{
		anthropicoption.WithAPIKey(opts.APIKey),
		anthropicoption.WithMaxRetries(0),
	}
	if opts.BaseURL != "" {
		reqOpts = append(reqOpts, anthropicoption.WithBaseURL(opts.BaseURL))
	}
	if opts.HTTPClient != nil {
		reqOpts = append(reqOpts, anthropicoption.WithHTTPClient(opts.HTTPClient))
	}
	return &AnthropicProvider{
		client: anthropic.NewClient(reqOpts...),
		opts:   opts,
	}
}

func (p *AnthropicProvider) Name() string         { return "anthropic" }
func (p *AnthropicProvider) DefaultModel() string { return p.opts.Model }

func (p *AnthropicProvider) Complete(ctx context.Context, req *Request) (string, error) {
	model, maxTokens, temperature, system := resolve(req, p.opts, p.opts.Model)

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		Messages:  p.buildMessages(req),
		MaxTokens: int64(maxTokens),
	}
	if system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}
	if temperature != nil {
		params.Temperature = anthropic.Float(*temperature)
	}

	msg, err := p.client.Messages.New(ctx, params)
	if err != nil {
		return "", &APIError{Provider: p.Name(), Err: err}
	}

	var sb strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	if sb.Len() == 0 {
		return "", fmt.Errorf("%s: %w: no text content", p.Name(), ErrMalformedResponse)
	}
	return sb.String(), nil
}

// buildMessages converts history plus the prompt into Anthropic messages.
// System turns in the history are folded into user turns; the API only
// accepts a system prompt as a request-level field.
func (p *AnthropicProvider) buildMessages(req *Request) []anthropic.MessageParam {
	msgs := make([]anthropic.MessageParam, 0, len(req.History)+1)
	for _, m := range req.History {
		switch m.Role {
		case RoleAssistant:
			msgs = append(msgs, anthropic.NewAssistantMessage(anthropic.NewTextBlock(m.Content)))
		default:
			msgs = append(msgs, anthropic.NewUserMessage(anthropic.NewTextBlock(m.Content)))
		}
	}
	msgs = append(msgs, anthropic.NewUserMessage(anthropic.NewTextBlock(req.Prompt)))
	return msgs
}
