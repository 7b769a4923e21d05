// Package openai implements provider.Provider on the OpenAI Chat
// Completions API. The seed parameter is passed through so identical
// requests reproduce identical completions where the backend supports it.
package openai

import (
	"context"
	"fmt"

	"github.com/hupe1980/debateforge/provider"
	"github.com/openai/openai-go"
)

// Options configure the OpenAI provider adapter.
type Options struct {
	Model               string
	MaxCompletionTokens int64
}

// Provider wraps the OpenAI Chat Completions API behind provider.Provider.
type Provider struct {
	client *openai.Client
	opts   Options
}

// New creates a new OpenAI provider using the official client (API key
// from the environment).
func New(optFns ...func(o *Options)) *Provider {
	client := openai.NewClient()
	return NewFromClient(&client, optFns...)
}

// NewFromClient creates a new OpenAI provider from an existing client.
func NewFromClient(client *openai.Client, optFns ...func(o *Options)) *Provider {
	opts := Options{
		Model:               openai.ChatModelGPT4oMini,
		MaxCompletionTokens: 4096,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Provider{client: client, opts: opts}
}

// Generate implements provider.Provider.
func (p *Provider) Generate(ctx context.Context, req provider.Request) (provider.Response, error) {
	maxTokens := p.opts.MaxCompletionTokens
	if req.MaxTokens > 0 {
		maxTokens = req.MaxTokens
	}

	params := openai.ChatCompletionNewParams{
		Model: p.opts.Model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(req.System),
			openai.UserMessage(req.Prompt),
		},
		Temperature:         openai.Float(req.Temperature),
		Seed:                openai.Int(req.Seed),
		MaxCompletionTokens: openai.Int(maxTokens),
	}

	resp, err := p.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return provider.Response{}, fmt.Errorf("openai api error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return provider.Response{}, fmt.Errorf("openai: no choices returned")
	}

	return provider.Response{Text: resp.Choices[0].Message.Content, Model: resp.Model}, nil
}

// Info implements provider.Provider.
func (p *Provider) Info() provider.Info {
	return provider.Info{Name: p.opts.Model, Vendor: "openai", SupportsSeed: true}
}
