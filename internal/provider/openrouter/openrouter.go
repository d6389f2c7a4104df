// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Mnemos Contributors

// Package openrouter implements the provider interface using OpenRouter's
// OpenAI-compatible API. OpenRouter proxies chat models only; embedding
// requests are rejected with a capability error.
package openrouter

import (
	"context"

	openaisdk "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/packages/param"
	"github.com/openai/openai-go/shared"

	"github.com/mnemos-dev/mnemos/internal/provider"
	mnerr "github.com/mnemos-dev/mnemos/pkg/errors"
)

const (
	baseURL          = "https://openrouter.ai/api/v1"
	defaultChatModel = "anthropic/claude-sonnet-4-5"
)

// Config holds OpenRouter provider configuration.
type Config struct {
	APIKey  string
	BaseURL string // optional, useful for testing against a mock server
}

// Provider implements provider.Provider using OpenRouter's OpenAI-compatible API.
type Provider struct {
	client openaisdk.Client
	config Config
}

// New creates a new OpenRouter provider. Returns an error if the API key is missing.
func New(cfg Config) (*Provider, error) {
	if cfg.APIKey == "" {
		return nil, mnerr.New(mnerr.CodeProviderRequestInvalid, "openrouter: missing api_key in config",
			mnerr.FieldProvider("openrouter"))
	}

	base := baseURL
	if cfg.BaseURL != "" {
		base = cfg.BaseURL
	}

	client := openaisdk.NewClient(
		option.WithAPIKey(cfg.APIKey),
		option.WithBaseURL(base),
	)
	return &Provider{client: client, config: cfg}, nil
}

func (p *Provider) Name() string { return "openrouter" }

func (p *Provider) Capabilities() provider.Capabilities {
	return provider.Capabilities{Chat: true}
}

func (p *Provider) Available(_ context.Context) bool {
	return true
}

// ListModels returns a curated set of popular models available via OpenRouter.
func (p *Provider) ListModels(_ context.Context) ([]provider.ModelInfo, error) {
	return []provider.ModelInfo{
		{ID: "anthropic/claude-sonnet-4-5", Name: "Claude Sonnet 4.5", Provider: "openrouter"},
		{ID: "openai/gpt-4.1", Name: "GPT-4.1", Provider: "openrouter"},
		{ID: "google/gemini-2.5-pro", Name: "Gemini 2.5 Pro", Provider: "openrouter"},
		{ID: "meta-llama/llama-4-maverick", Name: "Llama 4 Maverick", Provider: "openrouter"},
	}, nil
}

func (p *Provider) Chat(ctx context.Context, req provider.ChatRequest) (*provider.ChatResult, error) {
	msgs, err := convertMessages(req.Messages, req.Options.SystemPrompt)
	if err != nil {
		return nil, err
	}

	model := req.Model
	if model == "" {
		model = defaultChatModel
	}

	params := openaisdk.ChatCompletionNewParams{
		Model:    shared.ChatModel(model),
		Messages: msgs,
	}
	if req.Options.MaxTokens > 0 {
		params.MaxCompletionTokens = param.NewOpt(int64(req.Options.MaxTokens))
	}
	if req.Options.Temperature > 0 {
		params.Temperature = param.NewOpt(float64(req.Options.Temperature))
	}

	completion, err := p.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, mnerr.Wrap(err, mnerr.CodeProviderUpstreamFailure, "openrouter: chat completion failed",
			mnerr.FieldProvider("openrouter"))
	}
	if len(completion.Choices) == 0 {
		return nil, mnerr.New(mnerr.CodeProviderResponseInvalid, "openrouter: completion returned no choices",
			mnerr.FieldProvider("openrouter"))
	}

	result := &provider.ChatResult{
		Content:  completion.Choices[0].Message.Content,
		Provider: "openrouter",
		Model:    model,
	}
	if completion.Usage.PromptTokens > 0 || completion.Usage.CompletionTokens > 0 {
		result.Usage = &provider.Usage{
			InputTokens:  int(completion.Usage.PromptTokens),
			OutputTokens: int(completion.Usage.CompletionTokens),
		}
	}
	return result, nil
}

func (p *Provider) Embed(_ context.Context, _ provider.EmbedRequest) (*provider.EmbedResult, error) {
	return nil, mnerr.New(mnerr.CodeProviderNotCapable, "openrouter: embeddings are not supported",
		mnerr.FieldProvider("openrouter"))
}

func (p *Provider) Close() error { return nil }

func convertMessages(msgs []provider.Message, systemPrompt string) ([]openaisdk.ChatCompletionMessageParamUnion, error) {
	var result []openaisdk.ChatCompletionMessageParamUnion

	if systemPrompt != "" {
		result = append(result, openaisdk.SystemMessage(systemPrompt))
	}

	for _, msg := range msgs {
		switch msg.Role {
		case provider.MessageRoleUser:
			result = append(result, openaisdk.UserMessage(msg.Content))
		case provider.MessageRoleAssistant:
			result = append(result, openaisdk.AssistantMessage(msg.Content))
		case provider.MessageRoleSystem:
			result = append(result, openaisdk.SystemMessage(msg.Content))
		default:
			return nil, mnerr.Errorf(mnerr.CodeProviderRequestInvalid, "openrouter: unsupported message role %q", msg.Role)
		}
	}

	return result, nil
}
