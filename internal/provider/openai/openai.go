// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Mnemos Contributors

// Package openai implements the provider interface using the OpenAI Chat
// Completions and Embeddings APIs.
package openai

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
	defaultChatModel  = "gpt-4.1-mini"
	defaultEmbedModel = "text-embedding-3-small"

	// The embeddings endpoint rejects inputs past ~8191 tokens; this byte
	// ceiling stays safely under that for typical prose.
	maxEmbedInputBytes = 28_000
)

// Config holds OpenAI provider configuration.
type Config struct {
	APIKey  string
	BaseURL string // optional, useful for testing against a mock server
}

// Provider implements provider.Provider using the OpenAI API.
type Provider struct {
	client openaisdk.Client
	config Config
}

// New creates a new OpenAI provider. Returns an error if the API key is missing.
func New(cfg Config) (*Provider, error) {
	if cfg.APIKey == "" {
		return nil, mnerr.New(mnerr.CodeProviderRequestInvalid, "openai: missing api_key in config",
			mnerr.FieldProvider("openai"))
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	client := openaisdk.NewClient(opts...)
	return &Provider{client: client, config: cfg}, nil
}

func (p *Provider) Name() string { return "openai" }

func (p *Provider) Capabilities() provider.Capabilities {
	return provider.Capabilities{
		Chat:               true,
		Embeddings:         true,
		MaxEmbedInputBytes: maxEmbedInputBytes,
	}
}

func (p *Provider) Available(_ context.Context) bool {
	return true
}

func (p *Provider) ListModels(_ context.Context) ([]provider.ModelInfo, error) {
	return []provider.ModelInfo{
		{ID: "gpt-4.1", Name: "GPT-4.1", Provider: "openai"},
		{ID: "gpt-4.1-mini", Name: "GPT-4.1 Mini", Provider: "openai"},
		{ID: "gpt-4.1-nano", Name: "GPT-4.1 Nano", Provider: "openai"},
		{ID: "o4-mini", Name: "o4-mini", Provider: "openai"},
		{ID: "text-embedding-3-small", Name: "Text Embedding 3 Small", Provider: "openai"},
		{ID: "text-embedding-3-large", Name: "Text Embedding 3 Large", Provider: "openai"},
	}, nil
}

func (p *Provider) Chat(ctx context.Context, req provider.ChatRequest) (*provider.ChatResult, error) {
	params, err := buildParams(req)
	if err != nil {
		return nil, err
	}

	completion, err := p.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, mnerr.Wrap(err, mnerr.CodeProviderUpstreamFailure, "openai: chat completion failed",
			mnerr.FieldProvider("openai"))
	}
	if len(completion.Choices) == 0 {
		return nil, mnerr.New(mnerr.CodeProviderResponseInvalid, "openai: completion returned no choices",
			mnerr.FieldProvider("openai"))
	}

	result := &provider.ChatResult{
		Content:  completion.Choices[0].Message.Content,
		Provider: "openai",
		Model:    string(params.Model),
	}
	if completion.Usage.PromptTokens > 0 || completion.Usage.CompletionTokens > 0 {
		result.Usage = &provider.Usage{
			InputTokens:  int(completion.Usage.PromptTokens),
			OutputTokens: int(completion.Usage.CompletionTokens),
		}
	}
	return result, nil
}

func (p *Provider) Embed(ctx context.Context, req provider.EmbedRequest) (*provider.EmbedResult, error) {
	model := req.Model
	if model == "" {
		model = defaultEmbedModel
	}

	resp, err := p.client.Embeddings.New(ctx, openaisdk.EmbeddingNewParams{
		Model: openaisdk.EmbeddingModel(model),
		Input: openaisdk.EmbeddingNewParamsInputUnion{
			OfString: param.NewOpt(req.Text),
		},
	})
	if err != nil {
		return nil, mnerr.Wrap(err, mnerr.CodeProviderUpstreamFailure, "openai: embedding request failed",
			mnerr.FieldProvider("openai"))
	}
	if len(resp.Data) == 0 {
		return nil, mnerr.New(mnerr.CodeProviderResponseInvalid, "openai: embedding response has no data",
			mnerr.FieldProvider("openai"))
	}

	vec := make([]float32, len(resp.Data[0].Embedding))
	for i, v := range resp.Data[0].Embedding {
		vec[i] = float32(v)
	}
	return &provider.EmbedResult{Vector: vec, Provider: "openai", Model: model}, nil
}

func (p *Provider) Close() error { return nil }

// buildParams converts a provider.ChatRequest into OpenAI SDK ChatCompletionNewParams.
func buildParams(req provider.ChatRequest) (openaisdk.ChatCompletionNewParams, error) {
	msgs, err := convertMessages(req.Messages, req.Options.SystemPrompt)
	if err != nil {
		return openaisdk.ChatCompletionNewParams{}, err
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

	return params, nil
}

// convertMessages transforms provider.Message slices into OpenAI SDK message
// param slices. The system prompt is prepended as a system message if present.
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
			return nil, mnerr.Errorf(mnerr.CodeProviderRequestInvalid, "openai: unsupported message role %q", msg.Role)
		}
	}

	return result, nil
}
