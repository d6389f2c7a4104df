// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Mnemos Contributors

// Package anthropic implements the provider interface using the Anthropic
// Messages API. The backend has no embeddings endpoint, so Embed reports a
// capability error and the gateway routes embedding work elsewhere.
package anthropic

import (
	"context"

	anthropicsdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/mnemos-dev/mnemos/internal/provider"
	mnerr "github.com/mnemos-dev/mnemos/pkg/errors"
)

const (
	defaultChatModel = "claude-sonnet-4-5"
	defaultMaxTokens = 4096
)

// Config holds Anthropic provider configuration.
type Config struct {
	APIKey  string
	BaseURL string // optional, useful for testing against a mock server
}

// Provider implements provider.Provider using the Anthropic Messages API.
type Provider struct {
	client anthropicsdk.Client
	config Config
}

// New creates a new Anthropic provider. Returns an error if the API key is missing.
func New(cfg Config) (*Provider, error) {
	if cfg.APIKey == "" {
		return nil, mnerr.New(mnerr.CodeProviderRequestInvalid, "anthropic: missing api_key in config",
			mnerr.FieldProvider("anthropic"))
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	client := anthropicsdk.NewClient(opts...)
	return &Provider{client: client, config: cfg}, nil
}

func (p *Provider) Name() string { return "anthropic" }

func (p *Provider) Capabilities() provider.Capabilities {
	return provider.Capabilities{Chat: true}
}

func (p *Provider) Available(_ context.Context) bool {
	return true
}

func (p *Provider) ListModels(_ context.Context) ([]provider.ModelInfo, error) {
	return []provider.ModelInfo{
		{ID: "claude-opus-4-6", Name: "Claude Opus 4.6", Provider: "anthropic"},
		{ID: "claude-sonnet-4-5", Name: "Claude Sonnet 4.5", Provider: "anthropic"},
		{ID: "claude-haiku-4-5", Name: "Claude Haiku 4.5", Provider: "anthropic"},
	}, nil
}

func (p *Provider) Chat(ctx context.Context, req provider.ChatRequest) (*provider.ChatResult, error) {
	params, err := buildParams(req)
	if err != nil {
		return nil, err
	}

	msg, err := p.client.Messages.New(ctx, params)
	if err != nil {
		return nil, mnerr.Wrap(err, mnerr.CodeProviderUpstreamFailure, "anthropic: message request failed",
			mnerr.FieldProvider("anthropic"))
	}

	var content string
	for _, block := range msg.Content {
		if block.Type == "text" {
			content += block.Text
		}
	}

	result := &provider.ChatResult{
		Content:  content,
		Provider: "anthropic",
		Model:    string(params.Model),
	}
	if msg.Usage.InputTokens > 0 || msg.Usage.OutputTokens > 0 {
		result.Usage = &provider.Usage{
			InputTokens:  int(msg.Usage.InputTokens),
			OutputTokens: int(msg.Usage.OutputTokens),
		}
	}
	return result, nil
}

func (p *Provider) Embed(_ context.Context, _ provider.EmbedRequest) (*provider.EmbedResult, error) {
	return nil, mnerr.New(mnerr.CodeProviderNotCapable, "anthropic: embeddings are not supported",
		mnerr.FieldProvider("anthropic"))
}

func (p *Provider) Close() error { return nil }

// buildParams converts a provider.ChatRequest into Anthropic SDK MessageNewParams.
func buildParams(req provider.ChatRequest) (anthropicsdk.MessageNewParams, error) {
	msgs, err := convertMessages(req.Messages)
	if err != nil {
		return anthropicsdk.MessageNewParams{}, err
	}

	model := req.Model
	if model == "" {
		model = defaultChatModel
	}

	maxTokens := int64(req.Options.MaxTokens)
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}

	params := anthropicsdk.MessageNewParams{
		Model:     anthropicsdk.Model(model),
		Messages:  msgs,
		MaxTokens: maxTokens,
	}

	if req.Options.SystemPrompt != "" {
		params.System = []anthropicsdk.TextBlockParam{
			{Text: req.Options.SystemPrompt},
		}
	}

	if req.Options.Temperature > 0 {
		params.Temperature = anthropicsdk.Float(float64(req.Options.Temperature))
	}

	return params, nil
}

// convertMessages transforms provider.Message slices into Anthropic SDK MessageParam slices.
func convertMessages(msgs []provider.Message) ([]anthropicsdk.MessageParam, error) {
	var result []anthropicsdk.MessageParam

	for _, msg := range msgs {
		switch msg.Role {
		case provider.MessageRoleUser:
			result = append(result, anthropicsdk.NewUserMessage(
				anthropicsdk.NewTextBlock(msg.Content),
			))
		case provider.MessageRoleAssistant:
			result = append(result, anthropicsdk.NewAssistantMessage(
				anthropicsdk.NewTextBlock(msg.Content),
			))
		case provider.MessageRoleSystem:
			// System messages are handled via the top-level system param,
			// not as individual messages. Skip them here.
			continue
		default:
			return nil, mnerr.Errorf(mnerr.CodeProviderRequestInvalid, "anthropic: unsupported message role %q", msg.Role)
		}
	}

	return result, nil
}
