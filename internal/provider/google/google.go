// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Mnemos Contributors

// Package google implements the provider interface using the Google Gemini API.
package google

import (
	"context"

	"google.golang.org/genai"

	"github.com/mnemos-dev/mnemos/internal/provider"
	mnerr "github.com/mnemos-dev/mnemos/pkg/errors"
)

const (
	defaultChatModel  = "gemini-2.5-flash"
	defaultEmbedModel = "gemini-embedding-001"

	// Gemini embedding input tops out at 2048 tokens; stay well below.
	maxEmbedInputBytes = 7_000
)

// Config holds Google provider configuration.
type Config struct {
	APIKey string
}

// Provider implements provider.Provider using the Google Gemini API.
type Provider struct {
	client *genai.Client
	config Config
}

// New creates a new Google provider. Returns an error if the API key is missing.
func New(cfg Config) (*Provider, error) {
	if cfg.APIKey == "" {
		return nil, mnerr.New(mnerr.CodeProviderRequestInvalid, "google: missing api_key in config",
			mnerr.FieldProvider("google"))
	}

	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, mnerr.Wrapf(err, mnerr.CodeProviderUpstreamFailure, "google: creating client")
	}

	return &Provider{client: client, config: cfg}, nil
}

func (p *Provider) Name() string { return "google" }

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
		{ID: "gemini-2.5-pro", Name: "Gemini 2.5 Pro", Provider: "google"},
		{ID: "gemini-2.5-flash", Name: "Gemini 2.5 Flash", Provider: "google"},
		{ID: "gemini-2.0-flash", Name: "Gemini 2.0 Flash", Provider: "google"},
		{ID: "gemini-embedding-001", Name: "Gemini Embedding", Provider: "google"},
	}, nil
}

func (p *Provider) Chat(ctx context.Context, req provider.ChatRequest) (*provider.ChatResult, error) {
	contents, err := convertMessages(req.Messages)
	if err != nil {
		return nil, err
	}

	model := req.Model
	if model == "" {
		model = defaultChatModel
	}

	resp, err := p.client.Models.GenerateContent(ctx, model, contents, buildConfig(req))
	if err != nil {
		return nil, mnerr.Wrap(err, mnerr.CodeProviderUpstreamFailure, "google: generate content failed",
			mnerr.FieldProvider("google"))
	}

	var content string
	for _, candidate := range resp.Candidates {
		if candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			content += part.Text
		}
		break
	}

	result := &provider.ChatResult{
		Content:  content,
		Provider: "google",
		Model:    model,
	}
	if resp.UsageMetadata != nil {
		result.Usage = &provider.Usage{
			InputTokens:  int(resp.UsageMetadata.PromptTokenCount),
			OutputTokens: int(resp.UsageMetadata.CandidatesTokenCount),
		}
	}
	return result, nil
}

func (p *Provider) Embed(ctx context.Context, req provider.EmbedRequest) (*provider.EmbedResult, error) {
	model := req.Model
	if model == "" {
		model = defaultEmbedModel
	}

	resp, err := p.client.Models.EmbedContent(ctx, model, genai.Text(req.Text), nil)
	if err != nil {
		return nil, mnerr.Wrap(err, mnerr.CodeProviderUpstreamFailure, "google: embed content failed",
			mnerr.FieldProvider("google"))
	}
	if len(resp.Embeddings) == 0 || len(resp.Embeddings[0].Values) == 0 {
		return nil, mnerr.New(mnerr.CodeProviderResponseInvalid, "google: embedding response has no values",
			mnerr.FieldProvider("google"))
	}

	return &provider.EmbedResult{
		Vector:   resp.Embeddings[0].Values,
		Provider: "google",
		Model:    model,
	}, nil
}

func (p *Provider) Close() error { return nil }

// buildConfig converts a provider.ChatRequest into a genai.GenerateContentConfig.
func buildConfig(req provider.ChatRequest) *genai.GenerateContentConfig {
	cfg := &genai.GenerateContentConfig{}

	if req.Options.Temperature > 0 {
		cfg.Temperature = genai.Ptr(req.Options.Temperature)
	}

	if req.Options.MaxTokens > 0 {
		cfg.MaxOutputTokens = int32(req.Options.MaxTokens)
	}

	if req.Options.SystemPrompt != "" {
		cfg.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{
				{Text: req.Options.SystemPrompt},
			},
		}
	}

	return cfg
}

// convertMessages transforms provider.Message slices into genai.Content slices.
// System messages are excluded (handled via SystemInstruction in buildConfig).
func convertMessages(msgs []provider.Message) ([]*genai.Content, error) {
	var result []*genai.Content

	for _, msg := range msgs {
		switch msg.Role {
		case provider.MessageRoleUser:
			result = append(result, &genai.Content{
				Role: "user",
				Parts: []*genai.Part{
					{Text: msg.Content},
				},
			})
		case provider.MessageRoleAssistant:
			result = append(result, &genai.Content{
				Role: "model",
				Parts: []*genai.Part{
					{Text: msg.Content},
				},
			})
		case provider.MessageRoleSystem:
			continue
		default:
			return nil, mnerr.Errorf(mnerr.CodeProviderRequestInvalid, "google: unsupported message role %q", msg.Role)
		}
	}

	return result, nil
}
