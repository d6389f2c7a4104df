// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Mnemos Contributors

package provider_test

import (
	"context"

	"github.com/mnemos-dev/mnemos/internal/provider"
)

// mockProvider is a configurable provider.Provider implementation for tests.
// Set chatFunc or embedFunc to override the default canned responses.
type mockProvider struct {
	name      string
	caps      provider.Capabilities
	available bool
	closed    bool

	chatFunc  func(context.Context, provider.ChatRequest) (*provider.ChatResult, error)
	embedFunc func(context.Context, provider.EmbedRequest) (*provider.EmbedResult, error)

	chatCalls  int
	embedCalls int
}

func newMockProvider(name string, caps provider.Capabilities) *mockProvider {
	return &mockProvider{name: name, caps: caps, available: true}
}

func (m *mockProvider) Name() string                        { return m.name }
func (m *mockProvider) Capabilities() provider.Capabilities { return m.caps }
func (m *mockProvider) Available(_ context.Context) bool    { return m.available }

func (m *mockProvider) ListModels(_ context.Context) ([]provider.ModelInfo, error) {
	return nil, nil
}

func (m *mockProvider) Chat(ctx context.Context, req provider.ChatRequest) (*provider.ChatResult, error) {
	m.chatCalls++
	if m.chatFunc != nil {
		return m.chatFunc(ctx, req)
	}
	return &provider.ChatResult{
		Content:  "hello from " + m.name,
		Provider: m.name,
		Model:    req.Model,
		Usage:    &provider.Usage{InputTokens: 10, OutputTokens: 5},
	}, nil
}

func (m *mockProvider) Embed(ctx context.Context, req provider.EmbedRequest) (*provider.EmbedResult, error) {
	m.embedCalls++
	if m.embedFunc != nil {
		return m.embedFunc(ctx, req)
	}
	return &provider.EmbedResult{
		Vector:   []float32{0.1, 0.2, 0.3},
		Provider: m.name,
		Model:    req.Model,
	}, nil
}

func (m *mockProvider) Close() error {
	m.closed = true
	return nil
}
