// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Mnemos Contributors

// Package provider abstracts over interchangeable text and embedding
// generation backends and routes calls through a gateway with priority
// ordering and single-hop fallback.
package provider

import (
	"context"
)

// Kind distinguishes the two generation tasks a provider may support.
type Kind string

const (
	KindChat      Kind = "chat"
	KindEmbedding Kind = "embedding"
)

// Capabilities is a provider's capability profile.
type Capabilities struct {
	Chat       bool
	Embeddings bool

	// MaxEmbedInputBytes is the safe embedding input length for the backend;
	// longer inputs are truncated before the call. Zero means no limit.
	MaxEmbedInputBytes int
}

// Supports reports whether the profile covers the given kind.
func (c Capabilities) Supports(kind Kind) bool {
	switch kind {
	case KindChat:
		return c.Chat
	case KindEmbedding:
		return c.Embeddings
	default:
		return false
	}
}

// Provider is the core interface for generation backends.
type Provider interface {
	Name() string
	Capabilities() Capabilities
	Available(ctx context.Context) bool
	ListModels(ctx context.Context) ([]ModelInfo, error)
	Chat(ctx context.Context, req ChatRequest) (*ChatResult, error)
	Embed(ctx context.Context, req EmbedRequest) (*EmbedResult, error)
	Close() error
}

// Message represents a conversation message.
type Message struct {
	Role    MessageRole
	Content string
}

// MessageRole defines the role of a message sender.
type MessageRole string

const (
	MessageRoleUser      MessageRole = "user"
	MessageRoleAssistant MessageRole = "assistant"
	MessageRoleSystem    MessageRole = "system"
)

// ChatOptions contains model configuration. SystemPrompt, when set, is
// prepended to the message list by the backend.
type ChatOptions struct {
	Temperature  float32
	MaxTokens    int
	SystemPrompt string
}

// ChatRequest is a chat-completion request. An empty Model uses the
// backend's default.
type ChatRequest struct {
	Model    string
	Messages []Message
	Options  ChatOptions
}

// Usage tracks token consumption when the backend reports it.
type Usage struct {
	InputTokens  int
	OutputTokens int
}

// ChatResult is a normalized chat-completion response.
type ChatResult struct {
	Content  string
	Provider string
	Model    string
	Usage    *Usage
}

// EmbedRequest is an embedding-generation request. An empty Model uses the
// backend's default.
type EmbedRequest struct {
	Text  string
	Model string
}

// EmbedResult is a normalized embedding response.
type EmbedResult struct {
	Vector   []float32
	Provider string
	Model    string
}

// ModelInfo describes a model exposed by a backend.
type ModelInfo struct {
	ID       string
	Name     string
	Provider string
}
