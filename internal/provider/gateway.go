// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Mnemos Contributors

package provider

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
	"unicode/utf8"

	mnerr "github.com/mnemos-dev/mnemos/pkg/errors"
)

// DefaultCallTimeout bounds each upstream provider call.
const DefaultCallTimeout = 60 * time.Second

// Gateway routes chat and embedding requests across registered providers.
// Selection honors an explicit preference first, then the per-kind priority
// list, then registration order. On upstream failure it retries exactly once
// on the next eligible provider.
type Gateway struct {
	mu            sync.RWMutex
	providers     map[string]Provider
	order         []string
	chatPriority  []string
	embedPriority []string

	timeout time.Duration
	metrics *metricsTracker
	logger  *slog.Logger
}

// GatewayOption configures a Gateway.
type GatewayOption func(*Gateway)

// WithCallTimeout overrides the per-call upstream timeout.
func WithCallTimeout(d time.Duration) GatewayOption {
	return func(g *Gateway) {
		if d > 0 {
			g.timeout = d
		}
	}
}

// WithLogger sets the gateway logger.
func WithLogger(logger *slog.Logger) GatewayOption {
	return func(g *Gateway) {
		if logger != nil {
			g.logger = logger
		}
	}
}

// NewGateway creates an empty gateway.
func NewGateway(opts ...GatewayOption) *Gateway {
	g := &Gateway{
		providers: make(map[string]Provider),
		timeout:   DefaultCallTimeout,
		metrics:   newMetricsTracker(),
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Register adds a provider. Re-registering a name replaces the previous
// provider but keeps its position in registration order.
func (g *Gateway) Register(p Provider) error {
	if p == nil || p.Name() == "" {
		return mnerr.New(mnerr.CodeProviderRequestInvalid, "provider must have a name")
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, exists := g.providers[p.Name()]; !exists {
		g.order = append(g.order, p.Name())
	}
	g.providers[p.Name()] = p
	return nil
}

// Get returns a registered provider by name.
func (g *Gateway) Get(name string) (Provider, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	p, ok := g.providers[name]
	if !ok {
		return nil, mnerr.New(mnerr.CodeProviderNotFound, "provider not registered",
			mnerr.FieldProvider(name))
	}
	return p, nil
}

// SetChatPriority sets the preferred ordering for chat routing. Every name
// must already be registered.
func (g *Gateway) SetChatPriority(names []string) error {
	return g.setPriority(names, &g.chatPriority)
}

// SetEmbeddingPriority sets the preferred ordering for embedding routing.
func (g *Gateway) SetEmbeddingPriority(names []string) error {
	return g.setPriority(names, &g.embedPriority)
}

func (g *Gateway) setPriority(names []string, dest *[]string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, name := range names {
		if _, ok := g.providers[name]; !ok {
			return mnerr.New(mnerr.CodeProviderNotFound, "priority list names unregistered provider",
				mnerr.FieldProvider(name))
		}
	}
	*dest = append([]string(nil), names...)
	return nil
}

// Metrics returns a snapshot of per-provider call counters.
func (g *Gateway) Metrics() map[string]ProviderMetrics {
	return g.metrics.snapshot()
}

// Close shuts down all registered providers, joining any errors.
func (g *Gateway) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	var errs []error
	for _, name := range g.order {
		if p, ok := g.providers[name]; ok {
			if err := p.Close(); err != nil {
				errs = append(errs, err)
			}
		}
	}
	g.providers = make(map[string]Provider)
	g.order = nil
	return errors.Join(errs...)
}

// Select resolves the provider to use for a kind. When preferred is set and
// that provider supports the kind, it wins regardless of availability; a
// preferred provider that lacks the capability is rejected outright rather
// than silently substituted.
func (g *Gateway) Select(ctx context.Context, kind Kind, preferred string) (Provider, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	if preferred != "" {
		p, ok := g.providers[preferred]
		if !ok {
			return nil, mnerr.New(mnerr.CodeProviderNotFound, "preferred provider not registered",
				mnerr.FieldProvider(preferred))
		}
		if !p.Capabilities().Supports(kind) {
			return nil, mnerr.New(mnerr.CodeProviderNotCapable, "preferred provider does not support requested operation",
				mnerr.FieldProvider(preferred), mnerr.Field("kind", string(kind)))
		}
		return p, nil
	}

	priority := g.chatPriority
	if kind == KindEmbedding {
		priority = g.embedPriority
	}
	for _, name := range priority {
		p, ok := g.providers[name]
		if !ok || !p.Capabilities().Supports(kind) {
			continue
		}
		if p.Available(ctx) {
			return p, nil
		}
	}

	// Fall back to registration order, skipping the availability probe so a
	// misconfigured priority list cannot strand requests entirely.
	for _, name := range g.order {
		if p := g.providers[name]; p.Capabilities().Supports(kind) {
			return p, nil
		}
	}

	return nil, mnerr.New(mnerr.CodeProviderAllUnavailable, "no registered provider supports requested operation",
		mnerr.Field("kind", string(kind)))
}

// GenerateEmbedding embeds text via the selected provider, retrying once on
// the next eligible provider when the first call fails.
func (g *Gateway) GenerateEmbedding(ctx context.Context, text, preferred string) (*EmbedResult, error) {
	primary, err := g.Select(ctx, KindEmbedding, preferred)
	if err != nil {
		return nil, err
	}

	result, primaryErr := g.embedOnce(ctx, primary, text)
	if primaryErr == nil {
		return result, nil
	}

	fallback, selErr := g.selectExcluding(ctx, KindEmbedding, primary.Name())
	if selErr != nil {
		return nil, primaryErr
	}
	result, fallbackErr := g.embedOnce(ctx, fallback, text)
	if fallbackErr != nil {
		return nil, mnerr.Join(primaryErr, fallbackErr)
	}
	g.logger.Warn("embedding recovered via fallback provider",
		"failed", primary.Name(), "used", fallback.Name(), "error", primaryErr)
	return result, nil
}

// GenerateChat produces a chat completion via the selected provider, with
// the same single-hop fallback discipline as GenerateEmbedding.
func (g *Gateway) GenerateChat(ctx context.Context, req ChatRequest, preferred string) (*ChatResult, error) {
	primary, err := g.Select(ctx, KindChat, preferred)
	if err != nil {
		return nil, err
	}

	result, primaryErr := g.chatOnce(ctx, primary, req)
	if primaryErr == nil {
		return result, nil
	}

	fallback, selErr := g.selectExcluding(ctx, KindChat, primary.Name())
	if selErr != nil {
		return nil, primaryErr
	}
	result, fallbackErr := g.chatOnce(ctx, fallback, req)
	if fallbackErr != nil {
		return nil, mnerr.Join(primaryErr, fallbackErr)
	}
	g.logger.Warn("chat recovered via fallback provider",
		"failed", primary.Name(), "used", fallback.Name(), "error", primaryErr)
	return result, nil
}

// selectExcluding picks the next provider for kind skipping the named one.
func (g *Gateway) selectExcluding(ctx context.Context, kind Kind, exclude string) (Provider, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	priority := g.chatPriority
	if kind == KindEmbedding {
		priority = g.embedPriority
	}
	seen := map[string]bool{exclude: true}
	for _, name := range priority {
		if seen[name] {
			continue
		}
		seen[name] = true
		p, ok := g.providers[name]
		if !ok || !p.Capabilities().Supports(kind) {
			continue
		}
		if p.Available(ctx) {
			return p, nil
		}
	}
	for _, name := range g.order {
		if seen[name] {
			continue
		}
		seen[name] = true
		if p := g.providers[name]; p.Capabilities().Supports(kind) {
			return p, nil
		}
	}
	return nil, mnerr.New(mnerr.CodeProviderAllUnavailable, "no fallback provider supports requested operation",
		mnerr.Field("kind", string(kind)))
}

func (g *Gateway) embedOnce(ctx context.Context, p Provider, text string) (*EmbedResult, error) {
	callCtx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	result, err := p.Embed(callCtx, EmbedRequest{
		Text: truncateUTF8(text, p.Capabilities().MaxEmbedInputBytes),
	})
	if err != nil {
		err = g.classify(p.Name(), callCtx, err, "embedding request failed")
		return nil, err
	}
	g.metrics.recordSuccess(p.Name())
	return result, nil
}

func (g *Gateway) chatOnce(ctx context.Context, p Provider, req ChatRequest) (*ChatResult, error) {
	callCtx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	result, err := p.Chat(callCtx, req)
	if err != nil {
		err = g.classify(p.Name(), callCtx, err, "chat request failed")
		return nil, err
	}
	g.metrics.recordSuccess(p.Name())
	return result, nil
}

// classify wraps an upstream failure with a routing-level code and records
// the outcome. Deadline expiry maps to the timeout code so callers can tell
// slow providers from broken ones.
func (g *Gateway) classify(name string, ctx context.Context, err error, msg string) error {
	g.metrics.recordFailure(name, err)
	code := mnerr.CodeProviderUpstreamFailure
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		code = mnerr.CodeProviderTimeout
	}
	return mnerr.Wrap(err, code, msg, mnerr.FieldProvider(name))
}

// truncateUTF8 cuts s to at most maxBytes without splitting a rune.
// maxBytes <= 0 means no limit.
func truncateUTF8(s string, maxBytes int) string {
	if maxBytes <= 0 || len(s) <= maxBytes {
		return s
	}
	cut := maxBytes
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
