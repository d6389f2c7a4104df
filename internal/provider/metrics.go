// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Mnemos Contributors

package provider

import (
	"sync"
	"time"
)

// ProviderMetrics is a point-in-time snapshot of one provider's call counters.
type ProviderMetrics struct {
	Successes   int64
	Failures    int64
	LastSuccess time.Time
	LastFailure time.Time
	LastError   string
}

// metricsTracker records per-provider call outcomes. It is observational
// only; routing never consults it, so a flaky provider is retried on every
// request rather than being taken out of rotation.
type metricsTracker struct {
	mu      sync.RWMutex
	entries map[string]*ProviderMetrics
}

func newMetricsTracker() *metricsTracker {
	return &metricsTracker{entries: make(map[string]*ProviderMetrics)}
}

func (t *metricsTracker) recordSuccess(name string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	m := t.entry(name)
	m.Successes++
	m.LastSuccess = time.Now()
}

func (t *metricsTracker) recordFailure(name string, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	m := t.entry(name)
	m.Failures++
	m.LastFailure = time.Now()
	if err != nil {
		m.LastError = err.Error()
	}
}

// entry returns the counter for name, creating it on first use.
// Callers must hold t.mu.
func (t *metricsTracker) entry(name string) *ProviderMetrics {
	m, ok := t.entries[name]
	if !ok {
		m = &ProviderMetrics{}
		t.entries[name] = m
	}
	return m
}

// snapshot copies all counters for external consumption.
func (t *metricsTracker) snapshot() map[string]ProviderMetrics {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make(map[string]ProviderMetrics, len(t.entries))
	for name, m := range t.entries {
		out[name] = *m
	}
	return out
}
