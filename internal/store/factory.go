// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Mnemos Contributors

package store

import (
	"sync"

	mnerr "github.com/mnemos-dev/mnemos/pkg/errors"
)

// defaultVectorDimensions is the default embedding dimension (matches OpenAI text-embedding-3-small).
const defaultVectorDimensions = 1536

// Config selects and parameterizes a storage backend.
type Config struct {
	Backend          string // "sqlite" is the only built-in backend.
	Path             string // Backend-specific location, e.g. a database file path.
	VectorDimensions int    // Embedding dimensions; 0 uses the default (1536).
	PoolSize         int    // Max open connections; 0 uses the backend default.
}

// Factory creates a Store for a backend.
type Factory func(cfg *Config) (Store, error)

var (
	factories   = map[string]Factory{}
	factoriesMu sync.RWMutex
)

// RegisterBackend registers a factory for a named storage backend.
// Backend packages call this from init(). This function is goroutine-safe.
func RegisterBackend(name string, f Factory) {
	factoriesMu.Lock()
	defer factoriesMu.Unlock()
	factories[name] = f
}

// New creates a Store using the configured backend, defaulting to "sqlite".
func New(cfg *Config) (Store, error) {
	backend := cfg.Backend
	if backend == "" {
		backend = "sqlite"
	}

	factoriesMu.RLock()
	factory, ok := factories[backend]
	factoriesMu.RUnlock()
	if !ok {
		return nil, mnerr.Errorf(mnerr.CodeStoreBackendUnsupported, "unsupported storage backend: %q", backend)
	}

	resolved := *cfg
	if resolved.VectorDimensions <= 0 {
		resolved.VectorDimensions = defaultVectorDimensions
	}

	return factory(&resolved)
}
