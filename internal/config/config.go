// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Mnemos Contributors

// Package config loads and validates the Mnemos configuration.
package config

import (
	"errors"
	"strings"
	"time"

	"github.com/spf13/viper"

	mnerr "github.com/mnemos-dev/mnemos/pkg/errors"
)

// Config is the top-level Mnemos configuration.
type Config struct {
	Storage   StorageConfig             `mapstructure:"storage"`
	Cache     CacheConfig               `mapstructure:"cache"`
	Chunking  ChunkingConfig            `mapstructure:"chunking"`
	Providers map[string]ProviderConfig `mapstructure:"providers"`
	Routing   RoutingConfig             `mapstructure:"routing"`
	Sync      SyncConfig                `mapstructure:"sync"`
	Log       LogConfig                 `mapstructure:"log"`
}

// StorageConfig selects and tunes the storage backend.
type StorageConfig struct {
	Backend          string `mapstructure:"backend"`
	Path             string `mapstructure:"path"`
	VectorDimensions int    `mapstructure:"vector_dimensions"`
	PoolSize         int    `mapstructure:"pool_size"`
}

// CacheConfig tunes the in-memory cache layer.
type CacheConfig struct {
	DocumentTTL time.Duration `mapstructure:"document_ttl"`
}

// ChunkingConfig bounds stored document size.
type ChunkingConfig struct {
	MaxBytes int `mapstructure:"max_bytes"`
}

// ProviderConfig holds credentials and endpoint for one generation backend.
// APIKey supports "env:NAME" and "keyring:service/user" references resolved
// at startup.
type ProviderConfig struct {
	APIKey   string `mapstructure:"api_key"`
	Endpoint string `mapstructure:"endpoint"`
}

// RoutingConfig orders providers for each generation task and bounds
// upstream calls.
type RoutingConfig struct {
	ChatPriority      []string      `mapstructure:"chat_priority"`
	EmbeddingPriority []string      `mapstructure:"embedding_priority"`
	CallTimeout       time.Duration `mapstructure:"call_timeout"`
}

// SyncConfig controls the background resync task.
type SyncConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	Root         string        `mapstructure:"root"`
	Extensions   []string      `mapstructure:"extensions"`
	Interval     time.Duration `mapstructure:"interval"`
	InitialDelay time.Duration `mapstructure:"initial_delay"`
}

// LogConfig controls structured logging output.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

var knownProviders = map[string]bool{
	"openai":     true,
	"anthropic":  true,
	"google":     true,
	"openrouter": true,
}

// Load reads configuration from the given path (or defaults) with
// environment variable overrides (prefix MNEMOS_).
func Load(path string) (*Config, error) {
	v := viper.New()

	// Defaults
	v.SetDefault("storage.backend", "sqlite")
	v.SetDefault("storage.path", "mnemos.db")
	v.SetDefault("storage.vector_dimensions", 1536)
	v.SetDefault("storage.pool_size", 4)
	v.SetDefault("cache.document_ttl", time.Hour)
	v.SetDefault("chunking.max_bytes", 800_000)
	v.SetDefault("routing.call_timeout", 60*time.Second)
	v.SetDefault("sync.enabled", false)
	v.SetDefault("sync.interval", 5*time.Minute)
	v.SetDefault("sync.initial_delay", 10*time.Second)
	v.SetDefault("sync.extensions", []string{".md", ".txt"})
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	// Environment
	v.SetEnvPrefix("MNEMOS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// File
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, mnerr.Errorf(mnerr.CodeConfigLoadReadFailure, "reading config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, mnerr.Errorf(mnerr.CodeConfigParseInvalidFormat, "unmarshalling config: %w", err)
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, mnerr.Errorf(mnerr.CodeConfigValidateInvalidValue, "validating config: %w", errors.Join(errs...))
	}

	return &cfg, nil
}

// Validate checks the configuration for logical errors. It returns every
// validation error found rather than stopping at the first one.
func (c *Config) Validate() []error {
	var errs []error

	errs = append(errs, c.validateStorage()...)
	errs = append(errs, c.validateCache()...)
	errs = append(errs, c.validateRouting()...)
	errs = append(errs, c.validateSync()...)
	errs = append(errs, c.validateLog()...)

	return errs
}

func (c *Config) validateStorage() []error {
	var errs []error

	validBackends := map[string]bool{"sqlite": true}
	if !validBackends[c.Storage.Backend] {
		errs = append(errs, mnerr.Errorf(mnerr.CodeConfigValidateInvalidValue,
			"config: storage.backend must be one of [sqlite], got %q",
			c.Storage.Backend,
		))
	}

	if c.Storage.Path == "" {
		errs = append(errs, mnerr.Errorf(mnerr.CodeConfigValidateInvalidValue, "config: storage.path must not be empty"))
	}

	if c.Storage.VectorDimensions <= 0 {
		errs = append(errs, mnerr.Errorf(mnerr.CodeConfigValidateInvalidValue,
			"config: storage.vector_dimensions must be greater than 0, got %d",
			c.Storage.VectorDimensions,
		))
	}

	if c.Storage.PoolSize < 0 {
		errs = append(errs, mnerr.Errorf(mnerr.CodeConfigValidateInvalidValue,
			"config: storage.pool_size must not be negative, got %d",
			c.Storage.PoolSize,
		))
	}

	return errs
}

func (c *Config) validateCache() []error {
	var errs []error

	if c.Cache.DocumentTTL <= 0 {
		errs = append(errs, mnerr.Errorf(mnerr.CodeConfigValidateInvalidValue,
			"config: cache.document_ttl must be greater than 0, got %s",
			c.Cache.DocumentTTL,
		))
	}

	if c.Chunking.MaxBytes <= 0 {
		errs = append(errs, mnerr.Errorf(mnerr.CodeConfigValidateInvalidValue,
			"config: chunking.max_bytes must be greater than 0, got %d",
			c.Chunking.MaxBytes,
		))
	}

	return errs
}

func (c *Config) validateRouting() []error {
	var errs []error

	if c.Routing.CallTimeout <= 0 {
		errs = append(errs, mnerr.Errorf(mnerr.CodeConfigValidateInvalidValue,
			"config: routing.call_timeout must be greater than 0, got %s",
			c.Routing.CallTimeout,
		))
	}

	for name := range c.Providers {
		if !knownProviders[name] {
			errs = append(errs, mnerr.Errorf(mnerr.CodeConfigValidateInvalidValue,
				"config: providers.%s is not a supported provider", name))
		}
	}

	errs = append(errs, c.validatePriorityList("routing.chat_priority", c.Routing.ChatPriority)...)
	errs = append(errs, c.validatePriorityList("routing.embedding_priority", c.Routing.EmbeddingPriority)...)

	return errs
}

// validatePriorityList cross-references priority entries against the
// configured providers section. A nil Providers map means defaults only,
// which is valid as long as the priority lists are empty too.
func (c *Config) validatePriorityList(key string, names []string) []error {
	var errs []error
	for i, name := range names {
		if !knownProviders[name] {
			errs = append(errs, mnerr.Errorf(mnerr.CodeConfigValidateInvalidValue,
				"config: %s[%d] %q is not a supported provider", key, i, name))
			continue
		}
		if _, ok := c.Providers[name]; !ok {
			errs = append(errs, mnerr.Errorf(mnerr.CodeConfigValidateInvalidValue,
				"config: %s[%d] references provider %q which is not configured", key, i, name))
		}
	}
	return errs
}

func (c *Config) validateSync() []error {
	var errs []error

	if !c.Sync.Enabled {
		return nil
	}

	if c.Sync.Root == "" {
		errs = append(errs, mnerr.Errorf(mnerr.CodeConfigValidateInvalidValue,
			"config: sync.root must not be empty when sync is enabled"))
	}

	if c.Sync.Interval <= 0 {
		errs = append(errs, mnerr.Errorf(mnerr.CodeConfigValidateInvalidValue,
			"config: sync.interval must be greater than 0, got %s",
			c.Sync.Interval,
		))
	}

	if c.Sync.InitialDelay < 0 {
		errs = append(errs, mnerr.Errorf(mnerr.CodeConfigValidateInvalidValue,
			"config: sync.initial_delay must not be negative, got %s",
			c.Sync.InitialDelay,
		))
	}

	return errs
}

func (c *Config) validateLog() []error {
	var errs []error

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Log.Level] {
		errs = append(errs, mnerr.Errorf(mnerr.CodeConfigValidateInvalidValue,
			"config: log.level must be one of [debug, info, warn, error], got %q",
			c.Log.Level,
		))
	}

	validFormats := map[string]bool{"text": true, "json": true}
	if !validFormats[c.Log.Format] {
		errs = append(errs, mnerr.Errorf(mnerr.CodeConfigValidateInvalidValue,
			"config: log.format must be one of [text, json], got %q",
			c.Log.Format,
		))
	}

	return errs
}
