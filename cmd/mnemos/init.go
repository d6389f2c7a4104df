// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Mnemos Contributors

package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	mnerr "github.com/mnemos-dev/mnemos/pkg/errors"
)

// defaultConfigFile mirrors config.Load defaults so a generated file starts
// from the same state as running with no file at all.
type defaultConfigFile struct {
	Storage struct {
		Backend          string `yaml:"backend"`
		Path             string `yaml:"path"`
		VectorDimensions int    `yaml:"vector_dimensions"`
	} `yaml:"storage"`
	Providers map[string]struct {
		APIKey string `yaml:"api_key"`
	} `yaml:"providers"`
	Routing struct {
		ChatPriority      []string      `yaml:"chat_priority"`
		EmbeddingPriority []string      `yaml:"embedding_priority"`
		CallTimeout       time.Duration `yaml:"call_timeout"`
	} `yaml:"routing"`
	Sync struct {
		Enabled  bool          `yaml:"enabled"`
		Root     string        `yaml:"root"`
		Interval time.Duration `yaml:"interval"`
	} `yaml:"sync"`
	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`
}

func newInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init [path]",
		Short: "Write a starter config file",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "mnemos.yaml"
			if len(args) == 1 {
				path = args[0]
			}

			if _, err := os.Stat(path); err == nil && !force {
				return mnerr.Errorf(mnerr.CodeCLIInputInvalid, "%s already exists (use --force to overwrite)", path)
			}

			var cfg defaultConfigFile
			cfg.Storage.Backend = "sqlite"
			cfg.Storage.Path = "mnemos.db"
			cfg.Storage.VectorDimensions = 1536
			cfg.Providers = map[string]struct {
				APIKey string `yaml:"api_key"`
			}{
				"openai": {APIKey: "env:OPENAI_API_KEY"},
			}
			cfg.Routing.ChatPriority = []string{"openai"}
			cfg.Routing.EmbeddingPriority = []string{"openai"}
			cfg.Routing.CallTimeout = 60 * time.Second
			cfg.Sync.Interval = 5 * time.Minute
			cfg.Log.Level = "info"
			cfg.Log.Format = "text"

			data, err := yaml.Marshal(&cfg)
			if err != nil {
				return mnerr.Wrapf(err, mnerr.CodeCLISetupFailure, "encoding starter config")
			}
			if err := os.WriteFile(path, data, 0o600); err != nil {
				return mnerr.Wrapf(err, mnerr.CodeCLISetupFailure, "writing %s", path)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing config file")
	return cmd
}
