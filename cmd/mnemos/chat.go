// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Mnemos Contributors

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mnemos-dev/mnemos/internal/provider"
)

func newChatCmd() *cobra.Command {
	var (
		model     string
		preferred string
		system    string
		maxTokens int
	)

	cmd := &cobra.Command{
		Use:   "chat <prompt>",
		Short: "Send a one-shot chat prompt through the provider gateway",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			app, err := wireApp(cfg)
			if err != nil {
				return err
			}
			defer func() { _ = app.Close() }()

			result, err := app.Gateway.GenerateChat(cmd.Context(), provider.ChatRequest{
				Model: model,
				Messages: []provider.Message{
					{Role: provider.MessageRoleUser, Content: args[0]},
				},
				Options: provider.ChatOptions{
					SystemPrompt: system,
					MaxTokens:    maxTokens,
				},
			}, preferred)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), result.Content)
			if result.Usage != nil {
				app.Logger.Debug("chat usage",
					"provider", result.Provider,
					"model", result.Model,
					"input_tokens", result.Usage.InputTokens,
					"output_tokens", result.Usage.OutputTokens,
				)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&model, "model", "", "model id (provider default when empty)")
	cmd.Flags().StringVar(&preferred, "provider", "", "preferred provider name")
	cmd.Flags().StringVar(&system, "system", "", "system prompt")
	cmd.Flags().IntVar(&maxTokens, "max-tokens", 0, "output token ceiling")
	return cmd
}
