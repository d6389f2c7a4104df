// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Mnemos Contributors

package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mnemos-dev/mnemos/internal/secrets"
)

// keyringService is the OS keyring service name used for mnemos credentials.
const keyringService = "mnemos"

func newSecretCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "secret",
		Short: "Manage provider credentials in the OS keyring",
	}

	store := secrets.NewKeyringStore()

	cmd.AddCommand(
		&cobra.Command{
			Use:   "set <key> <value>",
			Short: "Store a credential",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := store.Store(keyringService, args[0], args[1]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "stored %s (reference it as keyring://%s/%s)\n",
					args[0], keyringService, args[0])
				return nil
			},
		},
		&cobra.Command{
			Use:   "get <key>",
			Short: "Print a credential",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				val, err := store.Retrieve(keyringService, args[0])
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), val)
				return nil
			},
		},
		&cobra.Command{
			Use:   "delete <key>",
			Short: "Remove a credential",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return store.Delete(keyringService, args[0])
			},
		},
		&cobra.Command{
			Use:   "list",
			Short: "List stored credential keys",
			RunE: func(cmd *cobra.Command, _ []string) error {
				keys, err := store.List(keyringService)
				if err != nil {
					return err
				}
				if len(keys) > 0 {
					fmt.Fprintln(cmd.OutOrStdout(), strings.Join(keys, "\n"))
				}
				return nil
			},
		},
	)

	return cmd
}
