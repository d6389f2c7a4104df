// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Mnemos Contributors

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mnemos-dev/mnemos/internal/store"
	mnerr "github.com/mnemos-dev/mnemos/pkg/errors"
)

func newAddCmd() *cobra.Command {
	var (
		id      string
		docType string
		tags    []string
		file    string
	)

	cmd := &cobra.Command{
		Use:   "add [content]",
		Short: "Store a document",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			content, err := readContent(args, file, cmd.InOrStdin())
			if err != nil {
				return err
			}

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			app, err := wireApp(cfg)
			if err != nil {
				return err
			}
			defer func() { _ = app.Close() }()

			ids, err := app.Service.AddDocument(cmd.Context(), &store.Document{
				ID:      id,
				Type:    store.DocumentType(docType),
				Content: content,
				Metadata: store.Metadata{
					Tags: tags,
					Path: file,
				},
			})
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), strings.Join(ids, "\n"))
			return nil
		},
	}

	cmd.Flags().StringVar(&id, "id", "", "document id (generated when empty)")
	cmd.Flags().StringVar(&docType, "type", "file", "document type")
	cmd.Flags().StringSliceVar(&tags, "tag", nil, "document tags (repeatable)")
	cmd.Flags().StringVarP(&file, "file", "f", "", "read content from a file instead of the argument")
	return cmd
}

func readContent(args []string, file string, stdin io.Reader) (string, error) {
	switch {
	case file != "":
		data, err := os.ReadFile(file)
		if err != nil {
			return "", mnerr.Wrapf(err, mnerr.CodeCLIInputInvalid, "reading %s", file)
		}
		return string(data), nil
	case len(args) == 1 && args[0] != "-":
		return args[0], nil
	default:
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", mnerr.Wrapf(err, mnerr.CodeCLIInputInvalid, "reading stdin")
		}
		return string(data), nil
	}
}

func newGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Fetch a document by id",
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

			doc, err := app.Service.GetDocument(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if doc == nil {
				fmt.Fprintln(cmd.OutOrStdout(), "not found")
				return nil
			}
			return printJSON(cmd.OutOrStdout(), doc)
		},
	}
}

func newLinkCmd() *cobra.Command {
	var weight float64

	cmd := &cobra.Command{
		Use:   "link <source-id> <relation-type> <target-id>",
		Short: "Record a directed relationship between two documents",
		Args:  cobra.ExactArgs(3),
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

			if err := app.Service.AddRelationship(cmd.Context(), args[0], args[2], args[1], weight, nil); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s -[%s]-> %s\n", args[0], args[1], args[2])
			return nil
		},
	}

	cmd.Flags().Float64Var(&weight, "weight", 1.0, "relationship weight")
	return cmd
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
