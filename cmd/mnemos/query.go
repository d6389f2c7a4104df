// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Mnemos Contributors

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mnemos-dev/mnemos/internal/store"
)

func newSearchCmd() *cobra.Command {
	var (
		limit   int
		docType string
		lexical bool
	)

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search documents by semantic similarity or full text",
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

			var docs []*store.Document
			if lexical {
				docs, err = app.Service.TextSearch(cmd.Context(), args[0], limit, store.DocumentType(docType))
			} else {
				docs, err = app.Service.VectorSearch(cmd.Context(), args[0], limit, store.DocumentType(docType))
			}
			if err != nil {
				return err
			}

			for _, doc := range docs {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\n", doc.ID, doc.Type, firstLine(doc.Content))
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "maximum results")
	cmd.Flags().StringVar(&docType, "type", "", "restrict to one document type")
	cmd.Flags().BoolVar(&lexical, "lexical", false, "skip embeddings and use full-text ranking only")
	return cmd
}

func newNeighborsCmd() *cobra.Command {
	var (
		depth   int
		relType string
	)

	cmd := &cobra.Command{
		Use:   "neighbors <id>",
		Short: "List documents reachable from a document in the relationship graph",
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

			neighbors, err := app.Service.Neighbors(cmd.Context(), args[0], depth, relType)
			if err != nil {
				return err
			}

			for _, n := range neighbors {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t(via %s)\n", n.Document.ID, n.ReachedVia)
				for _, rel := range n.Relationships {
					fmt.Fprintf(cmd.OutOrStdout(), "  -[%s:%.1f]-> %s\n", rel.Type, rel.Weight, rel.Target)
				}
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&depth, "depth", "d", 1, "traversal depth in hops")
	cmd.Flags().StringVar(&relType, "relation", "", "restrict to one relationship type")
	return cmd
}

func newRecommendCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "recommend <context>",
		Short: "Suggest documents relevant to a free-text context",
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

			docs, err := app.Service.Recommend(cmd.Context(), args[0], limit)
			if err != nil {
				return err
			}

			for _, doc := range docs {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\n", doc.ID, doc.Type, firstLine(doc.Content))
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 5, "maximum results")
	return cmd
}

func newAnalyticsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "analytics",
		Short: "Print aggregate document and relationship counts",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			app, err := wireApp(cfg)
			if err != nil {
				return err
			}
			defer func() { _ = app.Close() }()

			a, err := app.Service.Analytics(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), a)
		},
	}
}

func firstLine(s string) string {
	for i, r := range s {
		if r == '\n' {
			return s[:i]
		}
		if i > 80 {
			return s[:i] + "..."
		}
	}
	return s
}
