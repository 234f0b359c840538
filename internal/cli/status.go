//-------------------------------------------------------------------------
//
// pgEdge Brand Master
//
// Copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package cli

import (
	"fmt"
	"io"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/pgEdge/pgedge-brandmaster/internal/store"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the last run and current product coverage",
	RunE:  runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx := cmd.Context()
	pool, err := connect(ctx)
	if err != nil {
		return err
	}
	defer pool.Close()

	exists, err := store.BrandSchemaExists(ctx, pool)
	if err != nil {
		return fmt.Errorf("failed to check brand schema: %w", err)
	}
	if !exists {
		cmd.Println("Brand master schema not found; run 'pgedge-brandmaster schema' first.")
		return nil
	}

	s := store.NewPostgres(pool)
	meta, err := s.Metadata(ctx)
	if err != nil {
		return fmt.Errorf("failed to read metadata: %w", err)
	}
	coverage, err := s.Coverage(ctx)
	if err != nil {
		return fmt.Errorf("failed to read coverage: %w", err)
	}

	return printStatus(cmd.OutOrStdout(), meta, coverage)
}

func printStatus(w io.Writer, meta map[string]string, c store.Coverage) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	fmt.Fprintln(tw, "Metadata")
	if len(meta) == 0 {
		fmt.Fprintln(tw, "  (no runs recorded)")
	}
	keys := make([]string, 0, len(meta))
	for k := range meta {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(tw, "  %s:\t%s\n", k, meta[k])
	}

	fmt.Fprintln(tw, "Coverage")
	fmt.Fprintf(tw, "  Products linked:\t%d / %d (%.1f%%)\n", c.Linked, c.Total, c.Percent())

	return tw.Flush()
}
