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
	"os"

	"github.com/spf13/cobra"

	"github.com/pgEdge/pgedge-brandmaster/internal/export"
	"github.com/pgEdge/pgedge-brandmaster/internal/logging"
	"github.com/pgEdge/pgedge-brandmaster/internal/store"
)

var (
	exportWhat   string
	exportOutput string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export brand data as CSV",
	Long: `Write either the raw brand table or the alias to canonical brand
mapping as CSV with a header row.

Example:
  pgedge-brandmaster export --what aliases --output brand_alias.csv
  pgedge-brandmaster export --what raw --output -`,
	RunE: runExport,
}

func init() {
	exportCmd.Flags().StringVar(&exportWhat, "what", "",
		"data to export: aliases or raw (default: aliases)")
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "",
		"output file, - for stdout (default: brand_alias.csv)")
}

func runExport(cmd *cobra.Command, args []string) (err error) {
	if exportWhat != "" {
		cfg.Export.What = exportWhat
	}
	if exportOutput != "" {
		cfg.Export.Output = exportOutput
	}
	if err := cfg.ValidateExport(); err != nil {
		return err
	}

	ctx := cmd.Context()
	pool, err := connect(ctx)
	if err != nil {
		return err
	}
	defer pool.Close()

	var w io.Writer = cmd.OutOrStdout()
	if cfg.Export.Output != "-" {
		f, err := os.Create(cfg.Export.Output)
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", cfg.Export.Output, err)
		}
		defer func() {
			if cerr := f.Close(); cerr != nil && err == nil {
				err = fmt.Errorf("failed to close %s: %w", cfg.Export.Output, cerr)
			}
		}()
		w = f
	}

	n, err := export.Write(ctx, store.NewPostgres(pool), cfg.Export.What, w)
	if err != nil {
		return err
	}

	logging.Info().
		Str("what", cfg.Export.What).
		Str("output", cfg.Export.Output).
		Int("rows", n).
		Msg("Export complete")
	return nil
}
