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
	"github.com/spf13/cobra"

	"github.com/pgEdge/pgedge-brandmaster/internal/catalog"
	"github.com/pgEdge/pgedge-brandmaster/internal/logging"
	"github.com/pgEdge/pgedge-brandmaster/internal/store"
)

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Rebuild raw brands from product names",
	Long: `Replace the contents of dim_brand with the brands found at the start
of each product name, and point every product at its extracted brand. The
rebuild runs in a single transaction. Brand masters are not changed; run
'resolve' afterwards.`,
	RunE: runExtract,
}

func runExtract(cmd *cobra.Command, args []string) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx := cmd.Context()
	pool, err := connect(ctx)
	if err != nil {
		return err
	}
	defer pool.Close()

	report, err := catalog.Rebuild(ctx, store.NewPostgres(pool))
	if err != nil {
		return err
	}

	logging.Info().
		Int("brands", report.Brands).
		Int64("products_assigned", report.ProductsAssigned).
		Msg("Raw brands rebuilt")

	return report.Print(cmd.OutOrStdout())
}
