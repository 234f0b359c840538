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

	"github.com/pgEdge/pgedge-brandmaster/internal/logging"
	"github.com/pgEdge/pgedge-brandmaster/internal/store"
)

var schemaDropExisting bool

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Create the brand master schema",
	Long: `Create the brand_master and brand_alias tables and add the
brand_master_id column to dim_product. Existing objects are left in place,
so the command can be run repeatedly. With --drop-existing the brand tables
and the product column are dropped and recreated; catalog data is kept.`,
	RunE: runSchema,
}

func init() {
	schemaCmd.Flags().BoolVar(&schemaDropExisting, "drop-existing", false,
		"drop the brand master schema before creating it")
}

func runSchema(cmd *cobra.Command, args []string) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx := cmd.Context()
	pool, err := connect(ctx)
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := store.ApplyBrandSchema(ctx, pool, schemaDropExisting); err != nil {
		return err
	}

	logging.Info().
		Bool("dropped", schemaDropExisting).
		Msg("Brand master schema ready")
	return nil
}
