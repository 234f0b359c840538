//-------------------------------------------------------------------------
//
// pgEdge Brand Master
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package cli

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/pgEdge/pgedge-brandmaster/internal/datagen"
	"github.com/pgEdge/pgedge-brandmaster/internal/db"
	"github.com/pgEdge/pgedge-brandmaster/internal/logging"
	"github.com/pgEdge/pgedge-brandmaster/internal/store"
)

var (
	initBrands       int
	initProducts     int
	initSeed         uint64
	initDropExisting bool
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a demo catalog with noisy brand names",
	Long: `Create the dim_brand and dim_product tables if they do not exist,
apply the brand master schema, and fill the catalog with generated brands,
noisy spellings of those brands, and products named after them. A few
products carry no brand at all.

The catalog tables must be empty unless --drop-existing is given.

Example:
  pgedge-brandmaster init --brands 200 --products 20000 --seed 42`,
	RunE: runInit,
}

func init() {
	initCmd.Flags().IntVar(&initBrands, "brands", 0,
		"number of distinct brands to generate")
	initCmd.Flags().IntVar(&initProducts, "products", 0,
		"number of products to generate")
	initCmd.Flags().Uint64Var(&initSeed, "seed", 0,
		"random seed for reproducible catalogs (0 = time based)")
	initCmd.Flags().BoolVar(&initDropExisting, "drop-existing", false,
		"drop existing catalog and brand tables before initialization")
}

func runInit(cmd *cobra.Command, args []string) error {
	// Override config with CLI flags
	if initBrands > 0 {
		cfg.Seed.Brands = initBrands
	}
	if initProducts > 0 {
		cfg.Seed.Products = initProducts
	}
	if initSeed > 0 {
		cfg.Seed.Seed = initSeed
	}
	if initDropExisting {
		cfg.Seed.DropExisting = true
	}

	if err := cfg.ValidateSeed(); err != nil {
		return err
	}

	logging.Info().
		Int("brands", cfg.Seed.Brands).
		Int("products", cfg.Seed.Products).
		Uint64("seed", cfg.Seed.Seed).
		Msg("Initializing demo catalog")

	ctx := cmd.Context()
	pool, err := connect(ctx)
	if err != nil {
		return err
	}
	defer pool.Close()

	if cfg.Seed.DropExisting {
		logging.Info().Msg("Dropping existing catalog")
		if err := store.DropCatalog(ctx, pool); err != nil {
			return err
		}
	}

	if err := store.CreateCatalog(ctx, pool); err != nil {
		return err
	}
	if err := store.ApplyBrandSchema(ctx, pool, cfg.Seed.DropExisting); err != nil {
		return err
	}

	faker := datagen.NewFaker()
	if cfg.Seed.Seed > 0 {
		faker = datagen.NewFakerWithSeed(cfg.Seed.Seed)
	}

	catCfg := datagen.DefaultCatalogConfig()
	catCfg.Brands = cfg.Seed.Brands
	catCfg.Products = cfg.Seed.Products
	catalog := datagen.GenerateCatalog(faker, catCfg)

	logging.Info().
		Int("canonical", len(catalog.Canonical)).
		Int("raw_brands", len(catalog.RawBrands)).
		Msg("Generated catalog")

	if err := datagen.LoadCatalog(ctx, pool, catalog, datagen.DefaultBatchConfig()); err != nil {
		return fmt.Errorf("failed to load catalog: %w", err)
	}

	err = db.SaveMetadata(ctx, pool, map[string]string{
		"seeded_at":     time.Now().UTC().Format(time.RFC3339),
		"seed_brands":   strconv.Itoa(len(catalog.Canonical)),
		"seed_raw":      strconv.Itoa(len(catalog.RawBrands)),
		"seed_products": strconv.Itoa(len(catalog.Products)),
		"seed":          strconv.FormatUint(cfg.Seed.Seed, 10),
	})
	if err != nil {
		return fmt.Errorf("failed to save metadata: %w", err)
	}

	logging.Info().
		Int("raw_brands", len(catalog.RawBrands)).
		Int("products", len(catalog.Products)).
		Msg("Demo catalog initialization complete")

	return nil
}
