//-------------------------------------------------------------------------
//
// pgEdge Brand Master
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/pgEdge/pgedge-brandmaster/internal/db"
	"github.com/pgEdge/pgedge-brandmaster/internal/logging"
)

// Minimal catalog tables. In production these are owned by the catalog ETL;
// they are only created here for demo and test databases.
const createCatalogSQL = `
-- Raw brand dimension
CREATE TABLE IF NOT EXISTS dim_brand (
    brand_id   SERIAL PRIMARY KEY,
    brand_name TEXT
);

-- Product dimension
CREATE TABLE IF NOT EXISTS dim_product (
    product_id SERIAL PRIMARY KEY,
    sku        TEXT,
    name       TEXT,
    brand_id   INTEGER REFERENCES dim_brand(brand_id)
);

CREATE INDEX IF NOT EXISTS idx_dim_product_brand ON dim_product(brand_id);
`

const dropCatalogSQL = `
DROP TABLE IF EXISTS dim_product CASCADE;
DROP TABLE IF EXISTS dim_brand CASCADE;
`

// Brand master schema, applied on top of an existing product dimension.
const createBrandSchemaSQL = `
-- Canonical brands
CREATE TABLE IF NOT EXISTS brand_master (
    brand_master_id SERIAL PRIMARY KEY,
    brand_canonical TEXT UNIQUE NOT NULL,
    brand_parent    TEXT,
    is_sub_brand    BOOLEAN DEFAULT FALSE,
    active_flag     BOOLEAN DEFAULT TRUE
);

-- Observed spellings of each canonical brand
CREATE TABLE IF NOT EXISTS brand_alias (
    alias_id        SERIAL PRIMARY KEY,
    brand_master_id INTEGER REFERENCES brand_master(brand_master_id),
    alias_text      TEXT UNIQUE NOT NULL,
    source          TEXT,
    confidence      NUMERIC
);

ALTER TABLE dim_product
    ADD COLUMN IF NOT EXISTS brand_master_id INTEGER REFERENCES brand_master(brand_master_id);

CREATE INDEX IF NOT EXISTS idx_brand_alias_master ON brand_alias(brand_master_id);
CREATE INDEX IF NOT EXISTS idx_dim_product_brand_master ON dim_product(brand_master_id);
`

const dropBrandSchemaSQL = `
ALTER TABLE IF EXISTS dim_product DROP COLUMN IF EXISTS brand_master_id;
DROP TABLE IF EXISTS brand_alias;
DROP TABLE IF EXISTS brand_master;
`

// CreateCatalog creates the raw brand and product tables if absent.
func CreateCatalog(ctx context.Context, d db.DB) error {
	if _, err := d.Exec(ctx, createCatalogSQL); err != nil {
		return fmt.Errorf("failed to create catalog tables: %w", err)
	}
	return nil
}

// DropCatalog drops the raw brand and product tables.
func DropCatalog(ctx context.Context, d db.DB) error {
	if _, err := d.Exec(ctx, dropCatalogSQL); err != nil {
		return fmt.Errorf("failed to drop catalog tables: %w", err)
	}
	return nil
}

// ApplyBrandSchema creates the brand master and alias tables, the product
// brand_master_id column, and the run metadata table in one transaction.
// With dropExisting the brand schema is dropped first; catalog data is kept.
func ApplyBrandSchema(ctx context.Context, d db.DB, dropExisting bool) error {
	return db.WithTx(ctx, d, func(tx pgx.Tx) error {
		if dropExisting {
			logging.Info().Msg("Dropping existing brand schema")
			if _, err := tx.Exec(ctx, dropBrandSchemaSQL); err != nil {
				return fmt.Errorf("failed to drop brand schema: %w", err)
			}
			if err := db.DropMetadata(ctx, tx); err != nil {
				return fmt.Errorf("failed to drop metadata table: %w", err)
			}
		}

		if _, err := tx.Exec(ctx, createBrandSchemaSQL); err != nil {
			return fmt.Errorf("failed to create brand schema: %w", err)
		}
		return db.EnsureMetadata(ctx, tx)
	})
}

// BrandSchemaExists reports whether the brand master table exists.
func BrandSchemaExists(ctx context.Context, d db.DB) (bool, error) {
	var exists bool
	err := d.QueryRow(ctx, `
        SELECT EXISTS (
            SELECT FROM information_schema.tables
            WHERE table_name = $1
        )
    `, MasterTable).Scan(&exists)
	return exists, err
}
