//-------------------------------------------------------------------------
//
// pgEdge Brand Master
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package datagen

import (
	"context"
	"fmt"
	"strings"

	"github.com/huandu/go-sqlbuilder"
	"github.com/jackc/pgx/v5"

	"github.com/pgEdge/pgedge-brandmaster/internal/db"
	"github.com/pgEdge/pgedge-brandmaster/internal/logging"
	"github.com/pgEdge/pgedge-brandmaster/internal/store"
)

// BatchInsertConfig configures batch insert behavior.
type BatchInsertConfig struct {
	// BatchSize is the number of rows per batch insert.
	BatchSize int

	// ProgressInterval is how often to log progress (in rows).
	ProgressInterval int64
}

// DefaultBatchConfig returns default batch insert configuration.
func DefaultBatchConfig() BatchInsertConfig {
	return BatchInsertConfig{
		BatchSize:        1000,
		ProgressInterval: 10000,
	}
}

// ProgressReporter tracks and reports data generation progress.
type ProgressReporter struct {
	tableName        string
	totalRows        int64
	currentRow       int64
	progressInterval int64
}

// NewProgressReporter creates a new progress reporter.
func NewProgressReporter(tableName string, totalRows int64, interval int64) *ProgressReporter {
	if interval < 1 {
		interval = 1
	}
	return &ProgressReporter{
		tableName:        tableName,
		totalRows:        totalRows,
		progressInterval: interval,
	}
}

// Update updates the progress and logs if necessary.
func (p *ProgressReporter) Update(rowsInserted int64) {
	oldRow := p.currentRow
	p.currentRow += rowsInserted

	// Check if we crossed a progress interval
	if p.currentRow/p.progressInterval > oldRow/p.progressInterval {
		pct := float64(p.currentRow) / float64(p.totalRows) * 100
		logging.Info().
			Str("table", p.tableName).
			Int64("rows", p.currentRow).
			Int64("total", p.totalRows).
			Float64("percent", pct).
			Msg("Generating data")
	}
}

// Rows returns the number of rows reported so far.
func (p *ProgressReporter) Rows() int64 {
	return p.currentRow
}

// Done logs completion.
func (p *ProgressReporter) Done() {
	logging.Info().
		Str("table", p.tableName).
		Int64("rows", p.currentRow).
		Msg("Table complete")
}

// CatalogConfig sizes a demo catalog.
type CatalogConfig struct {
	// Brands is the number of distinct real brands.
	Brands int

	// Products is the number of products.
	Products int

	// MaxVariants is the most noisy spellings generated per brand.
	MaxVariants int

	// UnbrandedRatio is the share of products with no brand.
	UnbrandedRatio float64
}

// DefaultCatalogConfig returns a small catalog configuration.
func DefaultCatalogConfig() CatalogConfig {
	return CatalogConfig{
		Brands:         50,
		Products:       1000,
		MaxVariants:    3,
		UnbrandedRatio: 0.03,
	}
}

// CatalogProduct is a generated product. Brand indexes Catalog.RawBrands and
// is -1 for an unbranded product.
type CatalogProduct struct {
	SKU   string
	Name  string
	Brand int
}

// Catalog is a generated raw brand table and product table.
type Catalog struct {
	// Canonical holds the clean name of each generated brand.
	Canonical []string

	// RawBrands holds every distinct spelling, clean names included.
	RawBrands []string

	Products []CatalogProduct
}

// GenerateCatalog builds a catalog in memory. The same seed and config yield
// the same catalog.
func GenerateCatalog(f *Faker, cfg CatalogConfig) *Catalog {
	c := &Catalog{}
	seen := make(map[string]struct{})

	add := func(name string) {
		if _, ok := seen[name]; ok {
			return
		}
		seen[name] = struct{}{}
		c.RawBrands = append(c.RawBrands, name)
	}

	// Give up on uniqueness after a bounded number of draws so a tiny
	// company word list cannot loop forever.
	for attempts := 0; len(c.Canonical) < cfg.Brands && attempts < cfg.Brands*20; attempts++ {
		name := strings.TrimSpace(f.Company())
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		c.Canonical = append(c.Canonical, name)
		add(name)
		for v := f.Int(0, max(cfg.MaxVariants, 0)); v > 0; v-- {
			add(f.BrandVariant(name))
		}
	}

	for i := 0; i < cfg.Products; i++ {
		p := CatalogProduct{
			SKU:   "SKU-" + f.Digits(8),
			Brand: -1,
		}
		item := strings.ToLower(f.ProductName())
		if len(c.RawBrands) > 0 && f.Float64(0, 1) >= cfg.UnbrandedRatio {
			p.Brand = f.Int(0, len(c.RawBrands)-1)
			p.Name = c.RawBrands[p.Brand] + " " + item
		} else {
			p.Name = item
		}
		c.Products = append(c.Products, p)
	}

	return c
}

// LoadCatalog inserts c into empty catalog tables in one transaction.
func LoadCatalog(ctx context.Context, d db.DB, c *Catalog, cfg BatchInsertConfig) error {
	if cfg.BatchSize < 1 {
		cfg.BatchSize = DefaultBatchConfig().BatchSize
	}

	return db.WithTx(ctx, d, func(tx pgx.Tx) error {
		var existing int64
		if err := tx.QueryRow(ctx, "SELECT COUNT(*) FROM dim_brand").Scan(&existing); err != nil {
			return fmt.Errorf("failed to count raw brands: %w", err)
		}
		if existing > 0 {
			return fmt.Errorf("dim_brand already holds %d rows, use --drop-existing to regenerate", existing)
		}

		brands := NewProgressReporter(store.RawBrandTable, int64(len(c.RawBrands)), cfg.ProgressInterval)
		err := insertBatches(ctx, tx, store.RawBrandTable, []string{"brand_name"}, len(c.RawBrands), cfg.BatchSize,
			func(i int) []any { return []any{c.RawBrands[i]} }, brands)
		if err != nil {
			return err
		}
		brands.Done()

		ids, err := brandIDs(ctx, tx)
		if err != nil {
			return err
		}

		products := NewProgressReporter(store.ProductTable, int64(len(c.Products)), cfg.ProgressInterval)
		err = insertBatches(ctx, tx, store.ProductTable, []string{"sku", "name", "brand_id"}, len(c.Products), cfg.BatchSize,
			func(i int) []any {
				p := c.Products[i]
				var brandID *int64
				if p.Brand >= 0 {
					id := ids[c.RawBrands[p.Brand]]
					brandID = &id
				}
				return []any{p.SKU, p.Name, brandID}
			}, products)
		if err != nil {
			return err
		}
		products.Done()

		return nil
	})
}

func insertBatches(ctx context.Context, tx pgx.Tx, table string, cols []string, n, batchSize int,
	row func(i int) []any, progress *ProgressReporter) error {
	for start := 0; start < n; start += batchSize {
		end := min(start+batchSize, n)

		ib := sqlbuilder.PostgreSQL.NewInsertBuilder()
		ib.InsertInto(table)
		ib.Cols(cols...)
		for i := start; i < end; i++ {
			ib.Values(row(i)...)
		}

		query, args := ib.Build()
		if _, err := tx.Exec(ctx, query, args...); err != nil {
			return fmt.Errorf("failed to insert into %s: %w", table, err)
		}
		progress.Update(int64(end - start))
	}
	return nil
}

func brandIDs(ctx context.Context, tx pgx.Tx) (map[string]int64, error) {
	rows, err := tx.Query(ctx, "SELECT brand_id, brand_name FROM dim_brand")
	if err != nil {
		return nil, fmt.Errorf("failed to read raw brand ids: %w", err)
	}
	defer rows.Close()

	ids := make(map[string]int64)
	for rows.Next() {
		var id int64
		var name string
		if err := rows.Scan(&id, &name); err != nil {
			return nil, err
		}
		ids[name] = id
	}
	return ids, rows.Err()
}
