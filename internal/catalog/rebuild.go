//-------------------------------------------------------------------------
//
// pgEdge Brand Master
//
// Copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package catalog repairs the raw brand dimension of the product catalog by
// extracting brand names from product names.
package catalog

import (
	"context"
	"fmt"
	"io"

	"github.com/pgEdge/pgedge-brandmaster/internal/brand"
	"github.com/pgEdge/pgedge-brandmaster/internal/logging"
	"github.com/pgEdge/pgedge-brandmaster/internal/store"
)

// sampleSize is the number of extracted brands kept for the report.
const sampleSize = 5

// Report summarizes a raw brand rebuild.
type Report struct {
	Products         int
	Brands           int
	ProductsAssigned int64

	// Unbranded counts products whose name yielded no brand.
	Unbranded int

	// Sample holds the first extracted brand names.
	Sample []string
}

// Rebuild replaces the raw brand table with the distinct brands extracted
// from product names and points each product at its brand, in one
// transaction. Brand masters are not touched; run a resolution afterwards.
// An empty product table is not an error and changes nothing.
func Rebuild(ctx context.Context, s store.Store) (*Report, error) {
	report := &Report{}

	err := store.WithTx(ctx, s, func(tx store.Tx) error {
		products, err := tx.Products(ctx)
		if err != nil {
			return fmt.Errorf("read products: %w", err)
		}
		report.Products = len(products)

		if len(products) == 0 {
			logging.Warn().Msg("No products found, raw brands left unchanged")
			return nil
		}

		extracted := make(map[int64]string, len(products))
		seen := make(map[string]struct{})
		var names []string
		for _, p := range products {
			name := brand.Extract(p.Name)
			if name == "" {
				report.Unbranded++
				continue
			}
			extracted[p.ID] = name
			if _, ok := seen[name]; !ok {
				seen[name] = struct{}{}
				names = append(names, name)
			}
		}
		report.Brands = len(names)
		report.Sample = append([]string(nil), names[:min(sampleSize, len(names))]...)

		logging.Info().
			Int("products", report.Products).
			Int("brands", report.Brands).
			Strs("sample", report.Sample).
			Msg("Extracted brand names")

		if err := tx.ClearProductBrands(ctx); err != nil {
			return fmt.Errorf("clear product brands: %w", err)
		}
		if err := tx.DeleteRawBrands(ctx); err != nil {
			return fmt.Errorf("delete raw brands: %w", err)
		}
		if err := tx.ResetSequence(ctx, store.RawBrandTable, store.RawBrandIDColumn); err != nil {
			logging.Warn().Err(err).Msg("Could not reset raw brand sequence, continuing")
		}
		if err := tx.InsertRawBrands(ctx, names); err != nil {
			return fmt.Errorf("insert raw brands: %w", err)
		}

		ids, err := tx.RawBrandIDs(ctx)
		if err != nil {
			return fmt.Errorf("read raw brand ids: %w", err)
		}

		assign := make(map[int64]int64, len(extracted))
		for productID, name := range extracted {
			id, ok := ids[name]
			if !ok {
				return fmt.Errorf("raw brand %q: %w", name, store.ErrNotFound)
			}
			assign[productID] = id
		}

		assigned, err := tx.AssignProductBrands(ctx, assign)
		if err != nil {
			return fmt.Errorf("assign product brands: %w", err)
		}
		report.ProductsAssigned = assigned
		return nil
	})
	if err != nil {
		return nil, err
	}

	logging.Info().
		Int("brands", report.Brands).
		Int64("products_assigned", report.ProductsAssigned).
		Msg("Raw brand table rebuilt")

	return report, nil
}

// Print writes the report in human-readable form.
func (r *Report) Print(w io.Writer) error {
	_, err := fmt.Fprintf(w,
		"Products scanned:   %d\nBrands extracted:   %d\nProducts assigned:  %d\nWithout a brand:    %d\nSample:             %q\n",
		r.Products, r.Brands, r.ProductsAssigned, r.Unbranded, r.Sample)
	return err
}
