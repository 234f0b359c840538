//-------------------------------------------------------------------------
//
// pgEdge Brand Master
//
// Copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

//go:build integration
// +build integration

// Integration tests for the Postgres store.
// Run with: go test -tags=integration ./internal/store/...
// Set PGEDGE_TEST_CONN to override the connection string.

package store_test

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pgEdge/pgedge-brandmaster/internal/brand"
	"github.com/pgEdge/pgedge-brandmaster/internal/datagen"
	"github.com/pgEdge/pgedge-brandmaster/internal/resolver"
	"github.com/pgEdge/pgedge-brandmaster/internal/store"
	"github.com/pgEdge/pgedge-brandmaster/internal/testutil"
)

func setupCatalog(t *testing.T) *pgxpool.Pool {
	t.Helper()

	pool, _ := testutil.NewTestDB(t, "store")
	ctx := context.Background()

	if err := store.CreateCatalog(ctx, pool); err != nil {
		t.Fatalf("CreateCatalog failed: %v", err)
	}
	if err := store.ApplyBrandSchema(ctx, pool, false); err != nil {
		t.Fatalf("ApplyBrandSchema failed: %v", err)
	}

	c := &datagen.Catalog{
		RawBrands: []string{"Nike", "nike ", "NIKE", "New Look", "Adidas", ""},
		Products: []datagen.CatalogProduct{
			{SKU: "SKU-1", Name: "Nike air max", Brand: 0},
			{SKU: "SKU-2", Name: "nike  tee", Brand: 1},
			{SKU: "SKU-3", Name: "NIKE shorts", Brand: 2},
			{SKU: "SKU-4", Name: "New Look shirt", Brand: 3},
			{SKU: "SKU-5", Name: "Adidas samba", Brand: 4},
			{SKU: "SKU-6", Name: "mystery item", Brand: 5},
			{SKU: "SKU-7", Name: "plain socks", Brand: -1},
		},
	}
	if err := datagen.LoadCatalog(ctx, pool, c, datagen.DefaultBatchConfig()); err != nil {
		t.Fatalf("LoadCatalog failed: %v", err)
	}
	return pool
}

func TestPostgresResolve(t *testing.T) {
	pool := setupCatalog(t)
	ctx := context.Background()
	s := store.NewPostgres(pool)

	opts := resolver.Options{Cluster: brand.DefaultOptions(), Source: store.RawBrandTable}
	report, err := resolver.Resolve(ctx, s, opts)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if report.Masters != 3 || report.Aliases != 5 || report.ProductsLinked != 5 {
		t.Errorf("unexpected report %+v", report)
	}
	if len(report.Unresolved) != 1 || report.Unresolved[0] != "" {
		t.Errorf("Expected the empty brand unresolved, got %q", report.Unresolved)
	}

	coverage, err := s.Coverage(ctx)
	if err != nil {
		t.Fatalf("Coverage failed: %v", err)
	}
	if coverage.Linked != 5 || coverage.Total != 7 {
		t.Errorf("unexpected coverage %+v", coverage)
	}

	// A second run replaces everything and restarts ids at 1.
	if _, err := resolver.Resolve(ctx, s, opts); err != nil {
		t.Fatalf("second Resolve failed: %v", err)
	}
	masters, err := s.Masters(ctx)
	if err != nil {
		t.Fatalf("Masters failed: %v", err)
	}
	if len(masters) != 3 || masters[0].ID != 1 {
		t.Errorf("unexpected masters after rerun %+v", masters)
	}

	runID, err := s.MetadataValue(ctx, "run_id")
	if err != nil || runID == "" {
		t.Errorf("run_id not recorded: %q, %v", runID, err)
	}
	if _, err := s.MetadataValue(ctx, "missing"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestPostgresConstraintRollsBack(t *testing.T) {
	pool := setupCatalog(t)
	ctx := context.Background()
	s := store.NewPostgres(pool)

	err := store.WithTx(ctx, s, func(tx store.Tx) error {
		return tx.InsertMasters(ctx, []string{"NIKE", "NIKE"})
	})
	if !errors.Is(err, store.ErrUniqueViolation) {
		t.Fatalf("Expected ErrUniqueViolation, got %v", err)
	}

	err = store.WithTx(ctx, s, func(tx store.Tx) error {
		return tx.InsertAliases(ctx, []store.Alias{{MasterID: 999, Text: "nike", Source: "dim_brand", Confidence: 1}})
	})
	if !errors.Is(err, store.ErrForeignKeyViolation) {
		t.Fatalf("Expected ErrForeignKeyViolation, got %v", err)
	}

	masters, err := s.Masters(ctx)
	if err != nil {
		t.Fatalf("Masters failed: %v", err)
	}
	if len(masters) != 0 {
		t.Errorf("Expected no masters after rollback, got %d", len(masters))
	}
}

func TestPostgresDryRunWritesNothing(t *testing.T) {
	pool := setupCatalog(t)
	ctx := context.Background()
	s := store.NewPostgres(pool)

	report, err := resolver.Resolve(ctx, s, resolver.Options{
		Cluster: brand.DefaultOptions(),
		Source:  store.RawBrandTable,
		DryRun:  true,
	})
	if err != nil {
		t.Fatalf("dry run failed: %v", err)
	}
	if report.Masters != 3 {
		t.Errorf("Expected 3 masters in dry run, got %d", report.Masters)
	}

	coverage, err := s.Coverage(ctx)
	if err != nil {
		t.Fatalf("Coverage failed: %v", err)
	}
	if coverage.Linked != 0 {
		t.Errorf("dry run linked %d products", coverage.Linked)
	}
}
