//-------------------------------------------------------------------------
//
// pgEdge Brand Master
//
// Copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package store defines the relational store the brand resolution run reads
// from and writes to, and its PostgreSQL implementation.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/pgEdge/pgedge-brandmaster/internal/brand"
	"github.com/pgEdge/pgedge-brandmaster/internal/logging"
)

// Table and column names of the catalog and brand master schema.
const (
	RawBrandTable = "dim_brand"
	ProductTable  = "dim_product"
	MasterTable   = "brand_master"
	AliasTable    = "brand_alias"

	RawBrandIDColumn = "brand_id"
	MasterIDColumn   = "brand_master_id"
	AliasIDColumn    = "alias_id"
)

var (
	// ErrNotFound is returned when a requested row does not exist.
	ErrNotFound = errors.New("not found")

	// ErrUniqueViolation is returned when a write breaks a unique constraint.
	ErrUniqueViolation = errors.New("unique constraint violation")

	// ErrForeignKeyViolation is returned when a write references a missing row.
	ErrForeignKeyViolation = errors.New("foreign key violation")
)

// Product is a row of the product dimension.
type Product struct {
	ID            int64
	Name          string
	BrandID       *int64
	BrandMasterID *int64
}

// Master is a brand_master row.
type Master struct {
	ID            int64
	CanonicalName string
	ParentName    *string
	IsSubBrand    bool
	Active        bool
}

// Alias is a brand_alias row.
type Alias struct {
	ID         int64
	MasterID   int64
	Text       string
	Source     string
	Confidence float64
}

// AliasRow is an alias joined with the canonical name of its master.
type AliasRow struct {
	Alias
	CanonicalName string
}

// Coverage counts products with and without a brand master link.
type Coverage struct {
	Linked int64
	Total  int64
}

// Percent returns Linked as a percentage of Total, or 0 for an empty catalog.
func (c Coverage) Percent() float64 {
	if c.Total == 0 {
		return 0
	}
	return float64(c.Linked) * 100 / float64(c.Total)
}

// Reader is the read side of the store. Results are ordered by id unless
// stated otherwise.
type Reader interface {
	// RawBrands returns every raw brand row. A null name reads as "".
	RawBrands(ctx context.Context) ([]brand.RawBrand, error)

	// Products returns every product row.
	Products(ctx context.Context) ([]Product, error)

	// Masters returns every brand master row.
	Masters(ctx context.Context) ([]Master, error)

	// Aliases returns every alias ordered by master id then alias text.
	Aliases(ctx context.Context) ([]AliasRow, error)

	// Coverage counts linked and total products.
	Coverage(ctx context.Context) (Coverage, error)

	// Metadata returns the recorded run metadata, empty if none exists.
	Metadata(ctx context.Context) (map[string]string, error)
}

// Tx is a single atomic unit of work. Nothing written through a Tx is visible
// to other readers until Commit; Rollback discards all of it.
type Tx interface {
	Reader

	// ClearProductMasters sets brand_master_id to null on every product and
	// returns the number of products that were linked.
	ClearProductMasters(ctx context.Context) (int64, error)

	// DeleteAliases removes every alias row.
	DeleteAliases(ctx context.Context) error

	// DeleteMasters removes every brand master row.
	DeleteMasters(ctx context.Context) error

	// ResetSequence restarts the id sequence of table.column at 1.
	ResetSequence(ctx context.Context, table, column string) error

	// InsertMasters inserts one brand master per canonical name.
	InsertMasters(ctx context.Context, canonicalNames []string) error

	// MasterIDs maps canonical name to assigned brand master id.
	MasterIDs(ctx context.Context) (map[string]int64, error)

	// InsertAliases inserts alias rows; ID is ignored.
	InsertAliases(ctx context.Context, aliases []Alias) error

	// LinkProducts sets brand_master_id on every product whose raw brand
	// text is a key of masterByAlias and returns the number updated.
	LinkProducts(ctx context.Context, masterByAlias map[string]int64) (int64, error)

	// ClearProductBrands sets brand_id to null on every product.
	ClearProductBrands(ctx context.Context) error

	// DeleteRawBrands removes every raw brand row.
	DeleteRawBrands(ctx context.Context) error

	// InsertRawBrands inserts one raw brand row per name.
	InsertRawBrands(ctx context.Context, names []string) error

	// RawBrandIDs maps raw brand name to its lowest id.
	RawBrandIDs(ctx context.Context) (map[string]int64, error)

	// AssignProductBrands sets brand_id per product id and returns the
	// number of products updated.
	AssignProductBrands(ctx context.Context, brandByProduct map[int64]int64) (int64, error)

	// SaveMetadata upserts run metadata.
	SaveMetadata(ctx context.Context, values map[string]string) error

	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// Store is a Reader that can open write transactions.
type Store interface {
	Reader

	// Begin opens a transaction. Concurrent transactions on the same store
	// are serialized.
	Begin(ctx context.Context) (Tx, error)
}

// WithTx runs fn inside a transaction on s. The transaction is committed when
// fn returns nil and rolled back otherwise, including on panic. A rollback
// failure is logged; the error from fn is returned.
func WithTx(ctx context.Context, s Store, fn func(tx Tx) error) (err error) {
	tx, err := s.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback(ctx)
			panic(p)
		}
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				logging.Error().Err(rbErr).Msg("Rollback failed")
			}
		}
	}()

	if err = fn(tx); err != nil {
		return err
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
