//-------------------------------------------------------------------------
//
// pgEdge Brand Master
//
// Copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package resolver

import (
	"context"
	"fmt"

	"github.com/pgEdge/pgedge-brandmaster/internal/brand"
	"github.com/pgEdge/pgedge-brandmaster/internal/logging"
	"github.com/pgEdge/pgedge-brandmaster/internal/store"
)

// AliasConfidence is recorded on every alias. Only exact cluster membership
// is written, so it is always 1.
const AliasConfidence = 1.0

// sequences are restarted after the brand tables are emptied.
var sequences = []struct{ table, column string }{
	{store.MasterTable, store.MasterIDColumn},
	{store.AliasTable, store.AliasIDColumn},
}

// WriteStats counts what a Writer changed.
type WriteStats struct {
	ProductsCleared int64
	Masters         int
	Aliases         int
	ProductsLinked  int64
}

// Writer replaces the brand master and alias tables with one master per group
// and one alias per raw variant, then relinks products.
type Writer struct {
	// Source is stored on each alias. Defaults to the raw brand table name.
	Source string
}

// Write runs every step on tx. It does not commit; on error the caller must
// roll tx back, which leaves the previous state untouched.
func (w Writer) Write(ctx context.Context, tx store.Tx, groups []brand.Group) (WriteStats, error) {
	var stats WriteStats

	source := w.Source
	if source == "" {
		source = store.RawBrandTable
	}

	cleared, err := tx.ClearProductMasters(ctx)
	if err != nil {
		return stats, fmt.Errorf("clear product brand links: %w", err)
	}
	stats.ProductsCleared = cleared

	// Aliases reference masters, so they go first.
	if err := tx.DeleteAliases(ctx); err != nil {
		return stats, fmt.Errorf("delete brand aliases: %w", err)
	}
	if err := tx.DeleteMasters(ctx); err != nil {
		return stats, fmt.Errorf("delete brand masters: %w", err)
	}

	for _, seq := range sequences {
		if err := tx.ResetSequence(ctx, seq.table, seq.column); err != nil {
			logging.Warn().
				Err(err).
				Str("table", seq.table).
				Str("column", seq.column).
				Msg("Could not reset sequence, continuing")
		}
	}

	canonicals := make([]string, len(groups))
	for i, g := range groups {
		canonicals[i] = g.Canonical()
	}
	if err := tx.InsertMasters(ctx, canonicals); err != nil {
		return stats, fmt.Errorf("insert brand masters: %w", err)
	}
	stats.Masters = len(canonicals)

	ids, err := tx.MasterIDs(ctx)
	if err != nil {
		return stats, fmt.Errorf("read brand master ids: %w", err)
	}

	aliases := make([]store.Alias, 0, len(groups))
	masterByAlias := make(map[string]int64)
	for i, g := range groups {
		id, ok := ids[canonicals[i]]
		if !ok {
			return stats, fmt.Errorf("brand master %q: %w", canonicals[i], store.ErrNotFound)
		}
		for _, variant := range g.Variants {
			aliases = append(aliases, store.Alias{
				MasterID:   id,
				Text:       variant,
				Source:     source,
				Confidence: AliasConfidence,
			})
			masterByAlias[variant] = id
		}
	}

	if err := tx.InsertAliases(ctx, aliases); err != nil {
		return stats, fmt.Errorf("insert brand aliases: %w", err)
	}
	stats.Aliases = len(aliases)

	linked, err := tx.LinkProducts(ctx, masterByAlias)
	if err != nil {
		return stats, fmt.Errorf("link products: %w", err)
	}
	stats.ProductsLinked = linked

	logging.Debug().
		Int("masters", stats.Masters).
		Int("aliases", stats.Aliases).
		Int64("products_linked", stats.ProductsLinked).
		Msg("Brand master tables rebuilt")

	return stats, nil
}
