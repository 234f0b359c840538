//-------------------------------------------------------------------------
//
// pgEdge Brand Master
//
// Copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package memstore

import (
	"context"
	"fmt"

	"github.com/pgEdge/pgedge-brandmaster/internal/brand"
	"github.com/pgEdge/pgedge-brandmaster/internal/store"
)

// Tx is an open memstore transaction.
type Tx struct {
	*state
	store   *Store
	done    bool
	aborted error
}

var _ store.Tx = (*Tx)(nil)

// check returns the error that blocks further work on the transaction.
func (t *Tx) check(ctx context.Context) error {
	if t.done {
		return ErrTxDone
	}
	if t.aborted != nil {
		return fmt.Errorf("%w: %w", ErrTxAborted, t.aborted)
	}
	return ctx.Err()
}

// fail aborts the transaction with err and returns it.
func (t *Tx) fail(err error) error {
	t.aborted = err
	return err
}

func (t *Tx) RawBrands(ctx context.Context) ([]brand.RawBrand, error) {
	if err := t.check(ctx); err != nil {
		return nil, err
	}
	return t.state.RawBrands(ctx)
}

func (t *Tx) Products(ctx context.Context) ([]store.Product, error) {
	if err := t.check(ctx); err != nil {
		return nil, err
	}
	return t.state.Products(ctx)
}

func (t *Tx) Masters(ctx context.Context) ([]store.Master, error) {
	if err := t.check(ctx); err != nil {
		return nil, err
	}
	return t.state.Masters(ctx)
}

func (t *Tx) Aliases(ctx context.Context) ([]store.AliasRow, error) {
	if err := t.check(ctx); err != nil {
		return nil, err
	}
	return t.state.Aliases(ctx)
}

func (t *Tx) Coverage(ctx context.Context) (store.Coverage, error) {
	if err := t.check(ctx); err != nil {
		return store.Coverage{}, err
	}
	return t.state.Coverage(ctx)
}

func (t *Tx) Metadata(ctx context.Context) (map[string]string, error) {
	if err := t.check(ctx); err != nil {
		return nil, err
	}
	return t.state.Metadata(ctx)
}

func (t *Tx) ClearProductMasters(ctx context.Context) (int64, error) {
	if err := t.check(ctx); err != nil {
		return 0, err
	}
	var cleared int64
	for i := range t.products {
		if t.products[i].BrandMasterID != nil {
			t.products[i].BrandMasterID = nil
			cleared++
		}
	}
	return cleared, nil
}

func (t *Tx) DeleteAliases(ctx context.Context) error {
	if err := t.check(ctx); err != nil {
		return err
	}
	t.aliases = nil
	return nil
}

func (t *Tx) DeleteMasters(ctx context.Context) error {
	if err := t.check(ctx); err != nil {
		return err
	}
	if len(t.aliases) > 0 {
		a := t.aliases[0]
		return t.fail(fmt.Errorf("%w: alias %q still references brand master %d",
			store.ErrForeignKeyViolation, a.Text, a.MasterID))
	}
	for _, p := range t.products {
		if p.BrandMasterID != nil {
			return t.fail(fmt.Errorf("%w: product %d still references brand master %d",
				store.ErrForeignKeyViolation, p.ID, *p.BrandMasterID))
		}
	}
	t.masters = nil
	return nil
}

// ResetSequence fails for a table.column pair without a sequence. The failure
// does not abort the transaction.
func (t *Tx) ResetSequence(ctx context.Context, table, column string) error {
	if err := t.check(ctx); err != nil {
		return err
	}
	key := seqKey(table, column)
	if _, ok := t.sequences[key]; !ok {
		return fmt.Errorf("%s has no owned sequence", key)
	}
	t.sequences[key] = 0
	return nil
}

func (t *Tx) InsertMasters(ctx context.Context, canonicalNames []string) error {
	if err := t.check(ctx); err != nil {
		return err
	}

	seen := make(map[string]struct{}, len(t.masters)+len(canonicalNames))
	for _, m := range t.masters {
		seen[m.CanonicalName] = struct{}{}
	}
	for _, name := range canonicalNames {
		if _, dup := seen[name]; dup {
			return t.fail(fmt.Errorf("%w: brand_canonical %q already exists",
				store.ErrUniqueViolation, name))
		}
		seen[name] = struct{}{}
	}

	for _, name := range canonicalNames {
		t.masters = append(t.masters, store.Master{
			ID:            t.next(store.MasterTable, store.MasterIDColumn),
			CanonicalName: name,
			Active:        true,
		})
	}
	return nil
}

func (t *Tx) MasterIDs(ctx context.Context) (map[string]int64, error) {
	if err := t.check(ctx); err != nil {
		return nil, err
	}
	ids := make(map[string]int64, len(t.masters))
	for _, m := range t.masters {
		ids[m.CanonicalName] = m.ID
	}
	return ids, nil
}

func (t *Tx) InsertAliases(ctx context.Context, aliases []store.Alias) error {
	if err := t.check(ctx); err != nil {
		return err
	}

	masters := t.masterSet()
	seen := make(map[string]struct{}, len(t.aliases)+len(aliases))
	for _, a := range t.aliases {
		seen[a.Text] = struct{}{}
	}
	for _, a := range aliases {
		if _, dup := seen[a.Text]; dup {
			return t.fail(fmt.Errorf("%w: alias_text %q already exists",
				store.ErrUniqueViolation, a.Text))
		}
		if _, ok := masters[a.MasterID]; !ok {
			return t.fail(fmt.Errorf("%w: brand master %d does not exist",
				store.ErrForeignKeyViolation, a.MasterID))
		}
		seen[a.Text] = struct{}{}
	}

	for _, a := range aliases {
		a.ID = t.next(store.AliasTable, store.AliasIDColumn)
		t.aliases = append(t.aliases, a)
	}
	return nil
}

func (t *Tx) LinkProducts(ctx context.Context, masterByAlias map[string]int64) (int64, error) {
	if err := t.check(ctx); err != nil {
		return 0, err
	}

	masters := t.masterSet()
	for text, id := range masterByAlias {
		if _, ok := masters[id]; !ok {
			return 0, t.fail(fmt.Errorf("%w: alias %q maps to missing brand master %d",
				store.ErrForeignKeyViolation, text, id))
		}
	}

	texts := make(map[int64]string, len(t.rawBrands))
	for _, rb := range t.rawBrands {
		texts[rb.ID] = rb.Text
	}

	var linked int64
	for i, p := range t.products {
		if p.BrandID == nil {
			continue
		}
		text, ok := texts[*p.BrandID]
		if !ok {
			continue
		}
		id, ok := masterByAlias[text]
		if !ok {
			continue
		}
		t.products[i].BrandMasterID = &id
		linked++
	}
	return linked, nil
}

func (t *Tx) ClearProductBrands(ctx context.Context) error {
	if err := t.check(ctx); err != nil {
		return err
	}
	for i := range t.products {
		t.products[i].BrandID = nil
	}
	return nil
}

func (t *Tx) DeleteRawBrands(ctx context.Context) error {
	if err := t.check(ctx); err != nil {
		return err
	}
	for _, p := range t.products {
		if p.BrandID != nil {
			return t.fail(fmt.Errorf("%w: product %d still references brand %d",
				store.ErrForeignKeyViolation, p.ID, *p.BrandID))
		}
	}
	t.rawBrands = nil
	return nil
}

func (t *Tx) InsertRawBrands(ctx context.Context, names []string) error {
	if err := t.check(ctx); err != nil {
		return err
	}
	for _, name := range names {
		t.rawBrands = append(t.rawBrands, brand.RawBrand{
			ID:   t.next(store.RawBrandTable, store.RawBrandIDColumn),
			Text: name,
		})
	}
	return nil
}

func (t *Tx) RawBrandIDs(ctx context.Context) (map[string]int64, error) {
	if err := t.check(ctx); err != nil {
		return nil, err
	}
	ids := make(map[string]int64, len(t.rawBrands))
	for _, rb := range t.rawBrands {
		if id, ok := ids[rb.Text]; !ok || rb.ID < id {
			ids[rb.Text] = rb.ID
		}
	}
	return ids, nil
}

func (t *Tx) AssignProductBrands(ctx context.Context, brandByProduct map[int64]int64) (int64, error) {
	if err := t.check(ctx); err != nil {
		return 0, err
	}

	brands := make(map[int64]struct{}, len(t.rawBrands))
	for _, rb := range t.rawBrands {
		brands[rb.ID] = struct{}{}
	}
	for productID, brandID := range brandByProduct {
		if _, ok := brands[brandID]; !ok {
			return 0, t.fail(fmt.Errorf("%w: product %d references missing brand %d",
				store.ErrForeignKeyViolation, productID, brandID))
		}
	}

	var updated int64
	for i, p := range t.products {
		brandID, ok := brandByProduct[p.ID]
		if !ok {
			continue
		}
		t.products[i].BrandID = &brandID
		updated++
	}
	return updated, nil
}

func (t *Tx) SaveMetadata(ctx context.Context, values map[string]string) error {
	if err := t.check(ctx); err != nil {
		return err
	}
	for k, v := range values {
		t.metadata[k] = v
	}
	return nil
}

// Commit publishes the transaction's state. Committing an aborted
// transaction discards it and returns the abort cause.
func (t *Tx) Commit(ctx context.Context) error {
	if t.done {
		return ErrTxDone
	}
	t.done = true
	defer t.store.writer.Unlock()

	if t.aborted != nil {
		return fmt.Errorf("%w: %w", ErrTxAborted, t.aborted)
	}

	t.store.mu.Lock()
	t.store.committed = t.state
	t.store.mu.Unlock()
	return nil
}

// Rollback discards the transaction. Rolling back a closed transaction is a
// no-op.
func (t *Tx) Rollback(context.Context) error {
	if t.done {
		return nil
	}
	t.done = true
	t.store.writer.Unlock()
	return nil
}

func (t *Tx) masterSet() map[int64]struct{} {
	set := make(map[int64]struct{}, len(t.masters))
	for _, m := range t.masters {
		set[m.ID] = struct{}{}
	}
	return set
}
