//-------------------------------------------------------------------------
//
// pgEdge Brand Master
//
// Copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package memstore implements store.Store in memory.
//
// A transaction works on a private copy of the committed state which replaces
// it on Commit. Unique and foreign key constraints of the brand schema are
// enforced, and a failed write aborts the transaction the way PostgreSQL
// does. It backs dry runs and unit tests.
package memstore

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/pgEdge/pgedge-brandmaster/internal/brand"
	"github.com/pgEdge/pgedge-brandmaster/internal/store"
)

// ErrTxAborted is returned by every operation on a transaction after one of
// its writes failed.
var ErrTxAborted = errors.New("transaction aborted, rollback required")

// ErrTxDone is returned by operations on a committed or rolled back
// transaction.
var ErrTxDone = errors.New("transaction already closed")

// Snapshot is a copy of the committed contents of a Store.
type Snapshot struct {
	RawBrands []brand.RawBrand
	Products  []store.Product
	Masters   []store.Master
	Aliases   []store.Alias
	Metadata  map[string]string
}

type state struct {
	rawBrands []brand.RawBrand
	products  []store.Product
	masters   []store.Master
	aliases   []store.Alias
	metadata  map[string]string
	sequences map[string]int64
}

// Store is an in-memory store.Store.
type Store struct {
	// writer is held by the open transaction, if any.
	writer sync.Mutex

	mu        sync.RWMutex
	committed *state
}

var _ store.Store = (*Store)(nil)

// New returns a Store holding the given raw brands and products. Brand master
// and alias tables start empty.
func New(rawBrands []brand.RawBrand, products []store.Product) *Store {
	st := &state{
		metadata: make(map[string]string),
		sequences: map[string]int64{
			seqKey(store.RawBrandTable, store.RawBrandIDColumn): 0,
			seqKey(store.MasterTable, store.MasterIDColumn):     0,
			seqKey(store.AliasTable, store.AliasIDColumn):       0,
		},
	}
	st.rawBrands = append(st.rawBrands, rawBrands...)
	for _, p := range products {
		st.products = append(st.products, copyProduct(p))
	}
	for _, rb := range rawBrands {
		key := seqKey(store.RawBrandTable, store.RawBrandIDColumn)
		if rb.ID > st.sequences[key] {
			st.sequences[key] = rb.ID
		}
	}
	return &Store{committed: st}
}

// Load returns a Store seeded with the raw brands and products currently
// visible through r, including their brand master links.
func Load(ctx context.Context, r store.Reader) (*Store, error) {
	rawBrands, err := r.RawBrands(ctx)
	if err != nil {
		return nil, err
	}
	products, err := r.Products(ctx)
	if err != nil {
		return nil, err
	}
	return New(rawBrands, products), nil
}

// Snapshot returns a deep copy of the committed state.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c := s.committed.clone()
	return Snapshot{
		RawBrands: c.rawBrands,
		Products:  c.products,
		Masters:   c.masters,
		Aliases:   c.aliases,
		Metadata:  c.metadata,
	}
}

// Begin blocks until no other transaction is open, then starts one on a copy
// of the committed state.
func (s *Store) Begin(ctx context.Context) (store.Tx, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.writer.Lock()

	s.mu.RLock()
	work := s.committed.clone()
	s.mu.RUnlock()

	return &Tx{state: work, store: s}, nil
}

func (s *Store) RawBrands(ctx context.Context) ([]brand.RawBrand, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.committed.RawBrands(ctx)
}

func (s *Store) Products(ctx context.Context) ([]store.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.committed.Products(ctx)
}

func (s *Store) Masters(ctx context.Context) ([]store.Master, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.committed.Masters(ctx)
}

func (s *Store) Aliases(ctx context.Context) ([]store.AliasRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.committed.Aliases(ctx)
}

func (s *Store) Coverage(ctx context.Context) (store.Coverage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.committed.Coverage(ctx)
}

func (s *Store) Metadata(ctx context.Context) (map[string]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.committed.Metadata(ctx)
}

func (st *state) RawBrands(context.Context) ([]brand.RawBrand, error) {
	return append([]brand.RawBrand(nil), st.rawBrands...), nil
}

func (st *state) Products(context.Context) ([]store.Product, error) {
	out := make([]store.Product, len(st.products))
	for i, p := range st.products {
		out[i] = copyProduct(p)
	}
	return out, nil
}

func (st *state) Masters(context.Context) ([]store.Master, error) {
	out := make([]store.Master, len(st.masters))
	for i, m := range st.masters {
		out[i] = copyMaster(m)
	}
	return out, nil
}

func (st *state) Aliases(context.Context) ([]store.AliasRow, error) {
	names := make(map[int64]string, len(st.masters))
	for _, m := range st.masters {
		names[m.ID] = m.CanonicalName
	}

	out := make([]store.AliasRow, 0, len(st.aliases))
	for _, a := range st.aliases {
		out = append(out, store.AliasRow{Alias: a, CanonicalName: names[a.MasterID]})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].MasterID != out[j].MasterID {
			return out[i].MasterID < out[j].MasterID
		}
		return out[i].Text < out[j].Text
	})
	return out, nil
}

func (st *state) Coverage(context.Context) (store.Coverage, error) {
	c := store.Coverage{Total: int64(len(st.products))}
	for _, p := range st.products {
		if p.BrandMasterID != nil {
			c.Linked++
		}
	}
	return c, nil
}

func (st *state) Metadata(context.Context) (map[string]string, error) {
	out := make(map[string]string, len(st.metadata))
	for k, v := range st.metadata {
		out[k] = v
	}
	return out, nil
}

func (st *state) clone() *state {
	c := &state{
		rawBrands: append([]brand.RawBrand(nil), st.rawBrands...),
		products:  make([]store.Product, len(st.products)),
		masters:   make([]store.Master, len(st.masters)),
		aliases:   append([]store.Alias(nil), st.aliases...),
		metadata:  make(map[string]string, len(st.metadata)),
		sequences: make(map[string]int64, len(st.sequences)),
	}
	for i, p := range st.products {
		c.products[i] = copyProduct(p)
	}
	for i, m := range st.masters {
		c.masters[i] = copyMaster(m)
	}
	for k, v := range st.metadata {
		c.metadata[k] = v
	}
	for k, v := range st.sequences {
		c.sequences[k] = v
	}
	return c
}

func (st *state) next(table, column string) int64 {
	key := seqKey(table, column)
	st.sequences[key]++
	return st.sequences[key]
}

func seqKey(table, column string) string {
	return table + "." + column
}

func copyProduct(p store.Product) store.Product {
	if p.BrandID != nil {
		id := *p.BrandID
		p.BrandID = &id
	}
	if p.BrandMasterID != nil {
		id := *p.BrandMasterID
		p.BrandMasterID = &id
	}
	return p
}

func copyMaster(m store.Master) store.Master {
	if m.ParentName != nil {
		name := *m.ParentName
		m.ParentName = &name
	}
	return m
}
