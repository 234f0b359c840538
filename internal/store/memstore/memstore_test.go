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
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/pgEdge/pgedge-brandmaster/internal/brand"
	"github.com/pgEdge/pgedge-brandmaster/internal/store"
)

func ptr(id int64) *int64 { return &id }

func newTestStore() *Store {
	return New(
		[]brand.RawBrand{
			{ID: 1, Text: "Nike"},
			{ID: 2, Text: "NIKE"},
			{ID: 3, Text: "Adidas"},
		},
		[]store.Product{
			{ID: 10, Name: "Nike Air", BrandID: ptr(1)},
			{ID: 11, Name: "NIKE Dunk", BrandID: ptr(2)},
			{ID: 12, Name: "Adidas Samba", BrandID: ptr(3)},
			{ID: 13, Name: "Plain Tee"},
		},
	)
}

func TestCommitPublishesWrites(t *testing.T) {
	ctx := context.Background()
	s := newTestStore()

	tx, err := s.Begin(ctx)
	if err != nil {
		t.Fatalf("Begin failed: %v", err)
	}
	if err := tx.InsertMasters(ctx, []string{"NIKE", "Adidas"}); err != nil {
		t.Fatalf("InsertMasters failed: %v", err)
	}

	// Uncommitted writes are invisible to store readers
	masters, _ := s.Masters(ctx)
	if len(masters) != 0 {
		t.Errorf("Expected no committed masters before Commit, got %d", len(masters))
	}

	if err := tx.Commit(ctx); err != nil {
		t.Fatalf("Commit failed: %v", err)
	}

	masters, _ = s.Masters(ctx)
	if len(masters) != 2 {
		t.Fatalf("Expected 2 masters after Commit, got %d", len(masters))
	}
	if masters[0].ID != 1 || masters[0].CanonicalName != "NIKE" || !masters[0].Active {
		t.Errorf("Unexpected first master: %+v", masters[0])
	}
}

func TestRollbackDiscardsWrites(t *testing.T) {
	ctx := context.Background()
	s := newTestStore()
	before := s.Snapshot()

	tx, err := s.Begin(ctx)
	if err != nil {
		t.Fatalf("Begin failed: %v", err)
	}
	if _, err := tx.ClearProductMasters(ctx); err != nil {
		t.Fatal(err)
	}
	if err := tx.ClearProductBrands(ctx); err != nil {
		t.Fatal(err)
	}
	if err := tx.InsertMasters(ctx, []string{"NIKE"}); err != nil {
		t.Fatal(err)
	}
	if err := tx.Rollback(ctx); err != nil {
		t.Fatalf("Rollback failed: %v", err)
	}

	if after := s.Snapshot(); !reflect.DeepEqual(before, after) {
		t.Errorf("Rollback changed committed state:\nbefore %+v\nafter  %+v", before, after)
	}

	// A second Rollback is a no-op and the store accepts a new transaction
	if err := tx.Rollback(ctx); err != nil {
		t.Errorf("Expected repeated Rollback to be a no-op, got %v", err)
	}
	tx2, err := s.Begin(ctx)
	if err != nil {
		t.Fatalf("Begin after Rollback failed: %v", err)
	}
	_ = tx2.Rollback(ctx)
}

func TestUniqueViolationAbortsTransaction(t *testing.T) {
	ctx := context.Background()
	s := newTestStore()

	tx, _ := s.Begin(ctx)
	defer func() { _ = tx.Rollback(ctx) }()

	err := tx.InsertMasters(ctx, []string{"NIKE", "NIKE"})
	if !errors.Is(err, store.ErrUniqueViolation) {
		t.Fatalf("Expected ErrUniqueViolation, got %v", err)
	}

	if _, err := tx.MasterIDs(ctx); !errors.Is(err, ErrTxAborted) {
		t.Errorf("Expected ErrTxAborted after failed write, got %v", err)
	}
	if err := tx.Commit(ctx); !errors.Is(err, ErrTxAborted) {
		t.Errorf("Expected Commit of aborted transaction to fail, got %v", err)
	}
	if masters, _ := s.Masters(ctx); len(masters) != 0 {
		t.Errorf("Expected aborted transaction to leave no masters, got %d", len(masters))
	}
}

func TestAliasConstraints(t *testing.T) {
	ctx := context.Background()

	t.Run("duplicate alias text", func(t *testing.T) {
		s := newTestStore()
		tx, _ := s.Begin(ctx)
		defer func() { _ = tx.Rollback(ctx) }()

		_ = tx.InsertMasters(ctx, []string{"NIKE"})
		err := tx.InsertAliases(ctx, []store.Alias{
			{MasterID: 1, Text: "Nike"},
			{MasterID: 1, Text: "Nike"},
		})
		if !errors.Is(err, store.ErrUniqueViolation) {
			t.Errorf("Expected ErrUniqueViolation, got %v", err)
		}
	})

	t.Run("missing master", func(t *testing.T) {
		s := newTestStore()
		tx, _ := s.Begin(ctx)
		defer func() { _ = tx.Rollback(ctx) }()

		err := tx.InsertAliases(ctx, []store.Alias{{MasterID: 42, Text: "Nike"}})
		if !errors.Is(err, store.ErrForeignKeyViolation) {
			t.Errorf("Expected ErrForeignKeyViolation, got %v", err)
		}
	})

	t.Run("delete referenced master", func(t *testing.T) {
		s := newTestStore()
		tx, _ := s.Begin(ctx)
		defer func() { _ = tx.Rollback(ctx) }()

		_ = tx.InsertMasters(ctx, []string{"NIKE"})
		_ = tx.InsertAliases(ctx, []store.Alias{{MasterID: 1, Text: "Nike"}})
		if err := tx.DeleteMasters(ctx); !errors.Is(err, store.ErrForeignKeyViolation) {
			t.Errorf("Expected ErrForeignKeyViolation, got %v", err)
		}
	})
}

func TestLinkProducts(t *testing.T) {
	ctx := context.Background()
	s := newTestStore()

	err := store.WithTx(ctx, s, func(tx store.Tx) error {
		if err := tx.InsertMasters(ctx, []string{"NIKE", "Adidas"}); err != nil {
			return err
		}
		ids, err := tx.MasterIDs(ctx)
		if err != nil {
			return err
		}
		linked, err := tx.LinkProducts(ctx, map[string]int64{
			"Nike": ids["NIKE"],
			"NIKE": ids["NIKE"],
		})
		if err != nil {
			return err
		}
		if linked != 2 {
			t.Errorf("Expected 2 linked products, got %d", linked)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("WithTx failed: %v", err)
	}

	products, _ := s.Products(ctx)
	for _, p := range products {
		switch p.ID {
		case 10, 11:
			if p.BrandMasterID == nil || *p.BrandMasterID != 1 {
				t.Errorf("product %d: expected master 1, got %v", p.ID, p.BrandMasterID)
			}
		default:
			if p.BrandMasterID != nil {
				t.Errorf("product %d: expected no master, got %d", p.ID, *p.BrandMasterID)
			}
		}
	}

	cov, _ := s.Coverage(ctx)
	if cov.Linked != 2 || cov.Total != 4 {
		t.Errorf("Expected coverage 2/4, got %d/%d", cov.Linked, cov.Total)
	}
}

func TestResetSequence(t *testing.T) {
	ctx := context.Background()
	s := newTestStore()

	tx, _ := s.Begin(ctx)
	defer func() { _ = tx.Rollback(ctx) }()

	_ = tx.InsertMasters(ctx, []string{"A", "B"})
	if err := tx.DeleteMasters(ctx); err != nil {
		t.Fatal(err)
	}
	if err := tx.ResetSequence(ctx, store.MasterTable, store.MasterIDColumn); err != nil {
		t.Fatalf("ResetSequence failed: %v", err)
	}
	_ = tx.InsertMasters(ctx, []string{"C"})
	ids, _ := tx.MasterIDs(ctx)
	if ids["C"] != 1 {
		t.Errorf("Expected id 1 after reset, got %d", ids["C"])
	}

	// Unknown sequence fails without aborting the transaction
	if err := tx.ResetSequence(ctx, "brand_master", "no_such_column"); err == nil {
		t.Error("Expected error for unknown sequence")
	}
	if _, err := tx.MasterIDs(ctx); err != nil {
		t.Errorf("Expected transaction to stay usable, got %v", err)
	}
}

func TestRawBrandRebuild(t *testing.T) {
	ctx := context.Background()
	s := newTestStore()

	err := store.WithTx(ctx, s, func(tx store.Tx) error {
		if err := tx.DeleteRawBrands(ctx); !errors.Is(err, store.ErrForeignKeyViolation) {
			t.Errorf("Expected ErrForeignKeyViolation while products reference brands, got %v", err)
		}
		return errors.New("stop")
	})
	if err == nil {
		t.Fatal("Expected WithTx to return the callback error")
	}

	err = store.WithTx(ctx, s, func(tx store.Tx) error {
		if err := tx.ClearProductBrands(ctx); err != nil {
			return err
		}
		if err := tx.DeleteRawBrands(ctx); err != nil {
			return err
		}
		if err := tx.ResetSequence(ctx, store.RawBrandTable, store.RawBrandIDColumn); err != nil {
			return err
		}
		if err := tx.InsertRawBrands(ctx, []string{"Nike", "Adidas"}); err != nil {
			return err
		}
		ids, err := tx.RawBrandIDs(ctx)
		if err != nil {
			return err
		}
		_, err = tx.AssignProductBrands(ctx, map[int64]int64{10: ids["Nike"], 11: ids["Nike"]})
		return err
	})
	if err != nil {
		t.Fatalf("rebuild failed: %v", err)
	}

	raw, _ := s.RawBrands(ctx)
	want := []brand.RawBrand{{ID: 1, Text: "Nike"}, {ID: 2, Text: "Adidas"}}
	if !reflect.DeepEqual(raw, want) {
		t.Errorf("RawBrands = %+v, want %+v", raw, want)
	}
}

func TestBeginSerializesTransactions(t *testing.T) {
	ctx := context.Background()
	s := newTestStore()

	tx, _ := s.Begin(ctx)

	started := make(chan struct{})
	go func() {
		tx2, err := s.Begin(ctx)
		if err == nil {
			_ = tx2.Rollback(ctx)
		}
		close(started)
	}()

	select {
	case <-started:
		t.Fatal("second Begin returned while the first transaction was open")
	case <-time.After(50 * time.Millisecond):
	}

	_ = tx.Commit(ctx)

	select {
	case <-started:
	case <-time.After(time.Second):
		t.Fatal("second Begin did not proceed after Commit")
	}
}
