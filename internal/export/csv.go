//-------------------------------------------------------------------------
//
// pgEdge Brand Master
//
// Copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package export writes brand data as CSV with a header row.
package export

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/pgEdge/pgedge-brandmaster/internal/store"
)

// Data sets that can be exported.
const (
	KindAliases = "aliases"
	KindRaw     = "raw"
)

var (
	rawHeader   = []string{"brand_id", "brand_name"}
	aliasHeader = []string{"brand_master_id", "brand_canonical", "alias_text", "source", "confidence"}
)

// Write exports the data set named by kind and returns the number of data
// rows written.
func Write(ctx context.Context, r store.Reader, kind string, w io.Writer) (int, error) {
	switch kind {
	case KindRaw:
		return RawBrands(ctx, r, w)
	case KindAliases:
		return Aliases(ctx, r, w)
	default:
		return 0, fmt.Errorf("unknown export kind %q", kind)
	}
}

// RawBrands writes every raw brand row.
func RawBrands(ctx context.Context, r store.Reader, w io.Writer) (int, error) {
	raw, err := r.RawBrands(ctx)
	if err != nil {
		return 0, fmt.Errorf("read raw brands: %w", err)
	}

	records := make([][]string, 0, len(raw)+1)
	records = append(records, rawHeader)
	for _, rb := range raw {
		records = append(records, []string{strconv.FormatInt(rb.ID, 10), rb.Text})
	}
	return len(raw), writeAll(w, records)
}

// Aliases writes the alias to canonical brand mapping.
func Aliases(ctx context.Context, r store.Reader, w io.Writer) (int, error) {
	aliases, err := r.Aliases(ctx)
	if err != nil {
		return 0, fmt.Errorf("read brand aliases: %w", err)
	}

	records := make([][]string, 0, len(aliases)+1)
	records = append(records, aliasHeader)
	for _, a := range aliases {
		records = append(records, []string{
			strconv.FormatInt(a.MasterID, 10),
			a.CanonicalName,
			a.Text,
			a.Source,
			strconv.FormatFloat(a.Confidence, 'f', -1, 64),
		})
	}
	return len(aliases), writeAll(w, records)
}

func writeAll(w io.Writer, records [][]string) error {
	if err := csv.NewWriter(w).WriteAll(records); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	return nil
}
