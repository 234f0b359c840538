//-------------------------------------------------------------------------
//
// pgEdge Brand Master
//
// Copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package brand implements brand identity resolution over free-text brand
// strings: normalization to comparison keys, fuzzy clustering of those keys,
// selection of a canonical display name per cluster, and the heuristic used to
// pull a brand out of a product name.
//
// Everything in this package is pure and deterministic; persistence lives in
// the store and resolver packages.
package brand

// RawBrand is a brand string as observed on the raw brand table.
type RawBrand struct {
	// ID is the surrogate key of the raw brand row.
	ID int64

	// Text is the brand name exactly as stored, not normalized.
	Text string
}
