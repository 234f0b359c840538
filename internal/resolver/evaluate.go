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
	"io"
	"sort"

	"github.com/pgEdge/pgedge-brandmaster/internal/brand"
	"github.com/pgEdge/pgedge-brandmaster/internal/logging"
	"github.com/pgEdge/pgedge-brandmaster/internal/store"
)

// EvaluateOptions configures a dry evaluation.
type EvaluateOptions struct {
	Cluster brand.Options

	// CandidateCap is the number of keys fuzzy-compared once the number of
	// distinct keys exceeds CapTrigger. Zero disables the cap.
	CandidateCap int
	CapTrigger   int
}

// Collision is a normalized key shared by more than one raw brand row.
type Collision struct {
	Key      string
	Rows     int
	Variants []string
}

// Evaluation describes what a resolution run would merge, without writing.
type Evaluation struct {
	RawBrands        int
	UniqueRaw        int
	UniqueNormalized int

	// Collisions are sorted by row count, largest first.
	Collisions []Collision

	// FuzzyClusters are groups that merge more than one normalized key.
	FuzzyClusters []brand.Group

	// Capped is set when only the first Compared keys were fuzzy-compared.
	Capped   bool
	Compared int

	// Masters is the number of brand masters a resolution run would create.
	// It is an upper bound when Capped.
	Masters int

	// UnresolvedRows counts raw brand rows with an empty normalized key.
	UnresolvedRows int
}

// PotentialReduction is the number of raw spellings removed by exact
// normalization alone.
func (e *Evaluation) PotentialReduction() int {
	return e.UniqueRaw - e.UniqueNormalized
}

// Evaluate analyzes the raw brands visible through r.
func Evaluate(ctx context.Context, r store.Reader, opts EvaluateOptions) (*Evaluation, error) {
	raw, err := r.RawBrands(ctx)
	if err != nil {
		return nil, fmt.Errorf("read raw brands: %w", err)
	}

	ev := &Evaluation{RawBrands: len(raw)}

	rows := make(map[string]int)
	variants := make(map[string]map[string]struct{})
	uniqueRaw := make(map[string]struct{})
	for _, rb := range raw {
		key := brand.Normalize(rb.Text)
		rows[key]++
		if variants[key] == nil {
			variants[key] = make(map[string]struct{})
		}
		variants[key][rb.Text] = struct{}{}
		uniqueRaw[rb.Text] = struct{}{}
	}
	ev.UniqueRaw = len(uniqueRaw)
	ev.UniqueNormalized = len(rows)
	ev.UnresolvedRows = rows[""]

	keys := make([]string, 0, len(rows))
	for key, n := range rows {
		if n > 1 {
			ev.Collisions = append(ev.Collisions, Collision{
				Key:      key,
				Rows:     n,
				Variants: sortedKeys(variants[key]),
			})
		}
		if key != "" {
			keys = append(keys, key)
		}
	}
	sort.Slice(ev.Collisions, func(i, j int) bool {
		if ev.Collisions[i].Rows != ev.Collisions[j].Rows {
			return ev.Collisions[i].Rows > ev.Collisions[j].Rows
		}
		return ev.Collisions[i].Key < ev.Collisions[j].Key
	})
	sort.Strings(keys)

	candidates := keys
	if opts.CandidateCap > 0 && len(keys) > opts.CapTrigger && len(keys) > opts.CandidateCap {
		candidates = keys[:opts.CandidateCap]
		ev.Capped = true
		logging.Warn().
			Int("keys", len(keys)).
			Int("compared", opts.CandidateCap).
			Msg("Large number of brands, fuzzy comparison limited to a prefix of the keys")
	}
	ev.Compared = len(candidates)

	var texts []string
	for _, key := range candidates {
		for text := range variants[key] {
			texts = append(texts, text)
		}
	}

	clusterOpts := opts.Cluster
	clusterOpts.GroupEmpty = false
	result := brand.Cluster(texts, clusterOpts)
	for _, g := range result.Groups {
		if len(g.Keys) > 1 {
			ev.FuzzyClusters = append(ev.FuzzyClusters, g)
		}
	}

	ev.Masters = len(result.Groups) + len(keys) - len(candidates)
	if opts.Cluster.GroupEmpty && ev.UnresolvedRows > 0 {
		ev.Masters++
	}

	return ev, nil
}

// Print writes the evaluation, showing at most limit entries per section.
func (e *Evaluation) Print(w io.Writer, limit int) error {
	p := &printer{w: w}

	p.printf("Total raw brand rows: %d\n", e.RawBrands)

	p.printf("\n--- Normalized duplicates (exact merges) ---\n")
	if len(e.Collisions) == 0 {
		p.printf("No normalized duplicates found.\n")
	} else {
		p.printf("Found %d normalized collision groups.\n", len(e.Collisions))
		for _, c := range head(e.Collisions, limit) {
			p.printf("- %q (%d): %q\n", c.Key, c.Rows, c.Variants)
		}
	}

	p.printf("\n--- Fuzzy duplicates (similarity merges) ---\n")
	if e.Capped {
		p.printf("Warning: only the first %d keys were compared.\n", e.Compared)
	}
	if len(e.FuzzyClusters) == 0 {
		p.printf("No fuzzy duplicates found.\n")
	} else {
		p.printf("Found %d fuzzy clusters.\n", len(e.FuzzyClusters))
		for _, g := range head(e.FuzzyClusters, limit) {
			p.printf("- %q: %q -> %q\n", g.Keys, g.Variants, g.Canonical())
		}
	}

	p.printf("\n--- Summary ---\n")
	p.printf("Unique raw brands:        %d\n", e.UniqueRaw)
	p.printf("Unique normalized brands: %d\n", e.UniqueNormalized)
	p.printf("Potential reduction:      %d\n", e.PotentialReduction())
	p.printf("Brand masters to create:  %d\n", e.Masters)
	p.printf("Rows without a brand key: %d\n", e.UnresolvedRows)

	return p.err
}

// printer remembers the first write error.
type printer struct {
	w   io.Writer
	err error
}

func (p *printer) printf(format string, args ...any) {
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprintf(p.w, format, args...)
}

func head[T any](items []T, limit int) []T {
	if limit > 0 && len(items) > limit {
		return items[:limit]
	}
	return items
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for s := range set {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}
