//-------------------------------------------------------------------------
//
// pgEdge Brand Master
//
// Copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package brand

import (
	"sort"
	"unicode/utf8"
)

const (
	// DefaultThreshold is the minimum Ratio at which two keys merge.
	DefaultThreshold = 90.0

	// DefaultMaxLengthDelta is the largest key length difference (in runes)
	// that is still worth a Ratio comparison.
	DefaultMaxLengthDelta = 3
)

// Options tunes the clustering pass.
type Options struct {
	// Threshold is the minimum similarity (0-100) for a fuzzy merge.
	// Values <= 0 fall back to DefaultThreshold.
	Threshold float64

	// MaxLengthDelta skips the similarity comparison for key pairs whose
	// lengths differ by more than this many runes.
	MaxLengthDelta int

	// GroupEmpty puts raw texts with an empty key into their own group
	// instead of reporting them as unresolved. That group never merges with
	// any other key.
	GroupEmpty bool
}

// DefaultOptions returns the options used by a resolution run.
func DefaultOptions() Options {
	return Options{
		Threshold:      DefaultThreshold,
		MaxLengthDelta: DefaultMaxLengthDelta,
	}
}

// Group is one set of raw brand texts judged to denote the same brand.
type Group struct {
	// Keys are the normalized keys folded into the group, seed key first.
	Keys []string

	// Variants are the distinct raw texts of all keys, sorted.
	Variants []string
}

// Canonical returns the display name selected for the group.
func (g Group) Canonical() string {
	return SelectCanonical(g.Variants)
}

// Result is the outcome of a clustering pass.
type Result struct {
	// Groups holds one entry per future brand master, in key order.
	Groups []Group

	// Unresolved lists raw texts whose key is empty, sorted. It is always
	// empty when Options.GroupEmpty is set.
	Unresolved []string
}

// VariantCount returns the number of raw texts placed in a group.
func (r Result) VariantCount() int {
	n := 0
	for _, g := range r.Groups {
		n += len(g.Variants)
	}
	return n
}

// Cluster partitions raw brand texts into groups of equivalent spellings.
//
// Texts are first grouped by identical normalized key. The distinct keys are
// then visited in lexicographic order; each unvisited key seeds a new group
// and absorbs every later unvisited key whose length is within
// MaxLengthDelta and whose Ratio is at least Threshold. The comparison is
// against the seed only, so the result depends on the visiting order, which
// is why the keys are sorted first.
//
// The pass is quadratic in the number of distinct keys.
func Cluster(texts []string, opts Options) Result {
	if opts.Threshold <= 0 {
		opts.Threshold = DefaultThreshold
	}

	byKey := make(map[string]map[string]struct{})
	for _, text := range texts {
		key := Normalize(text)
		set, ok := byKey[key]
		if !ok {
			set = make(map[string]struct{})
			byKey[key] = set
		}
		set[text] = struct{}{}
	}

	keys := make([]string, 0, len(byKey))
	for key := range byKey {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	lengths := make([]int, len(keys))
	for i, key := range keys {
		lengths[i] = utf8.RuneCountInString(key)
	}

	var result Result
	visited := make([]bool, len(keys))

	for i, seed := range keys {
		if visited[i] {
			continue
		}
		visited[i] = true

		if seed == "" {
			variants := sortedSet(byKey[seed])
			if opts.GroupEmpty {
				result.Groups = append(result.Groups, Group{
					Keys:     []string{seed},
					Variants: variants,
				})
			} else {
				result.Unresolved = variants
			}
			continue
		}

		members := []string{seed}
		for j := i + 1; j < len(keys); j++ {
			if visited[j] || keys[j] == "" {
				continue
			}
			if abs(lengths[i]-lengths[j]) > opts.MaxLengthDelta {
				continue
			}
			if Ratio(seed, keys[j]) >= opts.Threshold {
				members = append(members, keys[j])
				visited[j] = true
			}
		}

		variants := make(map[string]struct{})
		for _, key := range members {
			for text := range byKey[key] {
				variants[text] = struct{}{}
			}
		}

		result.Groups = append(result.Groups, Group{
			Keys:     members,
			Variants: sortedSet(variants),
		})
	}

	return result
}

func sortedSet(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for s := range set {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
