//-------------------------------------------------------------------------
//
// pgEdge Brand Master
//
// Copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package audit implements the read-only quality checklist run after brand
// resolution. Failed checks are reported as data; only store errors are
// returned as errors.
package audit

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/pgEdge/pgedge-brandmaster/internal/brand"
	"github.com/pgEdge/pgedge-brandmaster/internal/store"
)

// Status is the outcome of one check.
type Status string

// Check outcomes. Warn never fails the checklist.
const (
	Pass Status = "PASS"
	Fail Status = "FAIL"
	Warn Status = "WARNING"
)

// maxDuplicatesShown bounds the duplicate keys printed.
const maxDuplicatesShown = 5

// Family is a base brand and a sub-brand expected to stay separate masters.
type Family struct {
	Base string
	Sub  string
}

// Options configures the checklist.
type Options struct {
	// SampleSize is the number of canonical names shown for casing review.
	SampleSize int

	// CoverageThreshold is the minimum linked product percentage.
	CoverageThreshold float64

	Families []Family
}

// DuplicateGroup is a normalized key shared by several canonical names.
type DuplicateGroup struct {
	Key   string
	Names []string
}

// DuplicateCheck fails when two masters normalize to the same key.
type DuplicateCheck struct {
	Status     Status
	Duplicates []DuplicateGroup
}

// FamilyCheck warns when either form of a family is missing.
type FamilyCheck struct {
	Family
	Status Status

	// Found lists canonical names containing the base name, ignoring case.
	Found []string
}

// CoverageCheck fails when too few products are linked to a master.
type CoverageCheck struct {
	store.Coverage
	Percent   float64
	Threshold float64
	Status    Status
}

// Report is the checklist outcome.
type Report struct {
	Masters    int
	Duplicates DuplicateCheck
	Sample     []string
	Families   []FamilyCheck
	Coverage   CoverageCheck
}

// Passed reports whether every pass/fail check passed.
func (r *Report) Passed() bool {
	return r.Duplicates.Status == Pass && r.Coverage.Status == Pass
}

// Run audits the brand master tables visible through r.
func Run(ctx context.Context, r store.Reader, opts Options) (*Report, error) {
	masters, err := r.Masters(ctx)
	if err != nil {
		return nil, fmt.Errorf("read brand masters: %w", err)
	}
	coverage, err := r.Coverage(ctx)
	if err != nil {
		return nil, fmt.Errorf("read product coverage: %w", err)
	}

	names := make([]string, len(masters))
	for i, m := range masters {
		names[i] = m.CanonicalName
	}

	report := &Report{
		Masters:    len(masters),
		Duplicates: checkDuplicates(names),
		Coverage:   checkCoverage(coverage, opts.CoverageThreshold),
	}

	n := min(max(opts.SampleSize, 0), len(names))
	report.Sample = append([]string(nil), names[:n]...)

	for _, f := range opts.Families {
		report.Families = append(report.Families, checkFamily(names, f))
	}

	return report, nil
}

func checkDuplicates(names []string) DuplicateCheck {
	byKey := make(map[string][]string)
	for _, name := range names {
		key := brand.Normalize(name)
		byKey[key] = append(byKey[key], name)
	}

	check := DuplicateCheck{Status: Pass}
	for key, group := range byKey {
		if len(group) > 1 {
			check.Duplicates = append(check.Duplicates, DuplicateGroup{Key: key, Names: group})
		}
	}
	if len(check.Duplicates) > 0 {
		check.Status = Fail
		sort.Slice(check.Duplicates, func(i, j int) bool {
			return check.Duplicates[i].Key < check.Duplicates[j].Key
		})
	}
	return check
}

func checkFamily(names []string, f Family) FamilyCheck {
	check := FamilyCheck{Family: f, Status: Warn}

	base := strings.ToUpper(f.Base)
	var hasBase, hasSub bool
	for _, name := range names {
		if strings.Contains(strings.ToUpper(name), base) {
			check.Found = append(check.Found, name)
		}
		hasBase = hasBase || name == f.Base
		hasSub = hasSub || name == f.Sub
	}
	if hasBase && hasSub {
		check.Status = Pass
	}
	return check
}

func checkCoverage(c store.Coverage, threshold float64) CoverageCheck {
	check := CoverageCheck{
		Coverage:  c,
		Percent:   c.Percent(),
		Threshold: threshold,
		Status:    Fail,
	}
	if check.Percent >= threshold {
		check.Status = Pass
	}
	return check
}

// Print writes the checklist in human-readable form.
func (r *Report) Print(w io.Writer) error {
	var b strings.Builder

	b.WriteString("--- BRAND MASTER QUALITY CHECKLIST ---\n\n")

	fmt.Fprintf(&b, "1. Normalized duplicates among %d brand masters\n", r.Masters)
	if r.Duplicates.Status == Pass {
		fmt.Fprintf(&b, "[%s] No normalized duplicates found.\n", Pass)
	} else {
		fmt.Fprintf(&b, "[%s] Found %d duplicate keys.\n", Fail, len(r.Duplicates.Duplicates))
		for i, d := range r.Duplicates.Duplicates {
			if i == maxDuplicatesShown {
				fmt.Fprintf(&b, "   ... and %d more\n", len(r.Duplicates.Duplicates)-i)
				break
			}
			fmt.Fprintf(&b, "   %q: %q\n", d.Key, d.Names)
		}
	}

	fmt.Fprintf(&b, "\n2. Sample canonical names (check casing)\n")
	fmt.Fprintf(&b, "   %q\n", r.Sample)

	fmt.Fprintf(&b, "\n3. Brand family checks\n")
	if len(r.Families) == 0 {
		b.WriteString("   No families configured.\n")
	}
	for _, f := range r.Families {
		fmt.Fprintf(&b, "   %s variations: %q\n", f.Base, f.Found)
		if f.Status == Pass {
			fmt.Fprintf(&b, "[%s] %s and %s are distinct.\n", Pass, f.Base, f.Sub)
		} else {
			fmt.Fprintf(&b, "[%s] %s/%s distinction might be missing.\n", Warn, f.Base, f.Sub)
		}
	}

	c := r.Coverage
	fmt.Fprintf(&b, "\n4. Product coverage\n")
	fmt.Fprintf(&b, "   Coverage: %.2f%% (%d/%d)\n", c.Percent, c.Linked, c.Total)
	if c.Status == Pass {
		fmt.Fprintf(&b, "[%s] Coverage >= %g%%\n", Pass, c.Threshold)
	} else {
		fmt.Fprintf(&b, "[%s] Coverage < %g%%\n", Fail, c.Threshold)
	}

	_, err := io.WriteString(w, b.String())
	return err
}
