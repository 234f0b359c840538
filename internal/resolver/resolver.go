//-------------------------------------------------------------------------
//
// pgEdge Brand Master
//
// Copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package resolver runs brand identity resolution against a store: raw
// brand texts are clustered into canonical brands, the brand master and alias
// tables are rebuilt, and products are relinked, all in one transaction.
package resolver

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"

	"github.com/pgEdge/pgedge-brandmaster/internal/brand"
	"github.com/pgEdge/pgedge-brandmaster/internal/logging"
	"github.com/pgEdge/pgedge-brandmaster/internal/store"
	"github.com/pgEdge/pgedge-brandmaster/internal/store/memstore"
	"github.com/pgEdge/pgedge-brandmaster/pkg/version"
)

// Options configures a resolution run.
type Options struct {
	// Cluster tunes the similarity pass.
	Cluster brand.Options

	// Source is recorded on each alias row.
	Source string

	// DryRun resolves against an in-memory copy of the store's raw brands
	// and products. Nothing is written to the store.
	DryRun bool
}

// Report summarizes a resolution run.
type Report struct {
	RunID  string
	DryRun bool

	// RawBrands is the number of raw brand rows read.
	RawBrands int

	// DistinctTexts is the number of distinct raw brand texts.
	DistinctTexts int

	// Clusters is the number of groups formed, one per master.
	Clusters int

	WriteStats

	// Unresolved lists raw texts that normalize to an empty key. Their
	// products keep a null brand master.
	Unresolved []string

	Duration time.Duration
}

// Resolve reads the raw brands, clusters them, and rebuilds the brand master
// tables inside a single transaction on s. Any failure rolls the transaction
// back and is returned; the store then holds exactly what it held before.
// An empty raw brand table is not an error and changes nothing.
func Resolve(ctx context.Context, s store.Store, opts Options) (*Report, error) {
	start := time.Now()
	report := &Report{
		RunID:  uuid.NewString(),
		DryRun: opts.DryRun,
	}
	log := logging.WithRun(report.RunID)

	target := s
	if opts.DryRun {
		mem, err := memstore.Load(ctx, s)
		if err != nil {
			return nil, fmt.Errorf("snapshot catalog for dry run: %w", err)
		}
		target = mem
		log.Info().Msg("Dry run, changes are computed in memory only")
	}

	err := store.WithTx(ctx, target, func(tx store.Tx) error {
		raw, err := tx.RawBrands(ctx)
		if err != nil {
			return fmt.Errorf("read raw brands: %w", err)
		}
		report.RawBrands = len(raw)

		if len(raw) == 0 {
			log.Warn().Msg("No raw brands found, nothing to resolve")
			return nil
		}

		texts := make([]string, len(raw))
		distinct := make(map[string]struct{}, len(raw))
		for i, rb := range raw {
			texts[i] = rb.Text
			distinct[rb.Text] = struct{}{}
		}
		report.DistinctTexts = len(distinct)

		result := brand.Cluster(texts, opts.Cluster)
		report.Clusters = len(result.Groups)
		report.Unresolved = result.Unresolved

		log.Info().
			Int("raw_brands", report.RawBrands).
			Int("distinct", report.DistinctTexts).
			Int("clusters", report.Clusters).
			Int("unresolved", len(result.Unresolved)).
			Msg("Clustered raw brands")

		stats, err := Writer{Source: opts.Source}.Write(ctx, tx, result.Groups)
		if err != nil {
			return err
		}
		report.WriteStats = stats

		if err := tx.SaveMetadata(ctx, runMetadata(report, opts)); err != nil {
			return fmt.Errorf("record run metadata: %w", err)
		}
		return nil
	})
	if err != nil {
		log.Error().Err(err).Msg("Resolution run failed, changes rolled back")
		return nil, err
	}

	report.Duration = time.Since(start)

	log.Info().
		Int("masters", report.Masters).
		Int("aliases", report.Aliases).
		Int64("products_linked", report.ProductsLinked).
		Dur("duration", report.Duration).
		Bool("dry_run", report.DryRun).
		Msg("Resolution run complete")

	return report, nil
}

func runMetadata(r *Report, opts Options) map[string]string {
	values := map[string]string{
		"run_id":           r.RunID,
		"resolved_at":      time.Now().UTC().Format(time.RFC3339),
		"threshold":        strconv.FormatFloat(opts.Cluster.Threshold, 'f', -1, 64),
		"max_length_delta": strconv.Itoa(opts.Cluster.MaxLengthDelta),
		"raw_brands":       strconv.Itoa(r.RawBrands),
		"masters":          strconv.Itoa(r.Masters),
		"aliases":          strconv.Itoa(r.Aliases),
		"products_linked":  strconv.FormatInt(r.ProductsLinked, 10),
		"unresolved":       strconv.Itoa(len(r.Unresolved)),
	}
	for k, v := range version.Stamp() {
		values[k] = v
	}
	return values
}

// Print writes the report in human-readable form.
func (r *Report) Print(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	title := "Brand resolution"
	if r.DryRun {
		title += " (dry run, nothing written)"
	}
	fmt.Fprintf(tw, "%s\n", title)
	fmt.Fprintf(tw, "  Run ID:\t%s\n", r.RunID)
	fmt.Fprintf(tw, "  Raw brands processed:\t%d\n", r.RawBrands)
	fmt.Fprintf(tw, "  Distinct brand texts:\t%d\n", r.DistinctTexts)
	fmt.Fprintf(tw, "  Clusters formed:\t%d\n", r.Clusters)
	fmt.Fprintf(tw, "  Brand masters:\t%d\n", r.Masters)
	fmt.Fprintf(tw, "  Brand aliases:\t%d\n", r.Aliases)
	fmt.Fprintf(tw, "  Products cleared:\t%d\n", r.ProductsCleared)
	fmt.Fprintf(tw, "  Products linked:\t%d\n", r.ProductsLinked)
	fmt.Fprintf(tw, "  Unresolved texts:\t%d\n", len(r.Unresolved))
	for _, u := range r.Unresolved {
		fmt.Fprintf(tw, "    %q\n", u)
	}
	fmt.Fprintf(tw, "  Duration:\t%s\n", r.Duration.Round(time.Millisecond))

	return tw.Flush()
}
