//-------------------------------------------------------------------------
//
// pgEdge Brand Master
//
// Copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package cli

import (
	"github.com/spf13/cobra"

	"github.com/pgEdge/pgedge-brandmaster/internal/brand"
	"github.com/pgEdge/pgedge-brandmaster/internal/logging"
	"github.com/pgEdge/pgedge-brandmaster/internal/resolver"
	"github.com/pgEdge/pgedge-brandmaster/internal/store"
)

var (
	resolveThreshold  float64
	resolveMaxDelta   int
	resolveSource     string
	resolveGroupEmpty bool
	resolveDryRun     bool

	evaluateLimit int
)

var resolveCmd = &cobra.Command{
	Use:   "resolve",
	Short: "Rebuild brand masters and aliases from raw brands",
	Long: `Cluster the raw brand names in dim_brand, create one brand master per
cluster with every raw spelling as an alias, and link each product to the
master of its raw brand. Existing masters, aliases and product links are
replaced. The whole rebuild runs in a single transaction; on any error
nothing is changed.

Example:
  pgedge-brandmaster resolve --dry-run
  pgedge-brandmaster resolve --threshold 92`,
	RunE: runResolve,
}

var evaluateCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "Preview what a resolution run would merge",
	Long: `Analyze the raw brand names without writing anything: list the
normalized keys shared by several spellings, the fuzzy clusters that merge
different keys, and the number of brand masters a resolution run would
create.`,
	RunE: runEvaluate,
}

func init() {
	for _, c := range []*cobra.Command{resolveCmd, evaluateCmd} {
		c.Flags().Float64Var(&resolveThreshold, "threshold", 0,
			"similarity threshold in (0, 100] (default: 90)")
		c.Flags().IntVar(&resolveMaxDelta, "max-length-delta", -1,
			"maximum key length difference compared (default: 3)")
		c.Flags().BoolVar(&resolveGroupEmpty, "group-empty", false,
			"give brands that normalize to nothing their own master")
	}

	resolveCmd.Flags().StringVar(&resolveSource, "source", "",
		"source label recorded on each alias (default: dim_brand)")
	resolveCmd.Flags().BoolVar(&resolveDryRun, "dry-run", false,
		"compute the result in memory without writing")

	evaluateCmd.Flags().IntVar(&evaluateLimit, "limit", -1,
		"number of collisions and clusters shown, 0 for all (default: 10)")
}

// applyResolveFlags overrides the resolve config with any flags given.
func applyResolveFlags() {
	if resolveThreshold > 0 {
		cfg.Resolve.Threshold = resolveThreshold
	}
	if resolveMaxDelta >= 0 {
		cfg.Resolve.MaxLengthDelta = resolveMaxDelta
	}
	if resolveSource != "" {
		cfg.Resolve.Source = resolveSource
	}
	if resolveGroupEmpty {
		cfg.Resolve.GroupEmpty = true
	}
	if resolveDryRun {
		cfg.Resolve.DryRun = true
	}
}

func clusterOptions() brand.Options {
	return brand.Options{
		Threshold:      cfg.Resolve.Threshold,
		MaxLengthDelta: cfg.Resolve.MaxLengthDelta,
		GroupEmpty:     cfg.Resolve.GroupEmpty,
	}
}

func runResolve(cmd *cobra.Command, args []string) error {
	applyResolveFlags()
	if err := cfg.ValidateResolve(); err != nil {
		return err
	}

	logging.Info().
		Float64("threshold", cfg.Resolve.Threshold).
		Int("max_length_delta", cfg.Resolve.MaxLengthDelta).
		Bool("dry_run", cfg.Resolve.DryRun).
		Msg("Resolving brands")

	ctx := cmd.Context()
	pool, err := connect(ctx)
	if err != nil {
		return err
	}
	defer pool.Close()

	report, err := resolver.Resolve(ctx, store.NewPostgres(pool), resolver.Options{
		Cluster: clusterOptions(),
		Source:  cfg.Resolve.Source,
		DryRun:  cfg.Resolve.DryRun,
	})
	if err != nil {
		return err
	}

	return report.Print(cmd.OutOrStdout())
}

func runEvaluate(cmd *cobra.Command, args []string) error {
	applyResolveFlags()
	if evaluateLimit >= 0 {
		cfg.Evaluate.ReportLimit = evaluateLimit
	}
	if err := cfg.ValidateResolve(); err != nil {
		return err
	}
	if err := cfg.ValidateEvaluate(); err != nil {
		return err
	}

	ctx := cmd.Context()
	pool, err := connect(ctx)
	if err != nil {
		return err
	}
	defer pool.Close()

	ev, err := resolver.Evaluate(ctx, store.NewPostgres(pool), resolver.EvaluateOptions{
		Cluster:      clusterOptions(),
		CandidateCap: cfg.Evaluate.CandidateCap,
		CapTrigger:   cfg.Evaluate.CapTrigger,
	})
	if err != nil {
		return err
	}

	return ev.Print(cmd.OutOrStdout(), cfg.Evaluate.ReportLimit)
}
