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
	"errors"

	"github.com/spf13/cobra"

	"github.com/pgEdge/pgedge-brandmaster/internal/audit"
	"github.com/pgEdge/pgedge-brandmaster/internal/store"
)

var (
	auditSampleSize int
	auditCoverage   float64
	auditStrict     bool
)

// errAuditFailed is returned by a strict audit with a failed check.
var errAuditFailed = errors.New("brand audit failed")

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Run the brand quality checklist",
	Long: `Check the brand master tables after a resolution run: duplicate
canonical names, a sample of canonical names for casing review, configured
brand families that must stay separate, and the share of products linked to
a brand master. The database is only read.`,
	RunE: runAudit,
}

func init() {
	auditCmd.Flags().IntVar(&auditSampleSize, "sample", -1,
		"number of canonical names to show (default: 10)")
	auditCmd.Flags().Float64Var(&auditCoverage, "coverage-threshold", -1,
		"minimum linked product percentage (default: 95)")
	auditCmd.Flags().BoolVar(&auditStrict, "strict", false,
		"exit with an error when a check fails")
}

func runAudit(cmd *cobra.Command, args []string) error {
	if auditSampleSize >= 0 {
		cfg.Audit.SampleSize = auditSampleSize
	}
	if auditCoverage >= 0 {
		cfg.Audit.CoverageThreshold = auditCoverage
	}
	if err := cfg.ValidateAudit(); err != nil {
		return err
	}

	opts := audit.Options{
		SampleSize:        cfg.Audit.SampleSize,
		CoverageThreshold: cfg.Audit.CoverageThreshold,
	}
	for _, f := range cfg.Audit.Families {
		opts.Families = append(opts.Families, audit.Family{Base: f.Base, Sub: f.Sub})
	}

	ctx := cmd.Context()
	pool, err := connect(ctx)
	if err != nil {
		return err
	}
	defer pool.Close()

	report, err := audit.Run(ctx, store.NewPostgres(pool), opts)
	if err != nil {
		return err
	}
	if err := report.Print(cmd.OutOrStdout()); err != nil {
		return err
	}

	if auditStrict && !report.Passed() {
		return errAuditFailed
	}
	return nil
}
