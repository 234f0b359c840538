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
	"bytes"
	"strings"
	"testing"

	"github.com/pgEdge/pgedge-brandmaster/internal/config"
	"github.com/pgEdge/pgedge-brandmaster/internal/store"
	"github.com/pgEdge/pgedge-brandmaster/pkg/version"
)

func TestVersionCommand(t *testing.T) {
	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetErr(&buf)
	rootCmd.SetArgs([]string{"version"})
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})

	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("version failed: %v", err)
	}
	if !strings.Contains(buf.String(), version.Name+" "+version.Version) {
		t.Errorf("unexpected version output %q", buf.String())
	}
}

func TestSubcommandsRegistered(t *testing.T) {
	want := []string{"version", "init", "schema", "extract", "evaluate", "resolve", "audit", "export", "status"}
	for _, name := range want {
		cmd, _, err := rootCmd.Find([]string{name})
		if err != nil || cmd.Name() != name {
			t.Errorf("subcommand %q not registered", name)
		}
	}
}

func TestApplyResolveFlags(t *testing.T) {
	cfg = config.DefaultConfig()
	t.Cleanup(func() {
		resolveThreshold, resolveMaxDelta, resolveSource = 0, -1, ""
		resolveGroupEmpty, resolveDryRun = false, false
	})

	// Unset flags keep the configured values.
	resolveThreshold, resolveMaxDelta = 0, -1
	applyResolveFlags()
	if cfg.Resolve.Threshold != 90 || cfg.Resolve.MaxLengthDelta != 3 {
		t.Errorf("defaults overridden: %+v", cfg.Resolve)
	}

	resolveThreshold, resolveMaxDelta, resolveSource = 85, 0, "feed"
	resolveGroupEmpty, resolveDryRun = true, true
	applyResolveFlags()

	opts := clusterOptions()
	if opts.Threshold != 85 || opts.MaxLengthDelta != 0 || !opts.GroupEmpty {
		t.Errorf("unexpected cluster options %+v", opts)
	}
	if cfg.Resolve.Source != "feed" || !cfg.Resolve.DryRun {
		t.Errorf("unexpected resolve config %+v", cfg.Resolve)
	}
}

func TestPrintStatus(t *testing.T) {
	var buf bytes.Buffer
	err := printStatus(&buf,
		map[string]string{"run_id": "abc", "masters": "3"},
		store.Coverage{Linked: 3, Total: 4})
	if err != nil {
		t.Fatalf("printStatus failed: %v", err)
	}

	out := buf.String()
	for _, want := range []string{"masters:", "run_id:", "abc", "3 / 4 (75.0%)"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Index(out, "masters:") > strings.Index(out, "run_id:") {
		t.Error("metadata keys not sorted")
	}
}

func TestPrintStatusEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := printStatus(&buf, nil, store.Coverage{}); err != nil {
		t.Fatalf("printStatus failed: %v", err)
	}
	if !strings.Contains(buf.String(), "(no runs recorded)") {
		t.Errorf("unexpected output:\n%s", buf.String())
	}
}
