// cmd/rotorperf/main_test.go
// Copyright(c) 2025 rotorperf contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package main

import (
	"errors"
	"flag"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rotorperf/rotorperf/config"
	"github.com/rotorperf/rotorperf/perf"
)

func setFlag(t *testing.T, name, value string) {
	t.Helper()
	if err := flag.CommandLine.Set(name, value); err != nil {
		t.Fatal(err)
	}
}

func TestLoadConfigValidatesFlags(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rotorperf.yaml")
	if err := os.WriteFile(path, []byte("defaults:\n  wind_mode: s97\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	// Flags stay set for the rest of the process; leave them valid.
	t.Cleanup(func() {
		flag.CommandLine.Set("windmode", "cos")
		flag.CommandLine.Set("rtodiv", "10")
		flag.CommandLine.Set("loglevel", "info")
	})

	if _, err := loadConfig(path); err != nil {
		t.Fatal(err)
	}

	setFlag(t, "windmode", "s79")
	_, err := loadConfig(path)
	if !errors.Is(err, config.ErrInvalidConfig) || !strings.Contains(err.Error(), `"s79"`) {
		t.Errorf("expected the bad wind mode to be rejected, got %v", err)
	}

	// Without validation the bad value still doesn't turn into cosine.
	cfg := config.Default()
	applyFlags(&cfg)
	if req, err := baseRequest(cfg); !errors.Is(err, perf.ErrUnknownWindMode) {
		t.Errorf("expected ErrUnknownWindMode, got request %+v, %v", req, err)
	}

	setFlag(t, "windmode", "cos")
	cfg, err = loadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if req, err := baseRequest(cfg); err != nil || req.WindMode != perf.WindModeCosine {
		t.Errorf("got %+v, %v", req, err)
	}

	for _, c := range []struct {
		name, bad, good, err string
	}{
		{"rtodiv", "0", "10", "rto_divisor must be positive"},
		{"loglevel", "bogus", "warning", `"bogus": unknown level`},
	} {
		setFlag(t, c.name, c.bad)
		if _, err := loadConfig(path); err == nil || !strings.Contains(err.Error(), c.err) {
			t.Errorf("-%s %s: expected %q, got %v", c.name, c.bad, c.err, err)
		}
		setFlag(t, c.name, c.good)
		if _, err := loadConfig(path); err != nil {
			t.Errorf("-%s %s: %v", c.name, c.good, err)
		}
	}
}
