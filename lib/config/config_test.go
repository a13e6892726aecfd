// Copyright 2026 The Quarry Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "quarry.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	return path
}

func TestLoadFile(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, `
paths:
  root: /var/lib/quarry
  registry: ${QUARRY_ROOT}/state/workers.cbor
workers:
  idle_timeout: 45m
  max_workers: 4
  immutable_property_keys:
    - org.example.startup.mode
`)

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}

	if cfg.Paths.Root != "/var/lib/quarry" {
		t.Errorf("root = %q", cfg.Paths.Root)
	}
	if cfg.Paths.Registry != "/var/lib/quarry/state/workers.cbor" {
		t.Errorf("registry = %q (variable expansion broken)", cfg.Paths.Registry)
	}

	timeout, err := cfg.IdleTimeout()
	if err != nil {
		t.Fatalf("IdleTimeout: %v", err)
	}
	if timeout != 45*time.Minute {
		t.Errorf("idle timeout = %v, want 45m", timeout)
	}

	if !cfg.Table().Immutable("org.example.startup.mode") {
		t.Error("configured immutable key missing from table")
	}
	if !cfg.Table().Immutable("file.encoding") {
		t.Error("default table keys lost")
	}
}

func TestDefaultValidates(t *testing.T) {
	t.Parallel()

	if err := Default().Validate(); err != nil {
		t.Errorf("default config must validate: %v", err)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	t.Parallel()

	cfg := Default()
	cfg.Paths.Root = ""
	cfg.Workers.IdleTimeout = "soon"
	cfg.Workers.MaxWorkers = -1

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation errors")
	}
	for _, want := range []string{"paths.root", "idle_timeout", "max_workers"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("validation error missing %q: %v", want, err)
		}
	}
}

func TestCatalogLayering(t *testing.T) {
	t.Parallel()

	overlay := filepath.Join(t.TempDir(), "catalog.jsonc")
	if err := os.WriteFile(overlay, []byte(`{
		// Site-local overrides.
		"versions": {
			"17": {"properties": {"java.awt.headless": "false"}},
		},
	}`), 0644); err != nil {
		t.Fatalf("writing overlay: %v", err)
	}

	cfg := Default()
	cfg.Workers.CatalogFiles = []string{overlay}

	table := cfg.Table()
	merged, err := cfg.Catalog(table)
	if err != nil {
		t.Fatalf("Catalog: %v", err)
	}

	defaults, err := merged.Defaults("17")
	if err != nil {
		t.Fatalf("Defaults: %v", err)
	}
	if defaults["java.awt.headless"] != "false" {
		t.Errorf("overlay did not override builtin: %+v", defaults)
	}
	// Sibling versions keep the builtin values.
	defaults, err = merged.Defaults("21")
	if err != nil {
		t.Fatalf("Defaults(21): %v", err)
	}
	if defaults["java.awt.headless"] != "true" {
		t.Errorf("builtin entry lost: %+v", defaults)
	}
}

func TestLoadRequiresEnvVar(t *testing.T) {
	t.Setenv("QUARRY_CONFIG", "")

	if _, err := Load(); err == nil {
		t.Error("Load without QUARRY_CONFIG must fail")
	}
}
