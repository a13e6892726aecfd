// Copyright 2026 The Quarry Authors
// SPDX-License-Identifier: Apache-2.0

// Package catalog provides the default-property catalog for worker
// startup configuration.
//
// When a build request supplies no explicit startup arguments, the
// request builder injects the catalog entry for the requested runtime
// version line. Catalog entries are restricted to mutable properties:
// an auto-injected default must never force a worker restart, so a
// catalog file containing a sizing, flag, or startup-fixed property
// key is rejected at load time.
//
// Catalogs are authored as JSONC (JSON extended with comments and
// trailing commas). A built-in catalog is embedded in the binary;
// deployments may layer additional catalog files over it via Merge.
package catalog
