// Copyright 2026 The Quarry Authors
// SPDX-License-Identifier: Apache-2.0

package invocation

import (
	"github.com/quarry-build/quarry/lib/catalog"
	"github.com/quarry-build/quarry/lib/runtimearg"
)

// Builder assembles effective startup configurations from build
// requests. It holds the two pieces of policy the assembly depends on:
// the default catalog and the startup-fixed property table. Builders
// are immutable after construction and safe for concurrent use.
type Builder struct {
	catalog *catalog.Catalog
	table   runtimearg.Table
}

// NewBuilder returns a builder using the given catalog and table. The
// catalog must have been loaded against the same table, otherwise its
// mutable-only invariant is meaningless.
func NewBuilder(c *catalog.Catalog, table runtimearg.Table) *Builder {
	return &Builder{catalog: c, table: table}
}

// Table returns the startup-fixed property table in effect.
func (b *Builder) Table() runtimearg.Table {
	return b.table
}

// EffectiveConfig merges a request's layers into its effective
// configuration:
//
//  1. Explicit arguments, classified token by token — or, only when
//     the argument list is unspecified, the catalog defaults for the
//     requested version.
//  2. Extra properties, classified individually, overriding earlier
//     layers on key collision.
//
// Catalog defaults land in MutableProperties directly: the catalog's
// load-time validation guarantees they classify mutable, which is what
// keeps auto-injected defaults out of the matcher's requested
// immutable set.
//
// Errors are *runtimearg.InvalidSizeError for a malformed sizing token
// and catalog.ErrUnresolvedVersion when defaults are wanted but the
// version hint has no catalog entry.
func (b *Builder) EffectiveConfig(req Request) (Config, error) {
	var cfg Config

	if req.Args.Specified() {
		for _, token := range req.Args.Items() {
			arg, err := runtimearg.Classify(token, b.table)
			if err != nil {
				return Config{}, err
			}
			cfg.apply(arg)
		}
	} else {
		defaults, err := b.catalog.Defaults(req.Version)
		if err != nil {
			return Config{}, err
		}
		for key, value := range defaults {
			cfg.setMutable(key, value)
		}
	}

	for key, value := range req.ExtraProperties {
		cfg.apply(runtimearg.ClassifyProperty(key, value, b.table))
	}

	return cfg, nil
}
