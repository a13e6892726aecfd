// Copyright 2026 The Quarry Authors
// SPDX-License-Identifier: Apache-2.0

package catalog

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/tidwall/jsonc"

	"github.com/quarry-build/quarry/lib/runtimearg"
)

// ErrUnresolvedVersion is returned by Defaults when the requested
// runtime version has no catalog entry. Callers fall back to a
// baseline or fail the build request; reuse matching is unaffected.
var ErrUnresolvedVersion = errors.New("no default catalog entry for runtime version")

// ImmutableDefaultError reports a catalog entry that does not classify
// as a mutable property. Such an entry would silently turn "inherit
// defaults" requests into restart-forcing ones, so loading rejects it.
type ImmutableDefaultError struct {
	Version string
	Key     string
}

func (e *ImmutableDefaultError) Error() string {
	return fmt.Sprintf("catalog entry %q for version %s classifies as immutable; defaults must be mutable properties", e.Key, e.Version)
}

// Catalog maps runtime version lines to the mutable properties
// injected when a build request supplies no explicit arguments.
type Catalog struct {
	versions map[string]map[string]string
}

// fileFormat is the on-disk JSONC shape.
type fileFormat struct {
	Versions map[string]versionDefaults `json:"versions"`
}

type versionDefaults struct {
	Properties map[string]string `json:"properties"`
}

//go:embed catalog.jsonc
var builtinJSONC []byte

// Builtin returns the embedded catalog, validated against the given
// classification table. The embedded data is under our control, so a
// validation failure here means the table was extended with a key the
// builtin catalog uses as a default.
func Builtin(table runtimearg.Table) (*Catalog, error) {
	return Parse(builtinJSONC, table)
}

// Parse strips JSONC comments and trailing commas from data, then
// unmarshals and validates the result. Every entry must classify as a
// mutable property under the given table.
func Parse(data []byte, table runtimearg.Table) (*Catalog, error) {
	stripped := jsonc.ToJSON(data)

	var file fileFormat
	if err := json.Unmarshal(stripped, &file); err != nil {
		return nil, fmt.Errorf("parsing catalog: %w", err)
	}

	c := &Catalog{versions: make(map[string]map[string]string, len(file.Versions))}
	for version, defaults := range file.Versions {
		entry := make(map[string]string, len(defaults.Properties))
		for key, value := range defaults.Properties {
			if runtimearg.ClassifyProperty(key, value, table).Category() != runtimearg.CategoryMutableProperty {
				return nil, &ImmutableDefaultError{Version: version, Key: key}
			}
			entry[key] = value
		}
		c.versions[version] = entry
	}
	return c, nil
}

// LoadFile reads and parses a JSONC catalog file from disk.
func LoadFile(path string, table runtimearg.Table) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	c, err := Parse(data, table)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// Merge layers other over c: versions only in other are added, and on
// shared versions other's properties override per key.
func (c *Catalog) Merge(other *Catalog) {
	for version, defaults := range other.versions {
		entry, ok := c.versions[version]
		if !ok {
			entry = make(map[string]string, len(defaults))
			c.versions[version] = entry
		}
		for key, value := range defaults {
			entry[key] = value
		}
	}
}

// Defaults returns a copy of the default properties for the given
// runtime version hint. The hint is matched exactly first, then by its
// major version line ("17.0.2" falls back to "17"). Returns
// ErrUnresolvedVersion when neither matches.
func (c *Catalog) Defaults(version string) (map[string]string, error) {
	entry, ok := c.versions[version]
	if !ok {
		line, _, _ := strings.Cut(version, ".")
		entry, ok = c.versions[line]
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnresolvedVersion, version)
	}

	defaults := make(map[string]string, len(entry))
	for key, value := range entry {
		defaults[key] = value
	}
	return defaults, nil
}

// Versions returns the catalog's version lines in sorted order.
func (c *Catalog) Versions() []string {
	versions := make([]string, 0, len(c.versions))
	for version := range c.versions {
		versions = append(versions, version)
	}
	sort.Strings(versions)
	return versions
}
