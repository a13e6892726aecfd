// Copyright 2026 The Quarry Authors
// SPDX-License-Identifier: Apache-2.0

package runtimearg

import (
	"sort"
	"strings"
)

const (
	minHeapPrefix  = "-Xms"
	maxHeapPrefix  = "-Xmx"
	propertyPrefix = "-D"
)

// Table is the set of property keys that only take effect at process
// startup. Properties with these keys classify as immutable; all
// others classify as mutable. Table values are immutable; With returns
// an extended copy.
type Table struct {
	keys map[string]struct{}
}

// DefaultTable returns the startup-fixed property keys every
// deployment shares: character encoding, locale, temp directory, and
// JMX remote management.
func DefaultTable() Table {
	return newTable(
		"file.encoding",
		"user.language",
		"user.country",
		"java.io.tmpdir",
		"com.sun.management.jmxremote",
	)
}

// With returns a copy of the table extended with the given keys.
func (t Table) With(keys ...string) Table {
	extended := make(map[string]struct{}, len(t.keys)+len(keys))
	for key := range t.keys {
		extended[key] = struct{}{}
	}
	for _, key := range keys {
		extended[key] = struct{}{}
	}
	return Table{keys: extended}
}

// Immutable reports whether properties with the given key are fixed at
// process startup.
func (t Table) Immutable(key string) bool {
	_, ok := t.keys[key]
	return ok
}

// Keys returns the table's keys in sorted order.
func (t Table) Keys() []string {
	keys := make([]string, 0, len(t.keys))
	for key := range t.keys {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func newTable(keys ...string) Table {
	return Table{}.With(keys...)
}

// Classify parses one raw startup token into its tagged variant.
// Memory sizings are normalized to byte counts; "-D" tokens split into
// key and value at the first "="; everything else is an opaque startup
// flag. The only failure is a malformed memory-size magnitude.
func Classify(token string, table Table) (Arg, error) {
	switch {
	case strings.HasPrefix(token, minHeapPrefix):
		bytes, err := ParseSize(token[len(minHeapPrefix):])
		if err != nil {
			return nil, err
		}
		return Sizing{Bound: MinHeap, Bytes: bytes}, nil

	case strings.HasPrefix(token, maxHeapPrefix):
		bytes, err := ParseSize(token[len(maxHeapPrefix):])
		if err != nil {
			return nil, err
		}
		return Sizing{Bound: MaxHeap, Bytes: bytes}, nil

	case strings.HasPrefix(token, propertyPrefix):
		key, value, _ := strings.Cut(token[len(propertyPrefix):], "=")
		return ClassifyProperty(key, value, table), nil

	default:
		return Flag{Token: token}, nil
	}
}

// ClassifyProperty classifies an already-split key/value property
// against the startup-fixed table. It is used for property maps that
// never existed as raw tokens (extra request properties, catalog
// defaults).
func ClassifyProperty(key, value string, table Table) Property {
	category := CategoryMutableProperty
	if table.Immutable(key) {
		category = CategoryImmutableProperty
	}
	return Property{Key: key, Value: value, category: category}
}
