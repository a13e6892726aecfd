// Copyright 2026 The Quarry Authors
// SPDX-License-Identifier: Apache-2.0

package invocation

import (
	"sort"

	"github.com/quarry-build/quarry/lib/runtimearg"
)

// Config is the effective startup configuration of one worker process.
// All values are classified and normalized: sizings are byte counts,
// never raw size strings, and every property key lives in exactly one
// of the two property maps.
type Config struct {
	// MinHeapBytes and MaxHeapBytes are the heap sizings. Zero means
	// the bound is unconstrained.
	MinHeapBytes int64 `cbor:"min_heap_bytes,omitempty"`
	MaxHeapBytes int64 `cbor:"max_heap_bytes,omitempty"`

	// Flags are the startup flags, in first-seen order, deduplicated
	// by exact token.
	Flags []string `cbor:"flags,omitempty"`

	// ImmutableProperties are properties fixed at process startup.
	ImmutableProperties map[string]string `cbor:"immutable_properties,omitempty"`

	// MutableProperties are properties that can be written onto the
	// running worker. This is the only part of a live worker's
	// configuration that ever changes after spawn.
	MutableProperties map[string]string `cbor:"mutable_properties,omitempty"`
}

// apply merges one classified argument into the config. Later
// applications override earlier ones: a repeated sizing or property
// key takes the last value, a repeated flag is dropped.
func (c *Config) apply(arg runtimearg.Arg) {
	switch a := arg.(type) {
	case runtimearg.Sizing:
		if a.Bound == runtimearg.MinHeap {
			c.MinHeapBytes = a.Bytes
		} else {
			c.MaxHeapBytes = a.Bytes
		}

	case runtimearg.Flag:
		if !c.HasFlag(a.Token) {
			c.Flags = append(c.Flags, a.Token)
		}

	case runtimearg.Property:
		if a.Category() == runtimearg.CategoryImmutableProperty {
			if c.ImmutableProperties == nil {
				c.ImmutableProperties = make(map[string]string)
			}
			c.ImmutableProperties[a.Key] = a.Value
		} else {
			c.setMutable(a.Key, a.Value)
		}
	}
}

func (c *Config) setMutable(key, value string) {
	if c.MutableProperties == nil {
		c.MutableProperties = make(map[string]string)
	}
	c.MutableProperties[key] = value
}

// HasFlag reports whether the config carries the given startup flag.
func (c *Config) HasFlag(token string) bool {
	for _, flag := range c.Flags {
		if flag == token {
			return true
		}
	}
	return false
}

// StartupArgs renders the config back into command-line tokens for
// spawning a fresh worker: sizings first, then flags in order, then
// properties in sorted key order.
func (c *Config) StartupArgs() []string {
	args := make([]string, 0, 2+len(c.Flags)+len(c.ImmutableProperties)+len(c.MutableProperties))

	if c.MinHeapBytes > 0 {
		args = append(args, runtimearg.Sizing{Bound: runtimearg.MinHeap, Bytes: c.MinHeapBytes}.String())
	}
	if c.MaxHeapBytes > 0 {
		args = append(args, runtimearg.Sizing{Bound: runtimearg.MaxHeap, Bytes: c.MaxHeapBytes}.String())
	}
	args = append(args, c.Flags...)

	for _, key := range sortedKeys(c.ImmutableProperties) {
		args = append(args, propertyToken(key, c.ImmutableProperties[key]))
	}
	for _, key := range sortedKeys(c.MutableProperties) {
		args = append(args, propertyToken(key, c.MutableProperties[key]))
	}
	return args
}

// Clone returns a deep copy. Registry snapshots hand Configs across
// goroutine boundaries, so shared maps would be a data race.
func (c *Config) Clone() Config {
	clone := Config{
		MinHeapBytes: c.MinHeapBytes,
		MaxHeapBytes: c.MaxHeapBytes,
	}
	if c.Flags != nil {
		clone.Flags = append([]string(nil), c.Flags...)
	}
	if c.ImmutableProperties != nil {
		clone.ImmutableProperties = make(map[string]string, len(c.ImmutableProperties))
		for key, value := range c.ImmutableProperties {
			clone.ImmutableProperties[key] = value
		}
	}
	if c.MutableProperties != nil {
		clone.MutableProperties = make(map[string]string, len(c.MutableProperties))
		for key, value := range c.MutableProperties {
			clone.MutableProperties[key] = value
		}
	}
	return clone
}

func propertyToken(key, value string) string {
	if value == "" {
		return "-D" + key
	}
	return "-D" + key + "=" + value
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
