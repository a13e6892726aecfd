// Copyright 2026 The Quarry Authors
// SPDX-License-Identifier: Apache-2.0

package runtimearg

import "fmt"

// Category identifies how a configuration item behaves over the
// lifetime of a worker process.
type Category int

const (
	// CategoryStructural is a memory sizing. Changing it requires a
	// new process.
	CategoryStructural Category = iota

	// CategoryFlag is a startup flag. Changing it requires a new
	// process.
	CategoryFlag

	// CategoryImmutableProperty is a "-D" property whose key is in the
	// startup-fixed table. Changing it requires a new process.
	CategoryImmutableProperty

	// CategoryMutableProperty is any other "-D" property. It can be
	// written onto a running worker.
	CategoryMutableProperty
)

// Immutable reports whether an item of this category is fixed for the
// process lifetime.
func (c Category) Immutable() bool {
	return c != CategoryMutableProperty
}

// String returns the category name used in logs and dry-run output.
func (c Category) String() string {
	switch c {
	case CategoryStructural:
		return "structural"
	case CategoryFlag:
		return "flag"
	case CategoryImmutableProperty:
		return "immutable-property"
	case CategoryMutableProperty:
		return "mutable-property"
	default:
		return fmt.Sprintf("Category(%d)", int(c))
	}
}

// Bound identifies which heap bound a memory sizing constrains.
type Bound int

const (
	// MinHeap is the initial/minimum heap sizing ("-Xms").
	MinHeap Bound = iota
	// MaxHeap is the maximum heap sizing ("-Xmx").
	MaxHeap
)

// Arg is one classified configuration item. Exactly one of [Sizing],
// [Flag], or [Property] implements it. All downstream logic operates
// on the variant; raw tokens are never re-parsed after classification.
type Arg interface {
	// Category returns the item's lifetime classification.
	Category() Category

	// String returns the canonical command-line token for the item.
	String() string

	arg()
}

// Sizing is a normalized memory sizing. Two sizings are equal iff
// their bound and byte count are equal, so "-Xmx256m" and
// "-Xmx262144k" are interchangeable.
type Sizing struct {
	Bound Bound
	Bytes int64
}

// Category returns CategoryStructural.
func (Sizing) Category() Category { return CategoryStructural }

func (s Sizing) String() string {
	prefix := minHeapPrefix
	if s.Bound == MaxHeap {
		prefix = maxHeapPrefix
	}
	return prefix + FormatSize(s.Bytes)
}

func (Sizing) arg() {}

// Flag is a startup flag, compared by exact token equality. Tokens the
// classifier does not recognize land here unmodified.
type Flag struct {
	Token string
}

// Category returns CategoryFlag.
func (Flag) Category() Category { return CategoryFlag }

func (f Flag) String() string { return f.Token }

func (Flag) arg() {}

// Property is a "-D" key/value pair. Its category depends on the
// startup-fixed table in effect when it was classified.
type Property struct {
	Key   string
	Value string

	category Category
}

// Category returns the category assigned at classification time.
func (p Property) Category() Category { return p.category }

func (p Property) String() string {
	if p.Value == "" {
		return propertyPrefix + p.Key
	}
	return propertyPrefix + p.Key + "=" + p.Value
}

func (Property) arg() {}
