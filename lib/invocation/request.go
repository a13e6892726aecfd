// Copyright 2026 The Quarry Authors
// SPDX-License-Identifier: Apache-2.0

package invocation

import "github.com/quarry-build/quarry/lib/runtimeid"

// Request describes the runtime configuration one build invocation
// demands. Requests are ephemeral: created per build, discarded once
// the matching decision is made.
type Request struct {
	// Args holds the explicit startup arguments, if any. See [Args]
	// for the unspecified/explicit distinction.
	Args Args

	// ExtraProperties are layered over the explicit arguments (or the
	// catalog defaults), independent of whether Args was specified.
	// Each is classified individually and overrides earlier layers on
	// key collision.
	ExtraProperties map[string]string

	// Version is the runtime-version hint used to select the default
	// catalog entry when Args is unspecified.
	Version string

	// RequiredIdentity pins the request to one runtime installation.
	// The zero value means any installation is acceptable.
	RequiredIdentity runtimeid.Identity
}

// Args carries a request's explicit startup arguments. The zero value
// is "unspecified": the caller stated no preference, and catalog
// defaults apply. An explicit empty list is different — it suppresses
// defaults ("no startup preference, and no defaults either").
type Args struct {
	specified bool
	items     []string
}

// ArgsUnspecified returns the unspecified value. Equivalent to the
// zero Args; provided so call sites can say what they mean.
func ArgsUnspecified() Args {
	return Args{}
}

// ExplicitArgs returns an explicit argument list. ExplicitArgs() with
// no items is the defaults-suppressing empty list.
func ExplicitArgs(items ...string) Args {
	return Args{specified: true, items: append([]string(nil), items...)}
}

// Specified reports whether the caller supplied an explicit list.
func (a Args) Specified() bool {
	return a.specified
}

// Items returns the explicit arguments. Empty both for the
// unspecified value and for an explicit empty list; use Specified to
// tell them apart.
func (a Args) Items() []string {
	return a.items
}
