// Copyright 2026 The Quarry Authors
// SPDX-License-Identifier: Apache-2.0

package compat

import (
	"fmt"
	"maps"
	"sort"
	"strconv"
	"strings"

	"github.com/quarry-build/quarry/lib/invocation"
	"github.com/quarry-build/quarry/lib/runtimeid"
)

// Verdict is the outcome of one compatibility evaluation.
type Verdict struct {
	// Compatible reports whether the live worker can serve the
	// request.
	Compatible bool

	// MutableUpdates are the property writes that bring the live
	// worker in line with the request. Staged only — the matcher never
	// performs the write. Nil unless Compatible.
	MutableUpdates map[string]string

	// Reason explains a rejection for logs and dry-run output. Empty
	// when Compatible.
	Reason string
}

// Matcher evaluates build requests against live workers. It owns no
// state beyond the request builder and is safe for concurrent use;
// every candidate worker is evaluated independently.
type Matcher struct {
	builder *invocation.Builder
}

// NewMatcher returns a matcher assembling effective configurations
// with the given builder.
func NewMatcher(builder *invocation.Builder) *Matcher {
	return &Matcher{builder: builder}
}

// Match decides whether the live worker identified by liveIdentity and
// configured by live can serve req. A request whose effective
// configuration cannot be assembled (malformed sizing, unresolved
// catalog version) is a reasoned non-match, never an error: the caller
// spawns a fresh worker and surfaces the assembly failure there.
func (m *Matcher) Match(liveIdentity runtimeid.Identity, live invocation.Config, req invocation.Request) Verdict {
	// Identity takes precedence over everything: a pinned installation
	// that differs rules the worker out before the effective
	// configuration is even assembled.
	if verdict, rejected := identityCheck(liveIdentity, req.RequiredIdentity); rejected {
		return verdict
	}

	effective, err := m.builder.EffectiveConfig(req)
	if err != nil {
		return noMatch("cannot assemble effective configuration: %v", err)
	}

	return MatchConfigs(live, effective)
}

// MatchEffective decides compatibility for an already-assembled
// effective configuration, applying the identity precedence rule
// before comparing configurations. The worker pool uses this with its
// cached effective configs so identical requests in a hot build loop
// skip reassembly.
func MatchEffective(liveIdentity runtimeid.Identity, live invocation.Config, required runtimeid.Identity, effective invocation.Config) Verdict {
	if verdict, rejected := identityCheck(liveIdentity, required); rejected {
		return verdict
	}
	return MatchConfigs(live, effective)
}

func identityCheck(liveIdentity, required runtimeid.Identity) (Verdict, bool) {
	if !required.IsZero() && required != liveIdentity {
		return noMatch("request pins runtime installation %s, worker runs %s",
			required.Short(), liveIdentity.Short()), true
	}
	return Verdict{}, false
}

// MatchConfigs compares an already-assembled effective configuration
// against a live worker's configuration. It is total: given normalized
// configurations it always terminates with a verdict.
func MatchConfigs(live, requested invocation.Config) Verdict {
	// Only the request's own immutable demands constrain reuse.
	// Catalog defaults cannot appear here: they are validated mutable
	// at load time and the builder routes them into
	// MutableProperties, so an unconstrained request auto-passes no
	// matter what the live worker was started with.
	requestedImmutable := immutableItems(requested)
	if len(requestedImmutable) > 0 {
		liveImmutable := immutableItems(live)
		if !maps.Equal(requestedImmutable, liveImmutable) {
			return noMatch("startup configuration differs: %s", describeDiff(requestedImmutable, liveImmutable))
		}
	}

	updates := make(map[string]string, len(requested.MutableProperties))
	for key, value := range requested.MutableProperties {
		updates[key] = value
	}
	return Verdict{Compatible: true, MutableUpdates: updates}
}

func noMatch(format string, args ...any) Verdict {
	return Verdict{Reason: fmt.Sprintf(format, args...)}
}

// immutableItems flattens a config's immutable side into a single
// namespaced key/value map so the all-or-nothing comparison is one map
// equality. Sizings compare by normalized byte count, flags by token,
// properties by key and value.
func immutableItems(c invocation.Config) map[string]string {
	items := make(map[string]string, 2+len(c.Flags)+len(c.ImmutableProperties))
	if c.MinHeapBytes > 0 {
		items["sizing:min-heap"] = strconv.FormatInt(c.MinHeapBytes, 10)
	}
	if c.MaxHeapBytes > 0 {
		items["sizing:max-heap"] = strconv.FormatInt(c.MaxHeapBytes, 10)
	}
	for _, flag := range c.Flags {
		items["flag:"+flag] = ""
	}
	for key, value := range c.ImmutableProperties {
		items["property:"+key] = value
	}
	return items
}

// describeDiff renders the discrepancy between the requested and live
// immutable sets for rejection reasons: which items the request wants
// that the worker lacks, which the worker has that the request did not
// ask for, and which differ in value.
func describeDiff(requested, live map[string]string) string {
	var parts []string

	for _, key := range sortedItemKeys(requested) {
		liveValue, ok := live[key]
		switch {
		case !ok:
			parts = append(parts, fmt.Sprintf("worker lacks %s", describeItem(key, requested[key])))
		case liveValue != requested[key]:
			parts = append(parts, fmt.Sprintf("%s is %q on worker, request wants %q", key, liveValue, requested[key]))
		}
	}
	for _, key := range sortedItemKeys(live) {
		if _, ok := requested[key]; !ok {
			parts = append(parts, fmt.Sprintf("worker has extra %s", describeItem(key, live[key])))
		}
	}

	return strings.Join(parts, "; ")
}

func describeItem(key, value string) string {
	if value == "" {
		return key
	}
	return key + "=" + value
}

func sortedItemKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
