// Copyright 2026 The Quarry Authors
// SPDX-License-Identifier: Apache-2.0

package compat

import (
	"testing"

	"github.com/quarry-build/quarry/lib/catalog"
	"github.com/quarry-build/quarry/lib/invocation"
	"github.com/quarry-build/quarry/lib/runtimearg"
	"github.com/quarry-build/quarry/lib/runtimeid"
)

func testMatcher(t *testing.T) *Matcher {
	t.Helper()
	table := runtimearg.DefaultTable()
	c, err := catalog.Builtin(table)
	if err != nil {
		t.Fatalf("catalog.Builtin: %v", err)
	}
	return NewMatcher(invocation.NewBuilder(c, table))
}

// liveWorker is the running configuration most tests match against:
// 16m/256m heap, assertions on, UTF-8 encoding fixed at startup.
func liveWorker() invocation.Config {
	return invocation.Config{
		MinHeapBytes:        16 << 20,
		MaxHeapBytes:        256 << 20,
		Flags:               []string{"-ea"},
		ImmutableProperties: map[string]string{"file.encoding": "UTF-8"},
		MutableProperties:   map[string]string{"java.awt.headless": "true"},
	}
}

func TestIdentityPrecedence(t *testing.T) {
	t.Parallel()

	matcher := testMatcher(t)
	liveIdentity := runtimeid.ForInstall("/opt/runtime/17", "17.0.2")
	otherIdentity := runtimeid.ForInstall("/opt/runtime/21", "21.0.1")

	// Even a request whose configuration matches the worker perfectly
	// is rejected when it pins a different installation.
	verdict := matcher.Match(liveIdentity, liveWorker(), invocation.Request{
		Args: invocation.ExplicitArgs(
			"-Xms16m", "-Xmx256m", "-ea", "-Dfile.encoding=UTF-8",
		),
		RequiredIdentity: otherIdentity,
	})
	if verdict.Compatible {
		t.Fatal("pinned foreign identity must never match")
	}
	if verdict.Reason == "" {
		t.Error("identity rejection must carry a reason")
	}

	// Same identity pinned: configuration comparison proceeds.
	verdict = matcher.Match(liveIdentity, liveWorker(), invocation.Request{
		Args: invocation.ExplicitArgs(
			"-Xms16m", "-Xmx256m", "-ea", "-Dfile.encoding=UTF-8",
		),
		RequiredIdentity: liveIdentity,
	})
	if !verdict.Compatible {
		t.Errorf("matching identity and configuration rejected: %s", verdict.Reason)
	}
}

func TestAutoPassOnUnconstrainedRequest(t *testing.T) {
	t.Parallel()

	matcher := testMatcher(t)
	identity := runtimeid.ForInstall("/opt/runtime/17", "17.0.2")

	// No explicit args, no extras: only catalog defaults, which are
	// mutable by invariant. The immutable axis auto-passes regardless
	// of the worker's own startup configuration.
	verdict := matcher.Match(identity, liveWorker(), invocation.Request{Version: "17"})
	if !verdict.Compatible {
		t.Fatalf("unconstrained request must auto-pass: %s", verdict.Reason)
	}
	if verdict.MutableUpdates["java.awt.headless"] != "true" {
		t.Errorf("catalog defaults must be staged as updates: %+v", verdict.MutableUpdates)
	}
}

func TestEmptyExplicitListAutoPasses(t *testing.T) {
	t.Parallel()

	matcher := testMatcher(t)
	identity := runtimeid.ForInstall("/opt/runtime/17", "17.0.2")

	// Explicit empty list: defaults suppressed, no immutable demands.
	// Compatible with a worker carrying a large heap and flags.
	live := invocation.Config{
		MaxHeapBytes: 1 << 30,
		Flags:        []string{"-server", "-ea"},
	}
	verdict := matcher.Match(identity, live, invocation.Request{
		Args:    invocation.ExplicitArgs(),
		Version: "17",
	})
	if !verdict.Compatible {
		t.Fatalf("empty explicit list must auto-pass: %s", verdict.Reason)
	}
	if len(verdict.MutableUpdates) != 0 {
		t.Errorf("defaults were suppressed, nothing to stage: %+v", verdict.MutableUpdates)
	}
}

func TestExactMatchOnConstrainedRequest(t *testing.T) {
	t.Parallel()

	matcher := testMatcher(t)
	identity := runtimeid.ForInstall("/opt/runtime/17", "17.0.2")

	// The full immutable set restated, max heap in a different but
	// equivalent unit. Matches.
	verdict := matcher.Match(identity, liveWorker(), invocation.Request{
		Args: invocation.ExplicitArgs(
			"-Xms16m", "-Xmx262144k", "-ea", "-Dfile.encoding=UTF-8",
		),
	})
	if !verdict.Compatible {
		t.Errorf("equivalent immutable set rejected: %s", verdict.Reason)
	}
}

func TestNoMatchOnDifferingSizing(t *testing.T) {
	t.Parallel()

	matcher := testMatcher(t)
	identity := runtimeid.ForInstall("/opt/runtime/17", "17.0.2")

	live := liveWorker()
	live.MaxHeapBytes = 1 << 30

	verdict := matcher.Match(identity, live, invocation.Request{
		Args: invocation.ExplicitArgs(
			"-Xms16m", "-Xmx256m", "-ea", "-Dfile.encoding=UTF-8",
		),
	})
	if verdict.Compatible {
		t.Fatal("differing max heap must not match")
	}
	if verdict.Reason == "" {
		t.Error("sizing rejection must carry a reason")
	}
}

func TestNoMatchIsAllOrNothing(t *testing.T) {
	t.Parallel()

	matcher := testMatcher(t)
	identity := runtimeid.ForInstall("/opt/runtime/17", "17.0.2")

	// Encoding agrees with the live worker, but the request omits the
	// heap sizings and the flag. Partial agreement is still a
	// non-match: the requested set must equal the full live set.
	verdict := matcher.Match(identity, liveWorker(), invocation.Request{
		Args: invocation.ExplicitArgs("-Dfile.encoding=UTF-8"),
	})
	if verdict.Compatible {
		t.Fatal("subset of the live immutable set must not match")
	}

	// Superset is equally rejected: one extra flag on top of an
	// otherwise perfect restatement.
	verdict = matcher.Match(identity, liveWorker(), invocation.Request{
		Args: invocation.ExplicitArgs(
			"-Xms16m", "-Xmx256m", "-ea", "-Dfile.encoding=UTF-8", "-server",
		),
	})
	if verdict.Compatible {
		t.Fatal("superset of the live immutable set must not match")
	}
}

func TestDefaultsNeverConstrain(t *testing.T) {
	t.Parallel()

	matcher := testMatcher(t)
	identity := runtimeid.ForInstall("/opt/runtime/17", "17.0.2")

	// The live worker carries none of the catalog defaults. They are
	// injected into the request's effective configuration, yet must
	// not appear on the immutable axis or cause a mismatch.
	live := invocation.Config{MaxHeapBytes: 512 << 20}
	verdict := matcher.Match(identity, live, invocation.Request{Version: "21"})
	if !verdict.Compatible {
		t.Fatalf("catalog defaults must never block reuse: %s", verdict.Reason)
	}
}

func TestMutableReconciliationStagesUpdates(t *testing.T) {
	t.Parallel()

	matcher := testMatcher(t)
	identity := runtimeid.ForInstall("/opt/runtime/17", "17.0.2")

	verdict := matcher.Match(identity, liveWorker(), invocation.Request{
		Args: invocation.ExplicitArgs(
			"-Xms16m", "-Xmx256m", "-ea", "-Dfile.encoding=UTF-8",
			"-Dbuild.console=rich",
		),
		ExtraProperties: map[string]string{"build.id": "b-7"},
	})
	if !verdict.Compatible {
		t.Fatalf("expected match: %s", verdict.Reason)
	}
	if verdict.MutableUpdates["build.console"] != "rich" || verdict.MutableUpdates["build.id"] != "b-7" {
		t.Errorf("staged updates incomplete: %+v", verdict.MutableUpdates)
	}
	// The worker's own mutable property the request did not mention is
	// not staged for change — no removal semantics.
	if _, ok := verdict.MutableUpdates["java.awt.headless"]; ok {
		t.Error("unmentioned live mutable property must not be staged")
	}
}

func TestExtraImmutablePropertyConstrains(t *testing.T) {
	t.Parallel()

	matcher := testMatcher(t)
	identity := runtimeid.ForInstall("/opt/runtime/17", "17.0.2")

	// An extra property with a startup-fixed key is an immutable
	// demand even though it arrived outside the explicit list, so the
	// exact-match rule kicks in and the worker's other immutable items
	// (heap, flag) disqualify it.
	verdict := matcher.Match(identity, liveWorker(), invocation.Request{
		Version:         "17",
		ExtraProperties: map[string]string{"file.encoding": "UTF-8"},
	})
	if verdict.Compatible {
		t.Fatal("extra immutable property must trigger exact-set matching")
	}
}

func TestAssemblyFailureDegradesToNoMatch(t *testing.T) {
	t.Parallel()

	matcher := testMatcher(t)
	identity := runtimeid.ForInstall("/opt/runtime/17", "17.0.2")

	// Malformed sizing in the explicit list.
	verdict := matcher.Match(identity, liveWorker(), invocation.Request{
		Args: invocation.ExplicitArgs("-Xmxbroken"),
	})
	if verdict.Compatible {
		t.Fatal("unassemblable request must not match")
	}
	if verdict.Reason == "" {
		t.Error("degraded non-match must carry the assembly failure")
	}

	// Unresolvable catalog version on the defaults branch.
	verdict = matcher.Match(identity, liveWorker(), invocation.Request{Version: "6"})
	if verdict.Compatible {
		t.Fatal("unresolvable version must not match")
	}
}

func TestMatchConfigsPure(t *testing.T) {
	t.Parallel()

	live := liveWorker()
	requested := invocation.Config{
		MutableProperties: map[string]string{"build.id": "b-1"},
	}

	verdict := MatchConfigs(live, requested)
	if !verdict.Compatible {
		t.Fatalf("unconstrained effective config must match: %s", verdict.Reason)
	}

	// The verdict stages a copy; mutating it must not reach the
	// request's configuration.
	verdict.MutableUpdates["build.id"] = "tampered"
	if requested.MutableProperties["build.id"] != "b-1" {
		t.Error("verdict shares the request's mutable map")
	}

	// Matching mutated nothing on the live side.
	if live.MutableProperties["java.awt.headless"] != "true" || len(live.MutableProperties) != 1 {
		t.Errorf("live configuration mutated by matching: %+v", live.MutableProperties)
	}
}
