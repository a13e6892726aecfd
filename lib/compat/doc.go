// Copyright 2026 The Quarry Authors
// SPDX-License-Identifier: Apache-2.0

// Package compat decides whether a live worker process can serve a
// build request without being restarted.
//
// The decision runs over classified, normalized configurations (see
// lib/runtimearg and lib/invocation) in three steps:
//
//  1. Identity: a request that pins a runtime installation only ever
//     matches a worker backed by that installation.
//  2. Immutable items: the request's immutable demands (sizings,
//     flags, startup-fixed properties) are compared against the live
//     worker's full immutable set. The rule is asymmetric: a request
//     with no immutable demands is compatible with any worker, while
//     a request with any immutable demand must match the live set
//     exactly — no missing items, no extras, no differing values.
//     Partial agreement is a non-match.
//  3. Mutable reconciliation: on a match, the request's mutable
//     properties are staged as updates to write onto the worker.
//     Mutable properties the request does not mention are left alone.
//
// Matching is a pure computation: no I/O, no mutation of the live
// configuration, no fallible paths once configurations are assembled.
// A request whose effective configuration cannot be assembled at all
// degrades to a reasoned non-match — the caller falls back to spawning
// a fresh worker, trading reuse for correctness.
//
// A non-match is not an error. It is a frequent, expected outcome that
// simply means "this worker won't do; start another".
package compat
