// Copyright 2026 The Quarry Authors
// SPDX-License-Identifier: Apache-2.0

// Package pool dispatches build requests onto live workers.
//
// Acquire walks the registry's idle workers, evaluates each candidate
// independently with the compatibility matcher, and claims the first
// compatible one. Claiming is a compare-and-set on the registry's
// dispatch state, so concurrent builds can never bind the same worker:
// whichever claim lands first wins and the other moves on to the next
// candidate. Only after a successful claim are the verdict's mutable
// updates applied to the worker's property store — exclusive access
// for the duration of one matching-and-reconciliation cycle.
//
// When no idle worker is compatible, the pool assembles the fresh-
// spawn configuration and defers process creation to the injected
// [Spawner]; process mechanics are outside this package.
//
// Hot build loops re-issue identical requests, so the pool memoizes
// effective configurations in a small LRU keyed by a BLAKE3
// fingerprint of the deterministically encoded request.
package pool
