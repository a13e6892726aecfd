// Copyright 2026 The Quarry Authors
// SPDX-License-Identifier: Apache-2.0

// Package registry tracks live worker processes across build
// invocations.
//
// The registry is the process-lifecycle manager's record of every
// worker it has spawned: process ID, runtime installation identity,
// the startup configuration the worker was launched with, and its
// dispatch state. It is persisted to a single CBOR file so that a new
// orchestrator invocation finds the workers the previous one left
// running — that persistence is the whole point of the worker-reuse
// scheme.
//
// State transitions go through Transition, a compare-and-set: the pool
// claims a worker by moving it idle→busy, and no build is dispatched
// to a worker it did not claim. Every mutation is written back to disk
// atomically (temp file + rename) before it is acknowledged.
package registry
