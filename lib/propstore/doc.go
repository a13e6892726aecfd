// Copyright 2026 The Quarry Authors
// SPDX-License-Identifier: Apache-2.0

// Package propstore holds the mutable property surface of a live
// worker process.
//
// This is the only part of a worker's configuration that ever changes
// after spawn, and the compatibility matcher's verdict is the only
// sanctioned source of writes: when a worker is selected for reuse,
// the verdict's staged updates are applied before the build is
// dispatched. Updates are non-destructive — a property the request did
// not mention keeps its current value; nothing is ever removed.
package propstore
