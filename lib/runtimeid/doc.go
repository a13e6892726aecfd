// Copyright 2026 The Quarry Authors
// SPDX-License-Identifier: Apache-2.0

// Package runtimeid identifies concrete runtime installations.
//
// A worker process is backed by exactly one runtime installation (an
// install directory plus its version string). The identity of that
// installation is immutable for the worker's lifetime: a build request
// that pins a different installation can never reuse the worker, no
// matter how its other configuration compares.
//
// Identities are 32-byte BLAKE3 keyed digests over the installation's
// home path and version. Two identities are equal iff they reference
// the same installation; the digest form makes them cheap to compare,
// store in the worker registry, and print in logs.
package runtimeid
