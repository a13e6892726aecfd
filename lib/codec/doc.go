// Copyright 2026 The Quarry Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec provides Quarry's standard CBOR encoding.
//
// Encoding uses Core Deterministic Encoding (RFC 8949 §4.2): sorted
// map keys, smallest integer encoding, no indefinite-length items.
// The same logical data always produces identical bytes, which the
// worker pool relies on when fingerprinting build requests for its
// effective-configuration cache, and which keeps registry files
// stable across rewrites of unchanged state.
//
// Decoding accepts standard CBOR and silently ignores unknown fields,
// so older binaries can read registry files written by newer ones.
package codec
