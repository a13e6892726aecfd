// Copyright 2026 The Quarry Authors
// SPDX-License-Identifier: Apache-2.0

// Package runtimearg classifies raw worker startup arguments.
//
// A worker process is configured by a list of raw tokens: memory
// sizings ("-Xms256m"), startup flags, and "-D" key/value properties.
// Classification partitions every token into exactly one category:
//
//   - structural: memory sizing, fixed for the process lifetime
//   - flag: startup flag, fixed for the process lifetime
//   - immutable property: a "-D" property whose key only takes effect
//     at process startup (encoding, locale, temp directory, ...)
//   - mutable property: any other "-D" property, changeable on a
//     running worker
//
// The compatibility matcher uses the first three categories to decide
// whether a live worker can be reused; the fourth is reconciled onto
// the running process instead of forcing a restart.
//
// Classification is total: an unrecognized flag-style token is
// classified as an immutable flag (an unknown startup flag is never
// assumed safely changeable after start), and an unrecognized property
// key is classified mutable. The set of startup-fixed property keys is
// an explicit [Table] value passed by the caller, never a hidden
// global, so deployments and tests can extend or replace it.
package runtimearg
