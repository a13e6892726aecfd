// Copyright 2026 The Quarry Authors
// SPDX-License-Identifier: Apache-2.0

// Package testutil provides shared test helpers for Quarry packages.
//
// [RequireReceive] encapsulates the timeout safety valve pattern
// (select with time.After fallback) so that individual tests do not
// need direct time.After calls.
//
// [UniqueID] generates monotonically increasing identifiers for test
// disambiguation, for worker endpoints and build IDs that must be
// distinguishable within one test run.
//
// All helpers call t.Fatalf on failure rather than returning errors,
// since test setup failures are not recoverable.
package testutil
