// Copyright 2026 The Quarry Authors
// SPDX-License-Identifier: Apache-2.0

package testutil

import (
	"fmt"
	"sync/atomic"
)

var uniqueCounter atomic.Uint64

// UniqueID returns a string of the form "prefix-N" where N is a
// monotonically increasing integer. Use this instead of time.Now()
// when tests need unique identifiers, such as worker endpoints, that
// must be distinguishable within one run.
//
//	endpoint := testutil.UniqueID("unix:///tmp/worker") // "unix:///tmp/worker-1", ...
func UniqueID(prefix string) string {
	return fmt.Sprintf("%s-%d", prefix, uniqueCounter.Add(1))
}
