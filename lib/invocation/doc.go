// Copyright 2026 The Quarry Authors
// SPDX-License-Identifier: Apache-2.0

// Package invocation defines worker startup configurations and the
// build requests they are assembled from.
//
// A [Config] is the classified, normalized configuration of one worker
// process: heap sizings in bytes, startup flags, and properties split
// into immutable and mutable maps. The process-lifecycle manager
// records a Config for every live worker at spawn time; the
// compatibility matcher compares it against the effective Config of
// each incoming build request.
//
// A [Request] is what one build invocation demands. Its explicit
// argument list is tri-state: not supplied means "inherit catalog
// defaults", supplied-but-empty means "no startup preference and no
// defaults either". That distinction is load-bearing — collapsing it
// would silently re-enable defaults for callers that disabled them.
//
// [Builder.EffectiveConfig] merges the three request layers (explicit
// arguments, conditional catalog defaults, extra properties) into the
// effective Config, with later layers overriding earlier ones.
package invocation
