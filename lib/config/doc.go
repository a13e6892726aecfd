// Copyright 2026 The Quarry Authors
// SPDX-License-Identifier: Apache-2.0

// Package config provides configuration loading for Quarry components.
//
// Configuration is loaded from a single YAML file specified by:
//   - QUARRY_CONFIG environment variable, or
//   - --config flag passed to the command
//
// There are no fallbacks or automatic discovery. This ensures
// deterministic, auditable configuration with no hidden overrides. The
// only expansion performed is ${VAR}-style path variables (HOME,
// QUARRY_ROOT) for portability.
package config
