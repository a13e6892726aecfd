// Copyright 2026 The Quarry Authors
// SPDX-License-Identifier: Apache-2.0

package runtimearg

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	kibibyte = 1 << 10
	mebibyte = 1 << 20
	gibibyte = 1 << 30
)

// InvalidSizeError reports a memory-size token whose magnitude or unit
// suffix could not be parsed. It is raised at classification time;
// matching only ever sees normalized byte counts.
type InvalidSizeError struct {
	// Token is the offending size string, without its "-Xms"/"-Xmx"
	// prefix.
	Token string
}

func (e *InvalidSizeError) Error() string {
	return fmt.Sprintf("invalid memory size %q: expected a positive integer with an optional k, m, or g suffix", e.Token)
}

// ParseSize normalizes a memory-size string into a byte count. The
// string is a positive decimal magnitude with an optional
// case-insensitive binary unit suffix: k (KiB), m (MiB), or g (GiB).
// No suffix means bytes.
func ParseSize(s string) (int64, error) {
	if s == "" {
		return 0, &InvalidSizeError{Token: s}
	}

	multiplier := int64(1)
	magnitude := s
	switch strings.ToLower(s[len(s)-1:]) {
	case "k":
		multiplier = kibibyte
		magnitude = s[:len(s)-1]
	case "m":
		multiplier = mebibyte
		magnitude = s[:len(s)-1]
	case "g":
		multiplier = gibibyte
		magnitude = s[:len(s)-1]
	}

	value, err := strconv.ParseInt(magnitude, 10, 64)
	if err != nil || value <= 0 {
		return 0, &InvalidSizeError{Token: s}
	}

	return value * multiplier, nil
}

// FormatSize renders a byte count as the shortest size string that
// parses back to the same value: the largest unit that divides it
// exactly, falling back to plain bytes.
func FormatSize(bytes int64) string {
	switch {
	case bytes >= gibibyte && bytes%gibibyte == 0:
		return strconv.FormatInt(bytes/gibibyte, 10) + "g"
	case bytes >= mebibyte && bytes%mebibyte == 0:
		return strconv.FormatInt(bytes/mebibyte, 10) + "m"
	case bytes >= kibibyte && bytes%kibibyte == 0:
		return strconv.FormatInt(bytes/kibibyte, 10) + "k"
	default:
		return strconv.FormatInt(bytes, 10)
	}
}
