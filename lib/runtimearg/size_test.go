// Copyright 2026 The Quarry Authors
// SPDX-License-Identifier: Apache-2.0

package runtimearg

import (
	"errors"
	"testing"
)

func TestParseSize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want int64
	}{
		{"1024", 1024},
		{"64k", 64 << 10},
		{"64K", 64 << 10},
		{"256m", 256 << 20},
		{"256M", 256 << 20},
		{"2g", 2 << 30},
		{"2G", 2 << 30},
		{"262144k", 256 << 20},
	}

	for _, tt := range tests {
		got, err := ParseSize(tt.in)
		if err != nil {
			t.Errorf("ParseSize(%q): %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseSize(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestParseSizeInvalid(t *testing.T) {
	t.Parallel()

	for _, in := range []string{"", "m", "abc", "12.5m", "-64m", "0", "0k", "64t"} {
		_, err := ParseSize(in)
		if err == nil {
			t.Errorf("ParseSize(%q): expected error", in)
			continue
		}
		var sizeErr *InvalidSizeError
		if !errors.As(err, &sizeErr) {
			t.Errorf("ParseSize(%q): expected InvalidSizeError, got %T", in, err)
		}
	}
}

func TestFormatSizeRoundTrip(t *testing.T) {
	t.Parallel()

	for _, bytes := range []int64{1, 1023, 1024, 64 << 10, 256 << 20, 2 << 30, 1025, (1 << 20) + 512} {
		formatted := FormatSize(bytes)
		parsed, err := ParseSize(formatted)
		if err != nil {
			t.Errorf("ParseSize(FormatSize(%d)) = ParseSize(%q): %v", bytes, formatted, err)
			continue
		}
		if parsed != bytes {
			t.Errorf("round trip %d -> %q -> %d", bytes, formatted, parsed)
		}
	}
}
