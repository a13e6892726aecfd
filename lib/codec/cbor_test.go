// Copyright 2026 The Quarry Authors
// SPDX-License-Identifier: Apache-2.0

package codec

import (
	"bytes"
	"testing"

	"github.com/quarry-build/quarry/lib/runtimeid"
)

// sampleRecord is a representative internal record using cbor struct
// tags, the convention for purely-internal types.
type sampleRecord struct {
	Name       string            `cbor:"name"`
	Properties map[string]string `cbor:"properties,omitempty"`
	Count      int               `cbor:"count"`
}

func TestMarshalUnmarshalRoundtrip(t *testing.T) {
	t.Parallel()

	original := sampleRecord{
		Name:       "worker-17",
		Properties: map[string]string{"java.awt.headless": "true"},
		Count:      3,
	}

	data, err := Marshal(original)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if len(data) == 0 {
		t.Fatal("Marshal produced empty output")
	}

	var decoded sampleRecord
	if err := Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if decoded.Name != original.Name || decoded.Count != original.Count {
		t.Errorf("roundtrip mismatch: got %+v, want %+v", decoded, original)
	}
	if decoded.Properties["java.awt.headless"] != "true" {
		t.Errorf("roundtrip lost property map: %+v", decoded.Properties)
	}
}

func TestMarshalDeterministicMapOrder(t *testing.T) {
	t.Parallel()

	// Map iteration order is randomized by the runtime; deterministic
	// encoding must still produce identical bytes every time. The pool
	// fingerprints requests from these bytes.
	record := sampleRecord{
		Name: "fingerprint",
		Properties: map[string]string{
			"z.last": "1", "a.first": "2", "m.middle": "3", "b.second": "4",
		},
	}

	first, err := Marshal(record)
	if err != nil {
		t.Fatalf("first Marshal: %v", err)
	}
	for i := 0; i < 16; i++ {
		again, err := Marshal(record)
		if err != nil {
			t.Fatalf("Marshal #%d: %v", i, err)
		}
		if !bytes.Equal(first, again) {
			t.Fatalf("deterministic encoding violated: %x != %x", first, again)
		}
	}
}

func TestTextMarshalerEncodesAsString(t *testing.T) {
	t.Parallel()

	// runtimeid.Identity implements encoding.TextMarshaler. It must
	// survive a roundtrip rather than collapsing to an empty CBOR map.
	type record struct {
		Identity runtimeid.Identity `cbor:"identity"`
	}

	original := record{Identity: runtimeid.ForInstall("/opt/runtime/17", "17.0.2")}
	data, err := Marshal(original)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var decoded record
	if err := Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if decoded.Identity != original.Identity {
		t.Errorf("identity roundtrip mismatch: %s != %s", decoded.Identity, original.Identity)
	}
}

func TestUnmarshalIgnoresUnknownFields(t *testing.T) {
	t.Parallel()

	// A newer binary may add fields; older readers must not choke.
	type wide struct {
		Name  string `cbor:"name"`
		Extra string `cbor:"extra"`
	}
	type narrow struct {
		Name string `cbor:"name"`
	}

	data, err := Marshal(wide{Name: "w", Extra: "future"})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var decoded narrow
	if err := Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if decoded.Name != "w" {
		t.Errorf("expected name %q, got %q", "w", decoded.Name)
	}
}
