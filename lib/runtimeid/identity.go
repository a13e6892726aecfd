// Copyright 2026 The Quarry Authors
// SPDX-License-Identifier: Apache-2.0

package runtimeid

import (
	"encoding/hex"
	"fmt"

	"github.com/zeebo/blake3"
)

// Identity is a 32-byte BLAKE3 digest identifying one runtime
// installation. The zero value means "no installation pinned" and
// matches nothing; use IsZero to test for it.
type Identity [32]byte

// installDomainKey is the 32-byte key for BLAKE3 keyed hashing. Domain
// separation keeps installation identities from colliding with any
// other hash Quarry computes over the same bytes. The byte values are
// the ASCII encoding of the domain name, zero-padded to 32 bytes, so
// the key is inspectable in hex dumps.
var installDomainKey = [32]byte{
	'q', 'u', 'a', 'r', 'r', 'y', '.', 'r', 'u', 'n', 't', 'i', 'm', 'e', '.',
	'i', 'n', 's', 't', 'a', 'l', 'l', 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
}

// ForInstall computes the identity of the runtime installation at
// home with the given version string. The two inputs are length-
// prefixed before hashing so ("/opt/a", "b17") and ("/opt/ab", "17")
// produce distinct identities.
func ForInstall(home, version string) Identity {
	// NewKeyed requires exactly 32 bytes, which installDomainKey
	// guarantees; the error is only returned for wrong key length.
	hasher, err := blake3.NewKeyed(installDomainKey[:])
	if err != nil {
		panic("runtimeid: BLAKE3 keyed hash initialization failed: " + err.Error())
	}
	writeLengthPrefixed(hasher, home)
	writeLengthPrefixed(hasher, version)

	var id Identity
	copy(id[:], hasher.Sum(nil))
	return id
}

func writeLengthPrefixed(hasher *blake3.Hasher, s string) {
	var length [8]byte
	for i := 0; i < 8; i++ {
		length[i] = byte(len(s) >> (8 * i))
	}
	hasher.Write(length[:])
	hasher.Write([]byte(s))
}

// IsZero reports whether the identity is the zero value, meaning no
// installation is pinned.
func (id Identity) IsZero() bool {
	return id == Identity{}
}

// String returns the hex encoding of the identity. This is the
// canonical format used in the worker registry, logs, and CLI output.
func (id Identity) String() string {
	return hex.EncodeToString(id[:])
}

// Short returns the first 12 hex characters, for log and list output
// where the full digest is noise.
func (id Identity) Short() string {
	return id.String()[:12]
}

// Parse parses a 64-character hex identity string.
func Parse(s string) (Identity, error) {
	var id Identity
	decoded, err := hex.DecodeString(s)
	if err != nil {
		return id, fmt.Errorf("parsing runtime identity: %w", err)
	}
	if len(decoded) != len(id) {
		return id, fmt.Errorf("runtime identity is %d bytes, want %d", len(decoded), len(id))
	}
	copy(id[:], decoded)
	return id, nil
}

// MarshalText implements encoding.TextMarshaler so identities
// serialize as hex strings in the registry and config formats.
func (id Identity) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (id *Identity) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}
