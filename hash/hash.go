// Copyright 2019 Dolthub, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package hash defines the 256-bit content identifier used everywhere a
// chunk or blob needs to be addressed by its content: chunk hashes, index
// keys and pack manifest entries all share this type.
package hash

import (
	"bytes"
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/blake2b"
)

// ByteLen is the width of a Hash in raw bytes.
const ByteLen = 32

// StringLen is the width of a Hash's hex-encoded String() representation.
const StringLen = ByteLen * 2

// Hash is a 256-bit content hash. The zero value is the "empty" hash and is
// a valid, comparable value.
type Hash [ByteLen]byte

var emptyHash = Hash{}

// Of returns the content hash of data.
func Of(data []byte) Hash {
	return Hash(blake2b.Sum256(data))
}

// New builds a Hash from a raw 32-byte slice, panicking if the length is
// wrong. Pack manifests and index.json decode hashes through UnmarshalText,
// not New.
func New(data []byte) Hash {
	if len(data) != ByteLen {
		panic(fmt.Sprintf("hash: wrong byte length %d, expected %d", len(data), ByteLen))
	}
	var h Hash
	copy(h[:], data)
	return h
}

// Parse decodes a hex-encoded hash, panicking if s isn't a valid encoding.
// Mirrors the rest of the corpus's Parse-panics/MaybeParse-returns-bool
// pairing: callers that expect a constant, known-good literal use Parse;
// callers handling arbitrary input use MaybeParse.
func Parse(s string) Hash {
	h, ok := MaybeParse(s)
	if !ok {
		panic(fmt.Sprintf("hash: invalid hash string %q", s))
	}
	return h
}

// MaybeParse decodes a hex-encoded hash, returning ok=false instead of
// panicking when s is malformed.
func MaybeParse(s string) (Hash, bool) {
	if len(s) != StringLen {
		return emptyHash, false
	}
	raw, err := hex.DecodeString(s)
	if err != nil {
		return emptyHash, false
	}
	var h Hash
	copy(h[:], raw)
	return h, true
}

// String returns the lowercase hex encoding of h.
func (h Hash) String() string {
	return hex.EncodeToString(h[:])
}

// IsEmpty returns true if h is the zero hash.
func (h Hash) IsEmpty() bool {
	return h == emptyHash
}

// Less reports whether h sorts before other.
func (h Hash) Less(other Hash) bool {
	return bytes.Compare(h[:], other[:]) < 0
}

// Compare returns -1, 0 or 1 depending on how h orders against other.
func (h Hash) Compare(other Hash) int {
	return bytes.Compare(h[:], other[:])
}

// MarshalText implements encoding.TextMarshaler so a Hash can be used
// directly as a JSON object key (e.g. index.json's hash -> location map).
func (h Hash) MarshalText() ([]byte, error) {
	return []byte(h.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (h *Hash) UnmarshalText(text []byte) error {
	parsed, ok := MaybeParse(string(text))
	if !ok {
		return fmt.Errorf("hash: invalid hash string %q", string(text))
	}
	*h = parsed
	return nil
}
