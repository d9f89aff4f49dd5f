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

// Package pack bundles many content-addressed blobs into a single storage
// object: a pack file is the concatenated blob payloads followed by a JSON
// manifest describing where each blob landed, followed by a 4-byte
// little-endian length of that manifest. A reader can therefore always find
// the manifest by looking at the last 4 bytes of the object, without
// needing a separate index fetch.
package pack

import (
	"encoding/binary"
	"encoding/json"

	"github.com/vaultkeep/vaultkeep/errs"
	"github.com/vaultkeep/vaultkeep/hash"
	"github.com/vaultkeep/vaultkeep/util/random"
)

// TargetSize is the data size, excluding the trailing manifest, at which a
// Builder should be flushed to storage.
const TargetSize = 16 * 1024 * 1024

const lengthTrailerSize = 4

// BlobLocation describes where a blob's payload lives inside a pack file's
// data region.
type BlobLocation struct {
	Hash   hash.Hash `json:"hash"`
	Offset uint64    `json:"offset"`
	Length uint64    `json:"length"`
}

// Manifest is the trailing JSON record of a pack file: its id and the
// location of every blob it carries.
type Manifest struct {
	ID    string         `json:"id"`
	Blobs []BlobLocation `json:"blobs"`
}

// Builder accumulates blob payloads into a single pack file's data region
// and tracks where each one landed, ready to be finalized once it reaches
// its flush threshold or the caller has no more data to add.
type Builder struct {
	id             string
	data           []byte
	blobs          []BlobLocation
	flushThreshold uint64
}

// NewBuilder starts an empty pack under a freshly generated 128-bit id,
// flushing at the default TargetSize.
func NewBuilder() *Builder {
	return NewBuilderWithThreshold(TargetSize)
}

// NewBuilderWithThreshold starts an empty pack that flushes once its data
// region reaches threshold, overriding TargetSize. A threshold of 0 falls
// back to TargetSize.
func NewBuilderWithThreshold(threshold uint64) *Builder {
	if threshold == 0 {
		threshold = TargetSize
	}
	return &Builder{id: random.Id(), flushThreshold: threshold}
}

// ID returns the pack id this builder will finalize under.
func (b *Builder) ID() string { return b.id }

// IsEmpty reports whether any blob has been added yet.
func (b *Builder) IsEmpty() bool { return len(b.blobs) == 0 }

// Add appends a blob's payload to the pack's data region, recording its
// hash, offset and length. Add does not deduplicate: adding a hash that is
// already in the pack stores its payload a second time, and ExtractBlob
// returns the first copy.
func (b *Builder) Add(h hash.Hash, payload []byte) {
	offset := uint64(len(b.data))
	b.data = append(b.data, payload...)
	b.blobs = append(b.blobs, BlobLocation{Hash: h, Offset: offset, Length: uint64(len(payload))})
}

// ShouldFlush reports whether this pack's data region has reached its
// flush threshold and should be finalized rather than grow further.
func (b *Builder) ShouldFlush() bool {
	return uint64(len(b.data)) >= b.flushThreshold
}

// Finalize serializes the manifest, appends it and its length trailer to
// the data region, and returns the complete on-wire pack payload plus the
// parsed File for immediate local use (e.g. updating the index without a
// round trip through Parse).
func (b *Builder) Finalize() ([]byte, *File, error) {
	manifest := Manifest{ID: b.id, Blobs: b.blobs}

	manifestJSON, err := json.Marshal(manifest)
	if err != nil {
		return nil, nil, errs.NewParseError("pack manifest", err)
	}

	out := make([]byte, 0, len(b.data)+len(manifestJSON)+lengthTrailerSize)
	out = append(out, b.data...)
	out = append(out, manifestJSON...)

	var trailer [lengthTrailerSize]byte
	binary.LittleEndian.PutUint32(trailer[:], uint32(len(manifestJSON)))
	out = append(out, trailer[:]...)

	return out, &File{manifest: manifest, data: out[:len(b.data)]}, nil
}

// File is a parsed pack: its manifest plus the data region needed to
// extract individual blobs.
type File struct {
	manifest Manifest
	data     []byte
}

// ID returns the pack's id.
func (f *File) ID() string { return f.manifest.ID }

// Manifest returns the pack's blob location manifest.
func (f *File) Manifest() Manifest { return f.manifest }

// Parse reads a complete on-wire pack payload (as produced by
// Builder.Finalize) and extracts its manifest without copying the data
// region.
func Parse(raw []byte) (*File, error) {
	if len(raw) < lengthTrailerSize {
		return nil, errs.NewParseError("pack file", errTooSmall)
	}

	total := len(raw)
	manifestLen := int(binary.LittleEndian.Uint32(raw[total-lengthTrailerSize:]))
	if manifestLen < 0 || total < lengthTrailerSize+manifestLen {
		return nil, errs.NewParseError("pack file", errCorruptTrailer)
	}

	manifestStart := total - lengthTrailerSize - manifestLen
	var manifest Manifest
	if err := json.Unmarshal(raw[manifestStart:total-lengthTrailerSize], &manifest); err != nil {
		return nil, errs.NewParseError("pack manifest", err)
	}

	return &File{manifest: manifest, data: raw[:manifestStart]}, nil
}

// ExtractBlob returns the payload for h, or false if h is not present in
// this pack's manifest.
func (f *File) ExtractBlob(h hash.Hash) ([]byte, bool) {
	for _, loc := range f.manifest.Blobs {
		if loc.Hash == h {
			end := loc.Offset + loc.Length
			if end > uint64(len(f.data)) {
				return nil, false
			}
			return f.data[loc.Offset:end], true
		}
	}
	return nil, false
}

var (
	errTooSmall       = packErr("pack file smaller than length trailer")
	errCorruptTrailer = packErr("pack file length trailer exceeds file size")
)

type packErr string

func (e packErr) Error() string { return string(e) }
