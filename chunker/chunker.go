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

// Package chunker splits a byte stream into content-defined chunks using a
// rolling hash, so that inserting or removing bytes in the middle of a large
// file only perturbs the chunks adjacent to the edit rather than every chunk
// downstream of it.
package chunker

import (
	"io"

	resticchunker "github.com/restic/chunker"

	"github.com/vaultkeep/vaultkeep/hash"
)

// Pol is the fixed splitting polynomial every repository chunks against.
// Using one polynomial for every repository keeps chunking deterministic
// across open/close cycles without needing a place to persist a per-repo
// value.
const Pol = resticchunker.Pol(0x3DA3358B4DC173)

const (
	// MinSize is the smallest a non-final chunk is allowed to be.
	MinSize = 512 * 1024
	// MaxSize is the largest any chunk is allowed to be.
	MaxSize = 8 * 1024 * 1024
)

// Chunk is one content-defined slice of an input stream, along with its
// content hash and its offset within that stream.
type Chunk struct {
	Hash   hash.Hash
	Offset uint64
	Length uint64
	Data   []byte
}

// ToRef drops Data, leaving the lightweight reference stored in a tree node.
func (c Chunk) ToRef() Ref {
	return Ref{Hash: c.Hash, Offset: c.Offset, Length: c.Length}
}

// Ref is a chunk's identity without its payload, as persisted in a
// snapshot's tree.
type Ref struct {
	Hash   hash.Hash `json:"hash"`
	Offset uint64    `json:"offset"`
	Length uint64    `json:"length"`
}

func init() {
	resticchunker.MinSize = MinSize
	resticchunker.MaxSize = MaxSize
}

// Split reads all of r and returns its content-defined chunks in stream
// order, using the package's default MinSize/MaxSize bounds. An empty input
// yields a single zero-length chunk, so that empty files still round-trip
// through a ChunkRef.
func Split(r io.Reader) ([]Chunk, error) {
	return SplitWithSizes(r, MinSize, MaxSize)
}

// SplitWithSizes is Split with the rolling hash's min/max chunk bounds
// overridden, so an overlay can trade dedup granularity for fewer, larger
// chunks (or vice versa) without touching the fixed splitting polynomial.
// restic/chunker configures these bounds through package-level variables
// rather than per-instance options, so SplitWithSizes swaps them in for the
// duration of the call and restores the previous values before returning;
// callers must not run Split/SplitWithSizes concurrently on the same
// process, consistent with this module's single-writer concurrency model.
func SplitWithSizes(r io.Reader, minSize, maxSize uint64) ([]Chunk, error) {
	if minSize == 0 {
		minSize = MinSize
	}
	if maxSize == 0 {
		maxSize = MaxSize
	}

	prevMin, prevMax := resticchunker.MinSize, resticchunker.MaxSize
	resticchunker.MinSize, resticchunker.MaxSize = int(minSize), int(maxSize)
	defer func() {
		resticchunker.MinSize, resticchunker.MaxSize = prevMin, prevMax
	}()

	chunkr := resticchunker.New(r, Pol)
	buf := make([]byte, maxSize)

	var chunks []Chunk
	var offset uint64
	for {
		c, err := chunkr.Next(buf)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		data := make([]byte, len(c.Data))
		copy(data, c.Data)

		chunks = append(chunks, Chunk{
			Hash:   hash.Of(data),
			Offset: offset,
			Length: uint64(c.Length),
			Data:   data,
		})
		offset += uint64(c.Length)
	}

	if len(chunks) == 0 {
		chunks = append(chunks, Chunk{Hash: hash.Of(nil), Offset: 0, Length: 0, Data: []byte{}})
	}

	return chunks, nil
}

// Reassemble concatenates chunk payloads back into the original byte
// stream, in the order given. Callers are responsible for supplying chunks
// in their original stream order; Reassemble does not sort by Offset.
func Reassemble(chunks []Chunk) []byte {
	var total int
	for _, c := range chunks {
		total += len(c.Data)
	}

	out := make([]byte, 0, total)
	for _, c := range chunks {
		out = append(out, c.Data...)
	}
	return out
}
