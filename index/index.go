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

// Package index maps blob hashes to the pack that holds them. The on-disk
// index is a cache: the pack manifests under blobstore are the source of
// truth, and a corrupted or missing index.json can always be reconstructed
// by scanning every pack in the store.
package index

import (
	"context"
	"encoding/json"
	"strings"
	"sync"

	"github.com/vaultkeep/vaultkeep/blobstore"
	"github.com/vaultkeep/vaultkeep/errs"
	"github.com/vaultkeep/vaultkeep/hash"
	"github.com/vaultkeep/vaultkeep/pack"
)

// Key is the object store key the index is persisted under.
const Key = "index.json"

const packPrefix = "packs/"

// BlobLocation records which pack a blob lives in, and where within it.
type BlobLocation struct {
	PackID string `json:"pack_id"`
	Offset uint64 `json:"offset"`
	Length uint64 `json:"length"`
}

// Index is the in-memory, hash-keyed lookup table from content hash to pack
// location. It is safe for concurrent use.
type Index struct {
	mu      sync.RWMutex
	entries map[hash.Hash]BlobLocation
}

// New returns an empty Index.
func New() *Index {
	return &Index{entries: map[hash.Hash]BlobLocation{}}
}

// Add records (or overwrites) the location of h.
func (idx *Index) Add(h hash.Hash, loc BlobLocation) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.entries[h] = loc
}

// Contains reports whether h is already indexed.
func (idx *Index) Contains(h hash.Hash) bool {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	_, ok := idx.entries[h]
	return ok
}

// Lookup returns h's pack location, if indexed.
func (idx *Index) Lookup(h hash.Hash) (BlobLocation, bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	loc, ok := idx.entries[h]
	return loc, ok
}

// Len returns the number of indexed blobs.
func (idx *Index) Len() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.entries)
}

// Range calls fn once per indexed entry, in no particular order. fn must
// not call back into idx.
func (idx *Index) Range(fn func(h hash.Hash, loc BlobLocation)) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	for h, loc := range idx.entries {
		fn(h, loc)
	}
}

// onDiskIndex is the on-disk shape of the whole index; hash.Hash marshals as
// its hex string via MarshalText, so entries become a plain string-keyed JSON
// object.
type onDiskIndex struct {
	Entries map[hash.Hash]BlobLocation `json:"entries"`
}

// Marshal serializes the index to its on-disk JSON form.
func (idx *Index) Marshal() ([]byte, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	data, err := json.Marshal(onDiskIndex{Entries: idx.entries})
	if err != nil {
		return nil, errs.NewParseError("index", err)
	}
	return data, nil
}

// unmarshal replaces idx's contents with the index encoded in data.
func (idx *Index) unmarshal(data []byte) error {
	var onDisk onDiskIndex
	if err := json.Unmarshal(data, &onDisk); err != nil {
		return errs.NewParseError("index", err)
	}
	if onDisk.Entries == nil {
		onDisk.Entries = map[hash.Hash]BlobLocation{}
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.entries = onDisk.Entries
	return nil
}

// Save persists the index to store as Key via an atomic write.
func (idx *Index) Save(ctx context.Context, store blobstore.Store) error {
	data, err := idx.Marshal()
	if err != nil {
		return err
	}
	return store.Write(ctx, Key, data)
}

// Load reads and parses the index from store. Callers that get a
// *errs.NotFound back should fall to Rebuild.
func Load(ctx context.Context, store blobstore.Store) (*Index, error) {
	data, err := store.Read(ctx, Key)
	if err != nil {
		return nil, err
	}

	idx := New()
	if err := idx.unmarshal(data); err != nil {
		return nil, err
	}
	return idx, nil
}

// Rebuild reconstructs the index from scratch by reading every pack
// manifest in store. Pack manifests are authoritative, so this always
// produces a correct index even if index.json was lost or corrupted.
func Rebuild(ctx context.Context, store blobstore.Store) (*Index, error) {
	keys, err := store.List(ctx, packPrefix)
	if err != nil {
		return nil, err
	}

	idx := New()
	for _, key := range keys {
		raw, err := store.Read(ctx, key)
		if err != nil {
			return nil, err
		}

		f, err := pack.Parse(raw)
		if err != nil {
			return nil, err
		}

		packID := packIDFromKey(key, f.ID())
		for _, blob := range f.Manifest().Blobs {
			idx.Add(blob.Hash, BlobLocation{PackID: packID, Offset: blob.Offset, Length: blob.Length})
		}
	}

	return idx, nil
}

func packIDFromKey(key, fallback string) string {
	name := key
	if i := strings.LastIndex(key, "/"); i >= 0 {
		name = key[i+1:]
	}
	if name == "" {
		return fallback
	}
	return name
}
