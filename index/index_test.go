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

package index

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vaultkeep/vaultkeep/blobstore"
	"github.com/vaultkeep/vaultkeep/hash"
	"github.com/vaultkeep/vaultkeep/pack"
)

func TestAddContainsLookup(t *testing.T) {
	idx := New()
	h := hash.Of([]byte("blob"))

	assert.False(t, idx.Contains(h))

	idx.Add(h, BlobLocation{PackID: "pack1", Offset: 10, Length: 20})
	assert.True(t, idx.Contains(h))

	loc, ok := idx.Lookup(h)
	require.True(t, ok)
	assert.Equal(t, "pack1", loc.PackID)
	assert.Equal(t, uint64(10), loc.Offset)
	assert.Equal(t, uint64(20), loc.Length)

	assert.Equal(t, 1, idx.Len())
}

func TestSaveLoadRoundTrip(t *testing.T) {
	ctx := context.Background()
	store, err := blobstore.NewLocalStore(t.TempDir())
	require.NoError(t, err)

	idx := New()
	h1 := hash.Of([]byte("a"))
	h2 := hash.Of([]byte("b"))
	idx.Add(h1, BlobLocation{PackID: "p1", Offset: 0, Length: 1})
	idx.Add(h2, BlobLocation{PackID: "p2", Offset: 1, Length: 2})

	require.NoError(t, idx.Save(ctx, store))

	loaded, err := Load(ctx, store)
	require.NoError(t, err)
	assert.Equal(t, 2, loaded.Len())

	loc, ok := loaded.Lookup(h1)
	require.True(t, ok)
	assert.Equal(t, "p1", loc.PackID)
}

func TestLoadMissingIndexReturnsNotFound(t *testing.T) {
	ctx := context.Background()
	store, err := blobstore.NewLocalStore(t.TempDir())
	require.NoError(t, err)

	_, err = Load(ctx, store)
	require.Error(t, err)
}

func TestRebuildFromPackManifests(t *testing.T) {
	ctx := context.Background()
	store, err := blobstore.NewLocalStore(t.TempDir())
	require.NoError(t, err)

	b := pack.NewBuilder()
	data1 := []byte("chunk one")
	data2 := []byte("chunk two")
	h1 := hash.Of(data1)
	h2 := hash.Of(data2)
	b.Add(h1, data1)
	b.Add(h2, data2)

	raw, _, err := b.Finalize()
	require.NoError(t, err)
	require.NoError(t, store.Write(ctx, "packs/"+b.ID(), raw))

	rebuilt, err := Rebuild(ctx, store)
	require.NoError(t, err)
	assert.Equal(t, 2, rebuilt.Len())

	loc, ok := rebuilt.Lookup(h1)
	require.True(t, ok)
	assert.Equal(t, b.ID(), loc.PackID)
}

func TestRebuildEmptyStoreYieldsEmptyIndex(t *testing.T) {
	ctx := context.Background()
	store, err := blobstore.NewLocalStore(t.TempDir())
	require.NoError(t, err)

	idx, err := Rebuild(ctx, store)
	require.NoError(t, err)
	assert.Equal(t, 0, idx.Len())
}

func TestRebuildRecoversFromCorruptedIndexJSON(t *testing.T) {
	ctx := context.Background()
	store, err := blobstore.NewLocalStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.Write(ctx, Key, []byte("not json")))

	b := pack.NewBuilder()
	data := []byte("payload")
	h := hash.Of(data)
	b.Add(h, data)
	raw, _, err := b.Finalize()
	require.NoError(t, err)
	require.NoError(t, store.Write(ctx, "packs/"+b.ID(), raw))

	rebuilt, err := Rebuild(ctx, store)
	require.NoError(t, err)
	assert.True(t, rebuilt.Contains(h))
}
