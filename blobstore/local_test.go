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

package blobstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStoreWriteReadRoundTrip(t *testing.T) {
	ctx := context.Background()
	s, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, s.Write(ctx, "packs/abc", []byte("hello")))

	got, err := s.Read(ctx, "packs/abc")
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), got)
}

func TestLocalStoreReadMissingKeyIsNotFound(t *testing.T) {
	ctx := context.Background()
	s, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)

	_, err = s.Read(ctx, "missing")
	require.Error(t, err)
}

func TestLocalStoreExists(t *testing.T) {
	ctx := context.Background()
	s, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)

	ok, err := s.Exists(ctx, "key")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Write(ctx, "key", []byte("v")))

	ok, err = s.Exists(ctx, "key")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestLocalStoreWriteOverwrites(t *testing.T) {
	ctx := context.Background()
	s, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, s.Write(ctx, "key", []byte("first")))
	require.NoError(t, s.Write(ctx, "key", []byte("second")))

	got, err := s.Read(ctx, "key")
	require.NoError(t, err)
	assert.Equal(t, []byte("second"), got)
}

func TestLocalStoreList(t *testing.T) {
	ctx := context.Background()
	s, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, s.Write(ctx, "packs/a", []byte("1")))
	require.NoError(t, s.Write(ctx, "packs/b", []byte("2")))
	require.NoError(t, s.Write(ctx, "index.json", []byte("3")))

	keys, err := s.List(ctx, "packs")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"packs/a", "packs/b"}, keys)
}

func TestLocalStoreListEmptyPrefix(t *testing.T) {
	ctx := context.Background()
	s, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)

	keys, err := s.List(ctx, "nonexistent")
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func TestLocalStoreDelete(t *testing.T) {
	ctx := context.Background()
	s, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, s.Write(ctx, "key", []byte("v")))
	require.NoError(t, s.Delete(ctx, "key"))

	ok, err := s.Exists(ctx, "key")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestLocalStoreDeleteMissingKeyIsNotAnError(t *testing.T) {
	ctx := context.Background()
	s, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)

	assert.NoError(t, s.Delete(ctx, "never-written"))
}

func TestLocalStoreNoPartialWriteVisibleOnFailure(t *testing.T) {
	ctx := context.Background()
	s, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, s.Write(ctx, "key", []byte("stable")))

	keys, err := s.List(ctx, "")
	require.NoError(t, err)
	for _, k := range keys {
		assert.NotContains(t, k, ".tmp-")
	}
}
