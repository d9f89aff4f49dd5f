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
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockAzureClient struct {
	mu      sync.Mutex
	objects map[string][]byte

	downloadStreamFn func(ctx context.Context, blobName string) (io.ReadCloser, error)
	getPropertiesFn  func(ctx context.Context, blobName string) error
}

func newMockAzureClient() *mockAzureClient {
	return &mockAzureClient{objects: map[string][]byte{}}
}

func (m *mockAzureClient) DownloadStream(ctx context.Context, blobName string) (io.ReadCloser, error) {
	if m.downloadStreamFn != nil {
		return m.downloadStreamFn(ctx, blobName)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objects[blobName]
	if !ok {
		return nil, errors.New("BlobNotFound: The specified blob does not exist")
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (m *mockAzureClient) UploadBuffer(ctx context.Context, blobName string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[blobName] = append([]byte(nil), data...)
	return nil
}

func (m *mockAzureClient) GetProperties(ctx context.Context, blobName string) error {
	if m.getPropertiesFn != nil {
		return m.getPropertiesFn(ctx, blobName)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.objects[blobName]; !ok {
		return errors.New("RESPONSE 404: 404 Not Found")
	}
	return nil
}

func (m *mockAzureClient) ListBlobs(ctx context.Context, prefix string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var names []string
	for name := range m.objects {
		if strings.HasPrefix(name, prefix) {
			names = append(names, name)
		}
	}
	return names, nil
}

func (m *mockAzureClient) DeleteBlob(ctx context.Context, blobName string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, blobName)
	return nil
}

func TestAzureStoreWriteReadRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newAzureStoreWithClient(newMockAzureClient(), "backups")

	require.NoError(t, s.Write(ctx, "key", []byte("payload")))

	got, err := s.Read(ctx, "key")
	require.NoError(t, err)
	assert.Equal(t, []byte("payload"), got)
}

func TestAzureStorePrefixesKeys(t *testing.T) {
	ctx := context.Background()
	mock := newMockAzureClient()
	s := newAzureStoreWithClient(mock, "backups")

	require.NoError(t, s.Write(ctx, "key", []byte("v")))

	mock.mu.Lock()
	_, ok := mock.objects["backups/key"]
	mock.mu.Unlock()
	assert.True(t, ok)
}

func TestAzureStoreReadMissingBlobIsNotFound(t *testing.T) {
	ctx := context.Background()
	s := newAzureStoreWithClient(newMockAzureClient(), "")

	_, err := s.Read(ctx, "missing")
	require.Error(t, err)
}

func TestAzureStoreExistsDistinguishesNotFoundFromOtherErrors(t *testing.T) {
	ctx := context.Background()

	mock := newMockAzureClient()
	mock.getPropertiesFn = func(ctx context.Context, blobName string) error {
		return errors.New("BlobNotFound: The specified blob does not exist")
	}
	s := newAzureStoreWithClient(mock, "")
	ok, err := s.Exists(ctx, "key")
	require.NoError(t, err)
	assert.False(t, ok)

	mock.getPropertiesFn = func(ctx context.Context, blobName string) error {
		return errors.New("connection reset by peer")
	}
	_, err = s.Exists(ctx, "key")
	require.Error(t, err)
}

func TestAzureStoreListStripsPrefix(t *testing.T) {
	ctx := context.Background()
	s := newAzureStoreWithClient(newMockAzureClient(), "backups")

	require.NoError(t, s.Write(ctx, "a", []byte("1")))
	require.NoError(t, s.Write(ctx, "b", []byte("2")))

	keys, err := s.List(ctx, "")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a", "b"}, keys)
}

func TestAzureStoreDeleteMissingIsNotAnError(t *testing.T) {
	ctx := context.Background()
	s := newAzureStoreWithClient(newMockAzureClient(), "")

	assert.NoError(t, s.Delete(ctx, "never-written"))
}
