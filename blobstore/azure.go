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
	"io"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/container"

	"github.com/vaultkeep/vaultkeep/errs"
)

// azureClient is the narrow slice of the azblob container client this
// package calls, so tests can substitute an in-memory fake instead of
// talking to a real storage account.
type azureClient interface {
	DownloadStream(ctx context.Context, blobName string) (io.ReadCloser, error)
	UploadBuffer(ctx context.Context, blobName string, data []byte) error
	GetProperties(ctx context.Context, blobName string) error
	ListBlobs(ctx context.Context, prefix string) ([]string, error)
	DeleteBlob(ctx context.Context, blobName string) error
}

// AzureStore is a Store backed by an Azure Blob Storage container.
type AzureStore struct {
	client azureClient
	prefix string
}

var _ Store = (*AzureStore)(nil)

// NewAzureStore returns an AzureStore writing blobs to containerClient
// under prefix.
func NewAzureStore(containerClient *container.Client, prefix string) *AzureStore {
	return newAzureStoreWithClient(&azureContainerClient{c: containerClient}, prefix)
}

func newAzureStoreWithClient(client azureClient, prefix string) *AzureStore {
	return &AzureStore{client: client, prefix: normalizePrefix(prefix)}
}

func (s *AzureStore) absKey(key string) string {
	return joinKey(s.prefix, key)
}

// Read implements Store.
func (s *AzureStore) Read(ctx context.Context, key string) ([]byte, error) {
	body, err := s.client.DownloadStream(ctx, s.absKey(key))
	if err != nil {
		if isAzureNotFound(err) {
			return nil, &errs.NotFound{What: key}
		}
		return nil, errs.NewStoreError("read", key, err)
	}
	defer body.Close()

	data, err := io.ReadAll(body)
	if err != nil {
		return nil, errs.NewStoreError("read", key, err)
	}
	return data, nil
}

// Write implements Store.
func (s *AzureStore) Write(ctx context.Context, key string, data []byte) error {
	if err := s.client.UploadBuffer(ctx, s.absKey(key), data); err != nil {
		return errs.NewStoreError("write", key, err)
	}
	return nil
}

// Exists implements Store.
func (s *AzureStore) Exists(ctx context.Context, key string) (bool, error) {
	err := s.client.GetProperties(ctx, s.absKey(key))
	if err == nil {
		return true, nil
	}
	if isAzureNotFound(err) {
		return false, nil
	}
	return false, errs.NewStoreError("stat", key, err)
}

// List implements Store.
func (s *AzureStore) List(ctx context.Context, prefix string) ([]string, error) {
	names, err := s.client.ListBlobs(ctx, s.absKey(prefix))
	if err != nil {
		return nil, errs.NewStoreError("list", prefix, err)
	}

	keys := make([]string, len(names))
	for i, n := range names {
		keys[i] = trimPrefix(n, s.prefix)
	}
	return keys, nil
}

// Delete implements Store.
func (s *AzureStore) Delete(ctx context.Context, key string) error {
	if err := s.client.DeleteBlob(ctx, s.absKey(key)); err != nil {
		if isAzureNotFound(err) {
			return nil
		}
		return errs.NewStoreError("delete", key, err)
	}
	return nil
}

func isAzureNotFound(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "BlobNotFound") || strings.Contains(msg, "404")
}

// azureContainerClient adapts the real *container.Client to the azureClient
// interface this package depends on.
type azureContainerClient struct {
	c *container.Client
}

func (a *azureContainerClient) DownloadStream(ctx context.Context, blobName string) (io.ReadCloser, error) {
	resp, err := a.c.NewBlobClient(blobName).DownloadStream(ctx, nil)
	if err != nil {
		return nil, err
	}
	return resp.Body, nil
}

func (a *azureContainerClient) UploadBuffer(ctx context.Context, blobName string, data []byte) error {
	_, err := a.c.NewBlockBlobClient(blobName).UploadBuffer(ctx, data, &azblob.UploadBufferOptions{})
	return err
}

func (a *azureContainerClient) GetProperties(ctx context.Context, blobName string) error {
	_, err := a.c.NewBlobClient(blobName).GetProperties(ctx, nil)
	return err
}

func (a *azureContainerClient) ListBlobs(ctx context.Context, prefix string) ([]string, error) {
	var names []string
	pager := a.c.NewListBlobsFlatPager(&container.ListBlobsFlatOptions{Prefix: &prefix})
	for pager.More() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		for _, item := range page.Segment.BlobItems {
			if item.Name != nil {
				names = append(names, *item.Name)
			}
		}
	}
	return names, nil
}

func (a *azureContainerClient) DeleteBlob(ctx context.Context, blobName string) error {
	_, err := a.c.NewBlobClient(blobName).Delete(ctx, nil)
	return err
}
