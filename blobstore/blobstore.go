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

// Package blobstore defines the flat, backend-agnostic object store that
// every other layer of the repository (packs, index, snapshots, config)
// reads and writes through. A Store has no notion of packs or chunks: it
// just holds named byte blobs under a single flat key namespace.
package blobstore

import (
	"context"
	"strings"
)

// Store is the minimal surface a backend must provide. Every method takes
// a key relative to the store's own root/prefix; backends are responsible
// for translating that into whatever addressing their medium needs
// (a file path, an S3 key, a blob name).
type Store interface {
	// Read returns the complete contents stored under key, or a
	// *errs.NotFound-wrapped error if no such key exists.
	Read(ctx context.Context, key string) ([]byte, error)

	// Write stores data under key, replacing any existing value.
	Write(ctx context.Context, key string, data []byte) error

	// Exists reports whether key is present.
	Exists(ctx context.Context, key string) (bool, error)

	// List returns every key with the given prefix, in no particular
	// order.
	List(ctx context.Context, prefix string) ([]string, error)

	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error
}

// cipher is the subset of vkcrypto.Engine's method set EncryptingStore
// needs; declared here so this package stays decoupled from vkcrypto and
// depends only on the shape of the operation it uses.
type cipher interface {
	Encrypt(plaintext []byte) ([]byte, error)
	Decrypt(data []byte) ([]byte, error)
}

// EncryptingStore wraps another Store, transparently encrypting every
// payload on Write and decrypting it on Read. Exists/List/Delete pass
// through unchanged since key names carry no payload bytes.
type EncryptingStore struct {
	inner  Store
	cipher cipher
}

// NewEncryptingStore wraps inner so every Read/Write goes through c.
func NewEncryptingStore(inner Store, c cipher) *EncryptingStore {
	return &EncryptingStore{inner: inner, cipher: c}
}

// Read returns the decrypted contents stored under key.
func (s *EncryptingStore) Read(ctx context.Context, key string) ([]byte, error) {
	data, err := s.inner.Read(ctx, key)
	if err != nil {
		return nil, err
	}
	return s.cipher.Decrypt(data)
}

// Write encrypts data and stores it under key.
func (s *EncryptingStore) Write(ctx context.Context, key string, data []byte) error {
	ciphertext, err := s.cipher.Encrypt(data)
	if err != nil {
		return err
	}
	return s.inner.Write(ctx, key, ciphertext)
}

// Exists reports whether key is present.
func (s *EncryptingStore) Exists(ctx context.Context, key string) (bool, error) {
	return s.inner.Exists(ctx, key)
}

// List returns every key with the given prefix.
func (s *EncryptingStore) List(ctx context.Context, prefix string) ([]string, error) {
	return s.inner.List(ctx, prefix)
}

// Delete removes key.
func (s *EncryptingStore) Delete(ctx context.Context, key string) error {
	return s.inner.Delete(ctx, key)
}

// normalizePrefix strips any leading path separators from a configured
// prefix, so that callers can write either "backups" or "/backups"
// interchangeably.
func normalizePrefix(prefix string) string {
	return strings.TrimLeft(prefix, "/")
}

// joinKey concatenates a prefix and a key with a single separator, omitting
// the separator entirely when prefix is empty.
func joinKey(prefix, key string) string {
	prefix = normalizePrefix(prefix)
	if prefix == "" {
		return key
	}
	return prefix + "/" + key
}
