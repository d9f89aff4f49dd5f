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
	"io/fs"
	"os"
	"path/filepath"

	"github.com/vaultkeep/vaultkeep/errs"
)

// LocalStore is a Store backed by a directory tree on local disk. Writes
// land in a sibling temp file and are renamed into place, so a reader never
// observes a partially written blob.
type LocalStore struct {
	root string
}

var _ Store = (*LocalStore)(nil)

// NewLocalStore returns a LocalStore rooted at dir, creating dir if it does
// not already exist.
func NewLocalStore(dir string) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, errs.NewStoreError("mkdir", dir, err)
	}
	return &LocalStore{root: dir}, nil
}

func (s *LocalStore) path(key string) string {
	return filepath.Join(s.root, filepath.FromSlash(key))
}

// Read implements Store.
func (s *LocalStore) Read(ctx context.Context, key string) ([]byte, error) {
	data, err := os.ReadFile(s.path(key))
	if os.IsNotExist(err) {
		return nil, &errs.NotFound{What: key}
	}
	if err != nil {
		return nil, errs.NewStoreError("read", key, err)
	}
	return data, nil
}

// Write implements Store.
func (s *LocalStore) Write(ctx context.Context, key string, data []byte) error {
	dest := s.path(key)
	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return errs.NewStoreError("mkdir", key, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(dest), ".tmp-*")
	if err != nil {
		return errs.NewStoreError("write", key, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return errs.NewStoreError("write", key, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return errs.NewStoreError("write", key, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return errs.NewStoreError("write", key, err)
	}

	if err := os.Rename(tmpName, dest); err != nil {
		os.Remove(tmpName)
		return errs.NewStoreError("write", key, err)
	}
	return nil
}

// Exists implements Store.
func (s *LocalStore) Exists(ctx context.Context, key string) (bool, error) {
	_, err := os.Stat(s.path(key))
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, errs.NewStoreError("stat", key, err)
	}
	return true, nil
}

// List implements Store.
func (s *LocalStore) List(ctx context.Context, prefix string) ([]string, error) {
	base := s.path(prefix)

	info, err := os.Stat(base)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, errs.NewStoreError("list", prefix, err)
	}
	if !info.IsDir() {
		rel, err := filepath.Rel(s.root, base)
		if err != nil {
			return nil, errs.NewStoreError("list", prefix, err)
		}
		return []string{filepath.ToSlash(rel)}, nil
	}

	var keys []string
	err = filepath.WalkDir(base, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(s.root, p)
		if err != nil {
			return err
		}
		keys = append(keys, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, errs.NewStoreError("list", prefix, err)
	}
	return keys, nil
}

// Delete implements Store.
func (s *LocalStore) Delete(ctx context.Context, key string) error {
	err := os.Remove(s.path(key))
	if err != nil && !os.IsNotExist(err) {
		return errs.NewStoreError("delete", key, err)
	}
	return nil
}
