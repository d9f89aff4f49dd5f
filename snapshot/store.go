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

package snapshot

import (
	"context"
	"sort"
	"strings"

	"github.com/vaultkeep/vaultkeep/blobstore"
	"github.com/vaultkeep/vaultkeep/errs"
)

const keyPrefix = "snapshots/"
const keySuffix = ".json"

func keyFor(id string) string {
	return keyPrefix + id + keySuffix
}

// Store persists and retrieves snapshots against an object store.
type Store struct {
	backend blobstore.Store
}

// NewStore wraps backend as a snapshot Store.
func NewStore(backend blobstore.Store) *Store {
	return &Store{backend: backend}
}

// Save writes s under its own id. Snapshots are write-once: ids are
// 128-bit random values, so collisions are not checked for.
func (s *Store) Save(ctx context.Context, snap *Snapshot) error {
	data, err := snap.Marshal()
	if err != nil {
		return errs.NewParseError("snapshot", err)
	}
	return s.backend.Write(ctx, keyFor(snap.ID), data)
}

// List returns every snapshot in the store, sorted by timestamp
// descending (most recent first).
func (s *Store) List(ctx context.Context) ([]*Snapshot, error) {
	keys, err := s.backend.List(ctx, keyPrefix)
	if err != nil {
		return nil, err
	}

	snaps := make([]*Snapshot, 0, len(keys))
	for _, key := range keys {
		data, err := s.backend.Read(ctx, key)
		if err != nil {
			return nil, err
		}
		snap, err := Unmarshal(data)
		if err != nil {
			return nil, errs.NewParseError("snapshot "+key, err)
		}
		snaps = append(snaps, snap)
	}

	sort.Slice(snaps, func(i, j int) bool {
		return snaps[i].Timestamp.After(snaps[j].Timestamp)
	})
	return snaps, nil
}

// Get returns the first snapshot (in List order) whose id contains idOrPrefix
// as a substring — typically the 8-character ShortID a user copied from
// List output.
func (s *Store) Get(ctx context.Context, idOrPrefix string) (*Snapshot, error) {
	snaps, err := s.List(ctx)
	if err != nil {
		return nil, err
	}

	for _, snap := range snaps {
		if strings.Contains(snap.ID, idOrPrefix) {
			return snap, nil
		}
	}
	return nil, &errs.NotFound{What: "snapshot " + idOrPrefix}
}

// FindLatest returns the most recent snapshot matching tenant and service,
// and user when user is non-empty. It returns errs.NotFound if nothing
// matches.
func (s *Store) FindLatest(ctx context.Context, tenant string, service Service, user string) (*Snapshot, error) {
	snaps, err := s.List(ctx)
	if err != nil {
		return nil, err
	}

	for _, snap := range snaps {
		if snap.Tenant != tenant || snap.Service != service {
			continue
		}
		if user != "" && snap.User != user {
			continue
		}
		return snap, nil
	}
	return nil, &errs.NotFound{What: "snapshot for " + tenant + "/" + string(service)}
}
