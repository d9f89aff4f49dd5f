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

// Package snapshot defines the durable, self-contained record a single
// backup run produces: a tree of items, the stats describing what changed,
// and the delta tokens an incremental run resumes from.
package snapshot

import (
	"encoding/json"
	"time"

	"github.com/vaultkeep/vaultkeep/chunker"
	"github.com/vaultkeep/vaultkeep/util/random"
)

// Service names the external collaboration-suite service a snapshot backs
// up. The on-wire tag is always lowercase.
type Service string

const (
	OneDrive   Service = "onedrive"
	Exchange   Service = "exchange"
	SharePoint Service = "sharepoint"
	Teams      Service = "teams"
)

// NodeType names what kind of logical item a TreeNode represents.
type NodeType string

const (
	NodeFile      NodeType = "file"
	NodeDirectory NodeType = "directory"
	NodeMail      NodeType = "mail"
	NodeCalendar  NodeType = "calendar"
	NodeContact   NodeType = "contact"
	NodeMessage   NodeType = "message"
)

// TreeNode is one logical item captured by a backup run.
type TreeNode struct {
	Path     string                 `json:"path"`
	NodeType NodeType               `json:"node_type"`
	Size     uint64                 `json:"size"`
	Modified *time.Time             `json:"modified,omitempty"`
	Chunks   []chunker.Ref          `json:"chunks"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// Tree is the ordered set of items a snapshot captured.
type Tree struct {
	Nodes []TreeNode `json:"nodes"`
}

// BackupStats summarizes what a backup run did, at chunk granularity: a
// TreeNode counts as new_items iff at least one of its chunks was newly
// written to a pack during this run, and unchanged_items iff every one of
// its chunks already existed in the index beforehand. The caller that builds
// the snapshot fills these fields in; neither this package nor the
// repository computes them.
type BackupStats struct {
	TotalItems        uint64  `json:"total_items"`
	NewItems          uint64  `json:"new_items"`
	UnchangedItems    uint64  `json:"unchanged_items"`
	TotalBytes        uint64  `json:"total_bytes"`
	NewBytes          uint64  `json:"new_bytes"`
	DeduplicatedBytes uint64  `json:"deduplicated_bytes"`
	DurationSeconds   float64 `json:"duration_secs"`
}

// Snapshot is the complete, self-contained record of one backup run.
type Snapshot struct {
	ID          string            `json:"id"`
	Timestamp   time.Time         `json:"timestamp"`
	Tenant      string            `json:"tenant"`
	Service     Service           `json:"service"`
	User        string            `json:"user,omitempty"`
	Parent      string            `json:"parent,omitempty"`
	Tree        Tree              `json:"tree"`
	DeltaTokens map[string]string `json:"delta_tokens"`
	Stats       BackupStats       `json:"stats"`
}

// New starts an empty snapshot for the given tenant/service/user, stamped
// with the current time and a fresh 128-bit id.
func New(tenant string, service Service, user string) *Snapshot {
	return &Snapshot{
		ID:          random.Id(),
		Timestamp:   time.Now().UTC(),
		Tenant:      tenant,
		Service:     service,
		User:        user,
		Tree:        Tree{},
		DeltaTokens: map[string]string{},
	}
}

// ShortID returns the first 8 characters of the snapshot's id, the form
// `list` output shows and `get` accepts as a lookup prefix.
func (s *Snapshot) ShortID() string {
	if len(s.ID) < 8 {
		return s.ID
	}
	return s.ID[:8]
}

// Marshal serializes the snapshot as pretty-printed JSON.
func (s *Snapshot) Marshal() ([]byte, error) {
	return json.MarshalIndent(s, "", "  ")
}

// Unmarshal parses a snapshot from its JSON form.
func Unmarshal(data []byte) (*Snapshot, error) {
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, err
	}
	if s.DeltaTokens == nil {
		s.DeltaTokens = map[string]string{}
	}
	return &s, nil
}
