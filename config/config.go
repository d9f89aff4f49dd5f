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

// Package config loads the human-facing knobs that tune a repository's
// runtime behavior, entirely separate from the write-once config.json the
// repository package owns. The repository package never loads
// vaultkeep.yaml itself: the CLI and tests load RepoOptions here and pass
// them to repo.Init/Open, adjusting pack/flush/encryption behavior without
// touching the spec-owned on-disk format.
package config

import (
	"os"

	"gopkg.in/yaml.v2"
)

// RepoOptions overlays tunable repository behavior, loaded from an optional
// vaultkeep.yaml file (cmd/vaultkeepd reads it from the current directory).
type RepoOptions struct {
	// PackFlushBytes overrides the pack builder's default flush threshold.
	// Zero means use the package default.
	PackFlushBytes uint64 `yaml:"pack_flush_bytes"`

	// ChunkMinBytes and ChunkMaxBytes override the chunker's size bounds.
	// Both zero means use the package defaults.
	ChunkMinBytes uint64 `yaml:"chunk_min_bytes"`
	ChunkMaxBytes uint64 `yaml:"chunk_max_bytes"`

	// EncryptionEnabled turns on AEAD encryption of pack and snapshot
	// payloads at rest.
	EncryptionEnabled bool `yaml:"encryption_enabled"`
}

// DefaultRepoOptions returns the zero-value overlay: every field defers to
// the owning package's built-in default.
func DefaultRepoOptions() RepoOptions {
	return RepoOptions{}
}

// LoadRepoOptions reads and parses a vaultkeep.yaml overlay from path. A
// missing file is not an error: it returns DefaultRepoOptions unchanged.
func LoadRepoOptions(path string) (RepoOptions, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return DefaultRepoOptions(), nil
	}
	if err != nil {
		return RepoOptions{}, err
	}

	opts := DefaultRepoOptions()
	if err := yaml.Unmarshal(data, &opts); err != nil {
		return RepoOptions{}, err
	}
	return opts, nil
}
