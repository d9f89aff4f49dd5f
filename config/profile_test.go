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

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadCLIProfilesParsesTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profiles.toml")
	contents := `
default = "prod"

[profiles.prod]
backend = "s3"
bucket = "contoso-backups"
region = "us-east-1"

[profiles.local]
backend = "local"
prefix = "/var/lib/vaultkeep"
`
	require.NoError(t, os.WriteFile(path, []byte(contents), 0644))

	profiles, err := LoadCLIProfiles(path)
	require.NoError(t, err)
	assert.Equal(t, "prod", profiles.Default)
	assert.Len(t, profiles.Profiles, 2)

	active, ok := profiles.Active()
	require.True(t, ok)
	assert.Equal(t, "s3", active.Backend)
	assert.Equal(t, "contoso-backups", active.Bucket)
}

func TestActiveWithNoDefaultConfigured(t *testing.T) {
	profiles := CLIProfiles{Profiles: map[string]Profile{"local": {Backend: "local"}}}
	_, ok := profiles.Active()
	assert.False(t, ok)
}

func TestLoadCLIProfilesMissingFile(t *testing.T) {
	_, err := LoadCLIProfiles(filepath.Join(t.TempDir(), "missing.toml"))
	require.Error(t, err)
}
