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
	"github.com/BurntSushi/toml"
)

// Profile names a connection to one repository that the CLI can switch
// between by name, the way a cloud CLI keeps named credential profiles.
type Profile struct {
	Backend string `toml:"backend"`
	Bucket  string `toml:"bucket"`
	Prefix  string `toml:"prefix"`
	Region  string `toml:"region"`
}

// CLIProfiles is the parsed contents of a CLI profile file: named profiles
// plus which one is active by default.
type CLIProfiles struct {
	Default  string             `toml:"default"`
	Profiles map[string]Profile `toml:"profiles"`
}

// LoadCLIProfiles reads a TOML profile file from path.
func LoadCLIProfiles(path string) (CLIProfiles, error) {
	var profiles CLIProfiles
	if _, err := toml.DecodeFile(path, &profiles); err != nil {
		return CLIProfiles{}, err
	}
	return profiles, nil
}

// Active returns the default profile, or ok=false if none is configured.
func (c CLIProfiles) Active() (Profile, bool) {
	if c.Default == "" {
		return Profile{}, false
	}
	p, ok := c.Profiles[c.Default]
	return p, ok
}
