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

package deltatoken

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKey(t *testing.T) {
	assert.Equal(t, "onedrive:alice:drive-root", Key("onedrive", "alice", "drive-root"))
}

func TestParseRoundTrip(t *testing.T) {
	service, user, resource, err := Parse(Key("gmail", "bob", "inbox"))
	require.NoError(t, err)
	assert.Equal(t, "gmail", service)
	assert.Equal(t, "bob", user)
	assert.Equal(t, "inbox", resource)
}

func TestParseResourceMayContainSeparator(t *testing.T) {
	service, user, resource, err := Parse("onedrive:alice:/Documents/Photos:2024")
	require.NoError(t, err)
	assert.Equal(t, "onedrive", service)
	assert.Equal(t, "alice", user)
	assert.Equal(t, "/Documents/Photos:2024", resource)
}

func TestParseRejectsMalformedKey(t *testing.T) {
	_, _, _, err := Parse("not-enough-parts")
	require.Error(t, err)
}
