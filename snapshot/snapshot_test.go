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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewStampsIDAndTimestamp(t *testing.T) {
	s := New("contoso", OneDrive, "alice")
	assert.Len(t, s.ID, 32)
	assert.False(t, s.Timestamp.IsZero())
	assert.Equal(t, "contoso", s.Tenant)
	assert.Equal(t, OneDrive, s.Service)
	assert.Equal(t, "alice", s.User)
	assert.NotNil(t, s.DeltaTokens)
}

func TestShortID(t *testing.T) {
	s := New("contoso", Teams, "")
	assert.Len(t, s.ShortID(), 8)
	assert.Equal(t, s.ID[:8], s.ShortID())
}

func TestMarshalUnmarshalRoundTrip(t *testing.T) {
	s := New("contoso", Exchange, "bob")
	s.Tree.Nodes = append(s.Tree.Nodes, TreeNode{
		Path:     "Inbox/message-1",
		NodeType: NodeMessage,
		Size:     1024,
	})
	s.DeltaTokens["exchange:bob:inbox"] = "opaque-token"
	s.Stats.TotalItems = 1

	data, err := s.Marshal()
	require.NoError(t, err)

	got, err := Unmarshal(data)
	require.NoError(t, err)
	assert.Equal(t, s.ID, got.ID)
	assert.Equal(t, s.Tenant, got.Tenant)
	assert.Equal(t, s.Service, got.Service)
	assert.Len(t, got.Tree.Nodes, 1)
	assert.Equal(t, "opaque-token", got.DeltaTokens["exchange:bob:inbox"])
	assert.Equal(t, uint64(1), got.Stats.TotalItems)
}

func TestUnmarshalNilDeltaTokensBecomesEmptyMap(t *testing.T) {
	got, err := Unmarshal([]byte(`{"id":"x","delta_tokens":null}`))
	require.NoError(t, err)
	assert.NotNil(t, got.DeltaTokens)
	assert.Empty(t, got.DeltaTokens)
}
