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

package pathutil

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeReplacesForbiddenCharacters(t *testing.T) {
	got := Sanitize(`a/b\c:d*e?f"g<h>i|j`)
	for _, r := range `/\:*?"<>|` {
		assert.NotContains(t, got, string(r))
	}
}

func TestSanitizeStripsControlBytes(t *testing.T) {
	got := Sanitize("hello\x00world\x01")
	assert.NotContains(t, got, "\x00")
	assert.NotContains(t, got, "\x01")
}

func TestSanitizeTrimsLeadingTrailingDotsAndSpaces(t *testing.T) {
	assert.Equal(t, "name", Sanitize("  ..name.. "))
}

func TestSanitizeTruncatesToMaxLength(t *testing.T) {
	long := strings.Repeat("a", 500)
	got := Sanitize(long)
	assert.LessOrEqual(t, len(got), MaxComponentBytes)
}

func TestSanitizeTruncatesAtValidRuneBoundary(t *testing.T) {
	long := strings.Repeat("é", 80) // 2 bytes per rune, 160 bytes total
	got := Sanitize(long)
	assert.LessOrEqual(t, len(got), MaxComponentBytes)
	assert.True(t, utf8.ValidString(got))
}

func TestSanitizeLeavesOrdinaryNamesUntouched(t *testing.T) {
	assert.Equal(t, "Quarterly Report 2024", Sanitize("Quarterly Report 2024"))
}

func TestSanitizeEmptyInput(t *testing.T) {
	assert.Equal(t, "", Sanitize(""))
}
