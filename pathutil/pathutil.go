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

// Package pathutil sanitizes the individual path components a backup
// producer uses to build a TreeNode's path, so that names originating from
// an external service can never collide with filesystem or archive
// metacharacters on the machine that eventually restores them.
package pathutil

import (
	"strings"
	"unicode/utf8"
)

// MaxComponentBytes is the longest a single sanitized path component may
// be.
const MaxComponentBytes = 100

const replacement = '_'

func isForbidden(r rune) bool {
	switch r {
	case '/', '\\', ':', '*', '?', '"', '<', '>', '|', 0:
		return true
	}
	return r < 0x20
}

// Sanitize rewrites a single path component so it contains none of
// {/, \, :, *, ?, ", <, >, |, NUL, any C0 control}, has no leading or
// trailing '.' or space, and is at most MaxComponentBytes bytes long at a
// valid rune boundary.
func Sanitize(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		if isForbidden(r) {
			b.WriteRune(replacement)
			continue
		}
		b.WriteRune(r)
	}

	trimmed := strings.Trim(b.String(), ". ")
	return truncateAtRuneBoundary(trimmed, MaxComponentBytes)
}

func truncateAtRuneBoundary(s string, maxBytes int) string {
	if len(s) <= maxBytes {
		return s
	}
	cut := maxBytes
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
