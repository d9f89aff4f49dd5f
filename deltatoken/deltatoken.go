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

// Package deltatoken builds and parses the "service:user:resource" keys a
// Snapshot's delta_tokens map uses to remember, per external resource, the
// opaque continuation token an incremental backup should resume from.
package deltatoken

import (
	"fmt"
	"strings"

	"github.com/vaultkeep/vaultkeep/errs"
)

const separator = ":"

// Key builds the lookup key for a given service, user and resource. The
// core never interprets a delta token's contents; it only needs a stable
// key to store and retrieve it by.
func Key(service, user, resource string) string {
	return strings.Join([]string{service, user, resource}, separator)
}

// Parse splits a Key back into its service, user and resource parts. The
// resource component may itself legitimately contain ":" (e.g. a path), so
// Parse only splits on the first two separators.
func Parse(key string) (service, user, resource string, err error) {
	parts := strings.SplitN(key, separator, 3)
	if len(parts) != 3 {
		return "", "", "", errs.NewParseError("delta token key", fmt.Errorf("expected 3 %q-separated parts, got %d", separator, len(parts)))
	}
	return parts[0], parts[1], parts[2], nil
}
