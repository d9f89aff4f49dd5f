// Copyright 2016 Attic Labs, Inc. All rights reserved.
// Licensed under the Apache License, version 2.0:
// http://www.apache.org/licenses/LICENSE-2.0

// Package d holds small assertion helpers used throughout the repository
// core to turn "should never happen" states into panics instead of
// threading another error return through every call site.
package d

import "fmt"

// PanicIfTrue panics if b is true.
func PanicIfTrue(b bool) {
	if b {
		panic(fmt.Sprintf("expected false, got true"))
	}
}
