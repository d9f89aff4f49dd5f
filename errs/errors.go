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

// Package errs defines the typed error values the repository core surfaces
// to callers, so that a caller can branch on kind with errors.Is/errors.As
// instead of parsing a message string.
package errs

import (
	"fmt"

	"github.com/pkg/errors"
)

// StoreError wraps any failure surfaced by the underlying ObjectStore
// (network, permission, I/O).
type StoreError struct {
	Op  string
	Key string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("object store %s failed for %q: %v", e.Op, e.Key, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// NewStoreError wraps err, attaching a stack via pkg/errors so the original
// I/O failure site is still visible in logs.
func NewStoreError(op, key string, err error) error {
	if err == nil {
		return nil
	}
	return &StoreError{Op: op, Key: key, Err: errors.WithStack(err)}
}

// NotARepository is returned by Open when config.json is missing.
type NotARepository struct {
	Reason string
}

func (e *NotARepository) Error() string {
	return fmt.Sprintf("not a vaultkeep repository: %s", e.Reason)
}

// AlreadyInitialized is returned by Init when config.json already exists.
type AlreadyInitialized struct{}

func (e *AlreadyInitialized) Error() string {
	return "repository is already initialized"
}

// UnsupportedVersion is returned by Open when config.json names a version
// this build does not understand.
type UnsupportedVersion struct {
	Version uint32
}

func (e *UnsupportedVersion) Error() string {
	return fmt.Sprintf("unsupported repository version: %d", e.Version)
}

// ParseError wraps a malformed pack, index or snapshot payload.
type ParseError struct {
	What string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to parse %s: %v", e.What, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// NewParseError builds a ParseError, or returns nil if err is nil.
func NewParseError(what string, err error) error {
	if err == nil {
		return nil
	}
	return &ParseError{What: what, Err: err}
}

// MissingBlob is returned by ReadData when a ChunkRef's hash is absent from
// the index.
type MissingBlob struct {
	Hash string
}

func (e *MissingBlob) Error() string {
	return fmt.Sprintf("blob not found in index: %s", e.Hash)
}

// CryptoError signals an AEAD authentication failure or a wrong passphrase;
// deliberately free of detail about which, so a caller can't distinguish
// "wrong key" from "corrupted ciphertext" from the message alone.
type CryptoError struct {
	msg string
}

func (e *CryptoError) Error() string { return e.msg }

// NewCryptoError returns the one message every crypto failure in this
// package uses, by design: "wrong passphrase or corrupted key material" and
// AEAD tag mismatches are indistinguishable to a caller.
func NewCryptoError() error {
	return &CryptoError{msg: "wrong passphrase or corrupted key material"}
}

// NotFound is returned when a snapshot id or prefix does not resolve to any
// stored snapshot.
type NotFound struct {
	What string
}

func (e *NotFound) Error() string {
	return fmt.Sprintf("not found: %s", e.What)
}
