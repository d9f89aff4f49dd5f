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

// Package vkcrypto implements the authenticated-encryption and
// passphrase-wrapping primitives used for optional at-rest encryption of
// pack payloads and snapshot files. Content hashing lives in the hash
// package; this package only covers roles 2 and 3 of the crypto design
// (AEAD, passphrase-wrapped master key).
package vkcrypto

import (
	"crypto/rand"
	"io"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/chacha20poly1305"

	"github.com/vaultkeep/vaultkeep/errs"
)

const (
	// KeySize is the width of both the master key and the argon2-derived
	// wrapping key.
	KeySize = chacha20poly1305.KeySize // 32
	// NonceSize is the width of the AEAD nonce this package uses on the
	// wire (96-bit, matching spec ChaCha20-Poly1305 IETF).
	NonceSize = chacha20poly1305.NonceSize // 12
	saltSize  = 16
)

// argon2 parameters chosen for an interactive, single-user unlock: enough
// memory cost to make offline brute force expensive without making repo
// open noticeably slow.
const (
	argonTime    = 1
	argonMemory  = 64 * 1024 // KiB
	argonThreads = 4
)

// KeyConfig is the durable, passphrase-wrapped form of a repository's
// master key. It is safe to store alongside config.json.
type KeyConfig struct {
	Salt               [saltSize]byte                   `json:"salt"`
	Nonce              [chacha20poly1305.NonceSize]byte `json:"nonce"`
	EncryptedMasterKey []byte                           `json:"encrypted_master_key"`
}

// Engine performs authenticated encryption with a single 256-bit key.
type Engine struct {
	aead aeadCipher
}

type aeadCipher interface {
	Seal(dst, nonce, plaintext, additionalData []byte) []byte
	Open(dst, nonce, ciphertext, additionalData []byte) ([]byte, error)
	NonceSize() int
	Overhead() int
}

// NewEngine builds an Engine directly from a raw 32-byte master key.
func NewEngine(masterKey [KeySize]byte) (*Engine, error) {
	aead, err := chacha20poly1305.New(masterKey[:])
	if err != nil {
		return nil, err
	}
	return &Engine{aead: aead}, nil
}

// FromPassphrase rebuilds the Engine by unwrapping cfg's encrypted master
// key with passphrase. Any failure - wrong passphrase or corrupted key
// material - surfaces as the same errs.CryptoError.
func FromPassphrase(passphrase string, cfg KeyConfig) (*Engine, error) {
	masterKey, err := unwrapMasterKey(passphrase, cfg)
	if err != nil {
		return nil, err
	}
	return NewEngine(masterKey)
}

// Encrypt returns nonce ∥ ciphertext-and-tag, drawing a fresh random nonce
// from a cryptographic RNG for every call.
func (e *Engine) Encrypt(plaintext []byte) ([]byte, error) {
	nonce := make([]byte, e.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}
	out := make([]byte, 0, len(nonce)+len(plaintext)+e.aead.Overhead())
	out = append(out, nonce...)
	return e.aead.Seal(out, nonce, plaintext, nil), nil
}

// Decrypt verifies the tag and returns the plaintext, or errs.CryptoError
// if authentication fails.
func (e *Engine) Decrypt(data []byte) ([]byte, error) {
	n := e.aead.NonceSize()
	if len(data) < n {
		return nil, errs.NewCryptoError()
	}
	nonce, ciphertext := data[:n], data[n:]
	out, err := e.aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, errs.NewCryptoError()
	}
	return out, nil
}

// CreateKeyConfig derives a fresh random master key, wraps it under a
// passphrase-derived key, and returns both the durable KeyConfig and the
// raw master key (the caller needs the latter to build an Engine for the
// current process without immediately round-tripping through
// FromPassphrase).
func CreateKeyConfig(passphrase string) (KeyConfig, [KeySize]byte, error) {
	var cfg KeyConfig
	var masterKey [KeySize]byte

	if _, err := io.ReadFull(rand.Reader, cfg.Salt[:]); err != nil {
		return cfg, masterKey, err
	}
	if _, err := io.ReadFull(rand.Reader, masterKey[:]); err != nil {
		return cfg, masterKey, err
	}

	wrappingKey := deriveWrappingKey(passphrase, cfg.Salt)
	wrapAEAD, err := chacha20poly1305.New(wrappingKey[:])
	if err != nil {
		return cfg, masterKey, err
	}

	if _, err := io.ReadFull(rand.Reader, cfg.Nonce[:]); err != nil {
		return cfg, masterKey, err
	}
	cfg.EncryptedMasterKey = wrapAEAD.Seal(nil, cfg.Nonce[:], masterKey[:], nil)

	return cfg, masterKey, nil
}

func unwrapMasterKey(passphrase string, cfg KeyConfig) ([KeySize]byte, error) {
	var masterKey [KeySize]byte

	wrappingKey := deriveWrappingKey(passphrase, cfg.Salt)
	wrapAEAD, err := chacha20poly1305.New(wrappingKey[:])
	if err != nil {
		return masterKey, err
	}

	raw, err := wrapAEAD.Open(nil, cfg.Nonce[:], cfg.EncryptedMasterKey, nil)
	if err != nil {
		return masterKey, errs.NewCryptoError()
	}
	if len(raw) != KeySize {
		return masterKey, errs.NewCryptoError()
	}
	copy(masterKey[:], raw)
	return masterKey, nil
}

func deriveWrappingKey(passphrase string, salt [saltSize]byte) [KeySize]byte {
	derived := argon2.IDKey([]byte(passphrase), salt[:], argonTime, argonMemory, argonThreads, KeySize)
	var out [KeySize]byte
	copy(out[:], derived)
	return out
}
