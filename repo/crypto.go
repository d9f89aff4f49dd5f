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

package repo

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/vaultkeep/vaultkeep/blobstore"
	"github.com/vaultkeep/vaultkeep/errs"
	"github.com/vaultkeep/vaultkeep/vkcrypto"
)

// cryptoKey is where a repository's passphrase-wrapped master key lives.
// It is always read/written through the plaintext store: it is what makes
// decryption possible in the first place, so it cannot itself be encrypted.
const cryptoKey = "crypto.json"

// passphraseEnvVar names the environment variable Init/Open read the
// repository passphrase from when the config overlay enables encryption.
// Keeping the passphrase out of vaultkeep.yaml means the overlay file
// itself never needs to be treated as a secret.
const passphraseEnvVar = "VAULTKEEP_PASSPHRASE"

func passphraseFromEnv() (string, error) {
	p := os.Getenv(passphraseEnvVar)
	if p == "" {
		return "", fmt.Errorf("encryption enabled but %s is not set", passphraseEnvVar)
	}
	return p, nil
}

// createEngine generates a fresh master key, wraps it under the
// environment's passphrase, persists the wrapped form under cryptoKey, and
// returns an Engine ready to use for the rest of this process.
func createEngine(ctx context.Context, store blobstore.Store) (*vkcrypto.Engine, error) {
	passphrase, err := passphraseFromEnv()
	if err != nil {
		return nil, err
	}

	keyCfg, masterKey, err := vkcrypto.CreateKeyConfig(passphrase)
	if err != nil {
		return nil, err
	}

	data, err := json.Marshal(keyCfg)
	if err != nil {
		return nil, errs.NewParseError(cryptoKey, err)
	}
	if err := store.Write(ctx, cryptoKey, data); err != nil {
		return nil, err
	}

	return vkcrypto.NewEngine(masterKey)
}

// openEngine reads the wrapped master key under cryptoKey and unwraps it
// with the environment's passphrase.
func openEngine(ctx context.Context, store blobstore.Store) (*vkcrypto.Engine, error) {
	passphrase, err := passphraseFromEnv()
	if err != nil {
		return nil, err
	}

	data, err := store.Read(ctx, cryptoKey)
	if err != nil {
		return nil, err
	}

	var keyCfg vkcrypto.KeyConfig
	if err := json.Unmarshal(data, &keyCfg); err != nil {
		return nil, errs.NewParseError(cryptoKey, err)
	}

	return vkcrypto.FromPassphrase(passphrase, keyCfg)
}
