// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Mnemos Contributors

package secrets

import (
	"encoding/json"
	"errors"
	"slices"

	"github.com/zalando/go-keyring"

	mnerr "github.com/mnemos-dev/mnemos/pkg/errors"
)

// KeyringStore keeps secrets in the operating system keyring: Keychain on
// macOS, secret-service over D-Bus on Linux, Credential Manager on Windows.
// go-keyring cannot enumerate keys, so every service carries one extra JSON
// entry listing the keys written through this store; List reads that entry.
type KeyringStore struct{}

// NewKeyringStore returns a KeyringStore.
func NewKeyringStore() *KeyringStore {
	return &KeyringStore{}
}

// indexSuffix distinguishes the per-service key index from real secrets.
const indexSuffix = "::keys-index"

func indexEntry(service string) string {
	return service + indexSuffix
}

func checkArgs(op, service, key string) error {
	if service == "" || key == "" {
		return mnerr.New(mnerr.CodeSecretInvalidInput, "secret "+op+": service and key must not be empty")
	}
	return nil
}

func (s *KeyringStore) Store(service, key, value string) error {
	if err := checkArgs("store", service, key); err != nil {
		return err
	}

	if err := keyring.Set(service, key, value); err != nil {
		return mnerr.Wrapf(err, mnerr.CodeSecretStoreFailure, "storing secret %s/%s", service, key)
	}

	return s.updateIndex(service, func(keys []string) []string {
		if slices.Contains(keys, key) {
			return keys
		}
		return append(keys, key)
	})
}

func (s *KeyringStore) Retrieve(service, key string) (string, error) {
	if err := checkArgs("retrieve", service, key); err != nil {
		return "", err
	}

	val, err := keyring.Get(service, key)
	switch {
	case errors.Is(err, keyring.ErrNotFound):
		return "", mnerr.Errorf(mnerr.CodeSecretNotFound, "secret %s/%s not found", service, key)
	case err != nil:
		return "", mnerr.Wrapf(err, mnerr.CodeSecretStoreFailure, "retrieving secret %s/%s", service, key)
	}
	return val, nil
}

func (s *KeyringStore) Delete(service, key string) error {
	if err := checkArgs("delete", service, key); err != nil {
		return err
	}

	if err := keyring.Delete(service, key); err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return mnerr.Errorf(mnerr.CodeSecretNotFound, "secret %s/%s not found", service, key)
		}
		return mnerr.Wrapf(err, mnerr.CodeSecretDeleteFailure, "deleting secret %s/%s", service, key)
	}

	return s.updateIndex(service, func(keys []string) []string {
		return slices.DeleteFunc(keys, func(k string) bool { return k == key })
	})
}

func (s *KeyringStore) List(service string) ([]string, error) {
	return s.readIndex(service)
}

func (s *KeyringStore) readIndex(service string) ([]string, error) {
	raw, err := keyring.Get(service, indexEntry(service))
	switch {
	case errors.Is(err, keyring.ErrNotFound):
		return nil, nil
	case err != nil:
		return nil, mnerr.Wrapf(err, mnerr.CodeSecretListFailure, "reading key index for %s", service)
	}

	var keys []string
	if err := json.Unmarshal([]byte(raw), &keys); err != nil {
		return nil, mnerr.Wrapf(err, mnerr.CodeSecretListFailure, "decoding key index for %s", service)
	}
	return keys, nil
}

// updateIndex applies a mutation to the service's key index and persists the
// result. An index left empty is removed rather than stored as [].
func (s *KeyringStore) updateIndex(service string, apply func([]string) []string) error {
	keys, err := s.readIndex(service)
	if err != nil {
		return err
	}

	updated := apply(keys)
	if len(updated) == 0 {
		if err := keyring.Delete(service, indexEntry(service)); err != nil && !errors.Is(err, keyring.ErrNotFound) {
			return mnerr.Wrapf(err, mnerr.CodeSecretListFailure, "clearing key index for %s", service)
		}
		return nil
	}

	data, err := json.Marshal(updated)
	if err != nil {
		return mnerr.Wrapf(err, mnerr.CodeSecretListFailure, "encoding key index for %s", service)
	}
	if err := keyring.Set(service, indexEntry(service), string(data)); err != nil {
		return mnerr.Wrapf(err, mnerr.CodeSecretListFailure, "writing key index for %s", service)
	}
	return nil
}
