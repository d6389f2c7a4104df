// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Mnemos Contributors

package secrets

import (
	"os"
	"strings"

	mnerr "github.com/mnemos-dev/mnemos/pkg/errors"
)

const (
	keyringScheme = "keyring://"
	envScheme     = "env:"
)

// IsKeyringURI reports whether value uses the keyring:// URI scheme.
func IsKeyringURI(value string) bool {
	return strings.HasPrefix(value, keyringScheme)
}

// IsEnvRef reports whether value uses the env:NAME reference form.
func IsEnvRef(value string) bool {
	return strings.HasPrefix(value, envScheme)
}

// ParseKeyringURI extracts service and key from a keyring://service/key URI.
// Returns an error if the URI is malformed.
func ParseKeyringURI(uri string) (service, key string, err error) {
	if !IsKeyringURI(uri) {
		return "", "", mnerr.Errorf(mnerr.CodeSecretInvalidInput, "not a keyring URI: %q", uri)
	}

	path := strings.TrimPrefix(uri, keyringScheme)
	parts := strings.SplitN(path, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", mnerr.Errorf(mnerr.CodeSecretInvalidInput,
			"invalid keyring URI %q: expected keyring://service/key", uri)
	}

	return parts[0], parts[1], nil
}

// Resolve turns a credential reference into its secret value:
//
//	env:NAME               value of the environment variable NAME
//	keyring://service/key  value stored in the OS keyring
//	anything else          returned unchanged (a literal credential)
func Resolve(store Store, value string) (string, error) {
	switch {
	case IsEnvRef(value):
		name := strings.TrimPrefix(value, envScheme)
		if name == "" {
			return "", mnerr.Errorf(mnerr.CodeSecretInvalidInput, "invalid env reference %q: expected env:NAME", value)
		}
		resolved, ok := os.LookupEnv(name)
		if !ok {
			return "", mnerr.Errorf(mnerr.CodeSecretNotFound, "environment variable %s is not set", name)
		}
		return resolved, nil

	case IsKeyringURI(value):
		service, key, err := ParseKeyringURI(value)
		if err != nil {
			return "", err
		}
		secret, err := store.Retrieve(service, key)
		if err != nil {
			return "", mnerr.Wrapf(err, mnerr.CodeSecretResolveFailure, "resolving keyring URI %q", value)
		}
		return secret, nil

	default:
		return value, nil
	}
}
