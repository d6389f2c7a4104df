// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Mnemos Contributors

package sqlite_test

import (
	"path/filepath"
	"testing"

	"github.com/mnemos-dev/mnemos/internal/store/sqlite"
	"github.com/stretchr/testify/require"
)

// testDBPath returns a per-test database file path inside a temp dir that is
// cleaned up automatically.
func testDBPath(t *testing.T, name string) string {
	t.Helper()
	return filepath.Join(t.TempDir(), name+".db")
}

// newTestStore opens a store with small embedding dimensions for testing.
func newTestStore(t *testing.T, name string, dims int) *sqlite.Store {
	t.Helper()
	s, err := sqlite.New(testDBPath(t, name), dims, 0)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}
