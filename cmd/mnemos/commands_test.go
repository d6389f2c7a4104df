// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Mnemos Contributors

package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestVersionCmd(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "mnemos")
	assert.Contains(t, out, "dev")
}

func TestInitCmd_WritesStarterConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mnemos.yaml")

	out, err := execute(t, "init", path)
	require.NoError(t, err)
	assert.Contains(t, out, path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "backend: sqlite")
	assert.Contains(t, string(data), "env:OPENAI_API_KEY")
}

func TestInitCmd_RefusesOverwriteWithoutForce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mnemos.yaml")
	require.NoError(t, os.WriteFile(path, []byte("existing"), 0o600))

	_, err := execute(t, "init", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")

	_, err = execute(t, "init", path, "--force")
	require.NoError(t, err)
}

func TestReadContent_Sources(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "doc.md")
	require.NoError(t, os.WriteFile(file, []byte("from file"), 0o644))

	got, err := readContent(nil, file, nil)
	require.NoError(t, err)
	assert.Equal(t, "from file", got)

	got, err = readContent([]string{"inline"}, "", nil)
	require.NoError(t, err)
	assert.Equal(t, "inline", got)

	got, err = readContent([]string{"-"}, "", bytes.NewBufferString("from stdin"))
	require.NoError(t, err)
	assert.Equal(t, "from stdin", got)
}
