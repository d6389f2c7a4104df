// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Mnemos Contributors

package syncer

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	mnerr "github.com/mnemos-dev/mnemos/pkg/errors"
)

// maxSyncFileBytes skips files too large to be sensible documents.
const maxSyncFileBytes = 4 << 20

// DirSource walks a directory tree and yields each readable text file as a
// sync item. Paths are reported relative to the root so document ids stay
// stable when the root moves.
type DirSource struct {
	Root       string
	Extensions []string // e.g. ".md", ".txt"; empty means every file
}

// Scan implements Source.
func (d *DirSource) Scan(ctx context.Context) ([]Item, error) {
	if d.Root == "" {
		return nil, mnerr.New(mnerr.CodeSyncSourceFailure, "sync root is empty")
	}

	var items []Item
	err := filepath.WalkDir(d.Root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if entry.IsDir() {
			if strings.HasPrefix(entry.Name(), ".") && path != d.Root {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.wantFile(entry.Name()) {
			return nil
		}

		info, err := entry.Info()
		if err != nil || info.Size() > maxSyncFileBytes {
			return nil
		}

		content, err := os.ReadFile(path)
		if err != nil {
			return nil
		}

		rel, err := filepath.Rel(d.Root, path)
		if err != nil {
			rel = path
		}
		items = append(items, Item{Path: filepath.ToSlash(rel), Content: string(content)})
		return nil
	})
	if err != nil {
		return nil, mnerr.Wrap(err, mnerr.CodeSyncSourceFailure, "walking sync root",
			mnerr.Field("root", d.Root))
	}
	return items, nil
}

func (d *DirSource) wantFile(name string) bool {
	if strings.HasPrefix(name, ".") {
		return false
	}
	if len(d.Extensions) == 0 {
		return true
	}
	ext := strings.ToLower(filepath.Ext(name))
	for _, want := range d.Extensions {
		if ext == strings.ToLower(want) {
			return true
		}
	}
	return false
}
