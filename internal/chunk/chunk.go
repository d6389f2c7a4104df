// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Mnemos Contributors

// Package chunk splits oversized document bodies into byte-bounded pieces
// before they reach indexing paths with a hard payload-size ceiling.
package chunk

import "strings"

// DefaultMaxBytes is the payload ceiling applied when callers pass a
// non-positive limit.
const DefaultMaxBytes = 800_000

// Split divides content into ordered chunks whose byte length stays at or
// below maxBytes. Splitting happens only on line boundaries: lines accumulate
// into the current chunk until appending the next line (plus its joining
// newline) would overflow, at which point the chunk is sealed and the line
// starts a new one. A single line longer than maxBytes becomes its own
// oversized chunk rather than being truncated.
//
// Chunks are trimmed of surrounding whitespace and empty chunks are dropped,
// so joining the output with newlines reconstructs the original content
// modulo edge trimming.
func Split(content string, maxBytes int) []string {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}

	if len(content) <= maxBytes {
		trimmed := strings.TrimSpace(content)
		if trimmed == "" {
			return nil
		}
		return []string{trimmed}
	}

	var (
		chunks  []string
		current strings.Builder
	)

	seal := func() {
		trimmed := strings.TrimSpace(current.String())
		if trimmed != "" {
			chunks = append(chunks, trimmed)
		}
		current.Reset()
	}

	for _, line := range strings.Split(content, "\n") {
		if current.Len() > 0 && current.Len()+len(line)+1 > maxBytes {
			seal()
		}
		if current.Len() > 0 {
			current.WriteByte('\n')
		}
		current.WriteString(line)
	}
	seal()

	return chunks
}
