// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Mnemos Contributors

package store

import "time"

// --- Document types ---

// DocumentType categorizes a document. The set is open to extension; these
// constants cover the well-known categories.
type DocumentType string

const (
	DocumentTypeChangelog  DocumentType = "changelog"
	DocumentTypePhase      DocumentType = "phase"
	DocumentTypeTask       DocumentType = "task"
	DocumentTypeFile       DocumentType = "file"
	DocumentTypeRule       DocumentType = "rule"
	DocumentTypeActivation DocumentType = "activation"
)

// Metadata carries the reserved document fields plus a free-form extension
// map for everything else.
type Metadata struct {
	Timestamp time.Time `json:"timestamp"`
	Path      string    `json:"path"`
	Tags      []string  `json:"tags,omitempty"`
	Phase     string    `json:"phase,omitempty"`
	Status    string    `json:"status,omitempty"`
	Priority  string    `json:"priority,omitempty"`

	// Chunk linkage, set only on chunk-documents produced from oversized content.
	OriginalDocID string `json:"originalDocId,omitempty"`
	ChunkNumber   int    `json:"chunkNumber,omitempty"`
	TotalChunks   int    `json:"totalChunks,omitempty"`

	Extra map[string]any `json:"extra,omitempty"`
}

// IsChunk reports whether the metadata describes a chunk-document.
func (m Metadata) IsChunk() bool {
	return m.OriginalDocID != ""
}

// Document is a stored text document with optional embedding.
type Document struct {
	ID        string
	Type      DocumentType
	Content   string
	Metadata  Metadata
	Embedding []float32 // nil when embedding generation failed or was skipped
	CreatedAt time.Time
	UpdatedAt time.Time
}

// --- Relationship types ---

// Well-known relationship types. The set is open; storage accepts any string.
const (
	RelationDependsOn  = "DEPENDS_ON"
	RelationPartOf     = "PART_OF"
	RelationTriggers   = "TRIGGERS"
	RelationReferences = "REFERENCES"
	RelationContains   = "CONTAINS"
)

// Edge is a directed weighted relationship between two document ids. The
// target document is not required to exist when the edge is written.
type Edge struct {
	ID        string
	SourceID  string
	TargetID  string
	Type      string
	Weight    float64
	Metadata  map[string]any
	CreatedAt time.Time
}

// EdgeID derives the deterministic edge identifier used as the idempotent
// upsert key.
func EdgeID(sourceID, relType, targetID string) string {
	return sourceID + "_" + relType + "_" + targetID
}

// --- Analytics types ---

// Analytics aggregates store-wide counts.
type Analytics struct {
	TotalDocuments    int64
	DocumentsByType   map[string]int64
	EmbeddedDocuments int64
	TotalEdges        int64
	EdgesByType       map[string]int64
}
