package store

import (
	"slices"
	"strings"

	"github.com/roach88/zeromem/internal/ir"
)

// Snapshot is a point-in-time copy of a store's contents.
//
// Concepts are sorted by label; relations and contexts keep insertion order.
// Two stores fed the same records in the same order produce equal snapshots.
type Snapshot struct {
	Concepts  []ir.ConceptNode  `json:"concepts"`
	Relations []ir.RelationNode `json:"relations"`
	Contexts  []ir.ContextNode  `json:"contexts"`
}

// Snapshot copies the store's contents.
func (s *MemoryStore) Snapshot() Snapshot {
	snap := Snapshot{
		Concepts:  make([]ir.ConceptNode, 0, len(s.concepts)),
		Relations: make([]ir.RelationNode, 0, len(s.episodeOrder)),
		Contexts:  make([]ir.ContextNode, 0, len(s.contextOrder)),
	}
	for _, c := range s.concepts {
		snap.Concepts = append(snap.Concepts, cloneConcept(c))
	}
	slices.SortFunc(snap.Concepts, func(a, b ir.ConceptNode) int {
		return strings.Compare(a.Label, b.Label)
	})
	for _, hash := range s.episodeOrder {
		snap.Relations = append(snap.Relations, s.episodes[hash])
	}
	for _, hash := range s.contextOrder {
		snap.Contexts = append(snap.Contexts, s.contexts[hash])
	}
	return snap
}

// RecordSnapshot views a single compiled record as a snapshot, for callers
// that export a record without storing it first.
func RecordSnapshot(record ir.MemoryRecord) Snapshot {
	return Snapshot{
		Concepts:  slices.Clone(record.Concepts),
		Relations: slices.Clone(record.Relations),
		Contexts:  []ir.ContextNode{record.Context},
	}
}
