package store

import (
	"log/slog"
	"slices"

	"github.com/roach88/zeromem/internal/ir"
)

// Reader is the query surface shared by MemoryStore and Locked.
type Reader interface {
	GetConcept(hash ir.ConceptHash) (ir.ConceptNode, bool)
	GetConceptByLabel(label string) (ir.ConceptNode, bool)
	GetRelations(hash ir.ConceptHash) []ir.RelationNode
	GetRelationsByFact(hash ir.FactHash) []ir.RelationNode
	GetContext(hash ir.ContextHash) (ir.ContextNode, bool)
	ConceptCount() int
	RelationCount() int
	FactCount() int
	ContextCount() int
	Snapshot() Snapshot
}

// MemoryStore is the in-memory knowledge store. See the package doc for
// its concurrency contract.
type MemoryStore struct {
	concepts map[ir.ConceptHash]ir.ConceptNode
	facts    map[ir.FactHash][]ir.RelationNode
	episodes map[ir.EpisodeHash]ir.RelationNode
	contexts map[ir.ContextHash]ir.ContextNode

	// adjacency keeps fact hashes per concept in first-seen order;
	// adjacent is the membership set for the same data.
	adjacency map[ir.ConceptHash][]ir.FactHash
	adjacent  map[ir.ConceptHash]map[ir.FactHash]struct{}

	labels *LabelIndex

	// Insertion order, for deterministic snapshots.
	episodeOrder []ir.EpisodeHash
	contextOrder []ir.ContextHash
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		concepts:  make(map[ir.ConceptHash]ir.ConceptNode),
		facts:     make(map[ir.FactHash][]ir.RelationNode),
		episodes:  make(map[ir.EpisodeHash]ir.RelationNode),
		contexts:  make(map[ir.ContextHash]ir.ContextNode),
		adjacency: make(map[ir.ConceptHash][]ir.FactHash),
		adjacent:  make(map[ir.ConceptHash]map[ir.FactHash]struct{}),
		labels:    NewLabelIndex(),
	}
}

// InsertRecord merges a compiled record into the store.
//
// New concepts are indexed by label; known concepts are merged (UpdatedAt
// refreshed, Confidence raised to the max, unseen aliases appended) and
// counted as duplicates. A relation whose EpisodeHash is already stored is
// skipped and counted as a duplicate. The context is stored once.
//
// InsertRecord never fails.
func (s *MemoryStore) InsertRecord(record ir.MemoryRecord) ir.InsertResult {
	var result ir.InsertResult

	for _, concept := range record.Concepts {
		existing, ok := s.concepts[concept.Hash]
		if !ok {
			concept.Aliases = slices.Clone(concept.Aliases)
			if concept.Aliases == nil {
				concept.Aliases = []string{}
			}
			s.concepts[concept.Hash] = concept
			s.labels.Insert(concept.Label, concept.Hash)
			result.NewConcepts++
			continue
		}
		s.concepts[concept.Hash] = mergeConcept(existing, concept)
		result.DupesSkipped++
	}

	for _, rel := range record.Relations {
		if _, ok := s.episodes[rel.EpisodeHash]; ok {
			result.DupesSkipped++
			continue
		}

		if _, ok := s.facts[rel.FactHash]; !ok {
			result.NewFacts++
		}
		s.link(rel.SubjectHash, rel.FactHash)
		s.link(rel.ObjectHash, rel.FactHash)

		s.facts[rel.FactHash] = append(s.facts[rel.FactHash], rel)
		s.episodes[rel.EpisodeHash] = rel
		s.episodeOrder = append(s.episodeOrder, rel.EpisodeHash)
		result.NewEpisodes++
	}

	if _, ok := s.contexts[record.Context.Hash]; !ok {
		s.contexts[record.Context.Hash] = record.Context
		s.contextOrder = append(s.contextOrder, record.Context.Hash)
	}

	slog.Debug("inserted memory record",
		"new_concepts", result.NewConcepts,
		"new_facts", result.NewFacts,
		"new_episodes", result.NewEpisodes,
		"dupes_skipped", result.DupesSkipped,
	)

	return result
}

// mergeConcept folds an incoming observation of a known concept into the
// stored node. Hash, Label and CreatedAt never change.
func mergeConcept(stored, incoming ir.ConceptNode) ir.ConceptNode {
	stored.UpdatedAt = incoming.UpdatedAt
	if incoming.Confidence > stored.Confidence {
		stored.Confidence = incoming.Confidence
	}

	aliases := stored.Aliases
	cloned := false
	for _, alias := range incoming.Aliases {
		if slices.Contains(aliases, alias) {
			continue
		}
		if !cloned {
			// Never append into a slice a caller may still hold.
			aliases = slices.Clone(aliases)
			cloned = true
		}
		aliases = append(aliases, alias)
	}
	stored.Aliases = aliases
	return stored
}

func (s *MemoryStore) link(concept ir.ConceptHash, fact ir.FactHash) {
	set, ok := s.adjacent[concept]
	if !ok {
		set = make(map[ir.FactHash]struct{})
		s.adjacent[concept] = set
	}
	if _, seen := set[fact]; seen {
		return
	}
	set[fact] = struct{}{}
	s.adjacency[concept] = append(s.adjacency[concept], fact)
}

// GetConcept returns the concept stored under hash.
func (s *MemoryStore) GetConcept(hash ir.ConceptHash) (ir.ConceptNode, bool) {
	c, ok := s.concepts[hash]
	if !ok {
		return ir.ConceptNode{}, false
	}
	return cloneConcept(c), true
}

// GetConceptByLabel normalizes label and returns the matching concept.
// Aliases are not resolved here; pass an already-resolved label to look up
// by alias.
func (s *MemoryStore) GetConceptByLabel(label string) (ir.ConceptNode, bool) {
	hash, ok := s.labels.Lookup(label)
	if !ok {
		return ir.ConceptNode{}, false
	}
	return s.GetConcept(hash)
}

// GetRelations returns every episode of every fact touching the concept,
// each at most once. Order: facts in the order they first touched the
// concept, then episodes in insertion order.
func (s *MemoryStore) GetRelations(hash ir.ConceptHash) []ir.RelationNode {
	facts := s.adjacency[hash]
	if len(facts) == 0 {
		return nil
	}

	seen := make(map[ir.EpisodeHash]struct{})
	var out []ir.RelationNode
	for _, fact := range facts {
		for _, rel := range s.facts[fact] {
			if _, dup := seen[rel.EpisodeHash]; dup {
				continue
			}
			seen[rel.EpisodeHash] = struct{}{}
			out = append(out, rel)
		}
	}
	return out
}

// GetRelationsByFact returns all episodes of a fact in insertion order.
func (s *MemoryStore) GetRelationsByFact(hash ir.FactHash) []ir.RelationNode {
	return slices.Clone(s.facts[hash])
}

// GetContext returns the context stored under hash.
func (s *MemoryStore) GetContext(hash ir.ContextHash) (ir.ContextNode, bool) {
	c, ok := s.contexts[hash]
	return c, ok
}

// ConceptCount returns the number of distinct concepts.
func (s *MemoryStore) ConceptCount() int { return len(s.concepts) }

// RelationCount returns the number of stored episodes.
func (s *MemoryStore) RelationCount() int { return len(s.episodes) }

// FactCount returns the number of distinct facts.
func (s *MemoryStore) FactCount() int { return len(s.facts) }

// ContextCount returns the number of distinct contexts.
func (s *MemoryStore) ContextCount() int { return len(s.contexts) }

// LabelIndex exposes the label index for read-only inspection.
func (s *MemoryStore) LabelIndex() *LabelIndex { return s.labels }

func cloneConcept(c ir.ConceptNode) ir.ConceptNode {
	c.Aliases = slices.Clone(c.Aliases)
	return c
}
