// Package store provides the in-memory, content-addressed MemoryStore.
//
// The store holds five co-mutated structures:
//   - Concepts: ConceptHash → ConceptNode
//   - Facts: FactHash → episodes (RelationNode) in insertion order
//   - Episodes: EpisodeHash → RelationNode (uniqueness guard)
//   - Contexts: ContextHash → ContextNode
//   - Adjacency: ConceptHash → FactHashes touching the concept
//
// plus a LabelIndex from normalized label to ConceptHash.
//
// # Identity
//
// A concept is its label hash; a fact is its (subject, predicate, object)
// hash; an episode is a fact observed under one context. Re-inserting the
// same record is a no-op apart from concept merges, so ingestion is
// idempotent.
//
// # Concurrency
//
// MemoryStore is NOT synchronized. InsertRecord mutates every structure
// without atomicity across them, so concurrent use without external locking
// corrupts the store. Share a store between goroutines only through Locked,
// which serializes writers and lets readers proceed together.
//
// The store only grows: there is no deletion or eviction.
package store
