package store

import (
	"sync"

	"github.com/roach88/zeromem/internal/ir"
)

// Locked wraps a MemoryStore for shared use: InsertRecord takes the write
// lock, queries take the read lock.
type Locked struct {
	mu sync.RWMutex
	s  *MemoryStore
}

var (
	_ Reader = (*MemoryStore)(nil)
	_ Reader = (*Locked)(nil)
)

// NewLocked wraps s. The caller must not use s directly afterwards.
func NewLocked(s *MemoryStore) *Locked {
	if s == nil {
		s = NewMemoryStore()
	}
	return &Locked{s: s}
}

// InsertRecord inserts under the write lock.
func (l *Locked) InsertRecord(record ir.MemoryRecord) ir.InsertResult {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.s.InsertRecord(record)
}

func (l *Locked) GetConcept(hash ir.ConceptHash) (ir.ConceptNode, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.s.GetConcept(hash)
}

func (l *Locked) GetConceptByLabel(label string) (ir.ConceptNode, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.s.GetConceptByLabel(label)
}

func (l *Locked) GetRelations(hash ir.ConceptHash) []ir.RelationNode {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.s.GetRelations(hash)
}

func (l *Locked) GetRelationsByFact(hash ir.FactHash) []ir.RelationNode {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.s.GetRelationsByFact(hash)
}

func (l *Locked) GetContext(hash ir.ContextHash) (ir.ContextNode, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.s.GetContext(hash)
}

func (l *Locked) ConceptCount() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.s.ConceptCount()
}

func (l *Locked) RelationCount() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.s.RelationCount()
}

func (l *Locked) FactCount() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.s.FactCount()
}

func (l *Locked) ContextCount() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.s.ContextCount()
}

// Snapshot copies the store under the read lock.
func (l *Locked) Snapshot() Snapshot {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.s.Snapshot()
}
