package store

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/zeromem/internal/compiler"
	"github.com/roach88/zeromem/internal/ir"
	"github.com/roach88/zeromem/internal/testutil"
)

func TestSnapshot_Deterministic(t *testing.T) {
	a := NewMemoryStore()
	b := NewMemoryStore()
	for _, s := range []*MemoryStore{a, b} {
		s.InsertRecord(compileSample(t))
		s.InsertRecord(compiler.Compile(testutil.SampleInputWithScope("other"), nil).Record)
	}

	snapA := a.Snapshot()
	snapB := b.Snapshot()

	assert.Equal(t, snapA, snapB)
	require.Len(t, snapA.Concepts, 4)
	assert.Equal(t, "0-lang", snapA.Concepts[0].Label)
	assert.Len(t, snapA.Relations, 6)
	assert.Len(t, snapA.Contexts, 2)
	assert.Equal(t, "0-memory_design", snapA.Contexts[0].Meta.Scope)
}

func TestRecordSnapshot(t *testing.T) {
	record := compileSample(t)
	snap := RecordSnapshot(record)

	assert.Equal(t, record.Concepts, snap.Concepts)
	assert.Equal(t, record.Relations, snap.Relations)
	assert.Equal(t, []ir.ContextNode{record.Context}, snap.Contexts)
}

func TestLocked_ConcurrentInserts(t *testing.T) {
	locked := NewLocked(nil)

	scopes := []string{"a", "b", "c", "d", "e", "f", "g", "h"}
	var wg sync.WaitGroup
	results := make([]ir.InsertResult, len(scopes))
	for i, scope := range scopes {
		wg.Add(1)
		go func(i int, scope string) {
			defer wg.Done()
			record := compiler.Compile(testutil.SampleInputWithScope(scope), nil).Record
			results[i] = locked.InsertRecord(record)
			_ = locked.GetRelations(ir.ConceptHashOf("agent"))
		}(i, scope)
	}
	wg.Wait()

	var total ir.InsertResult
	for _, r := range results {
		total.Add(r)
	}
	assert.Equal(t, 4, total.NewConcepts)
	assert.Equal(t, 3, total.NewFacts)
	assert.Equal(t, 24, total.NewEpisodes)

	assert.Equal(t, 4, locked.ConceptCount())
	assert.Equal(t, 3, locked.FactCount())
	assert.Equal(t, 24, locked.RelationCount())
	assert.Equal(t, 8, locked.ContextCount())
	assert.Len(t, locked.Snapshot().Relations, 24)
}

func TestLocked_Reader(t *testing.T) {
	locked := NewLocked(NewMemoryStore())
	record := compileSample(t)
	locked.InsertRecord(record)

	var r Reader = locked
	c, ok := r.GetConceptByLabel("AGENT")
	require.True(t, ok)
	assert.Equal(t, ir.ConceptHashOf("agent"), c.Hash)

	_, ok = r.GetConcept(ir.ConceptHashOf("0-lang"))
	assert.True(t, ok)
	assert.Len(t, r.GetRelationsByFact(record.Relations[0].FactHash), 1)
	_, ok = r.GetContext(record.Context.Hash)
	assert.True(t, ok)
}
