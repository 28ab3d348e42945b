package testutil

import (
	"sync"

	"github.com/roach88/zeromem/internal/ir"
)

// SampleEventTime is the event time shared by the sample fixtures.
const SampleEventTime = "2026-02-18T00:00:00Z"

// SampleContext returns the context used by the end-to-end memory scenario.
func SampleContext() ir.ContextMeta {
	return ir.ContextMeta{
		EventTime: SampleEventTime,
		Source:    "user_prompt",
		Scope:     "0-memory_design",
	}
}

// SampleInput returns the three-tuple end-to-end scenario input. It compiles
// to four concepts and three relations under the default alias table.
func SampleInput() ir.CompilerInput {
	return ir.CompilerInput{
		Tuples: []ir.SemanticTuple{
			{Subject: "Agent", Predicate: "needs", Object: "LongTermMemory", Confidence: 0.98},
			{Subject: "0-memory", Predicate: "solves", Object: "LongTermMemory", Confidence: 0.97},
			{Subject: "0-memory", Predicate: "compiled_with", Object: "0-lang", Confidence: 0.99},
		},
		Context: SampleContext(),
	}
}

// SampleInputWithScope returns SampleInput with its context scope replaced.
// The facts are unchanged; every episode hash differs.
func SampleInputWithScope(scope string) ir.CompilerInput {
	in := SampleInput()
	in.Context.Scope = scope
	return in
}

// FixedIDGenerator returns predetermined execution ids in order.
//
// Panics when exhausted so a test that executes more graphs than expected
// fails loudly.
//
// Thread-safety: safe for concurrent use via internal mutex.
type FixedIDGenerator struct {
	mu  sync.Mutex
	ids []string
	idx int
}

// NewFixedIDGenerator creates a generator that returns ids in order.
func NewFixedIDGenerator(ids ...string) *FixedIDGenerator {
	return &FixedIDGenerator{ids: ids}
}

// Generate returns the next predetermined id.
func (g *FixedIDGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.idx >= len(g.ids) {
		panic("FixedIDGenerator: all ids exhausted")
	}
	id := g.ids[g.idx]
	g.idx++
	return id
}
