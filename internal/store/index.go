package store

import (
	"github.com/roach88/zeromem/internal/compiler"
	"github.com/roach88/zeromem/internal/ir"
)

// LabelIndex maps normalized labels to concept hashes.
type LabelIndex struct {
	byLabel map[string]ir.ConceptHash
}

// NewLabelIndex creates an empty index.
func NewLabelIndex() *LabelIndex {
	return &LabelIndex{byLabel: make(map[string]ir.ConceptHash)}
}

// Insert normalizes label and registers hash under it, so records built
// outside the compiler are found by Lookup too.
func (idx *LabelIndex) Insert(label string, hash ir.ConceptHash) {
	idx.byLabel[compiler.NormalizeLabel(label)] = hash
}

// Lookup normalizes label and returns the concept hash registered for it.
func (idx *LabelIndex) Lookup(label string) (ir.ConceptHash, bool) {
	hash, ok := idx.byLabel[compiler.NormalizeLabel(label)]
	return hash, ok
}

// Len returns the number of indexed labels.
func (idx *LabelIndex) Len() int {
	return len(idx.byLabel)
}
