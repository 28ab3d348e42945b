package compiler

import (
	"log/slog"
	"slices"
	"strings"

	"github.com/roach88/zeromem/internal/ir"
)

// Output is the result of one Compile call.
type Output struct {
	GraphText string          `json:"graph_text"`
	Record    ir.MemoryRecord `json:"record"`
}

// Compile turns tuples plus a shared context into a MemoryRecord and its
// dataflow-graph text.
//
// Pipeline:
//  1. Resolve subject/object through the alias table; normalize predicates
//     (predicates never go through aliases)
//  2. Compute ConceptHash, FactHash, one ContextHash per batch, and an
//     EpisodeHash per tuple
//  3. Deduplicate concepts by resolved label (first occurrence wins)
//  4. Sort concepts by label
//  5. Build the MemoryRecord
//  6. Emit graph text
//
// Compile is total: empty labels, out-of-range confidences and malformed
// timestamps are accepted as-is. A nil alias table means DefaultAliases().
func Compile(input ir.CompilerInput, aliases *AliasTable) Output {
	if aliases == nil {
		aliases = DefaultAliases()
	}

	ctxHash := ir.ContextHashOf(input.Context)
	now := input.Context.EventTime

	concepts := make(map[string]ir.ConceptNode)
	relations := make([]ir.RelationNode, 0, len(input.Tuples))

	addConcept := func(label string, hash ir.ConceptHash, confidence float64) {
		if _, ok := concepts[label]; ok {
			return
		}
		concepts[label] = ir.ConceptNode{
			Hash:       hash,
			Label:      label,
			Aliases:    []string{},
			Confidence: confidence,
			CreatedAt:  now,
			UpdatedAt:  now,
		}
	}

	for _, tuple := range input.Tuples {
		subject := aliases.Resolve(tuple.Subject)
		object := aliases.Resolve(tuple.Object)
		predicate := NormalizePredicate(tuple.Predicate)

		subjectHash := ir.ConceptHashOf(subject)
		objectHash := ir.ConceptHashOf(object)

		addConcept(subject, subjectHash, tuple.Confidence)
		addConcept(object, objectHash, tuple.Confidence)

		fact := ir.FactHashOf(subject, predicate, object)
		relations = append(relations, ir.RelationNode{
			FactHash:    fact,
			EpisodeHash: ir.EpisodeHashOf(fact, ctxHash),
			SubjectHash: subjectHash,
			Predicate:   predicate,
			ObjectHash:  objectHash,
			Confidence:  tuple.Confidence,
			ContextHash: ctxHash,
			CreatedAt:   now,
		})
	}

	record := ir.MemoryRecord{
		Concepts:  sortedConcepts(concepts),
		Relations: relations,
		Context: ir.ContextNode{
			Hash: ctxHash,
			Meta: input.Context,
		},
	}

	slog.Debug("compiled memory record",
		"tuples", len(input.Tuples),
		"concepts", len(record.Concepts),
		"relations", len(record.Relations),
		"context", ctxHash.Short(12),
	)

	return Output{
		GraphText: EmitGraphText(record),
		Record:    record,
	}
}

// sortedConcepts flattens the dedup map into label order so emission never
// depends on map iteration order.
func sortedConcepts(byLabel map[string]ir.ConceptNode) []ir.ConceptNode {
	out := make([]ir.ConceptNode, 0, len(byLabel))
	for _, c := range byLabel {
		out = append(out, c)
	}
	slices.SortFunc(out, func(a, b ir.ConceptNode) int {
		return strings.Compare(a.Label, b.Label)
	})
	return out
}
