package compiler

import (
	"fmt"
	"math"
	"strings"

	"github.com/roach88/zeromem/internal/ir"
)

// Graph text identity.
const (
	GraphName        = "zeromem_compiled"
	GraphDescription = "Compiled memory graph from zeromem"
	ProofSigner      = "zeromem-compiler"

	// OutputNode is the single declared output of every emitted graph.
	OutputNode = "output"
	// ContextEntryNode is the entry point when a batch has no concepts.
	ContextEntryNode = "context"

	emptyMapNode = "empty_map"
	nodeIndent   = "        "
)

// SanitizeValue strips every ':' from s.
//
// The consuming engine's tokenizer quotes any bare word followed by a colon,
// including inside string literals, so "T00:00:00Z" would turn into stray
// map keys and break parsing. Every string embedded in graph text must pass
// through here before JSON escaping.
func SanitizeValue(s string) string {
	return strings.ReplaceAll(s, ":", "")
}

// graphWriter accumulates node lines and the MergeMap input list.
type graphWriter struct {
	nodes  []string
	merged []string
}

func (w *graphWriter) constant(id string, value ir.IRValue) {
	w.nodes = append(w.nodes, fmt.Sprintf(`{ "id": %q, "type": "Constant", "value": %s }`, id, mustCanonical(value)))
}

func (w *graphWriter) rawConstant(id, valueText string) {
	w.nodes = append(w.nodes, fmt.Sprintf(`{ "id": %q, "type": "Constant", "value": %s }`, id, valueText))
}

func (w *graphWriter) hash(id, input string) {
	w.nodes = append(w.nodes, fmt.Sprintf(`{ "id": %q, "type": "Operation", "op": "Hash", "inputs": [%q] }`, id, input))
}

func (w *graphWriter) setField(id, mapInput, valueInput, field string) {
	w.nodes = append(w.nodes, fmt.Sprintf(
		`{ "id": %q, "type": "Operation", "op": "SetField", "inputs": [%q, %q], "params": { "field": %q } }`,
		id, mapInput, valueInput, field))
}

// wrap nests valueInput under a key equal to id, so fragments never collide
// when merged, and registers the wrapper as a MergeMap input.
func (w *graphWriter) wrap(id, valueInput string) {
	w.setField(id, emptyMapNode, valueInput, id)
	w.merged = append(w.merged, id)
}

// EmitGraphText serializes a MemoryRecord into dataflow-graph text.
//
// Every fragment is built by SetField chains starting from one shared
// CreateMap node and is wrapped under a unique key; a final MergeMap combines
// the wrappers into the "output" node. The legacy Aggregate operation is
// never emitted. Node ids only contain ASCII identifiers, so %q quoting is
// plain JSON quoting.
func EmitGraphText(record ir.MemoryRecord) string {
	w := &graphWriter{}
	w.nodes = append(w.nodes, `{ "id": "empty_map", "type": "Operation", "op": "CreateMap", "inputs": [], "params": {} }`)

	for i, c := range record.Concepts {
		labelID := fmt.Sprintf("concept_label_%d", i)
		hashID := fmt.Sprintf("concept_hash_%d", i)
		setLabelID := fmt.Sprintf("concept_slabel_%d", i)
		dataID := fmt.Sprintf("concept_data_%d", i)

		w.constant(labelID, ir.IRString(SanitizeValue(c.Label)))
		w.hash(hashID, labelID)
		w.setField(setLabelID, emptyMapNode, labelID, "label")
		w.setField(dataID, setLabelID, hashID, "hash")
		w.wrap(fmt.Sprintf("concept_%d", i), dataID)
	}

	meta := record.Context.Meta
	w.constant("context", ir.IRObject{
		"event_time": ir.IRString(SanitizeValue(meta.EventTime)),
		"source":     ir.IRString(SanitizeValue(meta.Source)),
		"scope":      ir.IRString(SanitizeValue(meta.Scope)),
	})
	w.hash("context_hash", "context")
	w.setField("context_map", emptyMapNode, "context", "context")
	w.setField("context_wrapped", "context_map", "context_hash", "context_hash")
	w.merged = append(w.merged, "context_wrapped")

	for i, r := range record.Relations {
		relID := fmt.Sprintf("rel_%d", i)
		w.constant(relID, ir.IRObject{
			"subject_hash": ir.IRString(r.SubjectHash.String()),
			"predicate":    ir.IRString(SanitizeValue(r.Predicate)),
			"object_hash":  ir.IRString(r.ObjectHash.String()),
			"confidence":   confidenceValue(r.Confidence),
			"fact_hash":    ir.IRString(r.FactHash.String()),
			"episode_hash": ir.IRString(r.EpisodeHash.String()),
		})
		w.setField(fmt.Sprintf("wrap_rel_%d", i), emptyMapNode, relID, relID)
		w.merged = append(w.merged, fmt.Sprintf("wrap_rel_%d", i))
	}

	// Signing is outside the compiler; the proof fragment is a fixed placeholder.
	w.rawConstant("proof", fmt.Sprintf(`{ "trace_hash": "pending", "signer": %q, "signature": "pending" }`, ProofSigner))
	w.setField("wrap_proof", emptyMapNode, "proof", "proof")
	w.merged = append(w.merged, "wrap_proof")

	quoted := make([]string, len(w.merged))
	for i, id := range w.merged {
		quoted[i] = fmt.Sprintf("%q", id)
	}
	w.nodes = append(w.nodes, fmt.Sprintf(`{ "id": %q, "type": "Operation", "op": "MergeMap", "inputs": [%s] }`,
		OutputNode, strings.Join(quoted, ", ")))

	entry := ContextEntryNode
	if len(record.Concepts) > 0 {
		entry = "concept_label_0"
	}

	var b strings.Builder
	b.WriteString("Graph {\n")
	fmt.Fprintf(&b, "    \"name\": %q,\n", GraphName)
	fmt.Fprintf(&b, "    \"version\": %d,\n", ir.GraphVersion)
	fmt.Fprintf(&b, "    \"description\": %q,\n", GraphDescription)
	b.WriteString("    \"nodes\": [\n")
	for i, node := range w.nodes {
		b.WriteString(nodeIndent)
		b.WriteString(node)
		if i < len(w.nodes)-1 {
			b.WriteByte(',')
		}
		b.WriteByte('\n')
	}
	b.WriteString("    ],\n")
	fmt.Fprintf(&b, "    \"entry_point\": %q,\n", entry)
	fmt.Fprintf(&b, "    \"outputs\": [%q],\n", OutputNode)
	b.WriteString("    \"metadata\": { \"author\": \"zeromem\", \"tags\": [\"memory\", \"compiled\"] }\n")
	b.WriteString("}")
	return b.String()
}

// confidenceValue renders a confidence for graph text. JSON has no NaN or
// Inf, so non-finite values become null rather than failing compilation.
func confidenceValue(c float64) ir.IRValue {
	if math.IsNaN(c) || math.IsInf(c, 0) {
		return ir.IRNull{}
	}
	return ir.IRFloat(c)
}

// mustCanonical encodes values the emitter built itself; strings, finite
// floats and objects of them always encode. Strings keep their exact bytes
// so a Hash over an embedded label matches the compiler's identity.
func mustCanonical(v ir.IRValue) string {
	data, err := ir.MarshalVerbatim(v)
	if err != nil {
		panic(fmt.Sprintf("compiler: canonical encoding failed: %v", err))
	}
	return string(data)
}
