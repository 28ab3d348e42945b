package runtime

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/zeromem/internal/compiler"
	"github.com/roach88/zeromem/internal/ir"
	"github.com/roach88/zeromem/internal/statestore"
	"github.com/roach88/zeromem/internal/testutil"
)

func newTestLocal(ids ...string) *Local {
	return NewLocal(statestore.NewMemory(),
		WithIDGenerator(testutil.NewFixedIDGenerator(ids...)),
		WithSequencer(testutil.NewEventClock()),
	)
}

func field(t *testing.T, v ir.IRValue, key string) ir.IRValue {
	t.Helper()
	obj, ok := v.(ir.IRObject)
	require.True(t, ok, "want map, got %T", v)
	got, ok := obj[key]
	require.True(t, ok, "missing key %q", key)
	return got
}

func TestLocal_ExecuteCompiledGraph(t *testing.T) {
	l := newTestLocal("exec-1")
	out := compiler.Compile(testutil.SampleInput(), nil)

	exec, err := l.Execute(context.Background(), out.GraphText, nil)
	require.NoError(t, err)

	assert.Equal(t, "exec-1", exec.ID)
	assert.Equal(t, int64(1), exec.Seq)
	require.Contains(t, exec.Outputs, "output")
	result := exec.Outputs["output"]

	for i, c := range out.Record.Concepts {
		concept := field(t, result, fmt.Sprintf("concept_%d", i))
		assert.Equal(t, ir.IRString(c.Label), field(t, concept, "label"))
		assert.Equal(t, ir.IRString(c.Hash.String()), field(t, concept, "hash"), "graph hash matches ConceptHash")
	}

	ctxFragment := field(t, result, "context")
	assert.Equal(t, ir.IRString("2026-02-18T000000Z"), field(t, ctxFragment, "event_time"))
	assert.Equal(t, ir.IRString("0-memory_design"), field(t, ctxFragment, "scope"))
	ctxDigest, err := HashValue(ctxFragment)
	require.NoError(t, err)
	assert.Equal(t, ir.IRString(ctxDigest), field(t, result, "context_hash"))

	rel := field(t, result, "rel_2")
	assert.Equal(t, ir.IRString("compiled_with"), field(t, rel, "predicate"))
	assert.Equal(t, ir.IRFloat(0.99), field(t, rel, "confidence"))
	assert.Equal(t, ir.IRString(out.Record.Relations[2].EpisodeHash.String()), field(t, rel, "episode_hash"))

	proof := field(t, result, "proof")
	assert.Equal(t, ir.IRString(compiler.ProofSigner), field(t, proof, "signer"))

	assert.Len(t, result.(ir.IRObject), len(out.Record.Concepts)+2+len(out.Record.Relations)+1)
}

func TestLocal_DecomposedLabelHashMatchesConceptHash(t *testing.T) {
	l := newTestLocal("exec-1")
	out := compiler.Compile(ir.CompilerInput{
		Tuples: []ir.SemanticTuple{
			{Subject: "cafe\u0301", Predicate: "serves", Object: "cre\u0300me bru\u0302le\u0301e", Confidence: 0.9},
		},
		Context: testutil.SampleContext(),
	}, nil)
	require.Len(t, out.Record.Concepts, 2)
	assert.Contains(t, out.GraphText, "cafe\u0301", "graph text keeps the decomposed bytes")

	outputs, err := l.ExecuteGraph(context.Background(), out.GraphText, nil)
	require.NoError(t, err)

	for i, c := range out.Record.Concepts {
		concept := field(t, outputs["output"], fmt.Sprintf("concept_%d", i))
		assert.Equal(t, ir.IRString(c.Label), field(t, concept, "label"))
		assert.Equal(t, ir.IRString(c.Hash.String()), field(t, concept, "hash"))
	}
}

func TestLocal_ExecuteEmptyRecordGraph(t *testing.T) {
	l := newTestLocal("exec-1")
	text := compiler.Compile(ir.CompilerInput{Context: testutil.SampleContext()}, nil).GraphText

	outputs, err := l.ExecuteGraph(context.Background(), text, nil)
	require.NoError(t, err)

	result := outputs["output"].(ir.IRObject)
	assert.ElementsMatch(t, []string{"context", "context_hash", "proof"}, result.SortedKeys())
}

func TestLocal_NamedInputsOverrideConstants(t *testing.T) {
	l := newTestLocal("exec-1")
	text := compiler.Compile(testutil.SampleInput(), nil).GraphText

	outputs, err := l.ExecuteGraph(context.Background(), text, map[string]ir.IRValue{
		"concept_label_0": ir.IRString("override"),
	})
	require.NoError(t, err)

	concept := field(t, outputs["output"], "concept_0")
	assert.Equal(t, ir.IRString("override"), field(t, concept, "label"))
	assert.Equal(t, ir.IRString(ir.ConceptHashOf("override").String()), field(t, concept, "hash"))
}

func TestLocal_InputMustNameConstant(t *testing.T) {
	l := newTestLocal()
	text := compiler.Compile(testutil.SampleInput(), nil).GraphText

	_, err := l.ExecuteGraph(context.Background(), text, map[string]ir.IRValue{
		"output": ir.IRString("x"),
	})
	require.Error(t, err)

	var ge *GraphError
	require.ErrorAs(t, err, &ge)
	assert.Equal(t, ErrCodeInvalid, ge.Code)
	assert.Equal(t, "output", ge.NodeID)
	assert.Equal(t, text, ge.Source)
}

func TestLocal_ExecutionErrorCarriesNodeAndSource(t *testing.T) {
	l := newTestLocal("exec-1")
	text := graphOf("s", "f",
		`{ "id": "s", "type": "Constant", "value": "not a map" }`,
		`{ "id": "f", "type": "Operation", "op": "SetField", "inputs": ["s", "s"], "params": { "field": "x" } }`)

	_, err := l.ExecuteGraph(context.Background(), text, nil)
	require.Error(t, err)

	var ge *GraphError
	require.ErrorAs(t, err, &ge)
	assert.Equal(t, ErrCodeExecute, ge.Code)
	assert.Equal(t, "f", ge.NodeID)
	assert.Equal(t, text, ge.Source)
	assert.ErrorContains(t, err, "want a map")
}

func TestLocal_ParseErrorReturnedUnmodified(t *testing.T) {
	l := newTestLocal()
	_, err := l.ExecuteGraph(context.Background(), "Graph { broken", nil)
	assert.True(t, IsParseError(err))
}

func TestLocal_MergeMapLaterKeysWin(t *testing.T) {
	l := newTestLocal("exec-1")
	text := graphOf("a", "m",
		`{ "id": "a", "type": "Constant", "value": { "k": 1, "only_a": true } }`,
		`{ "id": "b", "type": "Constant", "value": { "k": 2 } }`,
		`{ "id": "m", "type": "Operation", "op": "MergeMap", "inputs": ["a", "b"] }`)

	outputs, err := l.ExecuteGraph(context.Background(), text, nil)
	require.NoError(t, err)
	assert.Equal(t, ir.IRObject{"k": ir.IRInt(2), "only_a": ir.IRBool(true)}, outputs["m"])
}

func TestLocal_SetFieldDoesNotMutateInput(t *testing.T) {
	l := newTestLocal("exec-1")
	text := graphOf("e", "m",
		`{ "id": "e", "type": "Operation", "op": "CreateMap", "inputs": [] }`,
		`{ "id": "v1", "type": "Constant", "value": 1 }`,
		`{ "id": "v2", "type": "Constant", "value": 2 }`,
		`{ "id": "a", "type": "Operation", "op": "SetField", "inputs": ["e", "v1"], "params": { "field": "a" } }`,
		`{ "id": "b", "type": "Operation", "op": "SetField", "inputs": ["e", "v2"], "params": { "field": "b" } }`,
		`{ "id": "m", "type": "Operation", "op": "MergeMap", "inputs": ["a", "b"] }`)

	outputs, err := l.ExecuteGraph(context.Background(), text, nil)
	require.NoError(t, err)
	assert.Equal(t, ir.IRObject{"a": ir.IRInt(1), "b": ir.IRInt(2)}, outputs["m"])
}

func TestLocal_CanceledContext(t *testing.T) {
	l := newTestLocal("exec-1")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := l.ExecuteGraph(ctx, compiler.Compile(testutil.SampleInput(), nil).GraphText, nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLocal_SequenceAdvancesPerExecution(t *testing.T) {
	l := newTestLocal("exec-1", "exec-2")
	text := compiler.Compile(testutil.SampleInput(), nil).GraphText

	first, err := l.Execute(context.Background(), text, nil)
	require.NoError(t, err)
	second, err := l.Execute(context.Background(), text, nil)
	require.NoError(t, err)

	assert.Equal(t, int64(1), first.Seq)
	assert.Equal(t, int64(2), second.Seq)
	assert.Equal(t, "exec-2", second.ID)
	assert.Equal(t, first.Outputs, second.Outputs)
}

func TestLocal_Hash(t *testing.T) {
	l := NewLocal(nil)
	assert.Equal(t, [ir.HashSize]byte(ir.ConceptHashOf("agent")), l.Hash([]byte("agent")))
}

func TestLocal_State(t *testing.T) {
	ctx := context.Background()
	l := NewLocal(nil)

	v, found, err := l.LoadState(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, found)
	assert.Nil(t, v)

	value := ir.IRObject{"concepts": ir.IRInt(4)}
	require.NoError(t, l.SaveState(ctx, "memory/latest", value))

	v, found, err = l.LoadState(ctx, "memory/latest")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, value, v)
}

func TestLocal_StateErrorsWrapped(t *testing.T) {
	l := NewLocal(nil)
	err := l.SaveState(context.Background(), "", ir.IRInt(1))
	assert.ErrorIs(t, err, statestore.ErrEmptyKey)
	assert.ErrorContains(t, err, "save state")
}

func TestHashValue(t *testing.T) {
	s, err := HashValue(ir.IRString("agent"))
	require.NoError(t, err)
	assert.Equal(t, "d4f0bc5a29de06b510f9aa428f1eedba926012b591fef7a518e776a7c9bd1824", s)

	a, err := HashValue(ir.IRObject{"b": ir.IRInt(1), "a": ir.IRInt(2)})
	require.NoError(t, err)
	b, err := HashValue(ir.IRObject{"a": ir.IRInt(2), "b": ir.IRInt(1)})
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestClock(t *testing.T) {
	c := NewClock()
	assert.Equal(t, int64(1), c.Next())
	assert.Equal(t, int64(2), c.Next())
}

func TestUUIDv7Generator(t *testing.T) {
	gen := UUIDv7Generator{}
	a, b := gen.Generate(), gen.Generate()
	assert.Len(t, a, 36)
	assert.NotEqual(t, a, b)
}
