package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/zeromem/internal/compiler"
	"github.com/roach88/zeromem/internal/ir"
	"github.com/roach88/zeromem/internal/store"
	"github.com/roach88/zeromem/internal/testutil"
)

func TestIngest_DuplicateFiles(t *testing.T) {
	dir := t.TempDir()
	writeInput(t, dir, "a.json", testutil.SampleInput())
	writeInput(t, dir, "b.json", testutil.SampleInput())

	out, err := execute(t, "--format", "json", "ingest", dir)
	require.NoError(t, err)

	var result IngestResult
	resp := decodeResponse(t, out, &result)
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, 2, result.Files)
	assert.Equal(t, 6, result.Tuples)
	assert.Equal(t, ir.InsertResult{
		NewConcepts:  4,
		NewFacts:     3,
		NewEpisodes:  3,
		DupesSkipped: 7, // 4 concepts + 3 relations
	}, result.Inserted)
	assert.Equal(t, 4, result.Concepts)
	assert.Equal(t, 3, result.Relations)
	assert.Equal(t, 1, result.Contexts)
	assert.Nil(t, result.Export)
}

func TestIngest_NewScopeAddsEpisodes(t *testing.T) {
	dir := t.TempDir()
	a := writeInput(t, dir, "a.json", testutil.SampleInput())
	b := writeInput(t, dir, "b.json", testutil.SampleInputWithScope("1-memory_design"))

	out, err := execute(t, "ingest", a, b)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ Ingested 2 file(s), 6 tuple(s)")
	assert.Contains(t, out, "New:        4 concept(s), 3 fact(s), 6 episode(s)")
	assert.Contains(t, out, "Duplicates: 4")
	assert.Contains(t, out, "Store:      4 concept(s), 3 fact(s), 6 relation(s), 2 context(s)")
}

func TestIngest_MetricsFile(t *testing.T) {
	dir := t.TempDir()
	writeInput(t, dir, "a.json", testutil.SampleInput())
	writeInput(t, dir, "b.json", testutil.SampleInputWithScope("other"))
	metricsFile := filepath.Join(t.TempDir(), "zeromem.prom")

	_, err := execute(t, "--metrics-file", metricsFile, "ingest", dir)
	require.NoError(t, err)

	data, err := os.ReadFile(metricsFile)
	require.NoError(t, err)
	text := string(data)
	assert.Contains(t, text, "zeromem_concepts_new_total 4")
	assert.Contains(t, text, "zeromem_episodes_new_total 6")
	assert.Contains(t, text, "zeromem_compile_tuples_total 6")
	assert.Contains(t, text, "zeromem_compile_duration_seconds_count 2")
}

func TestIngest_MissingPath(t *testing.T) {
	out, err := execute(t, "ingest", filepath.Join(t.TempDir(), "nope"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "Error [E005]")
}

func TestIngestFiles_Concurrent(t *testing.T) {
	var files []InputFile
	for i := range 8 {
		files = append(files, InputFile{
			Path:  fmt.Sprintf("scope-%d.json", i),
			Input: testutil.SampleInputWithScope(fmt.Sprintf("scope-%d", i)),
		})
	}

	st := store.NewLocked(nil)
	result, err := ingestFiles(context.Background(), files, compiler.DefaultAliases(), st, nil, 4)
	require.NoError(t, err)

	assert.Equal(t, 4, result.Inserted.NewConcepts)
	assert.Equal(t, 3, result.Inserted.NewFacts)
	assert.Equal(t, 24, result.Inserted.NewEpisodes)
	assert.Equal(t, 7*4, result.Inserted.DupesSkipped)
	assert.Equal(t, 8, result.Contexts)
	assert.Equal(t, 24, st.RelationCount())
}

func TestIngestFiles_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	files := []InputFile{{Path: "a.json", Input: testutil.SampleInput()}}
	_, err := ingestFiles(ctx, files, compiler.DefaultAliases(), store.NewLocked(nil), nil, 1)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}
