package graphsync

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/zeromem/internal/compiler"
	"github.com/roach88/zeromem/internal/store"
	"github.com/roach88/zeromem/internal/testutil"
)

func TestConnect_RequiresURI(t *testing.T) {
	_, err := Connect(context.Background(), Options{})
	assert.ErrorContains(t, err, "neo4j uri required")
}

func TestNeo4j_CloseNil(t *testing.T) {
	var n *Neo4j
	assert.NoError(t, n.Close(context.Background()))
}

// Upsert tests need a live database: set ZEROMEM_TEST_NEO4J_URI (and
// ZEROMEM_TEST_NEO4J_PASSWORD if auth is enabled).
func TestNeo4j_UpsertIdempotent(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	uri := os.Getenv("ZEROMEM_TEST_NEO4J_URI")
	if uri == "" {
		t.Skip("ZEROMEM_TEST_NEO4J_URI not set")
	}

	ctx := context.Background()
	n, err := Connect(ctx, Options{URI: uri, Password: os.Getenv("ZEROMEM_TEST_NEO4J_PASSWORD")})
	require.NoError(t, err)
	t.Cleanup(func() { n.Close(ctx) })

	in := testutil.SampleInputWithScope("graphsync-test")
	snap := store.RecordSnapshot(compiler.Compile(in, nil).Record)

	_, err = n.Upsert(ctx, snap)
	require.NoError(t, err)

	again, err := n.Upsert(ctx, snap)
	require.NoError(t, err)
	assert.Equal(t, 0, again.NodesCreated)
	assert.Equal(t, 0, again.RelationshipsCreated)
}
