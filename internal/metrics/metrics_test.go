package metrics

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/zeromem/internal/ir"
)

func TestCollector_ObserveInsert(t *testing.T) {
	c, err := NewCollector(prometheus.NewRegistry())
	require.NoError(t, err)

	c.ObserveInsert(ir.InsertResult{NewConcepts: 4, NewFacts: 3, NewEpisodes: 3})
	c.ObserveInsert(ir.InsertResult{NewEpisodes: 3, DupesSkipped: 4})

	assert.Equal(t, 4.0, testutil.ToFloat64(c.conceptsNew))
	assert.Equal(t, 3.0, testutil.ToFloat64(c.factsNew))
	assert.Equal(t, 6.0, testutil.ToFloat64(c.episodesNew))
	assert.Equal(t, 4.0, testutil.ToFloat64(c.duplicates))
}

func TestCollector_ObserveCompile(t *testing.T) {
	reg := prometheus.NewRegistry()
	c, err := NewCollector(reg)
	require.NoError(t, err)

	c.ObserveCompile(3, 2*time.Millisecond)
	c.ObserveCompile(5, time.Millisecond)

	assert.Equal(t, 8.0, testutil.ToFloat64(c.compileTuples))
	assert.Equal(t, 1, testutil.CollectAndCount(c.compileDuration))

	families, err := reg.Gather()
	require.NoError(t, err)
	assert.Len(t, families, 6)
}

func TestCollector_DoubleRegistrationFails(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := NewCollector(reg)
	require.NoError(t, err)

	_, err = NewCollector(reg)
	assert.ErrorContains(t, err, "register metrics")
}

func TestCollector_NilIsNoop(t *testing.T) {
	var c *Collector
	assert.NotPanics(t, func() {
		c.ObserveInsert(ir.InsertResult{NewConcepts: 1})
		c.ObserveCompile(1, time.Second)
	})
}

func TestWriteTextfile(t *testing.T) {
	reg := prometheus.NewRegistry()
	c, err := NewCollector(reg)
	require.NoError(t, err)
	c.ObserveInsert(ir.InsertResult{NewConcepts: 2})

	path := filepath.Join(t.TempDir(), "zeromem.prom")
	require.NoError(t, WriteTextfile(path, reg))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "zeromem_concepts_new_total 2")
	assert.Contains(t, string(data), "# TYPE zeromem_compile_duration_seconds histogram")
}
