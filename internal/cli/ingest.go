package cli

import (
	"context"
	"fmt"
	"io"
	"runtime"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/roach88/zeromem/internal/compiler"
	"github.com/roach88/zeromem/internal/config"
	"github.com/roach88/zeromem/internal/graphsync"
	"github.com/roach88/zeromem/internal/ir"
	"github.com/roach88/zeromem/internal/metrics"
	"github.com/roach88/zeromem/internal/store"
)

// IngestOptions holds flags for the ingest command.
type IngestOptions struct {
	*RootOptions
	Jobs int // concurrent compilations
}

// IngestResult summarizes one ingest run.
type IngestResult struct {
	Files     int              `json:"files"`
	Tuples    int              `json:"tuples"`
	Inserted  ir.InsertResult  `json:"inserted"`
	Concepts  int              `json:"concepts"`
	Facts     int              `json:"facts"`
	Relations int              `json:"relations"`
	Contexts  int              `json:"contexts"`
	Export    *graphsync.Stats `json:"export,omitempty"`
}

func (r IngestResult) WriteText(w io.Writer) error {
	fmt.Fprintf(w, "✓ Ingested %d file(s), %d tuple(s)\n\n", r.Files, r.Tuples)
	fmt.Fprintf(w, "New:        %d concept(s), %d fact(s), %d episode(s)\n",
		r.Inserted.NewConcepts, r.Inserted.NewFacts, r.Inserted.NewEpisodes)
	fmt.Fprintf(w, "Duplicates: %d\n", r.Inserted.DupesSkipped)
	fmt.Fprintf(w, "Store:      %d concept(s), %d fact(s), %d relation(s), %d context(s)\n",
		r.Concepts, r.Facts, r.Relations, r.Contexts)
	if r.Export != nil {
		fmt.Fprintf(w, "Neo4j:      %d node(s), %d relationship(s) created\n",
			r.Export.NodesCreated, r.Export.RelationshipsCreated)
	}
	return nil
}

// NewIngestCommand creates the ingest command.
func NewIngestCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &IngestOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "ingest <path>...",
		Short: "Compile input files into a memory store",
		Long: `Compile every input file concurrently and insert the records into one
in-memory store, reporting what was new and what was a duplicate.

With neo4j.uri configured the resulting graph is upserted into Neo4j; with
metrics.file configured compile and insert counters are written as a
Prometheus textfile.`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIngest(opts, args, cmd)
		},
	}

	cmd.Flags().IntVarP(&opts.Jobs, "jobs", "j", runtime.NumCPU(), "concurrent compilations")

	return cmd
}

func runIngest(opts *IngestOptions, paths []string, cmd *cobra.Command) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	formatter := newFormatter(opts.RootOptions, cmd)

	cfg, aliases, err := setup(opts.RootOptions, cmd, formatter)
	if err != nil {
		return err
	}

	files, err := LoadInputs(paths)
	if err != nil {
		return failLoad(formatter, err)
	}

	reg, collector, err := newMetrics(cfg)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeGeneric, err.Error(), nil)
	}

	st := store.NewLocked(nil)
	result, err := ingestFiles(ctx, files, aliases, st, collector, opts.Jobs)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeGeneric, err.Error(), nil)
	}
	formatter.VerboseLog("Ingested %d file(s) with %d job(s)", len(files), opts.Jobs)

	if cfg.Neo4j.Enabled() {
		stats, err := exportNeo4j(ctx, cfg.Neo4j, st.Snapshot())
		if err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeBackend, err.Error(), nil)
		}
		result.Export = &stats
	}

	if reg != nil {
		if err := metrics.WriteTextfile(cfg.Metrics.File, reg); err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeWriteFailed, err.Error(), nil)
		}
		formatter.VerboseLog("Wrote metrics to %s", cfg.Metrics.File)
	}

	return formatter.Success(result)
}

// newMetrics builds a private registry and collector when a metrics file is
// configured. Both are nil otherwise; a nil Collector ignores observations.
func newMetrics(cfg *config.Config) (*prometheus.Registry, *metrics.Collector, error) {
	if cfg.Metrics.File == "" {
		return nil, nil, nil
	}
	reg := prometheus.NewRegistry()
	collector, err := metrics.NewCollector(reg)
	if err != nil {
		return nil, nil, err
	}
	return reg, collector, nil
}

// ingestFiles compiles files concurrently and inserts every record into st.
// Insertion order across files is unspecified; the InsertResult totals do
// not depend on it.
func ingestFiles(ctx context.Context, files []InputFile, aliases *compiler.AliasTable, st *store.Locked, collector *metrics.Collector, jobs int) (IngestResult, error) {
	if jobs < 1 {
		jobs = 1
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(jobs)

	var (
		mu     sync.Mutex
		total  ir.InsertResult
		tuples int
	)

	for _, file := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			start := time.Now()
			out := compiler.Compile(file.Input, aliases)
			collector.ObserveCompile(len(file.Input.Tuples), time.Since(start))

			res := st.InsertRecord(out.Record)
			collector.ObserveInsert(res)

			mu.Lock()
			total.Add(res)
			tuples += len(file.Input.Tuples)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return IngestResult{}, fmt.Errorf("ingest: %w", err)
	}

	return IngestResult{
		Files:     len(files),
		Tuples:    tuples,
		Inserted:  total,
		Concepts:  st.ConceptCount(),
		Facts:     st.FactCount(),
		Relations: st.RelationCount(),
		Contexts:  st.ContextCount(),
	}, nil
}

// exportNeo4j upserts snap into the configured database.
func exportNeo4j(ctx context.Context, cfg config.Neo4jConfig, snap store.Snapshot) (graphsync.Stats, error) {
	exporter, err := graphsync.Connect(ctx, cfg.Options())
	if err != nil {
		return graphsync.Stats{}, err
	}
	defer exporter.Close(ctx)

	return exporter.Upsert(ctx, snap)
}
