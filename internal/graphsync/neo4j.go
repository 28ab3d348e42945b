package graphsync

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/roach88/zeromem/internal/store"
)

// Options configures Connect.
type Options struct {
	URI         string
	User        string
	Password    string
	Database    string
	Timeout     time.Duration
	MaxPoolSize int
}

// Stats summarizes what an upsert changed in the database.
type Stats struct {
	NodesCreated         int `json:"nodes_created"`
	RelationshipsCreated int `json:"relationships_created"`
	PropertiesSet        int `json:"properties_set"`
}

func (s *Stats) add(c neo4j.Counters) {
	s.NodesCreated += c.NodesCreated()
	s.RelationshipsCreated += c.RelationshipsCreated()
	s.PropertiesSet += c.PropertiesSet()
}

// Neo4j writes snapshots to a Neo4j database.
type Neo4j struct {
	driver   neo4j.DriverWithContext
	database string
}

// Connect creates a driver and verifies connectivity.
func Connect(ctx context.Context, opts Options) (*Neo4j, error) {
	if opts.URI == "" {
		return nil, fmt.Errorf("graphsync: neo4j uri required")
	}
	if opts.User == "" {
		opts.User = "neo4j"
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.MaxPoolSize <= 0 {
		opts.MaxPoolSize = 50
	}

	auth := neo4j.BasicAuth(opts.User, opts.Password, "")
	driver, err := neo4j.NewDriverWithContext(opts.URI, auth, func(cfg *neo4j.Config) {
		cfg.MaxConnectionPoolSize = opts.MaxPoolSize
		cfg.SocketConnectTimeout = opts.Timeout
	})
	if err != nil {
		return nil, fmt.Errorf("graphsync: init driver: %w", err)
	}

	verifyCtx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()
	if err := driver.VerifyConnectivity(verifyCtx); err != nil {
		_ = driver.Close(ctx)
		return nil, fmt.Errorf("graphsync: verify connectivity: %w", err)
	}

	return &Neo4j{driver: driver, database: opts.Database}, nil
}

// Close releases the driver.
func (n *Neo4j) Close(ctx context.Context) error {
	if n == nil || n.driver == nil {
		return nil
	}
	err := n.driver.Close(ctx)
	n.driver = nil
	return err
}

var schemaStatements = []string{
	`CREATE CONSTRAINT zeromem_concept_hash IF NOT EXISTS FOR (c:Concept) REQUIRE c.hash IS UNIQUE`,
	`CREATE CONSTRAINT zeromem_context_hash IF NOT EXISTS FOR (x:Context) REQUIRE x.hash IS UNIQUE`,
}

const upsertConcepts = `
UNWIND $concepts AS c
MERGE (n:Concept {hash: c.hash})
ON CREATE SET n.created_at = c.created_at, n.confidence = c.confidence
SET n.label = c.label,
    n.aliases = c.aliases,
    n.updated_at = c.updated_at,
    n.confidence = CASE WHEN c.confidence > n.confidence THEN c.confidence ELSE n.confidence END
`

const upsertContexts = `
UNWIND $contexts AS x
MERGE (ctx:Context {hash: x.hash})
ON CREATE SET ctx.event_time = x.event_time,
    ctx.source = x.source,
    ctx.scope = x.scope,
    ctx.agent_id = x.agent_id,
    ctx.session_id = x.session_id,
    ctx.metadata_json = x.metadata_json
`

const upsertFacts = `
UNWIND $facts AS f
MATCH (s:Concept {hash: f.subject_hash})
MATCH (o:Concept {hash: f.object_hash})
MATCH (ctx:Context {hash: f.context_hash})
MERGE (s)-[r:FACT {episode_hash: f.episode_hash}]->(o)
ON CREATE SET r.fact_hash = f.fact_hash,
    r.predicate = f.predicate,
    r.confidence = f.confidence,
    r.context_hash = f.context_hash,
    r.created_at = f.created_at
MERGE (s)-[e:OBSERVED_IN {episode_hash: f.episode_hash}]->(ctx)
`

// Upsert writes a snapshot in one write transaction. Schema constraints are
// created first on a best-effort basis.
func (n *Neo4j) Upsert(ctx context.Context, snap store.Snapshot) (Stats, error) {
	params, err := BuildUpsertParams(snap)
	if err != nil {
		return Stats{}, fmt.Errorf("graphsync: build params: %w", err)
	}

	session := n.driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   neo4j.AccessModeWrite,
		DatabaseName: n.database,
	})
	defer session.Close(ctx)

	for _, q := range schemaStatements {
		res, err := session.Run(ctx, q, nil)
		if err != nil {
			slog.Warn("neo4j schema init failed (continuing)", "error", err)
			continue
		}
		_, _ = res.Consume(ctx)
	}

	batches := []struct {
		query string
		name  string
		rows  []map[string]any
	}{
		{upsertConcepts, "concepts", params.Concepts},
		{upsertContexts, "contexts", params.Contexts},
		{upsertFacts, "facts", params.Facts},
	}

	var stats Stats
	_, err = session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		stats = Stats{}
		for _, b := range batches {
			if len(b.rows) == 0 {
				continue
			}
			res, err := tx.Run(ctx, b.query, map[string]any{b.name: b.rows})
			if err != nil {
				return nil, fmt.Errorf("upsert %s: %w", b.name, err)
			}
			summary, err := res.Consume(ctx)
			if err != nil {
				return nil, fmt.Errorf("upsert %s: %w", b.name, err)
			}
			stats.add(summary.Counters())
		}
		return nil, nil
	})
	if err != nil {
		return Stats{}, fmt.Errorf("graphsync: %w", err)
	}

	slog.Info("exported memory to neo4j",
		"concepts", len(params.Concepts),
		"contexts", len(params.Contexts),
		"facts", len(params.Facts),
		"nodes_created", stats.NodesCreated,
		"relationships_created", stats.RelationshipsCreated,
	)
	return stats, nil
}
