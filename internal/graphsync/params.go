package graphsync

import (
	"github.com/roach88/zeromem/internal/ir"
	"github.com/roach88/zeromem/internal/store"
)

// Params holds the UNWIND batches for one upsert.
type Params struct {
	Concepts []map[string]any
	Contexts []map[string]any
	Facts    []map[string]any
}

// BuildUpsertParams flattens a snapshot into Cypher parameter batches.
// Hashes are passed as lowercase hex. Context metadata is stored as
// canonical JSON text because Neo4j properties cannot hold maps.
func BuildUpsertParams(snap store.Snapshot) (Params, error) {
	p := Params{
		Concepts: make([]map[string]any, 0, len(snap.Concepts)),
		Contexts: make([]map[string]any, 0, len(snap.Contexts)),
		Facts:    make([]map[string]any, 0, len(snap.Relations)),
	}

	for _, c := range snap.Concepts {
		aliases := c.Aliases
		if aliases == nil {
			aliases = []string{}
		}
		p.Concepts = append(p.Concepts, map[string]any{
			"hash":       c.Hash.String(),
			"label":      c.Label,
			"aliases":    aliases,
			"confidence": c.Confidence,
			"created_at": c.CreatedAt,
			"updated_at": c.UpdatedAt,
		})
	}

	for _, ctx := range snap.Contexts {
		metadata := make(map[string]any, len(ctx.Meta.Metadata))
		for k, v := range ctx.Meta.Metadata {
			metadata[k] = v
		}
		metadataJSON, err := ir.MarshalCanonical(metadata)
		if err != nil {
			return Params{}, err
		}
		p.Contexts = append(p.Contexts, map[string]any{
			"hash":          ctx.Hash.String(),
			"event_time":    ctx.Meta.EventTime,
			"source":        ctx.Meta.Source,
			"scope":         ctx.Meta.Scope,
			"agent_id":      ctx.Meta.AgentID,
			"session_id":    ctx.Meta.SessionID,
			"metadata_json": string(metadataJSON),
		})
	}

	for _, r := range snap.Relations {
		p.Facts = append(p.Facts, map[string]any{
			"episode_hash": r.EpisodeHash.String(),
			"fact_hash":    r.FactHash.String(),
			"subject_hash": r.SubjectHash.String(),
			"object_hash":  r.ObjectHash.String(),
			"predicate":    r.Predicate,
			"confidence":   r.Confidence,
			"context_hash": r.ContextHash.String(),
			"created_at":   r.CreatedAt,
		})
	}

	return p, nil
}
