// Package graphsync exports stored memory to a Neo4j property graph.
//
// Layout:
//
//	(:Concept {hash, label, aliases, confidence, created_at, updated_at})
//	(:Context {hash, event_time, source, scope, agent_id, session_id, metadata_json})
//	(:Concept)-[:FACT {episode_hash, fact_hash, predicate, confidence, context_hash, created_at}]->(:Concept)
//	(:Concept)-[:OBSERVED_IN {episode_hash}]->(:Context)
//
// Every node and relationship is MERGEd on its content hash, so exporting
// the same snapshot twice changes nothing. One FACT relationship exists per
// episode; relationships sharing a fact_hash are episodes of one fact.
package graphsync
