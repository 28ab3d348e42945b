package ir

// SemanticTuple is one extracted (subject, predicate, object) observation.
// Confidence is carried as given; it is not clamped.
type SemanticTuple struct {
	Subject    string  `json:"subject" yaml:"subject"`
	Predicate  string  `json:"predicate" yaml:"predicate"`
	Object     string  `json:"object" yaml:"object"`
	Confidence float64 `json:"confidence" yaml:"confidence"`
}

// ContextMeta describes when, where and how an observation was made.
// Only EventTime, Source and Scope participate in the ContextHash.
type ContextMeta struct {
	EventTime string            `json:"event_time" yaml:"event_time"` // ISO 8601, kept verbatim
	Source    string            `json:"source" yaml:"source"`         // e.g. "user_prompt"
	Scope     string            `json:"scope" yaml:"scope"`           // e.g. "conversation_123"
	AgentID   string            `json:"agent_id,omitempty" yaml:"agent_id,omitempty"`
	SessionID string            `json:"session_id,omitempty" yaml:"session_id,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty" yaml:"metadata,omitempty"`
}

// CompilerInput is the full input to one compile call.
type CompilerInput struct {
	Utterance string          `json:"utterance,omitempty" yaml:"utterance,omitempty"`
	Tuples    []SemanticTuple `json:"tuples" yaml:"tuples"`
	Context   ContextMeta     `json:"context" yaml:"context"`
}

// ConceptNode is a canonical, content-addressed entity.
//
// Re-inserting a concept with an existing hash merges: UpdatedAt is
// refreshed, Confidence takes the max, new Aliases are appended once.
type ConceptNode struct {
	Hash       ConceptHash `json:"hash"`
	Label      string      `json:"label"`
	Aliases    []string    `json:"aliases"`
	Confidence float64     `json:"confidence"`
	CreatedAt  string      `json:"created_at"`
	UpdatedAt  string      `json:"updated_at"`
}

// RelationNode is one episode of a fact. EpisodeHash is its identity;
// FactHash groups episodes of the same semantic claim.
type RelationNode struct {
	FactHash    FactHash    `json:"fact_hash"`
	EpisodeHash EpisodeHash `json:"episode_hash"`
	SubjectHash ConceptHash `json:"subject_hash"`
	Predicate   string      `json:"predicate"`
	ObjectHash  ConceptHash `json:"object_hash"`
	Confidence  float64     `json:"confidence"`
	ContextHash ContextHash `json:"context_hash"`
	CreatedAt   string      `json:"created_at"`
}

// ContextNode is a stored observation context. Immutable once stored.
type ContextNode struct {
	Hash ContextHash `json:"hash"`
	Meta ContextMeta `json:"meta"`
}

// MemoryRecord is the unit produced by one compile call.
// Concepts are unique by hash and sorted by label; there is one relation per
// input tuple and exactly one context.
type MemoryRecord struct {
	Concepts  []ConceptNode  `json:"concepts"`
	Relations []RelationNode `json:"relations"`
	Context   ContextNode    `json:"context"`
}

// InsertResult counts what a store insertion changed.
type InsertResult struct {
	NewConcepts  int `json:"new_concepts"`
	NewFacts     int `json:"new_facts"`
	NewEpisodes  int `json:"new_episodes"`
	DupesSkipped int `json:"dupes_skipped"`
}

// Add accumulates another result into r.
func (r *InsertResult) Add(other InsertResult) {
	r.NewConcepts += other.NewConcepts
	r.NewFacts += other.NewFacts
	r.NewEpisodes += other.NewEpisodes
	r.DupesSkipped += other.DupesSkipped
}
