package runtime

import (
	"context"
	"crypto/sha256"
	"fmt"
	"log/slog"
	"time"

	"github.com/roach88/zeromem/internal/ir"
	"github.com/roach88/zeromem/internal/statestore"
)

// Runtime is the capability surface an execution engine offers compiled
// memory graphs.
type Runtime interface {
	Hash(data []byte) [ir.HashSize]byte
	ExecuteGraph(ctx context.Context, source string, inputs map[string]ir.IRValue) (map[string]ir.IRValue, error)
	LoadState(ctx context.Context, key string) (ir.IRValue, bool, error)
	SaveState(ctx context.Context, key string, value ir.IRValue) error
}

// Execution describes one completed graph run.
type Execution struct {
	ID       string
	Seq      int64
	Graph    *Graph
	Outputs  map[string]ir.IRValue
	Duration time.Duration
}

// Local is an in-process Runtime.
type Local struct {
	state statestore.Store
	ids   IDGenerator
	clock Sequencer
}

var _ Runtime = (*Local)(nil)

// Option configures a Local runtime.
type Option func(*Local)

// WithIDGenerator sets the execution id source (default UUIDv7Generator).
func WithIDGenerator(g IDGenerator) Option {
	return func(l *Local) { l.ids = g }
}

// WithSequencer sets the execution sequence source (default a fresh Clock).
func WithSequencer(s Sequencer) Option {
	return func(l *Local) { l.clock = s }
}

// NewLocal creates a runtime over state. A nil state uses statestore.Memory.
func NewLocal(state statestore.Store, opts ...Option) *Local {
	if state == nil {
		state = statestore.NewMemory()
	}
	l := &Local{
		state: state,
		ids:   UUIDv7Generator{},
		clock: NewClock(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Hash returns the SHA-256 digest of data.
func (l *Local) Hash(data []byte) [ir.HashSize]byte {
	return sha256.Sum256(data)
}

// Execute parses, validates and evaluates graph text.
//
// inputs override Constant nodes with the same id; naming any other node is
// an INVALID error. Parse, validation and execution failures are returned
// as *GraphError with Source set to the graph text.
func (l *Local) Execute(ctx context.Context, source string, inputs map[string]ir.IRValue) (*Execution, error) {
	start := time.Now()

	g, err := ParseGraph(source)
	if err != nil {
		return nil, err
	}

	order, err := plan(g)
	if err != nil {
		return nil, withSource(err, source)
	}
	if err := checkInputs(g, inputs); err != nil {
		return nil, withSource(err, source)
	}

	exec := &Execution{
		ID:    l.ids.Generate(),
		Seq:   l.clock.Next(),
		Graph: g,
	}

	outputs, err := evaluate(ctx, g, order, inputs)
	if err != nil {
		slog.Debug("graph execution failed",
			"execution_id", exec.ID,
			"graph", g.Name,
			"error", err,
		)
		return nil, withSource(err, source)
	}
	exec.Outputs = outputs
	exec.Duration = time.Since(start)

	slog.Info("graph executed",
		"execution_id", exec.ID,
		"seq", exec.Seq,
		"graph", g.Name,
		"nodes", len(g.Nodes),
		"duration", exec.Duration,
	)
	return exec, nil
}

// ExecuteGraph implements Runtime.
func (l *Local) ExecuteGraph(ctx context.Context, source string, inputs map[string]ir.IRValue) (map[string]ir.IRValue, error) {
	exec, err := l.Execute(ctx, source, inputs)
	if err != nil {
		return nil, err
	}
	return exec.Outputs, nil
}

// LoadState implements Runtime. An absent key returns found=false and no
// error.
func (l *Local) LoadState(ctx context.Context, key string) (ir.IRValue, bool, error) {
	v, found, err := l.state.Load(ctx, key)
	if err != nil {
		return nil, false, fmt.Errorf("load state: %w", err)
	}
	return v, found, nil
}

// SaveState implements Runtime.
func (l *Local) SaveState(ctx context.Context, key string, value ir.IRValue) error {
	if err := l.state.Save(ctx, key, value); err != nil {
		return fmt.Errorf("save state: %w", err)
	}
	return nil
}

func checkInputs(g *Graph, inputs map[string]ir.IRValue) error {
	if len(inputs) == 0 {
		return nil
	}
	constants := make(map[string]bool, len(g.Nodes))
	for _, n := range g.Nodes {
		if n.Type == NodeConstant {
			constants[n.ID] = true
		}
	}
	for name := range inputs {
		if !constants[name] {
			return invalid(name, "input does not name a constant node")
		}
	}
	return nil
}

// withSource attaches the graph text to a *GraphError. Other errors (such
// as context cancellation) pass through unchanged.
func withSource(err error, source string) error {
	if ge, ok := err.(*GraphError); ok {
		ge.Source = source
	}
	return err
}
