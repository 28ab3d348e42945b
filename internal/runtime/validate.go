package runtime

import (
	"fmt"
	"strings"

	"github.com/roach88/zeromem/internal/ir"
)

// Validate checks a parsed graph's structure without executing it:
//   - supported version, unique non-empty node ids
//   - known node types and ops, with correct arity and params
//   - every input, the entry point and every output name an existing node
//   - no cycles
func Validate(g *Graph) error {
	_, err := plan(g)
	return err
}

func invalid(nodeID, format string, args ...any) *GraphError {
	return &GraphError{Code: ErrCodeInvalid, Message: fmt.Sprintf(format, args...), NodeID: nodeID}
}

// plan validates g and returns node indices in execution order.
func plan(g *Graph) ([]int, error) {
	if g.Version != ir.GraphVersion {
		return nil, invalid("", "unsupported graph version %d (want %d)", g.Version, ir.GraphVersion)
	}

	index := make(map[string]int, len(g.Nodes))
	for i, n := range g.Nodes {
		if n.ID == "" {
			return nil, invalid("", "node %d has no id", i)
		}
		if _, dup := index[n.ID]; dup {
			return nil, invalid(n.ID, "duplicate node id")
		}
		index[n.ID] = i
	}

	for i := range g.Nodes {
		if err := checkNode(&g.Nodes[i], index); err != nil {
			return nil, err
		}
	}

	if _, ok := index[g.EntryPoint]; !ok {
		return nil, invalid("", "entry point %q is not a node", g.EntryPoint)
	}
	if len(g.Outputs) == 0 {
		return nil, invalid("", "graph declares no outputs")
	}
	for _, out := range g.Outputs {
		if _, ok := index[out]; !ok {
			return nil, invalid("", "output %q is not a node", out)
		}
	}

	return topoOrder(g, index)
}

func checkNode(n *Node, index map[string]int) error {
	switch n.Type {
	case NodeConstant:
		if n.Value == nil {
			return invalid(n.ID, "constant has no value")
		}
		if n.Op != "" || len(n.Inputs) > 0 {
			return invalid(n.ID, "constant must not declare an op or inputs")
		}
		return nil
	case NodeOperation:
	default:
		return invalid(n.ID, "unknown node type %q", n.Type)
	}

	switch n.Op {
	case OpCreateMap:
		if len(n.Inputs) != 0 {
			return invalid(n.ID, "CreateMap takes no inputs, got %d", len(n.Inputs))
		}
	case OpSetField:
		if len(n.Inputs) != 2 {
			return invalid(n.ID, "SetField takes 2 inputs, got %d", len(n.Inputs))
		}
		if field, ok := n.stringParam("field"); !ok || field == "" {
			return invalid(n.ID, "SetField requires a non-empty string param \"field\"")
		}
	case OpHash:
		if len(n.Inputs) != 1 {
			return invalid(n.ID, "Hash takes 1 input, got %d", len(n.Inputs))
		}
	case OpMergeMap:
		if len(n.Inputs) == 0 {
			return invalid(n.ID, "MergeMap requires at least one input")
		}
	case "":
		return invalid(n.ID, "operation has no op")
	default:
		return invalid(n.ID, "unsupported op %q", n.Op)
	}

	for _, in := range n.Inputs {
		if _, ok := index[in]; !ok {
			return invalid(n.ID, "input %q is not a node", in)
		}
	}
	return nil
}

// topoOrder sorts nodes with Kahn's algorithm. Ready nodes are taken in
// declaration order, so the order is deterministic for a given graph.
func topoOrder(g *Graph, index map[string]int) ([]int, error) {
	indegree := make([]int, len(g.Nodes))
	dependents := make([][]int, len(g.Nodes))
	for i, n := range g.Nodes {
		for _, in := range n.Inputs {
			src := index[in]
			indegree[i]++
			dependents[src] = append(dependents[src], i)
		}
	}

	queue := make([]int, 0, len(g.Nodes))
	for i := range g.Nodes {
		if indegree[i] == 0 {
			queue = append(queue, i)
		}
	}

	order := make([]int, 0, len(g.Nodes))
	for len(queue) > 0 {
		i := queue[0]
		queue = queue[1:]
		order = append(order, i)
		for _, dep := range dependents[i] {
			indegree[dep]--
			if indegree[dep] == 0 {
				queue = append(queue, dep)
			}
		}
	}

	if len(order) < len(g.Nodes) {
		var stuck []string
		for i, n := range g.Nodes {
			if indegree[i] > 0 {
				stuck = append(stuck, n.ID)
			}
		}
		return nil, invalid(stuck[0], "cycle detected among nodes: %s", strings.Join(stuck, ", "))
	}
	return order, nil
}
