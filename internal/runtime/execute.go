package runtime

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/roach88/zeromem/internal/ir"
)

// HashValue is the Hash operation: a string hashes its UTF-8 bytes, any
// other value hashes its canonical JSON. The result is lowercase hex.
//
// For a sanitized concept label this equals the label's ConceptHash.
func HashValue(v ir.IRValue) (string, error) {
	var data []byte
	if s, ok := v.(ir.IRString); ok {
		data = []byte(s)
	} else {
		encoded, err := ir.MarshalCanonical(v)
		if err != nil {
			return "", err
		}
		data = encoded
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

// evaluate runs nodes in order and returns the declared outputs.
func evaluate(ctx context.Context, g *Graph, order []int, inputs map[string]ir.IRValue) (map[string]ir.IRValue, error) {
	values := make(map[string]ir.IRValue, len(g.Nodes))
	for _, i := range order {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		n := &g.Nodes[i]
		v, err := evalNode(n, values, inputs)
		if err != nil {
			return nil, &GraphError{Code: ErrCodeExecute, Message: "node evaluation failed", NodeID: n.ID, Err: err}
		}
		values[n.ID] = v
	}

	outputs := make(map[string]ir.IRValue, len(g.Outputs))
	for _, id := range g.Outputs {
		outputs[id] = values[id]
	}
	return outputs, nil
}

func evalNode(n *Node, values, inputs map[string]ir.IRValue) (ir.IRValue, error) {
	if n.Type == NodeConstant {
		if v, ok := inputs[n.ID]; ok {
			if v == nil {
				return ir.IRNull{}, nil
			}
			return v, nil
		}
		v, err := ir.UnmarshalIRValue(n.Value)
		if err != nil {
			return nil, fmt.Errorf("decode constant: %w", err)
		}
		return v, nil
	}

	switch n.Op {
	case OpCreateMap:
		return ir.IRObject{}, nil

	case OpSetField:
		m, err := mapInput(n, values, 0)
		if err != nil {
			return nil, err
		}
		field, _ := n.stringParam("field")
		out := m.Clone()
		out[field] = values[n.Inputs[1]]
		return out, nil

	case OpHash:
		digest, err := HashValue(values[n.Inputs[0]])
		if err != nil {
			return nil, fmt.Errorf("hash input %q: %w", n.Inputs[0], err)
		}
		return ir.IRString(digest), nil

	case OpMergeMap:
		out := ir.IRObject{}
		for i := range n.Inputs {
			m, err := mapInput(n, values, i)
			if err != nil {
				return nil, err
			}
			for k, v := range m {
				out[k] = v
			}
		}
		return out, nil
	}

	// plan rejects unknown ops before execution starts.
	return nil, fmt.Errorf("unsupported op %q", n.Op)
}

func mapInput(n *Node, values map[string]ir.IRValue, i int) (ir.IRObject, error) {
	v := values[n.Inputs[i]]
	m, ok := v.(ir.IRObject)
	if !ok {
		return nil, fmt.Errorf("%s input %q is %T, want a map", n.Op, n.Inputs[i], v)
	}
	return m, nil
}
