package runtime

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"
)

// NodeType distinguishes value nodes from operations.
type NodeType string

const (
	NodeConstant  NodeType = "Constant"
	NodeOperation NodeType = "Operation"
)

// Op names an operation node's behavior.
type Op string

const (
	OpCreateMap Op = "CreateMap"
	OpSetField  Op = "SetField"
	OpHash      Op = "Hash"
	OpMergeMap  Op = "MergeMap"
)

// Node is one vertex of a dataflow graph.
type Node struct {
	ID     string          `json:"id"`
	Type   NodeType        `json:"type"`
	Value  json.RawMessage `json:"value,omitempty"`
	Op     Op              `json:"op,omitempty"`
	Inputs []string        `json:"inputs,omitempty"`
	Params map[string]any  `json:"params,omitempty"`
}

// Graph is a parsed dataflow graph.
type Graph struct {
	Name        string         `json:"name"`
	Version     int            `json:"version"`
	Description string         `json:"description"`
	Nodes       []Node         `json:"nodes"`
	EntryPoint  string         `json:"entry_point"`
	Outputs     []string       `json:"outputs"`
	Metadata    map[string]any `json:"metadata"`
}

// graphKeyword prefixes every graph text.
const graphKeyword = "Graph"

// bareKey matches a word immediately followed by ':'. The engine's
// tokenizer quotes every such word as a map key, wherever it appears,
// including inside string literals.
var bareKey = regexp.MustCompile(`(\w+):`)

// tokenize rewrites graph text the way the engine's tokenizer does and
// returns the JSON body.
func tokenize(source string) (string, error) {
	body, ok := strings.CutPrefix(strings.TrimSpace(source), graphKeyword)
	if !ok {
		return "", fmt.Errorf("graph text must start with %q", graphKeyword)
	}
	return bareKey.ReplaceAllString(strings.TrimSpace(body), `"${1}":`), nil
}

// ParseGraph parses graph text. Both quoted keys and bare-word keys are
// accepted. Failures are *GraphError with code PARSE.
func ParseGraph(source string) (*Graph, error) {
	body, err := tokenize(source)
	if err != nil {
		return nil, &GraphError{Code: ErrCodeParse, Message: "invalid graph header", Source: source, Err: err}
	}

	dec := json.NewDecoder(strings.NewReader(body))
	dec.DisallowUnknownFields()

	var g Graph
	if err := dec.Decode(&g); err != nil {
		return nil, &GraphError{Code: ErrCodeParse, Message: "invalid graph body", Source: source, Err: err}
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, &GraphError{Code: ErrCodeParse, Message: "trailing data after graph body", Source: source}
	}

	return &g, nil
}

// stringParam returns params[name] as a string.
func (n *Node) stringParam(name string) (string, bool) {
	v, ok := n.Params[name]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}
