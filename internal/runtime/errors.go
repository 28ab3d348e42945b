package runtime

import (
	"errors"
	"fmt"
)

// ErrorCode categorizes graph errors.
type ErrorCode string

const (
	// ErrCodeParse indicates the graph text could not be tokenized or decoded.
	ErrCodeParse ErrorCode = "PARSE"

	// ErrCodeInvalid indicates a structurally invalid graph (unknown op,
	// dangling input, cycle, missing entry point).
	ErrCodeInvalid ErrorCode = "INVALID"

	// ErrCodeExecute indicates a node failed during evaluation.
	ErrCodeExecute ErrorCode = "EXECUTE"

	// ErrCodeState indicates a state store failure.
	ErrCodeState ErrorCode = "STATE"
)

// GraphError is an engine failure tagged with enough context to diagnose
// it: the node involved (if any) and the full graph text.
type GraphError struct {
	Code    ErrorCode
	Message string
	NodeID  string
	Source  string
	Err     error
}

// Error implements the error interface. The graph text is omitted; read
// Source for it.
func (e *GraphError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.NodeID != "" {
		msg = fmt.Sprintf("%s (node=%s)", msg, e.NodeID)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *GraphError) Unwrap() error {
	return e.Err
}

// IsParseError reports whether err is a graph parse failure.
// Uses errors.As to handle wrapped errors.
func IsParseError(err error) bool {
	return hasCode(err, ErrCodeParse)
}

// IsInvalidGraph reports whether err is a graph validation failure.
func IsInvalidGraph(err error) bool {
	return hasCode(err, ErrCodeInvalid)
}

func hasCode(err error, code ErrorCode) bool {
	var ge *GraphError
	if errors.As(err, &ge) {
		return ge.Code == code
	}
	return false
}
