// Package runtime executes compiled memory graphs and bridges compiled
// values to persistent state.
//
// The Runtime interface is the whole boundary between the compiler's output
// and an execution engine:
//   - Hash: SHA-256 of raw bytes
//   - ExecuteGraph: parse graph text and evaluate it with named inputs
//   - LoadState / SaveState: key-value persistence (absent key is not an error)
//
// Local is an in-process implementation. It parses graph text with the same
// tokenizer rule as the production engine (any bare word followed by ':' is
// quoted as a key), so text that would break the engine breaks Local too.
//
// Local supports the node set the compiler emits: Constant, CreateMap,
// SetField, Hash and MergeMap. Nodes are evaluated in topological order;
// a graph with a cycle is rejected before execution.
//
// Errors raised by parsing, validation or execution are *GraphError values
// carrying the offending graph text. They are returned unmodified: Local
// never retries or repairs graph text.
package runtime
