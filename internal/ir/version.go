package ir

// Version constants for the emitted graph and the compiler.
const (
	// GraphVersion is the version field written into every emitted graph.
	GraphVersion = 1

	// CompilerVersion is the zeromem compiler version.
	CompilerVersion = "0.1.0"
)
