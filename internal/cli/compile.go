package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/zeromem/internal/compiler"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	Output string // graph text file path
	Record bool   // print the MemoryRecord instead of graph text
}

// compileSummary is the text rendering used when graph text goes to a file.
type compileSummary struct {
	out    compiler.Output
	tuples int
	file   string
}

func (s compileSummary) WriteText(w io.Writer) error {
	_, err := fmt.Fprintf(w, "✓ Compiled %d tuple(s): %d concept(s), %d relation(s)\nContext: %s\nWrote graph text to %s\n",
		s.tuples, len(s.out.Record.Concepts), len(s.out.Record.Relations),
		s.out.Record.Context.Hash.Short(12), s.file)
	return err
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile <input-file>",
		Short: "Compile tuples to a memory record and graph text",
		Long: `Compile one input file (JSON or YAML: tuples plus a shared context) into a
content-addressed MemoryRecord and its dataflow graph text.

Text output prints the graph text; --record prints the record instead.
JSON output carries both.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors - we handle our own error output
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "write graph text to this file")
	cmd.Flags().BoolVar(&opts.Record, "record", false, "print the memory record as JSON")

	return cmd
}

func runCompile(opts *CompileOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	_, aliases, err := setup(opts.RootOptions, cmd, formatter)
	if err != nil {
		return err
	}

	input, err := LoadInput(path)
	if err != nil {
		return failLoad(formatter, err)
	}
	formatter.VerboseLog("Compiling %d tuple(s) from %s", len(input.Tuples), path)

	out := compiler.Compile(input, aliases)

	if opts.Output != "" {
		if err := os.WriteFile(opts.Output, []byte(out.GraphText), 0o644); err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeWriteFailed, fmt.Sprintf("writing graph text: %v", err), nil)
		}
	}

	if formatter.Format == "json" {
		return formatter.Success(out)
	}

	switch {
	case opts.Record:
		enc := json.NewEncoder(formatter.Writer)
		enc.SetIndent("", "  ")
		return enc.Encode(out.Record)
	case opts.Output != "":
		return formatter.Success(compileSummary{out: out, tuples: len(input.Tuples), file: opts.Output})
	default:
		return formatter.Success(out.GraphText)
	}
}
