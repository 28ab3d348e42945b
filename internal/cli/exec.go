package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/zeromem/internal/compiler"
	"github.com/roach88/zeromem/internal/ir"
	"github.com/roach88/zeromem/internal/runtime"
	"github.com/roach88/zeromem/internal/statestore"
)

// ExecOptions holds flags for the exec command.
type ExecOptions struct {
	*RootOptions
	Key  string   // state key for the output map
	Sets []string // node=json constant overrides
}

// ExecResult describes one graph execution.
type ExecResult struct {
	ExecutionID string     `json:"execution_id"`
	Seq         int64      `json:"seq"`
	Graph       string     `json:"graph"`
	Nodes       int        `json:"nodes"`
	Duration    string     `json:"duration"`
	Output      ir.IRValue `json:"output"`
	StateKey    string     `json:"state_key,omitempty"`
	Replaced    bool       `json:"replaced,omitempty"` // StateKey already held a value
}

func (r ExecResult) WriteText(w io.Writer) error {
	fmt.Fprintf(w, "✓ Executed %s (%d nodes) in %s\n", r.Graph, r.Nodes, r.Duration)
	fmt.Fprintf(w, "Execution: %s\n", r.ExecutionID)
	if r.StateKey != "" {
		verb := "Saved"
		if r.Replaced {
			verb = "Replaced"
		}
		fmt.Fprintf(w, "%s output under state key %q\n", verb, r.StateKey)
	}
	data, err := ir.MarshalCanonical(r.Output)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "\n%s\n", data)
	return nil
}

// NewExecCommand creates the exec command.
func NewExecCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ExecOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "exec <input-file>",
		Short: "Compile an input file and execute its graph",
		Long: `Compile one input file and execute the graph text on the local runtime.

--set node=json overrides a Constant node before execution. With --key the
output map is persisted through the configured state backend
(state.backend: memory, sqlite or redis).`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExec(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Key, "key", "k", "", "save the output map under this state key")
	cmd.Flags().StringArrayVar(&opts.Sets, "set", nil, "override a Constant node (node=json, repeatable)")

	return cmd
}

func runExec(opts *ExecOptions, path string, cmd *cobra.Command) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	formatter := newFormatter(opts.RootOptions, cmd)

	cfg, aliases, err := setup(opts.RootOptions, cmd, formatter)
	if err != nil {
		return err
	}

	inputs, err := parseSets(opts.Sets)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeGeneric, err.Error(), nil)
	}

	input, err := LoadInput(path)
	if err != nil {
		return failLoad(formatter, err)
	}
	out := compiler.Compile(input, aliases)

	state, err := statestore.Open(ctx, cfg.State.Options())
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeBackend, err.Error(), nil)
	}
	defer state.Close()
	formatter.VerboseLog("Using %s state backend", cfg.State.Backend)

	rt := runtime.NewLocal(state)
	exec, err := rt.Execute(ctx, out.GraphText, inputs)
	if err != nil {
		return failGraph(formatter, err)
	}

	result := ExecResult{
		ExecutionID: exec.ID,
		Seq:         exec.Seq,
		Graph:       exec.Graph.Name,
		Nodes:       len(exec.Graph.Nodes),
		Duration:    exec.Duration.Round(time.Microsecond).String(),
		Output:      exec.Outputs[compiler.OutputNode],
	}

	if opts.Key != "" {
		_, existed, err := rt.LoadState(ctx, opts.Key)
		if err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeBackend, err.Error(), nil)
		}
		if err := rt.SaveState(ctx, opts.Key, result.Output); err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeBackend, err.Error(), nil)
		}
		result.StateKey = opts.Key
		result.Replaced = existed
	}

	return formatter.SuccessWithTrace(result, exec.ID)
}

// parseSets decodes node=json overrides.
func parseSets(sets []string) (map[string]ir.IRValue, error) {
	if len(sets) == 0 {
		return nil, nil
	}
	inputs := make(map[string]ir.IRValue, len(sets))
	for _, s := range sets {
		node, raw, ok := strings.Cut(s, "=")
		if !ok || node == "" {
			return nil, fmt.Errorf("--set %q: want node=json", s)
		}
		value, err := ir.UnmarshalIRValue([]byte(raw))
		if err != nil {
			return nil, fmt.Errorf("--set %s: %w", node, err)
		}
		inputs[node] = value
	}
	return inputs, nil
}

// failGraph reports a runtime error. The graph text is only included in
// verbose mode.
func failGraph(f *OutputFormatter, err error) error {
	var gerr *runtime.GraphError
	if !errors.As(err, &gerr) {
		return f.Fail(ExitCommandError, ErrCodeExecute, err.Error(), nil)
	}

	details := map[string]string{"engine_code": string(gerr.Code)}
	if gerr.NodeID != "" {
		details["node"] = gerr.NodeID
	}
	if f.Verbose {
		details["source"] = gerr.Source
	}
	return f.Fail(ExitFailure, ErrCodeExecute, gerr.Error(), details)
}
