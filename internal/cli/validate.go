package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/zeromem/internal/compiler"
)

// FileValidationError is a compiler validation error attributed to a file.
type FileValidationError struct {
	File string `json:"file"`
	compiler.ValidationError
}

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid  bool                  `json:"valid"`
	Files  int                   `json:"files"`
	Errors []FileValidationError `json:"errors,omitempty"`
}

func (r ValidationResult) WriteText(w io.Writer) error {
	if r.Valid {
		_, err := fmt.Fprintf(w, "✓ All %d input(s) valid\n", r.Files)
		return err
	}

	fmt.Fprintln(w, "✗ Validation failed")
	fmt.Fprintln(w)
	for _, e := range r.Errors {
		fmt.Fprintf(w, "%s\n  %s: %s: %s\n\n", e.File, e.Code, e.Field, e.Message)
	}
	return nil
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <path>...",
		Short: "Check input files against the input schema",
		Long: `Check compiler input files against the input schema without compiling.

Compilation itself accepts any input; validate reports tuples and contexts that
would compile to degenerate identities (empty labels, missing scope, confidence
outside [0, 1]). Directories are searched for .json, .yaml and .yml files.`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args, cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, paths []string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	files, err := LoadInputs(paths)
	if err != nil {
		return failLoad(formatter, err)
	}

	result := ValidationResult{Files: len(files)}
	for _, file := range files {
		formatter.VerboseLog("Validating %s", file.Path)
		for _, e := range compiler.ValidateInput(file.Input) {
			result.Errors = append(result.Errors, FileValidationError{File: file.Path, ValidationError: e})
		}
	}
	result.Valid = len(result.Errors) == 0

	if result.Valid {
		return formatter.Success(result)
	}
	return outputValidationErrors(formatter, result)
}

// outputValidationErrors outputs multiple validation errors.
func outputValidationErrors(formatter *OutputFormatter, result ValidationResult) error {
	if formatter.Format == "json" {
		first := result.Errors[0]
		if err := formatter.encode(CLIResponse{
			Status: "error",
			Data:   result,
			Error: &CLIError{
				Code:    first.Code,
				Message: first.Message,
			},
		}); err != nil {
			return err
		}
	} else if err := result.WriteText(formatter.Writer); err != nil {
		return err
	}

	// Validation failures = exit code 1
	return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(result.Errors)))
}
