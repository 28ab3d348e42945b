package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/zeromem/internal/compiler"
	"github.com/roach88/zeromem/internal/ir"
	"github.com/roach88/zeromem/internal/store"
)

// QueryOptions holds flags for the query command.
type QueryOptions struct {
	*RootOptions
	Label     string
	Predicate string // optional filter, normalized like any predicate
}

// RelationView is a relation with its endpoint labels and context resolved.
type RelationView struct {
	Subject     string         `json:"subject"`
	Predicate   string         `json:"predicate"`
	Object      string         `json:"object"`
	Confidence  float64        `json:"confidence"`
	FactHash    ir.FactHash    `json:"fact_hash"`
	EpisodeHash ir.EpisodeHash `json:"episode_hash"`
	Context     ir.ContextMeta `json:"context"`
}

// QueryResult is a concept and every relation touching it.
type QueryResult struct {
	Concept   ir.ConceptNode `json:"concept"`
	Relations []RelationView `json:"relations"`
}

func (r QueryResult) WriteText(w io.Writer) error {
	fmt.Fprintf(w, "%s  %s  confidence %g\n", r.Concept.Label, r.Concept.Hash.Short(12), r.Concept.Confidence)
	if len(r.Concept.Aliases) > 0 {
		fmt.Fprintf(w, "Aliases: %v\n", r.Concept.Aliases)
	}
	fmt.Fprintf(w, "\n%d relation(s)\n", len(r.Relations))
	for _, rel := range r.Relations {
		fmt.Fprintf(w, "  %s -%s-> %s  [%g]  %s/%s @ %s\n",
			rel.Subject, rel.Predicate, rel.Object, rel.Confidence,
			rel.Context.Source, rel.Context.Scope, rel.Context.EventTime)
	}
	return nil
}

// NewQueryCommand creates the query command.
func NewQueryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &QueryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "query <path>... --label <label>",
		Short: "Look up a concept and its relations",
		Long: `Ingest input files into a fresh in-memory store, then look up one concept by
label and list every relation touching it.

The label is resolved through the alias table first, so "LTM" finds
long-term-memory.`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(opts, args, cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Label, "label", "l", "", "concept label to look up (required)")
	cmd.Flags().StringVarP(&opts.Predicate, "predicate", "p", "", "only list relations with this predicate")
	_ = cmd.MarkFlagRequired("label")

	return cmd
}

func runQuery(opts *QueryOptions, paths []string, cmd *cobra.Command) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	formatter := newFormatter(opts.RootOptions, cmd)

	_, aliases, err := setup(opts.RootOptions, cmd, formatter)
	if err != nil {
		return err
	}

	files, err := LoadInputs(paths)
	if err != nil {
		return failLoad(formatter, err)
	}

	st := store.NewLocked(nil)
	if _, err := ingestFiles(ctx, files, aliases, st, nil, 1); err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeGeneric, err.Error(), nil)
	}

	label := aliases.Resolve(opts.Label)
	concept, ok := st.GetConceptByLabel(label)
	if !ok {
		return formatter.Fail(ExitFailure, ErrCodeNoSuchConcept, fmt.Sprintf("no concept labeled %q", label), nil)
	}
	formatter.VerboseLog("Resolved %q to %s", opts.Label, concept.Hash)

	predicate := ""
	if opts.Predicate != "" {
		predicate = compiler.NormalizePredicate(opts.Predicate)
	}

	result := QueryResult{Concept: concept, Relations: []RelationView{}}
	for _, rel := range st.GetRelations(concept.Hash) {
		if predicate != "" && rel.Predicate != predicate {
			continue
		}
		result.Relations = append(result.Relations, viewRelation(st, rel))
	}

	return formatter.Success(result)
}

// viewRelation resolves a relation's hashes against the store.
func viewRelation(st store.Reader, rel ir.RelationNode) RelationView {
	view := RelationView{
		Predicate:   rel.Predicate,
		Confidence:  rel.Confidence,
		FactHash:    rel.FactHash,
		EpisodeHash: rel.EpisodeHash,
	}
	if c, ok := st.GetConcept(rel.SubjectHash); ok {
		view.Subject = c.Label
	}
	if c, ok := st.GetConcept(rel.ObjectHash); ok {
		view.Object = c.Label
	}
	if c, ok := st.GetContext(rel.ContextHash); ok {
		view.Context = c.Meta
	}
	return view
}
