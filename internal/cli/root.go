package cli

import (
	"fmt"
	"io"
	"log/slog"
	"slices"

	"github.com/spf13/cobra"

	"github.com/roach88/zeromem/internal/compiler"
	"github.com/roach88/zeromem/internal/config"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose    bool
	Format     string // "json" | "text"
	ConfigPath string
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the zeromem CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "zeromem",
		Short: "zeromem - deterministic memory compiler",
		Long: `Compile extracted (subject, predicate, object) tuples into content-addressed
memory records and dataflow graph text.

Identical inputs always produce identical hashes and identical graph text.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			setupLogging(cmd.ErrOrStderr(), opts.Verbose)
			return nil
		},
	}

	pf := cmd.PersistentFlags()
	pf.BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	pf.StringVar(&opts.Format, "format", "text", "output format (json|text)")
	pf.StringVar(&opts.ConfigPath, "config", "", "config file (YAML)")
	pf.String("aliases", "", "alias file (YAML) layered over the built-in aliases")
	pf.String("state", "", "runtime state backend (memory|sqlite|redis)")
	pf.String("sqlite-path", "", "SQLite state database path")
	pf.String("redis-addr", "", "Redis address for the redis state backend")
	pf.String("neo4j-uri", "", "export ingested graphs to this Neo4j URI")
	pf.String("metrics-file", "", "write Prometheus metrics to this textfile")

	cmd.AddCommand(NewCompileCommand(opts))
	cmd.AddCommand(NewValidateCommand(opts))
	cmd.AddCommand(NewIngestCommand(opts))
	cmd.AddCommand(NewQueryCommand(opts))
	cmd.AddCommand(NewExecCommand(opts))

	return cmd
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}

// setupLogging installs the process-wide slog handler on w.
func setupLogging(w io.Writer, verbose bool) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})))
}

// loadConfig resolves configuration for cmd. Flags registered on the root
// command are visible here once cobra has merged persistent flags.
func loadConfig(opts *RootOptions, cmd *cobra.Command) (*config.Config, error) {
	return config.Load(opts.ConfigPath, cmd.Flags())
}

// loadAliases returns the built-in alias table, layered with the configured
// alias file when one is set.
func loadAliases(cfg *config.Config) (*compiler.AliasTable, error) {
	if cfg.Aliases.File == "" {
		return compiler.DefaultAliases(), nil
	}
	return compiler.LoadAliasFile(cfg.Aliases.File, nil)
}

// setup loads config and aliases, reporting failures through f.
func setup(opts *RootOptions, cmd *cobra.Command, f *OutputFormatter) (*config.Config, *compiler.AliasTable, error) {
	cfg, err := loadConfig(opts, cmd)
	if err != nil {
		return nil, nil, f.Fail(ExitCommandError, ErrCodeConfig, err.Error(), nil)
	}
	aliases, err := loadAliases(cfg)
	if err != nil {
		return nil, nil, f.Fail(ExitCommandError, ErrCodeConfig, err.Error(), nil)
	}
	f.VerboseLog("Loaded %d alias(es)", aliases.Len())
	return cfg, aliases, nil
}
