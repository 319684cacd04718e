package cli

import (
	"fmt"
	"io"
	"log/slog"
	"slices"

	"github.com/spf13/cobra"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	Format  string // "json" | "text"
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the tau CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "tau",
		Short: "tau - reactive time-series pipelines",
		Long: `Build dataflow pipelines over time series and run them against stored
history or a live feed. Historical runs are deterministic: the same pipeline
over the same ticks always produces the same trace and digest.`,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")

	cmd.AddGroup(
		&cobra.Group{ID: groupPipeline, Title: "Pipeline Commands:"},
		&cobra.Group{ID: groupJournal, Title: "Store Commands:"},
	)
	addToGroup(cmd, groupPipeline,
		NewCompileCommand(opts),
		NewValidateCommand(opts),
		NewRunCommand(opts),
		NewLiveCommand(opts),
		NewTestCommand(opts),
	)
	addToGroup(cmd, groupJournal,
		NewImportCommand(opts),
		NewReplayCommand(opts),
		NewTraceCommand(opts),
	)

	return cmd
}

// Help groups.
const (
	groupPipeline = "pipeline"
	groupJournal  = "journal"
)

func addToGroup(root *cobra.Command, group string, cmds ...*cobra.Command) {
	for _, c := range cmds {
		c.GroupID = group
		root.AddCommand(c)
	}
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}

// newLogger returns the command logger: text on w, Debug when verbose.
// Engine logs go here so they never mix with command output.
func newLogger(opts *RootOptions, w io.Writer) *slog.Logger {
	level := slog.LevelWarn
	if opts.Verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}
