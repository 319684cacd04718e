package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/tau/internal/engine"
	"github.com/roach88/tau/internal/pipeline"
	"github.com/roach88/tau/internal/store"
	"github.com/roach88/tau/internal/trace"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Database  string
	Record    bool
	ShowTrace bool
	MaxEvents int

	// RunIDs allows overriding the run id generator (for testing).
	// If nil, defaults to UUIDv7Generator.
	RunIDs engine.RunIDGenerator

	// Now allows overriding the creation timestamp (for testing).
	Now func() time.Time
}

// RunSummary is the output of the run command.
type RunSummary struct {
	RunID    string         `json:"run_id,omitempty"`
	Pipeline string         `json:"pipeline"`
	Start    int64          `json:"start"`
	End      int64          `json:"end"`
	Events   int            `json:"events"`
	Digest   string         `json:"digest"`
	Records  []trace.Record `json:"records,omitempty"`
}

// String renders the text summary.
func (s RunSummary) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Pipeline %s: %d event(s) over [%d, %d]\n", s.Pipeline, s.Events, s.Start, s.End)
	writeRecordsText(&b, s.Records)
	fmt.Fprintf(&b, "Digest: %s", s.Digest)
	if s.RunID != "" {
		fmt.Fprintf(&b, "\nRecorded run: %s", s.RunID)
	}
	return b.String()
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run <pipeline.cue>",
		Short: "Run a pipeline over its historical window",
		Long: `Run a pipeline on the historical scheduler over its window and print
the output trace digest.

Series sources read ticks from the database given with --db. With --record
the pipeline source and its trace are stored as a run that "tau replay" can
verify and "tau trace" can print.

Example:
  tau run ./pipelines/vwap.cue --db ./tau.db
  tau run ./pipelines/vwap.cue --db ./tau.db --record --trace`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPipeline(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database")
	cmd.Flags().BoolVar(&opts.Record, "record", false, "store the run in the database")
	cmd.Flags().BoolVar(&opts.ShowTrace, "trace", false, "print every recorded output")
	cmd.Flags().IntVar(&opts.MaxEvents, "max-events", 0, "abort after this many events (0 = unlimited)")

	return cmd
}

func runPipeline(opts *RunOptions, path string, cmd *cobra.Command) error {
	if opts.Record && opts.Database == "" {
		return NewExitError(ExitCommandError, "--record requires --db")
	}
	if opts.MaxEvents < 0 {
		return NewExitError(ExitCommandError, "--max-events must be non-negative")
	}

	formatter := newFormatter(opts.RootOptions, cmd)
	logger := newLogger(opts.RootOptions, cmd.ErrOrStderr())

	def, err := loadPipelineOrExit(path)
	if err != nil {
		return err
	}

	cfg := pipeline.RunConfig{Logger: logger, MaxEvents: opts.MaxEvents}
	var st *store.Store
	if opts.Database != "" {
		st, err = store.Open(opts.Database)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to open database", err)
		}
		defer func() {
			if closeErr := st.Close(); closeErr != nil {
				logger.Error("error closing database", "error", closeErr)
			}
		}()
		cfg.Store = st
	}

	ctx := cmd.Context()
	res, err := pipeline.RunHistoric(ctx, def, cfg)
	if err != nil {
		return WrapExitError(ExitFailure, "run failed", err)
	}

	summary := RunSummary{
		Pipeline: def.Name,
		Start:    res.Start,
		End:      res.End,
		Events:   len(res.Records),
		Digest:   res.Digest,
	}
	if opts.ShowTrace {
		summary.Records = res.Records
	}

	if opts.Record {
		id, err := recordRun(cmd, opts, st, def, res)
		if err != nil {
			return err
		}
		summary.RunID = id
	}

	return formatter.Success(summary)
}

// recordRun stores the pipeline source and trace under a fresh run id.
func recordRun(cmd *cobra.Command, opts *RunOptions, st *store.Store, def *pipeline.Definition, res *pipeline.Result) (string, error) {
	ids := opts.RunIDs
	if ids == nil {
		ids = engine.UUIDv7Generator{}
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	run := store.Run{
		ID:          ids.Generate(),
		Pipeline:    def.Name,
		Source:      def.Text,
		Outputs:     def.Outputs,
		StartMillis: res.Start,
		EndMillis:   res.End,
		Digest:      res.Digest,
		CreatedAt:   now().UnixMilli(),
	}
	if _, err := st.WriteRun(cmd.Context(), run, res.Records); err != nil {
		return "", WrapExitError(ExitCommandError, "failed to record run", err)
	}
	return run.ID, nil
}
