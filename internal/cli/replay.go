package cli

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/tau/internal/pipeline"
	"github.com/roach88/tau/internal/store"
	"github.com/roach88/tau/internal/trace"
)

// ReplayOptions holds flags for the replay command.
type ReplayOptions struct {
	*RootOptions
	Database string
	RunID    string // optional - specific run only
}

// ReplayRunResult holds the replay result for a single recorded run.
type ReplayRunResult struct {
	RunID          string `json:"run_id"`
	Pipeline       string `json:"pipeline"`
	RecordedEvents int    `json:"recorded_events"`
	ReplayedEvents int    `json:"replayed_events"`
	RecordedDigest string `json:"recorded_digest"`
	ReplayedDigest string `json:"replayed_digest,omitempty"`

	// FirstDivergence is the seq of the first record that differs, 0 when
	// the traces match.
	FirstDivergence int64  `json:"first_divergence,omitempty"`
	Error           string `json:"error,omitempty"`
	Deterministic   bool   `json:"deterministic"`
}

// ReplayResult holds the overall replay result.
type ReplayResult struct {
	Runs             []ReplayRunResult `json:"runs"`
	TotalRuns        int               `json:"total_runs"`
	AllDeterministic bool              `json:"all_deterministic"`
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReplayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Re-run recorded runs and verify determinism",
		Long: `Re-run recorded pipeline runs and verify that each produces the
recorded trace.

Every run stores the exact pipeline source it was compiled from. Replay
compiles that source again, runs it over the recorded window against the
current stored series, and compares the trace digest. A mismatch means the
stored history or the engine changed since the run was recorded.

Exit codes:
  0 - All runs are deterministic
  1 - Determinism verification failed (differences detected)
  2 - Command error (database not found, unknown run, etc.)

Examples:
  tau replay --db ./tau.db
  tau replay --db ./tau.db --run 01890a5d-ac96-774b-bcce-b302099a8057
  tau replay --db ./tau.db --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.RunID, "run", "", "replay specific run only")

	return cmd
}

func runReplay(opts *ReplayOptions, cmd *cobra.Command) error {
	ctx := cmd.Context()
	formatter := newFormatter(opts.RootOptions, cmd)
	logger := newLogger(opts.RootOptions, cmd.ErrOrStderr())

	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	var runs []store.Run
	if opts.RunID != "" {
		run, err := st.ReadRun(ctx, opts.RunID)
		if errors.Is(err, sql.ErrNoRows) {
			return NewExitError(ExitCommandError, fmt.Sprintf("run not found: %s", opts.RunID))
		}
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to read run", err)
		}
		runs = []store.Run{run}
	} else {
		runs, err = st.ListRuns(ctx)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to list runs", err)
		}
	}

	result := ReplayResult{
		Runs:             make([]ReplayRunResult, 0, len(runs)),
		TotalRuns:        len(runs),
		AllDeterministic: true,
	}
	if len(runs) == 0 {
		if formatter.JSON() {
			return formatter.Success(result)
		}
		fmt.Fprintln(formatter.Writer, "No runs found in database.")
		return nil
	}

	for _, run := range runs {
		rr, err := replayRun(ctx, st, run, pipeline.RunConfig{Store: st, Logger: logger})
		if err != nil {
			return WrapExitError(ExitCommandError, fmt.Sprintf("failed to replay run %s", run.ID), err)
		}
		result.Runs = append(result.Runs, rr)
		if !rr.Deterministic {
			result.AllDeterministic = false
		}
	}

	if formatter.JSON() {
		if !result.AllDeterministic {
			_ = formatter.Failure("E_DETERMINISM", "determinism verification failed", result)
			return NewExitError(ExitFailure, "determinism verification failed")
		}
		return formatter.Success(result)
	}
	return outputReplayText(formatter.Writer, result, opts.Verbose)
}

// replayRun re-runs one recorded run. Failing to compile or run the stored
// source is a non-deterministic outcome, not a command error; only store
// failures are returned.
func replayRun(ctx context.Context, st *store.Store, run store.Run, cfg pipeline.RunConfig) (ReplayRunResult, error) {
	rr := ReplayRunResult{
		RunID:          run.ID,
		Pipeline:       run.Pipeline,
		RecordedEvents: run.EventCount,
		RecordedDigest: run.Digest,
	}

	def, err := pipeline.Compile([]byte(run.Source), run.Pipeline+".cue")
	if err != nil {
		rr.Error = fmt.Sprintf("compile: %v", err)
		return rr, nil
	}
	res, err := pipeline.RunHistoric(ctx, def, cfg)
	if err != nil {
		rr.Error = fmt.Sprintf("run: %v", err)
		return rr, nil
	}

	rr.ReplayedEvents = len(res.Records)
	rr.ReplayedDigest = res.Digest
	rr.Deterministic = res.Digest == run.Digest && res.Start == run.StartMillis && res.End == run.EndMillis
	if rr.Deterministic {
		return rr, nil
	}

	recorded, err := st.ReadRunEvents(ctx, run.ID)
	if err != nil {
		return rr, err
	}
	rr.FirstDivergence = firstDivergence(recorded, res.Records)
	return rr, nil
}

// firstDivergence returns the seq of the first position where a and b
// differ, or 0 when they are equal.
func firstDivergence(a, b []trace.Record) int64 {
	n := min(len(a), len(b))
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			return int64(i + 1)
		}
	}
	if len(a) != len(b) {
		return int64(n + 1)
	}
	return 0
}

// outputReplayText outputs the replay result as text.
func outputReplayText(w io.Writer, result ReplayResult, verbose bool) error {
	fmt.Fprintf(w, "Replay Summary: %d run(s)\n", result.TotalRuns)
	fmt.Fprintln(w)

	for _, run := range result.Runs {
		status := "✓"
		if !run.Deterministic {
			status = "✗"
		}

		fmt.Fprintf(w, "%s Run: %s (%s)\n", status, run.RunID, run.Pipeline)
		fmt.Fprintf(w, "  Events: %d recorded, %d replayed\n", run.RecordedEvents, run.ReplayedEvents)
		if verbose {
			fmt.Fprintf(w, "  Recorded digest: %s\n", run.RecordedDigest)
			fmt.Fprintf(w, "  Replayed digest: %s\n", run.ReplayedDigest)
		}

		switch {
		case run.Error != "":
			fmt.Fprintf(w, "  Error: %s\n", run.Error)
		case run.FirstDivergence > 0:
			fmt.Fprintf(w, "  Warning: traces diverge at seq %d\n", run.FirstDivergence)
		}
		fmt.Fprintln(w)
	}

	if result.AllDeterministic {
		fmt.Fprintln(w, "✓ All runs verified deterministic")
		return nil
	}

	fmt.Fprintln(w, "✗ Determinism verification failed")
	return NewExitError(ExitFailure, "determinism verification failed")
}
