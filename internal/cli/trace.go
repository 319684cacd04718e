package cli

import (
	"database/sql"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/tau/internal/store"
	"github.com/roach88/tau/internal/trace"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	Database  string
	RunID     string
	Node      string // optional - filter to one node
	From      int64
	To        int64
	Canonical bool
}

// RunListing is one row of the run list.
type RunListing struct {
	ID        string   `json:"id"`
	Pipeline  string   `json:"pipeline"`
	Outputs   []string `json:"outputs"`
	Start     int64    `json:"start"`
	End       int64    `json:"end"`
	Events    int      `json:"events"`
	Digest    string   `json:"digest"`
	CreatedAt string   `json:"created_at"`
}

// TraceResult holds the trace of one run.
type TraceResult struct {
	RunID    string         `json:"run_id"`
	Pipeline string         `json:"pipeline"`
	Digest   string         `json:"digest"`
	Records  []trace.Record `json:"records"`
}

// String renders the text trace.
func (r TraceResult) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Run %s (%s): %d record(s)\n", r.RunID, r.Pipeline, len(r.Records))
	writeRecordsText(&b, r.Records)
	fmt.Fprintf(&b, "Digest: %s", r.Digest)
	return b.String()
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace",
		Short: "List recorded runs or print a run's trace",
		Long: `List recorded runs, or print the output trace of one run.

Without --run every recorded run is listed. With --run the run's records
are printed, optionally restricted to a node or a time range. --canonical
prints the trace as canonical JSON lines, the exact bytes the run digest
is computed over.

Examples:
  tau trace --db ./tau.db
  tau trace --db ./tau.db --run 01890a5d-ac96-774b-bcce-b302099a8057
  tau trace --db ./tau.db --run 01890a5d-... --node vwap --from 1704067200000
  tau trace --db ./tau.db --run 01890a5d-... --canonical | sha256sum`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.RunID, "run", "", "run id to print")
	cmd.Flags().StringVar(&opts.Node, "node", "", "filter to one node")
	cmd.Flags().Int64Var(&opts.From, "from", math.MinInt64, "earliest time in epoch millis")
	cmd.Flags().Int64Var(&opts.To, "to", math.MaxInt64, "latest time in epoch millis")
	cmd.Flags().BoolVar(&opts.Canonical, "canonical", false, "print canonical JSON lines")

	return cmd
}

func runTrace(opts *TraceOptions, cmd *cobra.Command) error {
	ctx := cmd.Context()
	formatter := newFormatter(opts.RootOptions, cmd)

	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	if opts.RunID == "" {
		runs, err := st.ListRuns(ctx)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to list runs", err)
		}
		return outputRunList(formatter, runs)
	}

	run, err := st.ReadRun(ctx, opts.RunID)
	if errors.Is(err, sql.ErrNoRows) {
		return NewExitError(ExitCommandError, fmt.Sprintf("run not found: %s", opts.RunID))
	}
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read run", err)
	}

	records, err := st.ReadRunEventsBetween(ctx, run.ID, opts.From, opts.To)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read trace", err)
	}
	if opts.Node != "" {
		filtered := records[:0]
		for _, r := range records {
			if r.Node == opts.Node {
				filtered = append(filtered, r)
			}
		}
		records = filtered
	}

	if opts.Canonical {
		return trace.Encode(formatter.Writer, records)
	}

	return formatter.Success(TraceResult{
		RunID:    run.ID,
		Pipeline: run.Pipeline,
		Digest:   run.Digest,
		Records:  records,
	})
}

func outputRunList(f *OutputFormatter, runs []store.Run) error {
	listing := make([]RunListing, len(runs))
	for i, r := range runs {
		listing[i] = RunListing{
			ID:        r.ID,
			Pipeline:  r.Pipeline,
			Outputs:   r.Outputs,
			Start:     r.StartMillis,
			End:       r.EndMillis,
			Events:    r.EventCount,
			Digest:    r.Digest,
			CreatedAt: time.UnixMilli(r.CreatedAt).UTC().Format(time.RFC3339),
		}
	}

	if f.JSON() {
		return f.Success(listing)
	}
	if len(listing) == 0 {
		fmt.Fprintln(f.Writer, "No runs found in database.")
		return nil
	}
	for _, r := range listing {
		fmt.Fprintf(f.Writer, "%s  %-20s %6d event(s)  [%d, %d]  %s\n",
			r.ID, r.Pipeline, r.Events, r.Start, r.End, r.CreatedAt)
	}
	return nil
}
