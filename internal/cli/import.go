package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/tau/internal/feed"
	"github.com/roach88/tau/internal/store"
)

// ImportOptions holds flags for the import command.
type ImportOptions struct {
	*RootOptions
	Database string
	Series   string
	Location string
	Replace  bool
}

// ImportResult is the output of the import command.
type ImportResult struct {
	Series    string `json:"series"`
	Imported  int    `json:"imported"`
	Deleted   int64  `json:"deleted,omitempty"`
	Count     int    `json:"count"`
	FirstTime int64  `json:"first_time"`
	LastTime  int64  `json:"last_time"`
}

// String renders the text summary.
func (r ImportResult) String() string {
	s := fmt.Sprintf("Imported %d tick(s) into %s", r.Imported, r.Series)
	if r.Deleted > 0 {
		s += fmt.Sprintf(" (replaced %d)", r.Deleted)
	}
	return s + fmt.Sprintf("\nSeries %s: %d tick(s) in [%d, %d]", r.Series, r.Count, r.FirstTime, r.LastTime)
}

// NewImportCommand creates the import command.
func NewImportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ImportOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "import <ticks.csv>",
		Short: "Import ticks from CSV into a stored series",
		Long: `Import "time,value" rows into a stored series.

The time column is epoch milliseconds or a date-time such as
2024-01-01T09:30:00 in --location. Ticks are appended to the series unless
--replace is given.

Example:
  tau import prices.csv --db ./tau.db --series prices
  tau import prices.csv --db ./tau.db --series prices --location America/New_York --replace`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.Series, "series", "", "series name (required)")
	_ = cmd.MarkFlagRequired("series")
	cmd.Flags().StringVar(&opts.Location, "location", "UTC", "time zone of date-time values")
	cmd.Flags().BoolVar(&opts.Replace, "replace", false, "delete the existing series first")

	return cmd
}

func runImport(opts *ImportOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	loc, err := time.LoadLocation(opts.Location)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid location", err)
	}

	f, err := os.Open(path)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open CSV", err)
	}
	defer f.Close()

	ticks, err := feed.ReadCSV(f, loc)
	if err != nil {
		return WrapExitError(ExitFailure, "failed to parse CSV", err)
	}
	formatter.VerboseLog("parsed %d tick(s) from %s", len(ticks), path)

	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	ctx := cmd.Context()
	result := ImportResult{Series: opts.Series}

	if opts.Replace {
		result.Deleted, err = st.DeleteSeries(ctx, opts.Series)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to delete series", err)
		}
	}

	result.Imported, err = st.WriteTicks(ctx, opts.Series, ticks)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to write ticks", err)
	}

	infos, err := st.ListSeries(ctx)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to list series", err)
	}
	for _, info := range infos {
		if info.Name == opts.Series {
			result.Count = info.Count
			result.FirstTime = info.FirstTime
			result.LastTime = info.LastTime
		}
	}

	return formatter.Success(result)
}
