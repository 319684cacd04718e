package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/tau/internal/trace"
)

// SeriesInfo summarizes one stored series.
type SeriesInfo struct {
	Name      string
	Count     int
	FirstTime int64
	LastTime  int64
}

// ReadTicks returns the ticks of series with fromMillis <= time <= toMillis.
// Results are ordered deterministically: ORDER BY time_millis ASC, seq ASC.
//
// Returns an empty slice (not nil) if no ticks fall in the range.
func (s *Store) ReadTicks(ctx context.Context, series string, fromMillis, toMillis int64) ([]Tick, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT series, seq, time_millis, value
		FROM ticks
		WHERE series = ? AND time_millis >= ? AND time_millis <= ?
		ORDER BY time_millis ASC, seq ASC
	`, series, fromMillis, toMillis)
	if err != nil {
		return nil, fmt.Errorf("query ticks: %w", err)
	}
	defer rows.Close()

	ticks := []Tick{}
	for rows.Next() {
		var t Tick
		if err := rows.Scan(&t.Series, &t.Seq, &t.TimeMillis, &t.Value); err != nil {
			return nil, fmt.Errorf("scan tick: %w", err)
		}
		ticks = append(ticks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ticks: %w", err)
	}
	return ticks, nil
}

// ListSeries returns every stored series ordered by name.
func (s *Store) ListSeries(ctx context.Context) ([]SeriesInfo, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT series, COUNT(*), MIN(time_millis), MAX(time_millis)
		FROM ticks
		GROUP BY series
		ORDER BY series COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query series: %w", err)
	}
	defer rows.Close()

	infos := []SeriesInfo{}
	for rows.Next() {
		var info SeriesInfo
		if err := rows.Scan(&info.Name, &info.Count, &info.FirstTime, &info.LastTime); err != nil {
			return nil, fmt.Errorf("scan series: %w", err)
		}
		infos = append(infos, info)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate series: %w", err)
	}
	return infos, nil
}

const runColumns = `id, pipeline, source, outputs, start_millis, end_millis, digest, event_count, created_at`

// ReadRun retrieves a single run by id.
// Returns sql.ErrNoRows if not found.
func (s *Store) ReadRun(ctx context.Context, id string) (Run, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	return scanRun(row)
}

// ListRuns returns every recorded run. Run ids are UUIDv7, so ordering by
// id is ordering by creation.
func (s *Store) ListRuns(ctx context.Context) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+runColumns+`
		FROM runs
		ORDER BY id COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// ReadRunEvents returns the trace recorded for a run, ORDER BY seq ASC.
func (s *Store) ReadRunEvents(ctx context.Context, runID string) ([]trace.Record, error) {
	return s.queryRunEvents(ctx, `
		SELECT seq, time_millis, node, value
		FROM run_events
		WHERE run_id = ?
		ORDER BY seq ASC
	`, runID)
}

// ReadRunEventsBetween returns the events of a run with
// fromMillis <= time <= toMillis, ORDER BY seq ASC.
func (s *Store) ReadRunEventsBetween(ctx context.Context, runID string, fromMillis, toMillis int64) ([]trace.Record, error) {
	return s.queryRunEvents(ctx, `
		SELECT seq, time_millis, node, value
		FROM run_events
		WHERE run_id = ? AND time_millis >= ? AND time_millis <= ?
		ORDER BY seq ASC
	`, runID, fromMillis, toMillis)
}

func (s *Store) queryRunEvents(ctx context.Context, query string, args ...any) ([]trace.Record, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query run events: %w", err)
	}
	defer rows.Close()

	records := []trace.Record{}
	for rows.Next() {
		var r trace.Record
		if err := rows.Scan(&r.Seq, &r.Time, &r.Node, &r.Value); err != nil {
			return nil, fmt.Errorf("scan run event: %w", err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate run events: %w", err)
	}
	return records, nil
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (Run, error) {
	var run Run
	var outputsJSON string
	err := row.Scan(
		&run.ID,
		&run.Pipeline,
		&run.Source,
		&outputsJSON,
		&run.StartMillis,
		&run.EndMillis,
		&run.Digest,
		&run.EventCount,
		&run.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, err
	}
	if err != nil {
		return Run{}, fmt.Errorf("scan run: %w", err)
	}

	run.Outputs, err = unmarshalOutputs(outputsJSON)
	if err != nil {
		return Run{}, err
	}
	return run, nil
}
