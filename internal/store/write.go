package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/roach88/tau/internal/trace"
)

// Tick is one recorded sample of an input series.
type Tick struct {
	Series     string
	Seq        int64
	TimeMillis int64
	Value      float64
}

// Run is the journal entry of one historical run.
type Run struct {
	ID          string
	Pipeline    string
	Source      string
	Outputs     []string
	StartMillis int64
	EndMillis   int64
	Digest      string
	EventCount  int
	CreatedAt   int64
}

// WriteTicks appends ticks to series in a single transaction and returns
// the number written.
//
// Seq is assigned here, continuing after the highest seq already stored for
// the series; any Seq or Series set on the input is ignored. Ticks need not
// be sorted by time: reads sort by (time_millis, seq).
func (s *Store) WriteTicks(ctx context.Context, series string, ticks []Tick) (int, error) {
	if series == "" {
		return 0, fmt.Errorf("write ticks: empty series name")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("write ticks: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	var last int64
	err = tx.QueryRowContext(ctx, `
		SELECT COALESCE(MAX(seq), 0) FROM ticks WHERE series = ?
	`, series).Scan(&last)
	if err != nil {
		return 0, fmt.Errorf("write ticks: max seq: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO ticks (series, seq, time_millis, value)
		VALUES (?, ?, ?, ?)
	`)
	if err != nil {
		return 0, fmt.Errorf("write ticks: prepare: %w", err)
	}
	defer stmt.Close()

	for i, t := range ticks {
		if _, err := stmt.ExecContext(ctx, series, last+int64(i)+1, t.TimeMillis, t.Value); err != nil {
			return 0, fmt.Errorf("write ticks: insert #%d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("write ticks: commit: %w", err)
	}
	return len(ticks), nil
}

// DeleteSeries removes every tick of series and returns how many were removed.
func (s *Store) DeleteSeries(ctx context.Context, series string) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM ticks WHERE series = ?`, series)
	if err != nil {
		return 0, fmt.Errorf("delete series: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete series: rows affected: %w", err)
	}
	return n, nil
}

// WriteRun atomically records a run and its trace events.
//
// Uses ON CONFLICT(id) DO NOTHING for idempotency: if a run with the same id
// exists, nothing is written and inserted is false. EventCount is always
// taken from len(records).
func (s *Store) WriteRun(ctx context.Context, run Run, records []trace.Record) (inserted bool, err error) {
	outputsJSON, err := marshalOutputs(run.Outputs)
	if err != nil {
		return false, fmt.Errorf("write run: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("write run: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	result, err := tx.ExecContext(ctx, `
		INSERT INTO runs
		(id, pipeline, source, outputs, start_millis, end_millis, digest, event_count, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		run.ID,
		run.Pipeline,
		run.Source,
		outputsJSON,
		run.StartMillis,
		run.EndMillis,
		run.Digest,
		len(records),
		run.CreatedAt,
	)
	if err != nil {
		return false, fmt.Errorf("write run: insert: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("write run: rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return false, nil
	}

	if err := writeRunEvents(ctx, tx, run.ID, records); err != nil {
		return false, err
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("write run: commit: %w", err)
	}
	return true, nil
}

func writeRunEvents(ctx context.Context, tx *sql.Tx, runID string, records []trace.Record) error {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO run_events (run_id, seq, time_millis, node, value)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("write run events: prepare: %w", err)
	}
	defer stmt.Close()

	for _, r := range records {
		if _, err := stmt.ExecContext(ctx, runID, r.Seq, r.Time, r.Node, r.Value); err != nil {
			return fmt.Errorf("write run events: seq %d: %w", r.Seq, err)
		}
	}
	return nil
}
