// Package store provides SQLite-backed storage for tick series and the run
// journal.
//
// The store holds two kinds of data:
//   - Ticks: recorded input series, replayed by SeriesGenerator
//   - Runs: one row per historical run plus its recorded trace events
//
// # Ordering
//
// All reads are deterministic. Ticks are returned ORDER BY time_millis, seq
// and run events ORDER BY seq; seq is assigned by the writer, never derived
// from wall time. Two ticks of one series at the same instant keep the order
// they were imported in, which is the order the historical scheduler runs
// them.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
