// Package engine implements the tau schedulers.
//
// Two schedulers implement core.Scheduler:
//
//   - Realtime bridges wall-clock timers into a Network through a single
//     worker goroutine.
//   - Historic replays a closed set of timestamped events in strict
//     (time, cycle) order over a fixed window.
//
// ARCHITECTURE:
//
// Single-Writer Worker:
// Realtime funnels every timer expiry and every offset-0 task into one
// unbounded FIFO queue drained by exactly one worker goroutine. The worker
// binds the Network to itself for its lifetime, so a mutation from any other
// goroutine panics instead of racing. Producers never block.
//
// Log and Continue:
// A task that returns an error or panics is recovered at the worker
// boundary, logged, counted and skipped. The worker keeps draining. FailHalt
// switches to stopping on the first failure.
//
// Deterministic Replay:
// Historic stamps every scheduled event with the next number from its
// Cycles counter. The priority queue orders by (timeMillis, cycle), so events
// scheduled for the same instant run in the order they were scheduled. Given
// the same sequence of schedule calls, a run is identical every time.
//
// Window Policy:
// Historic drops events before the window start and stops at the first event
// after the window end. Neither is an error. Negative offsets are accepted
// and fall out as pre-window events; Realtime rejects them with
// ErrScheduleInPast. The asymmetry is intentional.
package engine
