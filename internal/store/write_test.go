package store

import (
	"context"
	"database/sql"
	"errors"
	"reflect"
	"testing"

	"github.com/roach88/tau/internal/trace"
)

func TestWriteTicks_AssignsSeqPerSeries(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	if _, err := s.WriteTicks(ctx, "prices", ticksAt(0, 1.0, 100, 2.0)); err != nil {
		t.Fatalf("WriteTicks() failed: %v", err)
	}
	n, err := s.WriteTicks(ctx, "prices", ticksAt(200, 3.0))
	if err != nil {
		t.Fatalf("second WriteTicks() failed: %v", err)
	}
	if n != 1 {
		t.Errorf("written = %d, want 1", n)
	}
	if _, err := s.WriteTicks(ctx, "volume", ticksAt(0, 10)); err != nil {
		t.Fatalf("WriteTicks(volume) failed: %v", err)
	}

	ticks, err := s.ReadTicks(ctx, "prices", 0, 1000)
	if err != nil {
		t.Fatalf("ReadTicks() failed: %v", err)
	}
	var seqs []int64
	for _, tk := range ticks {
		seqs = append(seqs, tk.Seq)
	}
	if want := []int64{1, 2, 3}; !reflect.DeepEqual(seqs, want) {
		t.Errorf("seqs = %v, want %v", seqs, want)
	}

	volume, err := s.ReadTicks(ctx, "volume", 0, 0)
	if err != nil {
		t.Fatalf("ReadTicks(volume) failed: %v", err)
	}
	if len(volume) != 1 || volume[0].Seq != 1 {
		t.Errorf("volume = %+v, want one tick with seq 1", volume)
	}
}

func TestWriteTicks_EmptySeriesName(t *testing.T) {
	s := createTestStore(t)

	if _, err := s.WriteTicks(context.Background(), "", ticksAt(0, 1)); err == nil {
		t.Fatal("WriteTicks() with empty series should fail")
	}
}

func TestReadTicks_OrderedByTimeThenSeq(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	// Imported out of time order, with a tie at 500.
	_, err := s.WriteTicks(ctx, "prices", ticksAt(
		1500, 9.0,
		500, 1.0,
		-1, 7.0,
		0, 0.5,
		500, 2.0,
		1000, 3.0,
	))
	if err != nil {
		t.Fatalf("WriteTicks() failed: %v", err)
	}

	ticks, err := s.ReadTicks(ctx, "prices", 0, 1000)
	if err != nil {
		t.Fatalf("ReadTicks() failed: %v", err)
	}

	var times []int64
	var values []float64
	for _, tk := range ticks {
		times = append(times, tk.TimeMillis)
		values = append(values, tk.Value)
		if tk.Series != "prices" {
			t.Errorf("series = %q, want prices", tk.Series)
		}
	}
	if want := []int64{0, 500, 500, 1000}; !reflect.DeepEqual(times, want) {
		t.Errorf("times = %v, want %v", times, want)
	}
	if want := []float64{0.5, 1.0, 2.0, 3.0}; !reflect.DeepEqual(values, want) {
		t.Errorf("values = %v, want %v", values, want)
	}
}

func TestReadTicks_EmptyIsNotNil(t *testing.T) {
	s := createTestStore(t)

	ticks, err := s.ReadTicks(context.Background(), "nothing", 0, 1000)
	if err != nil {
		t.Fatalf("ReadTicks() failed: %v", err)
	}
	if ticks == nil {
		t.Error("ReadTicks() returned nil, want empty slice")
	}
}

func TestListSeries(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	s.WriteTicks(ctx, "volume", ticksAt(10, 1, 30, 2))
	s.WriteTicks(ctx, "prices", ticksAt(5, 1, 50, 2, 20, 3))

	infos, err := s.ListSeries(ctx)
	if err != nil {
		t.Fatalf("ListSeries() failed: %v", err)
	}
	want := []SeriesInfo{
		{Name: "prices", Count: 3, FirstTime: 5, LastTime: 50},
		{Name: "volume", Count: 2, FirstTime: 10, LastTime: 30},
	}
	if !reflect.DeepEqual(infos, want) {
		t.Errorf("ListSeries() = %+v, want %+v", infos, want)
	}
}

func TestDeleteSeries(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	s.WriteTicks(ctx, "prices", ticksAt(0, 1, 1, 2))

	n, err := s.DeleteSeries(ctx, "prices")
	if err != nil {
		t.Fatalf("DeleteSeries() failed: %v", err)
	}
	if n != 2 {
		t.Errorf("deleted = %d, want 2", n)
	}

	// Seq restarts once the series is gone.
	s.WriteTicks(ctx, "prices", ticksAt(0, 5))
	ticks, _ := s.ReadTicks(ctx, "prices", 0, 0)
	if len(ticks) != 1 || ticks[0].Seq != 1 {
		t.Errorf("ticks after delete = %+v", ticks)
	}
}

func testRecords() []trace.Record {
	return []trace.Record{
		{Seq: 1, Time: 0, Node: "sum", Value: 0},
		{Seq: 2, Time: 500, Node: "sum", Value: 3},
		{Seq: 3, Time: 1000, Node: "sum", Value: 5},
	}
}

func TestWriteRun_RoundTrip(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	run := Run{
		ID:          "0190a000-0000-7000-8000-000000000001",
		Pipeline:    "running-sum",
		Source:      `name: "running-sum"`,
		Outputs:     []string{"sum", "rounded"},
		StartMillis: 0,
		EndMillis:   30000,
		Digest:      "abc123",
		EventCount:  99, // ignored: taken from the records
		CreatedAt:   1700000000000,
	}

	inserted, err := s.WriteRun(ctx, run, testRecords())
	if err != nil {
		t.Fatalf("WriteRun() failed: %v", err)
	}
	if !inserted {
		t.Fatal("WriteRun() inserted = false on first write")
	}

	got, err := s.ReadRun(ctx, run.ID)
	if err != nil {
		t.Fatalf("ReadRun() failed: %v", err)
	}
	run.EventCount = 3
	if !reflect.DeepEqual(got, run) {
		t.Errorf("ReadRun() = %+v, want %+v", got, run)
	}

	events, err := s.ReadRunEvents(ctx, run.ID)
	if err != nil {
		t.Fatalf("ReadRunEvents() failed: %v", err)
	}
	if !reflect.DeepEqual(events, testRecords()) {
		t.Errorf("ReadRunEvents() = %+v", events)
	}
}

func TestWriteRun_Idempotent(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	run := Run{ID: "run-1", Pipeline: "p", Digest: "d1"}

	if _, err := s.WriteRun(ctx, run, testRecords()); err != nil {
		t.Fatalf("WriteRun() failed: %v", err)
	}

	run.Digest = "d2"
	inserted, err := s.WriteRun(ctx, run, testRecords()[:1])
	if err != nil {
		t.Fatalf("second WriteRun() failed: %v", err)
	}
	if inserted {
		t.Error("second WriteRun() inserted = true, want false")
	}

	got, _ := s.ReadRun(ctx, "run-1")
	if got.Digest != "d1" || got.EventCount != 3 {
		t.Errorf("run was overwritten: %+v", got)
	}
	events, _ := s.ReadRunEvents(ctx, "run-1")
	if len(events) != 3 {
		t.Errorf("events = %d, want 3", len(events))
	}
}

func TestWriteRun_DuplicateSeqRollsBack(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	records := []trace.Record{{Seq: 1, Node: "a"}, {Seq: 1, Node: "b"}}
	if _, err := s.WriteRun(ctx, Run{ID: "bad"}, records); err == nil {
		t.Fatal("WriteRun() with duplicate seq should fail")
	}

	if _, err := s.ReadRun(ctx, "bad"); !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("ReadRun() after rollback = %v, want sql.ErrNoRows", err)
	}
}

func TestReadRun_NotFound(t *testing.T) {
	s := createTestStore(t)

	_, err := s.ReadRun(context.Background(), "missing")
	if !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("ReadRun() = %v, want sql.ErrNoRows", err)
	}
}

func TestListRuns_OrderedByID(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	for _, id := range []string{"run-b", "run-c", "run-a"} {
		if _, err := s.WriteRun(ctx, Run{ID: id, Pipeline: id}, nil); err != nil {
			t.Fatalf("WriteRun(%s) failed: %v", id, err)
		}
	}

	runs, err := s.ListRuns(ctx)
	if err != nil {
		t.Fatalf("ListRuns() failed: %v", err)
	}
	var ids []string
	for _, r := range runs {
		ids = append(ids, r.ID)
		if r.Outputs == nil {
			t.Errorf("run %s outputs = nil, want empty", r.ID)
		}
	}
	if want := []string{"run-a", "run-b", "run-c"}; !reflect.DeepEqual(ids, want) {
		t.Errorf("ids = %v, want %v", ids, want)
	}
}

func TestReadRunEventsBetween(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	s.WriteRun(ctx, Run{ID: "r"}, testRecords())

	events, err := s.ReadRunEventsBetween(ctx, "r", 1, 1000)
	if err != nil {
		t.Fatalf("ReadRunEventsBetween() failed: %v", err)
	}
	if len(events) != 2 || events[0].Seq != 2 || events[1].Seq != 3 {
		t.Errorf("events = %+v, want seqs 2 and 3", events)
	}
}

func TestMarshalOutputs(t *testing.T) {
	data, err := marshalOutputs([]string{"a<b", "sum"})
	if err != nil {
		t.Fatalf("marshalOutputs() failed: %v", err)
	}
	if data != `["a<b","sum"]` {
		t.Errorf("marshalOutputs() = %s", data)
	}

	empty, _ := marshalOutputs(nil)
	if empty != "[]" {
		t.Errorf("marshalOutputs(nil) = %s, want []", empty)
	}

	back, err := unmarshalOutputs(data)
	if err != nil {
		t.Fatalf("unmarshalOutputs() failed: %v", err)
	}
	if !reflect.DeepEqual(back, []string{"a<b", "sum"}) {
		t.Errorf("unmarshalOutputs() = %v", back)
	}

	if _, err := unmarshalOutputs("{"); err == nil {
		t.Error("unmarshalOutputs() on bad JSON should fail")
	}
}
