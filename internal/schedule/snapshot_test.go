package schedule

import (
	"testing"
	"time"
)

func TestSnapshotRelativeValues(t *testing.T) {
	tests := []struct {
		name     string
		at       time.Time
		minutes  int
		start    float64
		end      float64
		tick     Position
		ready    bool
		displayM int
	}{
		{"half hour at ten", at(10, 0), 30, 600.0 / 1440, 630.0 / 1440, Invalid, true, 30},
		{"short event drawn at minimum", at(9, 0), 5, 540.0 / 1440, 555.0 / 1440, Position(5.0 / 15), true, 15},
		{"zero duration", at(9, 0), 0, 540.0 / 1440, 555.0 / 1440, 0, true, 15},
		{"runs past midnight", at(23, 30), 90, 1410.0 / 1440, 1, Invalid, true, 90},
		{"outside interval", at(9, 0).AddDate(0, 0, 2), 30, -1, -1, Invalid, false, 30},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newSnapshot(newTestRecord("x", tt.at, tt.minutes), "test", 0, dayInterval(), snapshotHooks{})
			if s.Ready() != tt.ready {
				t.Fatalf("Ready() = %v, want %v", s.Ready(), tt.ready)
			}
			if !approxEqual(float64(s.RelativeStart()), tt.start) {
				t.Errorf("RelativeStart() = %v, want %v", s.RelativeStart(), tt.start)
			}
			if !approxEqual(float64(s.RelativeEnd()), tt.end) {
				t.Errorf("RelativeEnd() = %v, want %v", s.RelativeEnd(), tt.end)
			}
			if !approxEqual(float64(s.Tick()), float64(tt.tick)) {
				t.Errorf("Tick() = %v, want %v", s.Tick(), tt.tick)
			}
			if s.DisplayMinutes() != tt.displayM {
				t.Errorf("DisplayMinutes() = %d, want %d", s.DisplayMinutes(), tt.displayM)
			}
			if s.DurationMinutes() != tt.minutes {
				t.Errorf("DurationMinutes() = %d, want true duration %d", s.DurationMinutes(), tt.minutes)
			}
		})
	}
}

func TestSnapshotRelativeLength(t *testing.T) {
	s := newSnapshot(newTestRecord("x", at(10, 0), 30), "test", 0, dayInterval(), snapshotHooks{})
	if !approxEqual(float64(s.RelativeLength()), 30.0/1440) {
		t.Errorf("RelativeLength() = %v", s.RelativeLength())
	}

	gone := newSnapshot(newTestRecord("y", at(10, 0).AddDate(0, 0, 3), 30), "test", 0, dayInterval(), snapshotHooks{})
	if gone.RelativeLength() != Invalid {
		t.Errorf("unready snapshot length = %v, want Invalid", gone.RelativeLength())
	}
}

func TestSnapshotObservesRecord(t *testing.T) {
	r := newTestRecord("x", at(10, 0), 30)
	changed := 0
	s := newSnapshot(r, "test", 0, dayInterval(), snapshotHooks{changed: func(*Snapshot) { changed++ }})

	r.SetScheduledTime(at(12, 0))
	if !approxEqual(float64(s.RelativeStart()), 0.5) {
		t.Errorf("RelativeStart() = %v after move, want 0.5", s.RelativeStart())
	}
	r.SetTitle("renamed")
	if s.Title() != "renamed" {
		t.Errorf("Title() = %q", s.Title())
	}
	if changed != 2 {
		t.Errorf("changed hook called %d times, want 2", changed)
	}
}

func TestSnapshotFreezeQueuesInArrivalOrder(t *testing.T) {
	r := newTestRecord("x", at(10, 0), 30)
	var seen []time.Time
	s := newSnapshot(r, "test", 0, dayInterval(), snapshotHooks{
		changed: func(s *Snapshot) { seen = append(seen, s.ScheduledTime()) },
	})

	s.Freeze()
	r.SetScheduledTime(at(11, 0))
	r.SetScheduledTime(at(12, 0))
	r.SetDurationMinutes(45)

	if s.PendingChanges() != 3 {
		t.Fatalf("PendingChanges() = %d, want 3", s.PendingChanges())
	}
	if !s.ScheduledTime().Equal(at(10, 0)) {
		t.Errorf("frozen snapshot changed to %v", s.ScheduledTime())
	}

	s.Unfreeze()

	if s.PendingChanges() != 0 {
		t.Errorf("queue not drained: %d", s.PendingChanges())
	}
	want := []time.Time{at(11, 0), at(12, 0), at(12, 0)}
	if len(seen) != len(want) {
		t.Fatalf("changed hook saw %v, want %v", seen, want)
	}
	for i := range want {
		if !seen[i].Equal(want[i]) {
			t.Errorf("replay %d saw %v, want %v", i, seen[i], want[i])
		}
	}
	if s.DurationMinutes() != 45 {
		t.Errorf("DurationMinutes() = %d, want 45", s.DurationMinutes())
	}
}

func TestSnapshotFreezeMisuse(t *testing.T) {
	w := &warnRecorder{}
	s := newSnapshot(newTestRecord("x", at(10, 0), 30), "test", 0, dayInterval(), snapshotHooks{logger: w})

	s.Unfreeze()
	if s.Frozen() {
		t.Error("Unfreeze on active snapshot froze it")
	}
	s.Freeze()
	s.Freeze()
	if !s.Frozen() {
		t.Error("expected snapshot to stay frozen")
	}
	if len(w.warnings) != 2 {
		t.Errorf("expected 2 warnings, got %v", w.warnings)
	}
}

func TestSnapshotStaleHook(t *testing.T) {
	r := newTestRecord("x", at(10, 0), 30)
	stale := 0
	s := newSnapshot(r, "test", 0, dayInterval(), snapshotHooks{stale: func(*Snapshot) { stale++ }})

	r.SetScheduledTime(at(10, 0).AddDate(0, 0, 1))
	if s.Ready() {
		t.Error("snapshot outside interval should not be ready")
	}
	if stale != 1 {
		t.Errorf("stale hook called %d times, want 1", stale)
	}
}

func TestSnapshotWriteThroughIgnoresEcho(t *testing.T) {
	r := newTestRecord("x", at(10, 0), 30)
	changed := 0
	s := newSnapshot(r, "test", 0, dayInterval(), snapshotHooks{changed: func(*Snapshot) { changed++ }})

	ok := s.writeThrough(func(m Mutator) { m.SetDurationMinutes(60) })
	if !ok {
		t.Fatal("writeThrough failed on a writable record")
	}
	if changed != 0 {
		t.Errorf("self-inflicted change was observed %d times", changed)
	}
	if s.DurationMinutes() != 60 || r.DurationMinutes() != 60 {
		t.Errorf("duration cache %d, record %d; want 60", s.DurationMinutes(), r.DurationMinutes())
	}

	ro := newSnapshot(readOnlyRecord{id: "ro", at: at(9, 0), minutes: 30}, "test", 1, dayInterval(), snapshotHooks{})
	if ro.writeThrough(func(m Mutator) { m.SetDurationMinutes(60) }) {
		t.Error("writeThrough succeeded on a read-only record")
	}
}

func TestSnapshotRelease(t *testing.T) {
	r := newTestRecord("x", at(10, 0), 30)
	changed := 0
	s := newSnapshot(r, "test", 0, dayInterval(), snapshotHooks{changed: func(*Snapshot) { changed++ }})

	s.release()
	r.SetScheduledTime(at(12, 0))
	if changed != 0 || len(r.listeners) != 0 {
		t.Errorf("released snapshot still observing: changed=%d listeners=%d", changed, len(r.listeners))
	}
}
