package schedule

import (
	"fmt"
	"time"
)

// testRecord is a minimal observable, writable record.
type testRecord struct {
	id        string
	at        time.Time
	minutes   int
	title     string
	listeners map[int]Listener
	nextID    int
}

func newTestRecord(id string, at time.Time, minutes int) *testRecord {
	return &testRecord{id: id, at: at, minutes: minutes, title: id, listeners: map[int]Listener{}}
}

func (r *testRecord) ID() string               { return r.id }
func (r *testRecord) ScheduledTime() time.Time { return r.at }
func (r *testRecord) DurationMinutes() int     { return r.minutes }
func (r *testRecord) Title() string            { return r.title }

func (r *testRecord) SetScheduledTime(t time.Time) {
	old := r.at
	r.at = t
	for _, l := range r.listeners {
		if l.TimeChanged != nil {
			l.TimeChanged(old, t)
		}
	}
}

func (r *testRecord) SetDurationMinutes(m int) {
	old := r.minutes
	r.minutes = m
	for _, l := range r.listeners {
		if l.DurationChanged != nil {
			l.DurationChanged(old, m)
		}
	}
}

func (r *testRecord) SetTitle(title string) {
	old := r.title
	r.title = title
	for _, l := range r.listeners {
		if l.TitleChanged != nil {
			l.TitleChanged(old, title)
		}
	}
}

func (r *testRecord) Observe(l Listener) func() {
	id := r.nextID
	r.nextID++
	r.listeners[id] = l
	return func() { delete(r.listeners, id) }
}

// readOnlyRecord implements Record only.
type readOnlyRecord struct {
	id      string
	at      time.Time
	minutes int
}

func (r readOnlyRecord) ID() string               { return r.id }
func (r readOnlyRecord) ScheduledTime() time.Time { return r.at }
func (r readOnlyRecord) DurationMinutes() int     { return r.minutes }
func (r readOnlyRecord) Title() string            { return r.id }

// warnRecorder captures warnings.
type warnRecorder struct {
	warnings []string
}

func (w *warnRecorder) Debug(string, ...any) {}
func (w *warnRecorder) Warn(msg string, kv ...any) {
	w.warnings = append(w.warnings, fmt.Sprint(append([]any{msg}, kv...)...))
}

var testDay = time.Date(2025, 8, 25, 0, 0, 0, 0, time.UTC)

func at(hour, minute int) time.Time {
	return time.Date(2025, 8, 25, hour, minute, 0, 0, time.UTC)
}

func dayInterval() Interval {
	return DayInterval(testDay, 1)
}

func staticSource(records ...Record) DataSource {
	return DataSourceFunc(func(start, end time.Time) ([]Record, error) {
		return records, nil
	})
}

func newTestSurface(records []Record, opts ...Option) *Surface {
	opts = append([]Option{WithLogger(&warnRecorder{})}, opts...)
	s := NewSurface(staticSource(records...), dayInterval(), 1, opts...)
	if err := s.ReloadData(); err != nil {
		panic(err)
	}
	return s
}

// relSnapshot builds a ready snapshot with fixed relative positions.
func relSnapshot(id string, order int, start, end Position) *Snapshot {
	return &Snapshot{
		record:       readOnlyRecord{id: id},
		order:        order,
		relStart:     start,
		relEnd:       end,
		ready:        true,
		conflictSize: 1,
		hooks:        snapshotHooks{logger: nopLogger{}, changed: func(*Snapshot) {}, stale: func(*Snapshot) {}},
	}
}

func approxEqual(a, b float64) bool {
	d := a - b
	if d < 0 {
		d = -d
	}
	return d < 1e-4
}
