package event

import (
	"time"

	"github.com/google/uuid"

	"github.com/cwarden/skuld/internal/schedule"
)

// Event is a timed calendar entry owned by a Catalog. Setters notify observers
// synchronously with the old and new value; setting an unchanged value is a no-op.
//
// Events are not safe for concurrent use. The catalog and every surface observing
// an event run on the same goroutine.
type Event struct {
	id      string
	title   string
	start   time.Time
	minutes int

	Source   string
	Notes    string
	Tags     []string
	Color    string
	ReadOnly bool

	listeners    map[int]schedule.Listener
	nextListener int
}

// New creates an event with a fresh random ID.
func New(title string, start time.Time, minutes int) *Event {
	return NewWithID(uuid.NewString(), title, start, minutes)
}

func NewWithID(id, title string, start time.Time, minutes int) *Event {
	return &Event{
		id:      id,
		title:   title,
		start:   start,
		minutes: minutes,
	}
}

func (e *Event) ID() string               { return e.id }
func (e *Event) Title() string            { return e.title }
func (e *Event) ScheduledTime() time.Time { return e.start }
func (e *Event) DurationMinutes() int     { return e.minutes }
func (e *Event) OwnerColor() string       { return e.Color }

func (e *Event) End() time.Time {
	return e.start.Add(time.Duration(e.minutes) * time.Minute)
}

// Overlaps reports whether the event intersects [start, end].
func (e *Event) Overlaps(start, end time.Time) bool {
	return !e.start.After(end) && !e.End().Before(start)
}

func (e *Event) SetScheduledTime(t time.Time) {
	if t.Equal(e.start) {
		return
	}
	old := e.start
	e.start = t
	for _, l := range e.snapshotListeners() {
		if l.TimeChanged != nil {
			l.TimeChanged(old, t)
		}
	}
}

func (e *Event) SetDurationMinutes(minutes int) {
	if minutes == e.minutes {
		return
	}
	old := e.minutes
	e.minutes = minutes
	for _, l := range e.snapshotListeners() {
		if l.DurationChanged != nil {
			l.DurationChanged(old, minutes)
		}
	}
}

func (e *Event) SetTitle(title string) {
	if title == e.title {
		return
	}
	old := e.title
	e.title = title
	for _, l := range e.snapshotListeners() {
		if l.TitleChanged != nil {
			l.TitleChanged(old, title)
		}
	}
}

// Observe registers l and returns a func removing it. Listeners may cancel
// themselves, or register others, while being notified.
func (e *Event) Observe(l schedule.Listener) func() {
	if e.listeners == nil {
		e.listeners = make(map[int]schedule.Listener)
	}
	id := e.nextListener
	e.nextListener++
	e.listeners[id] = l
	return func() { delete(e.listeners, id) }
}

// Observers returns the number of registered listeners.
func (e *Event) Observers() int { return len(e.listeners) }

// snapshotListeners copies the listeners in registration order so that
// notification is deterministic and tolerant of changes to the set.
func (e *Event) snapshotListeners() []schedule.Listener {
	if len(e.listeners) == 0 {
		return nil
	}
	out := make([]schedule.Listener, 0, len(e.listeners))
	for id := 0; id < e.nextListener; id++ {
		if l, ok := e.listeners[id]; ok {
			out = append(out, l)
		}
	}
	return out
}

// Clone copies the event's data without its observers.
func (e *Event) Clone() *Event {
	c := &Event{
		id:       e.id,
		title:    e.title,
		start:    e.start,
		minutes:  e.minutes,
		Source:   e.Source,
		Notes:    e.Notes,
		Color:    e.Color,
		ReadOnly: e.ReadOnly,
	}
	if e.Tags != nil {
		c.Tags = append([]string(nil), e.Tags...)
	}
	return c
}

// update copies data from fresh through the setters, so observers see external
// edits as ordinary changes. It reports whether anything differed.
func (e *Event) update(fresh *Event) bool {
	changed := !e.start.Equal(fresh.start) || e.minutes != fresh.minutes || e.title != fresh.title ||
		e.Notes != fresh.Notes || e.Color != fresh.Color || e.ReadOnly != fresh.ReadOnly ||
		!equalTags(e.Tags, fresh.Tags)

	e.Notes = fresh.Notes
	e.Color = fresh.Color
	e.ReadOnly = fresh.ReadOnly
	e.Tags = append([]string(nil), fresh.Tags...)
	e.SetScheduledTime(fresh.start)
	e.SetDurationMinutes(fresh.minutes)
	e.SetTitle(fresh.title)
	return changed
}

func equalTags(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
