package schedule

import "time"

// Record is the read side of a host-owned event. The surface never creates or
// destroys records; it only observes them and asks for mutations.
type Record interface {
	ID() string
	ScheduledTime() time.Time
	DurationMinutes() int
	Title() string
}

// Mutator is implemented by records the host allows the surface to write.
type Mutator interface {
	SetScheduledTime(t time.Time)
	SetDurationMinutes(minutes int)
}

// Observable records publish field changes synchronously to registered listeners.
type Observable interface {
	// Observe registers l and returns a func that unregisters it.
	Observe(l Listener) (cancel func())
}

// ColorSource is implemented by records that carry an owner color.
type ColorSource interface {
	OwnerColor() string
}

// Listener receives (old, new) pairs. Nil callbacks are skipped.
type Listener struct {
	TimeChanged     func(old, new time.Time)
	DurationChanged func(old, new int)
	TitleChanged    func(old, new string)
}

// DataSource supplies the records intersecting a window. It is called once per
// reload, never by the snapshot recompute cycle.
type DataSource interface {
	EventsBetween(start, end time.Time) ([]Record, error)
}

// DataSourceFunc adapts a plain func to DataSource.
type DataSourceFunc func(start, end time.Time) ([]Record, error)

func (f DataSourceFunc) EventsBetween(start, end time.Time) ([]Record, error) {
	return f(start, end)
}
