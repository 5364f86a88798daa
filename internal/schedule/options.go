package schedule

import "time"

// The host collaborates with a surface through these small interfaces. Each one is
// optional; WithDelegate wires whichever a value implements and the surface supplies
// defaults for the rest (approve every change, ignore every notification).

type DurationVetoer interface {
	ShouldChangeDuration(r Record, oldMinutes, newMinutes int) bool
}

type TimeVetoer interface {
	ShouldChangeTime(r Record, old, new time.Time) bool
}

type SelectionObserver interface {
	EventSelected(r Record)
	SelectionCleared()
}

type DoubleClickObserver interface {
	EventDoubleClicked(r Record)
	// BlankDoubleClicked reports the time under the pointer; ok is false when the
	// pointer did not map to a time.
	BlankDoubleClicked(t time.Time, ok bool)
}

// ReloadRequester is told when a record moved outside the displayed interval and
// the surface needs a fresh ReloadData.
type ReloadRequester interface {
	ReloadRequested()
}

// CommitObserver is told after a drag change has been written to a record.
type CommitObserver interface {
	EventChanged(r Record)
}

// GeometryConsumer receives the rectangles of every layout pass.
type GeometryConsumer interface {
	LayoutChanged(rects []Rect)
}

type hostCallbacks struct {
	shouldChangeDuration func(r Record, oldMinutes, newMinutes int) bool
	shouldChangeTime     func(r Record, old, new time.Time) bool
	selected             func(r Record)
	cleared              func()
	doubleClicked        func(r Record)
	blankDoubleClicked   func(t time.Time, ok bool)
	reloadRequested      func()
	committed            func(r Record)
	geometry             func(rects []Rect)
}

func defaultCallbacks() hostCallbacks {
	return hostCallbacks{
		shouldChangeDuration: func(Record, int, int) bool { return true },
		shouldChangeTime:     func(Record, time.Time, time.Time) bool { return true },
		selected:             func(Record) {},
		cleared:              func() {},
		doubleClicked:        func(Record) {},
		blankDoubleClicked:   func(time.Time, bool) {},
		reloadRequested:      func() {},
		committed:            func(Record) {},
		geometry:             func([]Rect) {},
	}
}

// DefaultDoubleClickWindow is the longest gap between two presses that still counts
// as a double click.
const DefaultDoubleClickWindow = 500 * time.Millisecond

type Option func(*Surface)

func WithDurationVeto(f func(r Record, oldMinutes, newMinutes int) bool) Option {
	return func(s *Surface) {
		if f != nil {
			s.host.shouldChangeDuration = f
		}
	}
}

func WithTimeVeto(f func(r Record, old, new time.Time) bool) Option {
	return func(s *Surface) {
		if f != nil {
			s.host.shouldChangeTime = f
		}
	}
}

func WithSelection(selected func(Record), cleared func()) Option {
	return func(s *Surface) {
		if selected != nil {
			s.host.selected = selected
		}
		if cleared != nil {
			s.host.cleared = cleared
		}
	}
}

func WithDoubleClick(onEvent func(Record), onBlank func(time.Time, bool)) Option {
	return func(s *Surface) {
		if onEvent != nil {
			s.host.doubleClicked = onEvent
		}
		if onBlank != nil {
			s.host.blankDoubleClicked = onBlank
		}
	}
}

func WithReloadRequest(f func()) Option {
	return func(s *Surface) {
		if f != nil {
			s.host.reloadRequested = f
		}
	}
}

func WithCommitted(f func(Record)) Option {
	return func(s *Surface) {
		if f != nil {
			s.host.committed = f
		}
	}
}

func WithGeometry(f func([]Rect)) Option {
	return func(s *Surface) {
		if f != nil {
			s.host.geometry = f
		}
	}
}

// WithDelegate wires every collaborator interface d implements.
func WithDelegate(d any) Option {
	return func(s *Surface) {
		if v, ok := d.(DurationVetoer); ok {
			s.host.shouldChangeDuration = v.ShouldChangeDuration
		}
		if v, ok := d.(TimeVetoer); ok {
			s.host.shouldChangeTime = v.ShouldChangeTime
		}
		if v, ok := d.(SelectionObserver); ok {
			s.host.selected = v.EventSelected
			s.host.cleared = v.SelectionCleared
		}
		if v, ok := d.(DoubleClickObserver); ok {
			s.host.doubleClicked = v.EventDoubleClicked
			s.host.blankDoubleClicked = v.BlankDoubleClicked
		}
		if v, ok := d.(ReloadRequester); ok {
			s.host.reloadRequested = v.ReloadRequested
		}
		if v, ok := d.(CommitObserver); ok {
			s.host.committed = v.EventChanged
		}
		if v, ok := d.(GeometryConsumer); ok {
			s.host.geometry = v.LayoutChanged
		}
	}
}

func WithDoubleClickWindow(d time.Duration) Option {
	return func(s *Surface) {
		if d > 0 {
			s.doubleClick = d
		}
	}
}

func WithLogger(l Logger) Option {
	return func(s *Surface) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithID overrides the generated surface identifier.
func WithID(id string) Option {
	return func(s *Surface) {
		if id != "" {
			s.id = id
		}
	}
}
