package schedule

import (
	"time"
)

const (
	// MinDisplayMinutes is the shortest length a block is drawn with. Shorter events
	// get a tick marking where they really end.
	MinDisplayMinutes = 15

	// MinDragMinutes is the shortest duration a resize drag can produce.
	MinDragMinutes = 5
)

// Logger is the subset of internal/log the surface needs.
type Logger interface {
	Debug(msg string, kv ...any)
	Warn(msg string, kv ...any)
}

type snapshotHooks struct {
	changed func(*Snapshot)
	stale   func(*Snapshot)
	logger  Logger
}

// Snapshot is the surface's cached view of one Record.
//
// While frozen, observed record changes are queued instead of applied so that a
// layout pass sees a consistent set of positions. Unfreeze replays the queue in
// arrival order.
type Snapshot struct {
	record   Record
	owner    string
	order    int
	interval Interval

	scheduled time.Time
	duration  int
	title     string

	relStart Position
	relEnd   Position
	tick     Position
	ready    bool

	conflictIndex int
	conflictSize  int

	frozen        bool
	deferred      []func()
	ignoreChanges bool
	released      bool
	cancel        func()

	hooks snapshotHooks
}

func newSnapshot(r Record, owner string, order int, iv Interval, hooks snapshotHooks) *Snapshot {
	if hooks.changed == nil {
		hooks.changed = func(*Snapshot) {}
	}
	if hooks.stale == nil {
		hooks.stale = func(*Snapshot) {}
	}
	if hooks.logger == nil {
		hooks.logger = nopLogger{}
	}

	s := &Snapshot{
		record:       r,
		owner:        owner,
		order:        order,
		interval:     iv,
		scheduled:    r.ScheduledTime(),
		duration:     r.DurationMinutes(),
		title:        r.Title(),
		conflictSize: 1,
		hooks:        hooks,
	}

	if obs, ok := r.(Observable); ok {
		s.cancel = obs.Observe(Listener{
			TimeChanged: func(_, t time.Time) {
				s.observe(func() { s.scheduled = t })
			},
			DurationChanged: func(_, minutes int) {
				s.observe(func() { s.duration = minutes })
			},
			TitleChanged: func(_, title string) {
				s.observe(func() { s.title = title })
			},
		})
	}

	s.recalculateRelativeValues()
	return s
}

func (s *Snapshot) Record() Record { return s.record }
func (s *Snapshot) ID() string     { return s.record.ID() }

// Owner is the identifier of the surface that created the snapshot.
func (s *Snapshot) Owner() string { return s.owner }

func (s *Snapshot) ScheduledTime() time.Time { return s.scheduled }
func (s *Snapshot) DurationMinutes() int     { return s.duration }
func (s *Snapshot) Title() string            { return s.title }
func (s *Snapshot) Interval() Interval       { return s.interval }

// DisplayMinutes is the duration the block is drawn with.
func (s *Snapshot) DisplayMinutes() int {
	if s.duration < MinDisplayMinutes {
		return MinDisplayMinutes
	}
	return s.duration
}

func (s *Snapshot) Ready() bool             { return s.ready }
func (s *Snapshot) RelativeStart() Position { return s.relStart }
func (s *Snapshot) RelativeEnd() Position   { return s.relEnd }

func (s *Snapshot) RelativeLength() Position {
	if !s.ready {
		return Invalid
	}
	return s.relEnd - s.relStart
}

// Tick is where the true end falls inside a block drawn at MinDisplayMinutes, as a
// fraction of the block. Invalid when the event is long enough to need none.
func (s *Snapshot) Tick() Position { return s.tick }

func (s *Snapshot) ConflictIndex() int     { return s.conflictIndex }
func (s *Snapshot) ConflictGroupSize() int { return s.conflictSize }

func (s *Snapshot) Frozen() bool        { return s.frozen }
func (s *Snapshot) PendingChanges() int { return len(s.deferred) }

func (s *Snapshot) Freeze() {
	if s.frozen {
		s.hooks.logger.Warn("freeze on already frozen snapshot", "id", s.ID())
		return
	}
	s.frozen = true
}

func (s *Snapshot) Unfreeze() {
	if !s.frozen {
		s.hooks.logger.Warn("unfreeze on active snapshot", "id", s.ID())
		return
	}
	s.frozen = false

	queue := s.deferred
	s.deferred = nil
	for _, apply := range queue {
		apply()
		s.applied()
	}
}

func (s *Snapshot) observe(apply func()) {
	if s.ignoreChanges || s.released {
		return
	}
	if s.frozen {
		s.deferred = append(s.deferred, apply)
		return
	}
	apply()
	s.applied()
}

func (s *Snapshot) applied() {
	s.recalculateRelativeValues()
	if !s.relStart.Valid() {
		s.hooks.stale(s)
	}
	s.hooks.changed(s)
}

func (s *Snapshot) recalculateRelativeValues() {
	s.relStart = ToRelative(s.scheduled, s.interval)
	if !s.relStart.Valid() {
		s.relEnd = Invalid
		s.tick = Invalid
		s.ready = false
		return
	}

	display := s.duration
	s.tick = Invalid
	switch {
	case display <= 0:
		display = MinDisplayMinutes
		s.tick = 0
	case display < MinDisplayMinutes:
		s.tick = Position(float64(display) / MinDisplayMinutes)
		display = MinDisplayMinutes
	}

	end := s.scheduled.Add(time.Duration(display) * time.Minute)
	s.relEnd = ToRelative(end, s.interval)
	if !s.relEnd.Valid() {
		s.relEnd = 1
	}
	s.ready = true
}

func (s *Snapshot) setConflict(index, size int) {
	s.conflictIndex = index
	s.conflictSize = size
}

// setDraftDuration changes the cached duration only. The record is untouched.
func (s *Snapshot) setDraftDuration(minutes int) {
	s.duration = minutes
	s.recalculateRelativeValues()
}

// setDraftPositions moves the block without touching the cached time.
func (s *Snapshot) setDraftPositions(start, end Position) {
	s.relStart = start
	s.relEnd = end
}

func (s *Snapshot) restore(t time.Time, minutes int) {
	s.scheduled = t
	s.duration = minutes
	s.recalculateRelativeValues()
	if !s.relStart.Valid() {
		s.hooks.stale(s)
	}
}

// writeThrough performs a write on the record with observation suppressed, then
// refreshes the cache from the record.
func (s *Snapshot) writeThrough(write func(Mutator)) bool {
	m, ok := s.record.(Mutator)
	if !ok {
		return false
	}
	s.ignoreChanges = true
	write(m)
	s.ignoreChanges = false

	s.scheduled = s.record.ScheduledTime()
	s.duration = s.record.DurationMinutes()
	s.title = s.record.Title()
	s.recalculateRelativeValues()
	return true
}

// release stops observing the record. The snapshot must not be used afterwards.
func (s *Snapshot) release() {
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.deferred = nil
	s.released = true
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Warn(string, ...any)  {}
