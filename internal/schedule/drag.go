package schedule

import (
	"math"
	"time"
)

type DragState int

const (
	DragIdle DragState = iota
	DragResizing
	DragMoving
)

func (d DragState) String() string {
	switch d {
	case DragResizing:
		return "resizing"
	case DragMoving:
		return "moving"
	default:
		return "idle"
	}
}

type press struct {
	target *Snapshot
	at     Position
	when   time.Time
	valid  bool
}

// DragController turns pointer samples into tentative changes of one snapshot and,
// on release, commits them through the host's veto or rolls them back.
//
// Pointer positions are relative to the surface interval; the presentation layer
// converts cells or pixels with DayPosition.
type DragController struct {
	surface *Surface
	state   DragState
	target  *Snapshot

	originalTime     time.Time
	originalDuration int
	currentTime      time.Time
	currentDuration  int
	originalStart    Position
	currentStart     Position
	grabOffset       Position

	last  press
	moved bool
}

func (c *DragController) State() DragState        { return c.state }
func (c *DragController) Target() *Snapshot       { return c.target }
func (c *DragController) OriginalDuration() int   { return c.originalDuration }
func (c *DragController) CurrentDuration() int    { return c.currentDuration }
func (c *DragController) OriginalStart() Position { return c.originalStart }
func (c *DragController) CurrentStart() Position  { return c.currentStart }
func (c *DragController) CurrentTime() time.Time  { return c.currentTime }

// Press handles a pointer press at a position. target is the snapshot under the
// pointer, nil for blank space; onHandle is true when the press landed on the
// target's resize affordance.
//
// A second press within the double-click window, on the same target and with no
// movement in between, is reported to the host as a double click and starts no drag.
func (c *DragController) Press(at Position, target *Snapshot, onHandle bool, when time.Time) {
	s := c.surface
	if c.state != DragIdle {
		s.logger.Warn("press while a drag is active", "surface", s.id, "state", c.state.String())
		return
	}

	if c.isDoubleClick(at, target, when) {
		c.last = press{}
		if target != nil {
			s.host.doubleClicked(target.Record())
			return
		}
		t, ok := ToTimestamp(at, s.interval)
		s.host.blankDoubleClicked(t, ok)
		return
	}

	c.last = press{target: target, at: at, when: when, valid: true}
	c.moved = false

	if target == nil {
		s.ClearSelection()
		return
	}

	s.Select(target)
	if !target.Ready() {
		return
	}

	c.target = target
	c.originalTime = target.scheduled
	c.currentTime = target.scheduled
	c.originalDuration = target.duration
	c.currentDuration = target.duration
	c.originalStart = target.relStart
	c.currentStart = target.relStart

	if onHandle {
		c.state = DragResizing
	} else {
		c.state = DragMoving
		c.grabOffset = at - target.relStart
		if !at.Valid() {
			c.grabOffset = 0
		}
	}
	s.dragging = target
	s.logger.Debug("drag started", "surface", s.id, "id", target.ID(), "state", c.state.String())
}

func (c *DragController) isDoubleClick(at Position, target *Snapshot, when time.Time) bool {
	if !c.last.valid || c.moved {
		return false
	}
	if when.Sub(c.last.when) > c.surface.doubleClick || when.Before(c.last.when) {
		return false
	}
	if target != c.last.target {
		return false
	}
	return target != nil || at == c.last.at
}

// Move handles a pointer sample while the button is held.
func (c *DragController) Move(at Position) {
	c.moved = true
	switch c.state {
	case DragResizing:
		c.resize(at)
	case DragMoving:
		c.move(at)
	default:
		c.surface.logger.Debug("pointer move without active drag", "surface", c.surface.id)
	}
}

func (c *DragController) resize(at Position) {
	iv := c.surface.interval
	t, ok := ToTimestamp(at, iv)
	if !ok {
		t, ok = ToTimestamp(at.Clamp(), iv)
		if !ok {
			return
		}
	}

	minutes := int(math.Ceil(t.Sub(c.target.scheduled).Minutes()))
	if minutes < MinDragMinutes {
		minutes = MinDragMinutes
	}
	if minutes == c.currentDuration {
		return
	}

	c.currentDuration = minutes
	c.target.setDraftDuration(minutes)
	c.surface.Layout()
}

func (c *DragController) move(at Position) {
	iv := c.surface.interval
	candidate := at - c.grabOffset
	start, ok := ToTimestamp(candidate, iv)
	if !ok {
		// The pointer is near an edge; pin the block to the boundary.
		start, ok = ToTimestamp(candidate.Clamp(), iv)
		if !ok {
			return
		}
	}

	end := start.Add(time.Duration(c.target.duration) * time.Minute)
	relStart := ToRelative(start, iv)
	if !relStart.Valid() || !ToRelative(end, iv).Valid() {
		return
	}
	if start.Equal(c.currentTime) {
		return
	}

	// Short events are drawn longer than they are; the drawn end may run past the
	// interval.
	relEnd := ToRelative(start.Add(time.Duration(c.target.DisplayMinutes())*time.Minute), iv)
	if !relEnd.Valid() {
		relEnd = 1
	}

	c.currentTime = start
	c.currentStart = relStart
	c.target.setDraftPositions(relStart, relEnd)
	c.surface.Layout()
}

// Release ends the session. A changed value is offered to the host; approval
// writes it to the record, refusal restores the pre-drag value.
func (c *DragController) Release() {
	s := c.surface
	switch c.state {
	case DragIdle:
		s.logger.Debug("release without active drag", "surface", s.id)
		return

	case DragResizing:
		if c.currentDuration == c.originalDuration {
			c.rollback()
			return
		}
		rec := c.target.Record()
		if !s.host.shouldChangeDuration(rec, c.originalDuration, c.currentDuration) {
			s.logger.Debug("duration change vetoed", "surface", s.id, "id", rec.ID())
			c.rollback()
			return
		}
		minutes := c.currentDuration
		if !c.target.writeThrough(func(m Mutator) { m.SetDurationMinutes(minutes) }) {
			s.logger.Warn("event is not writable", "surface", s.id, "id", rec.ID())
			c.rollback()
			return
		}
		c.commit(rec)

	case DragMoving:
		if c.currentTime.Equal(c.originalTime) {
			c.rollback()
			return
		}
		rec := c.target.Record()
		if !s.host.shouldChangeTime(rec, c.originalTime, c.currentTime) {
			s.logger.Debug("time change vetoed", "surface", s.id, "id", rec.ID())
			c.rollback()
			return
		}
		t := c.currentTime
		if !c.target.writeThrough(func(m Mutator) { m.SetScheduledTime(t) }) {
			s.logger.Warn("event is not writable", "surface", s.id, "id", rec.ID())
			c.rollback()
			return
		}
		c.commit(rec)
	}
}

// Abort ends the session as if the host had refused the change.
func (c *DragController) Abort() {
	if c.state == DragIdle {
		return
	}
	c.surface.logger.Debug("drag aborted", "surface", c.surface.id, "id", c.target.ID())
	c.rollback()
}

func (c *DragController) commit(rec Record) {
	c.finish()
	c.surface.host.committed(rec)
	c.surface.Layout()
}

// rollback puts the record's current values back into the cache. A drag never
// writes the record, but the record may have changed under the drag.
func (c *DragController) rollback() {
	rec := c.target.Record()
	c.target.restore(rec.ScheduledTime(), rec.DurationMinutes())
	c.finish()
	c.surface.Layout()
}

func (c *DragController) finish() {
	c.state = DragIdle
	c.target = nil
	c.surface.dragging = nil
	c.grabOffset = 0
}
