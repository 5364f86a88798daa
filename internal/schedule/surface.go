// Package schedule lays out host-owned events on a time grid.
//
// A Surface maps records into a bounded Interval, packs overlapping events into
// side-by-side columns and lets a DragController move or resize one event at a
// time, with the host able to veto every write. Everything runs on the caller's
// goroutine; nothing here blocks or starts goroutines.
package schedule

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	applog "github.com/cwarden/skuld/internal/log"
)

// Rect is the normalized geometry of one ready snapshot. Top and Height are
// fractions of a day column; X and Width are fractions of the column width.
type Rect struct {
	Snapshot *Snapshot
	Day      int
	Top      float64
	Height   float64
	Column   int
	Columns  int
	// Tick is the true end inside a block drawn at MinDisplayMinutes, or Invalid.
	Tick     Position
	Selected bool
	Dragging bool
}

func (r Rect) X() float64 {
	return float64(r.Column) / float64(r.Columns)
}

func (r Rect) Width() float64 {
	return 1 / float64(r.Columns)
}

func (r Rect) Bottom() float64 {
	return r.Top + r.Height
}

// Surface owns the snapshots for one displayed interval.
type Surface struct {
	id          string
	source      DataSource
	interval    Interval
	days        int
	host        hostCallbacks
	logger      Logger
	doubleClick time.Duration
	drag        *DragController

	snapshots map[string]*Snapshot
	ordered   []*Snapshot
	nextOrder int
	groups    [][]*Snapshot
	rects     []Rect

	selected    *Snapshot
	dragging    *Snapshot
	needsReload bool

	inLayout      bool
	pendingPasses int
	passes        int

	requestSeq int
}

// NewSurface creates an empty surface over iv split into days columns. Call
// ReloadData (or BeginRequest) to populate it.
func NewSurface(source DataSource, iv Interval, days int, opts ...Option) *Surface {
	if days < 1 {
		days = 1
	}
	s := &Surface{
		id:          uuid.NewString(),
		source:      source,
		interval:    iv,
		days:        days,
		host:        defaultCallbacks(),
		logger:      applog.Default(),
		doubleClick: DefaultDoubleClickWindow,
		snapshots:   make(map[string]*Snapshot),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.drag = &DragController{surface: s}
	return s
}

func (s *Surface) ID() string            { return s.id }
func (s *Surface) Interval() Interval    { return s.interval }
func (s *Surface) Days() int             { return s.days }
func (s *Surface) Drag() *DragController { return s.drag }
func (s *Surface) Rects() []Rect         { return s.rects }
func (s *Surface) Selected() *Snapshot   { return s.selected }
func (s *Surface) NeedsReload() bool     { return s.needsReload }
func (s *Surface) Snapshot(id string) *Snapshot {
	return s.snapshots[id]
}

// Passes counts completed layout passes.
func (s *Surface) Passes() int { return s.passes }

// Snapshots returns the snapshots in registration order.
func (s *Surface) Snapshots() []*Snapshot {
	out := make([]*Snapshot, len(s.ordered))
	copy(out, s.ordered)
	return out
}

// SetInterval replaces the displayed interval. Every derived position is discarded
// and the data source is asked again.
func (s *Surface) SetInterval(iv Interval, days int) error {
	if iv.Span() <= 0 {
		return ErrEmptyInterval
	}
	if days < 1 {
		days = 1
	}
	s.drag.Abort()
	s.interval = iv
	s.days = days
	s.releaseAll()
	return s.ReloadData()
}

// ReloadData fetches records from the data source and rebuilds every snapshot.
func (s *Surface) ReloadData() error {
	s.requestSeq++
	records, err := s.source.EventsBetween(s.interval.Start, s.interval.End)
	if err != nil {
		return fmt.Errorf("loading events for %s - %s: %w",
			s.interval.Start.Format(time.RFC3339), s.interval.End.Format(time.RFC3339), err)
	}
	s.setRecords(records)
	return nil
}

// Request is an asynchronous load. The host fetches records for Start-End on its
// own schedule and hands them back with Complete on the surface's goroutine.
type Request struct {
	Start   time.Time
	End     time.Time
	surface *Surface
	seq     int
	done    bool
}

// BeginRequest starts an asynchronous load and supersedes any earlier request.
func (s *Surface) BeginRequest() *Request {
	s.requestSeq++
	return &Request{
		Start:   s.interval.Start,
		End:     s.interval.End,
		surface: s,
		seq:     s.requestSeq,
	}
}

// Valid reports whether completing r would still be applied.
func (r *Request) Valid() bool {
	return !r.done && r.seq == r.surface.requestSeq
}

// Complete delivers the records. It returns false, and changes nothing, when the
// request was superseded or already completed.
func (r *Request) Complete(records []Record) bool {
	if !r.Valid() {
		r.surface.logger.Debug("dropping stale event request", "surface", r.surface.id, "seq", r.seq)
		return false
	}
	r.done = true
	r.surface.setRecords(records)
	return true
}

func (s *Surface) setRecords(records []Record) {
	s.drag.Abort()

	previous := s.snapshots
	selectedID := ""
	if s.selected != nil {
		selectedID = s.selected.ID()
	}

	s.snapshots = make(map[string]*Snapshot, len(records))
	s.ordered = s.ordered[:0]
	s.selected = nil

	for _, r := range records {
		id := r.ID()
		if _, dup := s.snapshots[id]; dup {
			s.logger.Warn("duplicate event id from data source", "surface", s.id, "id", id)
			continue
		}

		order := s.nextOrder
		if old, ok := previous[id]; ok {
			order = old.order
		} else {
			s.nextOrder++
		}

		snap := newSnapshot(r, s.id, order, s.interval, snapshotHooks{
			changed: s.snapshotChanged,
			stale:   s.snapshotStale,
			logger:  s.logger,
		})
		s.snapshots[id] = snap
		s.ordered = append(s.ordered, snap)
		if id == selectedID {
			s.selected = snap
		}
	}

	for _, old := range previous {
		old.release()
	}

	sortByOrder(s.ordered)
	s.needsReload = false
	s.Layout()
}

func sortByOrder(snaps []*Snapshot) {
	sort.SliceStable(snaps, func(i, j int) bool {
		return snaps[i].order < snaps[j].order
	})
}

func (s *Surface) releaseAll() {
	for _, snap := range s.ordered {
		snap.release()
	}
	s.snapshots = make(map[string]*Snapshot)
	s.ordered = nil
	s.groups = nil
	s.rects = nil
	s.selected = nil
	s.dragging = nil
}

// Close unregisters every observation. The surface must not be used afterwards.
func (s *Surface) Close() {
	s.drag.Abort()
	s.releaseAll()
	s.requestSeq++
}

// Layout runs a layout pass. Calls made while a pass is running are queued and run
// as separate passes once it finishes.
func (s *Surface) Layout() {
	s.pendingPasses++
	if s.inLayout {
		return
	}
	s.inLayout = true
	defer func() { s.inLayout = false }()

	for s.pendingPasses > 0 {
		s.pendingPasses--
		s.pass()
	}
}

// pass freezes every snapshot but the dragged one, so changes arriving while
// groups and rectangles are computed wait until the pass is over.
func (s *Surface) pass() {
	frozen := make([]*Snapshot, 0, len(s.ordered))
	for _, snap := range s.ordered {
		if snap == s.dragging || snap.Frozen() {
			continue
		}
		snap.Freeze()
		frozen = append(frozen, snap)
	}

	s.groups = ResolveDayConflicts(s.ordered, s.days)
	s.rects = s.buildRects()
	s.passes++
	s.host.geometry(s.rects)

	for _, snap := range frozen {
		snap.Unfreeze()
	}

	s.logger.Debug("layout pass", "surface", s.id, "snapshots", len(s.ordered), "groups", len(s.groups))
}

func (s *Surface) buildRects() []Rect {
	rects := make([]Rect, 0, len(s.ordered))
	for _, snap := range s.ordered {
		if !snap.Ready() {
			continue
		}
		day, top, ok := DaySplit(snap.relStart, s.days)
		if !ok {
			continue
		}
		bottom := float64(snap.relEnd)*float64(s.days) - float64(day)
		if bottom > 1 {
			bottom = 1
		}
		height := bottom - top
		if height < 0 {
			height = 0
		}
		rects = append(rects, Rect{
			Snapshot: snap,
			Day:      day,
			Top:      top,
			Height:   height,
			Column:   snap.conflictIndex,
			Columns:  snap.conflictSize,
			Tick:     snap.tick,
			Selected: snap == s.selected,
			Dragging: snap == s.dragging,
		})
	}
	return rects
}

// PositionInConflict returns the index of snap in its conflict group together with
// every member of the group, itself included, as of the last layout pass.
func (s *Surface) PositionInConflict(snap *Snapshot) (int, []*Snapshot) {
	for _, g := range s.groups {
		for _, member := range g {
			if member == snap {
				peers := make([]*Snapshot, len(g))
				copy(peers, g)
				return snap.conflictIndex, peers
			}
		}
	}
	return 0, nil
}

func (s *Surface) Select(snap *Snapshot) {
	if snap == s.selected {
		return
	}
	s.selected = snap
	s.host.selected(snap.Record())
	s.Layout()
}

func (s *Surface) ClearSelection() {
	if s.selected == nil {
		return
	}
	s.selected = nil
	s.host.cleared()
	s.Layout()
}

func (s *Surface) snapshotChanged(*Snapshot) {
	s.Layout()
}

func (s *Surface) snapshotStale(snap *Snapshot) {
	s.logger.Debug("event left displayed interval", "surface", s.id, "id", snap.ID())
	if s.needsReload {
		return
	}
	s.needsReload = true
	s.host.reloadRequested()
}
