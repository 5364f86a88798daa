package event

import (
	"errors"
	"fmt"
	"time"

	applog "github.com/cwarden/skuld/internal/log"
	"github.com/cwarden/skuld/internal/schedule"
)

// MergeResult counts what a Merge did to the catalog.
type MergeResult struct {
	Added   int
	Updated int
	Removed int
}

// Structural reports whether events appeared or disappeared. Updates alone are
// delivered to observers and need no reload.
func (r MergeResult) Structural() bool {
	return r.Added > 0 || r.Removed > 0
}

// Catalog owns the live events of the displayed window. Surfaces observe its
// events; Merge applies fresh source data to them through their setters so that
// external edits reach every observer.
//
// A Catalog is not safe for concurrent use. Load may run on any goroutine; every
// other method must run on the goroutine that owns the surfaces.
type Catalog struct {
	source *CompositeSource
	events map[string]*Event
	start  time.Time
	end    time.Time
}

func NewCatalog(sources ...Source) *Catalog {
	return &Catalog{
		source: NewCompositeSource(sources...),
		events: make(map[string]*Event),
	}
}

// Source exposes the combined source, mainly for watching.
func (c *Catalog) Source() *CompositeSource { return c.source }

// Load fetches fresh events without touching the catalog.
func (c *Catalog) Load(start, end time.Time) ([]*Event, error) {
	return c.source.GetEvents(start, end)
}

// Refresh loads [start, end] and merges the result. A partial failure still
// merges the sources that loaded and returns the *LoadError.
func (c *Catalog) Refresh(start, end time.Time) (MergeResult, error) {
	fresh, err := c.Load(start, end)
	var loadErr *LoadError
	if err != nil && !errors.As(err, &loadErr) {
		return MergeResult{}, err
	}
	return c.Merge(start, end, fresh, loadErr), err
}

// Merge makes the catalog hold exactly fresh for [start, end]. Existing events
// are updated in place; events of sources listed in failed are kept as they were.
func (c *Catalog) Merge(start, end time.Time, fresh []*Event, failed *LoadError) MergeResult {
	var res MergeResult
	seen := make(map[string]bool, len(fresh))

	for _, f := range fresh {
		seen[f.ID()] = true
		if e, ok := c.events[f.ID()]; ok {
			if e.update(f) {
				res.Updated++
			}
			continue
		}
		c.events[f.ID()] = f
		res.Added++
	}

	for id, e := range c.events {
		if seen[id] {
			continue
		}
		if failed != nil {
			if _, skip := failed.Failed[e.Source]; skip {
				continue
			}
		}
		delete(c.events, id)
		res.Removed++
	}

	c.start, c.end = start, end
	applog.Debug("catalog merged", "added", res.Added, "updated", res.Updated, "removed", res.Removed)
	return res
}

// Window is the range of the last merge.
func (c *Catalog) Window() (time.Time, time.Time) { return c.start, c.end }

func (c *Catalog) Len() int { return len(c.events) }

func (c *Catalog) Get(id string) (*Event, bool) {
	e, ok := c.events[id]
	return e, ok
}

// Events returns the live events intersecting [start, end], ordered by start.
func (c *Catalog) Events(start, end time.Time) []*Event {
	all := make([]*Event, 0, len(c.events))
	for _, e := range c.events {
		all = append(all, e)
	}
	return inWindow(all, start, end)
}

// EventsBetween serves a surface from memory.
func (c *Catalog) EventsBetween(start, end time.Time) ([]schedule.Record, error) {
	events := c.Events(start, end)
	records := make([]schedule.Record, len(events))
	for i, e := range events {
		records[i] = e
	}
	return records, nil
}

// Writable reports whether e may be edited.
func (c *Catalog) Writable(e *Event) bool {
	if e.ReadOnly {
		return false
	}
	_, err := c.writer(e.Source)
	return err == nil
}

// Persist writes e back to the source it came from.
func (c *Catalog) Persist(e *Event) error {
	if e.ReadOnly {
		return fmt.Errorf("%s: %w", e.Title(), ErrReadOnly)
	}
	w, err := c.writer(e.Source)
	if err != nil {
		return err
	}
	if err := w.Save(e); err != nil {
		return fmt.Errorf("saving %q: %w", e.Title(), err)
	}
	applog.Info("event saved", "id", e.ID(), "source", e.Source)
	return nil
}

// Add saves a new event into the named source and adds it to the catalog.
func (c *Catalog) Add(e *Event, sourceName string) error {
	w, err := c.writer(sourceName)
	if err != nil {
		return err
	}
	e.Source = sourceName
	if err := w.Save(e); err != nil {
		return fmt.Errorf("saving %q: %w", e.Title(), err)
	}
	c.events[e.ID()] = e
	applog.Info("event added", "id", e.ID(), "source", sourceName)
	return nil
}

// Remove deletes an event from its source and from the catalog.
func (c *Catalog) Remove(id string) error {
	e, ok := c.events[id]
	if !ok {
		return fmt.Errorf("%s: %w", id, ErrNotFound)
	}
	if e.ReadOnly {
		return fmt.Errorf("%s: %w", e.Title(), ErrReadOnly)
	}
	w, err := c.writer(e.Source)
	if err != nil {
		return err
	}
	if err := w.Delete(id); err != nil {
		return err
	}
	delete(c.events, id)
	return nil
}

// DefaultWriter names the first writable source, or "" when there is none.
func (c *Catalog) DefaultWriter() string {
	for _, s := range c.source.Sources() {
		if _, ok := s.(Writer); ok {
			return s.Name()
		}
	}
	return ""
}

func (c *Catalog) writer(name string) (Writer, error) {
	s, ok := c.source.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("source %q: %w", name, ErrNotFound)
	}
	w, ok := s.(Writer)
	if !ok {
		return nil, fmt.Errorf("source %q: %w", name, ErrReadOnly)
	}
	return w, nil
}

// Close stops watching and releases sources that hold resources.
func (c *Catalog) Close() error {
	err := c.source.StopWatching()
	for _, s := range c.source.Sources() {
		if closer, ok := s.(interface{ Close() error }); ok {
			if cerr := closer.Close(); cerr != nil && err == nil {
				err = cerr
			}
		}
	}
	return err
}
