package event

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

var (
	ErrNotFound    = errors.New("event not found")
	ErrReadOnly    = errors.New("event source is read-only")
	ErrUnsupported = errors.New("unsupported event file type")
)

// Source is anything that can provide events for a window.
type Source interface {
	// Name identifies the source; events carry it in Event.Source.
	Name() string
	// GetEvents returns fresh, unobserved events intersecting [start, end].
	GetEvents(start, end time.Time) ([]*Event, error)
	// WatchFiles returns a channel that sends updates when backing files change.
	// Returns nil if watching is not supported.
	WatchFiles() (<-chan FileChangeEvent, error)
	// StopWatching stops any file watching.
	StopWatching() error
}

// Writer is implemented by sources that accept edits.
type Writer interface {
	Save(e *Event) error
	Delete(id string) error
}

// FileChangeEvent represents a change to a source file
type FileChangeEvent struct {
	Path      string
	Timestamp time.Time
}

// OpenSource picks a source implementation by file extension.
func OpenSource(path string) (Source, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return NewYAMLStore(path), nil
	case ".db", ".sqlite", ".sqlite3":
		return NewSQLiteStore(path)
	case ".ics", ".ical":
		return NewICSSource(path), nil
	default:
		return nil, fmt.Errorf("%s: %w", path, ErrUnsupported)
	}
}

// inWindow filters events to those intersecting [start, end] and sorts them.
func inWindow(events []*Event, start, end time.Time) []*Event {
	out := make([]*Event, 0, len(events))
	for _, e := range events {
		if e.Overlaps(start, end) {
			out = append(out, e)
		}
	}
	sortEvents(out)
	return out
}

func sortEvents(events []*Event) {
	sort.SliceStable(events, func(i, j int) bool {
		if !events[i].start.Equal(events[j].start) {
			return events[i].start.Before(events[j].start)
		}
		return events[i].id < events[j].id
	})
}
