package event

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// writableStore is what the YAML and SQLite stores have in common.
type writableStore interface {
	Source
	Writer
}

var storeFactories = map[string]func(t *testing.T) writableStore{
	"yaml": func(t *testing.T) writableStore {
		return NewYAMLStore(filepath.Join(t.TempDir(), "events.yaml"))
	},
	"sqlite": func(t *testing.T) writableStore {
		s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "events.db"))
		if err != nil {
			t.Fatalf("NewSQLiteStore: %v", err)
		}
		t.Cleanup(func() { s.Close() })
		return s
	},
}

func TestStoresRoundTrip(t *testing.T) {
	for name, factory := range storeFactories {
		t.Run(name, func(t *testing.T) {
			s := factory(t)

			events, err := s.GetEvents(day, day.AddDate(0, 0, 1))
			if err != nil {
				t.Fatalf("GetEvents on empty store: %v", err)
			}
			if len(events) != 0 {
				t.Fatalf("empty store returned %d events", len(events))
			}

			standup := NewWithID("a", "Standup", at(9, 30), 15)
			standup.Tags = []string{"work", "daily"}
			standup.Notes = "room 4"
			review := NewWithID("b", "Review", at(14, 0), 60)
			tomorrow := NewWithID("c", "Tomorrow", at(9, 0).AddDate(0, 0, 1).Add(time.Hour), 30)

			for _, e := range []*Event{review, standup, tomorrow} {
				if err := s.Save(e); err != nil {
					t.Fatalf("Save(%s): %v", e.ID(), err)
				}
			}

			events, err = s.GetEvents(day, day.AddDate(0, 0, 1))
			if err != nil {
				t.Fatalf("GetEvents: %v", err)
			}
			if len(events) != 2 {
				t.Fatalf("got %d events, want 2", len(events))
			}
			got := events[0]
			if got.ID() != "a" || got.Title() != "Standup" || got.DurationMinutes() != 15 {
				t.Errorf("first event = %s %q %d", got.ID(), got.Title(), got.DurationMinutes())
			}
			if !got.ScheduledTime().Equal(at(9, 30)) {
				t.Errorf("start = %v, want %v", got.ScheduledTime(), at(9, 30))
			}
			if strings.Join(got.Tags, ",") != "work,daily" || got.Notes != "room 4" {
				t.Errorf("metadata lost: tags=%v notes=%q", got.Tags, got.Notes)
			}
			if got.Source != s.Name() {
				t.Errorf("Source = %q, want %q", got.Source, s.Name())
			}

			standup.SetScheduledTime(at(10, 0))
			standup.SetDurationMinutes(45)
			if err := s.Save(standup); err != nil {
				t.Fatalf("Save update: %v", err)
			}
			events, _ = s.GetEvents(day, day.AddDate(0, 0, 1))
			if len(events) != 2 || !events[0].ScheduledTime().Equal(at(10, 0)) || events[0].DurationMinutes() != 45 {
				t.Errorf("update not stored: %v", events)
			}

			if err := s.Delete("b"); err != nil {
				t.Fatalf("Delete: %v", err)
			}
			if err := s.Delete("b"); !errors.Is(err, ErrNotFound) {
				t.Errorf("second Delete = %v, want ErrNotFound", err)
			}
			events, _ = s.GetEvents(day, day.AddDate(0, 0, 1))
			if len(events) != 1 {
				t.Errorf("got %d events after delete, want 1", len(events))
			}
		})
	}
}

func TestStoresIncludeEventsRunningIntoWindow(t *testing.T) {
	for name, factory := range storeFactories {
		t.Run(name, func(t *testing.T) {
			s := factory(t)
			late := NewWithID("late", "Late", at(23, 0).AddDate(0, 0, -1), 120)
			if err := s.Save(late); err != nil {
				t.Fatal(err)
			}
			events, err := s.GetEvents(day, day.AddDate(0, 0, 1))
			if err != nil {
				t.Fatal(err)
			}
			if len(events) != 1 || events[0].ID() != "late" {
				t.Errorf("event crossing midnight not returned: %v", events)
			}
		})
	}
}

func TestYAMLStoreBadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.yaml")
	if err := os.WriteFile(path, []byte("events: [unclosed"), 0o644); err != nil {
		t.Fatal(err)
	}
	s := NewYAMLStore(path)
	if _, err := s.GetEvents(day, day.AddDate(0, 0, 1)); err == nil {
		t.Error("expected parse error")
	}
	if err := s.Save(New("x", at(9, 0), 30)); err == nil {
		t.Error("Save over an unparsable file should fail")
	}
}

func TestYAMLStoreReadsHandWrittenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.yml")
	content := `events:
  - id: one
    title: Dentist
    start: 2025-08-25T15:00:00Z
    minutes: 45
    color: "#ff8800"
  - title: no id, ignored
    start: 2025-08-25T16:00:00Z
    minutes: 10
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	events, err := NewYAMLStore(path).GetEvents(day, day.AddDate(0, 0, 1))
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 1 {
		t.Fatalf("got %d events, want 1", len(events))
	}
	if events[0].Title() != "Dentist" || events[0].OwnerColor() != "#ff8800" || !events[0].ScheduledTime().Equal(at(15, 0)) {
		t.Errorf("unexpected event %q %q %v", events[0].Title(), events[0].OwnerColor(), events[0].ScheduledTime())
	}
}

func TestOpenSource(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		file    string
		want    string
		wantErr error
	}{
		{"a.yaml", "*event.YAMLStore", nil},
		{"a.YML", "*event.YAMLStore", nil},
		{"a.db", "*event.SQLiteStore", nil},
		{"a.ics", "*event.ICSSource", nil},
		{"a.txt", "", ErrUnsupported},
	}
	for _, tt := range tests {
		t.Run(tt.file, func(t *testing.T) {
			src, err := OpenSource(filepath.Join(dir, tt.file))
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("err = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if got := fmt.Sprintf("%T", src); got != tt.want {
				t.Errorf("OpenSource(%s) = %s, want %s", tt.file, got, tt.want)
			}
			if c, ok := src.(interface{ Close() error }); ok {
				c.Close()
			}
		})
	}
}
