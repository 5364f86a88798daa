package event

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const testCalendar = `BEGIN:VCALENDAR
VERSION:2.0
PRODID:-//skuld//test//EN
BEGIN:VEVENT
UID:single@example.com
DTSTAMP:20250801T000000Z
DTSTART:20250825T130000Z
DTEND:20250825T134500Z
SUMMARY:Lunch
DESCRIPTION:Noodles
CATEGORIES:food, social
END:VEVENT
BEGIN:VEVENT
UID:daily@example.com
DTSTAMP:20250801T000000Z
DTSTART:20250825T090000Z
DTEND:20250825T093000Z
SUMMARY:Standup
RRULE:FREQ=DAILY;COUNT=5
EXDATE:20250827T090000Z
END:VEVENT
BEGIN:VEVENT
UID:daily@example.com
DTSTAMP:20250801T000000Z
RECURRENCE-ID:20250828T090000Z
DTSTART:20250828T140000Z
DTEND:20250828T150000Z
SUMMARY:Standup (moved)
END:VEVENT
BEGIN:VEVENT
UID:holiday@example.com
DTSTAMP:20250801T000000Z
DTSTART;VALUE=DATE:20250826
DTEND;VALUE=DATE:20250827
SUMMARY:Holiday
END:VEVENT
BEGIN:VEVENT
DTSTAMP:20250801T000000Z
DTSTART:20250825T100000Z
SUMMARY:No UID
END:VEVENT
END:VCALENDAR
`

func writeCalendar(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "calendar.ics")
	content := strings.ReplaceAll(testCalendar, "\n", "\r\n")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestICSSourceExpandsRecurrences(t *testing.T) {
	src := NewICSSource(writeCalendar(t))
	events, err := src.GetEvents(day, day.AddDate(0, 0, 7))
	if err != nil {
		t.Fatalf("GetEvents: %v", err)
	}

	type want struct {
		title string
		start time.Time
		min   int
	}
	expected := []want{
		{"Standup", at(9, 0), 30},
		{"Lunch", at(13, 0), 45},
		{"Standup", at(9, 0).AddDate(0, 0, 1), 30},
		{"Standup (moved)", at(14, 0).AddDate(0, 0, 3), 60},
		{"Standup", at(9, 0).AddDate(0, 0, 4), 30},
	}

	if len(events) != len(expected) {
		for _, e := range events {
			t.Logf("%s %v", e.Title(), e.ScheduledTime())
		}
		t.Fatalf("got %d events, want %d", len(events), len(expected))
	}
	for i, w := range expected {
		e := events[i]
		if e.Title() != w.title || !e.ScheduledTime().Equal(w.start) || e.DurationMinutes() != w.min {
			t.Errorf("event %d = %q %v %d, want %q %v %d", i,
				e.Title(), e.ScheduledTime(), e.DurationMinutes(), w.title, w.start, w.min)
		}
		if !e.ReadOnly {
			t.Errorf("event %d is writable", i)
		}
	}

	ids := make(map[string]bool)
	for _, e := range events {
		if ids[e.ID()] {
			t.Errorf("duplicate id %s", e.ID())
		}
		ids[e.ID()] = true
	}

	if events[1].Notes != "Noodles" || strings.Join(events[1].Tags, ",") != "food,social" {
		t.Errorf("lunch metadata: notes=%q tags=%v", events[1].Notes, events[1].Tags)
	}
}

func TestICSSourceWindow(t *testing.T) {
	src := NewICSSource(writeCalendar(t))
	events, err := src.GetEvents(day.AddDate(0, 0, 1), day.AddDate(0, 0, 2))
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 1 || events[0].Title() != "Standup" {
		t.Errorf("got %d events for one day", len(events))
	}
}

func TestICSSourceMissingFile(t *testing.T) {
	src := NewICSSource(filepath.Join(t.TempDir(), "missing.ics"))
	if _, err := src.GetEvents(day, day.AddDate(0, 0, 1)); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestICSSourceIsNotWriter(t *testing.T) {
	var src Source = NewICSSource("x.ics")
	if _, ok := src.(Writer); ok {
		t.Error("ICS source must not accept writes")
	}
}

func TestParseICSTime(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skip("no tzdata")
	}
	tests := []struct {
		in   string
		loc  *time.Location
		want time.Time
	}{
		{"20250825T090000Z", time.UTC, time.Date(2025, 8, 25, 9, 0, 0, 0, time.UTC)},
		{"20250825T090000", ny, time.Date(2025, 8, 25, 9, 0, 0, 0, ny)},
		{"20250825", ny, time.Date(2025, 8, 25, 0, 0, 0, 0, ny)},
	}
	for _, tt := range tests {
		got, err := parseICSTime(tt.in, tt.loc)
		if err != nil || !got.Equal(tt.want) {
			t.Errorf("parseICSTime(%q) = %v, %v; want %v", tt.in, got, err, tt.want)
		}
	}
	if _, err := parseICSTime(" ", time.UTC); err == nil {
		t.Error("expected error for empty value")
	}
}
