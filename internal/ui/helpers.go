package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss/v2"
	"github.com/mattn/go-runewidth"
	"github.com/muesli/reflow/wordwrap"

	"github.com/cwarden/skuld/internal/event"
	"github.com/cwarden/skuld/internal/schedule"
)

// blockStyle picks the style of an event block. An owner color replaces the
// default background of ordinary blocks.
func (m *Model) blockStyle(r schedule.Rect) lipgloss.Style {
	switch {
	case r.Dragging:
		return m.styles.Dragging
	case r.Selected:
		return m.styles.Selected
	}
	rec := r.Snapshot.Record()
	if e, ok := rec.(*event.Event); ok && (e.ReadOnly || !m.catalog.Writable(e)) {
		return m.styles.ReadOnly
	}
	if cs, ok := rec.(schedule.ColorSource); ok && cs.OwnerColor() != "" {
		return m.styles.Event.Background(lipgloss.Color(cs.OwnerColor()))
	}
	return m.styles.Event
}

// blockTimes is the span a block shows: the drag's tentative values while it is
// being dragged, the snapshot's otherwise.
func (m *Model) blockTimes(r schedule.Rect) (time.Time, int) {
	drag := m.surface.Drag()
	if r.Dragging && drag.Target() == r.Snapshot {
		return drag.CurrentTime(), drag.CurrentDuration()
	}
	return r.Snapshot.ScheduledTime(), r.Snapshot.DurationMinutes()
}

// blockLines fits the label of b into its cells. A one-row block gets the start
// time and title on one line; taller blocks put the span on the first line.
func (m *Model) blockLines(b block) []string {
	start, minutes := m.blockTimes(b.rect)
	end := start.Add(time.Duration(minutes) * time.Minute)
	tf := m.config.TimeFormat

	title := b.rect.Snapshot.Title()
	if m.showEventIDs {
		title = fmt.Sprintf("[%s] %s", b.rect.Snapshot.ID(), title)
	}
	if b.clipped {
		title = "↑ " + title
	}

	var lines []string
	if b.h == 1 {
		lines = []string{start.Format(tf) + " " + title}
	} else {
		lines = append(lines, start.Format(tf)+"-"+end.Format(tf))
		wrapped := wordwrap.String(title, b.w)
		lines = append(lines, strings.Split(wrapped, "\n")...)
	}

	if len(lines) > b.h {
		lines = lines[:b.h]
	}
	for i, line := range lines {
		lines[i] = runewidth.Truncate(line, b.w, "…")
	}
	return lines
}

func formatMinutes(minutes int) string {
	hours, rest := minutes/60, minutes%60
	switch {
	case hours > 0 && rest > 0:
		return fmt.Sprintf("%dh %dm", hours, rest)
	case hours > 0:
		return fmt.Sprintf("%dh", hours)
	default:
		return fmt.Sprintf("%dm", rest)
	}
}

func sameDay(a, b time.Time) bool {
	return a.Year() == b.Year() && a.YearDay() == b.YearDay()
}

// renderMiniCalendar renders the month of the first displayed day with the
// displayed days marked.
func (m *Model) renderMiniCalendar() string {
	var lines []string

	lines = append(lines, m.styles.Header.Render(m.date.Format("January 2006")))

	weekStart := m.config.WeekStartDay
	var names []string
	for i := 0; i < 7; i++ {
		names = append(names, time.Weekday((int(weekStart)+i)%7).String()[:2])
	}
	lines = append(lines, strings.Join(names, " "))

	firstDay := time.Date(m.date.Year(), m.date.Month(), 1, 0, 0, 0, 0, m.date.Location())
	day := m.config.WeekStart(firstDay)
	shownEnd := m.date.AddDate(0, 0, m.surface.Days())
	today := m.now()

	for week := 0; week < 6; week++ {
		var cells []string
		for weekday := 0; weekday < 7; weekday++ {
			dayStr := fmt.Sprintf("%2d", day.Day())
			shown := !day.Before(m.date) && day.Before(shownEnd)

			switch {
			case day.Month() != m.date.Month():
				dayStr = m.styles.Help.Render(dayStr)
			case sameDay(day, today):
				dayStr = m.styles.Today.Render(dayStr)
			case shown:
				dayStr = m.styles.Selected.Render(dayStr)
			case day.Weekday() == time.Saturday || day.Weekday() == time.Sunday:
				dayStr = m.styles.Weekend.Render(dayStr)
			default:
				dayStr = m.styles.Normal.Render(dayStr)
			}
			cells = append(cells, dayStr)
			day = day.AddDate(0, 0, 1)
		}
		lines = append(lines, strings.Join(cells, " "))

		if day.Month() != m.date.Month() && week > 3 {
			break
		}
	}

	return m.styles.Border.Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

// eventSummary describes e in lines no wider than width.
func (m *Model) eventSummary(e *event.Event, width int, withNotes bool) []string {
	if width < 10 {
		width = 10
	}
	wrap := func(s string) []string {
		return strings.Split(wordwrap.String(s, width), "\n")
	}

	var lines []string
	lines = append(lines, wrap(m.styles.Header.Render(e.Title()))...)
	lines = append(lines, m.styles.Normal.Render(m.formatSpan(e.ScheduledTime(), e.DurationMinutes())))
	lines = append(lines, m.styles.Help.Render(formatMinutes(e.DurationMinutes())))

	if m.showEventIDs {
		lines = append(lines, m.styles.Help.Render("ID: "+runewidth.Truncate(e.ID(), width-4, "…")))
	}
	if len(e.Tags) > 0 {
		lines = append(lines, wrap(m.styles.Help.Render("Tags: "+strings.Join(e.Tags, ", ")))...)
	}
	if e.Source != "" {
		lines = append(lines, m.styles.Help.Render(runewidth.Truncate(e.Source, width, "…")))
	}
	if e.ReadOnly || !m.catalog.Writable(e) {
		lines = append(lines, m.styles.Help.Render("(read-only)"))
	}
	if withNotes && e.Notes != "" {
		lines = append(lines, "")
		for _, line := range strings.Split(e.Notes, "\n") {
			lines = append(lines, wrap(line)...)
		}
	}
	return lines
}

// selectedEvent is the catalog event behind the surface selection.
func (m *Model) selectedEvent() (*event.Event, bool) {
	snap := m.surface.Selected()
	if snap == nil {
		return nil, false
	}
	e, ok := snap.Record().(*event.Event)
	return e, ok
}
