package ui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/cwarden/skuld/internal/event"
	"github.com/cwarden/skuld/internal/schedule"
)

// defaultMinutes is the length of an added event that names no end.
const defaultMinutes = 60

func (m *Model) handleKeyPress(msg tea.KeyMsg) tea.Cmd {
	if msg.Type == tea.KeyCtrlC {
		m.quitting = true
		return nil
	}

	switch m.mode {
	case ViewPrompt:
		return m.handlePromptKeys(msg)
	case ViewDetails, ViewHelp:
		m.mode = ViewGrid
		return nil
	}

	key := msg.String()
	action := m.config.ActionForKey(key)

	// Fixed aliases next to the configurable bindings.
	if action == "" {
		switch key {
		case "right":
			action = "next_day"
		case "left":
			action = "prev_day"
		case "J", "pgdown":
			action = "next_week"
		case "K", "pgup":
			action = "prev_week"
		case "enter":
			action = "details"
		case "?":
			action = "help"
		}
	}

	switch action {
	case "quit":
		m.quitting = true

	case "abort":
		if m.surface.Drag().State() != schedule.DragIdle {
			m.surface.Drag().Abort()
			m.showMessage("Drag cancelled")
		} else {
			m.surface.ClearSelection()
		}

	case "today":
		return m.goTo(m.homeDate())

	case "refresh":
		m.showMessage("Refreshing")
		return m.requestLoad()

	case "next_day":
		return m.shiftDays(1)

	case "prev_day":
		return m.shiftDays(-1)

	case "next_week":
		return m.shiftDays(7)

	case "prev_week":
		return m.shiftDays(-7)

	case "goto_date":
		m.openPrompt(promptGoto, "")

	case "new_event":
		m.openPrompt(promptAdd, m.date.Format("2006-01-02")+" ")

	case "delete":
		m.deleteSelected()

	case "details":
		if snap := m.surface.Selected(); snap != nil {
			m.EventDoubleClicked(snap.Record())
		}

	case "toggle_ids":
		m.showEventIDs = !m.showEventIDs
		if m.showEventIDs {
			m.showMessage("Showing event IDs")
		} else {
			m.showMessage("Hiding event IDs")
		}

	case "help":
		m.mode = ViewHelp
	}

	return nil
}

func (m *Model) deleteSelected() {
	snap := m.surface.Selected()
	if snap == nil {
		m.showMessage("Nothing selected")
		return
	}
	if m.config.ReadOnly {
		m.showMessage("Read-only mode")
		return
	}
	title := snap.Title()
	if err := m.catalog.Remove(snap.ID()); err != nil {
		m.showError("delete", err)
		return
	}
	if err := m.surface.ReloadData(); err != nil {
		m.showError("reload", err)
		return
	}
	m.showMessage(fmt.Sprintf("Deleted %q", title))
}

func (m *Model) openPrompt(kind promptKind, text string) {
	m.mode = ViewPrompt
	m.prompt = kind
	m.inputBuffer = text
	m.cursorPos = len([]rune(text))
}

func (m *Model) handlePromptKeys(msg tea.KeyMsg) tea.Cmd {
	input := []rune(m.inputBuffer)

	switch msg.Type {
	case tea.KeyEscape:
		m.mode = ViewGrid
		return nil

	case tea.KeyEnter:
		m.mode = ViewGrid
		if m.prompt == promptGoto {
			return m.submitGoto(m.inputBuffer)
		}
		m.submitAdd(m.inputBuffer)
		return nil

	case tea.KeyBackspace:
		if m.cursorPos > 0 {
			input = append(input[:m.cursorPos-1], input[m.cursorPos:]...)
			m.cursorPos--
		}

	case tea.KeyLeft:
		if m.cursorPos > 0 {
			m.cursorPos--
		}

	case tea.KeyRight:
		if m.cursorPos < len(input) {
			m.cursorPos++
		}

	case tea.KeyHome, tea.KeyCtrlA:
		m.cursorPos = 0

	case tea.KeyEnd, tea.KeyCtrlE:
		m.cursorPos = len(input)

	case tea.KeySpace:
		input = insertRunes(input, m.cursorPos, []rune{' '})
		m.cursorPos++

	case tea.KeyRunes:
		input = insertRunes(input, m.cursorPos, msg.Runes)
		m.cursorPos += len(msg.Runes)
	}

	m.inputBuffer = string(input)
	return nil
}

func insertRunes(s []rune, at int, r []rune) []rune {
	out := make([]rune, 0, len(s)+len(r))
	out = append(out, s[:at]...)
	out = append(out, r...)
	return append(out, s[at:]...)
}

func (m *Model) submitGoto(input string) tea.Cmd {
	m.parser.SetNow(m.now())
	date, err := m.parser.ParseDate(input)
	if err != nil {
		m.showMessage(fmt.Sprintf("Parse error: %v", err))
		return nil
	}
	return m.goTo(date)
}

// submitAdd creates an event from a quick-add line such as
// "tomorrow 2pm-3pm standup".
func (m *Model) submitAdd(input string) {
	if m.config.ReadOnly {
		m.showMessage("Read-only mode")
		return
	}

	m.parser.SetNow(m.now())
	parsed, err := m.parser.Parse(input)
	if err != nil {
		m.showMessage(fmt.Sprintf("Parse error: %v", err))
		return
	}
	if parsed.Text == "" {
		m.showMessage("Event needs a title")
		return
	}

	start, minutes := parsed.Span(m.config.DayStart, defaultMinutes)
	e := event.New(parsed.Text, start, minutes)

	target := m.catalog.DefaultWriter()
	if target == "" {
		m.showError("add", fmt.Errorf("no writable event file: %w", event.ErrReadOnly))
		return
	}
	if err := m.catalog.Add(e, target); err != nil {
		m.showError("add", err)
		return
	}

	if iv := m.surface.Interval(); !iv.Contains(start) {
		m.showMessage(fmt.Sprintf("Added %q on %s", e.Title(), start.Format(m.config.DateFormat)))
		return
	}
	if err := m.surface.ReloadData(); err != nil {
		m.showError("reload", err)
		return
	}
	m.showMessage(fmt.Sprintf("Added %q: %s", e.Title(), m.formatSpan(start, e.DurationMinutes())))
}

// handleMouse turns button presses, motion and releases into drag sessions.
// The wheel pages through days.
func (m *Model) handleMouse(msg tea.MouseMsg) tea.Cmd {
	if m.mode != ViewGrid {
		if msg.Action == tea.MouseActionPress {
			m.mode = ViewGrid
		}
		return nil
	}

	g := m.grid()
	drag := m.surface.Drag()

	switch msg.Action {
	case tea.MouseActionPress:
		switch msg.Button {
		case tea.MouseButtonWheelUp:
			return m.shiftDays(-1)
		case tea.MouseButtonWheelDown:
			return m.shiftDays(1)
		case tea.MouseButtonLeft:
		default:
			return nil
		}

		day, row, inside := g.cell(msg.X, msg.Y)
		if !inside {
			return nil
		}
		var (
			target   *schedule.Snapshot
			onHandle bool
		)
		if b, ok := hit(g.blocks(m.surface.Rects()), msg.X, msg.Y); ok {
			target = b.rect.Snapshot
			onHandle = b.onHandle(msg.X, msg.Y)
		}
		drag.Press(g.position(day, row, false), target, onHandle, m.now())

	case tea.MouseActionMotion:
		if drag.State() == schedule.DragIdle {
			return nil
		}
		day, row, _ := g.cell(msg.X, msg.Y)
		drag.Move(g.position(day, row, drag.State() == schedule.DragResizing))

	case tea.MouseActionRelease:
		drag.Release()
	}
	return nil
}
