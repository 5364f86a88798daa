package ui

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss/v2"
	"github.com/mattn/go-runewidth"

	"github.com/cwarden/skuld/internal/schedule"
)

// Layer depths, bottom to top.
const (
	zGrid     = 0
	zNow      = 1
	zEvents   = 10
	zDragging = 900
	zSidebar  = 1000
	zStatus   = 2000
	zOverlay  = 3000
)

// renderCanvasView renders the entire screen using a lipgloss Canvas
func (m *Model) renderCanvasView() string {
	g := m.grid()

	var layers []*lipgloss.Layer
	layers = append(layers, m.createHeaderLayers(g)...)
	layers = append(layers, m.createGridLayer(g))
	layers = append(layers, m.createNowLayers(g)...)
	layers = append(layers, m.createEventBlockLayers(g)...)

	if w := m.sidebarWidth(); w > 0 {
		layers = append(layers, m.createSidebarLayer(g.width()+1, w-1))
	}

	layers = append(layers, m.createStatusBarLayers()...)

	switch m.mode {
	case ViewDetails:
		if m.details != nil {
			layers = append(layers, m.createOverlayLayer(m.eventSummary(m.details, m.overlayWidth(), true)))
		}
	case ViewHelp:
		layers = append(layers, m.createOverlayLayer(m.helpLines()))
	}

	return lipgloss.NewCanvas(layers...).Render()
}

// createHeaderLayers labels every day column.
func (m *Model) createHeaderLayers(g grid) []*lipgloss.Layer {
	var layers []*lipgloss.Layer
	now := m.now()

	for day := 0; day < g.days; day++ {
		date := m.date.AddDate(0, 0, day)
		label := runewidth.Truncate(date.Format(m.config.DateFormat), g.colWidth-1, "")

		style := m.styles.Header
		switch {
		case sameDay(date, now):
			style = m.styles.Today
		case date.Weekday() == time.Saturday || date.Weekday() == time.Sunday:
			style = m.styles.Weekend
		}
		layers = append(layers, lipgloss.NewLayer(style.Render(label)).X(g.colX(day)+1).Y(0).Z(zGrid))
	}
	return layers
}

// createGridLayer draws the time labels and the day separators.
func (m *Model) createGridLayer(g grid) *lipgloss.Layer {
	sep := m.styles.Grid.Render("│")
	blank := strings.Repeat(" ", g.colWidth-1)

	lines := make([]string, g.rows)
	for row := 0; row < g.rows; row++ {
		minute := g.rowMinute(row)
		label := strings.Repeat(" ", g.timeWidth)
		if minute%60 == 0 || g.step >= 60 {
			t := time.Date(2000, 1, 1, minute/60, minute%60, 0, 0, time.UTC)
			label = runewidth.FillRight(t.Format(m.config.TimeFormat), g.timeWidth)
		}

		var b strings.Builder
		b.WriteString(m.styles.Normal.Render(label))
		for day := 0; day < g.days; day++ {
			b.WriteString(sep)
			b.WriteString(blank)
		}
		lines[row] = b.String()
	}
	return lipgloss.NewLayer(strings.Join(lines, "\n")).X(0).Y(g.top).Z(zGrid)
}

// createNowLayers marks the current time when it is on screen.
func (m *Model) createNowLayers(g grid) []*lipgloss.Layer {
	now := m.now()
	iv := m.surface.Interval()
	if !iv.Contains(now) {
		return nil
	}
	day, within, ok := schedule.DaySplit(schedule.ToRelative(now, iv), g.days)
	if !ok {
		return nil
	}
	row := int(g.rowOf(within))
	if row < 0 || row >= g.rows {
		return nil
	}

	line := m.styles.Now.Render(strings.Repeat("─", g.colWidth-1))
	label := m.styles.Now.Render(runewidth.FillRight(now.Format(m.config.TimeFormat), g.timeWidth))
	return []*lipgloss.Layer{
		lipgloss.NewLayer(line).X(g.colX(day) + 1).Y(g.top + row).Z(zNow),
		lipgloss.NewLayer(label).X(0).Y(g.top + row).Z(zNow),
	}
}

// createEventBlockLayers creates one layer per laid-out event.
func (m *Model) createEventBlockLayers(g grid) []*lipgloss.Layer {
	var layers []*lipgloss.Layer

	for i, b := range g.blocks(m.surface.Rects()) {
		lines := m.blockLines(b)
		content := m.blockStyle(b.rect).
			Width(b.w).
			Height(b.h).
			MaxHeight(b.h).
			Render(strings.Join(lines, "\n"))

		z := zEvents + i
		if b.rect.Dragging {
			z = zDragging
		}
		layers = append(layers, lipgloss.NewLayer(content).X(b.x).Y(b.y).Z(z))
	}
	return layers
}

// createSidebarLayer shows the month and the selected event.
func (m *Model) createSidebarLayer(xOffset, width int) *lipgloss.Layer {
	var lines []string

	lines = append(lines, m.renderMiniCalendar())
	lines = append(lines, "")
	lines = append(lines, m.styles.Header.Render("Selected"))

	if e, ok := m.selectedEvent(); ok {
		lines = append(lines, m.eventSummary(e, width, false)...)
	} else {
		lines = append(lines, m.styles.Help.Render("(nothing selected)"))
	}

	return lipgloss.NewLayer(strings.Join(lines, "\n")).
		X(xOffset).
		Y(0).
		Z(zSidebar)
}

// createStatusBarLayers creates layers for the status bar at the bottom of the screen
func (m *Model) createStatusBarLayers() []*lipgloss.Layer {
	var layers []*lipgloss.Layer
	y := m.height - statusRows

	last := m.date.AddDate(0, 0, m.surface.Days()-1)
	status := fmt.Sprintf(" %s - %s", m.date.Format(m.config.DateFormat), last.Format(m.config.DateFormat))
	if info := m.dragStatus(); info != "" {
		status += "  " + info
	}
	layers = append(layers, lipgloss.NewLayer(m.styles.Help.Render(status)).X(0).Y(y).Z(zStatus))

	var line string
	switch {
	case m.mode == ViewPrompt:
		line = m.renderPrompt()
	case m.message != "":
		line = m.styles.Message.Render(m.message)
	default:
		help := "drag:move  drag bottom:resize  double-click:details/add  h/l:day  H/L:week  t:today  g:goto  n:new  ?:help  q:quit"
		line = m.styles.Help.Width(m.width).Align(lipgloss.Right).Render(runewidth.Truncate(help, m.width, "…"))
	}
	layers = append(layers, lipgloss.NewLayer(line).X(0).Y(y+1).Z(zStatus))

	return layers
}

// dragStatus describes the tentative values of an active drag.
func (m *Model) dragStatus() string {
	drag := m.surface.Drag()
	target := drag.Target()
	if target == nil {
		return ""
	}
	switch drag.State() {
	case schedule.DragMoving:
		return fmt.Sprintf("moving %q to %s", target.Title(),
			drag.CurrentTime().Format(m.config.DateFormat+" "+m.config.TimeFormat))
	case schedule.DragResizing:
		return fmt.Sprintf("resizing %q to %s", target.Title(), formatMinutes(drag.CurrentDuration()))
	}
	return ""
}

func (m *Model) renderPrompt() string {
	label := "Add: "
	if m.prompt == promptGoto {
		label = "Go to: "
	}

	input := []rune(m.inputBuffer)
	cursor := " "
	after := ""
	if m.cursorPos < len(input) {
		cursor = string(input[m.cursorPos])
		after = string(input[m.cursorPos+1:])
	}
	return m.styles.Header.Render(label) +
		string(input[:m.cursorPos]) +
		lipgloss.NewStyle().Reverse(true).Render(cursor) +
		after
}

func (m *Model) overlayWidth() int {
	w := m.width - 8
	if w > 60 {
		w = 60
	}
	return w
}

// createOverlayLayer centers a bordered box over the grid.
func (m *Model) createOverlayLayer(lines []string) *lipgloss.Layer {
	box := m.styles.Border.
		Padding(0, 1).
		Width(m.overlayWidth() + 4).
		Render(lipgloss.JoinVertical(lipgloss.Left, lines...))

	x := (m.width - lipgloss.Width(box)) / 2
	y := (m.height - lipgloss.Height(box)) / 2
	if x < 0 {
		x = 0
	}
	if y < 0 {
		y = 0
	}
	return lipgloss.NewLayer(box).X(x).Y(y).Z(zOverlay)
}

func (m *Model) helpLines() []string {
	actions := make([]string, 0, len(m.config.KeyBindings))
	for action := range m.config.KeyBindings {
		actions = append(actions, action)
	}
	sort.Strings(actions)

	lines := []string{m.styles.Header.Render("Keys"), ""}
	for _, action := range actions {
		lines = append(lines, fmt.Sprintf("%-6s %s", m.config.KeyBindings[action], strings.ReplaceAll(action, "_", " ")))
	}
	lines = append(lines,
		"",
		m.styles.Header.Render("Mouse"),
		"",
		"drag a block to move it",
		"drag its bottom row to resize",
		"double-click a block for details",
		"double-click blank space to add",
		"wheel pages through days",
	)
	return lines
}
