package ui

import (
	"errors"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss/v2"
	"github.com/mattn/go-runewidth"

	"github.com/cwarden/skuld/internal/config"
	"github.com/cwarden/skuld/internal/event"
	applog "github.com/cwarden/skuld/internal/log"
	"github.com/cwarden/skuld/internal/parser"
	"github.com/cwarden/skuld/internal/schedule"
)

type ViewMode int

const (
	ViewGrid ViewMode = iota
	ViewDetails
	ViewPrompt
	ViewHelp
)

type promptKind int

const (
	promptAdd promptKind = iota
	promptGoto
)

const messageTimeout = 3 * time.Second

type Model struct {
	// Core components
	config  *config.Config
	catalog *event.Catalog
	surface *schedule.Surface
	parser  *parser.TimeParser
	now     func() time.Time

	// View state
	mode      ViewMode
	date      time.Time // first displayed day
	details   *event.Event
	watchChan <-chan event.FileChangeEvent

	// UI state
	width        int
	height       int
	message      string
	messageID    int
	showEventIDs bool
	quitting     bool

	// Prompt state
	prompt      promptKind
	inputBuffer string
	cursorPos   int

	// Set by surface callbacks, handled once Update returns.
	reloadWanted bool
	refreshAfter bool

	styles Styles
}

type Styles struct {
	Normal   lipgloss.Style
	Today    lipgloss.Style
	Weekend  lipgloss.Style
	Header   lipgloss.Style
	Grid     lipgloss.Style
	Now      lipgloss.Style
	Event    lipgloss.Style
	ReadOnly lipgloss.Style
	Selected lipgloss.Style
	Dragging lipgloss.Style
	Help     lipgloss.Style
	Message  lipgloss.Style
	Border   lipgloss.Style
}

type Option func(*Model)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(m *Model) { m.now = now }
}

// WithDate starts the grid at date instead of today.
func WithDate(date time.Time) Option {
	return func(m *Model) { m.date = date }
}

// NewModel builds the TUI over catalog. The first load is issued by Init.
func NewModel(cfg *config.Config, catalog *event.Catalog, opts ...Option) *Model {
	m := &Model{
		config:       cfg,
		catalog:      catalog,
		parser:       parser.NewTimeParser(),
		now:          time.Now,
		showEventIDs: cfg.ShowIDs,
		styles:       newStyles(cfg.Colors),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.date.IsZero() {
		m.date = m.homeDate()
	} else {
		m.date = time.Date(m.date.Year(), m.date.Month(), m.date.Day(), 0, 0, 0, 0, m.date.Location())
	}

	iv := schedule.DayInterval(m.date, cfg.Days)
	m.surface = schedule.NewSurface(catalog, iv, cfg.Days,
		schedule.WithDelegate(m),
		schedule.WithDoubleClickWindow(cfg.DoubleClick),
	)
	return m
}

func newStyles(colors map[string]string) Styles {
	color := func(name, fallback string) lipgloss.Style {
		c := colors[name]
		if c == "" {
			c = fallback
		}
		return lipgloss.NewStyle().Background(lipgloss.Color(c)).Foreground(lipgloss.Color("15"))
	}
	fg := func(name, fallback string) lipgloss.Style {
		c := colors[name]
		if c == "" {
			c = fallback
		}
		return lipgloss.NewStyle().Foreground(lipgloss.Color(c))
	}

	return Styles{
		Normal:   lipgloss.NewStyle().Foreground(lipgloss.Color("252")),
		Today:    fg("header", "6").Bold(true).Reverse(true),
		Weekend:  lipgloss.NewStyle().Foreground(lipgloss.Color("39")),
		Header:   fg("header", "6").Bold(true),
		Grid:     fg("grid", "238"),
		Now:      fg("now", "1").Bold(true),
		Event:    color("event", "4"),
		ReadOnly: color("readonly", "8"),
		Selected: color("selected", "3").Foreground(lipgloss.Color("0")).Bold(true),
		Dragging: color("dragging", "5").Bold(true),
		Help:     fg("status", "7").Faint(true),
		Message: lipgloss.NewStyle().
			Foreground(lipgloss.Color("220")).
			Background(lipgloss.Color("235")).
			Padding(0, 1),
		Border: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("238")),
	}
}

// Surface exposes the layout engine, mainly for tests and the list command.
func (m *Model) Surface() *schedule.Surface { return m.surface }

func (m *Model) Init() tea.Cmd {
	cmds := []tea.Cmd{tea.EnterAltScreen, m.requestLoad()}

	ch, err := m.catalog.Source().WatchFiles()
	if err != nil {
		applog.Warn("cannot watch event files", "err", err)
	} else {
		m.watchChan = ch
		cmds = append(cmds, m.watchCmd())
	}

	if m.config.AutoRefresh {
		cmds = append(cmds, m.refreshCmd())
	}
	return tea.Batch(cmds...)
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	messageID := m.messageID

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tea.KeyMsg:
		cmds = append(cmds, m.handleKeyPress(msg))

	case tea.MouseMsg:
		cmds = append(cmds, m.handleMouse(msg))

	case eventsLoadedMsg:
		m.handleLoaded(msg)

	case fileChangedMsg:
		applog.Debug("event file changed", "path", msg.path)
		cmds = append(cmds, m.requestLoad(), m.watchCmd())

	case refreshTickMsg:
		if m.config.AutoRefresh {
			cmds = append(cmds, m.requestLoad(), m.refreshCmd())
		}

	case messageTimeoutMsg:
		if msg.id == m.messageID {
			m.message = ""
		}
	}

	if m.messageID != messageID {
		cmds = append(cmds, m.messageTimeoutCmd())
	}
	if m.reloadWanted || m.refreshAfter {
		m.reloadWanted = false
		m.refreshAfter = false
		cmds = append(cmds, m.requestLoad())
	}
	if m.quitting {
		return m, tea.Quit
	}
	return m, tea.Batch(cmds...)
}

func (m *Model) View() string {
	if m.quitting {
		return ""
	}
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}
	return m.renderCanvasView()
}

// homeDate is the first day shown for "today": the start of the week for a week
// grid, today otherwise.
func (m *Model) homeDate() time.Time {
	now := m.now()
	if m.config.Days >= 7 {
		return m.config.WeekStart(now)
	}
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
}

// goTo shows the grid starting at date and reloads it.
func (m *Model) goTo(date time.Time) tea.Cmd {
	m.date = time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
	iv := schedule.DayInterval(m.date, m.config.Days)
	// The catalog still holds the previous window; the surface shows what
	// overlaps until the load below lands.
	if err := m.surface.SetInterval(iv, m.config.Days); err != nil {
		m.showError("reload", err)
	}
	return m.requestLoad()
}

func (m *Model) shiftDays(n int) tea.Cmd {
	return m.goTo(m.date.AddDate(0, 0, n))
}

func (m *Model) grid() grid {
	return newGrid(m.width-m.sidebarWidth(), m.height, m.surface.Days(),
		m.config.DayStart, m.config.DayEnd, m.timeWidth())
}

func (m *Model) sidebarWidth() int {
	if m.width < sidebarMinFit {
		return 0
	}
	return sidebarWidth
}

func (m *Model) timeWidth() int {
	ref := time.Date(2000, 1, 1, 12, 0, 0, 0, time.UTC)
	return runewidth.StringWidth(ref.Format(m.config.TimeFormat)) + 1
}

// Loading

type eventsLoadedMsg struct {
	req    *schedule.Request
	events []*event.Event
	err    error
}

type fileChangedMsg struct{ path string }

type refreshTickMsg struct{ at time.Time }

type messageTimeoutMsg struct{ id int }

// requestLoad reads the sources off the UI goroutine. Only the latest request
// is applied.
func (m *Model) requestLoad() tea.Cmd {
	req := m.surface.BeginRequest()
	catalog := m.catalog
	return func() tea.Msg {
		events, err := catalog.Load(req.Start, req.End)
		return eventsLoadedMsg{req: req, events: events, err: err}
	}
}

func (m *Model) handleLoaded(msg eventsLoadedMsg) {
	if !msg.req.Valid() {
		applog.Debug("dropping superseded load", "start", msg.req.Start)
		return
	}

	var loadErr *event.LoadError
	if msg.err != nil && !errors.As(msg.err, &loadErr) {
		m.showError("load", msg.err)
		return
	}
	if loadErr != nil {
		m.showError("load", loadErr)
	}

	// Updates reach the snapshots through the record setters; only a changed
	// set of records needs the surface rebuilt.
	res := m.catalog.Merge(msg.req.Start, msg.req.End, msg.events, loadErr)
	if res.Structural() || m.surface.NeedsReload() || len(m.surface.Snapshots()) != m.catalog.Len() {
		records, _ := m.catalog.EventsBetween(msg.req.Start, msg.req.End)
		msg.req.Complete(records)
		m.reloadWanted = false
	}
}

func (m *Model) watchCmd() tea.Cmd {
	ch := m.watchChan
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		change, ok := <-ch
		if !ok {
			return nil
		}
		return fileChangedMsg{path: change.Path}
	}
}

func (m *Model) refreshCmd() tea.Cmd {
	sched, err := m.config.RefreshSchedule()
	if err != nil {
		applog.Warn("auto refresh disabled", "err", err)
		return nil
	}
	now := m.now()
	return tea.Tick(sched.Next(now).Sub(now), func(t time.Time) tea.Msg {
		return refreshTickMsg{at: t}
	})
}

// Messages

// showMessage sets the status line; Update arranges for it to clear.
func (m *Model) showMessage(msg string) {
	m.messageID++
	m.message = msg
}

func (m *Model) messageTimeoutCmd() tea.Cmd {
	id := m.messageID
	return tea.Tick(messageTimeout, func(time.Time) tea.Msg {
		return messageTimeoutMsg{id: id}
	})
}

func (m *Model) showError(what string, err error) {
	applog.Error(what+" failed", err)
	m.showMessage(fmt.Sprintf("Error: %v", err))
}

// Surface delegate

func (m *Model) eventFor(r schedule.Record) (*event.Event, bool) {
	e, ok := r.(*event.Event)
	return e, ok
}

func (m *Model) writable(r schedule.Record) bool {
	if m.config.ReadOnly {
		m.showMessage("Read-only mode")
		return false
	}
	e, ok := m.eventFor(r)
	if !ok || !m.catalog.Writable(e) {
		m.showMessage(fmt.Sprintf("%q is read-only", r.Title()))
		return false
	}
	return true
}

func (m *Model) ShouldChangeDuration(r schedule.Record, oldMinutes, newMinutes int) bool {
	return m.writable(r)
}

func (m *Model) ShouldChangeTime(r schedule.Record, old, new time.Time) bool {
	return m.writable(r)
}

func (m *Model) EventSelected(schedule.Record) {}
func (m *Model) SelectionCleared()             {}

func (m *Model) EventDoubleClicked(r schedule.Record) {
	if e, ok := m.eventFor(r); ok {
		m.details = e
		m.mode = ViewDetails
	}
}

func (m *Model) BlankDoubleClicked(t time.Time, ok bool) {
	if !ok {
		return
	}
	m.openPrompt(promptAdd, t.Format("2006-01-02 15:04")+" ")
}

func (m *Model) ReloadRequested() {
	m.reloadWanted = true
}

// EventChanged persists a committed drag. On failure the sources are read
// again so the grid shows what is actually stored.
func (m *Model) EventChanged(r schedule.Record) {
	e, ok := m.eventFor(r)
	if !ok {
		return
	}
	if err := m.catalog.Persist(e); err != nil {
		m.showError("save", err)
		m.refreshAfter = true
		return
	}
	m.showMessage(fmt.Sprintf("Saved %q: %s", e.Title(), m.formatSpan(e.ScheduledTime(), e.DurationMinutes())))
}

func (m *Model) formatSpan(start time.Time, minutes int) string {
	end := start.Add(time.Duration(minutes) * time.Minute)
	return fmt.Sprintf("%s %s-%s", start.Format(m.config.DateFormat),
		start.Format(m.config.TimeFormat), end.Format(m.config.TimeFormat))
}
