package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"
	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/cwarden/skuld/internal/config"
	"github.com/cwarden/skuld/internal/event"
	"github.com/cwarden/skuld/internal/schedule"
)

var listFormat string

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Print the laid-out schedule and exit",
	Long: `List the events of the displayed days with the side-by-side lane each one
gets in the grid. Prints a table on a terminal and tab-separated lines otherwise.`,
	RunE: runList,
}

func init() {
	listCmd.Flags().StringVar(&listFormat, "format", "", "Output format: table or plain (default: table on a terminal)")
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	closeLog, err := setupLogging(false)
	if err != nil {
		return err
	}
	defer closeLog()

	date, err := firstDay()
	if err != nil {
		return err
	}
	if date.IsZero() {
		now := time.Now()
		date = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	}

	catalog, err := openCatalog()
	if err != nil {
		return err
	}
	defer catalog.Close()

	iv := schedule.DayInterval(date, cfg.Days)
	var loadErr *event.LoadError
	if _, err := catalog.Refresh(iv.Start, iv.End); err != nil {
		if !errors.As(err, &loadErr) {
			return err
		}
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	}

	surface := schedule.NewSurface(catalog, iv, cfg.Days)
	defer surface.Close()
	if err := surface.ReloadData(); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	format := listFormat
	width := 0
	if f, ok := out.(*os.File); ok && isTerminal(f.Fd()) {
		if format == "" {
			format = "table"
		}
		if w, _, err := term.GetSize(int(f.Fd())); err == nil && w > 0 {
			width = w
		}
	}
	if format == "" {
		format = "plain"
	}

	return writeSchedule(out, cfg, surface, format, width)
}

func isTerminal(fd uintptr) bool {
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// listRow is one laid-out event.
type listRow struct {
	day    time.Time
	start  time.Time
	end    time.Time
	title  string
	lane   string
	source string
	notes  string
}

func scheduleRows(s *schedule.Surface) []listRow {
	iv := s.Interval()
	rows := make([]listRow, 0, len(s.Rects()))
	for _, r := range s.Rects() {
		snap := r.Snapshot
		start := snap.ScheduledTime()
		row := listRow{
			day:   iv.Start.AddDate(0, 0, r.Day),
			start: start,
			end:   start.Add(time.Duration(snap.DurationMinutes()) * time.Minute),
			title: snap.Title(),
		}
		if r.Columns > 1 {
			row.lane = fmt.Sprintf("%d/%d", r.Column+1, r.Columns)
		}
		if e, ok := snap.Record().(*event.Event); ok {
			row.source = e.Source
			if e.ReadOnly {
				row.notes = "read-only"
			}
		}
		rows = append(rows, row)
	}

	// Rects come in registration order; print in time order.
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].start.Before(rows[j].start)
	})
	return rows
}

// writeSchedule prints the surface's layout. width, when known, bounds the
// title column.
func writeSchedule(w io.Writer, c *config.Config, s *schedule.Surface, format string, width int) error {
	rows := scheduleRows(s)

	switch strings.ToLower(format) {
	case "plain":
		for _, row := range rows {
			line := strings.Join([]string{
				row.day.Format("2006-01-02"),
				row.start.Format(c.TimeFormat),
				row.end.Format(c.TimeFormat),
				row.lane,
				strings.ReplaceAll(row.title, "\t", " "),
				row.source,
			}, "\t")
			if _, err := fmt.Fprintln(w, line); err != nil {
				return err
			}
		}
		return nil

	case "table":
		return writeScheduleTable(w, c, rows, width)

	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
}

func writeScheduleTable(w io.Writer, c *config.Config, rows []listRow, width int) error {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.SetStyle(table.StyleRounded)
	tw.Style().Options.SeparateHeader = true

	titleMax := 50
	if width > 0 {
		// Day, times, lane and borders take about 40 cells.
		titleMax = width - 40
		if titleMax < 10 {
			titleMax = 10
		}
	}
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignLeft, AlignHeader: text.AlignCenter},
		{Number: 2, Align: text.AlignRight, AlignHeader: text.AlignCenter},
		{Number: 3, Align: text.AlignCenter, AlignHeader: text.AlignCenter},
		{Number: 4, Align: text.AlignLeft, AlignHeader: text.AlignCenter},
	})

	tw.AppendHeader(table.Row{"Day", "Time", "Lane", "Title"})

	var lastDay time.Time
	for _, row := range rows {
		day := ""
		if !row.day.Equal(lastDay) {
			day = row.day.Format(c.DateFormat)
			lastDay = row.day
		}
		title := row.title
		if row.notes != "" {
			title += " (" + row.notes + ")"
		}
		tw.AppendRow(table.Row{
			day,
			row.start.Format(c.TimeFormat) + "-" + row.end.Format(c.TimeFormat),
			row.lane,
			runewidth.Truncate(title, titleMax, "…"),
		})
	}

	if len(rows) == 0 {
		tw.AppendRow(table.Row{"-", "-", "", "(no events)"})
	}

	tw.Render()
	return nil
}
