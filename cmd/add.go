package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cwarden/skuld/internal/config"
	"github.com/cwarden/skuld/internal/event"
	"github.com/cwarden/skuld/internal/parser"
)

var (
	addTarget  string
	addMinutes int
)

var addCmd = &cobra.Command{
	Use:   "add <when> <title>",
	Short: "Add an event from a short description",
	Long: `Add an event described in plain words, for example:

  skuld add tomorrow 2pm-3pm standup
  skuld add next friday 9:30 for 45m dentist
  skuld add 2025-09-01 planning

Without a time the event starts at day_start.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAdd,
}

func init() {
	addCmd.Flags().StringVar(&addTarget, "to", "", "Event file to write to (default: first writable file)")
	addCmd.Flags().IntVar(&addMinutes, "minutes", 60, "Length when the description names none")
	rootCmd.AddCommand(addCmd)
}

func runAdd(cmd *cobra.Command, args []string) error {
	closeLog, err := setupLogging(false)
	if err != nil {
		return err
	}
	defer closeLog()

	if cfg.ReadOnly {
		return fmt.Errorf("read_only is set: %w", event.ErrReadOnly)
	}

	catalog, err := openCatalog()
	if err != nil {
		return err
	}
	defer catalog.Close()

	e, err := eventFromWords(cfg, parser.NewTimeParser(), strings.Join(args, " "), addMinutes)
	if err != nil {
		return err
	}

	target := addTarget
	if target == "" {
		target = catalog.DefaultWriter()
	}
	if target == "" {
		return fmt.Errorf("no writable event file: %w", event.ErrReadOnly)
	}
	if err := catalog.Add(e, target); err != nil {
		return err
	}

	end := e.End()
	fmt.Fprintf(cmd.OutOrStdout(), "Added %q: %s %s-%s (%s)\n", e.Title(),
		e.ScheduledTime().Format(cfg.DateFormat),
		e.ScheduledTime().Format(cfg.TimeFormat), end.Format(cfg.TimeFormat), target)
	return nil
}

// eventFromWords builds an event from a quick-add line.
func eventFromWords(c *config.Config, p *parser.TimeParser, input string, minutes int) (*event.Event, error) {
	parsed, err := p.Parse(input)
	if err != nil {
		return nil, err
	}
	if parsed.Text == "" {
		return nil, fmt.Errorf("event needs a title: %q", input)
	}

	start, length := parsed.Span(c.DayStart, minutes)
	return event.New(parsed.Text, start, length), nil
}
