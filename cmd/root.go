package cmd

import (
	"fmt"
	"io"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/cwarden/skuld/internal/config"
	"github.com/cwarden/skuld/internal/event"
	applog "github.com/cwarden/skuld/internal/log"
	"github.com/cwarden/skuld/internal/parser"
	"github.com/cwarden/skuld/internal/ui"
)

var (
	cfgFile    string
	eventFiles []string
	days       int
	startDate  string
	cfg        *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "skuld",
	Short: "A terminal week planner with drag-and-drop scheduling",
	Long: `Skuld shows your events on a grid of days and hours. Drag a block with the
mouse to move it, drag its bottom edge to resize it. Events live in YAML or SQLite
files; ICS calendars are shown read-only.`,
	SilenceUsage: true,
	RunE:         runTUI,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Path to rc file")
	rootCmd.PersistentFlags().StringSliceVarP(&eventFiles, "file", "f", []string{}, "Event file(s) to use (can be specified multiple times)")
	rootCmd.PersistentFlags().IntVar(&days, "days", 0, "Number of day columns")
	rootCmd.PersistentFlags().StringVar(&startDate, "date", "", `First day to show ("today", "next monday", "2025-09-01")`)
}

func initConfig() {
	var err error
	if cfgFile != "" {
		cfg, err = config.Load(cfgFile)
	} else {
		cfg, err = config.LoadConfig()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	if len(eventFiles) > 0 {
		cfg.EventFiles = eventFiles
	}
	if days > 0 {
		cfg.Days = days
	}
}

// setupLogging points the logger at log_file. Without one, interactive runs
// discard logs so they do not tear the screen.
func setupLogging(interactive bool) (func(), error) {
	level, err := applog.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	applog.SetLevel(level)

	if cfg.LogFile == "" {
		if interactive {
			applog.SetOutput(io.Discard)
		}
		return func() {}, nil
	}

	f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening log file: %w", err)
	}
	applog.SetOutput(f)
	return func() { f.Close() }, nil
}

// openCatalog opens every configured event file. A file that cannot be opened
// stops the program; one that fails to load later only greys out its events.
func openCatalog() (*event.Catalog, error) {
	if len(cfg.EventFiles) == 0 {
		return nil, fmt.Errorf("no event files configured")
	}
	sources := make([]event.Source, 0, len(cfg.EventFiles))
	for _, path := range cfg.EventFiles {
		source, err := event.OpenSource(path)
		if err != nil {
			for _, s := range sources {
				if closer, ok := s.(io.Closer); ok {
					closer.Close()
				}
			}
			return nil, err
		}
		sources = append(sources, source)
	}
	return event.NewCatalog(sources...), nil
}

// firstDay resolves --date, or returns the zero time for the default.
func firstDay() (time.Time, error) {
	if startDate == "" {
		return time.Time{}, nil
	}
	date, err := parser.NewTimeParser().ParseDate(startDate)
	if err != nil {
		return time.Time{}, fmt.Errorf("--date: %w", err)
	}
	return date, nil
}

func runTUI(cmd *cobra.Command, args []string) error {
	closeLog, err := setupLogging(true)
	if err != nil {
		return err
	}
	defer closeLog()

	date, err := firstDay()
	if err != nil {
		return err
	}

	catalog, err := openCatalog()
	if err != nil {
		return err
	}
	defer catalog.Close()

	applog.Info("starting", "files", len(cfg.EventFiles), "days", cfg.Days)

	model := ui.NewModel(cfg, catalog, ui.WithDate(date))
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithMouseCellMotion())

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running program: %w", err)
	}

	return nil
}
