package config

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

type Config struct {
	// File settings
	EventFiles []string
	LogFile    string
	LogLevel   string

	// Display settings
	Days         int
	DayStart     int // first hour shown
	DayEnd       int // hour the grid ends at, exclusive
	WeekStartDay time.Weekday
	TimeFormat   string
	DateFormat   string
	ShowIDs      bool

	// UI settings
	Colors      map[string]string
	KeyBindings map[string]string

	// Behavior settings
	DoubleClick time.Duration
	ReadOnly    bool
	AutoRefresh bool
	RefreshCron string
}

var (
	setRe   = regexp.MustCompile(`^set\s+(\w+)\s+(.+)$`)
	bindRe  = regexp.MustCompile(`^bind\s+(\S+)\s+(\S+)$`)
	colorRe = regexp.MustCompile(`^color\s+(\w+)\s+(.+)$`)
)

func DefaultConfig() *Config {
	home, _ := os.UserHomeDir()

	return &Config{
		EventFiles: []string{filepath.Join(home, ".skuld", "events.yaml")},
		LogLevel:   "info",

		Days:         7,
		DayStart:     7,
		DayEnd:       22,
		WeekStartDay: time.Monday,
		TimeFormat:   "15:04",
		DateFormat:   "Mon Jan 2",

		Colors: map[string]string{
			"event":    "4",
			"readonly": "8",
			"selected": "3",
			"dragging": "5",
			"header":   "6",
			"grid":     "238",
			"now":      "1",
			"status":   "7",
		},

		KeyBindings: map[string]string{
			"quit":       "q",
			"today":      "t",
			"refresh":    "r",
			"next_day":   "l",
			"prev_day":   "h",
			"next_week":  "L",
			"prev_week":  "H",
			"goto_date":  "g",
			"new_event":  "n",
			"delete":     "d",
			"toggle_ids": "i",
			"abort":      "esc",
		},

		DoubleClick: 500 * time.Millisecond,
		AutoRefresh: true,
		RefreshCron: "*/5 * * * *",
	}
}

// LoadConfig reads the first rc file found on the search path, or returns the
// defaults when there is none.
func LoadConfig() (*Config, error) {
	home := os.Getenv("HOME")
	configPaths := []string{
		os.Getenv("SKULD_CONFIG"),
		xdgPath(),
		filepath.Join(home, ".config", "skuld", "skuldrc"),
		filepath.Join(home, ".skuldrc"),
	}

	for _, path := range configPaths {
		if path == "" {
			continue
		}
		if _, err := os.Stat(path); err == nil {
			return Load(path)
		}
	}

	return DefaultConfig(), nil
}

func xdgPath() string {
	xdg := os.Getenv("XDG_CONFIG_HOME")
	if xdg == "" {
		return ""
	}
	return filepath.Join(xdg, "skuld", "skuldrc")
}

// Load reads one rc file on top of the defaults.
func Load(path string) (*Config, error) {
	config := DefaultConfig()
	if err := config.loadFromFile(path); err != nil {
		return nil, fmt.Errorf("error loading config from %s: %w", path, err)
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return config, nil
}

func (c *Config) loadFromFile(path string) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		// Skip comments and empty lines
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if err := c.parseLine(line); err != nil {
			return fmt.Errorf("line %d: %w", lineNum, err)
		}
	}

	return scanner.Err()
}

func (c *Config) parseLine(line string) error {
	// set variable value
	if matches := setRe.FindStringSubmatch(line); matches != nil {
		return c.setVariable(matches[1], matches[2])
	}

	// bind key action
	if matches := bindRe.FindStringSubmatch(line); matches != nil {
		c.KeyBindings[matches[2]] = matches[1]
		return nil
	}

	// color element color_spec
	if matches := colorRe.FindStringSubmatch(line); matches != nil {
		c.Colors[matches[1]] = strings.Trim(matches[2], `"'`)
		return nil
	}

	return fmt.Errorf("unknown config line: %s", line)
}

func (c *Config) setVariable(name, value string) error {
	// Remove quotes if present
	value = strings.Trim(value, `"'`)

	switch name {
	case "event_file", "event_files":
		files := strings.Split(value, ",")
		for i, file := range files {
			files[i] = expandHome(strings.TrimSpace(file))
		}
		c.EventFiles = files

	case "days":
		days, err := strconv.Atoi(value)
		if err != nil || days < 1 || days > 14 {
			return fmt.Errorf("invalid days: %s", value)
		}
		c.Days = days

	case "day_start":
		hour, err := parseHour(value)
		if err != nil {
			return fmt.Errorf("invalid day_start: %s", value)
		}
		c.DayStart = hour

	case "day_end":
		hour, err := parseHour(value)
		if err != nil {
			return fmt.Errorf("invalid day_end: %s", value)
		}
		c.DayEnd = hour

	case "double_click_ms":
		ms, err := strconv.Atoi(value)
		if err != nil || ms <= 0 {
			return fmt.Errorf("invalid double_click_ms: %s", value)
		}
		c.DoubleClick = time.Duration(ms) * time.Millisecond

	case "week_start_day":
		switch strings.ToLower(value) {
		case "sunday", "sun", "0":
			c.WeekStartDay = time.Sunday
		case "monday", "mon", "1":
			c.WeekStartDay = time.Monday
		default:
			return fmt.Errorf("invalid week_start_day: %s", value)
		}

	case "time_format":
		c.TimeFormat = value

	case "date_format":
		c.DateFormat = value

	case "auto_refresh":
		c.AutoRefresh = parseBool(value)

	case "refresh_cron":
		if _, err := cron.ParseStandard(value); err != nil {
			return fmt.Errorf("invalid refresh_cron %q: %w", value, err)
		}
		c.RefreshCron = value

	case "read_only":
		c.ReadOnly = parseBool(value)

	case "show_ids":
		c.ShowIDs = parseBool(value)

	case "log_file":
		c.LogFile = expandHome(value)

	case "log_level":
		c.LogLevel = strings.ToLower(value)

	default:
		return fmt.Errorf("unknown config variable: %s", name)
	}

	return nil
}

// Validate checks settings that depend on each other.
func (c *Config) Validate() error {
	if c.DayEnd <= c.DayStart {
		return fmt.Errorf("day_end (%d) must be after day_start (%d)", c.DayEnd, c.DayStart)
	}
	if _, err := c.RefreshSchedule(); err != nil {
		return err
	}
	return nil
}

// RefreshSchedule parses RefreshCron as a standard five-field cron spec or a
// descriptor such as "@every 1m".
func (c *Config) RefreshSchedule() (cron.Schedule, error) {
	sched, err := cron.ParseStandard(c.RefreshCron)
	if err != nil {
		return nil, fmt.Errorf("invalid refresh_cron %q: %w", c.RefreshCron, err)
	}
	return sched, nil
}

// ActionForKey returns the action bound to key, or "".
func (c *Config) ActionForKey(key string) string {
	for action, bound := range c.KeyBindings {
		if bound == key {
			return action
		}
	}
	return ""
}

// WeekStart returns the first day of the week containing date.
func (c *Config) WeekStart(date time.Time) time.Time {
	offset := (int(date.Weekday()) - int(c.WeekStartDay) + 7) % 7
	d := date.AddDate(0, 0, -offset)
	return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, d.Location())
}

func parseHour(value string) (int, error) {
	hour, err := strconv.Atoi(value)
	if err != nil {
		return 0, err
	}
	if hour < 0 || hour > 24 {
		return 0, fmt.Errorf("hour out of range: %d", hour)
	}
	return hour, nil
}

func parseBool(value string) bool {
	switch strings.ToLower(value) {
	case "true", "1", "yes", "on":
		return true
	}
	return false
}

func expandHome(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, _ := os.UserHomeDir()
		return filepath.Join(home, path[2:])
	}
	return path
}
