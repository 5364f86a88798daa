package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Days != 7 {
		t.Errorf("Wrong default days: %d", cfg.Days)
	}

	if cfg.WeekStartDay != time.Monday {
		t.Errorf("Wrong default week start day: %v", cfg.WeekStartDay)
	}

	if cfg.TimeFormat != "15:04" {
		t.Errorf("Wrong default time format: %s", cfg.TimeFormat)
	}

	if cfg.DoubleClick != 500*time.Millisecond {
		t.Errorf("Wrong default double click window: %v", cfg.DoubleClick)
	}

	if !cfg.AutoRefresh {
		t.Error("Auto refresh should be enabled by default")
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("Defaults do not validate: %v", err)
	}

	if cfg.ActionForKey("q") != "quit" {
		t.Errorf("Wrong quit key binding: %s", cfg.ActionForKey("q"))
	}
}

func TestParseLine(t *testing.T) {
	cfg := DefaultConfig()

	tests := []struct {
		line     string
		check    func(*Config) bool
		hasError bool
	}{
		{
			line: "set days 3",
			check: func(c *Config) bool {
				return c.Days == 3
			},
		},
		{
			line: "set week_start_day sunday",
			check: func(c *Config) bool {
				return c.WeekStartDay == time.Sunday
			},
		},
		{
			line: "set auto_refresh false",
			check: func(c *Config) bool {
				return !c.AutoRefresh
			},
		},
		{
			line: `set refresh_cron "@every 30s"`,
			check: func(c *Config) bool {
				return c.RefreshCron == "@every 30s"
			},
		},
		{
			line: "bind j next_day",
			check: func(c *Config) bool {
				return c.KeyBindings["next_day"] == "j" && c.ActionForKey("j") == "next_day"
			},
		},
		{
			line: "color selected #ffaa00",
			check: func(c *Config) bool {
				return c.Colors["selected"] == "#ffaa00"
			},
		},
		{
			line:     "set refresh_cron every now and then",
			hasError: true,
		},
		{
			line:     "invalid command",
			hasError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			err := cfg.parseLine(tt.line)

			if tt.hasError && err == nil {
				t.Error("Expected error but got none")
			}

			if !tt.hasError && err != nil {
				t.Errorf("Unexpected error: %v", err)
			}

			if tt.check != nil && !tt.check(cfg) {
				t.Errorf("Check failed for line: %s", tt.line)
			}
		})
	}
}

func TestSetVariable(t *testing.T) {
	cfg := DefaultConfig()

	tests := []struct {
		name     string
		value    string
		check    func(*Config) bool
		hasError bool
	}{
		{
			name:  "event_files",
			value: "~/events.yaml, /tmp/work.ics",
			check: func(c *Config) bool {
				return len(c.EventFiles) == 2 &&
					!strings.HasPrefix(c.EventFiles[0], "~") &&
					c.EventFiles[1] == "/tmp/work.ics"
			},
		},
		{
			name:  "day_start",
			value: "6",
			check: func(c *Config) bool {
				return c.DayStart == 6
			},
		},
		{
			name:     "day_end",
			value:    "25",
			hasError: true,
		},
		{
			name:     "days",
			value:    "0",
			hasError: true,
		},
		{
			name:  "double_click_ms",
			value: "300",
			check: func(c *Config) bool {
				return c.DoubleClick == 300*time.Millisecond
			},
		},
		{
			name:     "double_click_ms",
			value:    "fast",
			hasError: true,
		},
		{
			name:  "read_only",
			value: "yes",
			check: func(c *Config) bool {
				return c.ReadOnly
			},
		},
		{
			name:  "show_ids",
			value: "1",
			check: func(c *Config) bool {
				return c.ShowIDs
			},
		},
		{
			name:  "log_level",
			value: "DEBUG",
			check: func(c *Config) bool {
				return c.LogLevel == "debug"
			},
		},
		{
			name:     "week_start_day",
			value:    "friday",
			hasError: true,
		},
		{
			name:     "unknown_variable",
			value:    "something",
			hasError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name+"="+tt.value, func(t *testing.T) {
			err := cfg.setVariable(tt.name, tt.value)

			if tt.hasError && err == nil {
				t.Error("Expected error but got none")
			}

			if !tt.hasError && err != nil {
				t.Errorf("Unexpected error: %v", err)
			}

			if tt.check != nil && !tt.check(cfg) {
				t.Errorf("Check failed for %s = %s", tt.name, tt.value)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	tmpDir := t.TempDir()
	configFile := filepath.Join(tmpDir, "skuldrc")

	content := `# Test config file
set event_files ~/calendar.yaml,~/work.db
set days 5
set day_start 8
set day_end 18
set week_start_day sunday
set time_format 3:04pm
set auto_refresh false
set refresh_cron */15 * * * *

bind x quit
bind n new_event

color event 2
color selected reverse
`

	if err := os.WriteFile(configFile, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to create test config file: %v", err)
	}

	cfg, err := Load(configFile)
	if err != nil {
		t.Fatalf("Failed to load config file: %v", err)
	}

	if len(cfg.EventFiles) != 2 {
		t.Errorf("Wrong number of event files: %d", len(cfg.EventFiles))
	}

	if cfg.Days != 5 || cfg.DayStart != 8 || cfg.DayEnd != 18 {
		t.Errorf("Wrong grid: days=%d start=%d end=%d", cfg.Days, cfg.DayStart, cfg.DayEnd)
	}

	if cfg.WeekStartDay != time.Sunday {
		t.Errorf("Wrong week start day: %v", cfg.WeekStartDay)
	}

	if cfg.TimeFormat != "3:04pm" {
		t.Errorf("Wrong time format: %s", cfg.TimeFormat)
	}

	if cfg.AutoRefresh {
		t.Error("Auto refresh should be disabled")
	}

	sched, err := cfg.RefreshSchedule()
	if err != nil {
		t.Fatalf("RefreshSchedule: %v", err)
	}
	from := time.Date(2025, 8, 25, 10, 1, 0, 0, time.UTC)
	if next := sched.Next(from); !next.Equal(time.Date(2025, 8, 25, 10, 15, 0, 0, time.UTC)) {
		t.Errorf("Wrong next refresh: %v", next)
	}

	if cfg.ActionForKey("x") != "quit" || cfg.ActionForKey("q") != "" {
		t.Errorf("Rebinding quit did not replace q")
	}

	if cfg.Colors["event"] != "2" {
		t.Errorf("Wrong event color: %s", cfg.Colors["event"])
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"bad line", "set days 3\nnonsense here\n", "line 2"},
		{"inverted hours", "set day_start 18\nset day_end 9\n", "day_end"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "skuldrc")
			if err := os.WriteFile(path, []byte(tt.content), 0644); err != nil {
				t.Fatal(err)
			}
			_, err := Load(path)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Load error = %v, want mention of %q", err, tt.want)
			}
		})
	}
}

func TestLoadConfigSearchPath(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Setenv("XDG_CONFIG_HOME", "")

	explicit := filepath.Join(dir, "custom")
	if err := os.WriteFile(explicit, []byte("set days 2\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, ".skuldrc"), []byte("set days 4\n"), 0644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("SKULD_CONFIG", explicit)
	cfg, err := LoadConfig()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Days != 2 {
		t.Errorf("SKULD_CONFIG not preferred: days=%d", cfg.Days)
	}

	t.Setenv("SKULD_CONFIG", "")
	cfg, err = LoadConfig()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Days != 4 {
		t.Errorf("~/.skuldrc not used: days=%d", cfg.Days)
	}
}

func TestWeekStart(t *testing.T) {
	cfg := DefaultConfig()
	wed := time.Date(2025, 8, 27, 15, 30, 0, 0, time.UTC)

	if got := cfg.WeekStart(wed); !got.Equal(time.Date(2025, 8, 25, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("Monday week start = %v", got)
	}

	cfg.WeekStartDay = time.Sunday
	if got := cfg.WeekStart(wed); !got.Equal(time.Date(2025, 8, 24, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("Sunday week start = %v", got)
	}
}
