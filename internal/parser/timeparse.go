package parser

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

type ParsedTime struct {
	Date     time.Time
	HasDate  bool // false when Date defaulted to today
	HasTime  bool
	Time     time.Time // on Date
	Duration time.Duration
	Text     string // Remaining text after parsing time
}

// Start is the parsed instant: Time when a time was given, midnight of Date
// otherwise.
func (p *ParsedTime) Start() time.Time {
	if p.HasTime {
		return p.Time
	}
	return p.Date
}

// Minutes is Duration in whole minutes, or fallback when none was given.
func (p *ParsedTime) Minutes(fallback int) int {
	if p.Duration <= 0 {
		return fallback
	}
	return int(p.Duration / time.Minute)
}

// Span is the start and length of an event described by p. Without a time the
// event starts at dayStart o'clock; without a length it lasts fallback minutes.
func (p *ParsedTime) Span(dayStart, fallback int) (time.Time, int) {
	start := p.Start()
	if !p.HasTime {
		start = start.Add(time.Duration(dayStart) * time.Hour)
	}
	return start, p.Minutes(fallback)
}

var (
	weekdayRe   = regexp.MustCompile(`^(next|this)?\s*(mon|monday|tue|tuesday|wed|wednesday|thu|thursday|fri|friday|sat|saturday|sun|sunday)\b`)
	inRe        = regexp.MustCompile(`^in\s+(\d+)\s+(day|days|week|weeks|month|months)\b`)
	fromNowRe   = regexp.MustCompile(`^(\d+)\s+(day|days|week|weeks|month|months)\s+from\s+(now|today)\b`)
	isoDateRe   = regexp.MustCompile(`^(\d{4})-(\d{1,2})-(\d{1,2})\b`)
	dateRe      = regexp.MustCompile(`^(\d{1,2})[/-](\d{1,2})[/-](\d{4})\b`)
	shortDateRe = regexp.MustCompile(`^(\d{1,2})/(\d{1,2})\b`)
	monthNameRe = regexp.MustCompile(`^(jan|january|feb|february|mar|march|apr|april|may|jun|june|jul|july|aug|august|sep|sept|september|oct|october|nov|november|dec|december)\s+(\d{1,2})(?:st|nd|rd|th)?(?:,?\s+(\d{4}))?\b`)
	rangeRe     = regexp.MustCompile(`^(\d{1,2})(?::(\d{2}))?\s*(am|pm)?\s*(?:-|to)\s*(\d{1,2})(?::(\d{2}))?\s*(am|pm)?\b`)
	timeRe      = regexp.MustCompile(`^(\d{1,2})(?::(\d{2}))?\s*(am|pm)?\b`)
	clockRe     = regexp.MustCompile(`^(\d{1,2}):(\d{2})\b`)
	forRe       = regexp.MustCompile(`^for\s+(\d+)\s*(m|min|mins|minutes?|h|hr|hrs|hours?)\b`)
)

// namedTimes is checked in order so longer names win.
var namedTimes = []struct {
	name string
	hour int
}{
	{"midnight", 0},
	{"morning", 9},
	{"noon", 12},
	{"afternoon", 14},
	{"evening", 18},
	{"tonight", 20},
	{"night", 21},
}

type TimeParser struct {
	now      time.Time
	location *time.Location
}

func NewTimeParser() *TimeParser {
	return &TimeParser{
		now:      time.Now(),
		location: time.Local,
	}
}

func (p *TimeParser) SetNow(now time.Time) {
	p.now = now
	p.location = now.Location()
}

// Parse reads an optional date, an optional time or time range and an optional
// "for <duration>", in that order, and leaves the rest in Text. A time may also
// precede the date ("2pm tomorrow").
func (p *TimeParser) Parse(input string) (*ParsedTime, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil, fmt.Errorf("empty input")
	}

	result := &ParsedTime{Date: p.today()}
	remaining := input

	remaining = p.takeDate(result, remaining)

	var clock time.Time
	if t, duration, text, ok := p.parseTime(remaining); ok {
		result.HasTime = true
		clock = t
		result.Duration = duration
		remaining = text
		if !result.HasDate {
			remaining = p.takeDate(result, remaining)
		}
	}

	if d, text, ok := parseFor(remaining); ok {
		result.Duration = d
		remaining = text
	}

	if result.HasTime {
		result.Time = time.Date(result.Date.Year(), result.Date.Month(), result.Date.Day(),
			clock.Hour(), clock.Minute(), 0, 0, p.location)
	}

	result.Text = strings.TrimSpace(remaining)
	return result, nil
}

func (p *TimeParser) takeDate(result *ParsedTime, input string) string {
	if date, text, ok := p.parseRelativeDate(input); ok {
		result.Date, result.HasDate = date, true
		return text
	}
	if date, text, ok := p.parseAbsoluteDate(input); ok {
		result.Date, result.HasDate = date, true
		return text
	}
	return input
}

// ParseDate accepts anything Parse accepts as a date and fails otherwise.
func (p *TimeParser) ParseDate(input string) (time.Time, error) {
	input = strings.TrimSpace(input)
	if date, text, ok := p.parseRelativeDate(input); ok && text == "" {
		return date, nil
	}
	if date, text, ok := p.parseAbsoluteDate(input); ok && text == "" {
		return date, nil
	}
	return time.Time{}, fmt.Errorf("unrecognized date: %q", input)
}

func (p *TimeParser) parseRelativeDate(input string) (time.Time, string, bool) {
	lower := strings.ToLower(input)

	for _, rel := range []struct {
		word string
		days int
	}{
		{"today", 0},
		{"tomorrow", 1},
		{"tmrw", 1},
		{"yesterday", -1},
	} {
		if hasWord(lower, rel.word) {
			return p.today().AddDate(0, 0, rel.days), strings.TrimSpace(input[len(rel.word):]), true
		}
	}

	// [next|this] weekday
	if matches := weekdayRe.FindStringSubmatch(lower); matches != nil {
		isNext := matches[1] == "next"
		weekday := parseWeekday(matches[2])
		date := p.findNextWeekday(weekday, isNext)
		remaining := input[len(matches[0]):]
		return date, strings.TrimSpace(remaining), true
	}

	// In N days/weeks/months
	if matches := inRe.FindStringSubmatch(lower); matches != nil {
		n, _ := strconv.Atoi(matches[1])
		remaining := input[len(matches[0]):]
		return addUnits(p.today(), n, matches[2]), strings.TrimSpace(remaining), true
	}

	// N days/weeks from now
	if matches := fromNowRe.FindStringSubmatch(lower); matches != nil {
		n, _ := strconv.Atoi(matches[1])
		remaining := input[len(matches[0]):]
		return addUnits(p.today(), n, matches[2]), strings.TrimSpace(remaining), true
	}

	return time.Time{}, input, false
}

func addUnits(date time.Time, n int, unit string) time.Time {
	switch {
	case strings.HasPrefix(unit, "day"):
		return date.AddDate(0, 0, n)
	case strings.HasPrefix(unit, "week"):
		return date.AddDate(0, 0, n*7)
	default:
		return date.AddDate(0, n, 0)
	}
}

func (p *TimeParser) parseAbsoluteDate(input string) (time.Time, string, bool) {
	// YYYY-MM-DD
	if matches := isoDateRe.FindStringSubmatch(input); matches != nil {
		year, _ := strconv.Atoi(matches[1])
		month, _ := strconv.Atoi(matches[2])
		day, _ := strconv.Atoi(matches[3])
		if date, ok := p.date(year, month, day); ok {
			return date, strings.TrimSpace(input[len(matches[0]):]), true
		}
	}

	// MM/DD/YYYY or MM-DD-YYYY
	if matches := dateRe.FindStringSubmatch(input); matches != nil {
		month, _ := strconv.Atoi(matches[1])
		day, _ := strconv.Atoi(matches[2])
		year, _ := strconv.Atoi(matches[3])
		if date, ok := p.date(year, month, day); ok {
			return date, strings.TrimSpace(input[len(matches[0]):]), true
		}
	}

	// MM/DD (assume current year)
	if matches := shortDateRe.FindStringSubmatch(input); matches != nil {
		month, _ := strconv.Atoi(matches[1])
		day, _ := strconv.Atoi(matches[2])
		if date, ok := p.date(p.now.Year(), month, day); ok {
			return date, strings.TrimSpace(input[len(matches[0]):]), true
		}
	}

	// Month DD, YYYY or Month DD
	if matches := monthNameRe.FindStringSubmatch(strings.ToLower(input)); matches != nil {
		month := parseMonth(matches[1])
		day, _ := strconv.Atoi(matches[2])
		year := p.now.Year()
		if matches[3] != "" {
			year, _ = strconv.Atoi(matches[3])
		}
		if date, ok := p.date(year, int(month), day); ok {
			return date, strings.TrimSpace(input[len(matches[0]):]), true
		}
	}

	return time.Time{}, input, false
}

// date rejects values time.Date would normalize, such as February 30.
func (p *TimeParser) date(year, month, day int) (time.Time, bool) {
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return time.Time{}, false
	}
	d := time.Date(year, time.Month(month), day, 0, 0, 0, 0, p.location)
	if d.Day() != day {
		return time.Time{}, false
	}
	return d, true
}

func (p *TimeParser) parseTime(input string) (time.Time, time.Duration, string, bool) {
	lower := strings.ToLower(input)

	// Handle "at" prefix
	if strings.HasPrefix(lower, "at ") {
		lower = strings.TrimSpace(lower[3:])
		input = strings.TrimSpace(input[3:])
	}

	// Time range (e.g., "2pm-4pm", "2-3pm" or "14:00 to 16:00")
	if matches := rangeRe.FindStringSubmatch(lower); matches != nil {
		startHour, _ := strconv.Atoi(matches[1])
		startMin, _ := strconv.Atoi(orZero(matches[2]))
		endHour, _ := strconv.Atoi(matches[4])
		endMin, _ := strconv.Atoi(orZero(matches[5]))

		startMeridiem := matches[3]
		if startMeridiem == "" && matches[6] != "" {
			// "2-3pm": the start shares the end's meridiem unless that would put
			// it after the end.
			startMeridiem = matches[6]
			if to24(startHour, startMeridiem) > to24(endHour, matches[6]) {
				startMeridiem = "am"
			}
		}

		sh, eh := to24(startHour, startMeridiem), to24(endHour, matches[6])
		if validClock(sh, startMin) && validClock(eh, endMin) {
			startTime := p.clock(sh, startMin)
			endTime := p.clock(eh, endMin)
			if !endTime.After(startTime) {
				endTime = endTime.AddDate(0, 0, 1)
			}
			remaining := input[len(matches[0]):]
			return startTime, endTime.Sub(startTime), strings.TrimSpace(remaining), true
		}
	}

	// Single time: needs a meridiem or a colon, so that bare numbers in the
	// text stay text.
	if matches := timeRe.FindStringSubmatch(lower); matches != nil && (matches[3] != "" || clockRe.MatchString(lower)) {
		hour, _ := strconv.Atoi(matches[1])
		min, _ := strconv.Atoi(orZero(matches[2]))
		hour = to24(hour, matches[3])
		if validClock(hour, min) {
			remaining := input[len(matches[0]):]
			return p.clock(hour, min), 0, strings.TrimSpace(remaining), true
		}
	}

	// Named times
	for _, named := range namedTimes {
		if hasWord(lower, named.name) {
			remaining := input[len(named.name):]
			return p.clock(named.hour, 0), 0, strings.TrimSpace(remaining), true
		}
	}

	return time.Time{}, 0, input, false
}

func parseFor(input string) (time.Duration, string, bool) {
	matches := forRe.FindStringSubmatch(strings.ToLower(input))
	if matches == nil {
		return 0, input, false
	}
	n, _ := strconv.Atoi(matches[1])
	unit := time.Minute
	if strings.HasPrefix(matches[2], "h") {
		unit = time.Hour
	}
	return time.Duration(n) * unit, strings.TrimSpace(input[len(matches[0]):]), true
}

func to24(hour int, meridiem string) int {
	switch {
	case meridiem == "pm" && hour < 12:
		return hour + 12
	case meridiem == "am" && hour == 12:
		return 0
	}
	return hour
}

func validClock(hour, min int) bool {
	return hour >= 0 && hour < 24 && min >= 0 && min < 60
}

func orZero(s string) string {
	if s == "" {
		return "0"
	}
	return s
}

// hasWord reports whether s starts with word followed by a word boundary.
func hasWord(s, word string) bool {
	if !strings.HasPrefix(s, word) {
		return false
	}
	if len(s) == len(word) {
		return true
	}
	c := s[len(word)]
	return !(c >= 'a' && c <= 'z' || c >= '0' && c <= '9')
}

func parseWeekday(s string) time.Weekday {
	switch s {
	case "sun", "sunday":
		return time.Sunday
	case "mon", "monday":
		return time.Monday
	case "tue", "tuesday":
		return time.Tuesday
	case "wed", "wednesday":
		return time.Wednesday
	case "thu", "thursday":
		return time.Thursday
	case "fri", "friday":
		return time.Friday
	default:
		return time.Saturday
	}
}

func parseMonth(s string) time.Month {
	switch s {
	case "jan", "january":
		return time.January
	case "feb", "february":
		return time.February
	case "mar", "march":
		return time.March
	case "apr", "april":
		return time.April
	case "may":
		return time.May
	case "jun", "june":
		return time.June
	case "jul", "july":
		return time.July
	case "aug", "august":
		return time.August
	case "sep", "sept", "september":
		return time.September
	case "oct", "october":
		return time.October
	case "nov", "november":
		return time.November
	default:
		return time.December
	}
}

// findNextWeekday returns the first date after today falling on target. With
// skipThisWeek ("next friday") an occurrence later this week is skipped.
func (p *TimeParser) findNextWeekday(target time.Weekday, skipThisWeek bool) time.Time {
	date := p.today()
	daysUntilTarget := int(target - date.Weekday())

	if daysUntilTarget <= 0 || skipThisWeek {
		daysUntilTarget += 7
	}

	return date.AddDate(0, 0, daysUntilTarget)
}

func (p *TimeParser) clock(hour, min int) time.Time {
	y, m, d := p.now.Date()
	return time.Date(y, m, d, hour, min, 0, 0, p.location)
}

func (p *TimeParser) today() time.Time {
	y, m, d := p.now.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, p.location)
}
