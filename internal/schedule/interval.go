package schedule

import (
	"errors"
	"math"
	"time"
)

// ErrEmptyInterval is returned for an interval that does not end after it starts.
var ErrEmptyInterval = errors.New("interval end must be after start")

// Interval is the bounded window a surface displays.
type Interval struct {
	Start time.Time
	End   time.Time
}

// NewInterval returns [start, end], or ErrEmptyInterval.
func NewInterval(start, end time.Time) (Interval, error) {
	if !end.After(start) {
		return Interval{}, ErrEmptyInterval
	}
	return Interval{Start: start, End: end}, nil
}

// DayInterval returns [midnight, midnight+days) around the given date.
func DayInterval(date time.Time, days int) Interval {
	if days < 1 {
		days = 1
	}
	start := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
	return Interval{Start: start, End: start.AddDate(0, 0, days)}
}

// Span is the length of the interval.
func (iv Interval) Span() time.Duration {
	return iv.End.Sub(iv.Start)
}

// Contains reports whether t lies in [Start, End]. The end is inclusive so that an
// event ending exactly at the boundary still resolves.
func (iv Interval) Contains(t time.Time) bool {
	return !t.Before(iv.Start) && !t.After(iv.End)
}

// Position is a normalized coordinate within an Interval.
type Position float64

// Invalid marks a time outside the interval or a coordinate outside [0,1].
const Invalid Position = -1

// Valid reports whether p lies in [0,1].
func (p Position) Valid() bool {
	return p >= 0 && p <= 1
}

// Clamp forces p into [0,1]. Invalid stays Invalid.
func (p Position) Clamp() Position {
	if p == Invalid || math.IsNaN(float64(p)) {
		return Invalid
	}
	return Position(math.Max(0, math.Min(1, float64(p))))
}

// ToRelative maps t into iv. Out-of-range input yields Invalid.
func ToRelative(t time.Time, iv Interval) Position {
	span := iv.Span()
	if span <= 0 || !iv.Contains(t) {
		return Invalid
	}
	return Position(float64(t.Sub(iv.Start)) / float64(span))
}

// ToTimestamp is the inverse of ToRelative. The result is rounded up to the next
// whole minute so that a drag can never produce a sub-minute time.
func ToTimestamp(p Position, iv Interval) (time.Time, bool) {
	span := iv.Span()
	if !p.Valid() || span <= 0 {
		return time.Time{}, false
	}
	offset := time.Duration(float64(span) * float64(p)).Round(time.Microsecond)
	return ceilMinute(iv.Start.Add(offset)), true
}

// LengthToDuration scales a length fraction of iv into whole minutes, rounding up.
func LengthToDuration(fraction float64, iv Interval) (int, bool) {
	span := iv.Span()
	if span <= 0 {
		return 0, false
	}
	minutes := fraction * span.Minutes()
	return int(math.Ceil(minutes - 1e-9)), true
}

func ceilMinute(t time.Time) time.Time {
	floor := t.Truncate(time.Minute)
	if floor.Before(t) {
		return floor.Add(time.Minute)
	}
	return floor
}

// DaySplit decomposes p into a day column and a [0,1] offset within that day for a
// grid showing days equal columns.
func DaySplit(p Position, days int) (int, float64, bool) {
	if !p.Valid() || days < 1 {
		return 0, 0, false
	}
	scaled := float64(p) * float64(days)
	day := int(math.Floor(scaled))
	if day >= days {
		day = days - 1
	}
	return day, scaled - float64(day), true
}

// DayPosition is the inverse of DaySplit.
func DayPosition(day int, within float64, days int) Position {
	if days < 1 || day < 0 || day >= days || within < 0 || within > 1 {
		return Invalid
	}
	return Position((float64(day) + within) / float64(days))
}
