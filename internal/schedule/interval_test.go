package schedule

import (
	"errors"
	"testing"
	"time"
)

func TestNewInterval(t *testing.T) {
	if _, err := NewInterval(at(10, 0), at(10, 0)); !errors.Is(err, ErrEmptyInterval) {
		t.Errorf("expected ErrEmptyInterval for empty span, got %v", err)
	}
	if _, err := NewInterval(at(11, 0), at(10, 0)); !errors.Is(err, ErrEmptyInterval) {
		t.Errorf("expected ErrEmptyInterval for reversed span, got %v", err)
	}
	iv, err := NewInterval(at(9, 0), at(17, 0))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if iv.Span() != 8*time.Hour {
		t.Errorf("Span() = %v, want 8h", iv.Span())
	}
}

func TestToRelative(t *testing.T) {
	iv := dayInterval()

	tests := []struct {
		name string
		t    time.Time
		want Position
	}{
		{"start", at(0, 0), 0},
		{"ten o'clock", at(10, 0), 600.0 / 1440},
		{"noon", at(12, 0), 0.5},
		{"end inclusive", testDay.AddDate(0, 0, 1), 1},
		{"before", testDay.Add(-time.Minute), Invalid},
		{"after", testDay.AddDate(0, 0, 1).Add(time.Second), Invalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ToRelative(tt.t, iv)
			if tt.want == Invalid {
				if got != Invalid {
					t.Errorf("ToRelative = %v, want Invalid", got)
				}
				return
			}
			if !approxEqual(float64(got), float64(tt.want)) {
				t.Errorf("ToRelative = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestToRelativeDegenerateInterval(t *testing.T) {
	iv := Interval{Start: at(10, 0), End: at(10, 0)}
	if got := ToRelative(at(10, 0), iv); got != Invalid {
		t.Errorf("expected Invalid for empty interval, got %v", got)
	}
}

func TestToTimestamp(t *testing.T) {
	iv := dayInterval()

	if _, ok := ToTimestamp(-0.1, iv); ok {
		t.Error("expected failure below 0")
	}
	if _, ok := ToTimestamp(1.01, iv); ok {
		t.Error("expected failure above 1")
	}
	if _, ok := ToTimestamp(Invalid, iv); ok {
		t.Error("expected failure for Invalid")
	}

	got, ok := ToTimestamp(0.5, iv)
	if !ok || !got.Equal(at(12, 0)) {
		t.Errorf("ToTimestamp(0.5) = %v, %v; want 12:00", got, ok)
	}

	// 10:00:30 must round up, never down.
	p := Position(float64(10*time.Hour+30*time.Second) / float64(24*time.Hour))
	got, ok = ToTimestamp(p, iv)
	if !ok || !got.Equal(at(10, 1)) {
		t.Errorf("ToTimestamp rounds to %v, want 10:01", got)
	}
}

func TestRoundTripWholeMinutes(t *testing.T) {
	iv := DayInterval(testDay, 7)
	for m := 0; m <= 7*24*60; m += 37 {
		want := testDay.Add(time.Duration(m) * time.Minute)
		got, ok := ToTimestamp(ToRelative(want, iv), iv)
		if !ok {
			t.Fatalf("round trip failed at minute %d", m)
		}
		if !got.Equal(want) {
			t.Fatalf("round trip of %v gave %v", want, got)
		}
	}
}

func TestRoundTripSubMinute(t *testing.T) {
	iv := dayInterval()
	orig := at(14, 7).Add(25 * time.Second)
	got, ok := ToTimestamp(ToRelative(orig, iv), iv)
	if !ok || !got.Equal(at(14, 8)) {
		t.Errorf("round trip of %v gave %v, want 14:08", orig, got)
	}
}

func TestLengthToDuration(t *testing.T) {
	iv := dayInterval()

	got, ok := LengthToDuration(0.5, iv)
	if !ok || got != 720 {
		t.Errorf("LengthToDuration(0.5) = %d, %v; want 720", got, ok)
	}

	got, ok = LengthToDuration(30.0/1440, iv)
	if !ok || got != 30 {
		t.Errorf("LengthToDuration(30min) = %d, want 30", got)
	}

	if _, ok := LengthToDuration(0.5, Interval{Start: at(10, 0), End: at(9, 0)}); ok {
		t.Error("expected failure for non-positive span")
	}
}

func TestDaySplit(t *testing.T) {
	tests := []struct {
		p      Position
		days   int
		day    int
		within float64
		ok     bool
	}{
		{0, 7, 0, 0, true},
		{0.5, 1, 0, 0.5, true},
		{Position(3.25 / 7), 7, 3, 0.25, true},
		{1, 7, 6, 1, true},
		{Invalid, 7, 0, 0, false},
		{0.5, 0, 0, 0, false},
	}

	for _, tt := range tests {
		day, within, ok := DaySplit(tt.p, tt.days)
		if ok != tt.ok || day != tt.day || !approxEqual(within, tt.within) {
			t.Errorf("DaySplit(%v, %d) = %d, %v, %v; want %d, %v, %v",
				tt.p, tt.days, day, within, ok, tt.day, tt.within, tt.ok)
		}
		if ok {
			back := DayPosition(day, within, tt.days)
			if !approxEqual(float64(back), float64(tt.p)) {
				t.Errorf("DayPosition(%d, %v) = %v, want %v", day, within, back, tt.p)
			}
		}
	}

	if DayPosition(7, 0.5, 7) != Invalid {
		t.Error("day out of range should be Invalid")
	}
	if DayPosition(0, 1.5, 7) != Invalid {
		t.Error("offset out of range should be Invalid")
	}
}

func TestClamp(t *testing.T) {
	if Position(-0.2).Clamp() != 0 {
		t.Error("negative should clamp to 0")
	}
	if Position(1.7).Clamp() != 1 {
		t.Error("above one should clamp to 1")
	}
	if Invalid.Clamp() != Invalid {
		t.Error("Invalid should stay Invalid")
	}
}
