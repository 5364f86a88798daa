package event

import (
	"fmt"
	"os"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/teambition/rrule-go"

	applog "github.com/cwarden/skuld/internal/log"
)

// maxOccurrences caps recurrence expansion per event and window.
const maxOccurrences = 5000

// ICSSource reads a local iCalendar file. Its events are read-only; recurring
// events are expanded into one event per occurrence.
type ICSSource struct {
	path string
	fileWatch
}

func NewICSSource(path string) *ICSSource {
	return &ICSSource{path: path}
}

func (s *ICSSource) Name() string { return s.path }

type icsEvent struct {
	uid        string
	summary    string
	notes      string
	color      string
	tags       []string
	start      time.Time
	end        time.Time
	allDay     bool
	rrule      string
	exdates    []time.Time
	recurrence *time.Time
}

func (s *ICSSource) GetEvents(start, end time.Time) ([]*Event, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", s.path, err)
	}
	defer f.Close()

	cal, err := ical.ParseCalendar(f)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", s.path, err)
	}

	base := make(map[string]icsEvent)
	var order []string
	overrides := make(map[string][]icsEvent)

	for _, ve := range cal.Events() {
		ev, err := parseVEvent(ve)
		if err != nil {
			applog.Warn("skipping calendar entry", "file", s.path, "err", err)
			continue
		}
		if ev.allDay {
			applog.Debug("skipping all-day entry", "file", s.path, "uid", ev.uid)
			continue
		}
		if ev.recurrence != nil {
			overrides[ev.uid] = append(overrides[ev.uid], ev)
			continue
		}
		if _, dup := base[ev.uid]; !dup {
			order = append(order, ev.uid)
		}
		base[ev.uid] = ev
	}

	var events []*Event
	for _, uid := range order {
		events = append(events, s.expand(base[uid], overrides[uid], start, end)...)
	}
	return inWindow(events, start, end), nil
}

func (s *ICSSource) expand(ev icsEvent, overrides []icsEvent, start, end time.Time) []*Event {
	if ev.rrule == "" {
		return []*Event{s.occurrence(ev, ev.uid, ev.start, ev.end)}
	}

	r, err := rrule.StrToRRule(ev.rrule)
	if err != nil {
		applog.Error("bad recurrence rule", err, "uid", ev.uid, "rrule", ev.rrule)
		return nil
	}
	r.DTStart(ev.start)

	var set rrule.Set
	set.RRule(r)
	for _, ex := range ev.exdates {
		set.ExDate(ex.In(ev.start.Location()))
	}

	length := ev.end.Sub(ev.start)
	loc := ev.start.Location()
	// Occurrences starting before the window may still run into it.
	times := set.Between(start.Add(-length).In(loc), end.In(loc), true)
	if len(times) > maxOccurrences {
		applog.Warn("truncating recurrence", "uid", ev.uid, "cap", maxOccurrences)
		times = times[:maxOccurrences]
	}

	out := make([]*Event, 0, len(times))
	for _, t := range times {
		id := ev.uid + "@" + t.UTC().Format("20060102T150405Z")
		occ, occStart, occEnd := ev, t, t.Add(length)
		for _, o := range overrides {
			if o.recurrence.Equal(t) {
				occ, occStart, occEnd = o, o.start, o.end
				break
			}
		}
		out = append(out, s.occurrence(occ, id, occStart, occEnd))
	}
	return out
}

func (s *ICSSource) occurrence(ev icsEvent, id string, start, end time.Time) *Event {
	minutes := int(end.Sub(start).Minutes())
	if minutes < 0 {
		minutes = 0
	}
	e := NewWithID(id, ev.summary, start.In(time.Local), minutes)
	e.Source = s.Name()
	e.Notes = ev.notes
	e.Tags = ev.tags
	e.Color = ev.color
	e.ReadOnly = true
	return e
}

func (s *ICSSource) WatchFiles() (<-chan FileChangeEvent, error) {
	return s.fileWatch.start(s.path)
}

func (s *ICSSource) StopWatching() error {
	return s.fileWatch.stop()
}

func parseVEvent(ve *ical.VEvent) (icsEvent, error) {
	var out icsEvent

	uidProp := ve.GetProperty(ical.ComponentPropertyUniqueId)
	if uidProp == nil || uidProp.Value == "" {
		return out, fmt.Errorf("missing UID")
	}
	out.uid = uidProp.Value

	if p := ve.GetProperty(ical.ComponentPropertySummary); p != nil {
		out.summary = p.Value
	}
	if p := ve.GetProperty(ical.ComponentPropertyDescription); p != nil {
		out.notes = p.Value
	}
	if p := ve.GetProperty(ical.ComponentPropertyCategories); p != nil {
		for _, tag := range strings.Split(p.Value, ",") {
			if tag = strings.TrimSpace(tag); tag != "" {
				out.tags = append(out.tags, tag)
			}
		}
	}
	if p := ve.GetProperty("COLOR"); p != nil {
		out.color = p.Value
	}

	if p := ve.GetProperty(ical.ComponentPropertyDtStart); p != nil {
		if vs := p.ICalParameters["VALUE"]; len(vs) > 0 && strings.EqualFold(vs[0], "DATE") {
			out.allDay = true
		}
		if !strings.Contains(p.Value, "T") {
			out.allDay = true
		}
	}
	if out.allDay {
		return out, nil
	}

	start, err := ve.GetStartAt()
	if err != nil {
		return out, fmt.Errorf("%s: start: %w", out.uid, err)
	}
	out.start = start

	// A missing DTEND means a zero-length event.
	out.end = start
	if end, err := ve.GetEndAt(); err == nil {
		out.end = end
	}

	if p := ve.GetProperty(ical.ComponentPropertyRrule); p != nil {
		out.rrule = p.Value
	}

	for _, p := range ve.GetProperties(ical.ComponentPropertyExdate) {
		for _, part := range strings.Split(p.Value, ",") {
			if t, err := parseICSTime(part, tzidOf(p)); err == nil {
				out.exdates = append(out.exdates, t)
			}
		}
	}

	if p := ve.GetProperty("RECURRENCE-ID"); p != nil {
		if t, err := parseICSTime(p.Value, tzidOf(p)); err == nil {
			out.recurrence = &t
		}
	}

	return out, nil
}

func tzidOf(p *ical.IANAProperty) *time.Location {
	if tz := p.ICalParameters["TZID"]; len(tz) > 0 {
		if loc, err := time.LoadLocation(tz[0]); err == nil {
			return loc
		}
	}
	return time.Local
}

// parseICSTime handles the DATE, floating DATE-TIME and UTC DATE-TIME forms.
func parseICSTime(v string, loc *time.Location) (time.Time, error) {
	v = strings.TrimSpace(v)
	switch {
	case v == "":
		return time.Time{}, fmt.Errorf("empty time value")
	case strings.HasSuffix(v, "Z"):
		return time.Parse("20060102T150405Z", v)
	case strings.Contains(v, "T"):
		return time.ParseInLocation("20060102T150405", v, loc)
	default:
		return time.ParseInLocation("20060102", v, loc)
	}
}
