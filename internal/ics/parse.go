package ics

import (
	"bytes"
	"errors"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"

	appLog "invcal/internal/log"
)

// FeedEvent is a normalized VEVENT before recurrence expansion.
type FeedEvent struct {
	Source Source

	UID string

	Title       string
	Description string
	Location    string

	Start  time.Time
	End    time.Time
	AllDay bool

	RawRRule   string
	ExDates    []time.Time
	Recurrence *time.Time // RECURRENCE-ID of an overridden instance
	IsOverride bool
}

// Parse parses one ICS payload into FeedEvents. Individual broken VEVENTs are
// logged and skipped; the rest of the feed still parses. Recurrence rules are
// only recorded here; expansion happens in expand.go.
func Parse(src Source, body []byte) ([]FeedEvent, error) {
	if len(body) == 0 {
		return nil, errors.New("ics: empty feed body")
	}

	cal, err := ical.ParseCalendar(bytes.NewReader(body))
	if err != nil {
		appLog.Error("ics parse failed", err, "id", src.ID)
		return nil, err
	}

	events := make([]FeedEvent, 0)
	for _, ve := range cal.Events() {
		fe, perr := parseVEvent(src, ve)
		if perr != nil {
			appLog.Error("ics vevent skipped", perr, "id", src.ID)
			continue
		}
		events = append(events, fe)
	}

	appLog.Info("ics parse completed", "id", src.ID, "event_count", len(events))
	return events, nil
}

func parseVEvent(src Source, ve *ical.VEvent) (FeedEvent, error) {
	var out FeedEvent
	out.Source = src

	uid := ve.GetProperty(ical.ComponentPropertyUniqueId)
	if uid == nil || uid.Value == "" {
		return out, errors.New("missing UID")
	}
	out.UID = uid.Value

	if p := ve.GetProperty(ical.ComponentPropertySummary); p != nil {
		out.Title = p.Value
	}
	if p := ve.GetProperty(ical.ComponentPropertyDescription); p != nil {
		out.Description = p.Value
	}
	if p := ve.GetProperty(ical.ComponentPropertyLocation); p != nil {
		out.Location = p.Value
	}

	// The library's helpers handle VTIMEZONE/TZID resolution.
	out.Start, _ = ve.GetStartAt()
	out.End, _ = ve.GetEndAt()

	// All-day detection: VALUE=DATE parameter or a date-only DTSTART value.
	if p := ve.GetProperty(ical.ComponentPropertyDtStart); p != nil {
		if params := p.ICalParameters; params != nil {
			if vs, ok := params["VALUE"]; ok && len(vs) > 0 && strings.EqualFold(vs[0], "DATE") {
				out.AllDay = true
			}
		}
		if !strings.Contains(p.Value, "T") {
			out.AllDay = true
		}
		// GetStartAt refuses date-only values; parse them ourselves.
		if out.Start.IsZero() {
			if t, err := parseICSTime(p.Value); err == nil {
				out.Start = t
			}
		}
	}
	if p := ve.GetProperty(ical.ComponentPropertyDtEnd); p != nil && out.End.IsZero() {
		if t, err := parseICSTime(p.Value); err == nil {
			out.End = t
		}
	}
	if out.Start.IsZero() {
		return out, errors.New("missing DTSTART")
	}
	if out.End.IsZero() {
		out.End = out.Start
	}

	if p := ve.GetProperty(ical.ComponentPropertyRrule); p != nil {
		out.RawRRule = p.Value
	}

	for _, p := range ve.GetProperties(ical.ComponentPropertyExdate) {
		for _, part := range strings.Split(p.Value, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			if t, err := parseICSTime(part); err == nil {
				out.ExDates = append(out.ExDates, t)
			}
		}
	}

	if p := ve.GetProperty("RECURRENCE-ID"); p != nil {
		if t, err := parseICSTime(p.Value); err == nil {
			out.Recurrence = &t
			out.IsOverride = true
		}
	}

	return out, nil
}

// parseICSTime handles the basic DATE / DATE-TIME / UTC forms used by
// EXDATE and RECURRENCE-ID values.
func parseICSTime(v string) (time.Time, error) {
	v = strings.TrimSpace(v)
	switch {
	case v == "":
		return time.Time{}, errors.New("empty time value")
	case strings.HasSuffix(v, "Z"):
		return time.Parse("20060102T150405Z", v)
	case strings.Contains(v, "T"):
		return time.ParseInLocation("20060102T150405", v, time.Local)
	default:
		return time.ParseInLocation("20060102", v, time.Local)
	}
}
