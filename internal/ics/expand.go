package ics

import (
	"errors"
	"time"

	"github.com/teambition/rrule-go"

	appLog "invcal/internal/log"
	"invcal/internal/model"
)

const defaultOccurrenceCap = 5000

// ExpandConfig controls recurrence expansion.
type ExpandConfig struct {
	// DisplayLocation is the timezone all occurrences are converted into.
	// Nil means time.Local.
	DisplayLocation *time.Location

	// RangeStart / RangeEnd bound the expansion window (inclusive).
	RangeStart time.Time
	RangeEnd   time.Time

	// OccurrenceCap limits occurrences per event so a broken RRULE cannot
	// explode the calendar. Zero selects the default cap.
	OccurrenceCap int
}

// Expand turns parsed feed events into concrete, read-only model.Events
// inside the requested window. Handles plain events, RRULE recurrence,
// EXDATE removals and RECURRENCE-ID overrides.
func Expand(events []FeedEvent, cfg ExpandConfig) ([]model.Event, error) {
	if cfg.RangeEnd.Before(cfg.RangeStart) {
		return nil, errors.New("ics: expand range end before start")
	}
	if cfg.DisplayLocation == nil {
		cfg.DisplayLocation = time.Local
	}
	if cfg.OccurrenceCap <= 0 {
		cfg.OccurrenceCap = defaultOccurrenceCap
	}

	// Split base events from instance overrides, grouped by UID.
	baseByUID := make(map[string][]FeedEvent)
	overridesByUID := make(map[string][]FeedEvent)
	for _, fe := range events {
		if fe.IsOverride && fe.Recurrence != nil {
			overridesByUID[fe.UID] = append(overridesByUID[fe.UID], fe)
		} else {
			baseByUID[fe.UID] = append(baseByUID[fe.UID], fe)
		}
	}

	out := make([]model.Event, 0)
	for uid, bases := range baseByUID {
		overrides := overridesByUID[uid]
		for _, fe := range bases {
			occ, hitCap := expandOne(fe, overrides, cfg)
			out = append(out, occ...)
			if hitCap {
				appLog.Error("ics expand truncated", errors.New("occurrence cap reached"),
					"uid", uid, "cap", cfg.OccurrenceCap)
			}
		}
	}
	return out, nil
}

func expandOne(fe FeedEvent, overrides []FeedEvent, cfg ExpandConfig) ([]model.Event, bool) {
	if fe.RawRRule == "" {
		if !rangesOverlap(fe.Start, fe.End, cfg.RangeStart, cfg.RangeEnd) {
			return nil, false
		}
		src, start, end := fe, fe.Start, fe.End
		if ov, ok := findOverride(overrides, fe.Start); ok {
			src, start, end = ov, ov.Start, ov.End
		}
		return []model.Event{makeEvent(src, start, end, cfg.DisplayLocation)}, false
	}

	r, err := rrule.StrToRRule(fe.RawRRule)
	if err != nil {
		appLog.Error("ics rrule parse failed", err, "uid", fe.UID, "rrule", fe.RawRRule)
		return nil, false
	}
	r.DTStart(fe.Start)

	var set rrule.Set
	set.RRule(r)
	for _, ex := range fe.ExDates {
		set.ExDate(ex.In(fe.Start.Location()))
	}

	// Between operates in the event's own timezone.
	loc := fe.Start.Location()
	starts := set.Between(cfg.RangeStart.In(loc), cfg.RangeEnd.In(loc), true)

	hitCap := false
	if len(starts) > cfg.OccurrenceCap {
		starts = starts[:cfg.OccurrenceCap]
		hitCap = true
	}

	dur := fe.End.Sub(fe.Start)
	out := make([]model.Event, 0, len(starts))
	for _, occStart := range starts {
		var occEnd time.Time
		if fe.AllDay {
			occStart = time.Date(occStart.Year(), occStart.Month(), occStart.Day(), 0, 0, 0, 0, occStart.Location())
			occEnd = occStart
		} else {
			occEnd = occStart.Add(dur)
		}

		src, start, end := fe, occStart, occEnd
		if ov, ok := findOverride(overrides, occStart); ok {
			src, start, end = ov, ov.Start, ov.End
		}
		out = append(out, makeEvent(src, start, end, cfg.DisplayLocation))
	}
	return out, hitCap
}

// findOverride locates the override whose RECURRENCE-ID matches occStart.
func findOverride(overrides []FeedEvent, occStart time.Time) (FeedEvent, bool) {
	for _, ov := range overrides {
		if ov.Recurrence == nil {
			continue
		}
		if ov.Recurrence.In(occStart.Location()).Equal(occStart) {
			return ov, true
		}
	}
	return FeedEvent{}, false
}

// makeEvent converts a feed event instance into a read-only model.Event in
// the display timezone. The ID combines source, UID and instance start so a
// recurring event yields distinct IDs per occurrence.
func makeEvent(fe FeedEvent, start, end time.Time, loc *time.Location) model.Event {
	startLocal := start.In(loc)
	endLocal := end.In(loc)

	// iCalendar all-day DTEND is exclusive; our model is inclusive of the
	// last day.
	if fe.AllDay && endLocal.After(startLocal) {
		endLocal = endLocal.AddDate(0, 0, -1)
	}

	ev := model.Event{
		ID:          fe.Source.ID + "/" + fe.UID + "/" + startLocal.Format(time.RFC3339),
		Title:       fe.Title,
		Description: fe.Description,
		Author:      fe.Source.Name,
		Location:    fe.Location,
		AllDay:      fe.AllDay,
		Start:       startLocal,
		End:         endLocal,
		Color:       fe.Source.Color,
		ReadOnly:    true,
		SourceID:    fe.Source.ID,
	}
	ev.NormalizeAllDay()
	return ev
}

func rangesOverlap(aStart, aEnd, bStart, bEnd time.Time) bool {
	return !aEnd.Before(bStart) && !bEnd.Before(aStart)
}
