package calview

import (
	"time"

	"invcal/internal/model"
)

const minutesPerDay = 24 * 60

// Segment describes how an event renders inside one day cell of a multi-day
// span: rounded left cap on the start day, rounded right cap on the end day,
// square through the middle. The title is shown only on the start day of a
// multi-day span.
type Segment struct {
	IsMultiDay bool `json:"is_multi_day"`
	IsStartDay bool `json:"is_start_day"`
	IsEndDay   bool `json:"is_end_day"`
}

// Offset is the vertical placement of a timed event on a full-day hour grid,
// expressed as percentages of the 1440-minute day.
type Offset struct {
	TopPercent    float64 `json:"top_percent"`
	HeightPercent float64 `json:"height_percent"`
}

// SlotSpan is the portion of a single hour row covered by an event, as
// percentages of that row.
type SlotSpan struct {
	TopPercent    float64 `json:"top_percent"`
	HeightPercent float64 `json:"height_percent"`
}

// EventOnDay is the sole day-membership predicate used by month, week and day
// rendering. It must be evaluated per day, not per period, so that multi-day
// events appear in every cell they span.
//
// All-day events compare at day resolution; timed events test interval
// overlap against [00:00, 23:59:59.999999999] of the day.
func EventOnDay(ev model.Event, day time.Time) bool {
	if ev.AllDay {
		d := StartOfDay(day)
		return !d.Before(StartOfDay(ev.Start)) && !d.After(StartOfDay(ev.End))
	}
	return !ev.Start.After(EndOfDay(day)) && !ev.End.Before(StartOfDay(day))
}

// EventsOnDay filters events down to those on the given day, preserving input
// order.
func EventsOnDay(events []model.Event, day time.Time) []model.Event {
	out := make([]model.Event, 0)
	for _, ev := range events {
		if EventOnDay(ev, day) {
			out = append(out, ev)
		}
	}
	return out
}

// MultiDaySegment classifies the rendering of ev inside the given day cell.
// Purely cosmetic; day membership is decided by EventOnDay.
func MultiDaySegment(ev model.Event, day time.Time) Segment {
	start := StartOfDay(ev.Start)
	end := StartOfDay(ev.End)
	d := StartOfDay(day)
	return Segment{
		IsMultiDay: end.After(start),
		IsStartDay: d.Equal(start),
		IsEndDay:   d.Equal(end),
	}
}

// TimeOffset places a timed event on the full-day hour grid using only the
// time-of-day components of its start and end.
//
// Events crossing midnight are clipped to the day being rendered: the end
// minutes wrap below the start minutes and the height goes non-positive.
// The console UI was built around that truncation, so it is kept as a known
// limitation rather than fixed here.
func TimeOffset(ev model.Event) Offset {
	startMin := ev.Start.Hour()*60 + ev.Start.Minute()
	endMin := ev.End.Hour()*60 + ev.End.Minute()
	return Offset{
		TopPercent:    float64(startMin) / minutesPerDay * 100,
		HeightPercent: float64(endMin-startMin) / minutesPerDay * 100,
	}
}

// SlotOffset computes the portion of one hour row [slotStart, slotEnd)
// covered by ev, for the hour-bucketed week/day rendering. Both edges are
// clamped into the row.
func SlotOffset(ev model.Event, slotStart, slotEnd time.Time) SlotSpan {
	slotLen := slotEnd.Sub(slotStart)
	if slotLen <= 0 {
		return SlotSpan{}
	}
	top := clamp01(float64(ev.Start.Sub(slotStart)) / float64(slotLen))
	bottom := clamp01(float64(ev.End.Sub(slotStart)) / float64(slotLen))
	return SlotSpan{
		TopPercent:    top * 100,
		HeightPercent: (bottom - top) * 100,
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
