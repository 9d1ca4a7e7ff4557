package model

import "time"

// Event is a single calendar entry of the inventory console: either a
// user-created schedule from the console API or a read-only occurrence
// expanded from a subscribed ICS feed.
type Event struct {
	// ID is an opaque unique identifier assigned by the owning source.
	ID string

	Title       string
	Description string
	Author      string
	Location    string

	AllDay bool

	// Start / End are absolute instants in the configured display timezone.
	// End is never before Start. For all-day events the range is normalized
	// to 00:00:00 of the start day through 23:59:59.999999999 of the end day.
	Start time.Time
	End   time.Time

	// Color is a display token (e.g. "#3b82f6"); opaque to the calendar math.
	Color string

	// Completed is cosmetic only; it has no effect on placement.
	Completed bool

	// ReadOnly marks events that cannot be mutated through the console API
	// (ICS feed occurrences).
	ReadOnly bool

	// SourceID identifies the feed an ICS occurrence came from; empty for
	// API events.
	SourceID string
}

// NormalizeAllDay widens an all-day event's range to full-day bounds in the
// event's own location. No-op for timed events.
func (e *Event) NormalizeAllDay() {
	if !e.AllDay {
		return
	}
	s := e.Start
	t := e.End
	if t.Before(s) {
		t = s
	}
	e.Start = time.Date(s.Year(), s.Month(), s.Day(), 0, 0, 0, 0, s.Location())
	e.End = time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, 999999999, t.Location())
}
