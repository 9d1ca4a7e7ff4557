// Package calview contains the pure calendar layout math of the inventory
// console: period bounds, month/week grids, per-day event membership, and
// hour-grid placement. It performs no I/O and holds no state; callers fetch
// events and holidays themselves and re-run the computations on every view
// change.
package calview

import (
	"errors"
	"time"
)

// Granularity selects the calendar view mode.
type Granularity string

const (
	GranularityMonth Granularity = "month"
	GranularityWeek  Granularity = "week"
	GranularityDay   Granularity = "day"
)

// ParseGranularity maps a query-string value onto a Granularity.
// An empty value defaults to month view.
func ParseGranularity(s string) (Granularity, error) {
	switch s {
	case "", string(GranularityMonth):
		return GranularityMonth, nil
	case string(GranularityWeek):
		return GranularityWeek, nil
	case string(GranularityDay):
		return GranularityDay, nil
	default:
		return "", errors.New("calview: unknown granularity: " + s)
	}
}

// ViewState is the engine input: an anchor date plus the view mode.
type ViewState struct {
	Reference   time.Time
	Granularity Granularity
}

// DayCell is one cell of the month grid. InMonth is false for the
// leading/trailing padding days borrowed from the adjacent months.
type DayCell struct {
	Date    time.Time
	InMonth bool
}

// MonthGridCells is the fixed month-grid size: 6 rows x 7 columns,
// Sunday-first.
const MonthGridCells = 42

// DayKeyFormat is the canonical per-day lookup key layout, shared with the
// holiday index.
const DayKeyFormat = "2006-01-02"

// DayKey formats t as a per-day lookup key in t's own location.
func DayKey(t time.Time) string {
	return t.Format(DayKeyFormat)
}

// StartOfDay returns 00:00:00 of t's calendar day.
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// EndOfDay returns 23:59:59.999999999 of t's calendar day.
func EndOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, 999999999, t.Location())
}

// SameDay reports whether a and b fall on the same calendar day.
func SameDay(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month() && a.Day() == b.Day()
}

// IsWeekend reports whether day is a Sunday or Saturday.
func IsWeekend(day time.Time) bool {
	wd := day.Weekday()
	return wd == time.Sunday || wd == time.Saturday
}

// startOfWeek returns the Sunday of the week containing t, at 00:00:00.
// 주 시작은 일요일 고정이다 (콘솔 UI와 동일).
func startOfWeek(t time.Time) time.Time {
	return StartOfDay(t.AddDate(0, 0, -int(t.Weekday())))
}

// PeriodBounds computes the instant range covered by the view. This is the
// exact range the remote event source is queried with; fetched events are not
// re-filtered against it.
//
//   - month: [first day of month 00:00, first day of next month 00:00)
//   - week:  [Sunday 00:00, Saturday 23:59:59.999999999]
//   - day:   [00:00, 23:59:59.999999999] of the reference day
func PeriodBounds(ref time.Time, g Granularity) (start, end time.Time) {
	switch g {
	case GranularityWeek:
		start = startOfWeek(ref)
		end = EndOfDay(start.AddDate(0, 0, 6))
	case GranularityDay:
		start = StartOfDay(ref)
		end = EndOfDay(ref)
	default: // month
		start = time.Date(ref.Year(), ref.Month(), 1, 0, 0, 0, 0, ref.Location())
		end = start.AddDate(0, 1, 0)
	}
	return start, end
}

// MonthGrid builds the 42-cell month view for the month containing ref:
// leading tail days of the previous month up to the row containing the 1st,
// every day of the month, then trailing days of the next month to fill the
// grid. Always exactly 42 cells, Sunday-first.
func MonthGrid(ref time.Time) []DayCell {
	first := time.Date(ref.Year(), ref.Month(), 1, 0, 0, 0, 0, ref.Location())
	cells := make([]DayCell, 0, MonthGridCells)

	// Leading padding: tail of the previous month.
	lead := int(first.Weekday())
	for i := lead; i > 0; i-- {
		cells = append(cells, DayCell{Date: first.AddDate(0, 0, -i), InMonth: false})
	}

	// Days of the target month.
	nextFirst := first.AddDate(0, 1, 0)
	for d := first; d.Before(nextFirst); d = d.AddDate(0, 0, 1) {
		cells = append(cells, DayCell{Date: d, InMonth: true})
	}

	// Trailing padding up to the fixed cell count. Gregorian months never
	// overflow 42 cells, but degrade to zero trailing cells rather than a
	// negative count if that assumption ever breaks.
	trail := MonthGridCells - len(cells)
	for i := 0; i < trail; i++ {
		cells = append(cells, DayCell{Date: nextFirst.AddDate(0, 0, i), InMonth: false})
	}

	return cells
}

// WeekDays returns the 7 consecutive days, Sunday through Saturday, of the
// week containing ref. Each entry is at 00:00:00.
func WeekDays(ref time.Time) []time.Time {
	sunday := startOfWeek(ref)
	days := make([]time.Time, 7)
	for i := range days {
		days[i] = sunday.AddDate(0, 0, i)
	}
	return days
}

// Next advances the reference date one view period forward: a calendar month
// (native month-add semantics), 7 days, or 1 day.
func Next(ref time.Time, g Granularity) time.Time {
	switch g {
	case GranularityWeek:
		return ref.AddDate(0, 0, 7)
	case GranularityDay:
		return ref.AddDate(0, 0, 1)
	default:
		return ref.AddDate(0, 1, 0)
	}
}

// Prev moves the reference date one view period backward.
func Prev(ref time.Time, g Granularity) time.Time {
	switch g {
	case GranularityWeek:
		return ref.AddDate(0, 0, -7)
	case GranularityDay:
		return ref.AddDate(0, 0, -1)
	default:
		return ref.AddDate(0, -1, 0)
	}
}
