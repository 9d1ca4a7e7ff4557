package web

import (
	"net/http"
	"time"

	"invcal/internal/calview"
	appLog "invcal/internal/log"
	"invcal/internal/model"
)

// eventDTO is the JSON shape events take in every web response.
type eventDTO struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Author      string    `json:"author,omitempty"`
	Location    string    `json:"location,omitempty"`
	AllDay      bool      `json:"allDay"`
	StartTime   time.Time `json:"startTime"`
	EndTime     time.Time `json:"endTime"`
	Color       string    `json:"color,omitempty"`
	IsCompleted bool      `json:"isCompleted"`
	ReadOnly    bool      `json:"readOnly,omitempty"`
	SourceID    string    `json:"sourceId,omitempty"`
}

func toEventDTO(ev model.Event) eventDTO {
	return eventDTO{
		ID:          ev.ID,
		Title:       ev.Title,
		Description: ev.Description,
		Author:      ev.Author,
		Location:    ev.Location,
		AllDay:      ev.AllDay,
		StartTime:   ev.Start,
		EndTime:     ev.End,
		Color:       ev.Color,
		IsCompleted: ev.Completed,
		ReadOnly:    ev.ReadOnly,
		SourceID:    ev.SourceID,
	}
}

func fromEventDTO(d eventDTO) model.Event {
	ev := model.Event{
		ID:          d.ID,
		Title:       d.Title,
		Description: d.Description,
		Author:      d.Author,
		Location:    d.Location,
		AllDay:      d.AllDay,
		Start:       d.StartTime,
		End:         d.EndTime,
		Color:       d.Color,
		Completed:   d.IsCompleted,
	}
	ev.NormalizeAllDay()
	return ev
}

// placedEvent is one event laid out inside a specific day cell: membership is
// already decided, the segment drives the cap styling and the offset (timed
// events only) the hour-grid position.
type placedEvent struct {
	eventDTO
	Segment calview.Segment `json:"segment"`
	Offset  *calview.Offset `json:"offset,omitempty"`
	// ShowLabel: 멀티데이 이벤트의 제목은 시작일 칸에만 표시한다.
	ShowLabel bool `json:"showLabel"`
}

// dayDTO is one rendered day: a month-grid cell or a week/day column.
type dayDTO struct {
	Date    string        `json:"date"`
	Weekday string        `json:"weekday"`
	InMonth bool          `json:"inMonth"`
	Weekend bool          `json:"weekend"`
	Holiday string        `json:"holiday,omitempty"`
	Events  []placedEvent `json:"events"`
}

// calendarResponse is the full layout for one (reference, granularity) pair.
type calendarResponse struct {
	Reference   string              `json:"reference"`
	Granularity calview.Granularity `json:"granularity"`
	Timezone    string              `json:"timezone"`

	Label    string `json:"label"`
	FirstDay string `json:"firstDay"`
	LastDay  string `json:"lastDay"`
	Prev     string `json:"prev"`
	Next     string `json:"next"`

	RangeStart time.Time `json:"rangeStart"`
	RangeEnd   time.Time `json:"rangeEnd"`

	// Cells is the 42-cell month grid; Days the week/day column list. Only
	// one of the two is populated, depending on granularity.
	Cells []dayDTO `json:"cells,omitempty"`
	Days  []dayDTO `json:"days,omitempty"`
}

// handleCalendar computes the renderable layout for a reference date and view
// granularity.
//
// GET /api/calendar?date=2024-02-15&view=month|week|day
func (s *Server) handleCalendar(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()

	ref := time.Now().In(s.loc)
	if ds := q.Get("date"); ds != "" {
		parsed, err := time.ParseInLocation(calview.DayKeyFormat, ds, s.loc)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid date: "+ds)
			return
		}
		ref = parsed
	}

	gran, err := calview.ParseGranularity(q.Get("view"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid view: "+q.Get("view"))
		return
	}

	start, end := calview.PeriodBounds(ref, gran)

	// The visible range can exceed the period bounds (month-grid padding
	// days), so the holiday index and the event fetch both use the grid's
	// outer dates.
	var days []calview.DayCell
	switch gran {
	case calview.GranularityMonth:
		days = calview.MonthGrid(ref)
	case calview.GranularityWeek:
		for _, d := range calview.WeekDays(ref) {
			days = append(days, calview.DayCell{Date: d, InMonth: true})
		}
	default:
		days = []calview.DayCell{{Date: calview.StartOfDay(ref), InMonth: true}}
	}
	firstVisible := days[0].Date
	lastVisible := days[len(days)-1].Date

	s.hols.EnsureRange(ctx, firstVisible, lastVisible)

	evs, err := s.mergedEvents(ctx, firstVisible, calview.EndOfDay(lastVisible))
	if err != nil {
		appLog.Error("calendar: event fetch failed; rendering empty grid", err)
		evs = []model.Event{}
	}

	first, last := calview.HeaderBounds(ref, gran)
	resp := calendarResponse{
		Reference:   calview.DayKey(ref),
		Granularity: gran,
		Timezone:    s.loc.String(),
		Label:       calview.HeaderLabel(ref, gran),
		FirstDay:    calview.DayKey(first),
		LastDay:     calview.DayKey(last),
		Prev:        calview.DayKey(calview.Prev(ref, gran)),
		Next:        calview.DayKey(calview.Next(ref, gran)),
		RangeStart:  start,
		RangeEnd:    end,
	}

	rendered := make([]dayDTO, 0, len(days))
	for _, cell := range days {
		rendered = append(rendered, s.renderDay(cell, evs))
	}
	if gran == calview.GranularityMonth {
		resp.Cells = rendered
	} else {
		resp.Days = rendered
	}

	writeJSON(w, http.StatusOK, resp)
}

// renderDay applies the per-day membership predicate and placement math to
// one day cell.
func (s *Server) renderDay(cell calview.DayCell, evs []model.Event) dayDTO {
	d := dayDTO{
		Date:    calview.DayKey(cell.Date),
		Weekday: calview.WeekdayKo(cell.Date),
		InMonth: cell.InMonth,
		Weekend: calview.IsWeekend(cell.Date),
		Events:  []placedEvent{},
	}
	if name, ok := s.hols.Lookup(cell.Date); ok {
		d.Holiday = name
	}

	for _, ev := range calview.EventsOnDay(evs, cell.Date) {
		seg := calview.MultiDaySegment(ev, cell.Date)
		pe := placedEvent{
			eventDTO:  toEventDTO(ev),
			Segment:   seg,
			ShowLabel: !seg.IsMultiDay || seg.IsStartDay,
		}
		if !ev.AllDay {
			off := calview.TimeOffset(ev)
			pe.Offset = &off
		}
		d.Events = append(d.Events, pe)
	}
	return d
}

// handleHolidays returns the holiday names of one (year, month).
//
// GET /api/holidays?year=2024&month=1
func (s *Server) handleHolidays(w http.ResponseWriter, r *http.Request) {
	year := parseIntDefault(r.URL.Query().Get("year"), time.Now().In(s.loc).Year())
	monthNum := parseIntDefault(r.URL.Query().Get("month"), int(time.Now().In(s.loc).Month()))
	if monthNum < 1 || monthNum > 12 {
		writeError(w, http.StatusBadRequest, "month out of range")
		return
	}
	month := time.Month(monthNum)

	if err := s.hols.EnsureMonth(r.Context(), year, month); err != nil {
		// Serve whatever the index already holds; stale beats empty.
		appLog.Error("holidays: ensure failed; serving accumulated index", err, "year", year, "month", monthNum)
	}

	prefix := time.Date(year, month, 1, 0, 0, 0, 0, s.loc).Format("2006-01")
	out := make(map[string]string)
	for k, v := range s.hols.Snapshot() {
		if len(k) >= 7 && k[:7] == prefix {
			out[k] = v
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"year":     year,
		"month":    monthNum,
		"holidays": out,
	})
}
