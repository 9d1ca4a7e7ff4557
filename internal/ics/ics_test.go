package ics

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

const sampleFeed = `BEGIN:VCALENDAR
VERSION:2.0
PRODID:-//test//feed//KO
BEGIN:VEVENT
UID:delivery-1
SUMMARY:부품 입고
LOCATION:1번 창고
DTSTART:20240304T090000Z
DTEND:20240304T100000Z
RRULE:FREQ=WEEKLY;COUNT=4
EXDATE:20240318T090000Z
END:VEVENT
BEGIN:VEVENT
UID:stocktake-1
SUMMARY:전수 조사
DTSTART;VALUE=DATE:20240315
DTEND;VALUE=DATE:20240316
END:VEVENT
END:VCALENDAR
`

func testSource() Source {
	return Source{ID: "feed-a", Name: "협력사 일정", URL: "https://feeds.example.com/a.ics", Color: "#10b981"}
}

func TestParse(t *testing.T) {
	events, err := Parse(testSource(), []byte(sampleFeed))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("len(events) = %d, want 2", len(events))
	}

	recurring := events[0]
	if recurring.UID != "delivery-1" || recurring.Title != "부품 입고" {
		t.Errorf("recurring event = %+v", recurring)
	}
	if recurring.RawRRule == "" {
		t.Error("RRULE was not captured")
	}
	if len(recurring.ExDates) != 1 {
		t.Errorf("len(ExDates) = %d, want 1", len(recurring.ExDates))
	}
	if recurring.AllDay {
		t.Error("timed event misdetected as all-day")
	}

	allDay := events[1]
	if !allDay.AllDay {
		t.Error("VALUE=DATE event should be all-day")
	}
}

func TestParseRejectsEmptyBody(t *testing.T) {
	if _, err := Parse(testSource(), nil); err == nil {
		t.Error("empty body should fail")
	}
}

func TestExpandWeeklyWithExdate(t *testing.T) {
	events, err := Parse(testSource(), []byte(sampleFeed))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	out, err := Expand(events, ExpandConfig{
		DisplayLocation: time.UTC,
		RangeStart:      time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		RangeEnd:        time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("Expand: %v", err)
	}

	// Weekly x4 from 03-04 minus the 03-18 EXDATE = 3 occurrences,
	// plus the single all-day stocktake.
	var deliveries, stocktakes int
	for _, ev := range out {
		switch {
		case strings.HasPrefix(ev.ID, "feed-a/delivery-1/"):
			deliveries++
			if ev.Start.Day() == 18 {
				t.Error("EXDATE occurrence was not removed")
			}
			if !ev.ReadOnly || ev.Color != "#10b981" || ev.SourceID != "feed-a" {
				t.Errorf("occurrence not stamped with source fields: %+v", ev)
			}
			if got := ev.End.Sub(ev.Start); got != time.Hour {
				t.Errorf("occurrence duration = %v, want 1h", got)
			}
		case strings.HasPrefix(ev.ID, "feed-a/stocktake-1/"):
			stocktakes++
			if !ev.AllDay {
				t.Error("stocktake should stay all-day")
			}
			if ev.Start.Hour() != 0 || ev.End.Hour() != 23 {
				t.Errorf("all-day bounds not normalized: %v..%v", ev.Start, ev.End)
			}
		}
	}
	if deliveries != 3 {
		t.Errorf("deliveries = %d, want 3", deliveries)
	}
	if stocktakes != 1 {
		t.Errorf("stocktakes = %d, want 1", stocktakes)
	}
}

func TestExpandRejectsInvertedRange(t *testing.T) {
	_, err := Expand(nil, ExpandConfig{
		RangeStart: time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC),
		RangeEnd:   time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
	})
	if err == nil {
		t.Error("inverted range should fail")
	}
}

func TestExpandSkipsOutOfRangeSingleEvent(t *testing.T) {
	fe := FeedEvent{
		Source: testSource(),
		UID:    "x",
		Start:  time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC),
		End:    time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC),
	}
	out, err := Expand([]FeedEvent{fe}, ExpandConfig{
		DisplayLocation: time.UTC,
		RangeStart:      time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		RangeEnd:        time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("Expand: %v", err)
	}
	if len(out) != 0 {
		t.Errorf("len(out) = %d, want 0", len(out))
	}
}

func TestFetcherRevalidates(t *testing.T) {
	var requests int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		if r.Header.Get("If-None-Match") == `"v1"` {
			w.WriteHeader(http.StatusNotModified)
			return
		}
		w.Header().Set("ETag", `"v1"`)
		w.Write([]byte(sampleFeed))
	}))
	defer srv.Close()

	src := Source{ID: "feed-a", URL: srv.URL}
	f := NewFetcher(t.TempDir())

	first, err := f.FetchOne(context.Background(), src)
	if err != nil {
		t.Fatalf("first fetch: %v", err)
	}
	if first.FromCache {
		t.Error("first fetch should not come from cache")
	}

	second, err := f.FetchOne(context.Background(), src)
	if err != nil {
		t.Fatalf("second fetch: %v", err)
	}
	if !second.FromCache {
		t.Error("second fetch should be served from cache via 304")
	}
	if string(second.Body) != string(first.Body) {
		t.Error("cached body differs from original")
	}
	if requests != 2 {
		t.Errorf("requests = %d, want 2", requests)
	}
}

func TestRedactURL(t *testing.T) {
	got := redactURL("https://feeds.example.com/private/token-abc.ics?sig=xyz")
	if strings.Contains(got, "token-abc") || strings.Contains(got, "sig=") {
		t.Errorf("redactURL leaked secrets: %q", got)
	}
	if !strings.HasPrefix(got, "https://feeds.example.com") {
		t.Errorf("redactURL lost the host: %q", got)
	}
}
