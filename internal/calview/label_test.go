package calview

import (
	"testing"
	"time"
)

func TestHeaderBoundsMonth(t *testing.T) {
	first, last := HeaderBounds(date(2024, time.February, 15), GranularityMonth)
	if !first.Equal(date(2024, time.February, 1)) || !last.Equal(date(2024, time.February, 29)) {
		t.Errorf("HeaderBounds = %v..%v, want 2024-02-01..2024-02-29", first, last)
	}
}

func TestHeaderBoundsDay(t *testing.T) {
	ref := time.Date(2024, time.February, 15, 18, 0, 0, 0, time.UTC)
	first, last := HeaderBounds(ref, GranularityDay)
	if !first.Equal(date(2024, time.February, 15)) || !last.Equal(first) {
		t.Errorf("HeaderBounds = %v..%v, want the reference day twice", first, last)
	}
}

func TestHeaderLabel(t *testing.T) {
	tests := []struct {
		name string
		ref  time.Time
		g    Granularity
		want string
	}{
		{
			name: "month",
			ref:  date(2024, time.February, 15),
			g:    GranularityMonth,
			want: "2024년 2월",
		},
		{
			name: "week within one month",
			ref:  date(2024, time.February, 15), // week 02-11 .. 02-17
			g:    GranularityWeek,
			want: "2024년 2월 11일 – 17일",
		},
		{
			name: "week across month boundary",
			ref:  date(2024, time.January, 30), // week 01-28 .. 02-03
			g:    GranularityWeek,
			want: "2024년 1월 28일 – 2월 3일",
		},
		{
			name: "week across year boundary",
			ref:  date(2024, time.December, 31), // week 12-29 .. 2025-01-04
			g:    GranularityWeek,
			want: "2024년 12월 29일 – 2025년 1월 4일",
		},
		{
			name: "day",
			ref:  date(2024, time.February, 15), // Thursday
			g:    GranularityDay,
			want: "2024년 2월 15일 (목)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HeaderLabel(tt.ref, tt.g); got != tt.want {
				t.Errorf("HeaderLabel = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestWeekdayKo(t *testing.T) {
	if got := WeekdayKo(date(2024, time.February, 11)); got != "일" {
		t.Errorf("WeekdayKo(Sunday) = %q, want 일", got)
	}
	if got := WeekdayKo(date(2024, time.February, 17)); got != "토" {
		t.Errorf("WeekdayKo(Saturday) = %q, want 토", got)
	}
}
