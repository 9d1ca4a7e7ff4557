package calview

import (
	"fmt"
	"time"
)

// 요일 표기는 콘솔 UI와 동일하게 한 글자 한글을 쓴다.
var weekdayNamesKo = [7]string{"일", "월", "화", "수", "목", "금", "토"}

// WeekdayKo returns the one-character Korean weekday name for t.
func WeekdayKo(t time.Time) string {
	return weekdayNamesKo[int(t.Weekday())]
}

// HeaderBounds exposes the raw first/last day of the viewed period so a
// presentation layer can derive its own label text. For month view these are
// the first and last day of the month; for week view the Sunday and Saturday;
// for day view both equal the reference day.
func HeaderBounds(ref time.Time, g Granularity) (first, last time.Time) {
	switch g {
	case GranularityWeek:
		first = startOfWeek(ref)
		last = first.AddDate(0, 0, 6)
	case GranularityDay:
		first = StartOfDay(ref)
		last = first
	default:
		first = time.Date(ref.Year(), ref.Month(), 1, 0, 0, 0, 0, ref.Location())
		last = first.AddDate(0, 1, -1)
	}
	return first, last
}

// HeaderLabel formats the Korean header text for the viewed period.
//
//   - month: "2024년 2월"
//   - week, same month:          "2024년 2월 11일 – 17일"
//   - week, same year:           "2024년 1월 28일 – 2월 3일"
//   - week, across year boundary: "2024년 12월 29일 – 2025년 1월 4일"
//   - day:   "2024년 2월 15일 (목)"
func HeaderLabel(ref time.Time, g Granularity) string {
	first, last := HeaderBounds(ref, g)

	switch g {
	case GranularityWeek:
		switch {
		case first.Year() == last.Year() && first.Month() == last.Month():
			return fmt.Sprintf("%d년 %d월 %d일 – %d일",
				first.Year(), int(first.Month()), first.Day(), last.Day())
		case first.Year() == last.Year():
			return fmt.Sprintf("%d년 %d월 %d일 – %d월 %d일",
				first.Year(), int(first.Month()), first.Day(),
				int(last.Month()), last.Day())
		default:
			return fmt.Sprintf("%d년 %d월 %d일 – %d년 %d월 %d일",
				first.Year(), int(first.Month()), first.Day(),
				last.Year(), int(last.Month()), last.Day())
		}
	case GranularityDay:
		return fmt.Sprintf("%d년 %d월 %d일 (%s)",
			ref.Year(), int(ref.Month()), ref.Day(), WeekdayKo(ref))
	default:
		return fmt.Sprintf("%d년 %d월", ref.Year(), int(ref.Month()))
	}
}
