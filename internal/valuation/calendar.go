package valuation

import "time"

// TradingDaysBetween counts weekdays d with from < d <= to, comparing
// calendar dates only. It returns 0 when to is not after from.
func TradingDaysBetween(from, to time.Time) int {
	start, end := dateOf(from), dateOf(to)
	if !end.After(start) {
		return 0
	}

	days := CalendarDaysBetween(start, end)
	weeks, rest := days/7, days%7
	count := weeks * 5
	wd := start.Weekday()
	for i := 1; i <= rest; i++ {
		switch (wd + time.Weekday(i)) % 7 {
		case time.Saturday, time.Sunday:
		default:
			count++
		}
	}
	return count
}

// CalendarDaysBetween returns the signed number of calendar days from from
// to to.
func CalendarDaysBetween(from, to time.Time) int {
	return int(dateOf(to).Sub(dateOf(from)) / (24 * time.Hour))
}

func dateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
