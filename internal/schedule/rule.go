package schedule

import "time"

// thursday is the ISO weekday index (Monday = 0) of Thursday.
const thursday = 3

// MiddleThursday returns the day of month of the "middle Thursday": the
// Thursday of the week (Monday to Sunday) containing day days/2 of the month.
func MiddleThursday(year int, month time.Month) int {
	mid := daysIn(year, month) / 2
	weekday := Date{Year: year, Month: month, Day: mid}.isoWeekday()
	return mid - (weekday - thursday)
}

// EventDateIn returns the event date for the given month, ignoring hiatuses.
func EventDateIn(year int, month time.Month) Date {
	return Date{Year: year, Month: month, Day: MiddleThursday(year, month)}
}

// IsEventDay reports whether d falls on its month's middle Thursday.
func IsEventDay(d Date) bool {
	return d.Day == MiddleThursday(d.Year, d.Month)
}
