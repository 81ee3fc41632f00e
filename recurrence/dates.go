package recurrence

import "time"

// dateKey is a calendar date with the time of day dropped. Two values with the
// same key fall on the same day in their own locations.
type dateKey struct {
	year  int
	month time.Month
	day   int
}

func keyOf(t time.Time) dateKey {
	y, m, d := t.Date()
	return dateKey{year: y, month: m, day: d}
}

func (k dateKey) compare(o dateKey) int {
	switch {
	case k.year != o.year:
		return cmpInt(k.year, o.year)
	case k.month != o.month:
		return cmpInt(int(k.month), int(o.month))
	default:
		return cmpInt(k.day, o.day)
	}
}

func cmpInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// SameDay reports whether a and b fall on the same calendar day, ignoring the
// time of day
func SameDay(a, b time.Time) bool {
	return keyOf(a) == keyOf(b)
}

// DateOnly truncates t to midnight in its own location
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// dayAfter reports whether a falls on a later calendar day than b
func dayAfter(a, b time.Time) bool {
	return keyOf(a).compare(keyOf(b)) > 0
}

// dayBefore reports whether a falls on an earlier calendar day than b
func dayBefore(a, b time.Time) bool {
	return keyOf(a).compare(keyOf(b)) < 0
}

func isLeap(year int) bool {
	return year%4 == 0 && (year%100 != 0 || year%400 == 0)
}

// daysIn returns the number of days in the given month
func daysIn(year int, month time.Month) int {
	switch month {
	case time.February:
		if isLeap(year) {
			return 29
		}
		return 28
	case time.April, time.June, time.September, time.November:
		return 30
	}
	return 31
}

// at builds the date y-m-d carrying ref's clock and location. Out of range
// months and days roll over the way time.Date does.
func at(year int, month time.Month, day int, ref time.Time) time.Time {
	year, month = normalizeMonth(year, month)
	return time.Date(year, month, day, ref.Hour(), ref.Minute(), ref.Second(), ref.Nanosecond(), ref.Location())
}

// clamped is at with day limited to the last day of the month
func clamped(year int, month time.Month, day int, ref time.Time) time.Time {
	year, month = normalizeMonth(year, month)
	return at(year, month, min(day, daysIn(year, month)), ref)
}

func normalizeMonth(year int, month time.Month) (int, time.Month) {
	m := int(month) - 1
	year += m / 12
	m %= 12
	if m < 0 {
		m += 12
		year--
	}
	return year, time.Month(m + 1)
}

// monthIndex counts months from year zero so month distances are a subtraction
func monthIndex(t time.Time) int {
	y, m, _ := t.Date()
	return y*12 + int(m) - 1
}

// mondayOffset is the number of days since the Monday starting t's week
func mondayOffset(d time.Weekday) int {
	return (int(d) + 6) % 7
}

// weekStart returns the Monday on or before t, keeping t's clock
func weekStart(t time.Time) time.Time {
	return t.AddDate(0, 0, -mondayOffset(t.Weekday()))
}
