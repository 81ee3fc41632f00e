package recurrence

import (
	"fmt"
	"slices"
	"time"
)

// DraftFeedback carries non-blocking hints for a draft that is being edited
type DraftFeedback struct {
	Warnings    []string
	Suggestions []string
}

// Feedback inspects a possibly incomplete draft and returns hints about
// configurations that are valid but likely surprising.
func Feedback(d Draft) DraftFeedback {
	var fb DraftFeedback
	warn := func(format string, args ...any) { fb.Warnings = append(fb.Warnings, fmt.Sprintf(format, args...)) }
	suggest := func(format string, args ...any) {
		fb.Suggestions = append(fb.Suggestions, fmt.Sprintf(format, args...))
	}

	freq := Frequency(d.Frequency)
	if freq.Valid() && d.Interval < 1 {
		warn("%s intervals below 1 are not valid", freq)
	}
	if freq == Yearly && d.Interval > 5 {
		warn("yearly intervals greater than 5 years create sparse series")
	}
	if freq == Weekly && len(d.DaysOfWeek) > 5 {
		warn("selecting more than 5 days of the week creates a dense series")
	}
	if EndKind(d.EndCondition) == EndAfterOccurrences && d.OccurrenceCount > DefaultExpansionOptions.MaxOccurrences {
		warn("more than %d occurrences exceed the default expansion limit", DefaultExpansionOptions.MaxOccurrences)
	}

	if freq == Monthly {
		switch {
		case slices.Contains(d.DaysOfMonth, 31):
			suggest("months with fewer than 31 days skip day 31")
		case slices.Contains(d.DaysOfMonth, 30):
			suggest("February skips day 30")
		case slices.Contains(d.DaysOfMonth, 29):
			suggest("February in non-leap years skips day 29")
		}
		if len(d.DaysOfMonth) == 0 && !d.Anchor.IsZero() && d.Anchor.Day() > 28 {
			suggest("in shorter months the task falls on the last day instead of day %d", d.Anchor.Day())
		}
	}
	if freq == Yearly && d.Anchor.Month() == time.February && d.Anchor.Day() == 29 {
		suggest("in non-leap years the task falls on February 28")
	}
	if d.EndCondition == "" || EndKind(d.EndCondition) == EndNever {
		suggest("consider setting an end condition; open-ended series are only expanded up to a limit")
	}
	return fb
}

// EstimateOccurrences approximates how many occurrences rule yields up to
// until (zero = no limit) without expanding it. bounded is false for an
// open-ended series with no limit.
func EstimateOccurrences(rule Rule, until time.Time) (n int, bounded bool) {
	if count, ok := rule.end.Count(); ok {
		return count, true
	}
	end := until
	if endDate, ok := rule.end.Date(); ok && (end.IsZero() || dayBefore(endDate, end)) {
		end = endDate
	}
	if end.IsZero() {
		return 0, false
	}
	start, err := First(rule)
	if err != nil || dayBefore(end, start) {
		return 0, true
	}

	var periods, perPeriod int
	switch rule.frequency {
	case Daily:
		periods = daysBetween(start, end) / rule.interval
		perPeriod = 1
	case Weekly:
		periods = daysBetween(weekStart(start), end) / (7 * rule.interval)
		perPeriod = max(1, len(rule.daysOfWeek))
	case Monthly:
		periods = (monthIndex(end) - monthIndex(start)) / rule.interval
		perPeriod = max(1, len(rule.daysOfMonth))
	case Yearly:
		periods = (end.Year() - start.Year()) / rule.interval
		perPeriod = 1
	}
	return (periods + 1) * perPeriod, true
}

// IsOccurrence reports whether rule produces an occurrence on date's
// calendar day, walking at most maxCount occurrences. Running out of budget
// before reaching date yields ErrLimitExceeded.
func IsOccurrence(rule Rule, date time.Time, maxCount int) (bool, error) {
	found := false
	err := scanWindow(rule, Window{End: date}, maxCount, func(t time.Time) bool {
		found = SameDay(t, date)
		return !found
	})
	return found, err
}

// ShouldEnd reports whether a series that has already produced generated
// instances is finished as of asOf.
func ShouldEnd(rule Rule, generated int, asOf time.Time) bool {
	switch rule.end.Kind() {
	case EndAfterOccurrences:
		count, _ := rule.end.Count()
		return generated >= count
	case EndOnDate:
		endDate, _ := rule.end.Date()
		return dayAfter(asOf, endDate)
	}
	return false
}

func daysBetween(from, to time.Time) int {
	a := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
	b := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, time.UTC)
	return int(b.Sub(a).Hours() / 24)
}
