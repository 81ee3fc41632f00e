package recurrence

import (
	"fmt"
	"slices"
	"time"
)

// monthCycle is the length in months of the Gregorian leap cycle. The pattern
// of month lengths repeats after it, so a month-day search that finds nothing
// within it never will.
const monthCycle = 400 * 12

type stopReason int

const (
	stopCallback stopReason = iota // fn asked to stop
	stopCap                        // MaxOccurrences reached
	stopEnd                        // end condition or horizon reached
)

// Generate expands rule into at most opts.MaxOccurrences occurrences in
// strictly increasing order. Generation stops at the rule's end condition or
// at opts.Horizon, whichever comes first. Every occurrence carries the anchor's
// time of day and location.
func Generate(rule Rule, opts ExpansionOptions) ([]time.Time, error) {
	occurrences := make([]time.Time, 0, max(0, min(opts.MaxOccurrences, 64)))
	_, err := walk(rule, opts, func(t time.Time) bool {
		occurrences = append(occurrences, t)
		return true
	})
	if err != nil {
		return nil, err
	}
	return occurrences, nil
}

// Next returns the first occurrence falling on a later calendar day than
// after. The boolean is false when the series (or opts.Horizon) ends first.
// Walking from the anchor is capped by opts.MaxOccurrences; running out of
// budget before passing after yields ErrLimitExceeded.
func Next(rule Rule, after time.Time, opts ExpansionOptions) (time.Time, bool, error) {
	var next time.Time
	found := false
	reason, err := walk(rule, opts, func(t time.Time) bool {
		if dayAfter(t, after) {
			next, found = t, true
			return false
		}
		return true
	})
	if err != nil {
		return time.Time{}, false, err
	}
	if !found && reason == stopCap {
		return time.Time{}, false, fmt.Errorf("%w: %d occurrences generated without passing %s",
			ErrLimitExceeded, opts.MaxOccurrences, after.Format(time.DateOnly))
	}
	return next, found, nil
}

// walk feeds occurrences to fn in order until fn returns false or a bound
// fires, and reports which one stopped it.
func walk(rule Rule, opts ExpansionOptions, fn func(time.Time) bool) (stopReason, error) {
	if opts.MaxOccurrences <= 0 {
		return stopEnd, fmt.Errorf("%w: max occurrences must be positive, got %d",
			ErrInvalidArgument, opts.MaxOccurrences)
	}
	if !rule.frequency.Valid() || rule.interval < 1 {
		return stopEnd, fmt.Errorf("%w: rule was not built by Validate", ErrInvalidArgument)
	}

	endDate, hasEndDate := rule.end.Date()
	hasHorizon := !opts.Horizon.IsZero()

	cur, err := first(rule)
	if err != nil {
		return stopEnd, err
	}
	for emitted := 0; ; {
		if hasHorizon && dayAfter(cur, opts.Horizon) {
			return stopEnd, nil
		}
		if hasEndDate && dayAfter(cur, endDate) {
			return stopEnd, nil
		}

		emitted++
		if !fn(cur) {
			return stopCallback, nil
		}

		switch {
		case rule.completeAt(cur, emitted):
			return stopEnd, nil
		case emitted >= opts.MaxOccurrences:
			return stopCap, nil
		}

		if cur, err = advance(rule, cur); err != nil {
			return stopEnd, err
		}
	}
}

// completeAt reports whether the series is over once its emitted-th
// occurrence, last, has been produced
func (r Rule) completeAt(last time.Time, emitted int) bool {
	if count, ok := r.end.Count(); ok && emitted >= count {
		return true
	}
	if endDate, ok := r.end.Date(); ok && !dayBefore(last, endDate) {
		return true
	}
	return false
}

// qualifies reports whether t satisfies the rule's day constraints
func (r Rule) qualifies(t time.Time) bool {
	switch {
	case r.hasWeekdays():
		return slices.Contains(r.daysOfWeek, t.Weekday())
	case r.hasMonthDays():
		return slices.Contains(r.daysOfMonth, t.Day())
	}
	return true
}

// onDay builds a date with the anchor's clock so repeated steps never drift
func (r Rule) onDay(year int, month time.Month, day int) time.Time {
	return at(year, month, day, r.anchor)
}

// First returns the first occurrence of rule: the anchor when it qualifies,
// otherwise the nearest later day that does. That day's week or month is the
// origin the interval is counted from.
func First(rule Rule) (time.Time, error) {
	if !rule.frequency.Valid() || rule.interval < 1 {
		return time.Time{}, fmt.Errorf("%w: rule was not built by Validate", ErrInvalidArgument)
	}
	return first(rule)
}

func first(r Rule) (time.Time, error) {
	if r.qualifies(r.anchor) {
		return r.anchor, nil
	}

	y, m, d := r.anchor.Date()
	switch {
	case r.hasWeekdays():
		for i := 1; i < 7; i++ {
			if next := r.onDay(y, m, d+i); r.qualifies(next) {
				return next, nil
			}
		}
	case r.hasMonthDays():
		if day, ok := laterDayIn(r.daysOfMonth, y, m, d); ok {
			return r.onDay(y, m, day), nil
		}
		// Every listed day exists in one of any two consecutive months
		for step := 0; step < 12; step++ {
			y, m = normalizeMonth(y, m+1)
			if day, ok := firstDayIn(r.daysOfMonth, y, m); ok {
				return r.onDay(y, m, day), nil
			}
		}
	}
	return time.Time{}, fmt.Errorf("%w: no %s candidate follows %s",
		ErrInternalInvariant, r.frequency, r.anchor.Format(time.DateOnly))
}

// advance returns the candidate following cur. cur must be the first
// occurrence or an earlier result of advance.
func advance(r Rule, cur time.Time) (time.Time, error) {
	y, m, d := cur.Date()
	var (
		next time.Time
		ok   = true
	)

	switch r.frequency {
	case Daily:
		next = r.onDay(y, m, d+r.interval)
	case Weekly:
		if r.hasWeekdays() {
			next, ok = r.nextListedWeekday(cur)
		} else {
			next = r.onDay(y, m, d+7*r.interval)
		}
	case Monthly:
		if r.hasMonthDays() {
			next, ok = r.nextListedMonthDay(cur)
		} else {
			// Count whole periods from the anchor; stepping from a clamped
			// date would lose the anchor day for good.
			k := monthIndex(cur) - monthIndex(r.anchor) + r.interval
			next = clamped(r.anchor.Year(), r.anchor.Month()+time.Month(k), r.anchor.Day(), r.anchor)
		}
	case Yearly:
		next = clamped(y+r.interval, r.anchor.Month(), r.anchor.Day(), r.anchor)
	default:
		ok = false
	}

	if !ok {
		return time.Time{}, fmt.Errorf("%w: %s rule has no candidate after %s",
			ErrInternalInvariant, r.frequency, cur.Format(time.DateOnly))
	}
	if !dayAfter(next, cur) {
		return time.Time{}, fmt.Errorf("%w: candidate %s does not follow %s",
			ErrInternalInvariant, next.Format(time.DateOnly), cur.Format(time.DateOnly))
	}
	return next, nil
}

// nextListedWeekday scans the rest of cur's week, then jumps interval weeks
// and takes the earliest listed weekday there. Weeks start on Monday.
func (r Rule) nextListedWeekday(cur time.Time) (time.Time, bool) {
	if len(r.daysOfWeek) == 0 {
		return time.Time{}, false
	}
	y, m, d := cur.Date()
	off := mondayOffset(cur.Weekday())
	for _, wd := range r.daysOfWeek {
		if o := mondayOffset(wd); o > off {
			return r.onDay(y, m, d+o-off), true
		}
	}
	o := mondayOffset(r.daysOfWeek[0])
	return r.onDay(y, m, d-off+7*r.interval+o), true
}

// nextListedMonthDay picks the next listed day later in cur's month, or the
// smallest listed day that exists in a month interval months on. Listed days
// a month lacks are skipped for that month.
func (r Rule) nextListedMonthDay(cur time.Time) (time.Time, bool) {
	y, m, d := cur.Date()
	if day, ok := laterDayIn(r.daysOfMonth, y, m, d); ok {
		return r.onDay(y, m, day), true
	}
	for step := 0; step < monthCycle; step++ {
		y, m = normalizeMonth(y, m+time.Month(r.interval))
		if day, ok := firstDayIn(r.daysOfMonth, y, m); ok {
			return r.onDay(y, m, day), true
		}
	}
	return time.Time{}, false
}

// laterDayIn returns the smallest listed day after after that the month has
func laterDayIn(days []int, year int, month time.Month, after int) (int, bool) {
	for _, day := range days {
		if day > after && day <= daysIn(year, month) {
			return day, true
		}
	}
	return 0, false
}

func firstDayIn(days []int, year int, month time.Month) (int, bool) {
	for _, day := range days {
		if day <= daysIn(year, month) {
			return day, true
		}
	}
	return 0, false
}
