/*
Package recurrence expands task recurrence rules into occurrence dates and
detects collisions with already scheduled dates.

# Rules

Rules are built from raw form input through Validate, which reports every
problem at once:

	res := recurrence.Validate(recurrence.Draft{
		Frequency:       "weekly",
		Interval:        1,
		DaysOfWeek:      []string{"mon", "wed", "fri"},
		EndCondition:    "after_occurrences",
		OccurrenceCount: 10,
		Anchor:          time.Date(2023, 1, 2, 9, 0, 0, 0, time.UTC),
	})
	rule, err := res.Get()
	if err != nil {
		var verrs recurrence.ValidationErrors
		errors.As(err, &verrs)
		// report verrs to the user
	}

A Rule is immutable and can only be obtained this way.

# Expansion

Generate never runs unbounded: every call carries a positive MaxOccurrences
and optionally a Horizon date.

	dates, err := recurrence.Generate(rule, recurrence.ExpansionOptions{
		Horizon:        time.Date(2023, 3, 31, 0, 0, 0, 0, time.UTC),
		MaxOccurrences: 100,
	})

Monthly rules without explicit days keep the anchor day and fall back to the
last day of shorter months (Jan 31, Feb 28, Mar 31, ...). Explicit month days
a month lacks are skipped for that month. Yearly rules anchored on Feb 29 fall
on Feb 28 in other years.

When the anchor is not one of the listed weekdays or month days, the series
starts on the nearest later day that is (see First). Intervals are counted
from that day's week, Monday first, or from its month.

# Conflicts

HasConflict and FindConflicts compare occurrences with existing dates by
calendar day only; the time of day is ignored. A maxCount that runs out
before the end of the window is reported as ErrLimitExceeded rather than as
"no conflict".

# Caching

Engine wraps the package functions with an optional TTL cache of expansions.
All functions are pure and safe for concurrent use.
*/
package recurrence
