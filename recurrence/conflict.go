package recurrence

import (
	"fmt"
	"time"
)

// Validate rejects a window without an end or with Start after End
func (w Window) Validate() error {
	if w.End.IsZero() {
		return fmt.Errorf("%w: window end is required", ErrInvalidArgument)
	}
	if !w.Start.IsZero() && dayAfter(w.Start, w.End) {
		return fmt.Errorf("%w: window start %s is after end %s",
			ErrInvalidArgument, w.Start.Format(time.DateOnly), w.End.Format(time.DateOnly))
	}
	return nil
}

// Contains reports whether t falls on or after the start day. The end is
// enforced by the expansion horizon.
func (w Window) Contains(t time.Time) bool {
	return w.Start.IsZero() || !dayBefore(t, w.Start)
}

func (w Window) options(maxCount int) ExpansionOptions {
	return ExpansionOptions{Horizon: w.End, MaxOccurrences: maxCount}
}

// HasConflict reports whether any occurrence of rule inside window falls on
// the same calendar day as one of the existing dates. Occurrences are counted
// against maxCount from the anchor, including those before window.Start; a cap
// that runs out before window.End yields ErrLimitExceeded.
func HasConflict(rule Rule, existing []time.Time, window Window, maxCount int) (bool, error) {
	taken := daySet(existing)
	found := false
	err := scanWindow(rule, window, maxCount, func(t time.Time) bool {
		if _, ok := taken[keyOf(t)]; ok {
			found = true
			return false
		}
		return true
	})
	if err != nil {
		return false, err
	}
	return found, nil
}

// FindConflicts returns every existing date that shares a calendar day with
// an occurrence of rule inside window. Dates are returned as given, in input
// order; duplicates are kept. maxCount is applied as in HasConflict.
func FindConflicts(rule Rule, existing []time.Time, window Window, maxCount int) ([]time.Time, error) {
	days := make(map[dateKey]struct{})
	err := scanWindow(rule, window, maxCount, func(t time.Time) bool {
		days[keyOf(t)] = struct{}{}
		return true
	})
	if err != nil {
		return nil, err
	}
	return matching(existing, days), nil
}

// scanWindow feeds the occurrences inside window to fn until fn returns false.
// It fails when maxCount cuts the expansion short of window.End.
func scanWindow(rule Rule, window Window, maxCount int, fn func(time.Time) bool) error {
	if err := window.Validate(); err != nil {
		return err
	}
	var (
		last    time.Time
		emitted int
	)
	reason, err := walk(rule, window.options(maxCount), func(t time.Time) bool {
		last = t
		emitted++
		if !window.Contains(t) {
			return true
		}
		return fn(t)
	})
	if err != nil {
		return err
	}
	if reason == stopCap && cutShort(rule, window, last, emitted) {
		return limitExceeded(window, maxCount)
	}
	return nil
}

// cutShort reports whether an expansion whose emitted-th occurrence was last
// left an occurrence inside window unvisited
func cutShort(rule Rule, window Window, last time.Time, emitted int) bool {
	if rule.completeAt(last, emitted) || !dayBefore(last, window.End) {
		return false
	}
	next, err := advance(rule, last)
	if err != nil {
		return true
	}
	if endDate, ok := rule.end.Date(); ok && dayAfter(next, endDate) {
		return false
	}
	return !dayAfter(next, window.End)
}

func limitExceeded(window Window, maxCount int) error {
	return fmt.Errorf("%w: %d occurrences generated before reaching %s",
		ErrLimitExceeded, maxCount, window.End.Format(time.DateOnly))
}

// matching filters dates down to those whose day is in days
func matching(dates []time.Time, days map[dateKey]struct{}) []time.Time {
	conflicts := []time.Time{}
	for _, t := range dates {
		if _, ok := days[keyOf(t)]; ok {
			conflicts = append(conflicts, t)
		}
	}
	return conflicts
}

func daySet(dates []time.Time) map[dateKey]struct{} {
	set := make(map[dateKey]struct{}, len(dates))
	for _, t := range dates {
		set[keyOf(t)] = struct{}{}
	}
	return set
}
