package recurrence

import (
	"cmp"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/samber/mo"
)

// ErrorKind classifies a validation failure
type ErrorKind string

const (
	NonPositiveInterval    ErrorKind = "non_positive_interval"
	MissingOccurrenceCount ErrorKind = "missing_occurrence_count"
	EndDateBeforeAnchor    ErrorKind = "end_date_before_anchor"
	DayOfMonthOutOfRange   ErrorKind = "day_of_month_out_of_range"
	InvalidWeekdayTag      ErrorKind = "invalid_weekday_tag"
	InvalidFrequency       ErrorKind = "invalid_frequency"
	InvalidEndCondition    ErrorKind = "invalid_end_condition"
	MissingEndDate         ErrorKind = "missing_end_date"
	MissingAnchor          ErrorKind = "missing_anchor"
	IntervalTooLarge       ErrorKind = "interval_too_large"
)

// MaxInterval is the largest accepted interval
const MaxInterval = 365

// ValidationError is a single rejected draft field. Value holds the offending
// input where there is one.
type ValidationError struct {
	Kind  ErrorKind
	Value string
}

func (e ValidationError) Error() string {
	switch e.Kind {
	case NonPositiveInterval:
		return fmt.Sprintf("interval must be a positive number, got %s", e.Value)
	case MissingOccurrenceCount:
		return "occurrence count must be a positive number when the series ends after occurrences"
	case EndDateBeforeAnchor:
		return fmt.Sprintf("end date %s is before the start date", e.Value)
	case DayOfMonthOutOfRange:
		return fmt.Sprintf("invalid day of month %s, must be between 1 and 31", e.Value)
	case InvalidWeekdayTag:
		return fmt.Sprintf("invalid day of week %q", e.Value)
	case InvalidFrequency:
		return fmt.Sprintf("invalid frequency %q", e.Value)
	case InvalidEndCondition:
		return fmt.Sprintf("invalid end condition %q", e.Value)
	case MissingEndDate:
		return "end date is required when the series ends on a date"
	case MissingAnchor:
		return "start date is required"
	case IntervalTooLarge:
		return fmt.Sprintf("interval must be at most %d, got %s", MaxInterval, e.Value)
	}
	return string(e.Kind)
}

// ValidationErrors collects every violation found in a draft
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	msgs := make([]string, len(e))
	for i, v := range e {
		msgs[i] = v.Error()
	}
	return "invalid recurrence rule: " + strings.Join(msgs, "; ")
}

// Has reports whether any error of the given kind is present
func (e ValidationErrors) Has(kind ErrorKind) bool {
	return slices.ContainsFunc(e, func(v ValidationError) bool { return v.Kind == kind })
}

// Draft holds raw rule fields as they come from a form
type Draft struct {
	Frequency       string
	Interval        int
	DaysOfWeek      []string
	DaysOfMonth     []int
	EndCondition    string // never, after_occurrences or on_date; empty means never
	OccurrenceCount int
	EndDate         *time.Time
	Anchor          time.Time
}

// Build is Validate without the Result wrapper
func (d Draft) Build() (Rule, error) {
	return Validate(d).Get()
}

// Validate checks every field of d and returns either an immutable Rule or a
// ValidationErrors listing all violations. Nothing is built on failure.
func Validate(d Draft) mo.Result[Rule] {
	var errs ValidationErrors
	add := func(kind ErrorKind, value string) {
		errs = append(errs, ValidationError{Kind: kind, Value: value})
	}

	freq := Frequency(d.Frequency)
	if !freq.Valid() {
		add(InvalidFrequency, d.Frequency)
	}
	switch {
	case d.Interval < 1:
		add(NonPositiveInterval, strconv.Itoa(d.Interval))
	case d.Interval > MaxInterval:
		add(IntervalTooLarge, strconv.Itoa(d.Interval))
	}
	if d.Anchor.IsZero() {
		add(MissingAnchor, "")
	}

	weekdays := make([]time.Weekday, 0, len(d.DaysOfWeek))
	for _, tag := range d.DaysOfWeek {
		w, ok := ParseWeekday(tag)
		if !ok {
			add(InvalidWeekdayTag, tag)
			continue
		}
		weekdays = append(weekdays, w.Time())
	}

	monthDays := make([]int, 0, len(d.DaysOfMonth))
	for _, day := range d.DaysOfMonth {
		if day < 1 || day > 31 {
			add(DayOfMonthOutOfRange, strconv.Itoa(day))
			continue
		}
		monthDays = append(monthDays, day)
	}

	var end EndCondition
	switch EndKind(d.EndCondition) {
	case "", EndNever:
		end = Never()
	case EndAfterOccurrences:
		if d.OccurrenceCount < 1 {
			add(MissingOccurrenceCount, strconv.Itoa(d.OccurrenceCount))
		}
		end = AfterOccurrences(d.OccurrenceCount)
	case EndOnDate:
		switch {
		case d.EndDate == nil || d.EndDate.IsZero():
			add(MissingEndDate, "")
		case !d.Anchor.IsZero() && dayBefore(*d.EndDate, d.Anchor):
			add(EndDateBeforeAnchor, d.EndDate.Format(time.DateOnly))
		default:
			end = OnDate(*d.EndDate)
		}
	default:
		add(InvalidEndCondition, d.EndCondition)
	}

	rule := Rule{
		frequency: freq,
		interval:  d.Interval,
		end:       end,
		anchor:    d.Anchor,
	}
	switch freq {
	case Weekly:
		rule.daysOfWeek = sortedUnique(weekdays, func(a, b time.Weekday) int {
			return cmp.Compare(mondayOffset(a), mondayOffset(b))
		})
	case Monthly:
		rule.daysOfMonth = sortedUnique(monthDays, cmp.Compare[int])
	}

	if len(errs) > 0 {
		return mo.Err[Rule](errs)
	}
	return mo.Ok(rule)
}

func sortedUnique[T comparable](in []T, compare func(a, b T) int) []T {
	if len(in) == 0 {
		return nil
	}
	out := slices.Clone(in)
	slices.SortFunc(out, compare)
	return slices.Compact(out)
}
