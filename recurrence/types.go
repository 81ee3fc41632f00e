package recurrence

import (
	"slices"
	"time"
)

// Frequency is the unit a rule repeats in
type Frequency string

const (
	Daily   Frequency = "daily"
	Weekly  Frequency = "weekly"
	Monthly Frequency = "monthly"
	Yearly  Frequency = "yearly"
)

// Valid reports whether f is one of the supported frequencies
func (f Frequency) Valid() bool {
	switch f {
	case Daily, Weekly, Monthly, Yearly:
		return true
	}
	return false
}

// Weekday is a weekday tag as entered by users ("mon" .. "sun")
type Weekday string

const (
	Monday    Weekday = "mon"
	Tuesday   Weekday = "tue"
	Wednesday Weekday = "wed"
	Thursday  Weekday = "thu"
	Friday    Weekday = "fri"
	Saturday  Weekday = "sat"
	Sunday    Weekday = "sun"
)

var weekdayTags = map[Weekday]time.Weekday{
	Monday:    time.Monday,
	Tuesday:   time.Tuesday,
	Wednesday: time.Wednesday,
	Thursday:  time.Thursday,
	Friday:    time.Friday,
	Saturday:  time.Saturday,
	Sunday:    time.Sunday,
}

// ParseWeekday resolves a weekday tag
func ParseWeekday(tag string) (Weekday, bool) {
	w := Weekday(tag)
	_, ok := weekdayTags[w]
	return w, ok
}

// WeekdayOf returns the tag for a time.Weekday
func WeekdayOf(d time.Weekday) Weekday {
	for tag, wd := range weekdayTags {
		if wd == d {
			return tag
		}
	}
	return ""
}

// Time converts the tag to a time.Weekday. Unknown tags map to Sunday.
func (w Weekday) Time() time.Weekday {
	return weekdayTags[w]
}

// EndKind identifies which end condition a rule carries
type EndKind string

const (
	EndNever            EndKind = "never"
	EndAfterOccurrences EndKind = "after_occurrences"
	EndOnDate           EndKind = "on_date"
)

// EndCondition is the rule's own termination policy
type EndCondition struct {
	kind  EndKind
	count int
	date  time.Time
}

// Never returns an end condition that never fires
func Never() EndCondition {
	return EndCondition{kind: EndNever}
}

// AfterOccurrences ends a series once n occurrences were produced
func AfterOccurrences(n int) EndCondition {
	return EndCondition{kind: EndAfterOccurrences, count: n}
}

// OnDate ends a series on the given date (inclusive)
func OnDate(t time.Time) EndCondition {
	return EndCondition{kind: EndOnDate, date: t}
}

// Kind returns the end condition variant. The zero value reports EndNever.
func (e EndCondition) Kind() EndKind {
	if e.kind == "" {
		return EndNever
	}
	return e.kind
}

// Count returns the occurrence count for AfterOccurrences
func (e EndCondition) Count() (int, bool) {
	return e.count, e.kind == EndAfterOccurrences
}

// Date returns the end date for OnDate
func (e EndCondition) Date() (time.Time, bool) {
	return e.date, e.kind == EndOnDate
}

// Rule is a validated recurrence rule. The zero value is not usable; obtain
// rules from Validate or Draft.Build.
type Rule struct {
	frequency   Frequency
	interval    int
	daysOfWeek  []time.Weekday // sorted Monday first, only for Weekly
	daysOfMonth []int          // sorted ascending, only for Monthly
	end         EndCondition
	anchor      time.Time
}

func (r Rule) Frequency() Frequency { return r.frequency }
func (r Rule) Interval() int        { return r.interval }
func (r Rule) End() EndCondition    { return r.end }
func (r Rule) Anchor() time.Time    { return r.anchor }

// DaysOfWeek returns the weekday constraint, Monday first. Empty means the
// anchor's weekday.
func (r Rule) DaysOfWeek() []Weekday {
	out := make([]Weekday, 0, len(r.daysOfWeek))
	for _, d := range r.daysOfWeek {
		out = append(out, WeekdayOf(d))
	}
	return out
}

// DaysOfMonth returns the month-day constraint. Empty means the anchor's day.
func (r Rule) DaysOfMonth() []int {
	return slices.Clone(r.daysOfMonth)
}

// Equal reports whether two rules describe the same series. Times must match
// as instants and by location, since the location decides their calendar day.
func (r Rule) Equal(o Rule) bool {
	return r.frequency == o.frequency &&
		r.interval == o.interval &&
		slices.Equal(r.daysOfWeek, o.daysOfWeek) &&
		slices.Equal(r.daysOfMonth, o.daysOfMonth) &&
		r.end.Kind() == o.end.Kind() &&
		r.end.count == o.end.count &&
		sameTime(r.end.date, o.end.date) &&
		sameTime(r.anchor, o.anchor)
}

func sameTime(a, b time.Time) bool {
	return a.Equal(b) && a.Location().String() == b.Location().String()
}

func (r Rule) hasWeekdays() bool { return r.frequency == Weekly && len(r.daysOfWeek) > 0 }
func (r Rule) hasMonthDays() bool {
	return r.frequency == Monthly && len(r.daysOfMonth) > 0
}

// ExpansionOptions bounds a single expansion
type ExpansionOptions struct {
	Horizon        time.Time // Inclusive upper date bound, zero = none
	MaxOccurrences int       // Safety cap, must be positive
}

// DefaultExpansionOptions caps expansion at 1000 occurrences with no horizon
var DefaultExpansionOptions = ExpansionOptions{
	MaxOccurrences: 1000,
}

// Window is an inclusive date window for conflict checks
type Window struct {
	Start time.Time // zero = no lower bound
	End   time.Time
}
