package calendar

import (
	"fmt"
	"time"

	"github.com/cyp0633/librecur/recurrence"
	"github.com/teambition/rrule-go"
)

var frequencies = map[recurrence.Frequency]rrule.Frequency{
	recurrence.Daily:   rrule.DAILY,
	recurrence.Weekly:  rrule.WEEKLY,
	recurrence.Monthly: rrule.MONTHLY,
	recurrence.Yearly:  rrule.YEARLY,
}

var weekdays = map[time.Weekday]rrule.Weekday{
	time.Monday:    rrule.MO,
	time.Tuesday:   rrule.TU,
	time.Wednesday: rrule.WE,
	time.Thursday:  rrule.TH,
	time.Friday:    rrule.FR,
	time.Saturday:  rrule.SA,
	time.Sunday:    rrule.SU,
}

// RRule renders rule as an RFC 5545 RRULE value, without the DTSTART line;
// DTSTART must be the rule's first occurrence (recurrence.First).
// Anchor days that some months lack are written as a BYMONTHDAY range with
// BYSETPOS=-1, which selects the same clamped day the engine does.
func RRule(rule recurrence.Rule) (string, error) {
	opt, err := options(rule)
	if err != nil {
		return "", err
	}
	// Validate the combination before printing it
	if _, err := rrule.NewRRule(opt); err != nil {
		return "", fmt.Errorf("failed to build RRULE: %w", err)
	}
	return opt.RRuleString(), nil
}

// options maps rule onto rrule-go options. DTSTART is the first occurrence,
// whose week or month the interval counts from.
func options(rule recurrence.Rule) (rrule.ROption, error) {
	freq, ok := frequencies[rule.Frequency()]
	if !ok {
		return rrule.ROption{}, fmt.Errorf("unsupported frequency %q", rule.Frequency())
	}
	start, err := recurrence.First(rule)
	if err != nil {
		return rrule.ROption{}, err
	}

	anchor := rule.Anchor()
	opt := rrule.ROption{
		Freq:     freq,
		Interval: rule.Interval(),
		Dtstart:  start,
		Wkst:     rrule.MO,
	}

	for _, wd := range rule.DaysOfWeek() {
		opt.Byweekday = append(opt.Byweekday, weekdays[wd.Time()])
	}
	opt.Bymonthday = rule.DaysOfMonth()

	switch {
	case rule.Frequency() == recurrence.Monthly && len(opt.Bymonthday) == 0 && anchor.Day() > 28:
		opt.Bymonthday = dayRange(28, anchor.Day())
		opt.Bysetpos = []int{-1}
	case rule.Frequency() == recurrence.Yearly && anchor.Month() == time.February && anchor.Day() == 29:
		opt.Bymonth = []int{int(time.February)}
		opt.Bymonthday = []int{28, 29}
		opt.Bysetpos = []int{-1}
	}

	end := rule.End()
	if count, ok := end.Count(); ok {
		opt.Count = count
	}
	if date, ok := end.Date(); ok {
		// Occurrences carry the anchor clock, so the last one is due at that
		// time on the end day
		y, m, d := date.Date()
		opt.Until = time.Date(y, m, d, anchor.Hour(), anchor.Minute(), anchor.Second(), anchor.Nanosecond(), anchor.Location())
	}

	return opt, nil
}

func dayRange(from, to int) []int {
	days := make([]int, 0, to-from+1)
	for d := from; d <= to; d++ {
		days = append(days, d)
	}
	return days
}
