package main

import (
	"fmt"
	"strings"
	"time"

	pflag "github.com/spf13/pflag"

	"github.com/cyp0633/librecur/recurrence"
)

// ruleFlags collects the draft fields shared by every rule command
type ruleFlags struct {
	frequency string
	interval  int
	days      []string
	monthDays []int
	end       string
	count     int
	until     string
	anchor    string
}

func (f *ruleFlags) register(fs *pflag.FlagSet) {
	fs.StringVarP(&f.frequency, "frequency", "f", "daily", "daily, weekly, monthly or yearly")
	fs.IntVarP(&f.interval, "interval", "i", 1, "repeat every N periods")
	fs.StringSliceVar(&f.days, "days", nil, "weekdays for weekly rules (mon,tue,...)")
	fs.IntSliceVar(&f.monthDays, "month-days", nil, "days of the month for monthly rules")
	fs.StringVar(&f.end, "end", "", "never, after_occurrences or on_date (inferred from --count/--until)")
	fs.IntVar(&f.count, "count", 0, "number of occurrences when the series ends after occurrences")
	fs.StringVar(&f.until, "until", "", "last day of the series")
	fs.StringVar(&f.anchor, "anchor", "", "start date, YYYY-MM-DD[THH:MM] (default today)")
}

func (f *ruleFlags) draft(now time.Time) (recurrence.Draft, error) {
	d := recurrence.Draft{
		Frequency:       strings.ToLower(f.frequency),
		Interval:        f.interval,
		DaysOfWeek:      f.days,
		DaysOfMonth:     f.monthDays,
		EndCondition:    f.end,
		OccurrenceCount: f.count,
	}

	d.Anchor = recurrence.DateOnly(now)
	if f.anchor != "" {
		anchor, err := parseDate(f.anchor)
		if err != nil {
			return d, fmt.Errorf("--anchor: %w", err)
		}
		d.Anchor = anchor
	}

	if f.until != "" {
		until, err := parseDate(f.until)
		if err != nil {
			return d, fmt.Errorf("--until: %w", err)
		}
		d.EndDate = &until
	}

	if d.EndCondition == "" {
		switch {
		case f.count > 0:
			d.EndCondition = string(recurrence.EndAfterOccurrences)
		case d.EndDate != nil:
			d.EndCondition = string(recurrence.EndOnDate)
		}
	}
	return d, nil
}

func (f *ruleFlags) rule(now time.Time) (recurrence.Rule, error) {
	d, err := f.draft(now)
	if err != nil {
		return recurrence.Rule{}, err
	}
	return d.Build()
}

var dateLayouts = []string{
	time.DateOnly,
	"2006-01-02T15:04",
	"2006-01-02T15:04:05",
	time.RFC3339,
}

// parseDate accepts a date, a local date-time or RFC 3339. Values without an
// offset are taken as UTC.
func parseDate(s string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q, want YYYY-MM-DD or YYYY-MM-DDTHH:MM", s)
}

func parseDates(values []string) ([]time.Time, error) {
	dates := make([]time.Time, 0, len(values))
	for _, v := range values {
		t, err := parseDate(strings.TrimSpace(v))
		if err != nil {
			return nil, err
		}
		dates = append(dates, t)
	}
	return dates, nil
}

func formatDate(t time.Time) string {
	if t.Equal(recurrence.DateOnly(t)) {
		return t.Format(time.DateOnly)
	}
	return t.Format(time.RFC3339)
}
