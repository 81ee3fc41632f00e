package recurrence

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func kinds(errs ValidationErrors) []ErrorKind {
	out := make([]ErrorKind, len(errs))
	for i, e := range errs {
		out[i] = e.Kind
	}
	return out
}

func validationErrors(t *testing.T, d Draft) ValidationErrors {
	t.Helper()
	res := Validate(d)
	require.True(t, res.IsError(), "expected draft to be rejected")

	var errs ValidationErrors
	require.True(t, errors.As(res.Error(), &errs))
	return errs
}

func TestValidate_Valid(t *testing.T) {
	end := date(2023, 6, 30)
	res := Validate(Draft{
		Frequency:    "weekly",
		Interval:     2,
		DaysOfWeek:   []string{"fri", "mon", "fri"},
		EndCondition: "on_date",
		EndDate:      &end,
		Anchor:       date(2023, 1, 2),
	})

	require.True(t, res.IsOk())
	rule := res.MustGet()
	assert.Equal(t, Weekly, rule.Frequency())
	assert.Equal(t, 2, rule.Interval())
	assert.Equal(t, []Weekday{Monday, Friday}, rule.DaysOfWeek())
	assert.Empty(t, rule.DaysOfMonth())
	assert.Equal(t, EndOnDate, rule.End().Kind())
	got, ok := rule.End().Date()
	assert.True(t, ok)
	assert.Equal(t, end, got)
	assert.Equal(t, date(2023, 1, 2), rule.Anchor())
}

func TestValidate_Scenarios(t *testing.T) {
	before := date(2022, 12, 31)

	tests := []struct {
		name     string
		draft    Draft
		expected []ErrorKind
	}{
		{
			name:     "Zero interval",
			draft:    Draft{Frequency: "daily", Interval: 0, Anchor: date(2023, 1, 1)},
			expected: []ErrorKind{NonPositiveInterval},
		},
		{
			name: "End date before anchor",
			draft: Draft{
				Frequency:    "daily",
				Interval:     1,
				EndCondition: "on_date",
				EndDate:      &before,
				Anchor:       date(2023, 1, 1),
			},
			expected: []ErrorKind{EndDateBeforeAnchor},
		},
		{
			name:     "Missing end date",
			draft:    Draft{Frequency: "daily", Interval: 1, EndCondition: "on_date", Anchor: date(2023, 1, 1)},
			expected: []ErrorKind{MissingEndDate},
		},
		{
			name:     "Missing occurrence count",
			draft:    Draft{Frequency: "daily", Interval: 1, EndCondition: "after_occurrences", Anchor: date(2023, 1, 1)},
			expected: []ErrorKind{MissingOccurrenceCount},
		},
		{
			name:     "Unknown end condition",
			draft:    Draft{Frequency: "daily", Interval: 1, EndCondition: "sometimes", Anchor: date(2023, 1, 1)},
			expected: []ErrorKind{InvalidEndCondition},
		},
		{
			name:     "Interval too large",
			draft:    Draft{Frequency: "weekly", Interval: math.MaxInt, Anchor: date(2023, 1, 1)},
			expected: []ErrorKind{IntervalTooLarge},
		},
		{
			name: "Everything wrong at once",
			draft: Draft{
				Frequency:    "hourly",
				Interval:     -1,
				DaysOfWeek:   []string{"funday"},
				DaysOfMonth:  []int{0, 32},
				EndCondition: "after_occurrences",
			},
			expected: []ErrorKind{
				InvalidFrequency,
				NonPositiveInterval,
				MissingAnchor,
				InvalidWeekdayTag,
				DayOfMonthOutOfRange,
				DayOfMonthOutOfRange,
				MissingOccurrenceCount,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := validationErrors(t, tt.draft)
			assert.Equal(t, tt.expected, kinds(errs))
		})
	}
}

func TestValidate_ErrorValues(t *testing.T) {
	errs := validationErrors(t, Draft{
		Frequency:   "monthly",
		Interval:    1,
		DaysOfWeek:  []string{"Mon"},
		DaysOfMonth: []int{40},
		Anchor:      date(2023, 1, 1),
	})

	require.Len(t, errs, 2)
	assert.Equal(t, ValidationError{Kind: InvalidWeekdayTag, Value: "Mon"}, errs[0])
	assert.Equal(t, ValidationError{Kind: DayOfMonthOutOfRange, Value: "40"}, errs[1])
	assert.True(t, errs.Has(DayOfMonthOutOfRange))
	assert.False(t, errs.Has(NonPositiveInterval))
	assert.Contains(t, errs.Error(), "invalid day of month 40")
}

func TestValidate_EndDateSameDayAsAnchor(t *testing.T) {
	end := time.Date(2023, 1, 1, 8, 0, 0, 0, time.UTC)
	_, err := Draft{
		Frequency:    "daily",
		Interval:     1,
		EndCondition: "on_date",
		EndDate:      &end,
		Anchor:       time.Date(2023, 1, 1, 17, 0, 0, 0, time.UTC),
	}.Build()

	assert.NoError(t, err)
}

func TestValidate_DropsConstraintsOfOtherFrequencies(t *testing.T) {
	rule := mustRule(t, Draft{
		Frequency:   "daily",
		Interval:    1,
		DaysOfWeek:  []string{"mon"},
		DaysOfMonth: []int{3},
		Anchor:      date(2023, 1, 1),
	})

	assert.Empty(t, rule.DaysOfWeek())
	assert.Empty(t, rule.DaysOfMonth())
}

func TestRule_AccessorsReturnCopies(t *testing.T) {
	rule := mustRule(t, Draft{
		Frequency:   "monthly",
		Interval:    1,
		DaysOfMonth: []int{10, 1},
		Anchor:      date(2023, 1, 1),
	})

	days := rule.DaysOfMonth()
	days[0] = 99

	assert.Equal(t, []int{1, 10}, rule.DaysOfMonth())
}

func TestRule_Equal(t *testing.T) {
	d := Draft{Frequency: "weekly", Interval: 1, DaysOfWeek: []string{"mon", "tue"}, Anchor: date(2023, 1, 2)}
	a := mustRule(t, d)
	d.DaysOfWeek = []string{"tue", "mon"}
	b := mustRule(t, d)
	d.Interval = 2
	c := mustRule(t, d)

	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(c))
}

func TestRule_EqualComparesLocation(t *testing.T) {
	utc := time.Date(2023, 1, 1, 23, 0, 0, 0, time.UTC)
	tokyo := utc.In(time.FixedZone("UTC+9", 9*60*60))
	d := Draft{Frequency: "daily", Interval: 1, Anchor: utc}
	a := mustRule(t, d)
	d.Anchor = tokyo
	b := mustRule(t, d)

	require.True(t, utc.Equal(tokyo))
	assert.False(t, a.Equal(b), "same instant on different calendar days")
	assert.True(t, b.Equal(mustRule(t, d)))
}

func TestValidate_IntervalBound(t *testing.T) {
	d := Draft{Frequency: "weekly", Interval: MaxInterval, Anchor: date(2023, 1, 2)}
	got, err := Generate(mustRule(t, d), ExpansionOptions{MaxOccurrences: 3})
	require.NoError(t, err)
	assert.Equal(t, []time.Time{date(2023, 1, 2), date(2029, 12, 31), date(2036, 12, 29)}, got)

	d.Interval = MaxInterval + 1
	errs := validationErrors(t, d)
	assert.Equal(t, []ErrorKind{IntervalTooLarge}, kinds(errs))
	assert.Contains(t, errs.Error(), "at most 365")
}
