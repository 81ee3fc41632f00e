package calendar

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/cyp0633/librecur/recurrence"
	"github.com/emersion/go-ical"
	"github.com/google/uuid"
)

const productID = "-//librecur//Recurrence Engine//EN"

// Todos materializes occurrences as one VTODO each. Occurrences at midnight
// are written as all-day DUE dates.
func Todos(occurrences []time.Time, summary string) []*ical.Component {
	stamp := time.Now().UTC()
	todos := make([]*ical.Component, 0, len(occurrences))
	for _, due := range occurrences {
		todo := ical.NewComponent(ical.CompToDo)
		todo.Props.SetText(ical.PropUID, uuid.NewString())
		todo.Props.SetDateTime(ical.PropDateTimeStamp, stamp)
		if summary != "" {
			todo.Props.SetText(ical.PropSummary, summary)
		}
		setDue(todo, due)
		todos = append(todos, todo)
	}
	return todos
}

// SeriesTodo returns a single recurring VTODO due at the first occurrence and
// carrying the rule as RRULE
func SeriesTodo(rule recurrence.Rule, summary string) (*ical.Component, error) {
	value, err := RRule(rule)
	if err != nil {
		return nil, err
	}
	start, err := recurrence.First(rule)
	if err != nil {
		return nil, err
	}

	todo := ical.NewComponent(ical.CompToDo)
	todo.Props.SetText(ical.PropUID, uuid.NewString())
	todo.Props.SetDateTime(ical.PropDateTimeStamp, time.Now().UTC())
	if summary != "" {
		todo.Props.SetText(ical.PropSummary, summary)
	}
	setDue(todo, start)

	// SetText would escape the separators in the value
	prop := ical.NewProp(ical.PropRecurrenceRule)
	prop.Value = value
	todo.Props.Set(prop)

	return todo, nil
}

func setDue(todo *ical.Component, due time.Time) {
	if isMidnight(due) {
		todo.Props.SetDate(ical.PropDue, due)
		return
	}
	todo.Props.SetDateTime(ical.PropDue, due)
}

func isMidnight(t time.Time) bool {
	return t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 && t.Nanosecond() == 0
}

// Encode wraps components in a VCALENDAR and serializes it
func Encode(components []*ical.Component) (string, error) {
	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, productID)
	cal.Children = append(cal.Children, components...)

	var buf bytes.Buffer
	if err := ical.NewEncoder(&buf).Encode(cal); err != nil {
		return "", fmt.Errorf("failed to encode calendar: %w", err)
	}
	return buf.String(), nil
}

// DueDates collects the due date of every VTODO and VEVENT in ics, in
// document order. DUE is preferred and DTSTART is the fallback; components
// with neither are skipped. Date values come back as midnight UTC.
func DueDates(ics string) ([]time.Time, error) {
	dec := ical.NewDecoder(strings.NewReader(ics))

	var dates []time.Time
	for {
		cal, err := dec.Decode()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to decode calendar: %w", err)
		}

		for _, child := range cal.Children {
			if child.Name != ical.CompToDo && child.Name != ical.CompEvent {
				continue
			}
			prop := child.Props.Get(ical.PropDue)
			if prop == nil {
				prop = child.Props.Get(ical.PropDateTimeStart)
			}
			if prop == nil {
				continue
			}

			due, err := prop.DateTime(time.UTC)
			if err != nil {
				return nil, fmt.Errorf("invalid %s in %s: %w", prop.Name, child.Name, err)
			}
			dates = append(dates, due)
		}
	}
	return dates, nil
}
