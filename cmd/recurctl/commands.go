package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/emersion/go-ical"
	"github.com/spf13/cobra"

	"github.com/cyp0633/librecur/calendar"
	"github.com/cyp0633/librecur/recurrence"
)

// errInvalidRule is returned after the validation report has been printed
var errInvalidRule = errors.New("rule is invalid")

// horizon resolves --to, falling back to the configured span past the anchor
func (a *app) horizon(rule recurrence.Rule, to string) (time.Time, error) {
	if to == "" {
		return rule.Anchor().Add(a.cfg.Horizon), nil
	}
	t, err := parseDate(to)
	if err != nil {
		return time.Time{}, fmt.Errorf("--to: %w", err)
	}
	return t, nil
}

func newExpandCommand(a *app) *cobra.Command {
	var (
		rf      ruleFlags
		to      string
		ics     bool
		series  bool
		summary string
	)

	cmd := &cobra.Command{
		Use:   "expand",
		Short: "List the occurrences of a rule",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rule, err := rf.rule(a.now())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			if ics && series {
				todo, err := calendar.SeriesTodo(rule, summary)
				if err != nil {
					return err
				}
				return writeCalendar(out, todo)
			}

			horizon, err := a.horizon(rule, to)
			if err != nil {
				return err
			}
			occurrences, err := a.engine.Generate(rule, a.engine.Options(horizon))
			if err != nil {
				return err
			}
			a.log.Debug().Int("count", len(occurrences)).Time("horizon", horizon).Msg("expanded rule")

			if ics {
				return writeCalendar(out, calendar.Todos(occurrences, summary)...)
			}
			for _, t := range occurrences {
				fmt.Fprintln(out, formatDate(t))
			}
			return nil
		},
	}

	rf.register(cmd.Flags())
	cmd.Flags().StringVar(&to, "to", "", "last day to expand (default anchor plus --horizon)")
	cmd.Flags().BoolVar(&ics, "ics", false, "print an iCalendar document instead of dates")
	cmd.Flags().BoolVar(&series, "series", false, "with --ics, print one recurring VTODO instead of one per occurrence")
	cmd.Flags().StringVar(&summary, "summary", "", "VTODO summary for --ics")
	return cmd
}

func newNextCommand(a *app) *cobra.Command {
	var (
		rf    ruleFlags
		after string
	)

	cmd := &cobra.Command{
		Use:   "next",
		Short: "Print the first occurrence after a date",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rule, err := rf.rule(a.now())
			if err != nil {
				return err
			}
			ref := a.now()
			if after != "" {
				if ref, err = parseDate(after); err != nil {
					return fmt.Errorf("--after: %w", err)
				}
			}

			next, ok, err := a.engine.Next(rule, ref, a.engine.Options(time.Time{}))
			if err != nil {
				return err
			}
			if !ok {
				fmt.Fprintln(cmd.OutOrStdout(), "series has ended")
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), formatDate(next))
			return nil
		},
	}

	rf.register(cmd.Flags())
	cmd.Flags().StringVar(&after, "after", "", "reference date (default today)")
	return cmd
}

func newConflictsCommand(a *app) *cobra.Command {
	var (
		rf       ruleFlags
		from, to string
		existing []string
		icsFile  string
		strict   bool
	)

	cmd := &cobra.Command{
		Use:   "conflicts",
		Short: "Find existing tasks that fall on the same day as a rule's occurrences",
		Long: "Checks the rule against the user's stored tasks plus any dates given " +
			"with --existing or read from --ics-file.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rule, err := rf.rule(a.now())
			if err != nil {
				return err
			}

			window := recurrence.Window{}
			if window.End, err = a.horizon(rule, to); err != nil {
				return err
			}
			if from != "" {
				if window.Start, err = parseDate(from); err != nil {
					return fmt.Errorf("--from: %w", err)
				}
			}

			extra, err := parseDates(existing)
			if err != nil {
				return fmt.Errorf("--existing: %w", err)
			}
			if icsFile != "" {
				b, err := os.ReadFile(icsFile)
				if err != nil {
					return err
				}
				dates, err := calendar.DueDates(string(b))
				if err != nil {
					return err
				}
				extra = append(extra, dates...)
			}

			plan, err := a.planner.Preview(cmd.Context(), a.cfg.UserID, rule, window)
			if err != nil {
				return err
			}
			given, err := a.engine.FindConflicts(rule, extra, window, a.cfg.MaxOccurrences)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, task := range plan.ConflictingTasks {
				fmt.Fprintf(out, "%s\ttask %s\t%s\n", formatDate(task.Due), task.ID, task.Title)
			}
			for _, t := range given {
				fmt.Fprintf(out, "%s\tgiven\n", formatDate(t))
			}

			total := len(plan.ConflictingTasks) + len(given)
			if total == 0 {
				fmt.Fprintln(out, "no conflicts")
				return nil
			}
			if strict {
				return fmt.Errorf("%d conflicting dates", total)
			}
			return nil
		},
	}

	rf.register(cmd.Flags())
	cmd.Flags().StringVar(&from, "from", "", "first day of the window (default unbounded)")
	cmd.Flags().StringVar(&to, "to", "", "last day of the window (default anchor plus --horizon)")
	cmd.Flags().StringSliceVar(&existing, "existing", nil, "extra existing due dates")
	cmd.Flags().StringVar(&icsFile, "ics-file", "", "read extra due dates from an iCalendar file")
	cmd.Flags().BoolVar(&strict, "strict", false, "exit with an error when conflicts are found")
	return cmd
}

func newValidateCommand(a *app) *cobra.Command {
	var rf ruleFlags

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check a rule and report every problem with it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			draft, err := rf.draft(a.now())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			fb := recurrence.Feedback(draft)
			for _, w := range fb.Warnings {
				fmt.Fprintln(out, "warning:", w)
			}
			for _, s := range fb.Suggestions {
				fmt.Fprintln(out, "suggestion:", s)
			}

			res := recurrence.Validate(draft)
			if res.IsError() {
				var errs recurrence.ValidationErrors
				if errors.As(res.Error(), &errs) {
					for _, e := range errs {
						fmt.Fprintf(out, "error: %s (%s)\n", e.Error(), e.Kind)
					}
				}
				return errInvalidRule
			}

			rule := res.MustGet()
			if n, bounded := recurrence.EstimateOccurrences(rule, time.Time{}); bounded {
				fmt.Fprintf(out, "valid: about %d occurrences\n", n)
			} else {
				fmt.Fprintln(out, "valid: open-ended series")
			}
			return nil
		},
	}

	rf.register(cmd.Flags())
	return cmd
}

func newRRuleCommand(a *app) *cobra.Command {
	var rf ruleFlags

	cmd := &cobra.Command{
		Use:   "rrule",
		Short: "Print a rule as an iCalendar RRULE",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rule, err := rf.rule(a.now())
			if err != nil {
				return err
			}
			value, err := calendar.RRule(rule)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "RRULE:"+value)
			return nil
		},
	}

	rf.register(cmd.Flags())
	return cmd
}

func writeCalendar(out io.Writer, components ...*ical.Component) error {
	doc, err := calendar.Encode(components)
	if err != nil {
		return err
	}
	_, err = io.WriteString(out, doc)
	return err
}
