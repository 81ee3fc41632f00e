// Package planner previews a recurring task against the tasks a user already
// has, and rolls a recurring task over to its next instance when it is
// completed.
package planner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cyp0633/librecur/calendar"
	"github.com/cyp0633/librecur/recurrence"
	"github.com/cyp0633/librecur/storage"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ErrAlreadyCompleted is returned when completing a task that is done
var ErrAlreadyCompleted = errors.New("task already completed")

// Planner combines a task store with a recurrence engine
type Planner struct {
	store          storage.Storage
	engine         *recurrence.Engine
	logger         zerolog.Logger
	maxOccurrences int
	now            func() time.Time
}

// Option represents a configuration option for the Planner
type Option func(*Planner)

// WithLogger sets the logger for the planner
func WithLogger(logger zerolog.Logger) Option {
	return func(p *Planner) {
		p.logger = logger
	}
}

// WithMaxOccurrences overrides the engine's occurrence cap
func WithMaxOccurrences(n int) Option {
	return func(p *Planner) {
		if n > 0 {
			p.maxOccurrences = n
		}
	}
}

// WithClock sets the time source used to stamp completions
func WithClock(now func() time.Time) Option {
	return func(p *Planner) {
		if now != nil {
			p.now = now
		}
	}
}

// New creates a planner. A nil engine means an uncached one.
func New(store storage.Storage, engine *recurrence.Engine, opts ...Option) *Planner {
	if engine == nil {
		engine = recurrence.NewEngine()
	}
	p := &Planner{
		store:          store,
		engine:         engine,
		logger:         zerolog.Nop(),
		maxOccurrences: engine.MaxOccurrences(),
		now:            time.Now,
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// Plan is the outcome of previewing a rule inside a window
type Plan struct {
	Rule   recurrence.Rule
	Window recurrence.Window
	// Occurrences inside the window, in order
	Occurrences []time.Time
	// Due dates of existing tasks that share a day with an occurrence
	Conflicts []time.Time
	// ConflictingTasks holds the tasks behind Conflicts, in the same order
	ConflictingTasks []*storage.Task
	// RRule is the rule as an iCalendar RRULE value
	RRule string
}

// HasConflicts reports whether any existing task collides with the rule
func (p *Plan) HasConflicts() bool {
	return len(p.Conflicts) > 0
}

// ICS renders the planned occurrences as VTODOs in one VCALENDAR
func (p *Plan) ICS(summary string) (string, error) {
	return calendar.Encode(calendar.Todos(p.Occurrences, summary))
}

// Preview expands rule within window and matches it against userID's tasks
func (p *Planner) Preview(ctx context.Context, userID string, rule recurrence.Rule, window recurrence.Window) (*Plan, error) {
	tasks, err := p.existing(ctx, userID, window)
	if err != nil {
		return nil, err
	}

	expanded, err := p.engine.Generate(rule, recurrence.ExpansionOptions{
		Horizon:        window.End,
		MaxOccurrences: p.maxOccurrences,
	})
	if err != nil {
		return nil, fmt.Errorf("expand rule: %w", err)
	}
	occurrences := make([]time.Time, 0, len(expanded))
	for _, t := range expanded {
		if window.Contains(t) {
			occurrences = append(occurrences, t)
		}
	}

	conflicts, err := p.engine.FindConflicts(rule, storage.DueDates(tasks), window, p.maxOccurrences)
	if err != nil {
		return nil, fmt.Errorf("find conflicts: %w", err)
	}

	plan := &Plan{
		Rule:             rule,
		Window:           window,
		Occurrences:      occurrences,
		Conflicts:        conflicts,
		ConflictingTasks: conflictingTasks(tasks, conflicts),
	}

	if plan.RRule, err = calendar.RRule(rule); err != nil {
		p.logger.Warn().Err(err).Msg("rule has no RRULE form")
	}

	p.logger.Debug().
		Str("user", userID).
		Int("existing", len(tasks)).
		Int("occurrences", len(occurrences)).
		Int("conflicts", len(conflicts)).
		Msg("previewed recurring task")

	return plan, nil
}

// HasConflict reports whether rule collides with any of userID's tasks in
// window, stopping at the first collision
func (p *Planner) HasConflict(ctx context.Context, userID string, rule recurrence.Rule, window recurrence.Window) (bool, error) {
	tasks, err := p.existing(ctx, userID, window)
	if err != nil {
		return false, err
	}

	clash, err := p.engine.HasConflict(rule, storage.DueDates(tasks), window, p.maxOccurrences)
	if err != nil {
		return false, fmt.Errorf("check conflicts: %w", err)
	}
	return clash, nil
}

// Completion is the outcome of completing a recurring task
type Completion struct {
	Task *storage.Task
	// Next is the instance stored for the following occurrence, nil once the
	// series has ended
	Next *storage.Task
}

// Complete marks a task of the series described by rule as done and stores a
// new task for the first occurrence after its due day. No new task is created
// when the series has ended.
func (p *Planner) Complete(ctx context.Context, userID, taskID string, rule recurrence.Rule) (*Completion, error) {
	task, err := p.store.GetTask(ctx, userID, taskID)
	if err != nil {
		return nil, fmt.Errorf("load task: %w", err)
	}
	if task.Done() {
		return nil, fmt.Errorf("%w: %s", ErrAlreadyCompleted, taskID)
	}

	next, ok, err := p.nextInstance(rule, task.Due)
	if err != nil {
		return nil, err
	}

	task.Completed = p.now()
	if err := p.store.UpdateTask(ctx, task); err != nil {
		p.logger.Error().Err(err).Str("user", userID).Str("task", taskID).Msg("failed to complete task")
		return nil, fmt.Errorf("complete task: %w", err)
	}

	done := &Completion{Task: task}
	if !ok {
		p.logger.Info().Str("user", userID).Str("task", taskID).Msg("recurring series ended")
		return done, nil
	}

	done.Next = &storage.Task{
		ID:     uuid.NewString(),
		UserID: userID,
		Title:  task.Title,
		Due:    next,
	}
	if err := p.store.CreateTask(ctx, done.Next); err != nil {
		p.logger.Error().Err(err).Str("user", userID).Str("task", taskID).Msg("failed to create next instance")
		return nil, fmt.Errorf("create next instance: %w", err)
	}

	p.logger.Info().
		Str("user", userID).
		Str("task", taskID).
		Str("next", done.Next.ID).
		Time("due", next).
		Msg("completed recurring task")

	return done, nil
}

// nextInstance finds the occurrence following due, unless the series ends
// with the instances produced up to due
func (p *Planner) nextInstance(rule recurrence.Rule, due time.Time) (time.Time, bool, error) {
	produced, err := p.engine.Generate(rule, recurrence.ExpansionOptions{
		Horizon:        due,
		MaxOccurrences: p.maxOccurrences,
	})
	if err != nil {
		return time.Time{}, false, fmt.Errorf("expand rule: %w", err)
	}

	next, ok, err := p.engine.Next(rule, due, recurrence.ExpansionOptions{MaxOccurrences: p.maxOccurrences})
	if err != nil {
		return time.Time{}, false, fmt.Errorf("next occurrence: %w", err)
	}
	if !ok || recurrence.ShouldEnd(rule, len(produced), next) {
		return time.Time{}, false, nil
	}
	return next, true, nil
}

// existing loads the tasks that could collide inside window. Tasks outside it
// never can, so the window doubles as the storage filter.
func (p *Planner) existing(ctx context.Context, userID string, window recurrence.Window) ([]*storage.Task, error) {
	if err := window.Validate(); err != nil {
		return nil, err
	}

	opts := &storage.ListOptions{End: &window.End}
	if !window.Start.IsZero() {
		opts.Start = &window.Start
	}

	tasks, err := p.store.ListTasks(ctx, userID, opts)
	if err != nil {
		p.logger.Error().Err(err).Str("user", userID).Msg("failed to load existing tasks")
		return nil, fmt.Errorf("load tasks: %w", err)
	}
	return tasks, nil
}

// conflictingTasks pairs each conflict with its task. Conflicts are the
// tasks' own due values in task order, so one forward pass is enough.
func conflictingTasks(tasks []*storage.Task, conflicts []time.Time) []*storage.Task {
	out := make([]*storage.Task, 0, len(conflicts))
	i := 0
	for _, task := range tasks {
		if i < len(conflicts) && task.Due.Equal(conflicts[i]) {
			out = append(out, task)
			i++
		}
	}
	return out
}
