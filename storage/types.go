package storage

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"time"
)

// Error types
type ErrorType string

const (
	ErrNotFound      ErrorType = "not_found"
	ErrAlreadyExists ErrorType = "already_exists"
	ErrInvalidInput  ErrorType = "invalid_input"
)

// Error represents a storage-related error
type Error struct {
	Type    ErrorType
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// IsType reports whether err is a storage error of the given type
func IsType(err error, t ErrorType) bool {
	var serr *Error
	return errors.As(err, &serr) && serr.Type == t
}

// Task is a dated task owned by a user. Only its due date takes part in
// conflict detection.
type Task struct {
	ID     string
	UserID string
	Title  string
	Due    time.Time
	// Completed is when the task was done, zero while it is open
	Completed time.Time
	Created   time.Time
	Modified  time.Time
}

// Done reports whether the task has been completed
func (t *Task) Done() bool {
	return !t.Completed.IsZero()
}

// Validate checks the fields every backend requires
func (t *Task) Validate() error {
	switch {
	case t == nil:
		return &Error{Type: ErrInvalidInput, Message: "task is nil"}
	case t.ID == "":
		return &Error{Type: ErrInvalidInput, Message: "task ID is required"}
	case t.UserID == "":
		return &Error{Type: ErrInvalidInput, Message: "user ID is required"}
	case t.Due.IsZero():
		return &Error{Type: ErrInvalidInput, Message: "due date is required"}
	}
	return nil
}

// ListOptions provides options for listing tasks
type ListOptions struct {
	// Due date range, inclusive and compared by calendar day. Nil means open.
	Start *time.Time
	End   *time.Time
}

// DayKey formats t's calendar day in its own location. Keys sort in date
// order.
func DayKey(t time.Time) string {
	return t.Format(time.DateOnly)
}

// Matches reports whether due falls inside the range
func (o *ListOptions) Matches(due time.Time) bool {
	if o == nil {
		return true
	}
	key := DayKey(due)
	if o.Start != nil && key < DayKey(*o.Start) {
		return false
	}
	if o.End != nil && key > DayKey(*o.End) {
		return false
	}
	return true
}

// Storage is the interface that must be implemented by storage backends
type Storage interface {
	CreateTask(ctx context.Context, task *Task) error
	GetTask(ctx context.Context, userID, taskID string) (*Task, error)
	// UpdateTask replaces the title, due date and completion of an existing task
	UpdateTask(ctx context.Context, task *Task) error
	// ListTasks returns a user's tasks ordered by due date
	ListTasks(ctx context.Context, userID string, opts *ListOptions) ([]*Task, error)
	DeleteTask(ctx context.Context, userID, taskID string) error
	Close() error
}

// DueDates extracts the due dates of tasks, keeping their order
func DueDates(tasks []*Task) []time.Time {
	dates := make([]time.Time, len(tasks))
	for i, task := range tasks {
		dates[i] = task.Due
	}
	return dates
}

// SortByDue orders tasks by due time, then ID
func SortByDue(tasks []*Task) {
	slices.SortFunc(tasks, func(a, b *Task) int {
		if c := a.Due.Compare(b.Due); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
}
