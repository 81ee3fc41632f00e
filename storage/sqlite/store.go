// Package sqlite stores tasks in a SQLite database through the pure Go
// modernc.org/sqlite driver.
package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cyp0633/librecur/storage"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

//go:embed schema.sql
var schema string

// Config controls how the database is opened
type Config struct {
	Path        string
	BusyTimeout time.Duration
}

// Store implements storage.Storage on SQLite
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens or creates the database at cfg.Path and applies the schema.
// ":memory:" opens a private in-memory database.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	path := strings.TrimSpace(cfg.Path)
	if path == "" {
		return nil, errors.New("sqlite path is required")
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// SQLite prefers a single writer; this also keeps ":memory:" on one
	// connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if cfg.BusyTimeout > 0 {
		_, _ = db.ExecContext(ctx, fmt.Sprintf("PRAGMA busy_timeout = %d", cfg.BusyTimeout.Milliseconds()))
	}
	_, _ = db.ExecContext(ctx, "PRAGMA journal_mode = WAL")
	_, _ = db.ExecContext(ctx, "PRAGMA synchronous = NORMAL")

	st := &Store{db: db, now: time.Now}
	if err := st.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return st, nil
}

func (s *Store) migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) CreateTask(ctx context.Context, task *storage.Task) error {
	if err := task.Validate(); err != nil {
		return err
	}

	now := s.now()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO tasks(user_id, id, title, due, due_day, completed, created, modified)
		 VALUES(?,?,?,?,?,?,?,?)`,
		task.UserID, task.ID, task.Title,
		task.Due.Format(time.RFC3339Nano), storage.DayKey(task.Due), formatOptional(task.Completed),
		now.Format(time.RFC3339Nano), now.Format(time.RFC3339Nano),
	)
	if isConstraint(err) {
		return &storage.Error{
			Type:    storage.ErrAlreadyExists,
			Message: "task already exists",
			Err:     err,
		}
	}
	if err != nil {
		return fmt.Errorf("insert task: %w", err)
	}

	task.Created = now
	task.Modified = now
	return nil
}

func (s *Store) GetTask(ctx context.Context, userID, taskID string) (*storage.Task, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT user_id, id, title, due, completed, created, modified FROM tasks WHERE user_id = ? AND id = ?`,
		userID, taskID,
	)
	task, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &storage.Error{
			Type:    storage.ErrNotFound,
			Message: "task not found",
		}
	}
	if err != nil {
		return nil, err
	}
	return task, nil
}

func (s *Store) UpdateTask(ctx context.Context, task *storage.Task) error {
	if err := task.Validate(); err != nil {
		return err
	}

	now := s.now()
	res, err := s.db.ExecContext(ctx,
		`UPDATE tasks SET title = ?, due = ?, due_day = ?, completed = ?, modified = ?
		 WHERE user_id = ? AND id = ?`,
		task.Title, task.Due.Format(time.RFC3339Nano), storage.DayKey(task.Due),
		formatOptional(task.Completed), now.Format(time.RFC3339Nano),
		task.UserID, task.ID,
	)
	if err != nil {
		return fmt.Errorf("update task: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update task: %w", err)
	}
	if n == 0 {
		return &storage.Error{
			Type:    storage.ErrNotFound,
			Message: "task not found",
		}
	}

	task.Modified = now
	return nil
}

func (s *Store) ListTasks(ctx context.Context, userID string, opts *storage.ListOptions) ([]*storage.Task, error) {
	query := `SELECT user_id, id, title, due, completed, created, modified FROM tasks WHERE user_id = ?`
	args := []any{userID}
	if opts != nil && opts.Start != nil {
		query += ` AND due_day >= ?`
		args = append(args, storage.DayKey(*opts.Start))
	}
	if opts != nil && opts.End != nil {
		query += ` AND due_day <= ?`
		args = append(args, storage.DayKey(*opts.End))
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	var tasks []*storage.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}

	// Offsets differ between rows, so the text column does not sort by instant
	storage.SortByDue(tasks)
	return tasks, nil
}

func (s *Store) DeleteTask(ctx context.Context, userID, taskID string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM tasks WHERE user_id = ? AND id = ?`, userID, taskID)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	if n == 0 {
		return &storage.Error{
			Type:    storage.ErrNotFound,
			Message: "task not found",
		}
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTask(row scanner) (*storage.Task, error) {
	var (
		task                              storage.Task
		due, completed, created, modified string
	)
	if err := row.Scan(&task.UserID, &task.ID, &task.Title, &due, &completed, &created, &modified); err != nil {
		return nil, err
	}

	var err error
	if task.Due, err = time.Parse(time.RFC3339Nano, due); err != nil {
		return nil, fmt.Errorf("parse due of task %s: %w", task.ID, err)
	}
	if completed != "" {
		if task.Completed, err = time.Parse(time.RFC3339Nano, completed); err != nil {
			return nil, fmt.Errorf("parse completed of task %s: %w", task.ID, err)
		}
	}
	if task.Created, err = time.Parse(time.RFC3339Nano, created); err != nil {
		return nil, fmt.Errorf("parse created of task %s: %w", task.ID, err)
	}
	if task.Modified, err = time.Parse(time.RFC3339Nano, modified); err != nil {
		return nil, fmt.Errorf("parse modified of task %s: %w", task.ID, err)
	}
	return &task, nil
}

// formatOptional stores a zero time as an empty string
func formatOptional(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339Nano)
}

func isConstraint(err error) bool {
	var sqliteErr *sqlite.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	code := sqliteErr.Code()
	return code == sqlite3.SQLITE_CONSTRAINT || code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
}
