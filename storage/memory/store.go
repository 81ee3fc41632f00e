// memory based implementation for tests and one-shot CLI runs
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/cyp0633/librecur/storage"
)

// Store implements storage.Storage using in-memory maps
type Store struct {
	mu    sync.RWMutex
	tasks map[string]*storage.Task // key: userID/taskID
	now   func() time.Time
}

// New creates a new in-memory storage
func New() *Store {
	return &Store{
		tasks: make(map[string]*storage.Task),
		now:   time.Now,
	}
}

func (s *Store) taskKey(userID, taskID string) string {
	return fmt.Sprintf("%s/%s", userID, taskID)
}

func (s *Store) CreateTask(_ context.Context, task *storage.Task) error {
	if err := task.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := s.taskKey(task.UserID, task.ID)
	if _, exists := s.tasks[key]; exists {
		return &storage.Error{
			Type:    storage.ErrAlreadyExists,
			Message: "task already exists",
		}
	}

	now := s.now()
	stored := *task
	stored.Created = now
	stored.Modified = now
	s.tasks[key] = &stored

	task.Created = now
	task.Modified = now
	return nil
}

func (s *Store) GetTask(_ context.Context, userID, taskID string) (*storage.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	task, ok := s.tasks[s.taskKey(userID, taskID)]
	if !ok {
		return nil, &storage.Error{
			Type:    storage.ErrNotFound,
			Message: "task not found",
		}
	}

	out := *task
	return &out, nil
}

func (s *Store) UpdateTask(_ context.Context, task *storage.Task) error {
	if err := task.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := s.taskKey(task.UserID, task.ID)
	existing, exists := s.tasks[key]
	if !exists {
		return &storage.Error{
			Type:    storage.ErrNotFound,
			Message: "task not found",
		}
	}

	stored := *task
	stored.Created = existing.Created
	stored.Modified = s.now()
	s.tasks[key] = &stored

	task.Created = stored.Created
	task.Modified = stored.Modified
	return nil
}

func (s *Store) ListTasks(_ context.Context, userID string, opts *storage.ListOptions) ([]*storage.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var tasks []*storage.Task
	for _, task := range s.tasks {
		if task.UserID != userID || !opts.Matches(task.Due) {
			continue
		}
		out := *task
		tasks = append(tasks, &out)
	}

	storage.SortByDue(tasks)
	return tasks, nil
}

func (s *Store) DeleteTask(_ context.Context, userID, taskID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := s.taskKey(userID, taskID)
	if _, exists := s.tasks[key]; !exists {
		return &storage.Error{
			Type:    storage.ErrNotFound,
			Message: "task not found",
		}
	}

	delete(s.tasks, key)
	return nil
}

// Close is a no-op
func (s *Store) Close() error {
	return nil
}
