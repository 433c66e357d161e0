// ABOUTME: Owner-scoped journal and task operations
// ABOUTME: Every query and mutation is filtered by the requesting user's ID

package journal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/2389/journal-gateway/internal/store"
)

// Journal errors
var (
	ErrValidationFailed = errors.New("validation failed")
	ErrInvalidID        = errors.New("invalid id")
	// ErrNotFound is returned both for missing records and for records owned by
	// someone else.
	ErrNotFound = errors.New("not found")
)

// Store is the persistence the journal service needs.
type Store interface {
	store.JournalStore
	store.TaskStore
}

// Service implements journal and task operations for an authenticated user.
type Service struct {
	store  Store
	logger *slog.Logger
}

// NewService creates a journal service.
func NewService(s Store, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:  s,
		logger: logger.With("component", "journal"),
	}
}

// validID reports whether id is a well-formed record identifier.
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// mapStoreErr converts store.ErrNotFound into ErrNotFound and wraps anything else.
func mapStoreErr(op string, err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return ErrNotFound
	}
	return fmt.Errorf("%s: %w", op, err)
}

// CreateJournal creates a journal owned by principal. The title is trimmed
// and may be empty.
func (s *Service) CreateJournal(ctx context.Context, principal *store.User, title, notes string) (*store.Journal, error) {
	title = strings.TrimSpace(title)

	j := &store.Journal{
		ID:      uuid.New().String(),
		OwnerID: principal.ID,
		Title:   title,
		Notes:   notes,
	}
	if err := s.store.CreateJournal(ctx, j); err != nil {
		return nil, fmt.Errorf("creating journal: %w", err)
	}
	return j, nil
}

// ListJournals returns principal's journals in creation order.
func (s *Service) ListJournals(ctx context.Context, principal *store.User) ([]*store.Journal, error) {
	journals, err := s.store.ListJournals(ctx, store.JournalFilter{OwnerID: principal.ID})
	if err != nil {
		return nil, fmt.Errorf("listing journals: %w", err)
	}
	return journals, nil
}

// GetJournal returns one of principal's journals.
func (s *Service) GetJournal(ctx context.Context, principal *store.User, journalID string) (*store.Journal, error) {
	if !validID(journalID) {
		return nil, ErrInvalidID
	}
	j, err := s.store.GetJournal(ctx, store.JournalFilter{ID: journalID, OwnerID: principal.ID})
	if err != nil {
		return nil, mapStoreErr("getting journal", err)
	}
	return j, nil
}

// UpdateJournalNotes replaces the notes of one of principal's journals.
func (s *Service) UpdateJournalNotes(ctx context.Context, principal *store.User, journalID, notes string) (*store.Journal, error) {
	if !validID(journalID) {
		return nil, ErrInvalidID
	}
	j, err := s.store.UpdateJournalNotes(ctx, store.JournalFilter{ID: journalID, OwnerID: principal.ID}, notes)
	if err != nil {
		return nil, mapStoreErr("updating journal notes", err)
	}
	return j, nil
}

// CreateTask adds a task to one of principal's journals. timeOfDay is free
// text and may be nil.
func (s *Service) CreateTask(ctx context.Context, principal *store.User, journalID, text string, timeOfDay *string) (*store.Task, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("%w: task text is required", ErrValidationFailed)
	}
	if !validID(journalID) {
		return nil, ErrInvalidID
	}

	// Tasks may only be attached to a journal the principal owns.
	if _, err := s.store.GetJournal(ctx, store.JournalFilter{ID: journalID, OwnerID: principal.ID}); err != nil {
		return nil, mapStoreErr("checking journal", err)
	}

	t := &store.Task{
		ID:        uuid.New().String(),
		OwnerID:   principal.ID,
		JournalID: journalID,
		Text:      text,
		Time:      timeOfDay,
	}
	if err := s.store.CreateTask(ctx, t); err != nil {
		return nil, fmt.Errorf("creating task: %w", err)
	}
	return t, nil
}

// ListTasks returns principal's tasks in journalID. A malformed or foreign
// journal ID yields an empty list.
func (s *Service) ListTasks(ctx context.Context, principal *store.User, journalID string) ([]*store.Task, error) {
	if !validID(journalID) {
		return []*store.Task{}, nil
	}
	tasks, err := s.store.ListTasks(ctx, store.TaskFilter{OwnerID: principal.ID, JournalID: journalID})
	if err != nil {
		return nil, fmt.Errorf("listing tasks: %w", err)
	}
	return tasks, nil
}

// UpdateTaskCompletion sets the completed flag of one of principal's tasks and
// returns the updated task. A nil flag changes nothing.
//
// NOTE: the stored value is the inverse of the flag sent (true stores false).
// Existing clients send the current state and expect the server to toggle it.
func (s *Service) UpdateTaskCompletion(ctx context.Context, principal *store.User, taskID string, completed *bool) (*store.Task, error) {
	if !validID(taskID) {
		return nil, ErrInvalidID
	}
	filter := store.TaskFilter{ID: taskID, OwnerID: principal.ID}

	if completed == nil {
		t, err := s.store.GetTask(ctx, filter)
		if err != nil {
			return nil, mapStoreErr("getting task", err)
		}
		return t, nil
	}

	t, err := s.store.SetTaskCompleted(ctx, filter, !*completed)
	if err != nil {
		return nil, mapStoreErr("updating task", err)
	}
	return t, nil
}

// DeleteTask removes one of principal's tasks and returns it.
func (s *Service) DeleteTask(ctx context.Context, principal *store.User, taskID string) (*store.Task, error) {
	if !validID(taskID) {
		return nil, ErrInvalidID
	}
	t, err := s.store.DeleteTask(ctx, store.TaskFilter{ID: taskID, OwnerID: principal.ID})
	if err != nil {
		return nil, mapStoreErr("deleting task", err)
	}
	s.logger.Debug("task deleted", "task_id", t.ID, "user_id", principal.ID)
	return t, nil
}
