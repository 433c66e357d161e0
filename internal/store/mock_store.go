// ABOUTME: Mock Store implementation for testing
// ABOUTME: Allows tests to run without SQLite

package store

import (
	"context"
	"sync"
	"time"
)

// MockStore is an in-memory Store implementation for testing.
type MockStore struct {
	mu       sync.RWMutex
	users    map[string]*User // keyed by user ID
	byEmail  map[string]string
	journals []*Journal // creation order
	tasks    []*Task    // creation order

	// PingErr, when set, is returned from Ping.
	PingErr error
}

var _ Store = (*MockStore)(nil)

// NewMockStore creates a new MockStore.
func NewMockStore() *MockStore {
	return &MockStore{
		users:   make(map[string]*User),
		byEmail: make(map[string]string),
	}
}

// CreateUser stores a new user.
func (m *MockStore) CreateUser(ctx context.Context, user *User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.byEmail[user.Email]; exists {
		return ErrEmailExists
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}

	// Make a copy to avoid external modification
	u := copyUser(user)
	m.users[u.ID] = u
	m.byEmail[u.Email] = u.ID
	return nil
}

// GetUser retrieves a user by ID.
func (m *MockStore) GetUser(ctx context.Context, id string) (*User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	u, ok := m.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return copyUser(u), nil
}

// GetUserByEmail retrieves a user by email.
func (m *MockStore) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	id, ok := m.byEmail[email]
	if !ok {
		return nil, ErrNotFound
	}
	return copyUser(m.users[id]), nil
}

// AddUserToken appends a token to the user's list.
func (m *MockStore) AddUserToken(ctx context.Context, userID string, token UserToken) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[userID]
	if !ok {
		return ErrNotFound
	}
	if token.CreatedAt.IsZero() {
		token.CreatedAt = time.Now().UTC()
	}
	u.Tokens = append(u.Tokens, token)
	return nil
}

// RemoveUserToken removes every entry equal to token from the user's list.
func (m *MockStore) RemoveUserToken(ctx context.Context, userID, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[userID]
	if !ok {
		return nil
	}
	kept := u.Tokens[:0]
	for _, t := range u.Tokens {
		if t.Token != token {
			kept = append(kept, t)
		}
	}
	u.Tokens = kept
	return nil
}

// CreateJournal stores a new journal.
func (m *MockStore) CreateJournal(ctx context.Context, journal *Journal) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if journal.CreatedAt.IsZero() {
		journal.CreatedAt = time.Now().UTC()
	}
	j := *journal
	m.journals = append(m.journals, &j)
	return nil
}

// GetJournal returns the first journal matching filter.
func (m *MockStore) GetJournal(ctx context.Context, filter JournalFilter) (*Journal, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, j := range m.journals {
		if journalMatches(j, filter) {
			result := *j
			return &result, nil
		}
	}
	return nil, ErrNotFound
}

// ListJournals returns all journals matching filter in creation order.
func (m *MockStore) ListJournals(ctx context.Context, filter JournalFilter) ([]*Journal, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := []*Journal{}
	for _, j := range m.journals {
		if journalMatches(j, filter) {
			c := *j
			result = append(result, &c)
		}
	}
	return result, nil
}

// UpdateJournalNotes replaces the notes of the first journal matching filter.
func (m *MockStore) UpdateJournalNotes(ctx context.Context, filter JournalFilter, notes string) (*Journal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, j := range m.journals {
		if journalMatches(j, filter) {
			j.Notes = notes
			result := *j
			return &result, nil
		}
	}
	return nil, ErrNotFound
}

// CreateTask stores a new task.
func (m *MockStore) CreateTask(ctx context.Context, task *Task) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if task.CreatedAt.IsZero() {
		task.CreatedAt = time.Now().UTC()
	}
	m.tasks = append(m.tasks, copyTask(task))
	return nil
}

// ListTasks returns all tasks matching filter in creation order.
func (m *MockStore) ListTasks(ctx context.Context, filter TaskFilter) ([]*Task, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := []*Task{}
	for _, t := range m.tasks {
		if taskMatches(t, filter) {
			result = append(result, copyTask(t))
		}
	}
	return result, nil
}

// GetTask returns the first task matching filter.
func (m *MockStore) GetTask(ctx context.Context, filter TaskFilter) (*Task, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, t := range m.tasks {
		if taskMatches(t, filter) {
			return copyTask(t), nil
		}
	}
	return nil, ErrNotFound
}

// SetTaskCompleted sets the completed flag on the first task matching filter.
func (m *MockStore) SetTaskCompleted(ctx context.Context, filter TaskFilter, completed bool) (*Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, t := range m.tasks {
		if taskMatches(t, filter) {
			t.Completed = completed
			return copyTask(t), nil
		}
	}
	return nil, ErrNotFound
}

// DeleteTask removes the first task matching filter and returns it.
func (m *MockStore) DeleteTask(ctx context.Context, filter TaskFilter) (*Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, t := range m.tasks {
		if taskMatches(t, filter) {
			m.tasks = append(m.tasks[:i], m.tasks[i+1:]...)
			return t, nil
		}
	}
	return nil, ErrNotFound
}

// Ping returns PingErr.
func (m *MockStore) Ping(ctx context.Context) error {
	return m.PingErr
}

// Close is a no-op for MockStore.
func (m *MockStore) Close() error {
	return nil
}

func journalMatches(j *Journal, f JournalFilter) bool {
	return (f.ID == "" || j.ID == f.ID) && (f.OwnerID == "" || j.OwnerID == f.OwnerID)
}

func taskMatches(t *Task, f TaskFilter) bool {
	return (f.ID == "" || t.ID == f.ID) &&
		(f.OwnerID == "" || t.OwnerID == f.OwnerID) &&
		(f.JournalID == "" || t.JournalID == f.JournalID)
}

func copyUser(u *User) *User {
	c := *u
	c.Tokens = append([]UserToken(nil), u.Tokens...)
	return &c
}

func copyTask(t *Task) *Task {
	c := *t
	if t.Time != nil {
		v := *t.Time
		c.Time = &v
	}
	return &c
}
