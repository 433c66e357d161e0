// ABOUTME: Store interfaces and data types for journal-gateway persistence
// ABOUTME: Defines User, UserToken, Journal, Task and the filters used to scope them by owner

package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a requested entity does not exist
var ErrNotFound = errors.New("not found")

// ErrEmailExists is returned when creating a user whose email is already registered
var ErrEmailExists = errors.New("email already exists")

// User is an account that can authenticate against the gateway.
type User struct {
	ID           string
	Email        string
	PasswordHash string // bcrypt hash, never the raw password
	Tokens       []UserToken
	CreatedAt    time.Time
}

// HasToken reports whether token is still in the user's active token list.
func (u *User) HasToken(token string) bool {
	for _, t := range u.Tokens {
		if t.Token == token {
			return true
		}
	}
	return false
}

// UserToken is one issued session token. The row is the source of truth for
// revocation: a signed token whose row is gone is no longer valid.
type UserToken struct {
	Token     string
	Access    string // purpose tag, "auth" for session tokens
	CreatedAt time.Time
}

// Journal groups tasks for a single owner.
type Journal struct {
	ID        string
	OwnerID   string
	Title     string
	Notes     string
	CreatedAt time.Time
}

// Task is a single to-do entry within a journal.
type Task struct {
	ID        string
	OwnerID   string
	JournalID string
	Text      string
	Time      *string // optional free-text time, nil when unset
	Completed bool
	CreatedAt time.Time
}

// TaskFilter scopes task queries. Empty fields are not applied, but callers in
// this repo always set OwnerID.
type TaskFilter struct {
	ID        string
	OwnerID   string
	JournalID string
}

// JournalFilter scopes journal queries.
type JournalFilter struct {
	ID      string
	OwnerID string
}

// UserStore persists users and their session token lists.
type UserStore interface {
	CreateUser(ctx context.Context, user *User) error
	GetUser(ctx context.Context, id string) (*User, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)

	// AddUserToken and RemoveUserToken touch a single token row each, so
	// concurrent logins and logouts for the same user never overwrite each other.
	AddUserToken(ctx context.Context, userID string, token UserToken) error
	RemoveUserToken(ctx context.Context, userID, token string) error
}

// JournalStore persists journals.
type JournalStore interface {
	CreateJournal(ctx context.Context, journal *Journal) error
	GetJournal(ctx context.Context, filter JournalFilter) (*Journal, error)
	ListJournals(ctx context.Context, filter JournalFilter) ([]*Journal, error)
	UpdateJournalNotes(ctx context.Context, filter JournalFilter, notes string) (*Journal, error)
}

// TaskStore persists tasks.
type TaskStore interface {
	CreateTask(ctx context.Context, task *Task) error
	ListTasks(ctx context.Context, filter TaskFilter) ([]*Task, error)
	// SetTaskCompleted updates the first task matching filter and returns the
	// post-update record, or ErrNotFound.
	SetTaskCompleted(ctx context.Context, filter TaskFilter, completed bool) (*Task, error)
	GetTask(ctx context.Context, filter TaskFilter) (*Task, error)
	// DeleteTask removes the task matching filter and returns it, or ErrNotFound.
	DeleteTask(ctx context.Context, filter TaskFilter) (*Task, error)
}

// Store is the full persistence surface used by the gateway.
type Store interface {
	UserStore
	JournalStore
	TaskStore

	// Ping checks that the underlying database is reachable.
	Ping(ctx context.Context) error

	// Close releases any resources held by the store
	Close() error
}
