// Package store provides persistent storage for the journal gateway using SQLite.
//
// # Architecture
//
// The store package splits persistence into three interfaces, composed into
// Store:
//
//   - UserStore: Users and their session token lists
//   - JournalStore: Journals owned by a user
//   - TaskStore: Tasks inside a journal
//
// SQLiteStore implements all of them in a single struct. MockStore is an
// in-memory implementation with the same semantics for unit tests.
//
// # Ownership
//
// Journal and task queries take a filter struct. The services in
// internal/journal always set OwnerID, so a record owned by someone else is
// indistinguishable from one that does not exist (ErrNotFound).
//
// # Tokens
//
// Each issued token is its own row in user_tokens. Adding or removing a token
// is a single statement, so concurrent logins for one user never lose each
// other's tokens.
//
// # SQLite Configuration
//
//	PRAGMA journal_mode=WAL;
//	PRAGMA foreign_keys=ON;
//
// Two drivers are linked in: modernc.org/sqlite ("sqlite", the default, pure
// Go) and github.com/mattn/go-sqlite3 ("sqlite3", cgo). Timestamps are stored
// as RFC3339 text.
//
// # Testing
//
// Use NewMockStore() for unit tests, or NewSQLiteStore with a path under
// t.TempDir() for integration tests with real SQLite.
package store
