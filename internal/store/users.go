// ABOUTME: SQLite persistence for users and their session token lists
// ABOUTME: Token rows are added and removed one statement at a time

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// CreateUser inserts a new user. Returns ErrEmailExists if the email is taken.
func (s *SQLiteStore) CreateUser(ctx context.Context, user *User) error {
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO users (id, email, password_hash, created_at)
		VALUES (?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		user.ID,
		user.Email,
		user.PasswordHash,
		formatTime(user.CreatedAt),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return ErrEmailExists
		}
		return fmt.Errorf("inserting user: %w", err)
	}

	s.logger.Info("created user", "id", user.ID)
	return nil
}

// GetUser retrieves a user and its token list by ID.
func (s *SQLiteStore) GetUser(ctx context.Context, id string) (*User, error) {
	query := `
		SELECT id, email, password_hash, created_at
		FROM users
		WHERE id = ?
	`
	return s.getUser(ctx, query, id)
}

// GetUserByEmail retrieves a user and its token list by exact email.
func (s *SQLiteStore) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	query := `
		SELECT id, email, password_hash, created_at
		FROM users
		WHERE email = ?
	`
	return s.getUser(ctx, query, email)
}

func (s *SQLiteStore) getUser(ctx context.Context, query string, arg string) (*User, error) {
	var user User
	var createdAtStr string

	err := s.db.QueryRowContext(ctx, query, arg).Scan(
		&user.ID,
		&user.Email,
		&user.PasswordHash,
		&createdAtStr,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying user: %w", err)
	}

	user.CreatedAt, err = parseTime(createdAtStr)
	if err != nil {
		return nil, err
	}

	user.Tokens, err = s.listUserTokens(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	return &user, nil
}

// listUserTokens returns a user's tokens in issue order.
func (s *SQLiteStore) listUserTokens(ctx context.Context, userID string) ([]UserToken, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT token, access, created_at
		FROM user_tokens
		WHERE user_id = ?
		ORDER BY rowid ASC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("querying user tokens: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var tokens []UserToken
	for rows.Next() {
		var t UserToken
		var createdAtStr string
		if err := rows.Scan(&t.Token, &t.Access, &createdAtStr); err != nil {
			return nil, fmt.Errorf("scanning user token: %w", err)
		}
		t.CreatedAt, err = parseTime(createdAtStr)
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating user tokens: %w", err)
	}

	return tokens, nil
}

// AddUserToken appends a token to the user's list.
// Returns ErrNotFound if the user doesn't exist.
func (s *SQLiteStore) AddUserToken(ctx context.Context, userID string, token UserToken) error {
	if token.CreatedAt.IsZero() {
		token.CreatedAt = time.Now().UTC()
	}

	// INSERT ... SELECT inserts nothing when the user is missing, which keeps
	// the existence check and the append in one statement.
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO user_tokens (token, user_id, access, created_at)
		SELECT ?, id, ?, ? FROM users WHERE id = ?
	`, token.Token, token.Access, formatTime(token.CreatedAt), userID)
	if err != nil {
		return fmt.Errorf("inserting user token: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("getting rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}

	s.logger.Debug("added user token", "user_id", userID, "access", token.Access)
	return nil
}

// RemoveUserToken removes a token from the user's list. Removing a token that
// is not present is not an error.
func (s *SQLiteStore) RemoveUserToken(ctx context.Context, userID, token string) error {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM user_tokens WHERE user_id = ? AND token = ?`, userID, token)
	if err != nil {
		return fmt.Errorf("deleting user token: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected > 0 {
		s.logger.Debug("removed user token", "user_id", userID)
	}
	return nil
}
