// ABOUTME: SQLite persistence for journals
// ABOUTME: Every read and write is scoped by a JournalFilter, normally carrying the owner ID

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

const journalColumns = `id, owner_id, title, notes, created_at`

// CreateJournal inserts a new journal.
func (s *SQLiteStore) CreateJournal(ctx context.Context, journal *Journal) error {
	if journal.CreatedAt.IsZero() {
		journal.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO journals (id, owner_id, title, notes, created_at)
		VALUES (?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		journal.ID,
		journal.OwnerID,
		journal.Title,
		journal.Notes,
		formatTime(journal.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("inserting journal: %w", err)
	}

	s.logger.Debug("created journal", "id", journal.ID, "owner_id", journal.OwnerID)
	return nil
}

// GetJournal returns the first journal matching filter, or ErrNotFound.
func (s *SQLiteStore) GetJournal(ctx context.Context, filter JournalFilter) (*Journal, error) {
	where, args := journalWhere(filter)
	query := `SELECT ` + journalColumns + ` FROM journals` + where + ` ORDER BY rowid ASC LIMIT 1`

	journal, err := scanJournal(s.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying journal: %w", err)
	}
	return journal, nil
}

// ListJournals returns all journals matching filter in creation order.
func (s *SQLiteStore) ListJournals(ctx context.Context, filter JournalFilter) ([]*Journal, error) {
	where, args := journalWhere(filter)
	query := `SELECT ` + journalColumns + ` FROM journals` + where + ` ORDER BY rowid ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying journals: %w", err)
	}
	defer func() { _ = rows.Close() }()

	journals := []*Journal{}
	for rows.Next() {
		journal, err := scanJournal(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning journal: %w", err)
		}
		journals = append(journals, journal)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating journals: %w", err)
	}

	return journals, nil
}

// UpdateJournalNotes replaces the notes of the first journal matching filter
// and returns the updated record.
func (s *SQLiteStore) UpdateJournalNotes(ctx context.Context, filter JournalFilter, notes string) (*Journal, error) {
	where, args := journalWhere(filter)
	query := `
		UPDATE journals SET notes = ?
		WHERE rowid = (SELECT rowid FROM journals` + where + ` ORDER BY rowid ASC LIMIT 1)
		RETURNING ` + journalColumns

	args = append([]any{notes}, args...)
	journal, err := scanJournal(s.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("updating journal notes: %w", err)
	}
	return journal, nil
}

func journalWhere(filter JournalFilter) (string, []any) {
	var conds []string
	var args []any
	if filter.ID != "" {
		conds = append(conds, "id = ?")
		args = append(args, filter.ID)
	}
	if filter.OwnerID != "" {
		conds = append(conds, "owner_id = ?")
		args = append(args, filter.OwnerID)
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanJournal(row rowScanner) (*Journal, error) {
	var j Journal
	var createdAtStr string
	if err := row.Scan(&j.ID, &j.OwnerID, &j.Title, &j.Notes, &createdAtStr); err != nil {
		return nil, err
	}
	var err error
	j.CreatedAt, err = parseTime(createdAtStr)
	if err != nil {
		return nil, err
	}
	return &j, nil
}
