package storage

import (
	"database/sql"
	"fmt"

	// SQLite driver
	_ "modernc.org/sqlite"
)

// SQLiteBackend stores entries in a single-table SQLite database. Useful
// when the generated set is consumed by tooling that already speaks SQL
// rather than env files.
type SQLiteBackend struct {
	Path string
}

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS variables (
	name  TEXT PRIMARY KEY,
	value TEXT NOT NULL
)`

// open opens the database and ensures the schema exists.
func (s *SQLiteBackend) open() (*sql.DB, error) {
	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_busy_timeout=5000", s.Path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database %s: %w", s.Path, err)
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize database %s: %w", s.Path, err)
	}
	return db, nil
}

// Load implements Backend.
func (s *SQLiteBackend) Load() (map[string]string, error) {
	db, err := s.open()
	if err != nil {
		return nil, err
	}
	defer db.Close()

	rows, err := db.Query(`SELECT name, value FROM variables`)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", s.Path, err)
	}
	defer rows.Close()

	values := make(map[string]string)
	for rows.Next() {
		var name, value string
		if err := rows.Scan(&name, &value); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		values[name] = value
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", s.Path, err)
	}
	return values, nil
}

// Store implements Backend. All entries are written in one transaction so a
// failure leaves the previous set intact.
func (s *SQLiteBackend) Store(entries []Entry) error {
	if err := ensureParent(s.Path); err != nil {
		return err
	}

	db, err := s.open()
	if err != nil {
		return err
	}
	defer db.Close()

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	for _, e := range entries {
		_, err := tx.Exec(
			`INSERT INTO variables (name, value) VALUES (?, ?)
			 ON CONFLICT(name) DO UPDATE SET value = excluded.value`,
			e.Name, e.Value,
		)
		if err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to store %s: %w", e.Name, err)
		}
	}

	return tx.Commit()
}
