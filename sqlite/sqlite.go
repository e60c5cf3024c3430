// Package sqlite provides SQLite-based storage implementations for agendex services.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
)

// DB represents a SQLite database connection.
type DB struct {
	db   *sql.DB
	path string
}

// NewDB creates a new DB instance with the given path.
// Use ":memory:" for an in-memory database.
func NewDB(path string) *DB {
	return &DB{path: path}
}

// Open opens the database connection and creates the schema if needed.
func (db *DB) Open() error {
	conn, err := sql.Open("sqlite3", db.path)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer at a time, so limit to one connection.
	conn.SetMaxOpenConns(1)

	if err := conn.Ping(); err != nil {
		conn.Close()
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	// Wait 5 seconds before failing on lock contention rather than
	// returning "database is locked" immediately.
	if _, err := conn.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		conn.Close()
		return fmt.Errorf("failed to set busy timeout: %w", err)
	}

	// WAL mode allows concurrent reads while an ingestion run writes.
	// Not supported for in-memory databases.
	if db.path != ":memory:" {
		if _, err := conn.Exec("PRAGMA journal_mode = WAL"); err != nil {
			conn.Close()
			return fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if _, err := conn.Exec("PRAGMA foreign_keys = ON"); err != nil {
		conn.Close()
		return fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	db.db = conn

	if err := db.createSchema(); err != nil {
		conn.Close()
		return fmt.Errorf("failed to create schema: %w", err)
	}

	return nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	if db.db != nil {
		return db.db.Close()
	}
	return nil
}

// QueryRowContext executes a query that returns a single row.
func (db *DB) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	return db.db.QueryRowContext(ctx, query, args...)
}

// QueryContext executes a query that returns rows.
func (db *DB) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return db.db.QueryContext(ctx, query, args...)
}

// ExecContext executes a statement that doesn't return rows.
func (db *DB) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return db.db.ExecContext(ctx, query, args...)
}

// Stats returns database statistics.
func (db *DB) Stats() sql.DBStats {
	return db.db.Stats()
}

// createSchema creates the database tables if they don't exist.
//
// The indexes on json_extract over event_data serve the legacy-URL dedupe
// lookup: requests created before source_url was a first-class column only
// record the crawled URL inside their event data.
func (db *DB) createSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS agenda_configs (
			id TEXT PRIMARY KEY,
			organizer_id TEXT NOT NULL DEFAULT '',
			location_id TEXT NOT NULL DEFAULT '',
			enabled INTEGER NOT NULL DEFAULT 1,
			agenda_url TEXT NOT NULL,
			event_link_selector TEXT NOT NULL,
			event_link_attribute TEXT NOT NULL DEFAULT '',
			next_page_selector TEXT NOT NULL DEFAULT '',
			next_page_attribute TEXT NOT NULL DEFAULT '',
			max_pages INTEGER NOT NULL DEFAULT 1,
			url_pattern TEXT NOT NULL DEFAULT '',
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);

		CREATE TABLE IF NOT EXISTS selector_rules (
			id TEXT PRIMARY KEY,
			organizer_id TEXT NOT NULL DEFAULT '',
			location_id TEXT NOT NULL DEFAULT '',
			field TEXT NOT NULL,
			selector TEXT NOT NULL,
			attribute TEXT NOT NULL DEFAULT '',
			text_prefix TEXT NOT NULL DEFAULT '',
			transform TEXT NOT NULL DEFAULT '',
			position INTEGER NOT NULL DEFAULT 0
		);

		CREATE TABLE IF NOT EXISTS ai_field_toggles (
			id TEXT PRIMARY KEY,
			organizer_id TEXT NOT NULL DEFAULT '',
			location_id TEXT NOT NULL DEFAULT '',
			field TEXT NOT NULL,
			enabled INTEGER NOT NULL DEFAULT 1,
			hint TEXT NOT NULL DEFAULT ''
		);

		CREATE TABLE IF NOT EXISTS requests (
			id TEXT PRIMARY KEY,
			request_type TEXT NOT NULL,
			source_url TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL,
			event_data TEXT NOT NULL DEFAULT '{}',
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_configs_owner ON agenda_configs(organizer_id, location_id);
		CREATE INDEX IF NOT EXISTS idx_rules_owner ON selector_rules(organizer_id, location_id);
		CREATE INDEX IF NOT EXISTS idx_toggles_owner ON ai_field_toggles(organizer_id, location_id);
		CREATE INDEX IF NOT EXISTS idx_requests_source_url ON requests(source_url);
		CREATE INDEX IF NOT EXISTS idx_requests_scraping_url ON requests(json_extract(event_data, '$.scraping_url'));
		CREATE INDEX IF NOT EXISTS idx_requests_external_url ON requests(json_extract(event_data, '$.external_url'));
	`

	_, err := db.db.Exec(schema)
	return err
}
