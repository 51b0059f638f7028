package database

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite" // SQLite driver
)

// UserTable is the table exports read from.
const UserTable = "user"

// KnownUserColumns lists the columns of the user table that may be exported.
// The password hash is deliberately absent.
var KnownUserColumns = []string{
	"user_id",
	"user_name",
	"user_real_name",
	"user_email",
	"user_email_authenticated",
	"user_registration",
	"user_touched",
	"user_editcount",
}

// New creates a new read-write database connection pool.
func New(path string) (*sql.DB, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err = db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return db, nil
}

// NewReadOnly opens path for reads only. Exports go through this handle so
// they never need a write-capable connection.
func NewReadOnly(path string) (*sql.DB, error) {
	dsn := fmt.Sprintf("file:%s?mode=ro&_pragma=query_only(1)&_pragma=busy_timeout(5000)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open read-only database: %w", err)
	}
	if err = db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping read-only database: %w", err)
	}
	return db, nil
}

// Migrate runs the SQL statements to set up the database schema.
func Migrate(db *sql.DB) error {
	const sqlStmt = `
	CREATE TABLE IF NOT EXISTS "user" (
		user_id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_name TEXT NOT NULL UNIQUE,
		user_real_name TEXT NOT NULL DEFAULT '',
		user_password TEXT NOT NULL DEFAULT '',
		user_email TEXT NOT NULL DEFAULT '',
		user_email_authenticated TEXT, -- 14-digit timestamp, NULL until confirmed
		user_registration TEXT,        -- 14-digit timestamp
		user_touched TEXT NOT NULL DEFAULT '',
		user_editcount INTEGER
	);

	CREATE TABLE IF NOT EXISTS user_groups (
		ug_user INTEGER NOT NULL REFERENCES "user"(user_id) ON DELETE CASCADE,
		ug_group TEXT NOT NULL,
		PRIMARY KEY (ug_user, ug_group)
	);

	CREATE TABLE IF NOT EXISTS events (
		id TEXT NOT NULL PRIMARY KEY,
		type TEXT NOT NULL,
		level TEXT NOT NULL,
		message TEXT NOT NULL,
		actor_id INTEGER,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	`
	_, err := db.Exec(sqlStmt)
	return err
}
