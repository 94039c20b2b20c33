package database

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3" // sqlite3 driver
	"github.com/rs/zerolog"
)

// DB wraps the sqlite connection holding booking requests, the denormalized
// slot status index and the ban list.
type DB struct {
	*sql.DB
	logger *zerolog.Logger
}

var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadyBanned = errors.New("already banned")
)

// NewDB opens the database and creates tables if they don't exist.
func NewDB(path string, logger *zerolog.Logger) (*DB, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	// WAL mode and busy timeout so request handling and the admin surface
	// don't trip over each other.
	dsn := path + "?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	instance := &DB{DB: db, logger: logger}

	if err := instance.createTables(); err != nil {
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	logger.Info().Str("path", path).Msg("Database initialized")
	return instance, nil
}

func (db *DB) createTables() error {
	queries := []string{
		// Booking requests: the authoritative record.
		`CREATE TABLE IF NOT EXISTS booking_requests (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL,
			rollno TEXT NOT NULL,
			email TEXT NOT NULL,
			purpose TEXT,
			player_rollnos TEXT,
			player_count INTEGER NOT NULL DEFAULT 0,
			slot INTEGER NOT NULL,
			date TEXT NOT NULL,
			status TEXT NOT NULL DEFAULT 'pending',
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		)`,

		// Denormalized per-(requester, slot) status projection, written in
		// the same transaction as its booking request.
		`CREATE TABLE IF NOT EXISTS slot_status (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			rollno TEXT NOT NULL,
			slot INTEGER NOT NULL,
			date TEXT NOT NULL,
			status TEXT NOT NULL DEFAULT 'pending',
			requested_at DATETIME NOT NULL
		)`,

		// Ban list, checked synchronously before any submission.
		`CREATE TABLE IF NOT EXISTS bans (
			rollno TEXT PRIMARY KEY,
			reason TEXT,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE INDEX IF NOT EXISTS idx_requests_slot_date_status ON booking_requests(slot, date, status)`,
		`CREATE INDEX IF NOT EXISTS idx_requests_created_at ON booking_requests(created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_requests_rollno ON booking_requests(rollno)`,
		`CREATE INDEX IF NOT EXISTS idx_slot_status_slot_date ON slot_status(slot, date)`,
		`CREATE INDEX IF NOT EXISTS idx_slot_status_rollno ON slot_status(rollno)`,
	}

	for _, query := range queries {
		if _, err := db.Exec(query); err != nil {
			return fmt.Errorf("error executing query %s: %w", query, err)
		}
	}
	return nil
}

func (db *DB) Close() error {
	return db.DB.Close()
}
