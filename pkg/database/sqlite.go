package database

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

func Initialize(dbPath string) (*sql.DB, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite handles concurrency differently, but we still set reasonable limits
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(10 * time.Minute)

	const maxPingAttempts = 5
	pingDelay := 200 * time.Millisecond
	var pingErr error
	for attempt := 1; attempt <= maxPingAttempts; attempt++ {
		pingErr = db.Ping()
		if pingErr == nil {
			break
		}
		if attempt < maxPingAttempts {
			time.Sleep(pingDelay)
			if pingDelay < 2*time.Second {
				pingDelay *= 2
			}
		}
	}
	if pingErr != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database after %d attempts: %w", maxPingAttempts, pingErr)
	}

	// Enable foreign key enforcement (SQLite has this off by default)
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	// Enable WAL mode for better concurrent read/write performance
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	// Wait up to 5 seconds when the database is locked by another writer
	// instead of failing immediately with SQLITE_BUSY.
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		return nil, fmt.Errorf("failed to set busy_timeout: %w", err)
	}

	return db, nil
}

// SettingDefaults are the seeded values for the notice configuration keys.
// An empty notice_text means no notice is configured; an empty
// notice_expires_at means the notice never expires.
var SettingDefaults = map[string]string{
	"notice_text":       "",
	"notice_type":       "general",
	"notice_scope":      "all",
	"notice_expires_at": "",
	"notice_css_class":  "default-notice",
	"setup_completed":   "false",
}

// InitSchema creates all tables and indexes. Safe to call on every startup
// because every statement uses IF NOT EXISTS.
func InitSchema(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			id TEXT PRIMARY KEY,
			email TEXT UNIQUE NOT NULL,
			password_hash BLOB NOT NULL,
			is_admin INTEGER DEFAULT 0,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);

		CREATE TABLE IF NOT EXISTS notice_settings (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);

		CREATE INDEX IF NOT EXISTS idx_users_email ON users(email);
	`)
	if err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	// Seed default settings.
	for k, v := range SettingDefaults {
		if _, err := db.Exec(`INSERT OR IGNORE INTO notice_settings (key, value) VALUES (?, ?)`, k, v); err != nil {
			return fmt.Errorf("failed to seed default setting %s: %w", k, err)
		}
	}

	return nil
}
