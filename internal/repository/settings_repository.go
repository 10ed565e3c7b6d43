package repository

import (
	"database/sql"
	"time"

	"github.com/SiteNotice/SiteNotice/internal/models"
)

// SettingsRepository is the key/value store behind the notice configuration.
// A single upsert per key is the only write primitive; atomicity of a
// multi-key update is the caller's concern, not the store's.
type SettingsRepository struct {
	db *sql.DB
}

func NewSettingsRepository(db *sql.DB) *SettingsRepository {
	return &SettingsRepository{db: db}
}

func (r *SettingsRepository) Get(key string) (string, error) {
	var value string
	err := r.db.QueryRow(`SELECT value FROM notice_settings WHERE key = ?`, key).Scan(&value)
	return value, err
}

// GetOrDefault returns the stored value for key, or fallback when the key is
// absent or the store read fails.
func (r *SettingsRepository) GetOrDefault(key, fallback string) string {
	value, err := r.Get(key)
	if err != nil {
		return fallback
	}
	return value
}

func (r *SettingsRepository) Set(key, value string) error {
	_, err := r.db.Exec(`
		INSERT INTO notice_settings (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, key, value, time.Now().UTC())
	return err
}

// SetMany applies the given key/value pairs one upsert at a time. The first
// store error aborts the remainder.
func (r *SettingsRepository) SetMany(values map[string]string) error {
	for k, v := range values {
		if err := r.Set(k, v); err != nil {
			return err
		}
	}
	return nil
}

func (r *SettingsRepository) GetAll() ([]*models.NoticeSetting, error) {
	rows, err := r.db.Query(`SELECT key, value, updated_at FROM notice_settings ORDER BY key`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var settings []*models.NoticeSetting
	for rows.Next() {
		s := &models.NoticeSetting{}
		if err := rows.Scan(&s.Key, &s.Value, &s.UpdatedAt); err != nil {
			return nil, err
		}
		settings = append(settings, s)
	}
	return settings, rows.Err()
}
