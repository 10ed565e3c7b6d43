package repository

import (
	"database/sql"

	"github.com/SiteNotice/SiteNotice/internal/models"
)

type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(user *models.User) error {
	isAdmin := 0
	if user.IsAdmin {
		isAdmin = 1
	}
	_, err := r.db.Exec(`
		INSERT INTO users (id, email, password_hash, is_admin, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, user.ID, user.Email, user.PasswordHash, isAdmin, user.CreatedAt)
	return err
}

func (r *UserRepository) GetByID(id string) (*models.User, error) {
	user := &models.User{}
	var isAdmin int
	err := r.db.QueryRow(`
		SELECT id, email, password_hash, is_admin, created_at
		FROM users WHERE id = ?
	`, id).Scan(&user.ID, &user.Email, &user.PasswordHash, &isAdmin, &user.CreatedAt)
	if err != nil {
		return nil, err
	}
	user.IsAdmin = isAdmin == 1
	return user, nil
}

func (r *UserRepository) GetByEmail(email string) (*models.User, error) {
	user := &models.User{}
	var isAdmin int
	err := r.db.QueryRow(`
		SELECT id, email, password_hash, is_admin, created_at
		FROM users WHERE email = ? COLLATE NOCASE
	`, email).Scan(&user.ID, &user.Email, &user.PasswordHash, &isAdmin, &user.CreatedAt)
	if err != nil {
		return nil, err
	}
	user.IsAdmin = isAdmin == 1
	return user, nil
}

// HasAdminCapability reports whether the given actor may change the notice
// configuration. Unknown actors have no capabilities.
func (r *UserRepository) HasAdminCapability(id string) bool {
	var isAdmin int
	err := r.db.QueryRow(`SELECT is_admin FROM users WHERE id = ?`, id).Scan(&isAdmin)
	if err != nil {
		return false
	}
	return isAdmin == 1
}

func (r *UserRepository) SetAdmin(id string, isAdmin bool) error {
	value := 0
	if isAdmin {
		value = 1
	}
	_, err := r.db.Exec(`UPDATE users SET is_admin = ? WHERE id = ?`, value, id)
	return err
}

func (r *UserRepository) CountAdmins() (int, error) {
	var count int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM users WHERE is_admin = 1`).Scan(&count)
	return count, err
}
