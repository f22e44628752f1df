package repository

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/mohamadaskravi2050-crypto/Muzic56/model"

	"github.com/go-sql-driver/mysql"
)

// UserRepository defines the interface for user data operations.
type UserRepository interface {
	CreateUser(user *model.User) (int64, error)
	GetUserByID(id int64) (*model.User, error)
	GetUserByUsername(username string) (*model.User, error)
	UpdateProfileImage(userID int64, path string) error
	DeleteUserCascade(userID int64) error
}

// mysqlUserRepository implements UserRepository for MySQL.
type mysqlUserRepository struct {
	db *sql.DB
}

// NewMySQLUserRepository creates a new mysqlUserRepository.
func NewMySQLUserRepository(db *sql.DB) UserRepository {
	return &mysqlUserRepository{db: db}
}

// CreateUser adds a new user to the database. Returns ErrDuplicateUser when
// the username is already taken.
func (r *mysqlUserRepository) CreateUser(user *model.User) (int64, error) {
	query := "INSERT INTO users (username, password_hash, profile_image) VALUES (?, ?, ?)"
	stmt, err := r.db.Prepare(query)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare create user statement: %w", err)
	}
	defer stmt.Close()

	res, err := stmt.Exec(user.Username, user.PasswordHash, user.ProfileImage)
	if err != nil {
		var mysqlErr *mysql.MySQLError
		if errors.As(err, &mysqlErr) && mysqlErr.Number == 1062 {
			return 0, ErrDuplicateUser
		}
		return 0, fmt.Errorf("failed to execute create user statement: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert ID for user: %w", err)
	}
	return id, nil
}

// GetUserByID retrieves a user by their ID.
func (r *mysqlUserRepository) GetUserByID(id int64) (*model.User, error) {
	query := "SELECT id, username, password_hash, profile_image, is_staff, is_active, created_at FROM users WHERE id = ?"
	row := r.db.QueryRow(query, id)
	user := &model.User{}
	err := row.Scan(&user.ID, &user.Username, &user.PasswordHash, &user.ProfileImage, &user.IsStaff, &user.IsActive, &user.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // User not found
		}
		return nil, fmt.Errorf("failed to scan user row for ID %d: %w", id, err)
	}
	return user, nil
}

// GetUserByUsername retrieves a user by their username (case-sensitive).
func (r *mysqlUserRepository) GetUserByUsername(username string) (*model.User, error) {
	query := "SELECT id, username, password_hash, profile_image, is_staff, is_active, created_at FROM users WHERE username = ?"
	row := r.db.QueryRow(query, username)
	user := &model.User{}
	err := row.Scan(&user.ID, &user.Username, &user.PasswordHash, &user.ProfileImage, &user.IsStaff, &user.IsActive, &user.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // User not found
		}
		return nil, fmt.Errorf("failed to scan user row for username %s: %w", username, err)
	}
	return user, nil
}

// UpdateProfileImage updates a user's profile image path.
func (r *mysqlUserRepository) UpdateProfileImage(userID int64, path string) error {
	query := "UPDATE users SET profile_image = ? WHERE id = ?"
	stmt, err := r.db.Prepare(query)
	if err != nil {
		return fmt.Errorf("failed to prepare update profile image statement: %w", err)
	}
	defer stmt.Close()

	if _, err = stmt.Exec(path, userID); err != nil {
		return fmt.Errorf("failed to execute update profile image statement: %w", err)
	}
	return nil
}

// DeleteUserCascade removes the user and everything they own: their music,
// their playlists, their like rows. The schema carries ON DELETE CASCADE
// foreign keys as a backstop, but the sequence is run explicitly inside one
// transaction so the deletion order does not depend on the schema.
func (r *mysqlUserRepository) DeleteUserCascade(userID int64) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin account deletion transaction: %w", err)
	}
	defer tx.Rollback()

	steps := []struct {
		desc  string
		query string
	}{
		{"playlist memberships of owned playlists",
			"DELETE FROM playlist_songs WHERE playlist_id IN (SELECT id FROM playlists WHERE owner_id = ?)"},
		{"playlist memberships of uploaded music",
			"DELETE FROM playlist_songs WHERE song_id IN (SELECT id FROM music WHERE uploaded_by = ?)"},
		{"likes on uploaded music",
			"DELETE FROM music_likes WHERE music_id IN (SELECT id FROM music WHERE uploaded_by = ?)"},
		{"uploaded music", "DELETE FROM music WHERE uploaded_by = ?"},
		{"owned playlists", "DELETE FROM playlists WHERE owner_id = ?"},
		{"own like rows", "DELETE FROM music_likes WHERE user_id = ?"},
		{"user row", "DELETE FROM users WHERE id = ?"},
	}

	for _, step := range steps {
		if _, err := tx.Exec(step.query, userID); err != nil {
			return fmt.Errorf("failed to delete %s for user %d: %w", step.desc, userID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit account deletion for user %d: %w", userID, err)
	}
	return nil
}
