package db

import (
	"database/sql"
	"fmt"

	"github.com/mohamadaskravi2050-crypto/Muzic56/config"
	"github.com/mohamadaskravi2050-crypto/Muzic56/logger"

	_ "github.com/go-sql-driver/mysql" // MySQL driver
)

var DB *sql.DB

// ConnectDB establishes a connection to the database.
func ConnectDB(cfg *config.Config) error {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=true",
		cfg.DBUser, cfg.DBPassword, cfg.DBHost, cfg.DBPort, cfg.DBName)

	var err error
	DB, err = sql.Open("mysql", dsn)
	if err != nil {
		return fmt.Errorf("failed to open database connection: %w", err)
	}

	if err = DB.Ping(); err != nil {
		DB.Close()
		return fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Info("Successfully connected to the database")
	return nil
}

// InitDB initializes the database schema, creating tables if they don't exist.
func InitDB() error {
	if err := createUsersTable(); err != nil {
		return err
	}
	if err := createMusicTable(); err != nil {
		return err
	}
	if err := createMusicLikesTable(); err != nil {
		return err
	}
	if err := createPlaylistsTable(); err != nil {
		return err
	}
	if err := createPlaylistSongsTable(); err != nil {
		return err
	}

	logger.Info("Database schema initialization completed")
	return nil
}

func createUsersTable() error {
	// username uses a binary collation so uniqueness and lookups are
	// case-sensitive exact matches.
	query := `
	CREATE TABLE IF NOT EXISTS users (
		id INT AUTO_INCREMENT PRIMARY KEY,
		username VARCHAR(150) COLLATE utf8mb4_bin NOT NULL UNIQUE,
		password_hash VARCHAR(255) NOT NULL,
		profile_image VARCHAR(512),
		is_staff BOOLEAN NOT NULL DEFAULT FALSE,
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);
	`
	if _, err := DB.Exec(query); err != nil {
		return fmt.Errorf("failed to create users table: %w", err)
	}
	return nil
}

func createMusicTable() error {
	query := `
	CREATE TABLE IF NOT EXISTS music (
		id INT AUTO_INCREMENT PRIMARY KEY,
		title VARCHAR(255) NOT NULL,
		artist VARCHAR(255) NOT NULL DEFAULT '',
		audio_path VARCHAR(512) NOT NULL,
		cover_path VARCHAR(512),
		uploaded_by INT NOT NULL,
		uploaded_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		CONSTRAINT fk_music_uploader FOREIGN KEY (uploaded_by) REFERENCES users(id) ON DELETE CASCADE
	);
	`
	if _, err := DB.Exec(query); err != nil {
		return fmt.Errorf("failed to create music table: %w", err)
	}
	return nil
}

func createMusicLikesTable() error {
	query := `
	CREATE TABLE IF NOT EXISTS music_likes (
		id INT AUTO_INCREMENT PRIMARY KEY,
		music_id INT NOT NULL,
		user_id INT NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		CONSTRAINT fk_like_music FOREIGN KEY (music_id) REFERENCES music(id) ON DELETE CASCADE,
		CONSTRAINT fk_like_user FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE,
		CONSTRAINT uq_music_user UNIQUE (music_id, user_id)
	);
	`
	if _, err := DB.Exec(query); err != nil {
		return fmt.Errorf("failed to create music_likes table: %w", err)
	}
	return nil
}

func createPlaylistsTable() error {
	query := `
	CREATE TABLE IF NOT EXISTS playlists (
		id INT AUTO_INCREMENT PRIMARY KEY,
		name VARCHAR(255) NOT NULL,
		description TEXT,
		owner_id INT NOT NULL,
		is_public BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		CONSTRAINT fk_playlist_owner FOREIGN KEY (owner_id) REFERENCES users(id) ON DELETE CASCADE
	);
	`
	if _, err := DB.Exec(query); err != nil {
		return fmt.Errorf("failed to create playlists table: %w", err)
	}
	return nil
}

func createPlaylistSongsTable() error {
	// No unique constraint on (playlist_id, song_id): duplicates are
	// suppressed by a pre-check at the repository layer instead.
	query := `
	CREATE TABLE IF NOT EXISTS playlist_songs (
		id INT AUTO_INCREMENT PRIMARY KEY,
		playlist_id INT NOT NULL,
		song_id INT NOT NULL,
		added_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		CONSTRAINT fk_ps_playlist FOREIGN KEY (playlist_id) REFERENCES playlists(id) ON DELETE CASCADE,
		CONSTRAINT fk_ps_song FOREIGN KEY (song_id) REFERENCES music(id) ON DELETE CASCADE
	);
	`
	if _, err := DB.Exec(query); err != nil {
		return fmt.Errorf("failed to create playlist_songs table: %w", err)
	}
	return nil
}
