package repository

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/mohamadaskravi2050-crypto/Muzic56/model"
)

// MusicRepository defines the interface for music catalog operations.
// A viewerID of 0 means the caller is anonymous; IsLiked is then false.
type MusicRepository interface {
	CreateMusic(m *model.Music) (int64, error)
	GetMusicByID(id int64) (*model.Music, error)
	GetMusicMeta(id, viewerID int64) (*model.MusicWithMeta, error)
	ListAll(viewerID int64) ([]*model.MusicWithMeta, error)
	ListLikedByUser(userID int64) ([]*model.MusicWithMeta, error)
	CountLikedByUser(userID int64) (int64, error)
	ListPopular(viewerID int64, limit int) ([]*model.MusicWithMeta, error)
	Search(query string, viewerID int64, limit int) ([]*model.MusicWithMeta, error)
	ToggleLike(userID, musicID int64) (liked bool, likeCount int64, err error)
	AddLike(userID, musicID int64) (already bool, err error)
	DeleteByIDAndOwner(id, ownerID int64) error
}

// mysqlMusicRepository implements MusicRepository for MySQL.
type mysqlMusicRepository struct {
	db *sql.DB
}

// NewMySQLMusicRepository creates a new mysqlMusicRepository.
func NewMySQLMusicRepository(db *sql.DB) MusicRepository {
	return &mysqlMusicRepository{db: db}
}

// metaSelect joins each music row with its uploader name, like count and the
// viewer's like state. The first bind parameter is always the viewer ID.
const metaSelect = `
	SELECT m.id, m.title, m.artist, m.audio_path, m.cover_path, m.uploaded_by, m.uploaded_at,
	       u.username,
	       (SELECT COUNT(*) FROM music_likes l WHERE l.music_id = m.id) AS like_count,
	       EXISTS(SELECT 1 FROM music_likes l2 WHERE l2.music_id = m.id AND l2.user_id = ?) AS is_liked
	FROM music m
	JOIN users u ON u.id = m.uploaded_by`

func (r *mysqlMusicRepository) scanMetaRows(rows *sql.Rows) ([]*model.MusicWithMeta, error) {
	defer rows.Close()

	results := make([]*model.MusicWithMeta, 0)
	for rows.Next() {
		m := &model.MusicWithMeta{}
		err := rows.Scan(&m.ID, &m.Title, &m.Artist, &m.AudioPath, &m.CoverPath,
			&m.UploadedBy, &m.UploadedAt, &m.UploaderName, &m.LikeCount, &m.IsLiked)
		if err != nil {
			return nil, fmt.Errorf("failed to scan music row: %w", err)
		}
		results = append(results, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during music rows iteration: %w", err)
	}
	return results, nil
}

// CreateMusic adds a new track to the catalog.
func (r *mysqlMusicRepository) CreateMusic(m *model.Music) (int64, error) {
	query := `INSERT INTO music (title, artist, audio_path, cover_path, uploaded_by, uploaded_at)
	           VALUES (?, ?, ?, ?, ?, ?)`
	stmt, err := r.db.Prepare(query)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare statement for CreateMusic: %w", err)
	}
	defer stmt.Close()

	res, err := stmt.Exec(m.Title, m.Artist, m.AudioPath, m.CoverPath, m.UploadedBy, time.Now())
	if err != nil {
		return 0, fmt.Errorf("failed to execute CreateMusic: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert ID for CreateMusic: %w", err)
	}
	return id, nil
}

// GetMusicByID retrieves a track by its ID.
func (r *mysqlMusicRepository) GetMusicByID(id int64) (*model.Music, error) {
	query := `SELECT id, title, artist, audio_path, cover_path, uploaded_by, uploaded_at
	           FROM music WHERE id = ?`
	row := r.db.QueryRow(query, id)

	m := &model.Music{}
	err := row.Scan(&m.ID, &m.Title, &m.Artist, &m.AudioPath, &m.CoverPath, &m.UploadedBy, &m.UploadedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // Track not found
		}
		return nil, fmt.Errorf("failed to scan music by ID %d: %w", id, err)
	}
	return m, nil
}

// GetMusicMeta retrieves a single track with like metadata for the viewer.
func (r *mysqlMusicRepository) GetMusicMeta(id, viewerID int64) (*model.MusicWithMeta, error) {
	rows, err := r.db.Query(metaSelect+" WHERE m.id = ?", viewerID, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query music meta for ID %d: %w", id, err)
	}
	results, err := r.scanMetaRows(rows)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, nil
	}
	return results[0], nil
}

// ListAll returns the whole catalog, newest upload first.
func (r *mysqlMusicRepository) ListAll(viewerID int64) ([]*model.MusicWithMeta, error) {
	rows, err := r.db.Query(metaSelect+" ORDER BY m.uploaded_at DESC, m.id DESC", viewerID)
	if err != nil {
		return nil, fmt.Errorf("failed to query music list: %w", err)
	}
	return r.scanMetaRows(rows)
}

// ListLikedByUser returns every track the user currently likes.
func (r *mysqlMusicRepository) ListLikedByUser(userID int64) ([]*model.MusicWithMeta, error) {
	query := metaSelect + `
	 JOIN music_likes ml ON ml.music_id = m.id
	 WHERE ml.user_id = ?
	 ORDER BY ml.id ASC`
	rows, err := r.db.Query(query, userID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query liked music for user %d: %w", userID, err)
	}
	return r.scanMetaRows(rows)
}

// CountLikedByUser returns how many tracks the user currently likes.
func (r *mysqlMusicRepository) CountLikedByUser(userID int64) (int64, error) {
	var count int64
	err := r.db.QueryRow("SELECT COUNT(*) FROM music_likes WHERE user_id = ?", userID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count liked music for user %d: %w", userID, err)
	}
	return count, nil
}

// ListPopular returns tracks ranked by like count descending. Ties fall back
// to the insertion order of the rows.
func (r *mysqlMusicRepository) ListPopular(viewerID int64, limit int) ([]*model.MusicWithMeta, error) {
	rows, err := r.db.Query(metaSelect+" ORDER BY like_count DESC, m.id ASC LIMIT ?", viewerID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query popular music: %w", err)
	}
	return r.scanMetaRows(rows)
}

// Search matches the query as a case-insensitive substring of title or
// artist, newest upload first. An empty query returns no rows.
func (r *mysqlMusicRepository) Search(query string, viewerID int64, limit int) ([]*model.MusicWithMeta, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []*model.MusicWithMeta{}, nil
	}

	pattern := "%" + strings.ToLower(query) + "%"
	sqlQuery := metaSelect + `
	 WHERE LOWER(m.title) LIKE ? OR LOWER(m.artist) LIKE ?
	 ORDER BY m.uploaded_at DESC, m.id DESC LIMIT ?`
	rows, err := r.db.Query(sqlQuery, viewerID, pattern, pattern, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search music for %q: %w", query, err)
	}
	return r.scanMetaRows(rows)
}

// ToggleLike flips the viewer's membership in the track's like set and
// returns the new state and count. Returns ErrNotFound for an unknown track.
func (r *mysqlMusicRepository) ToggleLike(userID, musicID int64) (bool, int64, error) {
	m, err := r.GetMusicByID(musicID)
	if err != nil {
		return false, 0, err
	}
	if m == nil {
		return false, 0, ErrNotFound
	}

	var exists bool
	err = r.db.QueryRow("SELECT EXISTS(SELECT 1 FROM music_likes WHERE music_id = ? AND user_id = ?)",
		musicID, userID).Scan(&exists)
	if err != nil {
		return false, 0, fmt.Errorf("failed to check like state: %w", err)
	}

	if exists {
		_, err = r.db.Exec("DELETE FROM music_likes WHERE music_id = ? AND user_id = ?", musicID, userID)
	} else {
		_, err = r.db.Exec("INSERT INTO music_likes (music_id, user_id) VALUES (?, ?)", musicID, userID)
	}
	if err != nil {
		return false, 0, fmt.Errorf("failed to toggle like: %w", err)
	}

	var count int64
	if err := r.db.QueryRow("SELECT COUNT(*) FROM music_likes WHERE music_id = ?", musicID).Scan(&count); err != nil {
		return false, 0, fmt.Errorf("failed to count likes: %w", err)
	}
	return !exists, count, nil
}

// AddLike adds the track to the user's liked set. Unlike ToggleLike it never
// removes: liking an already-liked track reports already=true and changes
// nothing. Used by the liked-songs pseudo-playlist add path.
func (r *mysqlMusicRepository) AddLike(userID, musicID int64) (bool, error) {
	m, err := r.GetMusicByID(musicID)
	if err != nil {
		return false, err
	}
	if m == nil {
		return false, ErrNotFound
	}

	var exists bool
	err = r.db.QueryRow("SELECT EXISTS(SELECT 1 FROM music_likes WHERE music_id = ? AND user_id = ?)",
		musicID, userID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check like state: %w", err)
	}
	if exists {
		return true, nil
	}

	if _, err := r.db.Exec("INSERT INTO music_likes (music_id, user_id) VALUES (?, ?)", musicID, userID); err != nil {
		return false, fmt.Errorf("failed to add like: %w", err)
	}
	return false, nil
}

// DeleteByIDAndOwner deletes a track if it exists and belongs to ownerID.
// The ownership check doubles as the existence check: both cases report
// ErrNotFound.
func (r *mysqlMusicRepository) DeleteByIDAndOwner(id, ownerID int64) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin music deletion transaction: %w", err)
	}
	defer tx.Rollback()

	var owner int64
	err = tx.QueryRow("SELECT uploaded_by FROM music WHERE id = ?", id).Scan(&owner)
	if err == sql.ErrNoRows {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to look up music %d: %w", id, err)
	}
	if owner != ownerID {
		return ErrNotFound
	}

	if _, err := tx.Exec("DELETE FROM playlist_songs WHERE song_id = ?", id); err != nil {
		return fmt.Errorf("failed to delete playlist memberships of music %d: %w", id, err)
	}
	if _, err := tx.Exec("DELETE FROM music_likes WHERE music_id = ?", id); err != nil {
		return fmt.Errorf("failed to delete likes of music %d: %w", id, err)
	}
	if _, err := tx.Exec("DELETE FROM music WHERE id = ?", id); err != nil {
		return fmt.Errorf("failed to delete music %d: %w", id, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit music deletion: %w", err)
	}
	return nil
}
