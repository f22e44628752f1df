package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/mohamadaskravi2050-crypto/Muzic56/model"

	"gorm.io/gorm"
)

// PlaylistRepository defines the interface for playlist data operations.
type PlaylistRepository interface {
	Create(ctx context.Context, p *model.Playlist) error
	GetByIDAndOwner(ctx context.Context, id, ownerID int64) (*model.Playlist, error)
	GetPublicByID(ctx context.Context, id int64) (*model.Playlist, error)
	ListByOwner(ctx context.Context, ownerID int64) ([]*model.PlaylistSummary, error)
	ListPublic(ctx context.Context) ([]*model.PlaylistSummary, error)
	AddSong(ctx context.Context, playlistID, songID int64) (already bool, err error)
	RemoveSong(ctx context.Context, playlistID, songID int64) error
	ListSongs(ctx context.Context, playlistID, viewerID int64) ([]*model.MusicWithMeta, error)
	SongCount(ctx context.Context, playlistID int64) (int64, error)
	SetPublic(ctx context.Context, id int64, public bool) error
	Delete(ctx context.Context, id int64) error
}

// gormPlaylistRepository implements PlaylistRepository with GORM.
type gormPlaylistRepository struct {
	db *gorm.DB
}

// NewGormPlaylistRepository creates a GORM-backed playlist repository.
func NewGormPlaylistRepository(db *gorm.DB) PlaylistRepository {
	return &gormPlaylistRepository{db: db}
}

// Create persists a new playlist.
func (r *gormPlaylistRepository) Create(ctx context.Context, p *model.Playlist) error {
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now()
	}
	return r.db.WithContext(ctx).Create(p).Error
}

// GetByIDAndOwner returns the playlist only when it exists and belongs to
// ownerID; both "missing" and "foreign-owned" come back as nil.
func (r *gormPlaylistRepository) GetByIDAndOwner(ctx context.Context, id, ownerID int64) (*model.Playlist, error) {
	var p model.Playlist
	err := r.db.WithContext(ctx).
		Where("id = ? AND owner_id = ?", id, ownerID).
		First(&p).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get playlist %d: %w", id, err)
	}
	return &p, nil
}

// GetPublicByID returns the playlist only when it exists and is public.
func (r *gormPlaylistRepository) GetPublicByID(ctx context.Context, id int64) (*model.Playlist, error) {
	var p model.Playlist
	err := r.db.WithContext(ctx).
		Where("id = ? AND is_public = ?", id, true).
		First(&p).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get public playlist %d: %w", id, err)
	}
	return &p, nil
}

// ListByOwner returns the user's playlists with song counts and covers.
func (r *gormPlaylistRepository) ListByOwner(ctx context.Context, ownerID int64) ([]*model.PlaylistSummary, error) {
	var playlists []model.Playlist
	err := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("created_at ASC, id ASC").
		Find(&playlists).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list playlists for owner %d: %w", ownerID, err)
	}
	return r.annotate(ctx, playlists)
}

// ListPublic returns every public playlist with song counts and covers.
func (r *gormPlaylistRepository) ListPublic(ctx context.Context) ([]*model.PlaylistSummary, error) {
	var playlists []model.Playlist
	err := r.db.WithContext(ctx).
		Where("is_public = ?", true).
		Order("created_at ASC, id ASC").
		Find(&playlists).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list public playlists: %w", err)
	}
	return r.annotate(ctx, playlists)
}

// annotate attaches owner name, song count and the first-added song's cover
// to each playlist.
func (r *gormPlaylistRepository) annotate(ctx context.Context, playlists []model.Playlist) ([]*model.PlaylistSummary, error) {
	summaries := make([]*model.PlaylistSummary, 0, len(playlists))
	for _, p := range playlists {
		summary := &model.PlaylistSummary{Playlist: p}

		var ownerName string
		err := r.db.WithContext(ctx).
			Raw("SELECT username FROM users WHERE id = ?", p.OwnerID).
			Row().Scan(&ownerName)
		if err != nil && err != sql.ErrNoRows {
			return nil, fmt.Errorf("failed to resolve owner of playlist %d: %w", p.ID, err)
		}
		summary.OwnerName = ownerName

		count, err := r.SongCount(ctx, p.ID)
		if err != nil {
			return nil, err
		}
		summary.SongCount = count

		// Cover comes from the first song by insertion time; stays empty when
		// the playlist is empty or that song has no cover.
		var cover sql.NullString
		err = r.db.WithContext(ctx).
			Raw(`SELECT m.cover_path FROM playlist_songs ps
			     JOIN music m ON m.id = ps.song_id
			     WHERE ps.playlist_id = ?
			     ORDER BY ps.added_at ASC, ps.id ASC LIMIT 1`, p.ID).
			Row().Scan(&cover)
		if err != nil && err != sql.ErrNoRows {
			return nil, fmt.Errorf("failed to resolve cover of playlist %d: %w", p.ID, err)
		}
		if cover.Valid {
			summary.CoverPath = cover.String
		}

		summaries = append(summaries, summary)
	}
	return summaries, nil
}

// AddSong inserts a membership row unless the pair already exists; the
// duplicate check happens here because the schema carries no unique
// constraint on the pair.
func (r *gormPlaylistRepository) AddSong(ctx context.Context, playlistID, songID int64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.PlaylistSong{}).
		Where("playlist_id = ? AND song_id = ?", playlistID, songID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check playlist membership: %w", err)
	}
	if count > 0 {
		return true, nil
	}

	ps := &model.PlaylistSong{
		PlaylistID: playlistID,
		SongID:     songID,
		AddedAt:    time.Now(),
	}
	if err := r.db.WithContext(ctx).Create(ps).Error; err != nil {
		return false, fmt.Errorf("failed to add song %d to playlist %d: %w", songID, playlistID, err)
	}
	return false, nil
}

// RemoveSong deletes the membership row(s) for the pair. Removing a song
// that is not in the playlist is a no-op.
func (r *gormPlaylistRepository) RemoveSong(ctx context.Context, playlistID, songID int64) error {
	err := r.db.WithContext(ctx).
		Where("playlist_id = ? AND song_id = ?", playlistID, songID).
		Delete(&model.PlaylistSong{}).Error
	if err != nil {
		return fmt.Errorf("failed to remove song %d from playlist %d: %w", songID, playlistID, err)
	}
	return nil
}

// ListSongs returns the playlist's tracks ordered by insertion time.
func (r *gormPlaylistRepository) ListSongs(ctx context.Context, playlistID, viewerID int64) ([]*model.MusicWithMeta, error) {
	query := `
	SELECT m.id, m.title, m.artist, m.audio_path, m.cover_path, m.uploaded_by, m.uploaded_at,
	       u.username,
	       (SELECT COUNT(*) FROM music_likes l WHERE l.music_id = m.id) AS like_count,
	       EXISTS(SELECT 1 FROM music_likes l2 WHERE l2.music_id = m.id AND l2.user_id = ?) AS is_liked
	FROM playlist_songs ps
	JOIN music m ON m.id = ps.song_id
	JOIN users u ON u.id = m.uploaded_by
	WHERE ps.playlist_id = ?
	ORDER BY ps.added_at ASC, ps.id ASC`

	rows, err := r.db.WithContext(ctx).Raw(query, viewerID, playlistID).Rows()
	if err != nil {
		return nil, fmt.Errorf("failed to query songs of playlist %d: %w", playlistID, err)
	}
	defer rows.Close()

	songs := make([]*model.MusicWithMeta, 0)
	for rows.Next() {
		m := &model.MusicWithMeta{}
		err := rows.Scan(&m.ID, &m.Title, &m.Artist, &m.AudioPath, &m.CoverPath,
			&m.UploadedBy, &m.UploadedAt, &m.UploaderName, &m.LikeCount, &m.IsLiked)
		if err != nil {
			return nil, fmt.Errorf("failed to scan playlist song row: %w", err)
		}
		songs = append(songs, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during playlist song iteration: %w", err)
	}
	return songs, nil
}

// SongCount returns the playlist's membership count.
func (r *gormPlaylistRepository) SongCount(ctx context.Context, playlistID int64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.PlaylistSong{}).
		Where("playlist_id = ?", playlistID).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count songs of playlist %d: %w", playlistID, err)
	}
	return count, nil
}

// SetPublic persists the public flag.
func (r *gormPlaylistRepository) SetPublic(ctx context.Context, id int64, public bool) error {
	err := r.db.WithContext(ctx).
		Model(&model.Playlist{}).
		Where("id = ?", id).
		Update("is_public", public).Error
	if err != nil {
		return fmt.Errorf("failed to update public flag of playlist %d: %w", id, err)
	}
	return nil
}

// Delete removes the playlist and its membership rows.
func (r *gormPlaylistRepository) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("playlist_id = ?", id).Delete(&model.PlaylistSong{}).Error; err != nil {
			return fmt.Errorf("failed to delete memberships of playlist %d: %w", id, err)
		}
		if err := tx.Where("id = ?", id).Delete(&model.Playlist{}).Error; err != nil {
			return fmt.Errorf("failed to delete playlist %d: %w", id, err)
		}
		return nil
	})
}
