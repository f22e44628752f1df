// Package cache holds the Redis-backed read cache for hot catalog queries.
package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mohamadaskravi2050-crypto/Muzic56/logger"
	"github.com/mohamadaskravi2050-crypto/Muzic56/model"

	"github.com/redis/go-redis/v9"
)

const (
	popularKeyPrefix = "cache:popular:"
	popularTTL       = 60 * time.Second
)

// MusicCache caches the popular-music ranking. All methods tolerate a nil
// receiver or a nil client so the service runs without Redis.
type MusicCache struct {
	rdb *redis.Client
}

// NewMusicCache wraps a Redis client. Client may be nil.
func NewMusicCache(rdb *redis.Client) *MusicCache {
	return &MusicCache{rdb: rdb}
}

func popularKey(viewerID int64, limit int) string {
	return fmt.Sprintf("%s%d:%d", popularKeyPrefix, viewerID, limit)
}

// cachedTrack is the stored form of a MusicWithMeta. The model hides
// CoverPath from JSON, so the cache needs its own shape or covers would be
// lost on the round-trip.
type cachedTrack struct {
	ID           int64     `json:"id"`
	Title        string    `json:"title"`
	Artist       string    `json:"artist"`
	AudioPath    string    `json:"audioPath"`
	CoverPath    *string   `json:"coverPath"`
	UploadedBy   int64     `json:"uploadedBy"`
	UploadedAt   time.Time `json:"uploadedAt"`
	UploaderName string    `json:"uploaderName"`
	LikeCount    int64     `json:"likeCount"`
	IsLiked      bool      `json:"isLiked"`
}

func encodePopular(items []*model.MusicWithMeta) ([]byte, error) {
	tracks := make([]cachedTrack, 0, len(items))
	for _, m := range items {
		t := cachedTrack{
			ID:           m.ID,
			Title:        m.Title,
			Artist:       m.Artist,
			AudioPath:    m.AudioPath,
			UploadedBy:   m.UploadedBy,
			UploadedAt:   m.UploadedAt,
			UploaderName: m.UploaderName,
			LikeCount:    m.LikeCount,
			IsLiked:      m.IsLiked,
		}
		if m.CoverPath.Valid {
			cover := m.CoverPath.String
			t.CoverPath = &cover
		}
		tracks = append(tracks, t)
	}
	return json.Marshal(tracks)
}

func decodePopular(data []byte) ([]*model.MusicWithMeta, error) {
	var tracks []cachedTrack
	if err := json.Unmarshal(data, &tracks); err != nil {
		return nil, err
	}

	items := make([]*model.MusicWithMeta, 0, len(tracks))
	for _, t := range tracks {
		m := &model.MusicWithMeta{
			Music: model.Music{
				ID:         t.ID,
				Title:      t.Title,
				Artist:     t.Artist,
				AudioPath:  t.AudioPath,
				UploadedBy: t.UploadedBy,
				UploadedAt: t.UploadedAt,
			},
			UploaderName: t.UploaderName,
			LikeCount:    t.LikeCount,
			IsLiked:      t.IsLiked,
		}
		if t.CoverPath != nil {
			m.CoverPath = sql.NullString{String: *t.CoverPath, Valid: true}
		}
		items = append(items, m)
	}
	return items, nil
}

// GetPopular returns the cached ranking, or nil on miss.
func (c *MusicCache) GetPopular(ctx context.Context, viewerID int64, limit int) []*model.MusicWithMeta {
	if c == nil || c.rdb == nil {
		return nil
	}

	data, err := c.rdb.Get(ctx, popularKey(viewerID, limit)).Bytes()
	if err != nil {
		if err != redis.Nil {
			logger.Warn("Failed to read popular cache", logger.ErrorField(err))
		}
		return nil
	}

	items, err := decodePopular(data)
	if err != nil {
		logger.Warn("Failed to decode popular cache", logger.ErrorField(err))
		return nil
	}
	return items
}

// SetPopular stores the ranking with a short TTL.
func (c *MusicCache) SetPopular(ctx context.Context, viewerID int64, limit int, items []*model.MusicWithMeta) {
	if c == nil || c.rdb == nil {
		return
	}

	data, err := encodePopular(items)
	if err != nil {
		logger.Warn("Failed to encode popular cache", logger.ErrorField(err))
		return
	}
	if err := c.rdb.Set(ctx, popularKey(viewerID, limit), data, popularTTL).Err(); err != nil {
		logger.Warn("Failed to write popular cache", logger.ErrorField(err))
	}
}

// InvalidatePopular drops every cached ranking. Called after any mutation
// that can change like counts or the catalog.
func (c *MusicCache) InvalidatePopular(ctx context.Context) {
	if c == nil || c.rdb == nil {
		return
	}

	iter := c.rdb.Scan(ctx, 0, popularKeyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		if err := c.rdb.Del(ctx, iter.Val()).Err(); err != nil {
			logger.Warn("Failed to invalidate popular cache key",
				logger.String("key", iter.Val()), logger.ErrorField(err))
		}
	}
	if err := iter.Err(); err != nil {
		logger.Warn("Failed to scan popular cache keys", logger.ErrorField(err))
	}
}
