package cache

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mohamadaskravi2050-crypto/Muzic56/model"
)

func TestPopularEncodeDecodeRoundTrip(t *testing.T) {
	uploaded := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	items := []*model.MusicWithMeta{
		{
			Music: model.Music{
				ID:         1,
				Title:      "Song A",
				Artist:     "Artist X",
				AudioPath:  "music/a.mp3",
				CoverPath:  sql.NullString{String: "music_covers/a.jpg", Valid: true},
				UploadedBy: 7,
				UploadedAt: uploaded,
			},
			UploaderName: "alice",
			LikeCount:    3,
			IsLiked:      true,
		},
		{
			Music: model.Music{
				ID:         2,
				Title:      "Song B",
				Artist:     "Artist Y",
				AudioPath:  "music/b.mp3",
				UploadedBy: 7,
				UploadedAt: uploaded,
			},
			UploaderName: "alice",
			LikeCount:    1,
		},
	}

	data, err := encodePopular(items)
	require.NoError(t, err)

	decoded, err := decodePopular(data)
	require.NoError(t, err)
	require.Len(t, decoded, 2)

	// The cover must survive the round-trip even though the model hides it
	// from its own JSON form.
	assert.True(t, decoded[0].CoverPath.Valid)
	assert.Equal(t, "music_covers/a.jpg", decoded[0].CoverPath.String)
	assert.False(t, decoded[1].CoverPath.Valid)

	assert.Equal(t, items[0], decoded[0])
	assert.Equal(t, items[1], decoded[1])
}

func TestNilCacheIsSafe(t *testing.T) {
	ctx := context.Background()

	var c *MusicCache
	assert.Nil(t, c.GetPopular(ctx, 0, 5))
	c.SetPopular(ctx, 0, 5, nil)
	c.InvalidatePopular(ctx)

	c = NewMusicCache(nil)
	assert.Nil(t, c.GetPopular(ctx, 0, 5))
	c.SetPopular(ctx, 0, 5, nil)
	c.InvalidatePopular(ctx)
}
