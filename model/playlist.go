package model

import (
	"fmt"
	"strconv"
	"time"
)

// LikedSongsID is the sentinel playlist identifier exposed to clients for the
// virtual "Liked Songs" playlist. It never corresponds to a stored row.
const LikedSongsID = "liked_songs"

// Playlist represents a named, owned song collection.
type Playlist struct {
	ID          int64     `json:"id" gorm:"primaryKey;column:id"`
	Name        string    `json:"name" gorm:"column:name"`
	Description string    `json:"description" gorm:"column:description"`
	OwnerID     int64     `json:"ownerId" gorm:"column:owner_id"`
	IsPublic    bool      `json:"isPublic" gorm:"column:is_public"`
	CreatedAt   time.Time `json:"createdAt" gorm:"column:created_at"`
}

// TableName maps Playlist onto the playlists table.
func (Playlist) TableName() string { return "playlists" }

// PlaylistSong is the join row between a playlist and a track. Membership
// order is the insertion timestamp; there is no position column. The
// (playlist, song) pair is kept unique by a pre-check before insert, not by
// a schema constraint.
type PlaylistSong struct {
	ID         int64     `json:"id" gorm:"primaryKey;column:id"`
	PlaylistID int64     `json:"playlistId" gorm:"column:playlist_id"`
	SongID     int64     `json:"songId" gorm:"column:song_id"`
	AddedAt    time.Time `json:"addedAt" gorm:"column:added_at"`
}

// TableName maps PlaylistSong onto the playlist_songs table.
func (PlaylistSong) TableName() string { return "playlist_songs" }

// PlaylistSummary is a playlist annotated for list responses.
type PlaylistSummary struct {
	Playlist
	OwnerName string `json:"ownerName"`
	SongCount int64  `json:"songCount"`
	// CoverPath is the cover of the first-added song, empty when the playlist
	// is empty or that song has no cover.
	CoverPath string `json:"coverPath"`
}

// PlaylistRef is a tagged reference to either a stored playlist or the
// virtual liked-songs playlist. Call sites that accept a playlist identifier
// parse into this type so the sentinel branch cannot be forgotten.
type PlaylistRef struct {
	Liked bool
	ID    int64
}

// ParsePlaylistRef parses a client-supplied playlist identifier.
func ParsePlaylistRef(s string) (PlaylistRef, error) {
	if s == LikedSongsID {
		return PlaylistRef{Liked: true}, nil
	}
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return PlaylistRef{}, fmt.Errorf("invalid playlist id %q", s)
	}
	return PlaylistRef{ID: id}, nil
}
