package model

import (
	"database/sql"
	"time"
)

// Music represents an uploaded track.
type Music struct {
	ID         int64          `json:"id"`
	Title      string         `json:"title"`
	Artist     string         `json:"artist"`
	AudioPath  string         `json:"audioPath"`
	CoverPath  sql.NullString `json:"-"`
	UploadedBy int64          `json:"uploadedBy"`
	UploadedAt time.Time      `json:"uploadedAt"`
}

// MusicWithMeta is a Music row joined with its like count, the caller's
// like state and the uploader's username. This is what list queries return.
type MusicWithMeta struct {
	Music
	UploaderName string `json:"uploaderName"`
	LikeCount    int64  `json:"likeCount"`
	IsLiked      bool   `json:"isLiked"`
}
