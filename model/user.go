package model

import (
	"database/sql"
	"time"
)

// User represents a registered account.
type User struct {
	ID           int64          `json:"id"`
	Username     string         `json:"username"`
	PasswordHash string         `json:"-"`
	ProfileImage sql.NullString `json:"-"`
	IsStaff      bool           `json:"isStaff"`
	IsActive     bool           `json:"isActive"`
	CreatedAt    time.Time      `json:"createdAt"`
}
