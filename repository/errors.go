package repository

import "errors"

var (
	// ErrDuplicateUser is returned when a username is already taken.
	ErrDuplicateUser = errors.New("user already exists")

	// ErrNotFound is returned when a record does not exist. Ownership
	// mismatches surface as ErrNotFound too; callers must not be able to
	// distinguish "missing" from "owned by someone else".
	ErrNotFound = errors.New("record not found")
)
