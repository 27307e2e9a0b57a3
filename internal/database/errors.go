package database

import "errors"

var (
	// ErrCodeExists is returned when an attempt is made to create
	// a new shortened URL with a code that already exists.
	ErrCodeExists = errors.New("url code exists")
	// ErrURLNotFound is returned when an attempt is made to retrieve
	// a URL that doesn't exist.
	ErrURLNotFound = errors.New("url not found")
)
