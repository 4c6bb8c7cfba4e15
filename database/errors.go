package database

import "errors"

var (
	ErrNoDocument = errors.New("document not found")
	ErrDuplicate  = errors.New("duplicate key")
)
