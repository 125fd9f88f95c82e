// Package repository defines errors shared by all storage implementations.
package repository

import "errors"

var (
	// ErrNotFound is returned when a requested record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when a unique constraint is violated.
	ErrDuplicate = errors.New("record already exists")
	// ErrExpired is returned when a record exists but its TTL has lapsed.
	ErrExpired = errors.New("record expired")
)
