package vcs

import "errors"

var (
	// ErrNotFound is returned when a file, commit, or branch head does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput is returned when a request is missing a required field
	// or names an unknown branch. No store access happens in that case.
	ErrInvalidInput = errors.New("invalid input")
)
