package repository

import "errors"

// Sentinel errors for repository operations.
var (
	// ErrNotFound is returned when no layout has the given name.
	ErrNotFound = errors.New("repository: layout not found")

	// ErrAlreadyExists is returned when a name collides with an existing
	// layout or a reserved key, ignoring case.
	ErrAlreadyExists = errors.New("repository: layout already exists")

	// ErrLastLayout is returned when deleting the only remaining layout.
	ErrLastLayout = errors.New("repository: cannot delete the last layout")

	// ErrInvalidName is returned when a name is empty after sanitizing.
	ErrInvalidName = errors.New("repository: invalid layout name")

	// ErrCorruptIndex is returned when the name index cannot be read at all.
	ErrCorruptIndex = errors.New("repository: layout index is unreadable")

	// ErrNotInstalled is returned by operations that need the index when
	// Install has never run.
	ErrNotInstalled = errors.New("repository: not installed")
)
