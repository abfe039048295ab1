package models

import "errors"

var (
	// ErrFolderNotFound is returned when an input folder does not exist.
	// It aborts the whole run.
	ErrFolderNotFound = errors.New("input folder does not exist")

	// ErrNotDirectory is returned when an input folder is a regular file
	ErrNotDirectory = errors.New("input path is not a directory")

	// ErrNoFolders is returned when no input folder was supplied
	ErrNoFolders = errors.New("no input folders supplied")

	// ErrInvalidAction is returned for an unknown run action
	ErrInvalidAction = errors.New("invalid action")
)

// ValidationError represents a validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}
