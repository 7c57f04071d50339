// Package apperr defines sentinel errors shared across service and
// transport layers.
package apperr

import "errors"

var (
	ErrNotFound         = errors.New("not found")
	ErrConflict         = errors.New("conflict")
	ErrAlreadyExists    = errors.New("already exists")
	ErrInvalidArgument  = errors.New("invalid argument")
	ErrIndexUnavailable = errors.New("metadata index unavailable")
)
