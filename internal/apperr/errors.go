// Package apperr holds the sentinel errors shared by every command surface.
package apperr

import "errors"

var (
	ErrNotFound       = errors.New("not found")
	ErrConflict       = errors.New("conflict")
	ErrAlreadyExists  = errors.New("already exists")
	ErrInvalidPath    = errors.New("invalid path")
	ErrInvalidArgs    = errors.New("invalid arguments")
	ErrProtected      = errors.New("protected")
	ErrUnknownCommand = errors.New("unknown command")
)
