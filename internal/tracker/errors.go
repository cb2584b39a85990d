package tracker

import (
	"errors"
	"fmt"
)

// ErrFileNotFound indicates an explicitly requested save file does not exist.
// A missing default file is not an error; callers start with an empty store.
var ErrFileNotFound = errors.New("tracker: file not found")

// ErrIndexOutOfRange indicates a list-position reference outside the store.
var ErrIndexOutOfRange = errors.New("tracker: index out of range")

// FormatError indicates a save document could not be parsed as the
// expected structure.
type FormatError struct {
	Path string
	Err  error
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("invalid save file format in %s: %v", e.Path, e.Err)
}

func (e *FormatError) Unwrap() error { return e.Err }

// MissingFieldError indicates a save document parsed but lacks a required
// field. It is distinct from FormatError so diagnostics can name the field.
type MissingFieldError struct {
	Path  string
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("save file %s is missing required field %q", e.Path, e.Field)
}

// PersistenceError indicates a save operation failed to write its target.
type PersistenceError struct {
	Path string
	Err  error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("failed to write %s: %v", e.Path, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }
