// Package errortypes defines the errors reported for malformed views and
// view files.
package errortypes

import (
	"errors"
	"fmt"
	"strings"
)

// ErrFilePos is an error located in a view or view file.  File is the name of
// the view or the path of the file, and lines and columns count from 1.
type ErrFilePos interface {
	error
	File() string
	Line() int
	Col() int
}

// PosError is the ErrFilePos returned by this package.
type PosError struct {
	Name      string
	Ln, Colmn int
	Err       error
}

func (e *PosError) Error() string { return e.Err.Error() }
func (e *PosError) Unwrap() error { return e.Err }
func (e *PosError) File() string  { return e.Name }
func (e *PosError) Line() int     { return e.Ln }
func (e *PosError) Col() int      { return e.Colmn }

// NewErrFilePosf returns an error at the given line and column of file.
func NewErrFilePosf(file string, line, col int, format string, args ...interface{}) error {
	return &PosError{file, line, col, fmt.Errorf(format, args...)}
}

// At returns an error located at a byte offset into text, the source of
// file.  Offsets past the end of text are clamped to it.
func At(file, text string, offset int, format string, args ...interface{}) error {
	if offset > len(text) {
		offset = len(text)
	}
	if offset < 0 {
		offset = 0
	}
	var before = text[:offset]
	var line = 1 + strings.Count(before, "\n")
	var col = offset - strings.LastIndexByte(before, '\n')
	return NewErrFilePosf(file, line, col, format, args...)
}

// IsErrFilePos reports whether err, or any error it wraps, is located.
func IsErrFilePos(err error) bool {
	return ToErrFilePos(err) != nil
}

// ToErrFilePos returns the first ErrFilePos in the chain of err, or nil.
// Errors are unwrapped through both Unwrap and Cause.
func ToErrFilePos(err error) ErrFilePos {
	for ; err != nil; err = next(err) {
		if fp, ok := err.(ErrFilePos); ok {
			return fp
		}
	}
	return nil
}

func next(err error) error {
	if c, ok := err.(interface{ Cause() error }); ok {
		return c.Cause()
	}
	return errors.Unwrap(err)
}

// Position formats the location of e as "file:line:col".
func Position(e ErrFilePos) string {
	return fmt.Sprintf("%s:%d:%d", e.File(), e.Line(), e.Col())
}
