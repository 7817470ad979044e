package models

import (
	"errors"
	"fmt"
)

// Error categories. Callers check against these with errors.Is.
var (
	// ErrFilesystem covers open/read/write failures, directory listing and
	// relative path computation.
	ErrFilesystem = errors.New("filesystem error")

	// ErrClassification means the MIME probe could not run on a file.
	ErrClassification = errors.New("content classification failed")

	// ErrDetection means the charset probe could not run.
	ErrDetection = errors.New("encoding detection failed")

	// ErrUnrecognizedEncoding means the charset probe ran but named no charset.
	ErrUnrecognizedEncoding = errors.New("unrecognized encoding")

	// ErrConversion means the transcoding step or the output write failed.
	ErrConversion = errors.New("conversion failed")

	// ErrPatternCompile marks a pattern that is not a valid regular
	// expression. It is never fatal; the pattern matches literally instead.
	ErrPatternCompile = errors.New("invalid pattern")

	// ErrCancelled marks a task that was never attempted because the run was
	// interrupted.
	ErrCancelled = errors.New("cancelled before processing")
)

// PathError is a filesystem failure on a specific path.
type PathError struct {
	Op   string
	Path string
	Err  error
}

func (e *PathError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *PathError) Unwrap() error {
	return e.Err
}

// Is reports PathError as ErrFilesystem.
func (e *PathError) Is(target error) bool {
	return target == ErrFilesystem
}

// ConversionError carries both ends of a failed conversion so a single file
// can be located and retried from the log line alone.
type ConversionError struct {
	Input  string
	From   string
	Output string
	To     string
	Err    error
}

func (e *ConversionError) Error() string {
	return fmt.Sprintf("convert %s(%s) -> %s(%s) failed: %v", e.Input, e.From, e.Output, e.To, e.Err)
}

func (e *ConversionError) Unwrap() error {
	return e.Err
}

// Is reports ConversionError as ErrConversion.
func (e *ConversionError) Is(target error) bool {
	return target == ErrConversion
}
