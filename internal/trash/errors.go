package trash

import "errors"

// Common errors returned by the unified trash.
var (
	// ErrNoMatch is returned when no trashed file matches a query
	ErrNoMatch = errors.New("no files match")

	// ErrAborted is returned when an interactive collaborator declines an operation
	ErrAborted = errors.New("aborted by user")

	// ErrSystemPath is returned when an operation targets a protected system path
	ErrSystemPath = errors.New("trashing in system paths is not supported")

	// ErrNoFilename is returned when a path has no usable base name
	ErrNoFilename = errors.New("path has no filename")
)

// OpError wraps an error with the trash operation and path that caused it.
type OpError struct {
	// Op is the operation that failed (e.g., "put", "restore", "remove")
	Op string

	// Path is the path of the file that caused the error
	Path string

	// Err is the underlying error
	Err error
}

// Error implements the error interface
func (e *OpError) Error() string {
	if e.Path == "" {
		return e.Op + ": " + e.Err.Error()
	}
	return e.Op + " " + e.Path + ": " + e.Err.Error()
}

// Unwrap returns the underlying error
func (e *OpError) Unwrap() error {
	return e.Err
}

func newOpError(op, path string, err error) error {
	return &OpError{Op: op, Path: path, Err: err}
}
