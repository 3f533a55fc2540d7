// Package errors defines the error taxonomy shared by every layer of the
// simulated filesystem: the block device, the layout/allocator engine, the
// inode and directory operations, and the worker pool that dispatches them.
package errors

import "fmt"

// FilesystemError is the interface every error value returned by this module
// satisfies. It lets callers attach additional context without losing the
// ability to test the underlying cause with errors.Is.
type FilesystemError interface {
	error
	WithMessage(message string) FilesystemError
	Wrap(err error) FilesystemError
}

// -----------------------------------------------------------------------------

// customFSError carries a message built up by successive WithMessage/Wrap
// calls while keeping two things errors.Is can still reach: the taxonomy
// code it originated from (code) and, if Wrap supplied one, the lower-level
// error it's wrapping (wrapped).
type customFSError struct {
	message string
	code    FSErrno
	wrapped error
}

func (e customFSError) Error() string {
	return e.message
}

func (e customFSError) WithMessage(message string) FilesystemError {
	return customFSError{
		message: fmt.Sprintf("%s: %s", e.message, message),
		code:    e.code,
		wrapped: e.wrapped,
	}
}

func (e customFSError) Wrap(err error) FilesystemError {
	return customFSError{
		message: fmt.Sprintf("%s: %s", e.Error(), err.Error()),
		code:    e.code,
		wrapped: err,
	}
}

// Is lets errors.Is(err, errors.ErrNotFound) (and the other FSErrno
// constants) succeed even after the message has been extended or another
// error wrapped in, since Unwrap alone can only surface one of the two.
func (e customFSError) Is(target error) bool {
	code, ok := target.(FSErrno)
	return ok && e.code == code
}

func (e customFSError) Unwrap() error {
	return e.wrapped
}
