// Error codes are named descriptively rather than after POSIX errno, since
// this filesystem doesn't expose a POSIX surface (no permissions, no nested
// directories, no symlinks).

package errors

import (
	"fmt"
)

// FSErrno is a distinct error value, comparable with errors.Is, for one entry
// in the taxonomy. Every public operation in this module returns one of these
// (possibly wrapped with WithMessage/Wrap) at its first failure point.
type FSErrno string

// ErrUnformatted: operation invoked against an image whose superblock magic
// doesn't match layout.Magic.
const ErrUnformatted = FSErrno("filesystem is not formatted")

// ErrNotFound: name absent from the root directory.
const ErrNotFound = FSErrno("no such file")

// ErrAlreadyExists: name already present when a create or copy destination
// would add it.
const ErrAlreadyExists = FSErrno("file already exists")

// ErrDirectoryFull: no free slot in the root directory.
const ErrDirectoryFull = FSErrno("directory is full")

// ErrNoSpace: the inode or data-block allocator is exhausted.
const ErrNoSpace = FSErrno("no space left on device")

// ErrNotRegular: read/write/copy targeted a non-regular inode.
const ErrNotRegular = FSErrno("not a regular file")

// ErrInvalidIndex: a block index or inode index is out of range.
const ErrInvalidIndex = FSErrno("index out of range")

// ErrIOShort: a short read/write on the backing image, or write_file produced
// fewer bytes than requested during a copy.
const ErrIOShort = FSErrno("short read or write")

// ErrInvalidArgument: a task or command argument failed basic validation
// (empty filename, oversized payload) before reaching the filesystem engine.
const ErrInvalidArgument = FSErrno("invalid argument")

func (e FSErrno) Error() string {
	return string(e)
}

func (e FSErrno) WithMessage(message string) FilesystemError {
	return customFSError{
		message: fmt.Sprintf("%s: %s", e.Error(), message),
		code:    e,
	}
}

func (e FSErrno) Wrap(err error) FilesystemError {
	return customFSError{
		message: fmt.Sprintf("%s: %s", e.Error(), err.Error()),
		code:    e,
		wrapped: err,
	}
}
