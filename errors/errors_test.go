package errors_test

import (
	stderrors "errors"
	"testing"

	"github.com/elias-chen/simplefs/errors"
	"github.com/stretchr/testify/assert"
)

func TestFSErrnoWithMessage(t *testing.T) {
	newErr := errors.ErrNotFound.WithMessage("report.txt")
	assert.Equal(t, "no such file: report.txt", newErr.Error())
	assert.ErrorIs(t, newErr, errors.ErrNotFound)
}

func TestFSErrnoWrap(t *testing.T) {
	originalErr := stderrors.New("disk image truncated")
	newErr := errors.ErrIOShort.Wrap(originalErr)

	assert.Equal(t, "short read or write: disk image truncated", newErr.Error())
	assert.ErrorIs(t, newErr, originalErr)
	assert.ErrorIs(t, newErr, errors.ErrIOShort)
}
