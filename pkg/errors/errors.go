// Package errors gives the coat-check store a structured error taxonomy
// instead of bare strings: every failure carries an ErrorCode for
// programmatic handling plus, for storage and protocol failures, the file
// path, byte offset, or wire command involved.
//
// Architecture and Design Philosophy:
//
// The error system is built around a hierarchical structure that starts with
// a foundational baseError and extends into domain-specific error types.
// A validation error needs to know which field failed and what rule was
// violated. A storage error needs to know which file, offset, and operation
// were involved. A protocol error needs to know which wire command could not
// be parsed. By capturing this domain-specific context at the point of
// failure, callers can make decisions (retry, surface to a human, map to a
// process exit code) without parsing error message text.
//
// Usage Patterns:
//
// Errors are built at the point of failure with the fluent WithXxx methods,
// then handled upstream with the IsXxxError / AsXxxError helpers, which use
// errors.As under the hood so wrapped errors are still recognized.
package errors

import (
	stdErrors "errors"
	"os"
	"path/filepath"
	"syscall"
)

// IsValidationError checks if the given error is a ValidationError or contains one in its error chain.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return stdErrors.As(err, &ve)
}

// IsStorageError determines if an error is related to the record file's
// open/read/write/lock/compact path. Storage errors often require different
// handling strategies than protocol or validation errors because they may
// indicate hardware issues, capacity problems, or data integrity concerns.
//
// Example usage:
//
//	if errors.IsStorageError(err) {
//	    storageErr, _ := errors.AsStorageError(err)
//	    switch storageErr.Code() {
//	    case errors.ErrorCodeDiskFull:
//	        alertOperator()
//	    case errors.ErrorCodeNotFound:
//	        // caller-specific "nothing to do" handling
//	    }
//	}
func IsStorageError(err error) bool {
	var se *StorageError
	return stdErrors.As(err, &se)
}

// IsProtocolError identifies errors produced while parsing a TCP command.
func IsProtocolError(err error) bool {
	var pe *ProtocolError
	return stdErrors.As(err, &pe)
}

// AsValidationError safely extracts a ValidationError from an error chain.
func AsValidationError(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if stdErrors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}

// AsStorageError extracts StorageError context from an error chain, giving
// access to Operation(), Offset(), FileName(), and Path().
func AsStorageError(err error) (*StorageError, bool) {
	var se *StorageError
	if stdErrors.As(err, &se) {
		return se, true
	}
	return nil, false
}

// AsProtocolError extracts ProtocolError context from an error chain.
func AsProtocolError(err error) (*ProtocolError, bool) {
	var pe *ProtocolError
	if stdErrors.As(err, &pe) {
		return pe, true
	}
	return nil, false
}

// GetErrorCode extracts the error code from any error that supports it, or
// returns ErrorCodeInternal for errors that don't have specific codes.
func GetErrorCode(err error) ErrorCode {
	if ve, ok := AsValidationError(err); ok {
		return ve.Code()
	}
	if se, ok := AsStorageError(err); ok {
		return se.Code()
	}
	if pe, ok := AsProtocolError(err); ok {
		return pe.Code()
	}
	return ErrorCodeInternal
}

// GetErrorDetails extracts structured details from any error that supports
// them, returning an empty map for errors without details.
func GetErrorDetails(err error) map[string]any {
	if ve, ok := AsValidationError(err); ok {
		if details := ve.Details(); details != nil {
			return details
		}
	}
	if se, ok := AsStorageError(err); ok {
		if details := se.Details(); details != nil {
			return details
		}
	}
	if pe, ok := AsProtocolError(err); ok {
		if details := pe.Details(); details != nil {
			return details
		}
	}
	return make(map[string]any)
}

// ClassifyFileOpenError analyzes file-open failures against the backing file
// and returns a StorageError with the most specific code the underlying
// syscall error supports.
func ClassifyFileOpenError(err error, path string) error {
	fileName := filepath.Base(path)
	if os.IsPermission(err) {
		return NewStorageError(
			err, ErrorCodePermissionDenied, "insufficient permissions to open backing file",
		).WithPath(path).WithFileName(fileName).WithOperation("open")
	}

	if pathErr, ok := err.(*os.PathError); ok {
		if errno, ok := pathErr.Err.(syscall.Errno); ok {
			switch errno {
			case syscall.ENOSPC:
				return NewStorageError(
					err, ErrorCodeDiskFull, "insufficient disk space to create backing file",
				).WithPath(path).WithFileName(fileName).WithOperation("open")
			case syscall.EROFS:
				return NewStorageError(
					err, ErrorCodeFilesystemReadonly, "cannot create backing file on read-only filesystem",
				).WithPath(path).WithFileName(fileName).WithOperation("open")
			}
		}
	}

	return NewStorageError(err, ErrorCodeIO, "failed to open backing file").
		WithPath(path).WithFileName(fileName).WithOperation("open")
}

// ClassifyWriteError analyzes write/seek/rename failures during an engine
// operation and returns a StorageError with the most specific code the
// underlying syscall error supports.
func ClassifyWriteError(err error, operation, path string, offset int64) error {
	if pathErr, ok := err.(*os.PathError); ok {
		if errno, ok := pathErr.Err.(syscall.Errno); ok {
			switch errno {
			case syscall.ENOSPC:
				return NewStorageError(
					err, ErrorCodeDiskFull, "cannot write: insufficient disk space",
				).WithPath(path).WithOperation(operation).WithOffset(offset)
			case syscall.EROFS:
				return NewStorageError(
					err, ErrorCodeFilesystemReadonly, "cannot write: filesystem is read-only",
				).WithPath(path).WithOperation(operation).WithOffset(offset)
			case syscall.EIO:
				return NewStorageError(
					err, ErrorCodeIO, "I/O error during write - possible hardware or corruption issue",
				).WithPath(path).WithOperation(operation).WithOffset(offset)
			}
		}
	}

	return NewStorageError(err, ErrorCodeIO, "failed to write backing file").
		WithPath(path).WithOperation(operation).WithOffset(offset)
}

// ClassifyLockError wraps a failure to acquire or release the whole-file
// advisory lock.
func ClassifyLockError(err error, operation, path string) error {
	return NewStorageError(err, ErrorCodeLock, "failed to acquire file lock").
		WithPath(path).WithOperation(operation)
}
