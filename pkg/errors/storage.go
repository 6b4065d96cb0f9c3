package errors

// StorageError is a specialized error type for failures in the record file's
// open/read/write/lock/compact path. It embeds baseError to inherit all the
// standard error functionality, then adds fields that pinpoint exactly where
// in the file the problem happened.
type StorageError struct {
	*baseError
	operation string // Which operation was in progress, e.g. "read", "delete", "append", "compact", "open", "listen", "signal-register".
	offset    int64  // Byte offset within the file where the problem happened, -1 if not applicable.
	fileName  string // Base name of the file that caused the issue.
	path      string // Full path of the file that caused the issue.
}

// NewStorageError creates a new storage-specific error.
func NewStorageError(err error, code ErrorCode, msg string) *StorageError {
	return &StorageError{baseError: NewBaseError(err, code, msg), offset: -1}
}

// WithOperation records which engine operation was in progress.
func (se *StorageError) WithOperation(operation string) *StorageError {
	se.operation = operation
	return se
}

// WithOffset records the byte position where the error occurred.
func (se *StorageError) WithOffset(offset int64) *StorageError {
	se.offset = offset
	return se
}

// WithFileName captures which file was being processed when the error occurred.
func (se *StorageError) WithFileName(fileName string) *StorageError {
	se.fileName = fileName
	return se
}

// WithPath captures which path was being processed when the error occurred.
func (se *StorageError) WithPath(path string) *StorageError {
	se.path = path
	return se
}

// Operation returns the engine operation that was in progress.
func (se *StorageError) Operation() string {
	return se.operation
}

// Offset returns the byte offset within the file where the error happened,
// or -1 if the error is not tied to a specific offset.
func (se *StorageError) Offset() int64 {
	return se.offset
}

// FileName returns the base name of the file that was being processed.
func (se *StorageError) FileName() string {
	return se.fileName
}

// Path returns the full path of the file that was being processed.
func (se *StorageError) Path() string {
	return se.path
}
