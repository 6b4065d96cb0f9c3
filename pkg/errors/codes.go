package errors

// ErrorCode represents a standardized way to categorize different types of errors.
type ErrorCode string

// Base error codes represent the fundamental categories of failures that can
// occur across any software system. These codes provide the foundation layer
// of error classification.
const (
	// ErrorCodeIO represents failures in input/output operations across any
	// system boundary: opening, reading, writing or seeking the backing
	// file, or renaming a compaction temp file into place.
	ErrorCodeIO ErrorCode = "IO_ERROR"

	// ErrorCodeInvalidInput represents client-side errors where the provided
	// data doesn't meet the system's requirements or constraints.
	ErrorCodeInvalidInput ErrorCode = "INVALID_INPUT"

	// ErrorCodeInternal represents unexpected system failures that don't fit
	// into other categories.
	ErrorCodeInternal ErrorCode = "INTERNAL_ERROR"
)

// Storage-specific error codes extend the base error taxonomy to handle the
// failure modes of the append-only record file.
const (
	// ErrorCodeNotFound indicates the backing file does not exist. upsert
	// treats this as "create it"; compact treats it as "nothing to do";
	// the CLI get/del subcommands surface it as an error.
	ErrorCodeNotFound ErrorCode = "NOT_FOUND"

	// ErrorCodeRecordCorrupted indicates a short read mid-record: a scan
	// found a record header but could not read the full header or value,
	// meaning the file is no longer a clean concatenation of records.
	ErrorCodeRecordCorrupted ErrorCode = "RECORD_CORRUPTED"

	// ErrorCodeLock indicates an advisory whole-file lock could not be
	// acquired or released.
	ErrorCodeLock ErrorCode = "LOCK_ERROR"

	// ErrorCodePermissionDenied indicates insufficient permissions to access
	// the backing file or its directory.
	ErrorCodePermissionDenied ErrorCode = "PERMISSION_DENIED"

	// ErrorCodeDiskFull indicates the storage device has run out of space.
	ErrorCodeDiskFull ErrorCode = "DISK_FULL"

	// ErrorCodeFilesystemReadonly indicates the filesystem is mounted read-only.
	ErrorCodeFilesystemReadonly ErrorCode = "FILESYSTEM_READONLY"
)

// Protocol-specific error codes cover malformed input on the TCP front end.
const (
	// ErrorCodeProtocolSyntax indicates a command line that could not be
	// tokenized into a known verb and the expected argument count.
	ErrorCodeProtocolSyntax ErrorCode = "PROTOCOL_SYNTAX"
)
