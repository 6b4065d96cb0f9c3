// Package storage implements the append-only record file that backs a
// coat-check instance.
//
// Unlike a classic Bitcask engine, this storage layer keeps no in-memory
// index: the backing file is the sole persistent state, and every
// operation — read, delete, append, upsert, compact — re-derives its
// answer by scanning the file under the lock class it requires. This
// trades lookup speed for a single source of truth and a much smaller
// recovery surface: there is nothing to rebuild after a restart, because
// there is nothing cached to go stale.
//
// Every record on disk is a `digest | length | tombstone | value` tuple (see
// package record). A record's tombstone byte is the only byte ever mutated
// in place; everything else about a record is immutable once appended.
// Deleting a key flips its tombstone; replacing a key's value tombstones
// the old record and appends a new one. Reclaiming the space held by
// tombstoned and superseded records is the job of Compact, not of the
// read/write path.
//
// Concurrent access across processes is coordinated by an advisory
// whole-file lock: shared for Read, exclusive for Delete, Append, and
// Compact. Upsert takes no lock of its own; each of its read/delete/append
// phases takes the lock of the operation it calls, so it is not atomic
// across them — see its doc comment for the consequences of that choice.
package storage

import (
	"bytes"
	stdErrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/gofrs/flock"

	"github.com/dpapathanasiou/coatcheck/internal/digest"
	"github.com/dpapathanasiou/coatcheck/internal/record"
	"github.com/dpapathanasiou/coatcheck/pkg/errors"
	"github.com/dpapathanasiou/coatcheck/pkg/filesys"
	"github.com/dpapathanasiou/coatcheck/pkg/tmpfile"
)

// ErrStorageClosed is returned when attempting to perform operations on a closed storage instance.
var ErrStorageClosed = stdErrors.New("operation failed: cannot access closed storage")

// New creates a new Storage instance bound to the configured backing file.
// It does not create or touch the file: an absent file is a normal state,
// surfaced as a not-found error by Read/Delete/Compact and resolved by the
// first successful Append.
func New(config *Config) (*Storage, error) {
	if config == nil || config.Options == nil || config.Logger == nil {
		return nil, fmt.Errorf("invalid configuration")
	}

	path := config.Options.FilePath
	config.Logger.Infow("Initializing storage engine", "path", path)

	return &Storage{
		path:    path,
		lock:    flock.New(path),
		options: config.Options,
		log:     config.Logger,
	}, nil
}

// Path returns the backing file path this storage instance operates on.
func (s *Storage) Path() string {
	return s.path
}

// Read returns the value of the newest live record for key, or nil with no
// error if the key has no live record. It returns a not-found StorageError
// if the backing file does not exist at all.
func (s *Storage) Read(key string) ([]byte, error) {
	if s.closed.Load() {
		return nil, ErrStorageClosed
	}

	exists, err := filesys.Exists(s.path)
	if err != nil {
		return nil, errors.NewStorageError(err, errors.ErrorCodeIO, "failed to stat backing file").
			WithPath(s.path).WithOperation("read")
	}
	if !exists {
		return nil, errors.NewStorageError(nil, errors.ErrorCodeNotFound, "backing file does not exist").
			WithPath(s.path).WithOperation("read")
	}

	if err := s.lock.RLock(); err != nil {
		return nil, errors.ClassifyLockError(err, "read", s.path)
	}
	defer s.lock.Unlock()

	file, err := os.Open(s.path)
	if err != nil {
		return nil, errors.ClassifyFileOpenError(err, s.path)
	}
	defer file.Close()

	target := digest.Key([]byte(key))
	value, found, err := scanRead(file, target)
	if err != nil {
		return nil, errors.NewStorageError(err, errors.ErrorCodeIO, "failed scanning backing file").
			WithPath(s.path).WithOperation("read")
	}
	if !found {
		return nil, nil
	}
	return value, nil
}

// Delete flips the tombstone of every live record for key and returns the
// value the key held just before the call. It returns nil with no error if
// key has no live record, and a not-found StorageError if the backing file
// does not exist.
func (s *Storage) Delete(key string) ([]byte, error) {
	if s.closed.Load() {
		return nil, ErrStorageClosed
	}

	exists, err := filesys.Exists(s.path)
	if err != nil {
		return nil, errors.NewStorageError(err, errors.ErrorCodeIO, "failed to stat backing file").
			WithPath(s.path).WithOperation("delete")
	}
	if !exists {
		return nil, errors.NewStorageError(nil, errors.ErrorCodeNotFound, "backing file does not exist").
			WithPath(s.path).WithOperation("delete")
	}

	if err := s.lock.Lock(); err != nil {
		return nil, errors.ClassifyLockError(err, "delete", s.path)
	}
	defer s.lock.Unlock()

	file, err := os.OpenFile(s.path, os.O_RDWR, 0666)
	if err != nil {
		return nil, errors.ClassifyFileOpenError(err, s.path)
	}
	defer file.Close()

	target := digest.Key([]byte(key))
	value, found, err := scanDelete(file, target)
	if err != nil {
		return nil, errors.NewStorageError(err, errors.ErrorCodeIO, "failed scanning backing file for delete").
			WithPath(s.path).WithOperation("delete")
	}
	if !found {
		return nil, nil
	}
	return value, nil
}

// Append writes a new live record for key unconditionally, creating the
// backing file if it does not yet exist, and returns the number of bytes
// written (the full record, header included).
func (s *Storage) Append(key string, value []byte) (int, error) {
	if s.closed.Load() {
		return 0, ErrStorageClosed
	}

	if err := filesys.CreateDir(filepath.Dir(s.path), 0755, true); err != nil {
		return 0, errors.NewStorageError(err, errors.ErrorCodeIO, "failed to create backing file's parent directory").
			WithPath(s.path).WithOperation("append")
	}

	if err := s.lock.Lock(); err != nil {
		return 0, errors.ClassifyLockError(err, "append", s.path)
	}
	defer s.lock.Unlock()

	file, err := os.OpenFile(s.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		return 0, errors.ClassifyFileOpenError(err, s.path)
	}
	defer file.Close()

	target := digest.Key([]byte(key))
	buf := record.Encode(target, value)

	n, err := file.Write(buf)
	if err != nil {
		return 0, errors.ClassifyWriteError(err, "append", s.path, -1)
	}
	return n, nil
}

// Upsert inserts or replaces the value for key, returning the number of
// bytes written to the backing file: zero if the existing value is already
// equal to value (idempotent no-op), otherwise the size of the newly
// appended record.
//
// The sequence — read, then delete-and-append or append alone — is not
// atomic: a concurrent upserter may observe the same pre-state during the
// read phase before either writer takes the exclusive lock for its
// delete/append phase. Both may append a record in that race; whichever
// append lands last in file order is what subsequent reads observe,
// consistent with "the newest occurrence is authoritative." Callers that
// need strict linearizability must serialize upserts themselves.
func (s *Storage) Upsert(key string, value []byte) (int, error) {
	if s.closed.Load() {
		return 0, ErrStorageClosed
	}

	existing, err := s.Read(key)
	if err != nil {
		if se, ok := errors.AsStorageError(err); ok && se.Code() == errors.ErrorCodeNotFound {
			return s.Append(key, value)
		}
		return 0, err
	}

	if existing == nil {
		return s.Append(key, value)
	}

	if bytes.Equal(existing, value) {
		return 0, nil
	}

	if _, err := s.Delete(key); err != nil {
		return 0, err
	}
	return s.Append(key, value)
}

// Compact rewrites the backing file to contain only the newest live record
// per digest, reclaiming the space held by tombstoned and superseded
// records. It is a two-pass operation: first a read-only scan collects the
// file offset of each digest's newest live record, then those records are
// copied in file order into a sibling temporary file which is renamed over
// the original.
//
// A missing backing file is treated as a not-found error, which callers
// (the CLI subcommand and the accept loop) treat as "nothing to do."
func (s *Storage) Compact() error {
	if s.closed.Load() {
		return ErrStorageClosed
	}

	exists, err := filesys.Exists(s.path)
	if err != nil {
		return errors.NewStorageError(err, errors.ErrorCodeIO, "failed to stat backing file").
			WithPath(s.path).WithOperation("compact")
	}
	if !exists {
		return errors.NewStorageError(nil, errors.ErrorCodeNotFound, "backing file does not exist").
			WithPath(s.path).WithOperation("compact")
	}

	if err := s.lock.Lock(); err != nil {
		return errors.ClassifyLockError(err, "compact", s.path)
	}
	defer s.lock.Unlock()

	src, err := os.Open(s.path)
	if err != nil {
		return errors.ClassifyFileOpenError(err, s.path)
	}
	defer src.Close()

	offsets, err := scanLiveOffsets(src)
	if err != nil {
		return errors.NewStorageError(err, errors.ErrorCodeIO, "failed scanning backing file for compaction").
			WithPath(s.path).WithOperation("compact")
	}

	sorted := make([]int64, 0, len(offsets))
	for _, offset := range offsets {
		sorted = append(sorted, offset)
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	tmpPath := tmpfile.Name(s.path, func() int64 { return time.Now().UnixNano() })
	tmp, err := os.OpenFile(tmpPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0666)
	if err != nil {
		return errors.ClassifyFileOpenError(err, tmpPath)
	}

	if err := rewriteRecords(src, tmp, sorted); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return err
	}

	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return errors.NewStorageError(err, errors.ErrorCodeIO, "failed to close compaction temp file").
			WithPath(tmpPath).WithOperation("compact")
	}

	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return errors.NewStorageError(err, errors.ErrorCodeIO, "failed to rename compaction temp file over backing file").
			WithPath(s.path).WithOperation("compact")
	}

	s.log.Infow("Compaction complete", "path", s.path, "recordsKept", len(sorted))
	return nil
}

// rewriteRecords copies each record at the given offsets, in order, from src
// into dst.
func rewriteRecords(src, dst *os.File, offsets []int64) error {
	header := make([]byte, record.HeaderSize)

	for _, offset := range offsets {
		if _, err := src.ReadAt(header, offset); err != nil {
			return errors.NewStorageError(err, errors.ErrorCodeIO, "failed to read record header during compaction").
				WithPath(src.Name()).WithOffset(offset).WithOperation("compact")
		}

		h, err := record.DecodeHeader(header)
		if err != nil {
			return err
		}

		value := make([]byte, h.Length)
		if h.Length > 0 {
			if _, err := src.ReadAt(value, record.ValueOffset(offset)); err != nil {
				return errors.NewStorageError(err, errors.ErrorCodeIO, "failed to read record value during compaction").
					WithPath(src.Name()).WithOffset(offset).WithOperation("compact")
			}
		}

		if _, err := dst.Write(header); err != nil {
			return errors.ClassifyWriteError(err, "compact", dst.Name(), offset)
		}
		if len(value) > 0 {
			if _, err := dst.Write(value); err != nil {
				return errors.ClassifyWriteError(err, "compact", dst.Name(), offset)
			}
		}
	}

	return nil
}

// Close marks the storage instance as closed. Each operation opens and
// releases its own file descriptor, so there is no persistent handle to
// release here; Close only prevents further use of this instance.
func (s *Storage) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return ErrStorageClosed
	}
	return nil
}
