// Package tmpfile names the sibling temporary file compaction writes its
// pruned copy into before renaming it over the original.
//
// Filename Format: <base>.compact.<timestamp>.tmp
//
// Where:
//   - base: the original file's base name, so the temp file sorts next to
//     it in a directory listing.
//   - timestamp: a nanosecond-precision Unix timestamp, making concurrent
//     compaction attempts on different processes (which should never
//     overlap thanks to the exclusive lock, but might race to create the
//     file before acquiring it) land on distinct names.
//   - .tmp: a fixed extension marking the file as scratch space safe to
//     remove if a crash leaves it behind.
package tmpfile

import (
	"fmt"
	"path/filepath"
)

// Name returns the path of a new sibling temporary file for compacting the
// file at path, using now as the timestamp source.
func Name(path string, now func() int64) string {
	dir := filepath.Dir(path)
	base := filepath.Base(path)
	return filepath.Join(dir, fmt.Sprintf("%s.compact.%d.tmp", base, now()))
}
