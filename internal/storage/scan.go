package storage

import (
	"fmt"
	"io"
	"os"

	"github.com/dpapathanasiou/coatcheck/internal/record"
)

// scanRead walks file from its current position to EOF looking for the
// digest target, continuing past every occurrence it finds rather than
// stopping at the first match. The newest occurrence in file order decides
// the outcome: a later tombstone makes an earlier live record moot, and a
// later live record supersedes an earlier one. This is the defensive
// reading of the at-most-one-live-per-digest invariant: the scan enforces
// it rather than assuming the file already satisfies it.
func scanRead(file *os.File, target string) ([]byte, bool, error) {
	header := make([]byte, record.HeaderSize)
	var value []byte
	var found bool

	for {
		if _, err := io.ReadFull(file, header); err != nil {
			if err == io.EOF {
				return value, found, nil
			}
			return nil, false, fmt.Errorf("storage: short read on record header: %w", err)
		}

		h, err := record.DecodeHeader(header)
		if err != nil {
			return nil, false, err
		}

		if h.Digest != target {
			if _, err := file.Seek(int64(h.Length), io.SeekCurrent); err != nil {
				return nil, false, err
			}
			continue
		}

		if !h.Live() {
			if _, err := file.Seek(int64(h.Length), io.SeekCurrent); err != nil {
				return nil, false, err
			}
			value, found = nil, false
			continue
		}

		buf := make([]byte, h.Length)
		if _, err := io.ReadFull(file, buf); err != nil {
			return nil, false, fmt.Errorf("storage: short read on record value: %w", err)
		}
		value, found = buf, true
	}
}

// scanDelete behaves like scanRead but, for every live record it encounters
// matching target, flips its tombstone byte in place via WriteAt before
// continuing the scan. The return value is the payload of the newest live
// record it flipped, matching the value a subsequent read would have
// returned immediately before the delete.
func scanDelete(file *os.File, target string) ([]byte, bool, error) {
	header := make([]byte, record.HeaderSize)
	var value []byte
	var found bool

	for {
		offset, err := file.Seek(0, io.SeekCurrent)
		if err != nil {
			return nil, false, err
		}

		if _, err := io.ReadFull(file, header); err != nil {
			if err == io.EOF {
				return value, found, nil
			}
			return nil, false, fmt.Errorf("storage: short read on record header: %w", err)
		}

		h, err := record.DecodeHeader(header)
		if err != nil {
			return nil, false, err
		}

		if h.Digest != target {
			if _, err := file.Seek(int64(h.Length), io.SeekCurrent); err != nil {
				return nil, false, err
			}
			continue
		}

		if !h.Live() {
			if _, err := file.Seek(int64(h.Length), io.SeekCurrent); err != nil {
				return nil, false, err
			}
			value, found = nil, false
			continue
		}

		buf := make([]byte, h.Length)
		if _, err := io.ReadFull(file, buf); err != nil {
			return nil, false, fmt.Errorf("storage: short read on record value: %w", err)
		}

		if _, err := file.WriteAt([]byte{record.Deleted}, record.TombstoneOffset(offset)); err != nil {
			return nil, false, err
		}

		value, found = buf, true
	}
}

// scanLiveOffsets returns, for every digest with a live record in file, the
// byte offset of its newest occurrence. A digest whose newest occurrence is
// tombstoned is absent from the result, same as a digest never written.
func scanLiveOffsets(file *os.File) (map[string]int64, error) {
	latest := make(map[string]int64)
	header := make([]byte, record.HeaderSize)

	for {
		offset, err := file.Seek(0, io.SeekCurrent)
		if err != nil {
			return nil, err
		}

		if _, err := io.ReadFull(file, header); err != nil {
			if err == io.EOF {
				return latest, nil
			}
			return nil, fmt.Errorf("storage: short read on record header: %w", err)
		}

		h, err := record.DecodeHeader(header)
		if err != nil {
			return nil, err
		}

		if h.Live() {
			latest[h.Digest] = offset
		} else {
			delete(latest, h.Digest)
		}

		if _, err := file.Seek(int64(h.Length), io.SeekCurrent); err != nil {
			return nil, err
		}
	}
}
