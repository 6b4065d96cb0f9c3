// Package record defines the on-disk layout of a single coat-check entry:
//
//	digest (32 bytes, ASCII hex) | length (8 bytes, little-endian) | tombstone (1 byte) | value (length bytes)
//
// Encoding is a pure, allocation-only concern handled here. Decoding is
// sequential by nature — a reader only knows where the next record begins
// once it has read the current one's length — so only header decoding lives
// in this package; the scan loop itself belongs to the storage engine that
// walks the file (see internal/storage).
//
// The original coat-check implementation stored the length field as a
// native-endian machine word, which makes the file format non-portable
// across architectures with different word sizes or byte orders. This
// package fixes the field to little-endian explicitly, the forward-looking
// choice the original design notes recommend: single-architecture behavior
// is unchanged, multi-architecture behavior becomes well-defined instead of
// merely unspecified.
package record

import (
	"encoding/binary"
	"fmt"

	"github.com/dpapathanasiou/coatcheck/internal/digest"
)

// LengthSize is the width in bytes of the value-length field, W in the
// on-disk layout.
const LengthSize = 8

// HeaderSize is the number of bytes preceding the value in every record:
// digest + length + tombstone.
const HeaderSize = digest.Width + LengthSize + 1

// Tombstone byte values.
const (
	Live    byte = 0x00
	Deleted byte = 0x01
)

// Header is the fixed-width portion of a record, decoded in place without
// reading the (variable-length) value that follows it.
type Header struct {
	Digest    string // 32-character lowercase hex key digest.
	Length    uint64 // length of the value in bytes.
	Tombstone byte   // Live or Deleted.
}

// Live reports whether the header marks a non-deleted record.
func (h Header) Live() bool {
	return h.Tombstone == Live
}

// Encode builds the full on-disk bytes for a new live record with the given
// key digest and value.
func Encode(digestHex string, value []byte) []byte {
	buf := make([]byte, HeaderSize+len(value))
	copy(buf, digestHex)
	binary.LittleEndian.PutUint64(buf[digest.Width:digest.Width+LengthSize], uint64(len(value)))
	buf[digest.Width+LengthSize] = Live
	copy(buf[HeaderSize:], value)
	return buf
}

// DecodeHeader parses a HeaderSize-byte buffer into a Header. It does not
// validate that Digest is well-formed hex; the storage engine only ever
// compares it byte-for-byte against digests it computed itself.
func DecodeHeader(buf []byte) (Header, error) {
	if len(buf) != HeaderSize {
		return Header{}, fmt.Errorf("record: header buffer must be %d bytes, got %d", HeaderSize, len(buf))
	}
	return Header{
		Digest:    string(buf[:digest.Width]),
		Length:    binary.LittleEndian.Uint64(buf[digest.Width : digest.Width+LengthSize]),
		Tombstone: buf[digest.Width+LengthSize],
	}, nil
}

// TombstoneOffset returns the absolute byte offset of the tombstone field
// within a record that begins at recordOffset. Delete flips this single
// byte in place; no other byte of an existing record is ever mutated.
func TombstoneOffset(recordOffset int64) int64 {
	return recordOffset + digest.Width + LengthSize
}

// ValueOffset returns the absolute byte offset of the value field within a
// record that begins at recordOffset.
func ValueOffset(recordOffset int64) int64 {
	return recordOffset + HeaderSize
}
