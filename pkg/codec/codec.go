// Package codec implements a declarative fixed-layout binary codec for pump
// history records. A Layout is built once from a compact format string of
// width codes and validated eagerly; decoding and encoding then translate
// between a byte buffer and named unsigned integer fields.
package codec

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// Width codes accepted in a layout format string. Every field is an unsigned
// little-endian integer.
const (
	WidthByte  = 'b' // 1 byte
	WidthShort = 's' // 2 bytes
	WidthInt   = 'i' // 4 bytes
)

var (
	// ErrUnknownWidthCode reports a format character outside the supported
	// width codes. Layouts are static, so this is a programmer error.
	ErrUnknownWidthCode = errors.New("codec: unknown width code")

	// ErrArityMismatch reports a name or value list whose length does not
	// match the layout's field count.
	ErrArityMismatch = errors.New("codec: arity mismatch")

	// ErrShortBuffer reports a buffer too small for the layout at the
	// requested offset.
	ErrShortBuffer = errors.New("codec: short buffer")
)

// Layout describes the fixed byte layout of one record: an ordered sequence
// of unsigned little-endian integer fields.
type Layout struct {
	widths []int
	size   int
}

// NewLayout parses a format string of width codes. Unknown codes are rejected
// here rather than on first use.
func NewLayout(format string) (Layout, error) {
	widths := make([]int, 0, len(format))
	size := 0
	for _, code := range format {
		var w int
		switch code {
		case WidthByte:
			w = 1
		case WidthShort:
			w = 2
		case WidthInt:
			w = 4
		default:
			return Layout{}, fmt.Errorf("%w: %q in format %q", ErrUnknownWidthCode, string(code), format)
		}
		widths = append(widths, w)
		size += w
	}
	return Layout{widths: widths, size: size}, nil
}

// MustLayout is NewLayout for package-level layout declarations; it panics on
// an invalid format string.
func MustLayout(format string) Layout {
	l, err := NewLayout(format)
	if err != nil {
		panic(err)
	}
	return l
}

// Size returns the total record length in bytes.
func (l Layout) Size() int {
	return l.size
}

// NumFields returns the number of fields in the layout.
func (l Layout) NumFields() int {
	return len(l.widths)
}

// Decode reads one record from buf at off. names supplies one output key per
// field and must match the layout's field count exactly. It returns the
// decoded fields and the number of bytes consumed, so a caller can advance a
// read cursor without recomputing the layout size.
//
// A 4-byte field decodes into the full unsigned range, so a value at or above
// 1<<31 comes back unchanged.
func (l Layout) Decode(buf []byte, off int, names []string) (map[string]uint32, int, error) {
	if len(names) != len(l.widths) {
		return nil, 0, fmt.Errorf("%w: %d names for %d fields", ErrArityMismatch, len(names), len(l.widths))
	}
	if off < 0 || off+l.size > len(buf) {
		return nil, 0, fmt.Errorf("%w: need %d bytes at offset %d, have %d", ErrShortBuffer, l.size, off, len(buf))
	}
	out := make(map[string]uint32, len(names))
	pos := off
	for i, w := range l.widths {
		var v uint32
		switch w {
		case 1:
			v = uint32(buf[pos])
		case 2:
			v = uint32(binary.LittleEndian.Uint16(buf[pos:]))
		case 4:
			v = binary.LittleEndian.Uint32(buf[pos:])
		}
		out[names[i]] = v
		pos += w
	}
	return out, l.size, nil
}

// Encode writes one record into buf at off, one value per field, and returns
// the number of bytes written. Each byte is extracted by masking and shifting
// in 8-bit steps; values wider than their field are truncated to the field
// width.
func (l Layout) Encode(buf []byte, off int, values []uint32) (int, error) {
	if len(values) != len(l.widths) {
		return 0, fmt.Errorf("%w: %d values for %d fields", ErrArityMismatch, len(values), len(l.widths))
	}
	if off < 0 || off+l.size > len(buf) {
		return 0, fmt.Errorf("%w: need %d bytes at offset %d, have %d", ErrShortBuffer, l.size, off, len(buf))
	}
	pos := off
	for i, w := range l.widths {
		v := values[i]
		for b := 0; b < w; b++ {
			buf[pos+b] = byte(v & 0xff)
			v >>= 8
		}
		pos += w
	}
	return l.size, nil
}

// ExtractString interprets n bytes starting at off as a string, one byte per
// character. n < 0 means the rest of the buffer. There is no multi-byte
// encoding support; pump strings are plain ASCII.
func ExtractString(b []byte, off, n int) string {
	if off < 0 || off >= len(b) {
		return ""
	}
	if n < 0 || off+n > len(b) {
		n = len(b) - off
	}
	return string(b[off : off+n])
}

// CopyBytes copies n bytes of src into dst at off, for opaque payloads a
// layout does not model. It returns the number of bytes copied.
func CopyBytes(dst []byte, off int, src []byte, n int) int {
	if off < 0 || off >= len(dst) {
		return 0
	}
	if n < 0 || n > len(src) {
		n = len(src)
	}
	return copy(dst[off:], src[:n])
}
