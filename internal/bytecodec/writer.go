// Package bytecodec implements the fixed-endian, self-describing binary
// encoding used for the container header, the archive header, and archive
// entry headers: big-endian fixed-width integers, length-prefixed byte
// vectors and strings, and u32-tagged variants. There is no varint form.
package bytecodec

import "encoding/binary"

// Sink is the destination a Writer appends encoded bytes to.
type Sink interface {
	// PutBytes appends buf at the end of the sink. It returns ErrNoSpace
	// if buf does not fully fit (only possible for fixed-size sinks).
	PutBytes(buf []byte) error
}

// Writer serializes primitives, sequences, strings and tagged variants to
// a Sink in the wire format described in spec.md §4.1. A Writer never
// retains a reference to buffers passed to it by the caller once a call
// returns.
type Writer struct {
	sink Sink
}

// NewWriter returns a Writer that appends to sink.
func NewWriter(sink Sink) *Writer {
	return &Writer{sink: sink}
}

func (w *Writer) PutU8(v uint8) error {
	return w.sink.PutBytes([]byte{v})
}

func (w *Writer) PutU16(v uint16) error {
	var buf [2]byte
	binary.BigEndian.PutUint16(buf[:], v)
	return w.sink.PutBytes(buf[:])
}

func (w *Writer) PutU32(v uint32) error {
	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:], v)
	return w.sink.PutBytes(buf[:])
}

func (w *Writer) PutU64(v uint64) error {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], v)
	return w.sink.PutBytes(buf[:])
}

func (w *Writer) PutI64(v int64) error {
	return w.PutU64(uint64(v))
}

func (w *Writer) PutBool(v bool) error {
	if v {
		return w.PutU8(1)
	}
	return w.PutU8(0)
}

// PutBytes writes raw, unframed bytes with no length prefix.
func (w *Writer) PutBytes(buf []byte) error {
	return w.sink.PutBytes(buf)
}

// PutVec writes a u64 length prefix followed by buf's contents.
func (w *Writer) PutVec(buf []byte) error {
	if err := w.PutU64(uint64(len(buf))); err != nil {
		return err
	}
	return w.sink.PutBytes(buf)
}

// PutBoundedBytes writes buf with an N-byte big-endian length prefix,
// where N is prefixWidth (1..=8). It fails with ErrBoundsExceeded if
// len(buf) does not fit in N bytes.
func (w *Writer) PutBoundedBytes(buf []byte, prefixWidth int) error {
	if prefixWidth < 1 || prefixWidth > 8 {
		return custom(errPrefixWidth(prefixWidth))
	}
	max := uint64(1)
	for i := 0; i < prefixWidth; i++ {
		max <<= 8
	}
	if max != 0 && uint64(len(buf)) > max-1 {
		return ErrBoundsExceededVal
	}
	var full [8]byte
	binary.BigEndian.PutUint64(full[:], uint64(len(buf)))
	if err := w.sink.PutBytes(full[8-prefixWidth:]); err != nil {
		return err
	}
	return w.sink.PutBytes(buf)
}

// PutString writes a UTF-8 string with a u64 length prefix.
func (w *Writer) PutString(s string) error {
	return w.PutVec([]byte(s))
}

// PutVariant writes a u32 variant tag. The caller is responsible for
// writing the variant's payload afterward.
func (w *Writer) PutVariant(tag uint32) error {
	return w.PutU32(tag)
}

// ErrBoundsExceededVal is returned by PutBoundedBytes when the length does
// not fit the requested prefix width.
var ErrBoundsExceededVal = &Error{Kind: ErrBoundsExceeded}

type prefixWidthError int

func (e prefixWidthError) Error() string {
	return "bytecodec: bounded byte vector prefix width must be 1..=8"
}

func errPrefixWidth(n int) error {
	return prefixWidthError(n)
}
