package bytecodec

import (
	"encoding/binary"
	"unicode/utf8"
)

// Source is where a Reader pulls encoded bytes from.
type Source interface {
	// TakeBytes fills buf completely from the source, advancing past
	// the bytes consumed. It returns ErrEOF if the source is exhausted
	// before buf is full.
	TakeBytes(buf []byte) error
}

// Reader deserializes primitives, sequences, strings and tagged variants
// from a Source, the inverse of Writer.
type Reader struct {
	src Source
}

// NewReader returns a Reader pulling from src.
func NewReader(src Source) *Reader {
	return &Reader{src: src}
}

func (r *Reader) TakeU8() (uint8, error) {
	var buf [1]byte
	if err := r.src.TakeBytes(buf[:]); err != nil {
		return 0, err
	}
	return buf[0], nil
}

func (r *Reader) TakeU16() (uint16, error) {
	var buf [2]byte
	if err := r.src.TakeBytes(buf[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(buf[:]), nil
}

func (r *Reader) TakeU32() (uint32, error) {
	var buf [4]byte
	if err := r.src.TakeBytes(buf[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(buf[:]), nil
}

func (r *Reader) TakeU64() (uint64, error) {
	var buf [8]byte
	if err := r.src.TakeBytes(buf[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(buf[:]), nil
}

func (r *Reader) TakeI64() (int64, error) {
	v, err := r.TakeU64()
	return int64(v), err
}

func (r *Reader) TakeBool() (bool, error) {
	v, err := r.TakeU8()
	if err != nil {
		return false, err
	}
	return v != 0, nil
}

// TakeBytes fills buf completely with unframed, raw bytes.
func (r *Reader) TakeBytes(buf []byte) error {
	return r.src.TakeBytes(buf)
}

// TakeVec reads a u64 length prefix and returns that many bytes.
func (r *Reader) TakeVec() ([]byte, error) {
	n, err := r.TakeU64()
	if err != nil {
		return nil, err
	}
	buf := make([]byte, n)
	if err := r.src.TakeBytes(buf); err != nil {
		return nil, err
	}
	return buf, nil
}

// TakeBoundedBytes reads an N-byte big-endian length prefix followed by
// that many bytes, the inverse of Writer.PutBoundedBytes.
func (r *Reader) TakeBoundedBytes(prefixWidth int) ([]byte, error) {
	if prefixWidth < 1 || prefixWidth > 8 {
		return nil, custom(errPrefixWidth(prefixWidth))
	}
	var full [8]byte
	if err := r.src.TakeBytes(full[8-prefixWidth:]); err != nil {
		return nil, err
	}
	n := binary.BigEndian.Uint64(full[:])
	buf := make([]byte, n)
	if err := r.src.TakeBytes(buf); err != nil {
		return nil, err
	}
	return buf, nil
}

// TakeString reads a u64-length-prefixed UTF-8 string, failing with
// ErrInvalidString if the bytes are not valid UTF-8.
func (r *Reader) TakeString() (string, error) {
	buf, err := r.TakeVec()
	if err != nil {
		return "", err
	}
	if !utf8.Valid(buf) {
		return "", invalidString(errNotUTF8)
	}
	return string(buf), nil
}

// TakeVariant reads a u32 variant tag. The caller dispatches on the
// returned tag and reads the matching payload next.
func (r *Reader) TakeVariant() (uint32, error) {
	return r.TakeU32()
}

type utf8Error struct{}

func (utf8Error) Error() string { return "invalid UTF-8 byte sequence" }

var errNotUTF8 = utf8Error{}

// InvalidVariant builds the ErrInvalidVariantIndex error for tag idx, for
// callers that dispatch on a variant tag themselves (e.g. Cipher, Kdf).
func InvalidVariant(idx uint32) error {
	return invalidVariant(idx)
}

// InvalidChar builds the ErrInvalidChar error for a u32 that does not
// correspond to a valid rune.
func InvalidChar(v uint32) error {
	return invalidChar(v)
}
