// Package backend defines the abstract block store the container is built
// on (spec.md §4.5): fixed block size, id allocation, raw read/write, a
// reserved header id, and an opaque display-only info map. Concrete
// backends live in backend/memory, backend/directory and backend/plugin.
package backend

import (
	"encoding/hex"
	"errors"
)

// BlockID is an opaque, comparable, serializable handle naming one block.
// Different backends produce ids of different shapes (a fixed 16-byte
// UUID for the directory backend, a variable-length string for the
// plugin backend) so BlockID wraps a raw byte string rather than fixing a
// width; backends that need a fixed-size id just always produce raw
// slices of that width.
type BlockID struct {
	raw string
}

// NullID is the distinguished "no block" value.
var NullID = BlockID{}

// NewBlockID wraps raw bytes as a BlockID.
func NewBlockID(raw []byte) BlockID {
	return BlockID{raw: string(raw)}
}

// IsNull reports whether id is the distinguished null value.
func (id BlockID) IsNull() bool {
	return id.raw == ""
}

// Bytes returns the id's raw byte representation.
func (id BlockID) Bytes() []byte {
	return []byte(id.raw)
}

// String renders the id as a hex string for logging and info maps.
func (id BlockID) String() string {
	if id.IsNull() {
		return "<null>"
	}
	return hex.EncodeToString(id.Bytes())
}

// Equal reports whether id and other name the same block.
func (id BlockID) Equal(other BlockID) bool {
	return id.raw == other.raw
}

// ErrNoSuchID is returned by Read (and by the memory backend's Write) for
// an id the backend does not recognize. The memory and directory backends
// report an unknown id passed to Release as ErrAlreadyReleased.
var ErrNoSuchID = errors.New("backend: no such block id")

// ErrAlreadyReleased is returned by Release for an id already on the
// backend's free list. Whether a concrete backend actually detects this
// (vs. treating double-release as a no-op) is implementation-defined,
// per spec.md §4.5.
var ErrAlreadyReleased = errors.New("backend: block id already released")

// ErrNoSpace is returned by Acquire when the backend cannot allocate
// another block.
var ErrNoSpace = errors.New("backend: no space for another block")

// Backend is the abstract block store contract the container builds on.
// All methods are synchronous; a Backend value must not be shared across
// goroutines (spec.md §5).
type Backend interface {
	// BlockSize returns the gross block size in bytes; every block this
	// backend hands back from Acquire or reads via Read is exactly this
	// many bytes.
	BlockSize() uint32

	// HeaderID returns the backend's stable id for the container header
	// block. It is never returned by Acquire.
	HeaderID() BlockID

	// Info returns an opaque, display-only description of the backend.
	Info() map[string]string

	// Acquire allocates one previously-unused block and returns its id.
	Acquire() (BlockID, error)

	// Release returns id to the backend's free list.
	Release(id BlockID) error

	// Read fills buf (len(buf) >= BlockSize()) with the block named by
	// id, returning the number of bytes read (always BlockSize() on
	// success).
	Read(id BlockID, buf []byte) (int, error)

	// Write consumes BlockSize() bytes from buf and stores them under
	// id, returning the number of bytes written (always BlockSize() on
	// success).
	Write(id BlockID, buf []byte) (int, error)
}
