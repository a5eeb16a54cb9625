// Package buffer provides a secure byte buffer for key material: it locks
// its backing memory against swap where the platform allows it, and
// zeroizes its contents on Release. It must never be logged or formatted.
package buffer

import "fmt"

// Secure owns a byte slice holding sensitive data (passwords, derived keys,
// unwrapped header secrets). Call Release when the buffer is no longer
// needed.
type Secure struct {
	data     []byte
	released bool
	locked   bool
}

// New allocates a Secure buffer of the given length, zero-filled, and
// attempts to lock it in memory.
func New(size int) *Secure {
	s := &Secure{data: make([]byte, size)}
	s.locked = lockMemory(s.data)
	return s
}

// Wrap takes ownership of an existing byte slice. The caller must not use
// data directly after this call; use the returned Secure instead.
func Wrap(data []byte) *Secure {
	s := &Secure{data: data}
	s.locked = lockMemory(s.data)
	return s
}

// Bytes returns the underlying slice. The slice is invalidated by Release.
func (s *Secure) Bytes() []byte {
	return s.data
}

// Len returns the number of bytes held.
func (s *Secure) Len() int {
	return len(s.data)
}

// Release zeroizes the buffer, unlocks it, and marks it invalid. Safe to
// call more than once.
func (s *Secure) Release() {
	if s.released {
		return
	}
	for i := range s.data {
		s.data[i] = 0
	}
	if s.locked {
		unlockMemory(s.data)
	}
	s.data = nil
	s.released = true
}

// String deliberately never exposes the contents, so that accidentally
// passing a *Secure to a log call or fmt.Sprintf cannot leak key material.
func (s *Secure) String() string {
	return fmt.Sprintf("buffer.Secure{len=%d, released=%v}", len(s.data), s.released)
}

// GoString mirrors String for %#v formatting.
func (s *Secure) GoString() string {
	return s.String()
}
