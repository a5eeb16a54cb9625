// Package pagechain implements the archive service's forward-linked page
// chain (spec.md §4.8): a stream of container blocks, each prefixed with a
// "next" pointer, carrying one logical byte stream. It is grounded on
// internal/writecoalescing's buffer-plus-explicit-flush shape (a page
// holds pending writes until Flush persists it, mirroring
// WriteBuffer.flushLocked), stripped of the mutex/timeout machinery a
// single-threaded container has no use for.
package pagechain

import (
	"fmt"

	"github.com/drobin/nutsgo/backend"
	"github.com/drobin/nutsgo/container"
	"github.com/drobin/nutsgo/internal/bytecodec"
	"github.com/drobin/nutsgo/internal/tlog"
)

// maxBlockIDSize bounds the "next" pointer's fixed-width slot at the head
// of every page. The container's BlockID is backend-chosen width (a
// directory backend's 16-byte UUID, a plugin's caller-defined string), so
// a page's user-payload capacity is only the same on every page of the
// chain if the next-pointer field itself is fixed width; this reserves
// enough room for any realistic backend id and fails loudly if one
// doesn't fit, rather than silently truncating an id.
const maxBlockIDSize = 32

// PageOverhead is how many leading bytes of every page's plaintext (the
// block as Container.Read returns it) the next pointer occupies before the
// page's user-payload region begins. Callers
// that need to patch bytes inside an already-written page in place
// (archive entry headers rewriting their size field) use this to find
// the user region's absolute offset within the raw block.
const PageOverhead = 1 + maxBlockIDSize

// Stream is positioned at exactly one page of a forward-linked chain. A
// terminal page's next pointer is backend.NullID.
type Stream struct {
	c *container.Container

	id     backend.BlockID
	next   backend.BlockID
	user   []byte
	offset int
	dirty  bool
}

// Open positions a Stream at the page named by id, reading it from c.
func Open(c *container.Container, id backend.BlockID) (*Stream, error) {
	s := &Stream{c: c}
	if err := s.load(id); err != nil {
		return nil, err
	}
	return s, nil
}

// NewHead acquires a fresh block from c and writes it as an empty
// terminal page, returning a Stream positioned there. This is how an
// archive entry builder starts a new page-chain segment.
func NewHead(c *container.Container) (*Stream, error) {
	id, err := c.Acquire()
	if err != nil {
		return nil, err
	}
	s := &Stream{
		c:    c,
		id:   id,
		next: backend.NullID,
		user: make([]byte, UserCapacity(c)),
	}
	s.dirty = true
	if err := s.Flush(); err != nil {
		return nil, err
	}
	return s, nil
}

// UserCapacity returns how many user-payload bytes one page can hold.
func UserCapacity(c *container.Container) int {
	return int(c.BlockSize()) - 1 - maxBlockIDSize
}

// ID returns the id of the page the Stream is currently positioned at.
func (s *Stream) ID() backend.BlockID {
	return s.id
}

// Next advances to the next page in the chain. ok is false, with a nil
// error, when the current page is terminal.
func (s *Stream) Next() (ok bool, err error) {
	if s.next.IsNull() {
		return false, nil
	}
	if err := s.Flush(); err != nil {
		return false, err
	}
	if err := s.load(s.next); err != nil {
		return false, err
	}
	return true, nil
}

// Insert acquires a new block, links the current page to it, and
// positions the Stream at the new (empty, terminal) page. Used only while
// writing, when the current page's user region is full.
func (s *Stream) Insert() (backend.BlockID, error) {
	newID, err := s.c.Acquire()
	if err != nil {
		return backend.BlockID{}, err
	}

	newStream := &Stream{
		c:    s.c,
		id:   newID,
		next: backend.NullID,
		user: make([]byte, UserCapacity(s.c)),
	}
	newStream.dirty = true
	if err := newStream.Flush(); err != nil {
		return backend.BlockID{}, err
	}

	s.next = newID
	s.dirty = true
	if err := s.Flush(); err != nil {
		return backend.BlockID{}, err
	}

	*s = *newStream
	tlog.Debug.Printf("pagechain: inserted page %s after previous", newID)
	return newID, nil
}

// Read fills buf from the current page's user region, rolling forward
// through the chain as pages are exhausted. It returns 0 only once the
// terminal page's region is exhausted.
func (s *Stream) Read(buf []byte) (int, error) {
	total := 0
	for total < len(buf) {
		avail := len(s.user) - s.offset
		if avail == 0 {
			ok, err := s.Next()
			if err != nil {
				return total, err
			}
			if !ok {
				return total, nil
			}
			continue
		}
		n := copy(buf[total:], s.user[s.offset:])
		s.offset += n
		total += n
	}
	return total, nil
}

// Write appends buf into the current page's user region, automatically
// acquiring and linking new pages as each fills. A zero-length buf
// performs no backend I/O, per spec.md §8 "Boundary behaviors".
func (s *Stream) Write(buf []byte) (int, error) {
	total := 0
	for total < len(buf) {
		room := len(s.user) - s.offset
		if room == 0 {
			if _, err := s.Insert(); err != nil {
				return total, err
			}
			room = len(s.user)
		}
		n := copy(s.user[s.offset:], buf[total:])
		s.offset += n
		total += n
		if n > 0 {
			s.dirty = true
		}
	}
	return total, nil
}

// Flush encrypts and persists the current page via the container.
func (s *Stream) Flush() error {
	if !s.dirty {
		return nil
	}

	sink := bytecodec.NewVecSink()
	w := bytecodec.NewWriter(sink)
	if err := encodeNextID(w, s.next); err != nil {
		return err
	}
	if err := w.PutBytes(s.user); err != nil {
		return err
	}

	if _, err := s.c.Write(s.id, sink.Bytes()); err != nil {
		return err
	}
	s.dirty = false
	return nil
}

func (s *Stream) load(id backend.BlockID) error {
	raw := make([]byte, s.c.BlockSize())
	if _, err := s.c.Read(id, raw); err != nil {
		return err
	}

	src := bytecodec.NewSliceSource(raw)
	r := bytecodec.NewReader(src)
	next, err := decodeNextID(r)
	if err != nil {
		return err
	}

	s.id = id
	s.next = next
	s.user = src.Remaining()
	s.offset = 0
	s.dirty = false
	return nil
}

func encodeNextID(w *bytecodec.Writer, id backend.BlockID) error {
	raw := id.Bytes()
	if len(raw) > maxBlockIDSize {
		return fmt.Errorf("pagechain: block id is %d bytes, exceeds the %d-byte next-pointer slot", len(raw), maxBlockIDSize)
	}
	if err := w.PutU8(uint8(len(raw))); err != nil {
		return err
	}
	padded := make([]byte, maxBlockIDSize)
	copy(padded, raw)
	return w.PutBytes(padded)
}

func decodeNextID(r *bytecodec.Reader) (backend.BlockID, error) {
	n, err := r.TakeU8()
	if err != nil {
		return backend.BlockID{}, err
	}
	padded := make([]byte, maxBlockIDSize)
	if err := r.TakeBytes(padded); err != nil {
		return backend.BlockID{}, err
	}
	if n == 0 {
		return backend.NullID, nil
	}
	return backend.NewBlockID(padded[:n]), nil
}
