package archive

import (
	"io"

	"github.com/drobin/nutsgo/backend"
	"github.com/drobin/nutsgo/container"
	"github.com/drobin/nutsgo/internal/bytecodec"
	"github.com/drobin/nutsgo/internal/pagechain"
)

// streamSource adapts a pagechain.Stream to bytecodec.Source so the
// entry header at the start of a stream can be decoded with the same
// Reader used everywhere else, instead of a bespoke parser.
type streamSource struct {
	s *pagechain.Stream
}

func (ss streamSource) TakeBytes(buf []byte) error {
	n, err := ss.s.Read(buf)
	if err != nil {
		return err
	}
	if n < len(buf) {
		return bytecodec.ErrEOFVal
	}
	return nil
}

// Entry is one decoded archive entry, positioned to stream its payload
// (spec.md §4.10 "Iteration").
type Entry struct {
	c      *container.Container
	stream *pagechain.Stream
	name   string
	mode   Mode
	size   uint64
	ts     Timestamps
	read   uint64
	target string
}

func openEntry(c *container.Container, headID backend.BlockID) (*Entry, error) {
	s, err := pagechain.Open(c, headID)
	if err != nil {
		return nil, err
	}

	r := bytecodec.NewReader(streamSource{s: s})
	in, err := decodeInner(r)
	if err != nil {
		return nil, errCodec(err)
	}

	e := &Entry{c: c, stream: s, name: in.Name, mode: in.Mode, size: in.Size, ts: in.TS}
	if in.Mode.IsSymlink() {
		target := make([]byte, in.Size)
		if _, err := s.Read(target); err != nil {
			return nil, err
		}
		e.target = string(target)
	}
	return e, nil
}

func (e *Entry) Name() string           { return e.name }
func (e *Entry) Mode() Mode             { return e.mode }
func (e *Entry) Size() uint64           { return e.size }
func (e *Entry) Timestamps() Timestamps { return e.ts }

// Target returns a symlink entry's target path. It panics if called on a
// non-symlink entry.
func (e *Entry) Target() string {
	if !e.mode.IsSymlink() {
		panic("archive: Target called on a non-symlink entry")
	}
	return e.target
}

// Read streams a file entry's payload, stopping at Size bytes even if
// the final page has more capacity (spec.md §4.10). It panics if called
// on a non-file entry.
func (e *Entry) Read(buf []byte) (int, error) {
	if !e.mode.IsFile() {
		panic("archive: Read called on a non-file entry")
	}
	remaining := e.size - e.read
	if remaining == 0 {
		return 0, nil
	}
	if uint64(len(buf)) > remaining {
		buf = buf[:remaining]
	}
	n, err := e.stream.Read(buf)
	e.read += uint64(n)
	return n, err
}

// Scanner lazily iterates an archive's entries in ordinal order.
type Scanner struct {
	a       *Archive
	ordinal uint64
}

// Scan returns a Scanner positioned before the first entry.
func (a *Archive) Scan() *Scanner {
	return &Scanner{a: a}
}

// Next decodes and returns the next entry, or io.EOF once the archive is
// exhausted.
func (s *Scanner) Next() (*Entry, error) {
	if s.ordinal >= s.a.h.Count {
		return nil, io.EOF
	}
	id, err := s.a.tree.lookup(s.a.h, s.ordinal)
	if err != nil {
		return nil, err
	}
	s.ordinal++
	return openEntry(s.a.c, id)
}
