package archive

import (
	"time"

	"github.com/drobin/nutsgo/backend"
	"github.com/drobin/nutsgo/internal/bytecodec"
	"github.com/drobin/nutsgo/internal/pagechain"
)

// Builder appends one new entry to an archive: open a stream segment,
// write its payload, then Build to finalize the header's size field and
// persist the archive header (spec.md §4.10 "Append (builder pattern)").
type Builder struct {
	a      *Archive
	stream *pagechain.Stream
	headID backend.BlockID
	name   string
	mode   Mode
	size   uint64
	built  bool
}

func (a *Archive) beginEntry(name string, mode Mode) (*Builder, error) {
	s, err := pagechain.NewHead(a.c)
	if err != nil {
		return nil, err
	}

	now := time.Now().UnixMilli()
	in := &inner{
		Name: name,
		Mode: mode,
		Size: 0,
		TS:   Timestamps{Appended: now, Created: now, Changed: now, Modified: now},
	}

	sink := bytecodec.NewVecSink()
	w := bytecodec.NewWriter(sink)
	if err := encodeInner(w, in); err != nil {
		return nil, errCodec(err)
	}
	if _, err := s.Write(sink.Bytes()); err != nil {
		return nil, err
	}

	if err := a.tree.append(a.h, s.ID()); err != nil {
		return nil, err
	}
	a.h.Mtime = now
	if err := writeHeader(a.c, a.headerID, a.h); err != nil {
		return nil, err
	}

	return &Builder{a: a, stream: s, headID: s.ID(), name: name, mode: mode}, nil
}

// Write appends buf to the entry's payload. File content is streamed
// through it; AddSymlink calls it once with the target, and AddDirectory
// does not call it.
func (b *Builder) Write(buf []byte) (int, error) {
	n, err := b.stream.Write(buf)
	b.size += uint64(n)
	return n, err
}

// Build flushes the entry's pages, rewrites the entry header's size
// field in place, and persists the archive header's updated total_size
// and mtime.
func (b *Builder) Build() error {
	if b.built {
		return nil
	}
	if err := b.stream.Flush(); err != nil {
		return err
	}

	raw := make([]byte, b.a.c.BlockSize())
	if _, err := b.a.c.Read(b.headID, raw); err != nil {
		return err
	}

	off := pagechain.PageOverhead + sizeFieldOffset(b.name)
	sink := bytecodec.NewFixedSink(raw[off : off+8])
	w := bytecodec.NewWriter(sink)
	if err := w.PutU64(b.size); err != nil {
		return errCodec(err)
	}

	if _, err := b.a.c.Write(b.headID, raw); err != nil {
		return err
	}

	if b.mode.IsFile() {
		b.a.h.TotalSize += b.size
	}
	b.a.h.Mtime = time.Now().UnixMilli()
	b.built = true
	return writeHeader(b.a.c, b.a.headerID, b.a.h)
}
