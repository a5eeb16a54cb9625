package bytecodec

// SliceSource is a Source backed by a byte slice that advances as it is
// consumed. TakeBytes returns ErrEOF once fewer bytes remain than
// requested.
type SliceSource struct {
	buf []byte
}

// NewSliceSource wraps buf for reading. buf is not copied; the caller must
// not mutate it while the SliceSource is in use.
func NewSliceSource(buf []byte) *SliceSource {
	return &SliceSource{buf: buf}
}

func (s *SliceSource) TakeBytes(buf []byte) error {
	if len(s.buf) < len(buf) {
		return ErrEOFVal
	}
	n := copy(buf, s.buf[:len(buf)])
	s.buf = s.buf[n:]
	return nil
}

// Remaining returns the bytes not yet consumed.
func (s *SliceSource) Remaining() []byte {
	return s.buf
}

// VecSink is a Sink backed by a growing byte slice.
type VecSink struct {
	buf []byte
}

// NewVecSink returns an empty, growable Sink.
func NewVecSink() *VecSink {
	return &VecSink{}
}

func (s *VecSink) PutBytes(buf []byte) error {
	s.buf = append(s.buf, buf...)
	return nil
}

// Bytes returns everything written so far.
func (s *VecSink) Bytes() []byte {
	return s.buf
}

// FixedSink is a Sink backed by a fixed-size, pre-allocated slice: it never
// grows and fails with ErrNoSpace once full.
type FixedSink struct {
	buf []byte
	pos int
}

// NewFixedSink wraps buf, writing into it starting at offset 0. buf's
// length is the sink's total capacity.
func NewFixedSink(buf []byte) *FixedSink {
	return &FixedSink{buf: buf}
}

func (s *FixedSink) PutBytes(buf []byte) error {
	if len(s.buf)-s.pos < len(buf) {
		return ErrNoSpaceVal
	}
	n := copy(s.buf[s.pos:], buf)
	s.pos += n
	return nil
}

// Written returns the prefix of the backing slice written so far.
func (s *FixedSink) Written() []byte {
	return s.buf[:s.pos]
}
