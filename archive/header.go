package archive

import (
	"github.com/drobin/nutsgo/backend"
	"github.com/drobin/nutsgo/container"
	"github.com/drobin/nutsgo/internal/bytecodec"
)

const magic = "nuts-archiv"

// serviceID is the container service-id the archive binds to
// (spec.md §3 "service-id is a u32 constant per service kind").
const serviceID = uint32(1)

// Header is the archive header stored at the container's top-id block
// (spec.md §3).
type Header struct {
	Ctime     int64
	Mtime     int64
	TotalSize uint64
	Count     uint64
	FirstID   backend.BlockID
	LastID    backend.BlockID
}

func writeHeader(c *container.Container, id backend.BlockID, h *Header) error {
	sink := bytecodec.NewVecSink()
	w := bytecodec.NewWriter(sink)

	if err := w.PutBytes([]byte(magic)); err != nil {
		return errCodec(err)
	}
	if err := w.PutI64(h.Ctime); err != nil {
		return errCodec(err)
	}
	if err := w.PutI64(h.Mtime); err != nil {
		return errCodec(err)
	}
	if err := w.PutU64(h.TotalSize); err != nil {
		return errCodec(err)
	}
	if err := w.PutU64(h.Count); err != nil {
		return errCodec(err)
	}
	if err := putBlockID(w, h.FirstID); err != nil {
		return errCodec(err)
	}
	if err := putBlockID(w, h.LastID); err != nil {
		return errCodec(err)
	}

	block := make([]byte, c.BlockSize())
	copy(block, sink.Bytes())
	_, err := c.Write(id, block)
	return err
}

func readHeader(c *container.Container, id backend.BlockID) (*Header, error) {
	raw := make([]byte, c.BlockSize())
	if _, err := c.Read(id, raw); err != nil {
		return nil, err
	}

	src := bytecodec.NewSliceSource(raw)
	r := bytecodec.NewReader(src)

	gotMagic := make([]byte, len(magic))
	if err := r.TakeBytes(gotMagic); err != nil {
		return nil, errCodec(err)
	}
	if string(gotMagic) != magic {
		return nil, errInvalidMagic()
	}

	h := &Header{}
	var err error
	if h.Ctime, err = r.TakeI64(); err != nil {
		return nil, errCodec(err)
	}
	if h.Mtime, err = r.TakeI64(); err != nil {
		return nil, errCodec(err)
	}
	if h.TotalSize, err = r.TakeU64(); err != nil {
		return nil, errCodec(err)
	}
	if h.Count, err = r.TakeU64(); err != nil {
		return nil, errCodec(err)
	}
	if h.FirstID, err = takeBlockID(r); err != nil {
		return nil, errCodec(err)
	}
	if h.LastID, err = takeBlockID(r); err != nil {
		return nil, errCodec(err)
	}
	return h, nil
}
