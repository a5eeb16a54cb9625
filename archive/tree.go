package archive

import (
	"github.com/drobin/nutsgo/backend"
	"github.com/drobin/nutsgo/container"
	"github.com/drobin/nutsgo/internal/bytecodec"
)

// tree is the ordinal→block-id index of spec.md §4.9: a shallow
// page-addressed array. Each page holds as many ids as fit in one block
// plus a fixed-width pointer to the next ids page, giving
// O(ordinal / fanout) lookup. It is a sibling of internal/pagechain
// rather than built on it: a pagechain.Stream's payload is an
// undifferentiated byte run, while a tree page is a fixed-width record
// array that needs random-access rewrite of a single slot on append.
type tree struct {
	c *container.Container
}

func newTree(c *container.Container) tree {
	return tree{c: c}
}

func (t tree) fanout() int {
	return (int(t.c.BlockSize()) - blockIDWidth) / blockIDWidth
}

type treePage struct {
	id   backend.BlockID
	next backend.BlockID
	ids  []backend.BlockID // len == fanout; unused tail slots are NullID
}

func (t tree) readPage(id backend.BlockID) (*treePage, error) {
	raw := make([]byte, t.c.BlockSize())
	if _, err := t.c.Read(id, raw); err != nil {
		return nil, err
	}

	src := bytecodec.NewSliceSource(raw)
	r := bytecodec.NewReader(src)

	next, err := takeBlockID(r)
	if err != nil {
		return nil, errCodec(err)
	}

	fanout := t.fanout()
	ids := make([]backend.BlockID, fanout)
	for i := 0; i < fanout; i++ {
		bid, err := takeBlockID(r)
		if err != nil {
			return nil, errCodec(err)
		}
		ids[i] = bid
	}

	return &treePage{id: id, next: next, ids: ids}, nil
}

func (t tree) writePage(p *treePage) error {
	sink := bytecodec.NewVecSink()
	w := bytecodec.NewWriter(sink)

	if err := putBlockID(w, p.next); err != nil {
		return errCodec(err)
	}
	for _, id := range p.ids {
		if err := putBlockID(w, id); err != nil {
			return errCodec(err)
		}
	}

	block := make([]byte, t.c.BlockSize())
	copy(block, sink.Bytes())
	_, err := t.c.Write(p.id, block)
	return err
}

// newPage acquires and persists a fresh, empty, terminal ids page.
func (t tree) newPage() (*treePage, error) {
	id, err := t.c.Acquire()
	if err != nil {
		return nil, err
	}
	p := &treePage{id: id, next: backend.NullID, ids: make([]backend.BlockID, t.fanout())}
	if err := t.writePage(p); err != nil {
		return nil, err
	}
	return p, nil
}

// lookup returns the id recorded at ordinal in h's index.
func (t tree) lookup(h *Header, ordinal uint64) (backend.BlockID, error) {
	if ordinal >= h.Count {
		return backend.BlockID{}, errNoSuchOrdinal()
	}

	fanout := uint64(t.fanout())
	pageIdx := ordinal / fanout
	slot := ordinal % fanout

	page, err := t.readPage(h.FirstID)
	if err != nil {
		return backend.BlockID{}, err
	}
	for i := uint64(0); i < pageIdx; i++ {
		page, err = t.readPage(page.next)
		if err != nil {
			return backend.BlockID{}, err
		}
	}
	return page.ids[slot], nil
}

// append records id at ordinal h.Count, growing the index with a new
// ids page when the current tail page is full, and advances h in place.
func (t tree) append(h *Header, id backend.BlockID) error {
	if h.FirstID.IsNull() {
		p, err := t.newPage()
		if err != nil {
			return err
		}
		h.FirstID = p.id
		h.LastID = p.id
	}

	fanout := uint64(t.fanout())
	slot := h.Count % fanout

	var page *treePage
	if slot == 0 && h.Count > 0 {
		prev, err := t.readPage(h.LastID)
		if err != nil {
			return err
		}
		page, err = t.newPage()
		if err != nil {
			return err
		}
		prev.next = page.id
		if err := t.writePage(prev); err != nil {
			return err
		}
		h.LastID = page.id
	} else {
		p, err := t.readPage(h.LastID)
		if err != nil {
			return err
		}
		page = p
	}

	page.ids[slot] = id
	if err := t.writePage(page); err != nil {
		return err
	}
	h.Count++
	return nil
}
