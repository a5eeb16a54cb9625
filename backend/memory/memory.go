// Package memory implements an in-RAM backend.Backend, used in tests and
// as a reference implementation of the block-store contract (spec.md
// §4.5). It is not safe for concurrent use, matching the container's
// single-threaded model.
package memory

import (
	"fmt"
	"strconv"

	"github.com/drobin/nutsgo/internal/tlog"

	"github.com/drobin/nutsgo/backend"
)

const headerIDRaw = "header"

// Backend is an in-memory block store keyed by a monotonically increasing
// counter, rendered as a "block-<n>" string block id.
type Backend struct {
	blockSize uint32
	blocks    map[string][]byte
	next      uint64
	headerID  backend.BlockID
}

// New returns a Backend delivering blockSize-byte blocks.
func New(blockSize uint32) *Backend {
	return &Backend{
		blockSize: blockSize,
		blocks:    make(map[string][]byte),
		headerID:  backend.NewBlockID([]byte(headerIDRaw)),
	}
}

func (b *Backend) BlockSize() uint32 { return b.blockSize }

func (b *Backend) HeaderID() backend.BlockID { return b.headerID }

func (b *Backend) Info() map[string]string {
	return map[string]string{
		"kind":   "memory",
		"blocks": strconv.Itoa(len(b.blocks)),
	}
}

func (b *Backend) Acquire() (backend.BlockID, error) {
	id := backend.NewBlockID([]byte(fmt.Sprintf("block-%d", b.next)))
	b.next++
	b.blocks[string(id.Bytes())] = make([]byte, b.blockSize)
	tlog.Debug.Printf("memory: acquired %s", id)
	return id, nil
}

func (b *Backend) Release(id backend.BlockID) error {
	key := string(id.Bytes())
	if _, ok := b.blocks[key]; !ok {
		return backend.ErrAlreadyReleased
	}
	delete(b.blocks, key)
	tlog.Debug.Printf("memory: released %s", id)
	return nil
}

func (b *Backend) Read(id backend.BlockID, buf []byte) (int, error) {
	data, ok := b.lookup(id)
	if !ok {
		return 0, backend.ErrNoSuchID
	}
	n := copy(buf, data)
	return n, nil
}

func (b *Backend) Write(id backend.BlockID, buf []byte) (int, error) {
	data, ok := b.lookup(id)
	if !ok {
		return 0, backend.ErrNoSuchID
	}
	n := copy(data, buf[:b.blockSize])
	return n, nil
}

func (b *Backend) lookup(id backend.BlockID) ([]byte, bool) {
	if id.Equal(b.headerID) {
		data, ok := b.blocks[headerIDRaw]
		if !ok {
			data = make([]byte, b.blockSize)
			b.blocks[headerIDRaw] = data
		}
		return data, true
	}
	data, ok := b.blocks[string(id.Bytes())]
	return data, ok
}
