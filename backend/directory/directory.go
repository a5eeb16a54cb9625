// Package directory implements a backend.Backend over a sharded directory
// tree: one file per block, addressed by a 128-bit UUID, two levels of
// hex-prefix sharding deep: aa/bb/<full hex id>.dat (spec.md §4.5). Header
// rewrites go through
// github.com/google/renameio so a crash mid-write never leaves a
// half-written header block, the same atomic-replace idiom distr1-distri
// uses for its own metadata files.
package directory

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/renameio"
	"github.com/google/uuid"

	"github.com/drobin/nutsgo/backend"
	"github.com/drobin/nutsgo/internal/tlog"
)

const headerFilename = "header.blk"

// Options configures a directory Backend.
type Options struct {
	// Path is the root directory; it is created if it does not exist.
	Path string
	// BlockSize is the gross block size every file under Path holds.
	// The directory backend does not persist this anywhere itself, so
	// callers must pass the same value on every Open/Create of the same
	// root.
	BlockSize uint32
}

// Backend is a directory-tree block store.
type Backend struct {
	root      string
	blockSize uint32
	headerID  backend.BlockID
}

// New creates (if needed) the root directory and returns a Backend.
func New(opts Options) (*Backend, error) {
	if err := os.MkdirAll(opts.Path, 0700); err != nil {
		return nil, fmt.Errorf("directory: %w", err)
	}
	return &Backend{
		root:      opts.Path,
		blockSize: opts.BlockSize,
		headerID:  backend.NewBlockID([]byte(headerFilename)),
	}, nil
}

func (b *Backend) BlockSize() uint32 { return b.blockSize }

func (b *Backend) HeaderID() backend.BlockID { return b.headerID }

func (b *Backend) Info() map[string]string {
	n, err := countBlocks(b.root)
	if err != nil {
		n = 0
	}
	return map[string]string{
		"kind":   "directory",
		"path":   b.root,
		"blocks": fmt.Sprintf("%d", n),
	}
}

func countBlocks(root string) (int, error) {
	n := 0
	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && filepath.Ext(path) == ".dat" {
			n++
		}
		return nil
	})
	return n, err
}

func (b *Backend) Acquire() (backend.BlockID, error) {
	id := backend.NewBlockID(mustUUID())
	path := b.pathFor(id)
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return backend.BlockID{}, fmt.Errorf("directory: %w", err)
	}
	if err := renameio.WriteFile(path, make([]byte, b.blockSize), 0600); err != nil {
		return backend.BlockID{}, fmt.Errorf("directory: %w", err)
	}
	tlog.Debug.Printf("directory: acquired %s", id)
	return id, nil
}

func (b *Backend) Release(id backend.BlockID) error {
	path := b.pathFor(id)
	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return backend.ErrAlreadyReleased
		}
		return fmt.Errorf("directory: %w", err)
	}
	tlog.Debug.Printf("directory: released %s", id)
	return nil
}

func (b *Backend) Read(id backend.BlockID, buf []byte) (int, error) {
	f, err := os.Open(b.pathFor(id))
	if err != nil {
		if os.IsNotExist(err) {
			return 0, backend.ErrNoSuchID
		}
		return 0, fmt.Errorf("directory: %w", err)
	}
	defer f.Close()

	n, err := io.ReadFull(f, buf[:b.blockSize])
	if err != nil {
		return n, fmt.Errorf("directory: %w", err)
	}
	return n, nil
}

func (b *Backend) Write(id backend.BlockID, buf []byte) (int, error) {
	path := b.pathFor(id)
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return 0, fmt.Errorf("directory: %w", err)
	}
	if err := renameio.WriteFile(path, buf[:b.blockSize], 0600); err != nil {
		return 0, fmt.Errorf("directory: %w", err)
	}
	return int(b.blockSize), nil
}

func (b *Backend) pathFor(id backend.BlockID) string {
	if id.Equal(b.headerID) {
		return filepath.Join(b.root, headerFilename)
	}
	hexID := id.String()
	if len(hexID) < 4 {
		return filepath.Join(b.root, "misc", hexID+".dat")
	}
	return filepath.Join(b.root, hexID[0:2], hexID[2:4], hexID+".dat")
}

func mustUUID() []byte {
	id, err := uuid.NewRandom()
	if err != nil {
		panic(fmt.Sprintf("directory: uuid generation failed: %v", err))
	}
	return id[:]
}
